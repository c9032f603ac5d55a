package gen

import (
	"bytes"
	"embed"
	"fmt"
	"go/format"
	"path"
	"strings"
	"text/template"

	"schemamap/internal/plan"
)

// GeneratorConfig holds configuration for code generation.
type GeneratorConfig struct {
	// PackageName is the name of the generated package.
	PackageName string
	// TypeName is the name of the generated transformer type. When empty
	// it is derived from the plan name.
	TypeName string
	// OutputDir is where unformatted sources are dumped when formatting
	// fails. It may be empty.
	OutputDir string
	// GenerateComments emits the mapping line above every method.
	GenerateComments bool
}

// DefaultGeneratorConfig returns the default generator configuration.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		PackageName:      "mappers",
		OutputDir:        "./generated",
		GenerateComments: true,
	}
}

// Generator generates Go code from a resolved plan.
type Generator struct {
	config GeneratorConfig
}

// NewGenerator creates a new Generator with the given configuration.
func NewGenerator(config GeneratorConfig) *Generator {
	if config.PackageName == "" {
		config.PackageName = DefaultGeneratorConfig().PackageName
	}

	return &Generator{config: config}
}

// GeneratedFile represents a generated Go source file.
type GeneratedFile struct {
	// Filename is the name of the file (e.g., "order_export.go").
	Filename string
	// Content is the formatted Go source code.
	Content []byte
}

// Generate is a convenience wrapper around NewGenerator(config).Generate(p).
func Generate(p *plan.Plan, config GeneratorConfig) ([]GeneratedFile, error) {
	return NewGenerator(config).Generate(p)
}

// Generate renders the transformer for p followed by the prelude files it
// depends on. The output imports nothing from this module.
func (g *Generator) Generate(p *plan.Plan) ([]GeneratedFile, error) {
	data, err := g.buildTemplateData(p)
	if err != nil {
		return nil, fmt.Errorf("generating %s: %w", p.Name, err)
	}

	main, err := g.render(transformerTemplate, data.Filename, data)
	if err != nil {
		return nil, err
	}

	files := []GeneratedFile{*main}

	prelude, err := g.preludeFiles()
	if err != nil {
		return nil, fmt.Errorf("generating prelude: %w", err)
	}

	return append(files, prelude...), nil
}

func (g *Generator) render(tmpl *template.Template, filename string, data any) (*GeneratedFile, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing template: %w", err)
	}

	return g.format(filename, buf.Bytes())
}

// format runs gofmt over src. On failure the unformatted source is
// returned with the error and dumped next to the output for inspection.
func (g *Generator) format(filename string, src []byte) (*GeneratedFile, error) {
	formatted, err := format.Source(src)
	if err != nil {
		if g.config.OutputDir != "" {
			_ = writeDebugUnformatted(g.config.OutputDir, filename, src)
		}

		return &GeneratedFile{
			Filename: filename,
			Content:  src,
		}, fmt.Errorf("formatting code: %w", err)
	}

	return &GeneratedFile{
		Filename: filename,
		Content:  formatted,
	}, nil
}

//go:embed prelude/values.go prelude/paths.go prelude/strings.go prelude/numeric.go
//go:embed prelude/arrays.go prelude/misc.go prelude/dates.go prelude/runtime.go
var preludeFS embed.FS

var preludeSources = []string{
	"values.go", "paths.go", "strings.go", "numeric.go",
	"arrays.go", "misc.go", "dates.go", "runtime.go",
}

// preludeFiles copies the prelude into the target package: everything up
// to the package clause is replaced by the generated header.
func (g *Generator) preludeFiles() ([]GeneratedFile, error) {
	files := make([]GeneratedFile, 0, len(preludeSources))

	for _, name := range preludeSources {
		src, err := preludeFS.ReadFile(path.Join("prelude", name))
		if err != nil {
			return nil, err
		}

		_, body, ok := strings.Cut(string(src), "package prelude\n")
		if !ok {
			return nil, fmt.Errorf("prelude/%s: no package clause", name)
		}

		header := generatedHeader + "\n\npackage " + g.config.PackageName + "\n"

		file, err := g.format("schemamap_"+name, []byte(header+body))
		if err != nil {
			return nil, err
		}

		files = append(files, *file)
	}

	return files, nil
}

const generatedHeader = "// Code generated by schemamap. DO NOT EDIT."

var transformerTemplate = template.Must(template.New("transformer").Parse(generatedHeader + `
{{if .SourceName}}// Source: {{.SourceName}}
{{end}}
package {{.PackageName}}

import (
	"fmt"
	"time"
)

// {{.TypeName}} transforms records as declared in the mapping it was
// generated from. It is safe for concurrent use once every function is
// registered.
type {{.TypeName}} struct {
	funcs functions
	clock func() time.Time
	uuids func() string
}

// New{{.TypeName}} returns a {{.TypeName}} using the wall clock for @now
// and random UUIDs for @uuid.
func New{{.TypeName}}() *{{.TypeName}} {
	return &{{.TypeName}}{clock: time.Now, uuids: newUUID}
}

// RegisterFunction makes fn callable from the mapping under name.
func (t *{{.TypeName}}) RegisterFunction(name string, fn func(args ...any) (any, error)) error {
	return t.funcs.register(name, fn)
}

// SetClock replaces the time source of @now.
func (t *{{.TypeName}}) SetClock(clock func() time.Time) {
	t.clock = clock
}

// SetUUIDs replaces the generator of @uuid.
func (t *{{.TypeName}}) SetUUIDs(gen func() string) {
	t.uuids = gen
}

// Transform maps one record. It fails only when an external function
// does.
func (t *{{.TypeName}}) Transform(record map[string]any) (map[string]any, error) {
	out := map[string]any{}

	if err := t.run(normalize(record), out); err != nil {
		return nil, err
	}
{{if .OmitNulls}}
	out, _ = omitNulls(out).(map[string]any)
{{end}}
	return out, nil
}

// TransformBatch maps records in order and stops at the first failure.
func (t *{{.TypeName}}) TransformBatch(records []map[string]any) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(records))

	for i, record := range records {
		r, err := t.Transform(record)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}

		out = append(out, r)
	}

	return out, nil
}

func (t *{{.TypeName}}) run(record any, out map[string]any) error {
{{.Body}}
	return nil
}
{{range .Mappings}}
{{if $.Comments}}// {{.Method}} implements line {{.Line}}: {{.Comment}}
{{end}}func (t *{{$.TypeName}}) {{.Method}}(record any, out map[string]any) error {
{{range .Stmts}}{{.}}
{{end}}}
{{end}}
var lookupTables = {{.Tables}}
{{if .Vars}}
var (
{{range .Vars}}	{{.Name}} = {{.Value}}
{{end}})
{{end}}`))
