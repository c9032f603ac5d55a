package gen

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemamap/internal/eval"
	"schemamap/internal/registry"
	"schemamap/value"
)

const integrationMain = `package main

import (
	"bufio"
	"fmt"
	"os"
	"time"
)

var setups []func(t *Transformer)

func main() {
	t := NewTransformer()
	for _, setup := range setups {
		setup(t)
	}

	t.SetClock(func() time.Time { return time.Date(2024, 3, 1, 12, 30, 0, 1500, time.UTC) })
	t.SetUUIDs(func() string { return "fixed-uuid" })

	sc := bufio.NewScanner(os.Stdin)
	sc.Buffer(make([]byte, 1<<20), 1<<20)

	for sc.Scan() {
		rec, err := decodeJSON(sc.Bytes())
		if err != nil {
			fmt.Println("error: " + err.Error())
			continue
		}

		m, _ := rec.(map[string]any)

		out, err := t.Transform(m)
		if err != nil {
			fmt.Println("error: " + err.Error())
			continue
		}

		fmt.Println(string(appendJSON(nil, out)))
	}
}
`

// shoutSetup registers the generated counterpart of shoutFuncs.
const shoutSetup = `package main

import "strings"

func init() {
	setups = append(setups, func(t *Transformer) {
		_ = t.RegisterFunction("shout", func(args ...any) (any, error) {
			s, _ := args[0].(string)
			return strings.ToUpper(s), nil
		})
	})
}
`

// runGenerated generates the transformer for src as a main package inside
// the module, so the module's go.mod supplies the prelude's imports, and
// feeds it one JSON record per line. funcs binds external steps at
// generation time; setup is an extra source file of the main package.
func runGenerated(t *testing.T, src string, funcs *registry.Registry, setup string, inputs []string) []string {
	t.Helper()

	repoRoot, err := filepath.Abs(filepath.Join("..", ".."))
	require.NoError(t, err)

	dir, err := os.MkdirTemp(repoRoot, "schemamap-it-")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	files, err := Generate(resolve(t, src, funcs), GeneratorConfig{PackageName: "main", TypeName: "Transformer"})
	require.NoError(t, err)

	files = append(files, GeneratedFile{Filename: "main.go", Content: []byte(integrationMain)})
	if setup != "" {
		files = append(files, GeneratedFile{Filename: "setup.go", Content: []byte(setup)})
	}
	require.NoError(t, WriteFiles(files, dir))

	cmd := exec.CommandContext(t.Context(), "go", "run", "./"+filepath.Base(dir))
	cmd.Dir = repoRoot
	cmd.Stdin = strings.NewReader(strings.Join(inputs, "\n") + "\n")

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		for _, f := range files {
			t.Logf("generated file %s:\n%s", f.Filename, f.Content)
		}

		t.Fatalf("go run failed: %v\n%s", err, stderr.String())
	}

	return strings.Split(strings.TrimSuffix(string(out), "\n"), "\n")
}

func TestGenerated_MatchesInterpreter(t *testing.T) {
	if testing.Short() {
		t.Skip("builds generated code")
	}

	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go toolchain not found")
	}

	for _, tc := range equivalenceCorpus {
		t.Run(tc.name, func(t *testing.T) {
			got := runGenerated(t, tc.src, nil, "", tc.inputs)
			require.Len(t, got, len(tc.inputs))

			interp := eval.New(resolve(t, tc.src, nil),
				eval.WithClock(testClock), eval.WithUUIDs(func() string { return "fixed-uuid" }))

			for i, in := range tc.inputs {
				// Generated code sees maps without order; feed the
				// interpreter sorted keys so rendered text agrees.
				record := value.FromNative(value.ToNative(decode(t, in)))

				want, err := interp.Transform(record)
				require.NoError(t, err, in)

				gotValue, err := value.DecodeJSON([]byte(got[i]))
				require.NoError(t, err, got[i])

				assert.True(t, value.Equal(want, gotValue), "%s\nwant %s\ngot  %s", in, want, got[i])
			}
		})
	}
}

func TestGenerated_ExternalStepsElementWise(t *testing.T) {
	if testing.Short() {
		t.Skip("builds generated code")
	}

	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go toolchain not found")
	}

	funcs := shoutFuncs(t)
	got := runGenerated(t, externalElementsSrc, funcs, shoutSetup, externalElementsInputs)
	require.Len(t, got, len(externalElementsInputs))

	interp := eval.New(resolve(t, externalElementsSrc, funcs))

	for i, in := range externalElementsInputs {
		want, err := interp.Transform(value.FromNative(value.ToNative(decode(t, in))))
		require.NoError(t, err, in)

		gotValue, err := value.DecodeJSON([]byte(got[i]))
		require.NoError(t, err, got[i])

		assert.True(t, value.Equal(want, gotValue), "%s\nwant %s\ngot  %s", in, want, got[i])
	}

	assert.Equal(t, `{"loud":["X",["Y"]],"names":"A,B","out":[{"n":"A"},{"n":"B"}]}`, got[0])
}
