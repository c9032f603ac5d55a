package gen

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"schemamap/internal/builtin"
	"schemamap/internal/expr"
	"schemamap/internal/fieldpath"
	"schemamap/internal/mapping"
	"schemamap/internal/plan"
	"schemamap/value"
)

// templateData holds everything the transformer template needs. Code
// fragments are rendered up front; the template only lays them out.
type templateData struct {
	PackageName string
	TypeName    string
	Filename    string
	SourceName  string
	OmitNulls   bool
	Comments    bool
	Vars        []varDecl
	Tables      string
	Body        string
	Mappings    []mappingData
}

// varDecl is a package-level variable: a parsed path, a static argument
// list or the parts of a merge expression.
type varDecl struct {
	Name  string
	Value string
}

// mappingData is one mapping, rendered as a method.
type mappingData struct {
	Method  string
	Line    int
	Comment string
	Stmts   []string
}

// buildTemplateData renders the plan into template fragments.
func (g *Generator) buildTemplateData(p *plan.Plan) (*templateData, error) {
	data := &templateData{
		PackageName: g.config.PackageName,
		TypeName:    g.typeName(p),
		SourceName:  p.File.SourceName,
		OmitNulls:   p.OmitNulls,
		Comments:    g.config.GenerateComments,
	}
	data.Filename = snakeCase(data.TypeName) + ".go"

	b := &bodyBuilder{data: data, plan: p, paths: make(map[string]string)}

	tables, err := tablesLiteral(p.Tables)
	if err != nil {
		return nil, err
	}

	data.Tables = tables

	var body strings.Builder
	if err := b.writeBody(&body, p.Rules, 1); err != nil {
		return nil, err
	}

	data.Body = body.String()

	return data, nil
}

// typeName picks the generated type name: the configured one, else one
// derived from the plan name.
func (g *Generator) typeName(p *plan.Plan) string {
	if g.config.TypeName != "" {
		return g.config.TypeName
	}

	name := exportedIdent(p.Name)
	if name == "" {
		return "Transformer"
	}

	return name
}

type bodyBuilder struct {
	data  *templateData
	plan  *plan.Plan
	paths map[string]string
	args  int
	merge int
}

func (b *bodyBuilder) addVar(prefix string, n int, val string) string {
	name := prefix + strconv.Itoa(n)
	b.data.Vars = append(b.data.Vars, varDecl{Name: name, Value: val})

	return name
}

// path returns the variable holding p, declaring it on first use.
func (b *bodyBuilder) path(p fieldpath.Path) string {
	key := p.String()
	if name, ok := b.paths[key]; ok {
		return name
	}

	segs := make([]string, 0, len(p.Segments))

	for _, s := range p.Segments {
		switch s.Kind {
		case fieldpath.SegmentField:
			segs = append(segs, fmt.Sprintf("{segField, %s, 0}", strconv.Quote(s.Name)))
		case fieldpath.SegmentIndex:
			segs = append(segs, fmt.Sprintf("{segIndex, \"\", %d}", s.Index))
		case fieldpath.SegmentWildcard:
			segs = append(segs, "{segWildcard, \"\", 0}")
		}
	}

	name := b.addVar("path", len(b.paths), "fieldPath{"+strings.Join(segs, ", ")+"}")
	b.paths[key] = name

	return name
}

func (b *bodyBuilder) writeBody(w *strings.Builder, rules []plan.Rule, depth int) error {
	indent := strings.Repeat("\t", depth)

	if slices.ContainsFunc(rules, isBlock) {
		w.WriteString(indent + "matched := false\n")
	}

	for _, r := range rules {
		switch t := r.(type) {
		case *plan.MappingRule:
			m, err := b.mapping(t)
			if err != nil {
				return err
			}

			fmt.Fprintf(w, "%sif err := t.%s(record, out); err != nil {\n%s\treturn err\n%s}\n", indent, m, indent, indent)
		case *plan.BlockRule:
			if t.IsElse() {
				fmt.Fprintf(w, "%sif !matched {\n", indent)
			} else {
				cond, err := b.condition(t.Condition)
				if err != nil {
					return err
				}

				fmt.Fprintf(w, "%s// line %d: @when %s\n", indent, t.Pos().Line, t.Condition)
				fmt.Fprintf(w, "%smatched = %s\n%sif matched {\n", indent, cond, indent)
			}

			if err := b.writeBody(w, t.Body, depth+1); err != nil {
				return err
			}

			w.WriteString(indent + "}\n")
		case *plan.GroupRule:
			w.WriteString(indent + "{\n")

			if err := b.writeBody(w, t.Body, depth+1); err != nil {
				return err
			}

			w.WriteString(indent + "}\n")
		}
	}

	return nil
}

func isBlock(r plan.Rule) bool {
	_, ok := r.(*plan.BlockRule)
	return ok
}

func (b *bodyBuilder) condition(c *mapping.Condition) (string, error) {
	lit, err := goLiteral(c.Value)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("matches(getPath(record, %s), %q, %s)", b.path(c.Field), c.Op.String(), lit), nil
}

// mapping renders r as a method and returns the method name.
func (b *bodyBuilder) mapping(r *plan.MappingRule) (string, error) {
	m := mappingData{
		Method:  "mapping" + strconv.Itoa(len(b.data.Mappings)),
		Line:    r.Pos().Line,
		Comment: r.Mapping.Source.String() + " : " + r.Mapping.Target.String(),
	}

	if len(r.Mapping.Transforms) > 0 {
		m.Comment += " | " + r.Mapping.Transforms.String()
	}

	s := &stmtWriter{b: b, line: m.Line}

	src, err := s.source(r.Source)
	if err != nil {
		return "", err
	}

	s.emit("var v any = " + src)

	if r.Source.Optional() || b.plan.SkipMissing {
		s.emit("if v == nil {\n\treturn nil\n}")
	}

	if err := s.chain(r.Steps, r.Strategy == plan.StrategyFanOut); err != nil {
		return "", err
	}

	if r.Discard {
		s.emit("_ = v")
	} else {
		s.emit(fmt.Sprintf("setPath(out, %s, v)", b.path(r.Target)))
	}

	s.emit("return nil")

	m.Stmts = s.stmts
	b.data.Mappings = append(b.data.Mappings, m)

	return m.Method, nil
}

// stmtWriter collects the statements of one mapping method. Calls that
// can fail are hoisted into temporaries checked right away.
type stmtWriter struct {
	b     *bodyBuilder
	line  int
	stmts []string
	temps int
	env   bool
}

func (s *stmtWriter) emit(stmt string) {
	s.stmts = append(s.stmts, stmt)
}

func (s *stmtWriter) temp() string {
	name := "x" + strconv.Itoa(s.temps)
	s.temps++

	return name
}

func (s *stmtWriter) failable(call string) string {
	tmp := s.temp()
	s.emit(fmt.Sprintf("%s, err := %s\nif err != nil {\n\treturn &mappingError{line: %d, err: err}\n}", tmp, call, s.line))

	return tmp
}

func (s *stmtWriter) source(src plan.Source) (string, error) {
	switch src.Kind {
	case plan.SourcePath:
		return fmt.Sprintf("getPath(record, %s)", s.b.path(src.Path)), nil
	case plan.SourceMerge:
		return s.merge(src.Merge), nil
	case plan.SourceExpr:
		return s.expr(src.Expr, src.Strict)
	case plan.SourceNow:
		return "formatNow(t.clock())", nil
	case plan.SourceUUID:
		return "t.uuids()", nil
	default:
		return goLiteral(src.Constant)
	}
}

func (s *stmtWriter) merge(m *mapping.MergeExpr) string {
	parts := make([]string, 0, len(m.Parts))

	for _, p := range m.Parts {
		if p.IsLiteral {
			parts = append(parts, fmt.Sprintf("{literal: %s, isLiteral: true}", strconv.Quote(p.Literal)))
		} else {
			parts = append(parts, fmt.Sprintf("{path: %s}", s.b.path(p.Path)))
		}
	}

	name := s.b.addVar("merge", s.b.merge, "[]mergePart{"+strings.Join(parts, ", ")+"}")
	s.b.merge++

	if m.Op == mapping.MergeCoalesce {
		return fmt.Sprintf("coalesce(record, %s)", name)
	}

	return fmt.Sprintf("concat(record, %s)", name)
}

// expr renders n as a Go expression, hoisting function calls.
func (s *stmtWriter) expr(n expr.Node, strict bool) (string, error) {
	switch t := n.(type) {
	case *expr.Literal:
		return goLiteral(t.Value)
	case *expr.PathRef:
		return fmt.Sprintf("getPath(record, %s)", s.b.path(t.Path)), nil
	case *expr.Neg:
		operand, err := s.expr(t.Operand, strict)
		if err != nil {
			return "", err
		}

		return "negate(" + operand + ")", nil
	case *expr.Binary:
		left, err := s.expr(t.Left, strict)
		if err != nil {
			return "", err
		}

		right, err := s.expr(t.Right, strict)
		if err != nil {
			return "", err
		}

		return fmt.Sprintf("arith('%c', %s, %s)", t.Op, left, right), nil
	case *expr.Call:
		args := []string{strconv.Quote(t.Name), strconv.FormatBool(strict)}

		for _, a := range t.Args {
			code, err := s.expr(a, strict)
			if err != nil {
				return "", err
			}

			args = append(args, code)
		}

		return s.failable("t.funcs.callExpr(" + strings.Join(args, ", ") + ")"), nil
	default:
		return "", fmt.Errorf("unsupported expression %T", n)
	}
}

// chainCall is a rendered step; render fills in the input. name is set
// for external functions.
type chainCall struct {
	fn   string
	args string
	each bool
	name string
}

func (c chainCall) render(in string) string {
	switch {
	case c.name != "":
		return "t.funcs.callElems(" + strconv.Quote(c.name) + ", " + in + c.args + ")"
	case c.each:
		return "mapElems(" + c.fn + ", " + in + ", " + c.args + ", e)"
	default:
		return c.fn + "(" + in + ", " + c.args + ", e)"
	}
}

// assign renders dst = c(dst) at the given indent, checking the error of
// an external call.
func (s *stmtWriter) assign(c chainCall, dst, indent string) string {
	if c.name == "" {
		return indent + dst + " = " + c.render(dst) + "\n"
	}

	tmp := s.temp()

	return fmt.Sprintf("%[1]s%[2]s, err := %[3]s\n%[1]sif err != nil {\n%[1]s\treturn &mappingError{line: %[4]d, err: err}\n%[1]s}\n%[1]s%[5]s = %[2]s\n",
		indent, tmp, c.render(dst), s.line, dst)
}

// chain renders the steps. A fan-out chain runs in an explicit loop over
// the elements of a sequence input.
func (s *stmtWriter) chain(steps []plan.Step, fanOut bool) error {
	var calls []chainCall

	for i := range steps {
		st := &steps[i]

		switch st.Binding {
		case plan.BindBuiltin:
			args, err := s.args(st)
			if err != nil {
				return err
			}

			if !s.env {
				s.emit("e := &env{tables: lookupTables}")
				s.env = true
			}

			c := chainCall{fn: preludeName(st.Builtin), args: args, each: !st.Builtin.ArrayAware()}
			calls = append(calls, c)

			if !fanOut {
				s.emit("v = " + c.render("v"))
			}
		case plan.BindExternal:
			args, err := s.argList(st)
			if err != nil {
				return err
			}

			c := chainCall{args: args, name: st.Name}
			calls = append(calls, c)

			if !fanOut {
				s.emit("v = " + s.failable(c.render("v")))
			}
		case plan.BindUnresolved:
			s.emit(fmt.Sprintf("// %s is not a known transform; the value passes through.", st.Name))
		}
	}

	if !fanOut || len(calls) == 0 {
		return nil
	}

	var loop, direct strings.Builder

	for _, c := range calls {
		loop.WriteString(s.assign(c, "el", "\t\t"))
		direct.WriteString(s.assign(c, "v", "\t"))
	}

	s.emit("if seq, ok := v.([]any); ok {\n" +
		"\tres := make([]any, 0, len(seq))\n" +
		"\tfor _, el := range seq {\n" + loop.String() +
		"\t\tres = append(res, el)\n\t}\n" +
		"\tv = res\n" +
		"} else {\n" + direct.String() + "}")

	return nil
}

// args renders the argument list of a builtin step: a shared variable when
// it is static, a literal slice when it reads the record.
func (s *stmtWriter) args(st *plan.Step) (string, error) {
	if len(st.Args) == 0 {
		return "nil", nil
	}

	if !st.Dynamic {
		vals := make([]string, 0, len(st.Static))

		for _, v := range st.Static {
			lit, err := goLiteral(v)
			if err != nil {
				return "", err
			}

			vals = append(vals, lit)
		}

		name := s.b.addVar("args", s.b.args, "[]any{"+strings.Join(vals, ", ")+"}")
		s.b.args++

		return name, nil
	}

	list, err := s.argList(st)
	if err != nil {
		return "", err
	}

	return "[]any{" + strings.TrimPrefix(list, ", ") + "}", nil
}

// argList renders the arguments of st as ", a, b".
func (s *stmtWriter) argList(st *plan.Step) (string, error) {
	var b strings.Builder

	for _, a := range st.Args {
		b.WriteString(", ")

		switch a.Kind {
		case mapping.ArgWord:
			b.WriteString(strconv.Quote(a.Name))
		case mapping.ArgRef:
			b.WriteString(strconv.Quote("@" + a.Name))
		case mapping.ArgPath:
			b.WriteString(fmt.Sprintf("getPath(record, %s)", s.b.path(a.Path)))
		default:
			lit, err := goLiteral(a.Value)
			if err != nil {
				return "", err
			}

			b.WriteString(lit)
		}
	}

	return b.String(), nil
}

// preludeName is the prelude function implementing k.
func preludeName(k builtin.Kind) string {
	return "builtin" + exportedIdent(k.String())
}

// goLiteral renders v as a Go expression of the prelude value model.
func goLiteral(v value.Value) (string, error) {
	switch v.Kind() {
	case value.KindNull:
		return "nil", nil
	case value.KindBool:
		b, _ := v.AsBool()
		return strconv.FormatBool(b), nil
	case value.KindInt:
		i, _ := v.AsInt()
		return fmt.Sprintf("int64(%d)", i), nil
	case value.KindFloat:
		f, _ := v.AsFloat()

		s := strconv.FormatFloat(f, 'g', -1, 64)
		if strings.ContainsAny(s, "IN") {
			return "", fmt.Errorf("cannot render %s as a Go constant", v)
		}

		return "float64(" + s + ")", nil
	case value.KindString:
		s, _ := v.AsString()
		return strconv.Quote(s), nil
	case value.KindSeq:
		seq, _ := v.AsSeq()
		elems := make([]string, 0, seq.Len())

		for _, e := range seq.Elems() {
			lit, err := goLiteral(e)
			if err != nil {
				return "", err
			}

			elems = append(elems, lit)
		}

		return "[]any{" + strings.Join(elems, ", ") + "}", nil
	default:
		m, _ := v.AsMap()
		return mapLiteral("map[string]any", m)
	}
}

func mapLiteral(typ string, m *value.Map) (string, error) {
	entries := make([]string, 0, m.Len())

	for k, e := range m.All() {
		lit, err := goLiteral(e)
		if err != nil {
			return "", err
		}

		entries = append(entries, strconv.Quote(k)+": "+lit)
	}

	return typ + "{" + strings.Join(entries, ", ") + "}", nil
}

// tablesLiteral renders the lookup tables as one nested map literal.
func tablesLiteral(tables map[string]*value.Map) (string, error) {
	m := value.NewMap()
	for _, name := range slices.Sorted(maps.Keys(tables)) {
		m.Set(name, value.FromMap(tables[name]))
	}

	entries := make([]string, 0, m.Len())

	for name, t := range m.All() {
		inner, _ := t.AsMap()

		lit, err := mapLiteral("", inner)
		if err != nil {
			return "", fmt.Errorf("lookup %s: %w", name, err)
		}

		entries = append(entries, strconv.Quote(name)+": "+lit)
	}

	return "map[string]map[string]any{" + strings.Join(entries, ", ") + "}", nil
}

// exportedIdent turns snake_case, kebab-case or dotted names into an
// exported Go identifier: "order_export" -> "OrderExport".
func exportedIdent(s string) string {
	var b strings.Builder

	upper := true

	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) && b.Len() > 0:
			if upper {
				r = unicode.ToUpper(r)
				upper = false
			}

			b.WriteRune(r)
		default:
			upper = true
		}
	}

	return b.String()
}

// snakeCase turns an identifier into a file name stem: "OrderExport" ->
// "order_export".
func snakeCase(s string) string {
	var b strings.Builder

	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}

			r = unicode.ToLower(r)
		}

		b.WriteRune(r)
	}

	return b.String()
}
