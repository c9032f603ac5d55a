package plan

import (
	"maps"
	"slices"

	"gopkg.in/yaml.v3"

	"schemamap/internal/mapping"
)

// ExportedPlan is the reviewable form of a Plan.
type ExportedPlan struct {
	Name          string         `yaml:"name,omitempty"`
	Source        string         `yaml:"source,omitempty"`
	NullHandling  string         `yaml:"null_handling"`
	MissingFields string         `yaml:"missing_fields"`
	Tables        []string       `yaml:"tables,omitempty"`
	Functions     []string       `yaml:"functions,omitempty"`
	Rules         []ExportedRule `yaml:"rules"`
	Diagnostics   []string       `yaml:"diagnostics,omitempty"`
}

// ExportedRule is one rule of an ExportedPlan. Blocks carry When (or Else,
// or Group) and a Body; mappings carry the remaining fields.
type ExportedRule struct {
	Line        int            `yaml:"line"`
	When        string         `yaml:"when,omitempty"`
	Else        bool           `yaml:"else,omitempty"`
	Group       bool           `yaml:"group,omitempty"`
	Body        []ExportedRule `yaml:"body,omitempty"`
	Source      string         `yaml:"source,omitempty"`
	Target      string         `yaml:"target,omitempty"`
	Strategy    string         `yaml:"strategy,omitempty"`
	Steps       []string       `yaml:"steps,omitempty"`
	Explanation string         `yaml:"explanation,omitempty"`
}

// Export converts a plan into its reviewable form.
func Export(p *Plan) *ExportedPlan {
	out := &ExportedPlan{
		Name:          p.Name,
		Source:        p.File.SourceName,
		NullHandling:  mapping.NullKeep,
		MissingFields: "keep",
		Tables:        slices.Sorted(maps.Keys(p.Tables)),
		Functions:     p.Funcs.Names(),
		Rules:         exportRules(p.Rules),
	}

	if p.OmitNulls {
		out.NullHandling = mapping.NullOmit
	}

	if p.SkipMissing {
		out.MissingFields = "skip"
	}

	for _, d := range p.Diagnostics.All() {
		out.Diagnostics = append(out.Diagnostics, d.Severity.String()+": "+d.String())
	}

	return out
}

// ExportYAML renders the plan as YAML.
func ExportYAML(p *Plan) ([]byte, error) {
	return yaml.Marshal(Export(p))
}

func exportRules(rules []Rule) []ExportedRule {
	out := make([]ExportedRule, 0, len(rules))

	for _, r := range rules {
		out = append(out, exportRule(r))
	}

	return out
}

func exportRule(r Rule) ExportedRule {
	er := ExportedRule{Line: r.Pos().Line}

	switch t := r.(type) {
	case *BlockRule:
		if t.IsElse() {
			er.Else = true
		} else {
			er.When = t.Condition.String()
		}

		er.Body = exportRules(t.Body)
	case *GroupRule:
		er.Group = true
		er.Body = exportRules(t.Body)
	case *MappingRule:
		er.Source = t.Mapping.Source.String()
		er.Target = t.Mapping.Target.String()
		er.Strategy = t.Strategy.String()
		er.Explanation = t.Explanation

		for i, s := range t.Steps {
			er.Steps = append(er.Steps, t.Mapping.Transforms[i].String()+" ("+s.Binding.String()+")")
		}
	}

	return er
}
