package filter

import (
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// AtRuleList is the set of at-rule names which are never removed. The zero
// value means the default list.
type AtRuleList struct {
	set   bool
	all   bool
	names []string
}

// DefaultAtRules is used when no list was configured.
func DefaultAtRules() AtRuleList {
	return Names("charset", "import", "keyframes")
}

// All keeps every at-rule, the at-rule pass is skipped altogether.
func All() AtRuleList {
	return AtRuleList{set: true, all: true}
}

// Names keeps at-rules with the given names. An empty list removes every
// at-rule which is empty or removed by default.
func Names(names ...string) AtRuleList {
	return AtRuleList{set: true, names: slices.Clone(names)}
}

// IsAll reports whether every at-rule is kept.
func (l AtRuleList) IsAll() bool { return l.all }

// IsSet reports whether the list was configured explicitly.
func (l AtRuleList) IsSet() bool { return l.set }

// List returns configured names, nil for All.
func (l AtRuleList) List() []string { return slices.Clone(l.names) }

// Contains reports whether at-rule name is kept. Names are compared ASCII
// case-insensitively.
func (l AtRuleList) Contains(name string) bool {
	if l.all {
		return true
	}
	for _, n := range l.names {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

func (l AtRuleList) String() string {
	if l.all {
		return "all"
	}
	return "[" + strings.Join(l.names, ", ") + "]"
}

func (l AtRuleList) validate() error {
	for _, n := range l.names {
		switch {
		case n == "":
			return &ConfigurationError{Field: "keep_at_rules", Msg: "empty at-rule name"}
		case strings.ContainsAny(n, " \t\r\n\f"):
			return &ConfigurationError{Field: "keep_at_rules", Msg: fmt.Sprintf("at-rule name %q contains whitespace", n)}
		case strings.Contains(n, "@"):
			return &ConfigurationError{Field: "keep_at_rules", Msg: fmt.Sprintf("at-rule name %q must be given without \"@\"", n)}
		}
	}
	return nil
}

// UnmarshalYAML accepts "all", true or a sequence of names.
func (l *AtRuleList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var b bool
		if value.Tag == "!!bool" && value.Decode(&b) == nil && b {
			*l = All()
			return nil
		}
		if value.Tag == "!!str" && strings.EqualFold(value.Value, "all") {
			*l = All()
			return nil
		}
		if value.Tag == "!!null" {
			*l = AtRuleList{}
			return nil
		}
	case yaml.SequenceNode:
		var names []string
		if err := value.Decode(&names); err != nil {
			return &ConfigurationError{Field: "keep_at_rules", Msg: err.Error()}
		}
		list := Names(names...)
		if err := list.validate(); err != nil {
			return err
		}
		*l = list
		return nil
	}
	return &ConfigurationError{
		Field: "keep_at_rules",
		Msg:   fmt.Sprintf("line %d: expected \"all\" or a list of at-rule names, got %q", value.Line, value.Value),
	}
}

// MarshalYAML writes the list back in the form UnmarshalYAML accepts.
func (l AtRuleList) MarshalYAML() (any, error) {
	switch {
	case l.all:
		return "all", nil
	case !l.set:
		return DefaultAtRules().names, nil
	}
	if l.names == nil {
		return []string{}, nil
	}
	return l.names, nil
}
