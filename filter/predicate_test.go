package filter

import (
	"regexp"
	"testing"
)

func TestPredicates(t *testing.T) {
	type input struct {
		sel   string
		parts []string
	}
	a := input{"#main .a strong", []string{"#main", ".a", "strong"}}
	b := input{".b + .c", []string{".b", ".c"}}

	tests := []struct {
		name string
		pred Predicate
		want [2]bool
	}{
		{"keep all", KeepAll(), [2]bool{true, true}},
		{"exclude parts", ExcludeParts(".c", ".x"), [2]bool{true, false}},
		{"include parts", IncludeParts("strong"), [2]bool{true, false}},
		{"include parts none", IncludeParts(), [2]bool{false, false}},
		{"exclude patterns", ExcludePatterns(regexp.MustCompile(`^#`)), [2]bool{false, true}},
		{"include patterns", IncludePatterns(regexp.MustCompile(`\+`), regexp.MustCompile(`~`)), [2]bool{false, true}},
		{"and", And(ExcludeParts(".x"), IncludePatterns(regexp.MustCompile(`\.c`))), [2]bool{false, true}},
		{"and empty", And(), [2]bool{true, true}},
		{"and with nil", And(nil, KeepAll()), [2]bool{true, true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i, in := range []input{a, b} {
				if got := tt.pred(in.sel, in.parts); got != tt.want[i] {
					t.Errorf("%q: got %v, want %v", in.sel, got, tt.want[i])
				}
			}
		})
	}
}
