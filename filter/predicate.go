package filter

import (
	"regexp"
	"slices"
)

// Predicate decides whether a selector stays. It gets the selector text as
// written in the stylesheet and its compound groups.
type Predicate func(selector string, parts []string) bool

// KeepAll accepts every selector.
func KeepAll() Predicate {
	return func(string, []string) bool { return true }
}

// ExcludeParts rejects selectors having any of the given compound groups.
func ExcludeParts(parts ...string) Predicate {
	return func(_ string, groups []string) bool {
		for _, g := range groups {
			if slices.Contains(parts, g) {
				return false
			}
		}
		return true
	}
}

// IncludeParts accepts only selectors having at least one of the given
// compound groups.
func IncludeParts(parts ...string) Predicate {
	return func(_ string, groups []string) bool {
		for _, g := range groups {
			if slices.Contains(parts, g) {
				return true
			}
		}
		return false
	}
}

// ExcludePatterns rejects selectors matching any of the expressions.
func ExcludePatterns(res ...*regexp.Regexp) Predicate {
	return func(sel string, _ []string) bool {
		for _, re := range res {
			if re.MatchString(sel) {
				return false
			}
		}
		return true
	}
}

// IncludePatterns accepts only selectors matching at least one expression.
func IncludePatterns(res ...*regexp.Regexp) Predicate {
	return func(sel string, _ []string) bool {
		for _, re := range res {
			if re.MatchString(sel) {
				return true
			}
		}
		return false
	}
}

// And combines predicates, all of them must accept the selector. No
// predicates means KeepAll.
func And(preds ...Predicate) Predicate {
	return func(sel string, parts []string) bool {
		for _, p := range preds {
			if p != nil && !p(sel, parts) {
				return false
			}
		}
		return true
	}
}
