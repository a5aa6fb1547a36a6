// Package selector breaks a single CSS selector into compound selector groups.
//
// Selectors are lexed with the tdewolff CSS tokenizer and parsed by a small
// recursive-descent parser into a flat top-level token stream. Functional
// pseudo-classes keep their argument as a nested List (for selector-taking
// pseudo-classes such as :not, :is or :has) or as a normalized raw string
// (:nth-child, :lang, :dir and anything unknown). Arguments are never split,
// they are printed back in canonical compact form.
package selector

import "strings"

// Kind is the syntactic category of a selector token.
type Kind int

const (
	KindTag Kind = iota
	KindUniversal
	KindID
	KindClass
	KindAttribute
	KindPseudoClass
	KindPseudoElement
	KindCombinator
	KindComment
	KindNesting
)

var kindNames = [...]string{
	KindTag:           "tag",
	KindUniversal:     "universal",
	KindID:            "id",
	KindClass:         "class",
	KindAttribute:     "attribute",
	KindPseudoClass:   "pseudo-class",
	KindPseudoElement: "pseudo-element",
	KindCombinator:    "combinator",
	KindComment:       "comment",
	KindNesting:       "nesting",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Combinator operators as stored in Token.Value.
const (
	Descendant        = " "
	Child             = ">"
	NextSibling       = "+"
	SubsequentSibling = "~"
	Column            = "||"
)

// Token is a single unit of a parsed selector.
type Token struct {
	Kind  Kind
	Value string // literal form; for functional pseudo-classes the name with colons, e.g. ":not"
	Func  bool   // functional pseudo-class or pseudo-element
	Args  List   // nested selectors of :not(), :is(), :has() and friends
	Raw   string // normalized argument of other functional pseudos, e.g. "2n+1"
	Pos   int    // byte offset in the source selector
}

// String returns canonical text of the token.
func (t Token) String() string {
	if !t.Func {
		return t.Value
	}
	var sb strings.Builder
	sb.WriteString(t.Value)
	sb.WriteByte('(')
	if t.Args != nil {
		sb.WriteString(t.Args.String())
	} else {
		sb.WriteString(t.Raw)
	}
	sb.WriteByte(')')
	return sb.String()
}

// Selector is one complex selector: compound runs separated by combinators.
type Selector []Token

// String returns the canonical compact form of the selector. Descendant
// combinators print as a single space, all others without surrounding
// whitespace.
func (s Selector) String() string {
	var sb strings.Builder
	for _, t := range s {
		sb.WriteString(t.String())
	}
	return sb.String()
}

// Combinators returns the number of combinator tokens in the selector.
func (s Selector) Combinators() int {
	n := 0
	for _, t := range s {
		if t.Kind == KindCombinator {
			n++
		}
	}
	return n
}

// Groups returns compound groups of the selector in source order.
// Combinators are never part of the result, each one starts a new group.
func (s Selector) Groups() []string {
	groups := make([]string, 0, len(s))
	glue := false
	for _, t := range s {
		if t.Kind == KindCombinator {
			glue = false
			continue
		}
		if glue {
			groups[len(groups)-1] += t.String()
		} else {
			groups = append(groups, t.String())
		}
		glue = true
	}
	for i := range groups {
		groups[i] = strings.TrimSpace(groups[i])
	}
	return groups
}

// List is a comma separated selector list.
type List []Selector

// String joins canonical selectors with commas, no whitespace.
func (l List) String() string {
	parts := make([]string, len(l))
	for i, s := range l {
		parts[i] = s.String()
	}
	return strings.Join(parts, ",")
}
