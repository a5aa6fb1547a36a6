package selector

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestSplit_KeepsSingleCompound(t *testing.T) {
	// every one of these is a single compound selector and must come back unchanged
	inputs := []string{
		"*",
		"#a",
		"#a:not(.b)",
		"#a.b",
		"#a[foo]",
		`#a[foo="bar"]`,
		`#a[foo="foo bar"]`,
		`#a[foo~="bar"]`,
		`#a[foo~="foo bar"]`,
		`#a[foo^="bar"]`,
		`#a[foo^="foo bar"]`,
		`#a[foo$="bar"]`,
		`#a[foo$="foo bar"]`,
		`#a[foo*="bar"]`,
		`#a[foo*="foo bar"]`,
		`#a[foo|="fruit"]`,
		`#a[foo|="foo bar"]`,
		"#a:dir(ltr)",
		"#a:lang(zh)",
		"#a:any-link",
		"#a:link",
		"#a:visited",
		"#a:target",
		"#a:scope",
		"#a:current",
		"#a:current(.b)",
		"#a:past",
		"#a:future",
		"#a:active",
		"#a:hover",
		"#a:focus",
		"#a:drop",
		"#a:drop(active)",
		"#a:drop(valid)",
		"#a:drop(invalid)",
		"#a:enabled",
		"#a:disabled",
		"#a:read-write",
		"#a:read-only",
		"#a:placeholder-shown",
		"#a:default",
		"#a:checked",
		"#a:indeterminate",
		"#a:valid",
		"#a:invalid",
		"#a:in-range",
		"#a:out-of-range",
		"#a:required",
		"#a:optional",
		"#a:user-error",
		"#a:root",
		"#a:empty",
		"#a:blank",
		"#a:nth-child(odd)",
		"#a:nth-child(even)",
		"#a:nth-child(2n+1)",
		"#a:nth-last-child(even)",
		"#a:first-child",
		"#a:last-child",
		"#a:only-child",
		"#a::after",
		"#a::before",
		"#a:nth-of-type(1)",
		"#a:nth-last-of-type(1)",
		"#a:first-of-type",
		"#a:last-of-type",
		"#a:only-of-type",
		"#a:nth-column(3)",
		"#a:nth-last-column(3)",
		"#a:playing",
		"#a:paused",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			got, err := Split(in)
			if err != nil {
				t.Fatalf("Split(%q) error = %v", in, err)
			}
			if want := []string{in}; !slices.Equal(got, want) {
				t.Errorf("Split(%q) = %q, want %q", in, got, want)
			}
		})
	}
}

func TestSplit_Groups(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"#a:not(  .b:not(.c  ))", []string{"#a:not(.b:not(.c))"}},
		{"#a:matches(.b,   .c)", []string{"#a:matches(.b,.c)"}},
		{"#a:matches(.b:not(.c), .d)", []string{"#a:matches(.b:not(.c),.d)"}},
		{"#a:has(.b, .c)", []string{"#a:has(.b,.c)"}},
		{"#a.b .c.d", []string{"#a.b", ".c.d"}},
		{"#a .b", []string{"#a", ".b"}},
		{"#a div video", []string{"#a", "div", "video"}},
		{"#a > .b", []string{"#a", ".b"}},
		{"#a>.b", []string{"#a", ".b"}},
		{"#a + .b", []string{"#a", ".b"}},
		{"#a.b.c + .d .e", []string{"#a.b.c", ".d", ".e"}},
		{"#a+.b", []string{"#a", ".b"}},
		{"#a ~ .b", []string{"#a", ".b"}},
		{"#a~.b", []string{"#a", ".b"}},
		{".b || #a", []string{".b", "#a"}},
		{".b||#a", []string{".b", "#a"}},
		{".a ~ .b::before + .c:not(.d)", []string{".a", ".b::before", ".c:not(.d)"}},
		{"  #a    .b  ", []string{"#a", ".b"}},
		{"#a /* comment */ .b", []string{"#a", ".b"}},
		{"/* leading */#a>/* inside */.b", []string{"#a", ".b"}},
		{"#a:nth-child( 2n + 1 )", []string{"#a:nth-child(2n + 1)"}},
		{"li:nth-child(2n+1 of .a,  .b)", []string{"li:nth-child(2n+1 of .a,.b)"}},
		{"#a:has(> img)", []string{"#a:has(>img)"}},
		{"#a:is( .b  .c , .d>.e )", []string{"#a:is(.b .c,.d>.e)"}},
		{"svg|a *|b", []string{"svg|a", "*|b"}},
		{"[ data-x = 'y' i ]", []string{"[data-x='y' i]"}},
		{"a:before", []string{"a:before"}},
		{"& > .child", []string{"&", ".child"}},
		{"0%", []string{"0%"}},
		{"from", []string{"from"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Split(tt.in)
			if err != nil {
				t.Fatalf("Split(%q) error = %v", tt.in, err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Split(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSplit_Empty(t *testing.T) {
	for _, in := range []string{"", "   ", "/* nothing */", " /* a */ /* b */ "} {
		got, err := Split(in)
		if err != nil {
			t.Errorf("Split(%q) error = %v", in, err)
		}
		if len(got) != 0 {
			t.Errorf("Split(%q) = %q, want empty", in, got)
		}
	}
}

func TestSplit_CombinatorVariants(t *testing.T) {
	for _, op := range []string{"+", "~", ">", "||"} {
		compact, err := Split("#a" + op + ".b")
		if err != nil {
			t.Fatalf("compact %q: %v", op, err)
		}
		spaced, err := Split("#a " + op + " .b")
		if err != nil {
			t.Fatalf("spaced %q: %v", op, err)
		}
		want := []string{"#a", ".b"}
		if !slices.Equal(compact, want) || !slices.Equal(spaced, want) {
			t.Errorf("combinator %q: compact = %q, spaced = %q, want %q", op, compact, spaced, want)
		}
	}
}

func TestSplit_Idempotent(t *testing.T) {
	inputs := []string{
		"#a.b.c + .d .e",
		"#a:not(  .b:not(.c  ))  >  p",
		"ul li:nth-child( 2n + 1 ) a[href$='.pdf' i]",
		".b||#a ~ x",
		"#a:matches(.b:not(.c), .d) + span::after",
	}
	for _, in := range inputs {
		first, err := Split(in)
		if err != nil {
			t.Fatalf("Split(%q) error = %v", in, err)
		}
		second, err := Split(strings.Join(first, " "))
		if err != nil {
			t.Fatalf("Split(rejoined %q) error = %v", in, err)
		}
		if !slices.Equal(first, second) {
			t.Errorf("not idempotent for %q: %q then %q", in, first, second)
		}
	}
}

func TestSplit_GroupCount(t *testing.T) {
	inputs := []string{
		"a",
		"a b",
		"a > b + c ~ d || e f",
		"#x:not(a b, c > d) .y",
		"html body div#main.content > p:first-child::first-line",
	}
	for _, in := range inputs {
		sel, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", in, err)
		}
		if got, want := len(sel.Groups()), sel.Combinators()+1; got != want {
			t.Errorf("%q: %d groups, want %d", in, got, want)
		}
	}
}

func TestSplit_Relative(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"> .a", []string{".a"}},
		{"+ li a", []string{"li", "a"}},
		{"~.b > .c", []string{".b", ".c"}},
		{"|| col", []string{"col"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			sel, err := Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.in, err)
			}
			if sel[0].Kind != KindCombinator {
				t.Fatalf("Parse(%q) starts with %s, want combinator", tt.in, sel[0].Kind)
			}
			got := sel.Groups()
			if !slices.Equal(got, tt.want) {
				t.Errorf("Groups(%q) = %q, want %q", tt.in, got, tt.want)
			}
			// leading combinator starts no group
			if len(got) != sel.Combinators() {
				t.Errorf("%q: %d groups for %d combinators", tt.in, len(got), sel.Combinators())
			}
		})
	}
}

func TestSplit_Errors(t *testing.T) {
	inputs := []string{
		"#a:not(.b",
		"#a:not(.b))",
		"#a[foo",
		"#a[foo=]",
		`#a[foo="bar]`,
		"#a >",
		"#a + + .b",
		"#a, .b",
		"#a:not(.b,)",
		".",
		"#a:",
		"#a:nth-child(2n",
		"a { color: red }",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			got, err := Split(in)
			if err == nil {
				t.Fatalf("Split(%q) = %q, expected error", in, got)
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("Split(%q) error %T is not *ParseError", in, err)
			}
			if perr.Selector != in {
				t.Errorf("ParseError.Selector = %q, want %q", perr.Selector, in)
			}
			if perr.Offset < 0 || perr.Offset > len(in) {
				t.Errorf("ParseError.Offset = %d out of range", perr.Offset)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{""}},
		{"a", []string{"a"}},
		{"a b, c", []string{"a b", " c"}},
		{".a:not(.b, .c), [title='x,y'], d", []string{".a:not(.b, .c)", " [title='x,y']", " d"}},
		{"a >, b", []string{"a >", " b"}},
		{"a /* x, y */, b", []string{"a /* x, y */", " b"}},
		{"a,", []string{"a", ""}},
	}
	for _, tt := range tests {
		if got := SplitList(tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("SplitList(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
