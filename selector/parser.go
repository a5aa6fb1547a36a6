package selector

import (
	"errors"
	"fmt"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// Pseudo-classes (and pseudo-elements) whose argument is a selector list.
// Everything else keeps its argument as normalized raw text.
var selectorArgs = map[string]bool{
	"not":             true,
	"is":              true,
	"matches":         true,
	"where":           true,
	"has":             true,
	"any":             true,
	"-webkit-any":     true,
	"-moz-any":        true,
	"current":         true,
	"past":            true,
	"future":          true,
	"host":            true,
	"host-context":    true,
	"slotted":         true,
	"cue":             true,
	"cue-region":      true,
	"-moz-matches":    true,
	"-webkit-matches": true,
}

// Legacy pseudo-elements which are allowed with a single colon.
var legacyElements = map[string]bool{
	"before":       true,
	"after":        true,
	"first-line":   true,
	"first-letter": true,
}

type lexeme struct {
	tt   css.TokenType
	text string
	pos  int
}

func (l lexeme) isDelim(c byte) bool {
	return l.tt == css.DelimToken && len(l.text) == 1 && l.text[0] == c
}

func (l lexeme) describe() string {
	if l.tt == css.ErrorToken {
		return "end of input"
	}
	return fmt.Sprintf("%q", l.text)
}

// lex tokenizes selector text dropping comments.
func lex(src string) ([]lexeme, error) {
	l := css.NewLexer(parse.NewInput(strings.NewReader(src)))
	toks := make([]lexeme, 0, 16)
	pos := 0
	for {
		tt, data := l.Next()
		if tt == css.ErrorToken {
			if err := l.Err(); err != nil && !errors.Is(err, io.EOF) {
				return nil, &ParseError{Selector: src, Offset: pos, Msg: err.Error()}
			}
			return toks, nil
		}
		if tt != css.CommentToken {
			toks = append(toks, lexeme{tt: tt, text: string(data), pos: pos})
		}
		pos += len(data)
	}
}

type parser struct {
	src  string
	toks []lexeme
	pos  int
}

func newParser(src string) (*parser, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	return &parser{src: src, toks: toks}, nil
}

func (p *parser) peekAt(i int) lexeme {
	if p.pos+i < len(p.toks) {
		return p.toks[p.pos+i]
	}
	return lexeme{tt: css.ErrorToken, pos: len(p.src)}
}

func (p *parser) peek() lexeme {
	return p.peekAt(0)
}

func (p *parser) next() lexeme {
	t := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *parser) atEnd() bool {
	return p.pos >= len(p.toks)
}

// skipSpace consumes whitespace and reports whether there was any.
func (p *parser) skipSpace() bool {
	skipped := false
	for p.peek().tt == css.WhitespaceToken {
		p.next()
		skipped = true
	}
	return skipped
}

func (p *parser) errorf(at lexeme, format string, args ...any) error {
	return &ParseError{Selector: p.src, Offset: at.pos, Msg: fmt.Sprintf(format, args...)}
}

// Parse parses a single selector. An empty (or whitespace and comments only)
// selector results in an empty Selector and no error.
func Parse(src string) (Selector, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	if p.skipSpace(); p.atEnd() {
		return Selector{}, nil
	}
	sel, err := p.parseSelector()
	if err != nil {
		return nil, err
	}
	switch t := p.peek(); {
	case t.tt == css.ErrorToken:
		return sel, nil
	case t.tt == css.CommaToken:
		return nil, p.errorf(t, "selector list where a single selector is expected")
	case t.tt == css.RightParenthesisToken:
		return nil, p.errorf(t, "unbalanced parenthesis")
	default:
		return nil, p.errorf(t, "unexpected %s", t.describe())
	}
}

// ParseList parses a comma separated selector list.
func ParseList(src string) (List, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	if p.skipSpace(); p.atEnd() {
		return List{}, nil
	}
	list, err := p.parseList()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.tt != css.ErrorToken {
		if t.tt == css.RightParenthesisToken {
			return nil, p.errorf(t, "unbalanced parenthesis")
		}
		return nil, p.errorf(t, "unexpected %s", t.describe())
	}
	return list, nil
}

// SplitList breaks a selector list at top level commas without parsing the
// selectors, so that every part can be parsed and reported on its own. Parts
// keep their surrounding whitespace and comments. Text the lexer can not
// handle is returned whole.
func SplitList(src string) []string {
	toks, err := lex(src)
	if err != nil {
		return []string{src}
	}
	var parts []string
	start, depth := 0, 0
	for _, t := range toks {
		switch t.tt {
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			if depth > 0 {
				depth--
			}
		case css.CommaToken:
			if depth == 0 {
				parts = append(parts, src[start:t.pos])
				start = t.pos + len(t.text)
			}
		}
	}
	return append(parts, src[start:])
}

func (p *parser) parseList() (List, error) {
	var list List
	for {
		sel, err := p.parseSelector()
		if err != nil {
			return nil, err
		}
		list = append(list, sel)
		if p.peek().tt != css.CommaToken {
			return list, nil
		}
		p.next()
	}
}

// parseSelector reads compounds and combinators until something which can not
// continue a selector: a comma, a closing parenthesis or the end of input.
// A leading combinator is accepted for relative selectors (":has(> img)" or
// "> .child" of a nested rule).
func (p *parser) parseSelector() (Selector, error) {
	var sel Selector

	p.skipSpace()
	if comb, ok := p.combinator(); ok {
		sel = append(sel, comb)
		p.skipSpace()
	}
	for {
		start := p.peek()
		compound, err := p.parseCompound()
		if err != nil {
			return nil, err
		}
		if len(compound) == 0 {
			return nil, p.errorf(start, "expected selector, found %s", start.describe())
		}
		sel = append(sel, compound...)

		space := p.skipSpace()
		if comb, ok := p.combinator(); ok {
			p.skipSpace()
			sel = append(sel, comb)
			continue
		}
		if space && p.startsCompound() {
			sel = append(sel, Token{Kind: KindCombinator, Value: Descendant, Pos: p.peek().pos})
			continue
		}
		return sel, nil
	}
}

func (p *parser) combinator() (Token, bool) {
	t := p.peek()
	switch {
	case t.isDelim('>'), t.isDelim('+'), t.isDelim('~'):
		p.next()
		return Token{Kind: KindCombinator, Value: t.text, Pos: t.pos}, true
	case t.tt == css.ColumnToken:
		p.next()
		return Token{Kind: KindCombinator, Value: Column, Pos: t.pos}, true
	case t.isDelim('|') && p.peekAt(1).isDelim('|'):
		p.next()
		p.next()
		return Token{Kind: KindCombinator, Value: Column, Pos: t.pos}, true
	}
	return Token{}, false
}

func (p *parser) startsCompound() bool {
	t := p.peek()
	switch t.tt {
	case css.IdentToken, css.CustomPropertyNameToken, css.HashToken, css.ColonToken,
		css.LeftBracketToken, css.NumberToken, css.PercentageToken:
		return true
	case css.DelimToken:
		return t.isDelim('.') || t.isDelim('*') || t.isDelim('&') || (t.isDelim('|') && !p.peekAt(1).isDelim('|'))
	}
	return false
}

func (p *parser) parseCompound() ([]Token, error) {
	var out []Token
	for {
		t := p.peek()
		switch {
		case t.tt == css.IdentToken, t.tt == css.CustomPropertyNameToken, t.isDelim('*'):
			p.next()
			kind := KindTag
			if t.isDelim('*') {
				kind = KindUniversal
			}
			name := t.text
			if p.peek().isDelim('|') && isTypeName(p.peekAt(1)) {
				p.next()
				local := p.next()
				name += "|" + local.text
				kind = KindTag
				if local.isDelim('*') {
					kind = KindUniversal
				}
			}
			out = append(out, Token{Kind: kind, Value: name, Pos: t.pos})

		case t.isDelim('|') && isTypeName(p.peekAt(1)):
			p.next()
			local := p.next()
			kind := KindTag
			if local.isDelim('*') {
				kind = KindUniversal
			}
			out = append(out, Token{Kind: kind, Value: "|" + local.text, Pos: t.pos})

		case t.tt == css.NumberToken, t.tt == css.PercentageToken:
			// keyframe selectors ("0%", "100%")
			p.next()
			out = append(out, Token{Kind: KindTag, Value: t.text, Pos: t.pos})

		case t.tt == css.HashToken:
			p.next()
			out = append(out, Token{Kind: KindID, Value: t.text, Pos: t.pos})

		case t.isDelim('.'):
			p.next()
			name := p.peek()
			if name.tt != css.IdentToken && name.tt != css.CustomPropertyNameToken {
				return nil, p.errorf(name, "expected class name, found %s", name.describe())
			}
			p.next()
			out = append(out, Token{Kind: KindClass, Value: "." + name.text, Pos: t.pos})

		case t.isDelim('&'):
			p.next()
			out = append(out, Token{Kind: KindNesting, Value: "&", Pos: t.pos})

		case t.tt == css.LeftBracketToken:
			tok, err := p.parseAttribute()
			if err != nil {
				return nil, err
			}
			out = append(out, tok)

		case t.tt == css.ColonToken:
			tok, err := p.parsePseudo()
			if err != nil {
				return nil, err
			}
			out = append(out, tok)

		case t.tt == css.BadStringToken:
			return nil, p.errorf(t, "unterminated string")

		default:
			return out, nil
		}
	}
}

func isTypeName(t lexeme) bool {
	return t.tt == css.IdentToken || t.isDelim('*')
}

func isAttrMatcher(t lexeme) bool {
	switch t.tt {
	case css.IncludeMatchToken, css.DashMatchToken, css.PrefixMatchToken,
		css.SuffixMatchToken, css.SubstringMatchToken:
		return true
	}
	return t.isDelim('=')
}

// parseAttribute handles [name], [ns|name op value flag].
func (p *parser) parseAttribute() (Token, error) {
	open := p.next()

	var sb strings.Builder
	sb.WriteByte('[')
	p.skipSpace()

	t := p.peek()
	switch {
	case t.isDelim('|') && p.peekAt(1).tt == css.IdentToken:
		p.next()
		sb.WriteString("|" + p.next().text)
	case isTypeName(t):
		p.next()
		sb.WriteString(t.text)
		if p.peek().isDelim('|') && p.peekAt(1).tt == css.IdentToken {
			p.next()
			sb.WriteString("|" + p.next().text)
		} else if t.isDelim('*') {
			return Token{}, p.errorf(p.peek(), "expected attribute name, found %s", p.peek().describe())
		}
	default:
		return Token{}, p.errorf(t, "expected attribute name, found %s", t.describe())
	}

	p.skipSpace()
	if op := p.peek(); isAttrMatcher(op) {
		p.next()
		sb.WriteString(op.text)
		p.skipSpace()
		v := p.next()
		switch v.tt {
		case css.IdentToken, css.StringToken, css.NumberToken, css.DimensionToken, css.PercentageToken:
			sb.WriteString(v.text)
		case css.BadStringToken:
			return Token{}, p.errorf(v, "unterminated string")
		default:
			return Token{}, p.errorf(v, "expected attribute value, found %s", v.describe())
		}
		p.skipSpace()
		if flag := p.peek(); flag.tt == css.IdentToken {
			p.next()
			sb.WriteString(" " + flag.text)
			p.skipSpace()
		}
	}

	switch closing := p.peek(); closing.tt {
	case css.RightBracketToken:
		p.next()
	case css.ErrorToken:
		return Token{}, p.errorf(open, "unbalanced bracket: missing \"]\"")
	default:
		return Token{}, p.errorf(closing, "unexpected %s in attribute selector", closing.describe())
	}
	sb.WriteByte(']')
	return Token{Kind: KindAttribute, Value: sb.String(), Pos: open.pos}, nil
}

func (p *parser) parsePseudo() (Token, error) {
	colon := p.next()
	prefix, kind := ":", KindPseudoClass
	if p.peek().tt == css.ColonToken {
		p.next()
		prefix, kind = "::", KindPseudoElement
	}

	t := p.next()
	switch t.tt {
	case css.IdentToken:
		if kind == KindPseudoClass && legacyElements[strings.ToLower(t.text)] {
			kind = KindPseudoElement
		}
		return Token{Kind: kind, Value: prefix + t.text, Pos: colon.pos}, nil

	case css.FunctionToken:
		name := strings.TrimSuffix(t.text, "(")
		tok := Token{Kind: kind, Value: prefix + name, Func: true, Pos: colon.pos}
		if selectorArgs[strings.ToLower(name)] {
			args, err := p.parseArguments()
			if err != nil {
				return Token{}, err
			}
			tok.Args = args
		} else {
			raw, err := p.rawArgument()
			if err != nil {
				return Token{}, err
			}
			tok.Raw = raw
		}
		if closing := p.next(); closing.tt != css.RightParenthesisToken {
			if closing.tt == css.ErrorToken {
				return Token{}, p.errorf(t, "unbalanced parenthesis: missing \")\"")
			}
			return Token{}, p.errorf(closing, "unexpected %s in %s()", closing.describe(), prefix+name)
		}
		return tok, nil
	}
	return Token{}, p.errorf(t, "expected pseudo-class name, found %s", t.describe())
}

// parseArguments parses nested selector list up to (not including) the
// closing parenthesis. Empty argument lists are accepted.
func (p *parser) parseArguments() (List, error) {
	p.skipSpace()
	if p.peek().tt == css.RightParenthesisToken {
		return List{}, nil
	}
	return p.parseList()
}

// rawArgument collects an opaque argument up to (not including) the matching
// closing parenthesis. Whitespace runs collapse to a single space and are
// dropped entirely next to commas and parentheses.
func (p *parser) rawArgument() (string, error) {
	var sb strings.Builder
	depth, space := 0, false
	for {
		t := p.peek()
		switch t.tt {
		case css.ErrorToken:
			return "", p.errorf(t, "unbalanced parenthesis: missing \")\"")
		case css.BadStringToken:
			return "", p.errorf(t, "unterminated string")
		case css.WhitespaceToken:
			p.next()
			space = true
			continue
		case css.RightParenthesisToken:
			if depth == 0 {
				return sb.String(), nil
			}
			depth--
		case css.FunctionToken, css.LeftParenthesisToken:
			depth++
		}
		p.next()

		if space && sb.Len() > 0 && !glued(sb.String(), t) {
			sb.WriteByte(' ')
		}
		space = false
		sb.WriteString(t.text)
	}
}

// glued reports whether t is written without a preceding space.
func glued(prev string, t lexeme) bool {
	switch t.tt {
	case css.CommaToken, css.RightParenthesisToken:
		return true
	}
	last := prev[len(prev)-1]
	return last == ',' || last == '('
}
