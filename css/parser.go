package css

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// ParseError reports malformed stylesheet structure.
type ParseError struct {
	Source string
	Line   int
	Msg    string
}

func (e *ParseError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s:%d: %s", e.Source, e.Line, e.Msg)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// Parser parses CSS stylesheets into trees.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses stylesheet text with a no-op logger.
func Parse(data []byte) (*Stylesheet, error) {
	return NewParser(nil).Parse(data)
}

// Parse parses CSS text into a Stylesheet.
// The optional source parameter identifies what's being parsed (for logging
// and errors).
func (p *Parser) Parse(data []byte, source ...string) (*Stylesheet, error) {
	var name string
	if len(source) > 0 {
		name = source[0]
	}
	if name != "" {
		p.log.Debug("Parsing CSS", zap.String("source", name), zap.Int("bytes", len(data)))
	}

	toks, err := lexAll(data)
	if err != nil {
		return nil, withSource(err, name)
	}

	tp := &treeParser{toks: toks}
	sheet := &Stylesheet{}
	after, err := tp.parseNodes(sheet, nil)
	if err != nil {
		return nil, withSource(err, name)
	}
	sheet.Raws.After = after

	p.log.Debug("Parsed CSS", zap.String("source", name), zap.Int("nodes", len(sheet.Children())))
	return sheet, nil
}

func withSource(err error, name string) error {
	var perr *ParseError
	if errors.As(err, &perr) {
		perr.Source = name
	}
	return err
}

type lexeme struct {
	tt   css.TokenType
	text string
	line int
}

func lexAll(data []byte) ([]lexeme, error) {
	l := css.NewLexer(parse.NewInput(bytes.NewReader(data)))
	toks := make([]lexeme, 0, len(data)/4)
	line := 1
	for {
		tt, b := l.Next()
		if tt == css.ErrorToken {
			if err := l.Err(); err != nil && !errors.Is(err, io.EOF) {
				return nil, &ParseError{Line: line, Msg: err.Error()}
			}
			return toks, nil
		}
		text := string(b)
		toks = append(toks, lexeme{tt: tt, text: text, line: line})
		line += strings.Count(text, "\n")
	}
}

type treeParser struct {
	toks []lexeme
	pos  int
}

func (p *treeParser) peek() (lexeme, bool) {
	if p.pos < len(p.toks) {
		return p.toks[p.pos], true
	}
	return lexeme{}, false
}

// filler consumes whitespace, stray semicolons and CDO/CDC markers.
func (p *treeParser) filler() string {
	var sb strings.Builder
	for p.pos < len(p.toks) {
		switch t := p.toks[p.pos]; t.tt {
		case css.WhitespaceToken, css.SemicolonToken, css.CDOToken, css.CDCToken:
			sb.WriteString(t.text)
			p.pos++
		default:
			return sb.String()
		}
	}
	return sb.String()
}

// parseNodes reads child nodes into owner up to the closing brace of the
// block opened by open, or up to the end of input when open is nil. It
// returns the text between the last child and the end of the block.
func (p *treeParser) parseNodes(owner Container, open *lexeme) (string, error) {
	for {
		before := p.filler()
		t, ok := p.peek()
		if !ok {
			if open != nil {
				return "", &ParseError{Line: open.line, Msg: "unclosed block"}
			}
			return before, nil
		}

		var (
			n   Node
			err error
		)
		switch t.tt {
		case css.RightBraceToken:
			if open == nil {
				return "", &ParseError{Line: t.line, Msg: `unexpected "}"`}
			}
			p.pos++
			return before, nil
		case css.CommentToken:
			p.pos++
			n, err = newComment(t)
		case css.AtKeywordToken:
			p.pos++
			n, err = p.parseAtRule(t)
		default:
			n, err = p.parseStatement(owner)
		}
		if err != nil {
			return "", err
		}
		n.base().Raws.Before = before
		owner.Append(n)
	}
}

func newComment(t lexeme) (*Comment, error) {
	if len(t.text) < 4 || !strings.HasSuffix(t.text, "*/") {
		return nil, &ParseError{Line: t.line, Msg: "unclosed comment"}
	}
	c := &Comment{Text: t.text[2 : len(t.text)-2]}
	c.line = t.line
	return c, nil
}

// collect gathers tokens of a statement up to "{", ";" or "}" outside of
// parentheses and brackets. "{" and ";" are consumed and returned as the
// terminator, "}" and end of input are left for the caller. A brace or end of
// input inside parentheses or brackets is an error.
func (p *treeParser) collect() ([]lexeme, *lexeme, error) {
	start := p.pos
	var open []lexeme
	for ; p.pos < len(p.toks); p.pos++ {
		t := p.toks[p.pos]
		switch t.tt {
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
			open = append(open, t)
		case css.RightParenthesisToken, css.RightBracketToken:
			if len(open) > 0 {
				open = open[:len(open)-1]
			}
		case css.LeftBraceToken, css.RightBraceToken:
			if len(open) > 0 {
				return nil, nil, unclosedBracket(open)
			}
			if t.tt == css.RightBraceToken {
				return p.toks[start:p.pos], nil, nil
			}
			p.pos++
			return p.toks[start : p.pos-1], &p.toks[p.pos-1], nil
		case css.SemicolonToken:
			if len(open) == 0 {
				p.pos++
				return p.toks[start : p.pos-1], &p.toks[p.pos-1], nil
			}
		}
	}
	if len(open) > 0 {
		return nil, nil, unclosedBracket(open)
	}
	return p.toks[start:], nil, nil
}

// collectValue gathers a custom property declaration up to ";" or "}" outside
// of any nesting. Unlike collect it lets the value hold "{}" blocks.
func (p *treeParser) collectValue() ([]lexeme, *lexeme, error) {
	start := p.pos
	var open []lexeme
	for ; p.pos < len(p.toks); p.pos++ {
		t := p.toks[p.pos]
		switch t.tt {
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken, css.LeftBraceToken:
			open = append(open, t)
		case css.RightParenthesisToken, css.RightBracketToken:
			if len(open) > 0 {
				open = open[:len(open)-1]
			}
		case css.RightBraceToken:
			if len(open) == 0 {
				return p.toks[start:p.pos], nil, nil
			}
			open = open[:len(open)-1]
		case css.SemicolonToken:
			if len(open) == 0 {
				p.pos++
				return p.toks[start : p.pos-1], &p.toks[p.pos-1], nil
			}
		}
	}
	if len(open) > 0 {
		return nil, nil, unclosedBracket(open)
	}
	return p.toks[start:], nil, nil
}

func unclosedBracket(open []lexeme) error {
	t := open[len(open)-1]
	return &ParseError{Line: t.line, Msg: fmt.Sprintf("unclosed bracket %q", t.text)}
}

// customProperty reports whether the statement at the current position is a
// custom property declaration, e.g. "--gap: 4px".
func (p *treeParser) customProperty() bool {
	if p.toks[p.pos].tt != css.CustomPropertyNameToken {
		return false
	}
	for _, t := range p.toks[p.pos+1:] {
		switch t.tt {
		case css.WhitespaceToken, css.CommentToken:
		default:
			return t.tt == css.ColonToken
		}
	}
	return false
}

// trim splits tokens into leading whitespace, body and trailing whitespace.
func trim(toks []lexeme) (lead, body, trail string) {
	i, j := 0, len(toks)
	for i < j && toks[i].tt == css.WhitespaceToken {
		i++
	}
	for j > i && toks[j-1].tt == css.WhitespaceToken {
		j--
	}
	return join(toks[:i]), join(toks[i:j]), join(toks[j:])
}

func join(toks []lexeme) string {
	var sb strings.Builder
	for _, t := range toks {
		sb.WriteString(t.text)
	}
	return sb.String()
}

func (p *treeParser) parseAtRule(kw lexeme) (*AtRule, error) {
	a := &AtRule{Name: kw.text[1:]}
	a.line = kw.line

	toks, term, err := p.collect()
	if err != nil {
		return nil, err
	}
	lead, body, trail := trim(toks)
	if body == "" {
		a.Raws.Between = lead + trail
	} else {
		a.Raws.AfterName, a.Params, a.Raws.Between = lead, body, trail
	}

	switch {
	case term == nil:
	case term.tt == css.LeftBraceToken:
		a.HasBlock = true
		after, err := p.parseNodes(a, term)
		if err != nil {
			return nil, err
		}
		a.Raws.After = after
	case term.tt == css.SemicolonToken:
		a.Semicolon = true
	}
	return a, nil
}

// parseStatement reads a qualified rule or a declaration. Declarations are
// only allowed inside blocks.
func (p *treeParser) parseStatement(owner Container) (Node, error) {
	line := p.toks[p.pos].line
	var (
		toks []lexeme
		term *lexeme
		err  error
	)
	custom := p.customProperty()
	if custom {
		toks, term, err = p.collectValue()
	} else {
		toks, term, err = p.collect()
	}
	if err != nil {
		return nil, err
	}

	if !custom && term != nil && term.tt == css.LeftBraceToken {
		_, sel, trail := trim(toks)
		r := &Rule{Selector: sel}
		r.line = line
		r.Raws.Between = trail
		after, err := p.parseNodes(r, term)
		if err != nil {
			return nil, err
		}
		r.Raws.After = after
		return r, nil
	}

	colon := -1
	for i, t := range toks {
		if t.tt == css.ColonToken {
			colon = i
			break
		}
	}
	if colon < 0 {
		_, word, _ := trim(toks)
		return nil, &ParseError{Line: line, Msg: fmt.Sprintf("unknown word %q", word)}
	}

	_, prop, propTrail := trim(toks[:colon])
	if _, root := owner.(*Stylesheet); root {
		return nil, &ParseError{Line: line, Msg: fmt.Sprintf("declaration %q outside of a block", prop)}
	}
	valueLead, value, valueTrail := trim(toks[colon+1:])
	d := &Declaration{
		Prop:      prop,
		Value:     value,
		Semicolon: term != nil,
	}
	d.line = line
	d.Raws.Between = propTrail + ":" + valueLead
	d.Raws.After = valueTrail
	return d, nil
}

// splitList splits a selector list at top level commas. Separators are
// returned with the whitespace following each comma.
func splitList(s string) (parts, seps []string) {
	l := css.NewLexer(parse.NewInput(strings.NewReader(s)))
	var sb strings.Builder
	depth := 0
	for {
		tt, data := l.Next()
		switch tt {
		case css.ErrorToken:
			parts = append(parts, sb.String())
			for i := range seps {
				next := parts[i+1]
				seps[i] += next[:len(next)-len(strings.TrimLeft(next, " \t\r\n\f"))]
			}
			return parts, seps
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			if depth > 0 {
				depth--
			}
		case css.CommaToken:
			if depth == 0 {
				parts = append(parts, sb.String())
				seps = append(seps, ",")
				sb.Reset()
				continue
			}
		}
		sb.Write(data)
	}
}
