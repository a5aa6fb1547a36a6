package selector

import "fmt"

// ParseError reports malformed selector text.
type ParseError struct {
	Selector string
	Offset   int // byte offset of the offending token
	Msg      string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed selector %q at offset %d: %s", e.Selector, e.Offset, e.Msg)
}
