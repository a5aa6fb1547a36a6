package filter

import (
	"fmt"
)

// ConfigurationError reports invalid filter options. It is returned before
// any stylesheet is touched.
type ConfigurationError struct {
	Field string
	Msg   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid filter configuration: %s: %s", e.Field, e.Msg)
}

// Warning is a non-fatal problem found while filtering. The selector it
// names was treated as not matching and removed from its rule.
type Warning struct {
	Selector string
	Line     int
	Err      error
}

func (w Warning) Error() string {
	return fmt.Sprintf("line %d: selector %q skipped: %v", w.Line, w.Selector, w.Err)
}

func (w Warning) Unwrap() error { return w.Err }
