package selector

import (
	"fmt"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"
)

// SplitFunc breaks a single selector into its compound groups.
type SplitFunc func(selector string) ([]string, error)

// Split returns compound groups of a single selector in source order, e.g.
// "#a.b > .c:not(  .d )" gives ["#a.b", ".c:not(.d)"]. Comments are ignored
// and combinators are never part of the result. Empty selector results in
// empty slice.
func Split(selector string) ([]string, error) {
	sel, err := Parse(selector)
	if err != nil {
		return nil, err
	}
	return sel.Groups(), nil
}

type splitResult struct {
	groups []string
	err    error
}

// NewCachedSplitter memoizes results of fn (failures included) for the most
// recently used selectors. Returned groups are copies and may be modified by
// the caller. Size of zero disables caching and returns fn as is.
func NewCachedSplitter(size int, fn SplitFunc) (SplitFunc, error) {
	if fn == nil {
		fn = Split
	}
	if size == 0 {
		return fn, nil
	}
	cache, err := lru.New[string, splitResult](size)
	if err != nil {
		return nil, fmt.Errorf("unable to create selector cache: %w", err)
	}
	return func(selector string) ([]string, error) {
		res, ok := cache.Get(selector)
		if !ok {
			res.groups, res.err = fn(selector)
			cache.Add(selector, res)
		}
		return slices.Clone(res.groups), res.err
	}, nil
}
