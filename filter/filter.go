// Package filter narrows stylesheet rules down to the selectors a predicate
// accepts and prunes at-rules which are empty or not wanted.
package filter

import (
	"slices"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"csf/css"
	"csf/selector"
)

// At-rules removed unless kept explicitly, even when they have content.
var removeByDefault = []string{"font-face", "charset", "import", "keyframes"}

// Options configures a Filter. Zero values select defaults.
type Options struct {
	// Predicate decides which selectors stay, default keeps everything.
	Predicate Predicate
	// KeepAtRules lists at-rules which are never removed, default is
	// DefaultAtRules().
	KeepAtRules AtRuleList
	// Split breaks a selector into compound groups, default selector.Split.
	Split selector.SplitFunc
	Log   *zap.Logger
}

// Filter applies configured rules to stylesheets. It holds no per-stylesheet
// state and may be reused.
type Filter struct {
	pred  Predicate
	keep  AtRuleList
	split selector.SplitFunc
	log   *zap.Logger
}

// New validates options and creates a Filter.
func New(opts Options) (*Filter, error) {
	f := &Filter{
		pred:  opts.Predicate,
		keep:  opts.KeepAtRules,
		split: opts.Split,
		log:   opts.Log,
	}
	if !f.keep.IsSet() {
		f.keep = DefaultAtRules()
	}
	if err := f.keep.validate(); err != nil {
		return nil, err
	}
	if f.pred == nil {
		f.pred = KeepAll()
	}
	if f.split == nil {
		f.split = selector.Split
	}
	if f.log == nil {
		f.log = zap.NewNop()
	}
	f.log = f.log.Named("filter")
	return f, nil
}

// KeepAtRules returns effective at-rule keep list.
func (f *Filter) KeepAtRules() AtRuleList { return f.keep }

// Result describes what Apply did.
type Result struct {
	Warnings         []Warning
	RulesRemoved     int
	SelectorsRemoved int
	AtRulesRemoved   int
}

// Changed reports whether the stylesheet was modified.
func (r *Result) Changed() bool {
	return r.RulesRemoved > 0 || r.SelectorsRemoved > 0 || r.AtRulesRemoved > 0
}

// Err combines all warnings into a single error, nil when there were none.
func (r *Result) Err() error {
	var err error
	for _, w := range r.Warnings {
		err = multierr.Append(err, w)
	}
	return err
}

// Apply filters the stylesheet in place. Rules are processed first, so an
// at-rule whose children were all removed is seen as empty by the at-rule
// pass.
func (f *Filter) Apply(sheet *css.Stylesheet) *Result {
	res := &Result{}

	css.Walk(sheet, func(n css.Node) bool {
		if rule, ok := n.(*css.Rule); ok {
			f.filterRule(rule, res)
		}
		return true
	})

	if !f.keep.IsAll() {
		css.Walk(sheet, func(n css.Node) bool {
			if at, ok := n.(*css.AtRule); ok {
				f.filterAtRule(at, res)
			}
			return true
		})
	}

	f.log.Debug("Stylesheet filtered",
		zap.Int("rules", res.RulesRemoved),
		zap.Int("selectors", res.SelectorsRemoved),
		zap.Int("at-rules", res.AtRulesRemoved),
		zap.Int("warnings", len(res.Warnings)))
	return res
}

func (f *Filter) filterRule(rule *css.Rule, res *Result) {
	sels := rule.Selectors()
	kept := make([]string, 0, len(sels))
	for _, sel := range sels {
		parts, err := f.split(sel)
		if err != nil {
			res.Warnings = append(res.Warnings, Warning{Selector: sel, Line: rule.Line(), Err: err})
			f.log.Warn("Unable to split selector, removing",
				zap.String("selector", sel), zap.Int("line", rule.Line()), zap.Error(err))
			continue
		}
		if f.pred(sel, parts) {
			kept = append(kept, sel)
		}
	}

	switch removed := len(sels) - len(kept); {
	case len(kept) == 0:
		rule.Remove()
		res.RulesRemoved++
		res.SelectorsRemoved += len(sels)
	case removed > 0:
		rule.SetSelectors(kept)
		res.SelectorsRemoved += removed
	}
}

func (f *Filter) filterAtRule(at *css.AtRule, res *Result) {
	if f.keep.Contains(at.Name) {
		return
	}
	if at.Empty() || slices.Contains(removeByDefault, strings.ToLower(at.Name)) {
		f.log.Debug("Removing at-rule", zap.String("name", at.Name), zap.Int("line", at.Line()))
		at.Remove()
		res.AtRulesRemoved++
	}
}
