package config

import (
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"csf/filter"
	"csf/selector"
)

type (
	FilterConfig struct {
		KeepAtRules     filter.AtRuleList `yaml:"keep_at_rules"`
		ExcludeParts    []string          `yaml:"exclude_parts" validate:"dive,required"`
		IncludeParts    []string          `yaml:"include_parts" validate:"dive,required"`
		ExcludePatterns []string          `yaml:"exclude_patterns" validate:"dive,required"`
		IncludePatterns []string          `yaml:"include_patterns" validate:"dive,required"`
		SplitCacheSize  int               `yaml:"split_cache_size" validate:"gte=0"`
	}

	OutputConfig struct {
		Suffix string `yaml:"suffix" validate:"excludesall=/"`
		Minify bool   `yaml:"minify"`
	}
)

// Predicate combines configured selector conditions. Everything is kept when
// nothing is configured.
func (conf *FilterConfig) Predicate() (filter.Predicate, error) {
	var preds []filter.Predicate

	if len(conf.ExcludeParts) > 0 {
		preds = append(preds, filter.ExcludeParts(conf.ExcludeParts...))
	}
	if len(conf.IncludeParts) > 0 {
		preds = append(preds, filter.IncludeParts(conf.IncludeParts...))
	}
	if len(conf.ExcludePatterns) > 0 {
		res, err := compilePatterns(conf.ExcludePatterns)
		if err != nil {
			return nil, fmt.Errorf("exclude_patterns: %w", err)
		}
		preds = append(preds, filter.ExcludePatterns(res...))
	}
	if len(conf.IncludePatterns) > 0 {
		res, err := compilePatterns(conf.IncludePatterns)
		if err != nil {
			return nil, fmt.Errorf("include_patterns: %w", err)
		}
		preds = append(preds, filter.IncludePatterns(res...))
	}
	return filter.And(preds...), nil
}

// Prepare builds stylesheet filter from configuration. The filter shares a
// single split cache for all processed stylesheets.
func (conf *FilterConfig) Prepare(log *zap.Logger) (*filter.Filter, error) {
	if log == nil {
		log = zap.NewNop()
	}
	pred, err := conf.Predicate()
	if err != nil {
		return nil, err
	}
	split, err := selector.NewCachedSplitter(conf.SplitCacheSize, nil)
	if err != nil {
		return nil, err
	}
	f, err := filter.New(filter.Options{
		Predicate:   pred,
		KeepAtRules: conf.KeepAtRules,
		Split:       split,
		Log:         log,
	})
	if err != nil {
		return nil, err
	}
	log.Debug("Filter prepared",
		zap.Stringer("keep_at_rules", f.KeepAtRules()),
		zap.Int("split_cache_size", conf.SplitCacheSize))
	return f, nil
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("bad expression %q: %w", p, err)
		}
		res = append(res, re)
	}
	return res, nil
}
