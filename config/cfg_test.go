package config

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/rupor-github/gencfg"
	"go.uber.org/zap/zaptest"

	"csf/css"
	"csf/filter"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfiguration_NoFile(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() with empty path error = %v", err)
	}
	if cfg == nil {
		t.Fatal("LoadConfiguration() returned nil config")
	}
	if cfg.Version != 1 {
		t.Errorf("Default config version = %d, want 1", cfg.Version)
	}
}

func TestConfig_DefaultValues(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	keep := cfg.Filter.KeepAtRules
	if keep.IsAll() || !slices.Equal(keep.List(), []string{"charset", "import", "keyframes"}) {
		t.Errorf("KeepAtRules = %s, want [charset, import, keyframes]", keep)
	}
	if len(cfg.Filter.ExcludeParts)+len(cfg.Filter.IncludeParts)+len(cfg.Filter.ExcludePatterns)+len(cfg.Filter.IncludePatterns) != 0 {
		t.Errorf("default filter must keep everything: %+v", cfg.Filter)
	}
	if cfg.Filter.SplitCacheSize != 4096 {
		t.Errorf("SplitCacheSize = %d, want 4096", cfg.Filter.SplitCacheSize)
	}
	if cfg.Output.Suffix != "" || cfg.Output.Minify {
		t.Errorf("unexpected output defaults: %+v", cfg.Output)
	}
	if cfg.Logging.ConsoleLogger.Level != "normal" || cfg.Logging.FileLogger.Level != "none" {
		t.Errorf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if filepath.Base(cfg.Reporting.Destination) != "csf-report.zip" {
		t.Errorf("Reporting.Destination = %q", cfg.Reporting.Destination)
	}
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `version: 1
filter:
  keep_at_rules: all
  exclude_parts: [".ad", "#banner"]
  include_patterns: ['^\.page', 'main\s']
  split_cache_size: 0
output:
  suffix: ".min"
  minify: true
logging:
  console:
    level: debug
  file:
    level: debug
    destination: `+filepath.Join(dir, "test.log")+`
    mode: append
reporting:
  destination: `+filepath.Join(dir, "test-report.zip")+`
`)

	cfg, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if !cfg.Filter.KeepAtRules.IsAll() {
		t.Errorf("KeepAtRules = %s, want all", cfg.Filter.KeepAtRules)
	}
	if !slices.Equal(cfg.Filter.ExcludeParts, []string{".ad", "#banner"}) {
		t.Errorf("ExcludeParts = %q", cfg.Filter.ExcludeParts)
	}
	if len(cfg.Filter.IncludePatterns) != 2 || cfg.Filter.IncludePatterns[1] != `main\s` {
		t.Errorf("IncludePatterns = %q", cfg.Filter.IncludePatterns)
	}
	if cfg.Filter.SplitCacheSize != 0 {
		t.Errorf("SplitCacheSize = %d, want 0", cfg.Filter.SplitCacheSize)
	}
	if cfg.Output.Suffix != ".min" || !cfg.Output.Minify {
		t.Errorf("Output = %+v", cfg.Output)
	}
	if cfg.Logging.FileLogger.Mode != "append" {
		t.Errorf("FileLogger.Mode = %q, want append", cfg.Logging.FileLogger.Mode)
	}
}

func TestLoadConfiguration_MergeWithDefaults(t *testing.T) {
	path := writeConfig(t, `version: 1
output:
  minify: true
`)
	cfg, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if !cfg.Output.Minify {
		t.Error("Minify from file was not applied")
	}
	if cfg.Filter.SplitCacheSize != 4096 || cfg.Filter.KeepAtRules.IsAll() {
		t.Errorf("defaults were lost: %+v", cfg.Filter)
	}
}

func TestLoadConfiguration_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid yaml", "version: 1\nfilter:\n  exclude_parts: [a\n  invalid indent\n"},
		{"unknown field", "version: 1\nunknown_field: value\n"},
		{"bad version", "version: 2\n"},
		{"bad keep list", "version: 1\nfilter:\n  keep_at_rules: 12\n"},
		{"bad at-rule name", "version: 1\nfilter:\n  keep_at_rules: [\"@media\"]\n"},
		{"negative cache", "version: 1\nfilter:\n  split_cache_size: -1\n"},
		{"empty part", "version: 1\nfilter:\n  exclude_parts: [\"\"]\n"},
		{"bad log level", "version: 1\nlogging:\n  console:\n    level: loud\n"},
		{"suffix with separator", "version: 1\noutput:\n  suffix: a/b\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfiguration(writeConfig(t, tt.content)); err == nil {
				t.Error("expected error")
			}
		})
	}

	_, err := LoadConfiguration(writeConfig(t, "version: 1\nfilter:\n  keep_at_rules: 12\n"))
	var cerr *filter.ConfigurationError
	if !errors.As(err, &cerr) {
		t.Errorf("error = %v, want *filter.ConfigurationError in chain", err)
	}
}

func TestLoadConfiguration_NonExistentFile(t *testing.T) {
	if _, err := LoadConfiguration("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestLoadConfiguration_WithOptions(t *testing.T) {
	option := func(*gencfg.ProcessingOptions) {}
	cfg, err := LoadConfiguration("", option)
	if err != nil {
		t.Fatalf("LoadConfiguration() with options error = %v", err)
	}
	if cfg == nil {
		t.Fatal("LoadConfiguration() returned nil config")
	}
}

func TestPrepare(t *testing.T) {
	data, err := Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if len(data) == 0 {
		t.Error("Prepare() returned empty data")
	}
	if _, err = unmarshalConfig(data, &Config{}, true); err != nil {
		t.Errorf("Prepared config is not valid: %v", err)
	}
}

func TestDump(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	cfg.Filter.KeepAtRules = filter.All()
	cfg.Filter.ExcludeParts = []string{".x"}

	data, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	if !strings.Contains(string(data), "keep_at_rules: all") {
		t.Errorf("dumped config does not contain keep list:\n%s", data)
	}

	cfg2, err := unmarshalConfig(data, &Config{}, false)
	if err != nil {
		t.Fatalf("Dumped config cannot be loaded: %v", err)
	}
	if !cfg2.Filter.KeepAtRules.IsAll() || !slices.Equal(cfg2.Filter.ExcludeParts, []string{".x"}) {
		t.Errorf("filter mismatch after dump/load: %+v", cfg2.Filter)
	}
}

func TestUnmarshalConfig_WrapsValidationError(t *testing.T) {
	_, err := unmarshalConfig([]byte("version: 99\n"), &Config{}, true)
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	if !strings.Contains(err.Error(), "validat") {
		t.Errorf("expected error to mention validation, got: %v", err)
	}
	if errors.Unwrap(err) == nil {
		t.Errorf("expected wrapped error, got bare error: %v", err)
	}
}

func TestFilterConfig_Prepare(t *testing.T) {
	conf := FilterConfig{
		KeepAtRules:     filter.Names("media"),
		ExcludeParts:    []string{".ad"},
		ExcludePatterns: []string{`^#`},
		SplitCacheSize:  16,
	}
	f, err := conf.Prepare(zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	sheet, err := css.Parse([]byte("#top {} .box .ad {} .box, .ad {} @media print {} @font-face { src: none }"))
	if err != nil {
		t.Fatalf("css.Parse() error = %v", err)
	}
	f.Apply(sheet)
	if got, want := sheet.String(), ".box {} @media print {}"; got != want {
		t.Errorf("filtered = %q, want %q", got, want)
	}
}

func TestFilterConfig_Predicate(t *testing.T) {
	conf := FilterConfig{
		IncludeParts:    []string{".page"},
		IncludePatterns: []string{`main`},
	}
	pred, err := conf.Predicate()
	if err != nil {
		t.Fatalf("Predicate() error = %v", err)
	}
	tests := []struct {
		sel   string
		parts []string
		want  bool
	}{
		{"main .page", []string{"main", ".page"}, true},
		{".page", []string{".page"}, false},
		{"main p", []string{"main", "p"}, false},
	}
	for _, tt := range tests {
		if got := pred(tt.sel, tt.parts); got != tt.want {
			t.Errorf("pred(%q) = %v, want %v", tt.sel, got, tt.want)
		}
	}

	conf = FilterConfig{ExcludePatterns: []string{"("}}
	if _, err := conf.Predicate(); err == nil {
		t.Error("expected error for bad expression")
	}
}
