package process

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"csf/config"
	"csf/css"
	"csf/state"
)

// processStylesheet filters single stylesheet. "src" is part of the source
// path (always including file name) relative to the original path: base file
// name when actual file was specified, relative path inside archive or
// directory otherwise. "dst" is the destination directory.
func processStylesheet(ctx context.Context, r io.Reader, src, dst string, log *zap.Logger) (rerr error) {
	env := state.EnvFromContext(ctx)

	var outputName string

	log.Info("Filtering starting", zap.String("from", src))
	defer func(start time.Time) {
		if r := recover(); r != nil {
			log.Error("Filtering ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("filtering panic: %v", r)
		} else if rerr == nil {
			log.Info("Filtering completed", zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName))
		}
	}(time.Now())

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("unable to read stylesheet (%s): %w", src, err)
	}

	sheet, err := css.NewParser(log).Parse(data, src)
	if err != nil {
		return fmt.Errorf("unable to parse stylesheet: %w", err)
	}
	if env.Rpt != nil {
		env.Rpt.StoreData("tree/"+filepath.ToSlash(src)+".txt", []byte(css.Dump(sheet)))
	}

	res := env.Filter.Apply(sheet)
	log.Debug("Stylesheet filtered",
		zap.String("source", src),
		zap.Int("rules removed", res.RulesRemoved),
		zap.Int("selectors removed", res.SelectorsRemoved),
		zap.Int("at-rules removed", res.AtRulesRemoved),
		zap.NamedError("warnings", res.Err()))

	out := sheet.String()
	if env.Minify {
		if out, err = minify(out, src, log); err != nil {
			return err
		}
	}

	if env.DryRun {
		outputName = StdoutDestination
		return writeDiff(env.Output(), src, string(data), out)
	}
	if dst == StdoutDestination {
		outputName = dst
		_, err := io.WriteString(env.Output(), out)
		return err
	}

	outputName = buildOutputPath(src, dst, env)
	if err := prepareOutput(outputName, env.Overwrite, log); err != nil {
		return err
	}
	if err := os.WriteFile(outputName, []byte(out), 0644); err != nil {
		return fmt.Errorf("unable to write result: %w", err)
	}

	if err := env.Rpt.StoreCopy("result/"+filepath.ToSlash(src), outputName); err != nil {
		log.Warn("Unable to store result in report", zap.String("file", outputName), zap.Error(err))
	}
	return nil
}

// buildOutputPath keeps relative layout of the source unless requested
// otherwise, configured suffix goes before extension.
func buildOutputPath(src, dst string, env *state.LocalEnv) string {
	outDir := dst
	if !env.NoDirs {
		outDir = filepath.Join(dst, filepath.Dir(src))
	}
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	return filepath.Join(outDir, config.CleanFileName(base+env.Cfg.Output.Suffix)+cssExt)
}

func prepareOutput(name string, overwrite bool, log *zap.Logger) error {
	if _, err := os.Stat(name); err == nil {
		if !overwrite {
			return fmt.Errorf("output file already exists: %s", name)
		}
		log.Warn("Overwriting existing file", zap.String("file", name))
		return os.Remove(name)
	} else if !os.IsNotExist(err) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}
	return nil
}

// minify compacts whitespace and syntax of the filtered stylesheet.
func minify(text, src string, log *zap.Logger) (string, error) {
	res := api.Transform(text, api.TransformOptions{
		Loader:           api.LoaderCSS,
		MinifyWhitespace: true,
		MinifySyntax:     true,
		Sourcefile:       src,
		LogLevel:         api.LogLevelSilent,
	})
	for _, m := range res.Warnings {
		log.Debug("Minifier warning", append(messageFields(m), zap.String("source", src))...)
	}
	if len(res.Errors) > 0 {
		var err error
		for _, m := range res.Errors {
			err = multierr.Append(err, formatMessage(m))
		}
		return "", fmt.Errorf("unable to minify (%s): %w", src, err)
	}
	return string(res.Code), nil
}

func messageFields(m api.Message) []zap.Field {
	fields := []zap.Field{zap.String("text", m.Text)}
	if m.Location != nil {
		fields = append(fields, zap.Int("line", m.Location.Line), zap.Int("column", m.Location.Column))
	}
	return fields
}

func formatMessage(m api.Message) error {
	if m.Location == nil {
		return fmt.Errorf("%s", m.Text)
	}
	return fmt.Errorf("%d:%d: %s", m.Location.Line, m.Location.Column, m.Text)
}
