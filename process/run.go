// Package process runs stylesheet filter over files, directories and zip
// archives.
package process

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"

	"csf/archive"
	"csf/state"
)

// StdoutDestination sends result of a single stylesheet to standard output.
const StdoutDestination = "-"

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("filter")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	src, err = filepath.Abs(src)
	if err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst != StdoutDestination {
		if dst, err = filepath.Abs(dst); err != nil {
			return err
		}
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	env.NoDirs, env.Overwrite, env.DryRun = cmd.Bool("nodirs"), cmd.Bool("overwrite"), cmd.Bool("dry-run")
	env.Minify = cmd.Bool("minify") || env.Cfg.Output.Minify
	if env.Stdout == nil {
		env.Stdout = cmd.Root().Writer
	}

	// Since zip "standard" does not define file name encoding we may need to
	// force archaic code page for old archives
	if cp := cmd.String("force-zip-cp"); len(cp) > 0 {
		env.CodePage, err = ianaindex.IANA.Encoding(cp)
		if err != nil || env.CodePage == nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
			env.CodePage = nil
		} else {
			n, _ := ianaindex.IANA.Name(env.CodePage)
			log.Debug("Forcefully converting all non UTF-8 file names in archives", zap.String("charset", n))
		}
	}

	if env.Filter, err = env.Cfg.Filter.Prepare(log); err != nil {
		return fmt.Errorf("unable to prepare filter: %w", err)
	}

	log.Info("Processing starting",
		zap.String("source", src), zap.String("destination", dst),
		zap.Bool("minify", env.Minify), zap.Bool("dry-run", env.DryRun))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, log)
}

// process determines the input type (directory, archive, or single file) and
// processes it accordingly. When path does not exist it is shortened until
// an archive is found, the rest is a path inside that archive.
func process(ctx context.Context, src, dst string, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)

	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exists - probably path in archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				// directory cannot have tail - it would be simple file
				return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			if dst == StdoutDestination {
				return errors.New("directory cannot be processed to STDOUT")
			}
			if err := processDir(ctx, head, dst, log); err != nil {
				return fmt.Errorf("unable to process directory: %w", err)
			}
			break
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		arc, err := isArchiveFile(head)
		if err != nil {
			return fmt.Errorf("unable to check archive type: %w", err)
		}
		if arc {
			// we need to look inside to see if path makes sense
			tail = filepath.ToSlash(strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator)))
			if err := env.Rpt.StoreCopy("source/"+filepath.Base(head), head); err != nil {
				log.Warn("Unable to store source in report", zap.String("file", head), zap.Error(err))
			}
			if err := processArchive(ctx, head, tail, "", dst, log); err != nil {
				return fmt.Errorf("unable to process archive: %w", err)
			}
			break
		}

		sheet, enc, err := isStylesheetFile(head)
		if err != nil {
			return fmt.Errorf("unable to check file type: %w", err)
		}
		if sheet && len(tail) == 0 {
			if err := env.Rpt.StoreCopy("source/"+filepath.Base(head), head); err != nil {
				log.Warn("Unable to store source in report", zap.String("file", head), zap.Error(err))
			}
			if file, err := os.Open(head); err != nil {
				log.Error("Unable to process file", zap.String("file", head), zap.Error(err))
			} else {
				defer file.Close()
				if err := processStylesheet(ctx, selectReader(file, enc), filepath.Base(head), dst, log); err != nil {
					log.Error("Unable to process file", zap.String("file", head), zap.Error(err))
				}
			}
			break
		}
		return fmt.Errorf("input was not recognized as stylesheet (%s)", head)
	}
	if len(head) == 0 {
		return fmt.Errorf("input source was not found (%s)", src)
	}
	return nil
}

// processDir walks directory tree finding stylesheets and archives and
// processes them in natural order of their paths. Symbolic links are not
// followed.
func processDir(ctx context.Context, dir, dst string, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)

	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	// "page-2.css" goes before "page-10.css"
	slices.SortFunc(paths, func(a, b string) int {
		switch {
		case natural.Less(a, b):
			return -1
		case natural.Less(b, a):
			return 1
		}
		return 0
	})

	count := 0
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))

		arc, err := isArchiveFile(path)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			continue
		}
		if arc {
			count++
			if err := processArchive(ctx, path, "", filepath.Dir(rel), dst, log); err != nil {
				log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
			}
			continue
		}

		sheet, enc, err := isStylesheetFile(path)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			continue
		}
		if !sheet {
			log.Debug("Skipping file, not recognized as stylesheet or archive", zap.String("file", path))
			continue
		}
		count++

		if err := env.Rpt.StoreCopy("source/"+filepath.ToSlash(rel), path); err != nil {
			log.Warn("Unable to store source in report", zap.String("file", path), zap.Error(err))
		}
		if err := processFile(ctx, path, enc, rel, dst, log); err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
		}
	}
	if count == 0 {
		log.Debug("Nothing to process", zap.String("dir", dir))
	}
	return nil
}

func processFile(ctx context.Context, path string, enc srcEncoding, src, dst string, log *zap.Logger) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return processStylesheet(ctx, selectReader(file, enc), src, dst, log)
}

// processArchive walks all stylesheets inside archive under "pathIn" and
// processes them. "pathOut" is archive location relative to the processed
// directory.
func processArchive(ctx context.Context, path, pathIn, pathOut, dst string, log *zap.Logger) (err error) {
	env := state.EnvFromContext(ctx)

	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("archive", path), zap.String("path", pathIn))
		}
	}()

	opts := archive.Options{Prefix: pathIn, Ext: cssExt, CodePage: env.CodePage}
	return archive.Walk(path, opts, func(arc string, e archive.Entry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.NameErr != nil {
			n, _ := ianaindex.IANA.Name(env.CodePage)
			log.Warn("Unable to convert archive name from specified encoding",
				zap.String("charset", n), zap.String("path", e.Name), zap.Error(e.NameErr))
		}

		sheet, enc, err := isStylesheetInArchive(e.File)
		if err != nil {
			log.Warn("Skipping file in archive", zap.String("archive", arc), zap.String("path", e.Name), zap.Error(err))
			return nil
		}
		if !sheet {
			log.Debug("Skipping file, not recognized as stylesheet", zap.String("archive", arc), zap.String("file", e.Name))
			return nil
		}
		count++

		r, err := e.File.Open()
		if err != nil {
			log.Error("Unable to process file in archive", zap.String("archive", arc), zap.String("file", e.Name), zap.Error(err))
			return nil
		}
		defer r.Close()

		if err := processStylesheet(ctx, selectReader(r, enc), filepath.Join(pathOut, filepath.FromSlash(e.Name)), dst, log); err != nil {
			log.Error("Unable to process file in archive", zap.String("archive", arc), zap.String("file", e.Name), zap.Error(err))
		}
		return nil
	})
}
