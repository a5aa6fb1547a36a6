// Package archive builds Walk abstraction on top of "archive/zip".
package archive

import (
	"archive/zip"
	"fmt"
	"path"
	"strings"

	"golang.org/x/text/encoding"
)

// Options select archive entries visited by Walk.
type Options struct {
	// Prefix is matched against entry name, empty prefix matches everything.
	Prefix string
	// Ext is matched ASCII case-insensitively against entry extension when
	// not empty.
	Ext string
	// CodePage is used to decode entry names without UTF-8 flag.
	CodePage encoding.Encoding
}

// Entry is a single file in archive.
type Entry struct {
	File *zip.File
	// Name is the entry name, decoded when code page was requested.
	Name string
	// NameErr is set when name could not be decoded, Name is left as is.
	NameErr error
}

// WalkFunc is the type of the function called for each file in archive
// visited by Walk. If an error is returned, processing stops.
type WalkFunc func(archive string, e Entry) error

// Walk calls walkFn for every regular file in the archive which satisfies
// options. Names are checked before anything is visited, any absolute name
// or name with ".." component fails the whole archive (Zip Slip).
func Walk(archive string, opts Options, walkFn WalkFunc) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	entries := make([]Entry, 0, len(r.File))
	for _, f := range r.File {
		e := Entry{File: f, Name: f.Name}
		if opts.CodePage != nil && f.NonUTF8 {
			if n, err := opts.CodePage.NewDecoder().String(f.Name); err == nil {
				e.Name = n
			} else {
				e.NameErr = err
			}
		}
		if !isSafePath(e.Name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", e.Name)
		}
		entries = append(entries, e)
	}

	for _, e := range entries {
		if e.File.FileInfo().IsDir() || !strings.HasPrefix(e.Name, opts.Prefix) {
			continue
		}
		if len(opts.Ext) > 0 && !strings.EqualFold(path.Ext(e.Name), opts.Ext) {
			continue
		}
		if err := walkFn(archive, e); err != nil {
			return err
		}
	}
	return nil
}

func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, `\`) || (len(name) > 1 && name[1] == ':') {
		return false
	}
	for _, part := range strings.FieldsFunc(name, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return false
		}
	}
	return true
}
