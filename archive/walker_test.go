package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"golang.org/x/text/encoding/charmap"
)

type zipEntry struct {
	name    string
	content string
	nonUTF8 bool
}

func makeZip(t *testing.T, entries ...zipEntry) string {
	t.Helper()
	zipPath := filepath.Join(t.TempDir(), "test.zip")

	zipFile, err := os.Create(zipPath)
	if err != nil {
		t.Fatalf("Failed to create zip file: %v", err)
	}
	defer zipFile.Close()

	w := zip.NewWriter(zipFile)
	for _, e := range entries {
		fw, err := w.CreateHeader(&zip.FileHeader{Name: e.name, Method: zip.Deflate, NonUTF8: e.nonUTF8})
		if err != nil {
			t.Fatalf("Failed to create file %s in zip: %v", e.name, err)
		}
		if _, err := fw.Write([]byte(e.content)); err != nil {
			t.Fatalf("Failed to write content for %s: %v", e.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
	return zipPath
}

func collect(t *testing.T, zipPath string, opts Options) []string {
	t.Helper()
	var visited []string
	err := Walk(zipPath, opts, func(archive string, e Entry) error {
		if archive != zipPath {
			t.Errorf("archive = %s, want %s", archive, zipPath)
		}
		visited = append(visited, e.Name)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	return visited
}

func TestWalk(t *testing.T) {
	zipPath := makeZip(t,
		zipEntry{name: "styles/"},
		zipEntry{name: "styles/site.css", content: "a {}"},
		zipEntry{name: "styles/print.CSS", content: "b {}"},
		zipEntry{name: "styles/readme.txt", content: "readme"},
		zipEntry{name: "theme/dark.css", content: "c {}"},
		zipEntry{name: "index.css", content: "d {}"},
	)

	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{"everything", Options{}, []string{"styles/site.css", "styles/print.CSS", "styles/readme.txt", "theme/dark.css", "index.css"}},
		{"prefix", Options{Prefix: "styles/"}, []string{"styles/site.css", "styles/print.CSS", "styles/readme.txt"}},
		{"extension", Options{Ext: ".css"}, []string{"styles/site.css", "styles/print.CSS", "theme/dark.css", "index.css"}},
		{"prefix and extension", Options{Prefix: "theme", Ext: ".css"}, []string{"theme/dark.css"}},
		{"single file", Options{Prefix: "index.css", Ext: ".css"}, []string{"index.css"}},
		{"no match", Options{Prefix: "fonts/"}, nil},
		{"case sensitive prefix", Options{Prefix: "Styles/"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := collect(t, zipPath, tt.opts); !slices.Equal(got, tt.want) {
				t.Errorf("visited %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWalk_CodePage(t *testing.T) {
	raw, err := charmap.Windows1251.NewEncoder().String("стили/основной.css")
	if err != nil {
		t.Fatalf("unable to encode name: %v", err)
	}
	zipPath := makeZip(t,
		zipEntry{name: raw, content: "a {}", nonUTF8: true},
		zipEntry{name: "plain.css", content: "b {}"},
	)

	got := collect(t, zipPath, Options{Prefix: "стили/", CodePage: charmap.Windows1251})
	if want := []string{"стили/основной.css"}; !slices.Equal(got, want) {
		t.Errorf("visited %q, want %q", got, want)
	}

	got = collect(t, zipPath, Options{})
	if want := []string{raw, "plain.css"}; !slices.Equal(got, want) {
		t.Errorf("without code page visited %q, want %q", got, want)
	}
}

func TestWalk_FileContent(t *testing.T) {
	content := []byte("a { color: red }")
	zipPath := makeZip(t, zipEntry{name: "a.css", content: string(content)})

	err := Walk(zipPath, Options{}, func(_ string, e Entry) error {
		rc, err := e.File.Open()
		if err != nil {
			return err
		}
		defer rc.Close()

		buf := new(bytes.Buffer)
		if _, err := buf.ReadFrom(rc); err != nil {
			return err
		}
		if !bytes.Equal(buf.Bytes(), content) {
			t.Errorf("content = %s, want %s", buf.Bytes(), content)
		}
		return nil
	})
	if err != nil {
		t.Errorf("Walk() error = %v", err)
	}
}

func TestWalk_EarlyTermination(t *testing.T) {
	zipPath := makeZip(t,
		zipEntry{name: "1.css"}, zipEntry{name: "2.css"}, zipEntry{name: "3.css"},
	)

	stop := errors.New("stop")
	count := 0
	err := Walk(zipPath, Options{}, func(string, Entry) error {
		count++
		if count == 2 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Errorf("Walk() error = %v, want %v", err, stop)
	}
	if count != 2 {
		t.Errorf("visited %d files, want 2", count)
	}
}

func TestWalk_UnsafePaths(t *testing.T) {
	for _, name := range []string{"../evil.css", "a/../../evil.css", "/etc/evil.css", `\evil.css`, `a\..\..\evil.css`, "C:/evil.css"} {
		t.Run(name, func(t *testing.T) {
			zipPath := makeZip(t, zipEntry{name: "good.css"}, zipEntry{name: name})
			visited := 0
			err := Walk(zipPath, Options{}, func(string, Entry) error {
				visited++
				return nil
			})
			if err == nil {
				t.Error("expected error for unsafe entry")
			}
			if visited != 0 {
				t.Errorf("visited %d entries of unsafe archive", visited)
			}
		})
	}
}

func TestWalk_InvalidArchive(t *testing.T) {
	t.Run("nonexistent file", func(t *testing.T) {
		if err := Walk("/nonexistent/file.zip", Options{}, func(string, Entry) error { return nil }); err == nil {
			t.Error("Walk() expected error for nonexistent file")
		}
	})

	t.Run("invalid zip file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "invalid.zip")
		if err := os.WriteFile(path, []byte("not a zip file"), 0644); err != nil {
			t.Fatalf("Failed to create invalid zip: %v", err)
		}
		if err := Walk(path, Options{}, func(string, Entry) error { return nil }); err == nil {
			t.Error("Walk() expected error for invalid zip file")
		}
	})
}
