package process

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
	"golang.org/x/text/transform"
)

const (
	cssExt = ".css"
	zipExt = ".zip"

	// enough for filetype matchers
	headerSize = 262
)

type srcEncoding int

const (
	encUnknown srcEncoding = iota
	encUTF8
	encUTF16BigEndian
	encUTF16LittleEndian
	encUTF32BigEndian
	encUTF32LittleEndian
)

func (e srcEncoding) String() string {
	switch e {
	case encUnknown:
		return "unknown"
	case encUTF8:
		return "utf8"
	case encUTF16BigEndian:
		return "utf16be"
	case encUTF16LittleEndian:
		return "utf16le"
	case encUTF32BigEndian:
		return "utf32be"
	case encUTF32LittleEndian:
		return "utf32le"
	}
	return fmt.Sprintf("srcEncoding(%d)", int(e))
}

func isUTF8BOM3(buf []byte) bool {
	return bytes.HasPrefix(buf, []byte{0xEF, 0xBB, 0xBF})
}

func isUTF16BigEndianBOM2(buf []byte) bool {
	return bytes.HasPrefix(buf, []byte{0xFE, 0xFF})
}

func isUTF16LittleEndianBOM2(buf []byte) bool {
	return bytes.HasPrefix(buf, []byte{0xFF, 0xFE})
}

func isUTF32BigEndianBOM4(buf []byte) bool {
	return bytes.HasPrefix(buf, []byte{0x00, 0x00, 0xFE, 0xFF})
}

func isUTF32LittleEndianBOM4(buf []byte) bool {
	return bytes.HasPrefix(buf, []byte{0xFF, 0xFE, 0x00, 0x00})
}

// detectUTF looks for byte order mark. UTF-32LE must be checked before
// UTF-16LE as they share the first two bytes.
func detectUTF(buf []byte) srcEncoding {
	switch {
	case isUTF8BOM3(buf):
		return encUTF8
	case isUTF32BigEndianBOM4(buf):
		return encUTF32BigEndian
	case isUTF32LittleEndianBOM4(buf):
		return encUTF32LittleEndian
	case isUTF16BigEndianBOM2(buf):
		return encUTF16BigEndian
	case isUTF16LittleEndianBOM2(buf):
		return encUTF16LittleEndian
	}
	return encUnknown
}

// selectReader returns reader producing UTF-8 text without byte order mark.
func selectReader(r io.Reader, enc srcEncoding) io.Reader {
	switch enc {
	case encUnknown:
		return r
	case encUTF8:
		return transform.NewReader(r, unicode.UTF8BOM.NewDecoder())
	case encUTF16BigEndian:
		return transform.NewReader(r, unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder())
	case encUTF16LittleEndian:
		return transform.NewReader(r, unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder())
	case encUTF32BigEndian:
		return transform.NewReader(r, utf32.UTF32(utf32.BigEndian, utf32.ExpectBOM).NewDecoder())
	case encUTF32LittleEndian:
		return transform.NewReader(r, utf32.UTF32(utf32.LittleEndian, utf32.ExpectBOM).NewDecoder())
	}
	// this should never happen
	panic(fmt.Sprintf("unsupported source encoding %d", int(enc)))
}

func readHeader(r io.Reader) ([]byte, error) {
	buf := make([]byte, headerSize)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	return buf[:n], nil
}

// isArchiveFile reports whether path is a zip archive: both extension and
// content must agree.
func isArchiveFile(path string) (bool, error) {
	if !strings.EqualFold(filepath.Ext(path), zipExt) {
		return false, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	head, err := readHeader(f)
	if err != nil {
		return false, err
	}
	return filetype.Is(head, "zip"), nil
}

// checkStylesheet rejects binary content of known types, stylesheets are
// recognized by extension.
func checkStylesheet(head []byte) (bool, srcEncoding) {
	enc := detectUTF(head)
	if enc == encUnknown {
		if kind, err := filetype.Match(head); err == nil && kind != filetype.Unknown {
			return false, encUnknown
		}
	}
	return true, enc
}

func isStylesheetFile(path string) (bool, srcEncoding, error) {
	if !strings.EqualFold(filepath.Ext(path), cssExt) {
		return false, encUnknown, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return false, encUnknown, err
	}
	defer f.Close()

	head, err := readHeader(f)
	if err != nil {
		return false, encUnknown, err
	}
	ok, enc := checkStylesheet(head)
	return ok, enc, nil
}

func isStylesheetInArchive(f *zip.File) (bool, srcEncoding, error) {
	if !strings.EqualFold(filepath.Ext(f.Name), cssExt) {
		return false, encUnknown, nil
	}
	r, err := f.Open()
	if err != nil {
		return false, encUnknown, err
	}
	defer r.Close()

	head, err := readHeader(r)
	if err != nil {
		return false, encUnknown, err
	}
	ok, enc := checkStylesheet(head)
	return ok, enc, nil
}
