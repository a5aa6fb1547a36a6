package process

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"
)

var dmp = diffmatchpatch.New()

func init() {
	dmp.DiffTimeout = time.Second
}

// lineDiff returns line oriented difference, removed lines are prefixed with
// "-", added with "+". Unchanged lines are omitted. Empty when texts are
// equal.
func lineDiff(before, after string) string {
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	for _, d := range diffs {
		var prefix string
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		default:
			continue
		}
		for line := range strings.Lines(d.Text) {
			sb.WriteString(prefix)
			sb.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				sb.WriteString("\n\\ No newline at end of file\n")
			}
		}
	}
	return sb.String()
}

func writeDiff(w io.Writer, src, before, after string) error {
	diff := lineDiff(before, after)
	if diff == "" {
		_, err := fmt.Fprintf(w, "=== %s: unchanged\n", src)
		return err
	}
	_, err := fmt.Fprintf(w, "--- %s\n+++ %s (filtered)\n%s", src, src, diff)
	return err
}
