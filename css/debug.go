package css

import (
	"fmt"

	"csf/utils/debug"
)

// Dump returns readable tree of the stylesheet with all raw text visible.
// It exists for troubleshooting only, format is not stable.
func Dump(s *Stylesheet) string {
	tw := debug.NewTreeWriter()
	tw.Line(0, "Stylesheet (%d nodes)", len(s.nodes))
	dumpNodes(tw, 1, s.nodes)
	if len(s.Raws.After) > 0 {
		tw.Text(1, "after", s.Raws.After)
	}
	return tw.String()
}

func dumpNodes(tw *debug.TreeWriter, depth int, nodes []Node) {
	for _, n := range nodes {
		switch n := n.(type) {
		case *Rule:
			tw.Line(depth, "Rule line=%d (%d nodes)", n.line, len(n.nodes))
			tw.Text(depth+1, "selector", n.Selector)
			dumpRaws(tw, depth+1, n.Raws)
			dumpNodes(tw, depth+1, n.nodes)
		case *AtRule:
			tw.Line(depth, "AtRule @%s line=%d block=%t (%d nodes)", n.Name, n.line, n.HasBlock, len(n.nodes))
			tw.Text(depth+1, "params", n.Params)
			dumpRaws(tw, depth+1, n.Raws)
			dumpNodes(tw, depth+1, n.nodes)
		case *Declaration:
			tw.Line(depth, "Declaration line=%d", n.line)
			tw.Text(depth+1, "prop", n.Prop)
			tw.Text(depth+1, "value", n.Value)
			dumpRaws(tw, depth+1, n.Raws)
		case *Comment:
			tw.Text(depth, fmt.Sprintf("Comment line=%d", n.line), n.Text)
		}
	}
}

func dumpRaws(tw *debug.TreeWriter, depth int, r Raws) {
	for _, f := range []struct{ label, value string }{
		{"before", r.Before},
		{"after-name", r.AfterName},
		{"between", r.Between},
		{"after", r.After},
	} {
		if len(f.value) > 0 {
			tw.Text(depth, f.label, f.value)
		}
	}
}
