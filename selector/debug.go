package selector

import "csf/utils/debug"

// Dump returns token tree of the selector list with nested arguments.
func Dump(l List) string {
	tw := debug.NewTreeWriter()
	dumpList(tw, 0, l)
	return tw.String()
}

func dumpList(tw *debug.TreeWriter, depth int, l List) {
	for i, s := range l {
		tw.Line(depth, "Selector[%d] %q", i, s.String())
		for _, t := range s {
			dumpToken(tw, depth+1, t)
		}
	}
}

func dumpToken(tw *debug.TreeWriter, depth int, t Token) {
	switch {
	case t.Kind == KindCombinator:
		tw.Text(depth, t.Kind.String(), t.Value)
	case t.Func && t.Args != nil:
		tw.Line(depth, "%s %s()", t.Kind, t.Value)
		dumpList(tw, depth+1, t.Args)
	case t.Func:
		tw.Line(depth, "%s %s(%s)", t.Kind, t.Value, t.Raw)
	default:
		tw.Line(depth, "%s %s", t.Kind, t.Value)
	}
}
