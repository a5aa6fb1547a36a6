package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"csf/selector"
	"csf/state"
)

// splitSelectors prints groups of every selector in every argument, one line
// per selector. Arguments may be selector lists, a malformed selector in a
// list does not prevent the rest of the list from being printed.
func splitSelectors(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("split")

	if cmd.Args().Len() == 0 {
		return errors.New("no selectors have been specified")
	}

	var err error
	for _, arg := range cmd.Args().Slice() {
		parts := selector.SplitList(arg)
		list := make(selector.List, 0, len(parts))
		for _, part := range parts {
			sel, er := selector.Parse(part)
			if er == nil && len(sel) == 0 && len(parts) > 1 {
				er = fmt.Errorf("empty selector in list %q", arg)
			}
			if er != nil {
				log.Warn("Unable to parse selector", zap.String("selector", part), zap.Error(er))
				err = multierr.Append(err, er)
				continue
			}
			if len(sel) > 0 {
				list = append(list, sel)
			}
		}
		if er := writeGroups(env.Output(), list, cmd.Bool("tree")); er != nil {
			return er
		}
	}
	return err
}

func writeGroups(w io.Writer, list selector.List, tree bool) error {
	if tree {
		_, err := io.WriteString(w, selector.Dump(list))
		return err
	}
	for _, sel := range list {
		groups := sel.Groups()
		quoted := make([]string, len(groups))
		for i, g := range groups {
			quoted[i] = strconv.Quote(g)
		}
		if _, err := fmt.Fprintf(w, "%s: [%s]\n", strconv.Quote(sel.String()), strings.Join(quoted, ", ")); err != nil {
			return err
		}
	}
	return nil
}
