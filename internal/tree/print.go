package tree

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Print writes an indented outline of the shard stored in the named blob.
// Nested shards are listed by name but not descended into.
func (t *Tree) Print(ctx context.Context, w io.Writer, fileName string) error {
	p, err := PathFromFileName(fileName)
	if err != nil {
		return err
	}

	content, reserved, err := t.load(ctx, p)
	if err != nil {
		return err
	}
	defer t.rc.ReleaseMemory(reserved)

	if _, err := fmt.Fprintf(w, "%s (path %q)\n", p.FileName(), p.String()); err != nil {
		return err
	}
	return printNode(w, content, 1)
}

func printNode(w io.Writer, n Node, depth int) error {
	indent := strings.Repeat("  ", depth)

	switch n := n.(type) {
	case *Leaf:
		_, err := fmt.Fprintf(w, "%sleaf records=%d\n", indent, len(n.Records))
		return err

	case *Internal:
		if _, err := fmt.Fprintf(w, "%sinternal radius=%d vantage=%s\n", indent, n.Radius, n.Vantage); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s near:\n", indent); err != nil {
			return err
		}
		if err := printNode(w, n.Near, depth+1); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s far:\n", indent); err != nil {
			return err
		}
		return printNode(w, n.Far, depth+1)

	case *Shard:
		_, err := fmt.Fprintf(w, "%sshard %s\n", indent, n.FileName())
		return err

	default:
		return corrupt(0, "unknown node type %T", n)
	}
}
