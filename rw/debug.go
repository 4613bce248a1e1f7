package rw

import (
	"fmt"
	"strings"

	"github.com/xlab/treeprint"
)

// String returns a readable tree of the node and its subtree. It exists for
// manual inspection and debug reports only.
func (n *Node) String() string {
	if n == nil {
		return "<nil Node>"
	}
	tree := treeprint.NewWithRoot(n.label())
	n.dump(tree)
	return tree.String()
}

func (n *Node) dump(tree treeprint.Tree) {
	for _, c := range n.Children {
		if c.IsLeaf() || len(c.Children) == 0 {
			tree.AddNode(c.label())
			continue
		}
		c.dump(tree.AddBranch(c.label()))
	}
}

func (n *Node) label() string {
	switch {
	case n.IsText():
		text := n.Text
		if len(text) > 60 {
			text = text[:57] + "..."
		}
		return fmt.Sprintf("%q", text)
	case n.IsBinary():
		return fmt.Sprintf("<binary %d bytes>", len(n.Data))
	}
	var sb strings.Builder
	sb.WriteString(n.Tag)
	for _, a := range n.Attrs {
		fmt.Fprintf(&sb, " %s=%q", a.Name, a.Value)
	}
	return sb.String()
}
