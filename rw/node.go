// Package rw holds the in-memory tree of a campaign export and the loader
// which builds it.
package rw

import (
	"strings"
)

// Attr is a single named attribute value.
type Attr struct {
	Name  string
	Value string
}

// Node is the universal tree element. A node is either a container (may have
// children, never has payload) or a leaf carrying fixed text or binary data.
type Node struct {
	Tag      string
	Kind     Kind
	Attrs    []Attr
	Children []*Node

	// leaf payload, at most one is set and only when Children is empty
	Text string
	Data []byte
	leaf bool

	// position of the start tag in the source, zero for nodes spliced
	// from embedded markup
	Line, Col int
}

// NewElement creates container node, kind is derived from tag.
func NewElement(tag string) *Node {
	return &Node{Tag: tag, Kind: kindOf(tag)}
}

// NewText creates fixed text leaf.
func NewText(text string) *Node {
	return &Node{Text: text, leaf: true}
}

// NewBinary creates binary leaf.
func NewBinary(data []byte) *Node {
	if data == nil {
		data = []byte{}
	}
	return &Node{Data: data, leaf: true}
}

// IsLeaf reports whether node carries payload instead of children.
func (n *Node) IsLeaf() bool {
	return n.leaf
}

// IsText reports whether node is a fixed text leaf.
func (n *Node) IsText() bool {
	return n.leaf && n.Data == nil
}

// IsBinary reports whether node is a binary leaf.
func (n *Node) IsBinary() bool {
	return n.leaf && n.Data != nil
}

// Append adds child to the container. Appending to a leaf is a programming
// error.
func (n *Node) Append(child *Node) {
	if n.leaf {
		panic("rw: leaf node cannot have children")
	}
	n.Children = append(n.Children, child)
}

// SetAttr sets attribute value, last write wins and the first insertion
// position is kept.
func (n *Node) SetAttr(name, value string) {
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Name: name, Value: value})
}

// Attr returns attribute value or empty string.
func (n *Node) Attr(name string) string {
	v, _ := n.LookupAttr(name)
	return v
}

// LookupAttr returns attribute value and whether it was present.
func (n *Node) LookupAttr(name string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Binary returns payload of the first binary leaf among direct children.
func (n *Node) Binary() []byte {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.IsBinary() {
			return c.Data
		}
	}
	return nil
}

// HasAttrs reports whether node has any attributes.
func (n *Node) HasAttrs() bool {
	return len(n.Attrs) > 0
}

// Child returns first direct child element with requested kind.
func (n *Node) Child(k Kind) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if !c.IsLeaf() && c.Kind == k {
			return c
		}
	}
	return nil
}

// ChildTag returns first direct child element with requested tag, used for
// elements which do not have dedicated kind.
func (n *Node) ChildTag(tag string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if !c.IsLeaf() && c.Tag == tag {
			return c
		}
	}
	return nil
}

// ChildrenOf returns all direct children with requested kind in document order.
func (n *Node) ChildrenOf(k Kind) []*Node {
	if n == nil {
		return nil
	}
	var res []*Node
	for _, c := range n.Children {
		if !c.IsLeaf() && c.Kind == k {
			res = append(res, c)
		}
	}
	return res
}

// TextContent returns concatenated text of the subtree.
func (n *Node) TextContent() string {
	if n == nil {
		return ""
	}
	if n.IsText() {
		return n.Text
	}
	var sb strings.Builder
	n.collectText(&sb)
	return sb.String()
}

func (n *Node) collectText(sb *strings.Builder) {
	for _, c := range n.Children {
		switch {
		case c.IsText():
			sb.WriteString(c.Text)
		case !c.IsLeaf():
			c.collectText(sb)
		}
	}
}

// Tree is a loaded campaign export.
type Tree struct {
	Root *Node
}

// Definition returns "definition" section of the export or nil.
func (t *Tree) Definition() *Node {
	if t == nil {
		return nil
	}
	return t.Root.Child(KindDefinition)
}

// Details returns "details" section of the definition or nil.
func (t *Tree) Details() *Node {
	return t.Definition().Child(KindDetails)
}

// Contents returns "contents" section of the export or nil.
func (t *Tree) Contents() *Node {
	if t == nil {
		return nil
	}
	return t.Root.Child(KindContents)
}

// Topics returns all topics of the tree in document order. Result is built
// on every call and is not retained by the tree.
func (t *Tree) Topics() []*Node {
	var res []*Node
	var walk func(n *Node)
	walk = func(n *Node) {
		for _, c := range n.ChildrenOf(KindTopic) {
			res = append(res, c)
			walk(c)
		}
	}
	if c := t.Contents(); c != nil {
		walk(c)
	}
	return res
}
