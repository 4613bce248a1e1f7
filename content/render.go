package content

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"rwout/rw"
)

// renderer walks one unit of output (front page or topic body).
type renderer struct {
	s     *Session
	sink  Sink
	links *LinkTable
	log   *zap.Logger
	err   error
}

func (s *Session) newRenderer(sink Sink, links *LinkTable) *renderer {
	return &renderer{s: s, sink: sink, links: links, log: s.log}
}

// frontPageFields lists optional details children in output order.
var frontPageFields = []struct {
	tag, label string
}{
	{"summary", "Summary"},
	{"description", "Description"},
	{"requirements", "Requirements"},
	{"credits", "Credits"},
	{"legal", "Legal"},
	{"other_notes", "Other Notes"},
}

func (r *renderer) frontPage(fp *FrontPage) {
	details := r.s.tree.Details()

	r.sink.Heading(1, fp.Title, "")
	if fp.ExportDate != "" {
		r.labeled("Exported", fp.ExportDate)
	}
	if !fp.Generated.IsZero() {
		r.labeled("Generated on", fp.Generated.Format("2006-01-02 15:04:05"))
	}

	if cover := details.ChildTag("cover_art"); cover != nil {
		if data := cover.Binary(); len(data) > 0 {
			r.picture(data, "cover_art", nil, nil)
		}
	}

	for _, f := range frontPageFields {
		n := details.ChildTag(f.tag)
		if n == nil || len(n.Children) == 0 {
			continue
		}
		r.sink.Heading(2, f.label, "")
		r.body(n, 0, nil)
	}

	if len(fp.Roots) > 0 {
		r.sink.Heading(2, "Contents", "")
		r.index(fp.Roots)
	}
}

func (r *renderer) topic(t *Topic) {
	r.sink.Heading(t.Depth+1, t.Title(), t.ID)

	var aliases []string
	for _, a := range t.Node.ChildrenOf(rw.KindAlias) {
		if name := a.Attr("name"); name != "" {
			aliases = append(aliases, name)
		}
	}
	if len(aliases) > 0 {
		r.labeled("Aliases", strings.Join(aliases, ", "))
	}

	for _, sec := range t.Node.ChildrenOf(rw.KindSection) {
		r.section(sec, t.Depth+2, 0)
	}

	if len(t.Children) > 0 {
		r.index(t.Children)
	}
}

func (r *renderer) section(sec *rw.Node, level, depth int) {
	if !r.guard(depth, sec) {
		return
	}
	r.sink.Heading(level, sec.Attr("partition_name"), "")
	for _, c := range sec.Children {
		switch c.Kind {
		case rw.KindSnippet:
			r.snippet(c, depth+1)
		case rw.KindSection:
			r.section(c, level+1, depth+1)
		}
	}
}

// index emits linked list of topics.
func (r *renderer) index(topics []*Topic) {
	list := &Element{Kind: ElementList, Class: "index"}
	r.sink.Open(list)
	for _, t := range topics {
		item := &Element{Kind: ElementListItem}
		r.sink.Open(item)
		r.sink.Link(t.Title(), t.ID)
		r.sink.Close(item)
	}
	r.sink.Close(list)
}

// labeled emits standalone "label: value" paragraph.
func (r *renderer) labeled(label, value string) {
	p := &Element{Kind: ElementParagraph}
	r.sink.Open(p)
	r.label(label)
	r.sink.Text(value)
	r.sink.Close(p)
}

func (r *renderer) label(label string) {
	if label == "" {
		return
	}
	el := &Element{Kind: ElementLabel}
	r.sink.Open(el)
	r.sink.Text(label + ":")
	r.sink.Close(el)
	r.sink.Text(" ")
}

// guard stops recursion on pathological nesting remembering the first
// failure.
func (r *renderer) guard(depth int, n *rw.Node) bool {
	if r.err != nil {
		return false
	}
	if depth > rw.MaxDepth {
		r.err = &rw.StructuralError{Path: n.Tag, Msg: fmt.Sprintf("content nesting exceeds %d levels", rw.MaxDepth)}
		return false
	}
	return true
}
