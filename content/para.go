package content

import (
	"strings"

	"rwout/rw"
)

// body renders children of a content holder (contents, annotation,
// gm_directions). Bare text and inline markup are grouped into paragraphs
// so sinks never receive inline content at block level. When lead is not nil
// it is called once right after the first paragraph is opened.
func (r *renderer) body(n *rw.Node, depth int, lead func()) {
	var open *Element
	for _, c := range n.Children {
		if c.IsBinary() || c.Kind == rw.KindTagAssign {
			continue
		}
		if c.IsText() || isInline(c) {
			if open == nil {
				open = &Element{Kind: ElementParagraph}
				r.sink.Open(open)
				if lead != nil {
					lead()
					lead = nil
				}
			}
			r.para(c, depth+1, nil)
			continue
		}
		if open != nil {
			r.sink.Close(open)
			open = nil
		}
		if lead != nil {
			if c.Kind == rw.KindParagraph {
				r.para(c, depth+1, lead)
				lead = nil
				continue
			}
			r.standalone(lead)
			lead = nil
		}
		r.para(c, depth+1, nil)
	}
	if open != nil {
		r.sink.Close(open)
	}
	if lead != nil {
		r.standalone(lead)
	}
}

func (r *renderer) standalone(lead func()) {
	p := &Element{Kind: ElementParagraph}
	r.sink.Open(p)
	lead()
	r.sink.Close(p)
}

// para renders a node of rich text.
func (r *renderer) para(n *rw.Node, depth int, lead func()) {
	if !r.guard(depth, n) {
		return
	}
	switch {
	case n.IsText():
		r.sink.Text(n.Text)
		return
	case n.IsBinary(), n.Kind == rw.KindTagAssign:
		return
	case n.Kind == rw.KindSpan:
		r.span(n, depth)
		return
	}

	el := elementOf(n)
	if el == nil {
		// transparent wrapper
		for _, c := range n.Children {
			r.para(c, depth+1, nil)
		}
		return
	}

	r.sink.Open(el)
	if lead != nil {
		lead()
	}
	switch el.Kind {
	case ElementBreak:
	case ElementBlock, ElementListItem, ElementCell, ElementHeaderCell:
		r.body(n, depth, nil)
	default:
		for _, c := range n.Children {
			r.para(c, depth+1, nil)
		}
	}
	r.sink.Close(el)
}

// span renders span element, bare spans without attributes produce no
// wrapper. Text of spans is checked against topic linkage.
func (r *renderer) span(n *rw.Node, depth int) {
	var el *Element
	if n.HasAttrs() {
		class := n.Attr("class")
		el = &Element{Kind: ElementSpan, Class: class, Style: ParseStyle(class), CSS: ParseProps(n.Attr("style"))}
		r.sink.Open(el)
	}
	for _, c := range n.Children {
		if c.IsText() {
			r.linkText(c.Text)
			continue
		}
		r.para(c, depth+1, nil)
	}
	if el != nil {
		r.sink.Close(el)
	}
}

// linkText emits text as a link when it names a linked topic, whitespace
// around the name stays outside of the link.
func (r *renderer) linkText(text string) {
	name := strings.TrimSpace(text)
	id, ok := r.links.Find(name)
	if !ok {
		r.sink.Text(text)
		return
	}
	start := strings.Index(text, name)
	if start > 0 {
		r.sink.Text(text[:start])
	}
	r.sink.Link(name, id)
	if rest := text[start+len(name):]; rest != "" {
		r.sink.Text(rest)
	}
}

var tagElements = map[string]ElementKind{
	"p":          ElementParagraph,
	"div":        ElementBlock,
	"blockquote": ElementBlock,
	"pre":        ElementBlock,
	"b":          ElementBold,
	"strong":     ElementBold,
	"i":          ElementItalic,
	"em":         ElementItalic,
	"cite":       ElementItalic,
	"u":          ElementUnderline,
	"ins":        ElementUnderline,
	"ul":         ElementList,
	"ol":         ElementOrderedList,
	"li":         ElementListItem,
	"table":      ElementTable,
	"tr":         ElementRow,
	"td":         ElementCell,
	"th":         ElementHeaderCell,
	"br":         ElementBreak,
	"a":          ElementHyperlink,
	"font":       ElementSpan,
	"sup":        ElementSpan,
	"sub":        ElementSpan,
	"small":      ElementSpan,
	"h1":         ElementHeading,
	"h2":         ElementHeading,
	"h3":         ElementHeading,
	"h4":         ElementHeading,
	"h5":         ElementHeading,
	"h6":         ElementHeading,
}

// elementOf maps markup node to element, nil means node is transparent
// (table sections, unknown elements).
func elementOf(n *rw.Node) *Element {
	kind, ok := tagElements[n.Tag]
	if !ok {
		return nil
	}
	class := n.Attr("class")
	el := &Element{Kind: kind, Class: class, Style: ParseStyle(class), CSS: ParseProps(n.Attr("style"))}
	switch kind {
	case ElementHyperlink:
		el.Href = n.Attr("href")
	case ElementHeading:
		el.Level = int(n.Tag[1] - '0')
	}
	return el
}

func isInline(n *rw.Node) bool {
	if n.Kind == rw.KindSpan {
		return true
	}
	if k, ok := tagElements[n.Tag]; ok {
		return k.Inline()
	}
	return false
}
