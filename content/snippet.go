package content

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"rwout/rw"
)

// snippet dispatches snippet by its type. GM directions, when present, go
// first for every type.
func (r *renderer) snippet(n *rw.Node, depth int) {
	if !r.guard(depth, n) {
		return
	}

	var styled *Element
	if style := ParseStyle(n.Attr("style")); style != StyleNone {
		styled = &Element{Kind: ElementBlock, Style: style}
		r.sink.Open(styled)
	}

	if gm := n.Child(rw.KindGMDirections); gm != nil && len(gm.Children) > 0 {
		r.styledBody(gm, StyleGMDirections, depth)
	}

	annotation := n.Child(rw.KindAnnotation)
	st := rw.SnippetTypeOf(n)
	switch st {
	case rw.SnippetMultiLine:
		if c := n.Child(rw.KindContents); c != nil {
			r.body(c, depth, nil)
		}
	case rw.SnippetLabeledText:
		r.labeledText(n, annotation, depth)
	case rw.SnippetDateGame, rw.SnippetDateRange, rw.SnippetTagStandard,
		rw.SnippetTagMultiDomain, rw.SnippetNumeric, rw.SnippetHybridTag:
		r.value(n, st, annotation, depth)
	case rw.SnippetPicture:
		if asset := n.Child(rw.KindExtObject).Child(rw.KindAsset); asset != nil {
			r.picture(asset.Child(rw.KindContents).Binary(), asset.Attr("filename"), nil, nil)
		}
		r.annotation(annotation, depth)
	case rw.SnippetSmartImage:
		r.smartImage(n.Child(rw.KindSmartImage))
		r.annotation(annotation, depth)
	case rw.SnippetPortfolio:
		r.portfolio(n, depth)
		r.annotation(annotation, depth)
	case rw.SnippetPDF, rw.SnippetAudio, rw.SnippetVideo, rw.SnippetStatblock, rw.SnippetForeign, rw.SnippetRichText:
		r.foreign(n, st, depth)
		r.annotation(annotation, depth)
	default:
		r.log.Debug("Unknown snippet type, rendering contents", zap.String("type", n.Attr("type")), zap.Int("line", n.Line))
		if c := n.Child(rw.KindContents); c != nil {
			r.body(c, depth, nil)
		}
		r.annotation(annotation, depth)
	}

	if styled != nil {
		r.sink.Close(styled)
	}
}

// value renders single value snippets. With annotation present label and
// value are placed inside the first paragraph of the annotation.
func (r *renderer) value(n *rw.Node, st rw.SnippetType, annotation *rw.Node, depth int) {
	label, value := snippetLabel(n), snippetValue(n, st)
	if annotation == nil || len(annotation.Children) == 0 {
		r.labeled(label, value)
		return
	}
	el := &Element{Kind: ElementBlock, Style: StyleAnnotation}
	r.sink.Open(el)
	r.body(annotation, depth, func() {
		r.label(label)
		if value != "" {
			r.sink.Text(value + " ")
		}
	})
	r.sink.Close(el)
}

// labeledText emits contents prefixed with snippet label. With annotation
// present the labeled contents move inside the annotation block, ahead of the
// annotation text, same as for single value snippets.
func (r *renderer) labeledText(n, annotation *rw.Node, depth int) {
	label := snippetLabel(n)
	contents := func() {
		if c := n.Child(rw.KindContents); c != nil {
			r.body(c, depth, func() { r.label(label) })
		} else {
			r.labeled(label, "")
		}
	}
	if annotation == nil || len(annotation.Children) == 0 {
		contents()
		return
	}
	el := &Element{Kind: ElementBlock, Style: StyleAnnotation}
	r.sink.Open(el)
	contents()
	r.body(annotation, depth, nil)
	r.sink.Close(el)
}

func (r *renderer) annotation(n *rw.Node, depth int) {
	if n == nil || len(n.Children) == 0 {
		return
	}
	r.styledBody(n, StyleAnnotation, depth)
}

func (r *renderer) styledBody(n *rw.Node, style Style, depth int) {
	el := &Element{Kind: ElementBlock, Style: style}
	r.sink.Open(el)
	r.body(n, depth, nil)
	r.sink.Close(el)
}

func snippetLabel(n *rw.Node) string {
	return firstNonEmpty(n.Attr("facet_name"), n.Attr("label"))
}

func snippetValue(n *rw.Node, st rw.SnippetType) string {
	switch st {
	case rw.SnippetDateGame:
		return n.Child(rw.KindGameDate).Attr("display")
	case rw.SnippetDateRange:
		dr := n.Child(rw.KindDateRange)
		return "From: " + dr.Attr("display_start") + " To: " + dr.Attr("display_end")
	case rw.SnippetTagStandard, rw.SnippetHybridTag:
		var tags []string
		for _, t := range n.ChildrenOf(rw.KindTagAssign) {
			tags = append(tags, t.Attr("tag_name"))
		}
		return strings.Join(tags, ", ")
	case rw.SnippetTagMultiDomain:
		var tags []string
		for _, t := range n.ChildrenOf(rw.KindTagAssign) {
			tags = append(tags, t.Attr("domain_name")+":"+t.Attr("tag_name"))
		}
		return strings.Join(tags, "; ")
	case rw.SnippetNumeric:
		if c := n.Child(rw.KindContents); c != nil {
			return strings.TrimSpace(c.TextContent())
		}
		for _, c := range n.Children {
			if c.IsText() {
				return c.Text
			}
		}
	}
	return ""
}

// picture adapts image data and emits it, pins coordinates are scaled by
// the divisor returned by the asset pipeline.
func (r *renderer) picture(data []byte, name string, mask []byte, pins []*rw.Node) {
	if len(data) == 0 {
		r.log.Warn("Image has no data, skipping", zap.String("asset", name))
		return
	}
	if !r.s.opts.UseRevealMask {
		mask = nil
	}
	a, err := r.s.adapt(data, name, mask)
	if err != nil {
		r.log.Warn("Unable to process image, skipping", zap.String("asset", name), zap.Error(err))
		return
	}

	img := &Image{Asset: a, Name: name}
	for _, p := range pins {
		x, _ := strconv.Atoi(p.Attr("x"))
		y, _ := strconv.Atoi(p.Attr("y"))
		img.Pins = append(img.Pins, Pin{
			Name:         p.Attr("pin_name"),
			TopicID:      p.Attr("topic_id"),
			Description:  strings.TrimSpace(p.ChildTag("description").TextContent()),
			GMDirections: strings.TrimSpace(p.Child(rw.KindGMDirections).TextContent()),
			X:            x / a.Divisor,
			Y:            y / a.Divisor,
		})
	}
	r.sink.Image(img)
}

func (r *renderer) smartImage(si *rw.Node) {
	asset := si.Child(rw.KindAsset)
	if asset == nil {
		r.log.Warn("Smart image without asset, skipping", zap.String("name", si.Attr("name")))
		return
	}
	r.picture(asset.Child(rw.KindContents).Binary(), asset.Attr("filename"),
		si.ChildTag("subset_mask").Binary(), si.ChildrenOf(rw.KindMapPin))
}
