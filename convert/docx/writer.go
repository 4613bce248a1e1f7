package docx

import (
	"strconv"
	"strings"

	"github.com/fumiama/go-docx"
	"go.uber.org/zap"

	"rwout/content"
)

// run properties in effect for text
type format struct {
	bold, italic, underline bool
	color, shade, size      string
}

type frame struct {
	el  *content.Element
	fmt format
}

type list struct {
	ordered bool
	n       int
}

type hyperlink struct {
	href string
	text strings.Builder
}

// writer is content sink building document in memory. Paragraphs are
// created lazily on first text so nested containers never produce empty
// paragraphs.
type writer struct {
	doc      *docx.Docx
	log      *zap.Logger
	maxWidth int
	front    *content.FrontPage

	p      *docx.Paragraph
	stack  []frame
	lists  []list
	marker string
	cells  int
	row    []int
	link   *hyperlink
	images int
}

func newWriter(maxWidth int, log *zap.Logger) *writer {
	return &writer{
		doc:      docx.New().WithDefaultTheme(),
		log:      log,
		maxWidth: maxWidth,
	}
}

var headingSizes = [...]string{"40", "32", "28", "26", "24", "22"}

func headingSize(level int) string {
	return headingSizes[min(max(level, 1), len(headingSizes))-1]
}

func (w *writer) BeginFrontPage(fp *content.FrontPage) error {
	w.front = fp
	return nil
}

func (w *writer) EndFrontPage(*content.FrontPage) error {
	w.reset()
	return nil
}

func (w *writer) BeginTopic(t *content.Topic) error {
	if t.Depth == 0 {
		w.doc.AddParagraph().AddPageBreaks()
	}
	w.p = nil
	return nil
}

func (w *writer) EndTopic(*content.Topic) error {
	w.reset()
	return nil
}

func (w *writer) reset() {
	w.p, w.stack, w.lists, w.marker, w.cells, w.row, w.link = nil, nil, nil, "", 0, nil, nil
}

func (w *writer) Heading(level int, text, _ string) {
	w.doc.AddParagraph().AddText(text).Bold().Size(headingSize(level))
	w.p = nil
}

func (w *writer) current() format {
	if len(w.stack) == 0 {
		return format{}
	}
	return w.stack[len(w.stack)-1].fmt
}

// breakParagraph makes next text start a new paragraph unless we are inside
// a table cell, cells of a row share one tab separated paragraph.
func (w *writer) breakParagraph() {
	if w.cells == 0 {
		w.p = nil
	}
}

func (w *writer) paragraph() *docx.Paragraph {
	if w.p == nil {
		w.p = w.doc.AddParagraph()
		if w.marker != "" {
			w.p.AddText(w.marker)
			w.marker = ""
		}
	}
	return w.p
}

func (w *writer) Open(el *content.Element) {
	f := w.current()
	switch el.Kind {
	case content.ElementParagraph:
		w.breakParagraph()
	case content.ElementHeading:
		w.breakParagraph()
		f.bold, f.size = true, headingSize(el.Level)
	case content.ElementBlock:
		w.breakParagraph()
		applyStyle(el.Style, &f)
	case content.ElementSpan:
		applyStyle(el.Style, &f)
	case content.ElementBold, content.ElementLabel:
		f.bold = true
	case content.ElementItalic:
		f.italic = true
	case content.ElementUnderline:
		f.underline = true
	case content.ElementList, content.ElementOrderedList:
		w.breakParagraph()
		w.lists = append(w.lists, list{ordered: el.Kind == content.ElementOrderedList})
	case content.ElementListItem:
		w.breakParagraph()
		if n := len(w.lists); n > 0 {
			l := &w.lists[n-1]
			l.n++
			w.marker = strings.Repeat("    ", n-1) + "• "
			if l.ordered {
				w.marker = strings.Repeat("    ", n-1) + strconv.Itoa(l.n) + ". "
			}
		}
	case content.ElementTable:
		w.breakParagraph()
	case content.ElementRow:
		w.breakParagraph()
		w.row = append(w.row, 0)
	case content.ElementCell, content.ElementHeaderCell:
		if n := len(w.row); n > 0 {
			if w.row[n-1] > 0 {
				w.paragraph().AddText("\t")
			}
			w.row[n-1]++
		}
		w.cells++
		if el.Kind == content.ElementHeaderCell {
			f.bold = true
		}
	case content.ElementBreak:
		w.breakParagraph()
	case content.ElementHyperlink:
		if el.Href != "" && w.link == nil {
			w.link = &hyperlink{href: el.Href}
		}
	}
	applyProps(el.CSS, &f)
	w.stack = append(w.stack, frame{el: el, fmt: f})
}

func (w *writer) Close(el *content.Element) {
	if n := len(w.stack); n > 0 {
		w.stack = w.stack[:n-1]
	}
	switch el.Kind {
	case content.ElementParagraph, content.ElementHeading, content.ElementBlock,
		content.ElementListItem, content.ElementTable:
		w.breakParagraph()
	case content.ElementList, content.ElementOrderedList:
		if n := len(w.lists); n > 0 {
			w.lists = w.lists[:n-1]
		}
		w.breakParagraph()
	case content.ElementRow:
		if n := len(w.row); n > 0 {
			w.row = w.row[:n-1]
		}
		w.p = nil
	case content.ElementCell, content.ElementHeaderCell:
		w.cells--
	case content.ElementHyperlink:
		if w.link != nil && w.link.href == el.Href {
			text := w.link.text.String()
			if text == "" {
				text = w.link.href
			}
			w.paragraph().AddLink(text, w.link.href)
			w.link = nil
		}
	}
}

func (w *writer) Text(s string) {
	if w.link != nil {
		w.link.text.WriteString(s)
		return
	}
	w.run(s, w.current())
}

func (w *writer) run(s string, f format) {
	if s == "" {
		return
	}
	r := w.paragraph().AddText(s)
	for _, c := range r.Children {
		// word processors drop edge whitespace otherwise
		if t, ok := c.(*docx.Text); ok && strings.TrimSpace(t.Text) != t.Text {
			t.XMLSpace = "preserve"
		}
	}
	if f.bold {
		r.Bold()
	}
	if f.italic {
		r.Italic()
	}
	if f.underline {
		r.Underline("single")
	}
	if f.color != "" {
		r.Color(f.color)
	}
	if f.shade != "" {
		r.Shade("clear", "auto", f.shade)
	}
	if f.size != "" {
		r.Size(f.size)
	}
}

// Link renders topic reference, document has no bookmarks so reference is
// only marked visually.
func (w *writer) Link(text, topicID string) {
	f := w.current()
	if _, ok := w.front.Lookup(topicID); ok {
		f.underline, f.color = true, linkColor
	}
	w.run(text, f)
}

const linkColor = "0563C1"

func (w *writer) Image(img *content.Image) {
	a, err := img.Asset.Rasterized(w.maxWidth)
	if err != nil {
		w.log.Warn("Unable to rasterize image, skipping", zap.String("asset", img.Name), zap.Error(err))
		return
	}
	p := w.doc.AddParagraph()
	if _, err := p.AddInlineDrawing(a.Data); err != nil {
		w.log.Warn("Unable to embed image, skipping", zap.String("asset", img.Name), zap.Error(err))
		return
	}
	w.images++
	w.p = nil

	for _, pin := range img.Pins {
		w.p = w.doc.AddParagraph()
		w.p.AddText("• ")
		if pin.TopicID != "" {
			w.Link(pin.Name, pin.TopicID)
		} else {
			w.run(pin.Name, format{bold: true})
		}
		if pin.Description != "" {
			w.run(": "+pin.Description, format{})
		}
		if pin.GMDirections != "" {
			w.run(" ("+pin.GMDirections+")", format{italic: true, color: gmColor})
		}
		w.p = nil
	}
}

func (w *writer) External(e *content.External) {
	w.p = w.doc.AddParagraph()
	if e.URL != "" {
		w.p.AddLink(e.Name, e.URL)
	} else {
		w.run(e.Name, format{bold: true})
	}
	w.run(" ("+e.Description()+")", format{italic: true})
	w.p = nil
}

const gmColor = "C00000"

func applyStyle(s content.Style, f *format) {
	switch s {
	case content.StyleReadAloud:
		f.italic, f.shade = true, "DEEAF6"
	case content.StyleHandout:
		f.shade = "FFF2CC"
	case content.StyleFlavor:
		f.italic = true
	case content.StyleCallout:
		f.bold, f.shade = true, "E2EFD9"
	case content.StyleGMDirections:
		f.color = gmColor
	case content.StyleAnnotation:
		f.italic, f.size = true, "18"
	case content.StyleStatblock:
		f.shade, f.size = "F2F2F2", "18"
	}
}

func applyProps(p content.Props, f *format) {
	if p.IsZero() {
		return
	}
	f.bold = f.bold || p.Bold
	f.italic = f.italic || p.Italic
	f.underline = f.underline || p.Underline
	if c := content.HexColor(p.Color); c != "" {
		f.color = c
	}
	if c := content.HexColor(p.Background); c != "" {
		f.shade = c
	}
}
