package fgmod

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"rwout/config"
	"rwout/content"
)

type record struct {
	id    string
	name  string
	text  *etree.Element
	lossy bool
}

type picture struct {
	id     string
	name   string
	file   string
	width  int
	height int
	pins   []content.Pin
}

// state is restored when element closes.
type state struct {
	// para is current text container, target is innermost inline element
	// inside it
	para, target *etree.Element
	// loose paragraphs cannot be continued after another block started
	loose bool
	// frame is set inside read aloud blocks
	frame bool

	list    *etree.Element
	ordered bool
	items   *int
	// index lists become link lists
	index bool

	table, row *etree.Element
}

// builder is content sink collecting module records. Formatted text of
// records only knows flat paragraphs, lists and tables so nested blocks are
// flattened.
type builder struct {
	work     string
	maxWidth int
	log      *zap.Logger

	front   *content.FrontPage
	records []*record
	images  []*picture
	byName  map[string]*picture
	rec     *record
	cur     state
	stack   []state
	err     error
}

func newBuilder(work string, maxWidth int, log *zap.Logger) *builder {
	return &builder{
		work:     work,
		maxWidth: maxWidth,
		log:      log,
		byName:   make(map[string]*picture),
	}
}

func recordID(seq int) string {
	return fmt.Sprintf("id-%05d", seq)
}

func (b *builder) begin(id, name string) {
	b.rec = &record{id: id, text: etree.NewElement("text")}
	b.rec.name = clean(name, &b.rec.lossy)
	b.rec.text.CreateAttr("type", "formattedtext")
	b.cur, b.stack = state{}, nil
}

func (b *builder) end() error {
	r := b.rec
	if len(r.text.ChildElements()) == 0 {
		r.text.CreateElement("p").CreateText("")
	}
	if r.lossy {
		b.log.Warn("Characters not representable in module encoding replaced", zap.String("record", r.id), zap.String("name", r.name))
	}
	b.records = append(b.records, r)
	b.rec = nil
	return b.err
}

func (b *builder) BeginFrontPage(fp *content.FrontPage) error {
	b.front = fp
	b.begin(recordID(0), fp.Title)
	return nil
}

func (b *builder) EndFrontPage(*content.FrontPage) error {
	return b.end()
}

func (b *builder) BeginTopic(t *content.Topic) error {
	b.begin(recordID(t.Seq), t.Title())
	return nil
}

func (b *builder) EndTopic(*content.Topic) error {
	return b.end()
}

// block creates new top level element of formatted text.
func (b *builder) block(tag string) *etree.Element {
	b.cur.para, b.cur.target = nil, nil
	return b.rec.text.CreateElement(tag)
}

// text returns element receiving text, loose paragraph is created when
// necessary.
func (b *builder) text() *etree.Element {
	if b.cur.target == nil {
		tag := "p"
		if b.cur.frame {
			tag = "frame"
		}
		b.cur.para = b.rec.text.CreateElement(tag)
		b.cur.target, b.cur.loose = b.cur.para, true
	}
	return b.cur.target
}

func (b *builder) inline(tag string) {
	if b.cur.index {
		return
	}
	b.cur.target = b.text().CreateElement(tag)
}

// contained reports whether text goes into list item or table cell.
func (b *builder) contained() bool {
	return b.cur.para != nil && !b.cur.loose
}

func (b *builder) Heading(_ int, text, _ string) {
	if b.contained() {
		b.text().CreateElement("b").CreateText(clean(text, &b.rec.lossy) + " ")
		return
	}
	b.block("h").CreateText(clean(text, &b.rec.lossy))
}

func (b *builder) Open(el *content.Element) {
	b.stack = append(b.stack, b.cur)

	switch el.Kind {
	case content.ElementParagraph:
		if b.contained() {
			b.separate()
			return
		}
		b.cur.para, b.cur.target = nil, nil

	case content.ElementBlock:
		if el.Style == content.StyleReadAloud {
			b.cur.frame = true
		}
		if !b.contained() {
			b.cur.para, b.cur.target = nil, nil
		}

	case content.ElementHeading:
		if b.contained() {
			b.inline("b")
			return
		}
		b.cur.para = b.block("h")
		b.cur.target, b.cur.loose = b.cur.para, true

	case content.ElementList, content.ElementOrderedList:
		switch {
		case el.Class == "index":
			b.cur.list = b.block("linklist")
			b.cur.index = true
		case b.cur.table != nil || b.cur.index:
		case b.cur.list == nil:
			b.cur.list = b.block("list")
			fallthrough
		default:
			b.cur.ordered = el.Kind == content.ElementOrderedList
			b.cur.items = new(int)
		}

	case content.ElementListItem:
		if b.cur.index || b.cur.list == nil || b.cur.table != nil {
			if b.contained() {
				b.separate()
			}
			return
		}
		li := b.cur.list.CreateElement("li")
		b.cur.para, b.cur.target, b.cur.loose = li, li, false
		if b.cur.ordered {
			*b.cur.items++
			li.CreateText(strconv.Itoa(*b.cur.items) + ". ")
		}

	case content.ElementTable:
		if b.cur.table != nil || b.cur.index {
			return
		}
		b.cur.table = b.block("table")
		b.cur.list = nil

	case content.ElementRow:
		if b.cur.table != nil && b.cur.row == nil {
			b.cur.row = b.cur.table.CreateElement("tr")
		}

	case content.ElementCell, content.ElementHeaderCell:
		if b.cur.row == nil || b.contained() {
			b.separate()
			return
		}
		td := b.cur.row.CreateElement("td")
		b.cur.para, b.cur.target, b.cur.loose = td, td, false
		if el.Kind == content.ElementHeaderCell {
			b.cur.target = td.CreateElement("b")
		}

	case content.ElementBreak:
		if b.contained() {
			b.separate()
		} else {
			b.cur.para, b.cur.target = nil, nil
		}

	case content.ElementBold, content.ElementLabel:
		b.inline("b")
	case content.ElementItalic:
		b.inline("i")
	case content.ElementUnderline:
		b.inline("u")

	case content.ElementSpan:
		if el.CSS.Bold {
			b.inline("b")
		}
		if el.CSS.Italic {
			b.inline("i")
		}
		if el.CSS.Underline {
			b.inline("u")
		}
	}
}

// separate puts space between blocks flattened into one container.
func (b *builder) separate() {
	t := b.cur.target
	if t == nil || len(t.Child) == 0 {
		return
	}
	if cd, ok := t.Child[len(t.Child)-1].(*etree.CharData); ok && strings.HasSuffix(cd.Data, " ") {
		return
	}
	t.CreateText(" ")
}

func (b *builder) Close(el *content.Element) {
	n := len(b.stack)
	if n == 0 {
		return
	}
	saved := b.stack[n-1]
	b.stack = b.stack[:n-1]

	switch el.Kind {
	case content.ElementBold, content.ElementLabel, content.ElementItalic, content.ElementUnderline,
		content.ElementSpan, content.ElementHyperlink:
		// inline elements keep paragraph which might have been created
		// inside of them
		if saved.target == nil {
			saved.para, saved.target, saved.loose = b.cur.para, b.cur.para, b.cur.loose
		}
		b.cur = saved
		return
	}
	if saved.loose {
		saved.para, saved.target = nil, nil
	}
	b.cur = saved
}

func (b *builder) Text(text string) {
	if b.cur.index {
		return
	}
	b.text().CreateText(clean(text, &b.rec.lossy))
}

func (b *builder) Link(text, topicID string) {
	t, ok := b.front.Lookup(topicID)
	if !ok || !b.cur.index || b.cur.list == nil {
		b.Text(text)
		return
	}
	link := b.cur.list.CreateElement("link")
	link.CreateAttr("class", "encounter")
	link.CreateAttr("recordname", "encounter."+recordID(t.Seq))
	link.CreateText(clean(text, &b.rec.lossy))
}

func (b *builder) Image(img *content.Image) {
	a, err := img.Asset.Rasterized(b.maxWidth)
	if err != nil {
		b.log.Warn("Unable to rasterize image, skipping", zap.String("asset", img.Name), zap.Error(err))
		return
	}

	name := a.FileName()
	pic, ok := b.byName[name]
	if !ok {
		pic = &picture{
			id:     recordID(len(b.images) + 1),
			name:   clean(img.Name, &b.rec.lossy),
			file:   path.Join(imagesDir, name),
			width:  a.Width,
			height: a.Height,
			pins:   img.Pins,
		}
		full := filepath.Join(b.work, imagesDir, name)
		if err := os.WriteFile(full, a.Data, 0644); err != nil && b.err == nil {
			b.err = &content.IoError{Path: full, Err: err}
		}
		b.byName[name] = pic
		b.images = append(b.images, pic)
	}

	keep := b.cur
	list := b.block("linklist")
	link := list.CreateElement("link")
	link.CreateAttr("class", "imagewindow")
	link.CreateAttr("recordname", "image."+pic.id)
	link.CreateText(pic.name)
	if !keep.loose {
		b.cur = keep
	}
}

func (b *builder) External(e *content.External) {
	keep := b.cur
	p := b.block("p")
	p.CreateElement("b").CreateText(clean(e.Name, &b.rec.lossy))
	desc := " (" + e.Description() + ")"
	if e.URL != "" {
		desc += " " + e.URL
	}
	p.CreateText(clean(desc, &b.rec.lossy))
	if !keep.loose {
		b.cur = keep
	}
}

func attrElement(parent *etree.Element, tag, typ, text string) *etree.Element {
	e := parent.CreateElement(tag)
	e.CreateAttr("type", typ)
	e.CreateText(text)
	return e
}

func newRoot() (*etree.Document, *etree.Element) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="iso-8859-1"`)
	root := doc.CreateElement("root")
	root.CreateAttr("version", dbVersion)
	root.CreateAttr("release", dbRelease)
	return doc, root
}

// libraryKey makes element name out of module name.
func libraryKey(name string) string {
	key := strings.ReplaceAll(slug.Make(name), "-", "_")
	if key == "" || (key[0] >= '0' && key[0] <= '9') {
		key = "module_" + key
	}
	return key
}

func (b *builder) definition(name string, cfg config.ModuleConfig) ([]byte, error) {
	var lossy bool
	doc, root := newRoot()
	root.CreateElement("name").CreateText(clean(name, &lossy))
	root.CreateElement("category").CreateText(clean(cfg.Category, &lossy))
	root.CreateElement("author").CreateText(clean(cfg.Author, &lossy))
	ruleset := cfg.Ruleset
	if ruleset == "" {
		ruleset = "CoreRPG"
	}
	root.CreateElement("ruleset").CreateText(clean(ruleset, &lossy))
	if lossy {
		b.log.Warn("Characters not representable in module encoding replaced", zap.String("record", definitionFile))
	}
	return encode(doc)
}

func (b *builder) database(name, category string) ([]byte, error) {
	var lossy bool
	name, category = clean(name, &lossy), clean(category, &lossy)
	if lossy {
		b.log.Warn("Characters not representable in module encoding replaced", zap.String("record", "library"))
	}

	doc, root := newRoot()
	enc := root.CreateElement("encounter")
	for _, r := range b.records {
		e := enc.CreateElement(r.id)
		attrElement(e, "name", "string", r.name)
		e.AddChild(r.text)
	}

	if len(b.images) > 0 {
		images := root.CreateElement("image")
		for _, pic := range b.images {
			e := images.CreateElement(pic.id)
			img := e.CreateElement("image")
			img.CreateAttr("type", "image")
			img.CreateElement("bitmap").CreateText(pic.file)
			b.shortcuts(img, pic)
			attrElement(e, "name", "string", pic.name)
		}
	}

	lib := root.CreateElement("library")
	entry := lib.CreateElement(libraryKey(name))
	entry.CreateAttr("static", "true")
	attrElement(entry, "categoryname", "string", category)
	attrElement(entry, "name", "string", name)
	entries := entry.CreateElement("entries")
	b.libraryEntry(entries, recordID(0), b.records[0].name)
	for _, t := range b.front.Roots {
		b.libraryEntry(entries, recordID(t.Seq), b.recordName(t.Seq))
	}
	return encode(doc)
}

func (b *builder) recordName(seq int) string {
	id := recordID(seq)
	for _, r := range b.records {
		if r.id == id {
			return r.name
		}
	}
	return id
}

func (b *builder) libraryEntry(entries *etree.Element, id, name string) {
	e := entries.CreateElement(id)
	link := e.CreateElement("librarylink")
	link.CreateAttr("type", "windowreference")
	link.CreateElement("class").CreateText("encounter")
	link.CreateElement("recordname").CreateText("encounter." + id)
	attrElement(e, "name", "string", name)
}

// shortcuts adds pins linked to topics, positions are relative to image
// center.
func (b *builder) shortcuts(img *etree.Element, pic *picture) {
	var list *etree.Element
	for _, pin := range pic.pins {
		t, ok := b.front.Lookup(pin.TopicID)
		if !ok {
			continue
		}
		if list == nil {
			list = img.CreateElement("shortcuts")
		}
		sc := list.CreateElement("shortcut")
		sc.CreateElement("x").CreateText(strconv.Itoa(pin.X - pic.width/2))
		sc.CreateElement("y").CreateText(strconv.Itoa(pin.Y - pic.height/2))
		sc.CreateElement("class").CreateText("encounter")
		sc.CreateElement("recordname").CreateText("encounter." + recordID(t.Seq))
	}
}

func encode(doc *etree.Document) ([]byte, error) {
	var out bytes.Buffer
	w := latin1Writer(&out)
	if _, err := doc.WriteTo(w); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
