package web

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"rwout/config"
	"rwout/content"
)

type page struct {
	name  string
	doc   *etree.Document
	body  *etree.Element
	stack []*etree.Element
}

func newPage(name, title string) *page {
	doc := etree.NewDocument()
	doc.CreateDirective("DOCTYPE html")

	html := doc.CreateElement("html")
	html.CreateAttr("xmlns", "http://www.w3.org/1999/xhtml")

	head := html.CreateElement("head")
	meta := head.CreateElement("meta")
	meta.CreateAttr("http-equiv", "Content-Type")
	meta.CreateAttr("content", "text/html; charset=utf-8")

	link := head.CreateElement("link")
	link.CreateAttr("rel", "stylesheet")
	link.CreateAttr("type", "text/css")
	link.CreateAttr("href", stylesheetName)

	js := head.CreateElement("script")
	js.CreateAttr("src", scriptName)
	js.CreateAttr("defer", "defer")
	// pages are served as HTML, non-void elements must not be self closing
	js.CreateText("")

	head.CreateElement("title").CreateText(title)

	return &page{name: name, doc: doc, body: html.CreateElement("body")}
}

func (p *page) top() *etree.Element {
	if n := len(p.stack); n > 0 {
		return p.stack[n-1]
	}
	return p.body
}

// site is content sink building XHTML pages.
type site struct {
	dst             string
	split           bool
	indexEverywhere bool
	log             *zap.Logger

	front  *content.FrontPage
	files  map[int]string
	page   *page
	assets map[string]bool
	maps   int
	pages  int
	err    error
}

func newSite(dst string, split, indexEverywhere bool, log *zap.Logger) *site {
	return &site{
		dst:             dst,
		split:           split,
		indexEverywhere: indexEverywhere,
		log:             log,
		files:           make(map[int]string),
		assets:          make(map[string]bool),
	}
}

// pageNames assigns file to every topic, duplicate ids get sequence suffix.
func pageNames(fp *content.FrontPage) map[int]string {
	res := make(map[int]string, len(fp.All))
	used := map[string]bool{indexPage: true}
	for _, t := range fp.All {
		base := config.CleanFileName(t.ID)
		name := base + ".htm"
		if used[strings.ToLower(name)] {
			name = fmt.Sprintf("%s-%d.htm", base, t.Seq)
		}
		used[strings.ToLower(name)] = true
		res[t.Seq] = name
	}
	return res
}

func (s *site) BeginFrontPage(fp *content.FrontPage) error {
	s.front = fp
	s.files = pageNames(fp)
	s.page = newPage(indexPage, fp.Title)
	return nil
}

func (s *site) EndFrontPage(*content.FrontPage) error {
	if s.split {
		return s.write(s.page)
	}
	return s.err
}

func (s *site) BeginTopic(t *content.Topic) error {
	if !s.split {
		s.page.stack = nil
		return nil
	}
	s.page = newPage(s.files[t.Seq], t.Title())
	s.navigation(t)
	return nil
}

func (s *site) EndTopic(*content.Topic) error {
	if s.split {
		return s.write(s.page)
	}
	return s.err
}

// navigation adds breadcrumbs and optionally full topic index to the page.
func (s *site) navigation(t *content.Topic) {
	nav := s.page.body.CreateElement("nav")
	nav.CreateAttr("class", "breadcrumbs")
	a := nav.CreateElement("a")
	a.CreateAttr("href", indexPage)
	a.CreateText(s.front.Title)
	var chain []*content.Topic
	for p := t.Parent; p != nil; p = p.Parent {
		chain = append([]*content.Topic{p}, chain...)
	}
	for _, p := range chain {
		nav.CreateText(" › ")
		a := nav.CreateElement("a")
		a.CreateAttr("href", s.files[p.Seq])
		a.CreateText(p.Title())
	}

	if !s.indexEverywhere {
		return
	}
	index := s.page.body.CreateElement("nav")
	index.CreateAttr("class", "index")
	s.tree(index, s.front.Roots, t)
}

func (s *site) tree(parent *etree.Element, topics []*content.Topic, current *content.Topic) {
	ul := parent.CreateElement("ul")
	for _, t := range topics {
		li := ul.CreateElement("li")
		a := li.CreateElement("a")
		a.CreateAttr("href", s.files[t.Seq])
		if t == current {
			a.CreateAttr("class", "current")
		}
		a.CreateText(t.Title())
		if len(t.Children) > 0 {
			s.tree(li, t.Children, current)
		}
	}
}

func (s *site) write(p *page) error {
	if s.err != nil {
		return s.err
	}
	path := filepath.Join(s.dst, p.name)
	if err := p.doc.WriteToFile(path); err != nil {
		return &content.IoError{Path: path, Err: err}
	}
	s.pages++
	return nil
}

// href returns link target for topic.
func (s *site) href(id string) (string, bool) {
	t, ok := s.front.Lookup(id)
	if !ok {
		return "", false
	}
	if !s.split {
		return "#" + id, true
	}
	return s.files[t.Seq], true
}

func (s *site) Heading(level int, text, anchor string) {
	h := s.page.top().CreateElement("h" + strconv.Itoa(min(max(level, 1), 6)))
	if anchor != "" {
		h.CreateAttr("id", anchor)
	}
	h.CreateText(text)
}

var elementTags = map[content.ElementKind]string{
	content.ElementParagraph:   "p",
	content.ElementBlock:       "div",
	content.ElementSpan:        "span",
	content.ElementBold:        "b",
	content.ElementItalic:      "i",
	content.ElementUnderline:   "u",
	content.ElementList:        "ul",
	content.ElementOrderedList: "ol",
	content.ElementListItem:    "li",
	content.ElementTable:       "table",
	content.ElementRow:         "tr",
	content.ElementCell:        "td",
	content.ElementHeaderCell:  "th",
	content.ElementBreak:       "br",
	content.ElementLabel:       "span",
	content.ElementHyperlink:   "a",
}

func (s *site) Open(el *content.Element) {
	tag, ok := elementTags[el.Kind]
	if el.Kind == content.ElementHeading {
		tag, ok = "h"+strconv.Itoa(min(max(el.Level, 1), 6)), true
	}
	if !ok {
		tag = "span"
	}

	e := s.page.top().CreateElement(tag)
	switch {
	case el.Style != content.StyleNone:
		e.CreateAttr("class", el.Style.String())
	case el.Kind == content.ElementLabel:
		e.CreateAttr("class", "label")
	case el.Class != "":
		e.CreateAttr("class", el.Class)
	}
	if css := el.CSS.Declarations(); css != "" {
		e.CreateAttr("style", css)
	}
	if el.Kind == content.ElementHyperlink && el.Href != "" {
		e.CreateAttr("href", el.Href)
	}
	s.page.stack = append(s.page.stack, e)
}

func (s *site) Close(*content.Element) {
	n := len(s.page.stack)
	if n == 0 {
		return
	}
	e := s.page.stack[n-1]
	s.page.stack = s.page.stack[:n-1]
	if len(e.Child) == 0 && !voidElements[e.Tag] {
		e.CreateText("")
	}
}

var voidElements = map[string]bool{"br": true, "img": true, "area": true}

func (s *site) Text(text string) {
	s.page.top().CreateText(text)
}

func (s *site) Link(text, topicID string) {
	href, ok := s.href(topicID)
	if !ok {
		s.Text(text)
		return
	}
	a := s.page.top().CreateElement("a")
	a.CreateAttr("href", href)
	a.CreateAttr("class", "topic-link")
	a.CreateText(text)
}

// asset writes file under assets directory once per site and returns its
// relative address.
func (s *site) asset(name string, data []byte) string {
	rel := path.Join(assetsDir, name)
	if s.assets[name] || s.err != nil {
		return rel
	}
	full := filepath.Join(s.dst, assetsDir, name)
	if err := os.WriteFile(full, data, 0644); err != nil {
		s.err = &content.IoError{Path: full, Err: err}
		return rel
	}
	s.assets[name] = true
	return rel
}

func (s *site) Image(img *content.Image) {
	a := img.Asset
	div := s.page.top().CreateElement("div")
	div.CreateAttr("class", "image")

	e := div.CreateElement("img")
	e.CreateAttr("src", s.asset(a.FileName(), a.Data))
	e.CreateAttr("alt", img.Name)
	if a.Width > 0 {
		e.CreateAttr("width", strconv.Itoa(a.Width))
		e.CreateAttr("height", strconv.Itoa(a.Height))
	}
	if len(img.Pins) == 0 {
		return
	}

	s.maps++
	name := fmt.Sprintf("map-%d", s.maps)
	e.CreateAttr("usemap", "#"+name)
	m := div.CreateElement("map")
	m.CreateAttr("name", name)
	m.CreateAttr("id", name)
	pins := div.CreateElement("ul")
	pins.CreateAttr("class", "pins")

	for _, pin := range img.Pins {
		title := pin.Name
		if pin.Description != "" {
			title += ": " + pin.Description
		}
		area := m.CreateElement("area")
		area.CreateAttr("shape", "circle")
		area.CreateAttr("coords", fmt.Sprintf("%d,%d,%d", pin.X, pin.Y, pinRadius))
		area.CreateAttr("alt", pin.Name)
		area.CreateAttr("title", title)

		li := pins.CreateElement("li")
		if href, ok := s.href(pin.TopicID); ok {
			area.CreateAttr("href", href)
			a := li.CreateElement("a")
			a.CreateAttr("href", href)
			a.CreateText(pin.Name)
		} else {
			li.CreateElement("b").CreateText(pin.Name)
		}
		if pin.Description != "" {
			li.CreateText(": " + pin.Description)
		}
		if pin.GMDirections != "" {
			gm := li.CreateElement("span")
			gm.CreateAttr("class", content.StyleGMDirections.String())
			gm.CreateText(" " + pin.GMDirections)
		}
	}
}

const pinRadius = 12

func (s *site) External(e *content.External) {
	p := s.page.top().CreateElement("p")
	p.CreateAttr("class", "external")

	href := e.URL
	if len(e.Data) > 0 {
		href = s.asset(e.FileName(), e.Data)
	}
	if href != "" {
		a := p.CreateElement("a")
		a.CreateAttr("href", href)
		a.CreateText(e.Name)
	} else {
		p.CreateText(e.Name)
	}
	d := p.CreateElement("span")
	d.CreateAttr("class", "description")
	d.CreateText(" (" + e.Description() + ")")
}
