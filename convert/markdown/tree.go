package markdown

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"rwout/config"
	"rwout/content"
)

type indexMatter struct {
	Title      string    `yaml:"title"`
	ExportDate string    `yaml:"export_date,omitempty"`
	Generated  time.Time `yaml:"generated,omitempty"`
}

type topicMatter struct {
	Title    string `yaml:"title"`
	TopicID  string `yaml:"topic_id"`
	Category string `yaml:"category,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
	Suffix   string `yaml:"suffix,omitempty"`
	Parent   string `yaml:"parent,omitempty"`
	Order    int    `yaml:"order"`
}

type page struct {
	// slash separated, relative to destination
	name string
	w    *writer
}

type list struct {
	ordered bool
	n       int
}

type table struct {
	rows, cells int
}

// tree is content sink building markdown files.
type tree struct {
	dst             string
	split           bool
	indexEverywhere bool
	categoryDirs    bool
	log             *zap.Logger

	front   *content.FrontPage
	files   map[int]string
	page    *page
	closers []func()
	kinds   []content.ElementKind
	lists   []list
	tables  []table
	// nesting of table cells, block structure is flattened inside cells
	cell   int
	assets map[string]bool
	pages  int
	err    error
}

func newTree(dst string, split, indexEverywhere, categoryDirs bool, log *zap.Logger) *tree {
	return &tree{
		dst:             dst,
		split:           split,
		indexEverywhere: indexEverywhere,
		categoryDirs:    categoryDirs,
		log:             log,
		files:           make(map[int]string),
		assets:          make(map[string]bool),
	}
}

// fileNames assigns file to every topic. Names are derived from titles,
// collisions get numeric suffix.
func fileNames(fp *content.FrontPage, categoryDirs bool) map[int]string {
	res := make(map[int]string, len(fp.All))
	used := map[string]bool{indexFile: true}
	for _, t := range fp.All {
		base := slug.Make(t.Title())
		if base == "" {
			base = config.CleanFileName(t.ID)
		}
		dir := ""
		if categoryDirs && t.Category != "" {
			if dir = slug.Make(t.Category); dir == assetsDir {
				dir += "-topics"
			}
		}
		name := path.Join(dir, base+".md")
		for i := 2; used[strings.ToLower(name)]; i++ {
			name = path.Join(dir, fmt.Sprintf("%s-%d.md", base, i))
		}
		used[strings.ToLower(name)] = true
		res[t.Seq] = name
	}
	return res
}

func (s *tree) newPage(name string, matter any) {
	s.page = &page{name: name, w: newWriter()}
	s.closers, s.kinds, s.lists, s.tables, s.cell = nil, nil, nil, nil, 0

	data, err := yaml.Marshal(matter)
	if err != nil {
		// plain values only, never happens
		s.log.Warn("Unable to encode front matter", zap.String("file", name), zap.Error(err))
		return
	}
	s.page.w.raw("---\n" + string(data) + "---\n")
	s.page.w.blank()
}

func (s *tree) BeginFrontPage(fp *content.FrontPage) error {
	s.front = fp
	s.files = fileNames(fp, s.categoryDirs)
	s.newPage(indexFile, indexMatter{Title: fp.Title, ExportDate: fp.ExportDate, Generated: fp.Generated})
	return nil
}

func (s *tree) EndFrontPage(*content.FrontPage) error {
	if s.split {
		return s.write(s.page)
	}
	return s.err
}

func (s *tree) BeginTopic(t *content.Topic) error {
	if !s.split {
		s.closers, s.kinds, s.lists, s.tables, s.cell = nil, nil, nil, nil, 0
		return nil
	}
	m := topicMatter{
		Title:    t.Title(),
		TopicID:  t.ID,
		Category: t.Category,
		Prefix:   t.Prefix,
		Suffix:   t.Suffix,
		Order:    t.Seq,
	}
	if t.Parent != nil {
		m.Parent = t.Parent.ID
	}
	s.newPage(s.files[t.Seq], m)
	s.breadcrumbs(t)
	return nil
}

func (s *tree) EndTopic(t *content.Topic) error {
	if !s.split {
		return s.err
	}
	if s.indexEverywhere {
		w := s.page.w
		w.blank()
		w.inline("---")
		w.blank()
		s.index(s.front.Roots, t, 0)
	}
	return s.write(s.page)
}

func (s *tree) breadcrumbs(t *content.Topic) {
	var chain []*content.Topic
	for p := t.Parent; p != nil; p = p.Parent {
		chain = append([]*content.Topic{p}, chain...)
	}
	w := s.page.w
	w.inline("[" + escape(s.front.Title) + "](" + destination(s.rel(indexFile)) + ")")
	for _, p := range chain {
		w.inline(" › [" + escape(p.Title()) + "](" + destination(s.rel(s.files[p.Seq])) + ")")
	}
	w.blank()
}

// index writes nested list of all topics, current one is not linked.
func (s *tree) index(topics []*content.Topic, current *content.Topic, depth int) {
	w := s.page.w
	for _, t := range topics {
		w.endLine()
		w.inline(strings.Repeat("  ", depth) + "- ")
		if t == current {
			w.inline("**" + escape(t.Title()) + "**")
		} else {
			w.inline("[" + escape(t.Title()) + "](" + destination(s.rel(s.files[t.Seq])) + ")")
		}
		s.index(t.Children, current, depth+1)
	}
	w.endLine()
}

func (s *tree) write(p *page) error {
	if s.err != nil {
		return s.err
	}
	full := filepath.Join(s.dst, filepath.FromSlash(p.name))
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return &content.IoError{Path: full, Err: err}
	}
	p.w.endLine()
	if err := os.WriteFile(full, []byte(p.w.String()), 0644); err != nil {
		return &content.IoError{Path: full, Err: err}
	}
	s.pages++
	return nil
}

// rel returns target (relative to destination) as seen from current page.
func (s *tree) rel(target string) string {
	from := path.Dir(s.page.name)
	if from == "." {
		return target
	}
	r, err := filepath.Rel(filepath.FromSlash(from), filepath.FromSlash(target))
	if err != nil {
		return target
	}
	return filepath.ToSlash(r)
}

// href returns link target for topic.
func (s *tree) href(id string) (string, bool) {
	t, ok := s.front.Lookup(id)
	if !ok {
		return "", false
	}
	if !s.split {
		return "#" + id, true
	}
	return s.rel(s.files[t.Seq]), true
}

func (s *tree) Heading(level int, text, anchor string) {
	if text == "" {
		return
	}
	w := s.page.w
	if s.cell > 0 {
		w.inline("**" + escape(text) + "** ")
		return
	}
	w.blank()
	line := heading(level)
	if anchor != "" && !s.split {
		line += `<a id="` + anchor + `"></a>`
	}
	w.inline(line + escape(text))
	w.blank()
}

// block starts block level element, inside table cells blocks are
// separated by line breaks instead.
func (s *tree) block() {
	w := s.page.w
	if s.cell > 0 {
		if !w.fresh {
			w.inline("<br>")
		}
		return
	}
	w.blank()
}

func (s *tree) endBlock() {
	if s.cell == 0 {
		s.page.w.blank()
	}
}

func (s *tree) push(closer func()) {
	s.closers = append(s.closers, closer)
}

func (s *tree) Open(el *content.Element) {
	w := s.page.w
	var parent content.ElementKind = -1
	if n := len(s.kinds); n > 0 {
		parent = s.kinds[n-1]
	}
	s.kinds = append(s.kinds, el.Kind)

	switch el.Kind {
	case content.ElementParagraph:
		s.block()
		if parent != content.ElementListItem {
			s.push(s.endBlock)
			return
		}
		// keeps list tight
		s.push(func() {
			if s.cell == 0 {
				w.endLine()
			}
		})

	case content.ElementBlock:
		if el.Style == content.StyleNone || s.cell > 0 {
			s.block()
			s.push(s.endBlock)
			return
		}
		w.blank()
		w.inline(`<div class="` + el.Style.String() + `">`)
		w.blank()
		s.push(func() {
			w.blank()
			w.inline("</div>")
			w.blank()
		})

	case content.ElementHeading:
		s.block()
		if s.cell == 0 {
			w.inline(heading(el.Level))
		}
		s.push(s.endBlock)

	case content.ElementSpan:
		open, end := "", ""
		switch {
		case el.Style != content.StyleNone:
			open, end = `<span class="`+el.Style.String()+`">`, "</span>"
		case !el.CSS.IsZero():
			open, end = `<span style="`+el.CSS.Declarations()+`">`, "</span>"
		}
		w.inline(open)
		s.push(func() { w.inline(end) })

	case content.ElementBold, content.ElementLabel:
		s.inline(w, "**", "**")
	case content.ElementItalic:
		s.inline(w, "*", "*")
	case content.ElementUnderline:
		s.inline(w, "<u>", "</u>")

	case content.ElementList, content.ElementOrderedList:
		if s.cell > 0 {
			s.push(func() {})
			return
		}
		if len(s.lists) == 0 {
			w.blank()
		} else {
			w.endLine()
		}
		s.lists = append(s.lists, list{ordered: el.Kind == content.ElementOrderedList})
		s.push(func() {
			s.lists = s.lists[:len(s.lists)-1]
			if len(s.lists) == 0 {
				w.blank()
			} else {
				w.endLine()
			}
		})

	case content.ElementListItem:
		if s.cell > 0 || len(s.lists) == 0 {
			s.block()
			s.push(s.endBlock)
			return
		}
		l := &s.lists[len(s.lists)-1]
		l.n++
		marker := "- "
		if l.ordered {
			marker = strconv.Itoa(l.n) + ". "
		}
		w.endLine()
		w.inline(marker)
		w.push(strings.Repeat(" ", len(marker)))
		w.fresh = true
		s.push(func() {
			w.endLine()
			w.pop()
			w.fresh = false
		})

	case content.ElementTable:
		if s.cell > 0 {
			s.push(func() {})
			return
		}
		w.blank()
		s.tables = append(s.tables, table{})
		s.push(func() {
			s.tables = s.tables[:len(s.tables)-1]
			w.blank()
		})

	case content.ElementRow:
		if s.cell > 0 || len(s.tables) == 0 {
			s.push(func() {})
			return
		}
		tb := &s.tables[len(s.tables)-1]
		tb.cells = 0
		w.endLine()
		w.inline("|")
		s.push(func() {
			w.endLine()
			if tb.rows == 0 {
				w.inline("|" + strings.Repeat(" --- |", max(tb.cells, 1)))
				w.endLine()
			}
			tb.rows++
		})

	case content.ElementCell, content.ElementHeaderCell:
		if len(s.tables) == 0 {
			s.push(func() {})
			return
		}
		s.cell++
		w.inline(" ")
		w.fresh = true
		s.push(func() {
			s.cell--
			w.fresh = false
			w.inline(" |")
			s.tables[len(s.tables)-1].cells++
		})

	case content.ElementBreak:
		if s.cell > 0 {
			w.inline("<br>")
		} else if !w.bol {
			w.inline(`\`)
			w.endLine()
		}
		s.push(func() {})

	case content.ElementHyperlink:
		w.inline("[")
		href := el.Href
		s.push(func() {
			w.inline("](" + destination(href) + ")")
		})

	default:
		s.push(func() {})
	}
}

func (s *tree) inline(w *writer, open, end string) {
	w.inline(open)
	s.push(func() { w.inline(end) })
}

func (s *tree) Close(*content.Element) {
	n := len(s.closers)
	if n == 0 {
		return
	}
	closer := s.closers[n-1]
	s.closers, s.kinds = s.closers[:n-1], s.kinds[:n-1]
	closer()
}

func (s *tree) Text(text string) {
	s.page.w.inline(escape(text))
}

func (s *tree) Link(text, topicID string) {
	href, ok := s.href(topicID)
	if !ok {
		s.Text(text)
		return
	}
	s.page.w.inline("[" + escape(text) + "](" + destination(href) + ")")
}

// asset writes file under assets directory once and returns its address
// relative to the current page.
func (s *tree) asset(name string, data []byte) string {
	rel := s.rel(path.Join(assetsDir, name))
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

func (s *tree) Image(img *content.Image) {
	w := s.page.w
	src := s.asset(img.Asset.FileName(), img.Asset.Data)
	s.block()
	w.inline("![" + escape(img.Name) + "](" + destination(src) + ")")
	s.endBlock()
	if len(img.Pins) == 0 || s.cell > 0 {
		return
	}

	for _, pin := range img.Pins {
		w.endLine()
		w.inline("- ")
		if href, ok := s.href(pin.TopicID); ok {
			w.inline("[" + escape(pin.Name) + "](" + destination(href) + ")")
		} else {
			w.inline("**" + escape(pin.Name) + "**")
		}
		if pin.Description != "" {
			w.inline(": " + escape(pin.Description))
		}
		if pin.GMDirections != "" {
			w.inline(` <span class="` + content.StyleGMDirections.String() + `">` + escape(pin.GMDirections) + "</span>")
		}
	}
	w.blank()
}

func (s *tree) External(e *content.External) {
	w := s.page.w
	href := e.URL
	if len(e.Data) > 0 {
		href = s.asset(e.FileName(), e.Data)
	}
	s.block()
	if href != "" {
		w.inline("[" + escape(e.Name) + "](" + destination(href) + ")")
	} else {
		w.inline("**" + escape(e.Name) + "**")
	}
	w.inline(" *(" + escape(e.Description()) + ")*")
	s.endBlock()
}
