package content

import (
	"path"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"

	"rwout/rw"
	"rwout/utils/images"
)

// Sink receives content of a single render call. Traversal is shared by all
// output formats, each format only supplies its sink. Begin/End calls bracket
// units of output (front page, topics) and are the only places where sink is
// expected to perform I/O, so only they may fail.
type Sink interface {
	BeginFrontPage(fp *FrontPage) error
	EndFrontPage(fp *FrontPage) error
	BeginTopic(t *Topic) error
	EndTopic(t *Topic) error

	// Heading starts titled part of output. Level starts with 1, anchor is
	// not empty for topic headings and holds topic id.
	Heading(level int, text, anchor string)
	Open(el *Element)
	Close(el *Element)
	Text(s string)
	// Link references another topic. Sinks render plain text when topic is
	// not part of the export.
	Link(text, topicID string)
	Image(img *Image)
	External(obj *External)
}

// Topic is a node of the ordered topic hierarchy.
type Topic struct {
	ID       string
	Name     string
	Prefix   string
	Suffix   string
	Category string
	// Depth is zero for top level topics.
	Depth int
	// Seq is the position of the topic in depth first traversal, starting
	// with 1.
	Seq      int
	Parent   *Topic
	Children []*Topic
	Node     *rw.Node
}

// Title returns name decorated with prefix and suffix.
func (t *Topic) Title() string {
	title := t.Name
	if t.Prefix != "" {
		title = t.Prefix + " - " + title
	}
	if t.Suffix != "" {
		title += " (" + t.Suffix + ")"
	}
	return title
}

// FrontPage carries campaign metadata together with the ordered topic index.
type FrontPage struct {
	Title      string
	ExportDate string
	// Generated is zero when no stamp was requested.
	Generated time.Time
	// Roots are top level topics, All lists every topic in traversal order.
	Roots []*Topic
	All   []*Topic

	byID map[string]*Topic
}

// Lookup finds topic by id.
func (fp *FrontPage) Lookup(id string) (*Topic, bool) {
	t, ok := fp.byID[id]
	return t, ok
}

// ElementKind is a closed set of content containers.
type ElementKind int

const (
	ElementParagraph ElementKind = iota
	ElementBlock
	ElementSpan
	ElementBold
	ElementItalic
	ElementUnderline
	ElementList
	ElementOrderedList
	ElementListItem
	ElementTable
	ElementRow
	ElementCell
	ElementHeaderCell
	ElementBreak
	ElementLabel
	ElementHyperlink
	ElementHeading
)

var elementNames = [...]string{
	"paragraph", "block", "span", "bold", "italic", "underline", "list",
	"ordered-list", "list-item", "table", "row", "cell", "header-cell",
	"break", "label", "hyperlink", "heading",
}

func (k ElementKind) String() string {
	if int(k) < len(elementNames) {
		return elementNames[k]
	}
	return "unknown"
}

// Inline reports whether element lives inside paragraph text flow.
func (k ElementKind) Inline() bool {
	switch k {
	case ElementSpan, ElementBold, ElementItalic, ElementUnderline, ElementBreak, ElementLabel, ElementHyperlink:
		return true
	}
	return false
}

// Style is a named visual style of the content.
type Style int

const (
	StyleNone Style = iota
	StyleReadAloud
	StyleHandout
	StyleFlavor
	StyleCallout
	StyleGMDirections
	StyleAnnotation
	StyleStatblock
)

var styleNames = [...]string{"", "read-aloud", "handout", "flavor", "callout", "gm-directions", "annotation", "statblock"}

// String returns style name suitable for class attributes.
func (s Style) String() string {
	if int(s) < len(styleNames) {
		return styleNames[s]
	}
	return ""
}

// ParseStyle recognizes predefined style names as used by snippet style
// attribute and by class names of exported markup.
func ParseStyle(name string) Style {
	switch strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(name)) {
	case "readaloud", "rwreadaloud":
		return StyleReadAloud
	case "handout", "rwhandout":
		return StyleHandout
	case "flavor", "rwflavor":
		return StyleFlavor
	case "callout", "rwcallout":
		return StyleCallout
	}
	return StyleNone
}

// Element describes container opened by the traversal. The same value is
// passed to matching Close call.
type Element struct {
	Kind  ElementKind
	Style Style
	// Class is the class attribute of the source markup.
	Class string
	CSS   Props
	// Href is set for hyperlinks to external resources.
	Href string
	// Level is set for headings inside rich text.
	Level int
}

// Pin is a point of interest on a smart image, coordinates are already
// scaled to the adapted image.
type Pin struct {
	Name         string
	TopicID      string
	Description  string
	GMDirections string
	X, Y         int
}

// Image is an adapted picture with optional pins.
type Image struct {
	Asset *images.Adapted
	// Name is the original file name.
	Name string
	Pins []Pin
}

// External is an object which is not rendered inline: packaged file or
// download link.
type External struct {
	Type rw.SnippetType
	Name string
	Data []byte
	Key  string
	MIME string
	// URL is set for objects referenced by address instead of embedded.
	URL string
	// Pages is set for PDF documents.
	Pages int
}

// FileName returns deterministic file name for packaged data.
func (e *External) FileName() string {
	ext := strings.ToLower(path.Ext(e.Name))
	if ext == "" {
		ext = ".bin"
	}
	return e.Key + ext
}

// Description returns short human readable description of the object.
func (e *External) Description() string {
	var sb strings.Builder
	sb.WriteString(e.Type.String())
	if e.Pages > 0 {
		sb.WriteString(", ")
		sb.WriteString(english.Plural(e.Pages, "page", ""))
	}
	if len(e.Data) > 0 {
		sb.WriteString(", ")
		sb.WriteString(humanize.Bytes(uint64(len(e.Data))))
	}
	return sb.String()
}
