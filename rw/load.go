package rw

import (
	"context"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

// binaryFields lists elements which text is base64 encoded payload, keyed by
// parent tag.
var binaryFields = map[string][]string{
	"asset":       {"contents", "thumbnail", "summary"},
	"smart_image": {"subset_mask", "superset_mask"},
	"details":     {"cover_art"},
}

func isBinaryField(parent, tag string) bool {
	for _, t := range binaryFields[parent] {
		if t == tag {
			return true
		}
	}
	return false
}

type frame struct {
	node *Node
	text strings.Builder
}

// loader keeps state of a single Load call.
type loader struct {
	dec   *xml.Decoder
	stack []*frame
	log   *zap.Logger
}

// Load reads campaign export from the stream and builds the tree. Only
// stream level problems are reported as errors (*LoadError), missing
// sections are detected later by renderers.
func Load(ctx context.Context, r io.Reader, log *zap.Logger) (*Tree, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	dec.Entity = xml.HTMLEntity

	l := &loader{dec: dec, log: log}

	var root *Node
	for count := 0; ; count++ {
		if count%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, l.errorf(err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if len(l.stack) >= MaxDepth {
				return nil, &StructuralError{Path: l.path(), Msg: fmt.Sprintf("element nesting exceeds %d levels", MaxDepth)}
			}
			n := NewElement(t.Name.Local)
			n.Line, n.Col = dec.InputPos()
			for _, a := range t.Attr {
				n.SetAttr(a.Name.Local, a.Value)
			}
			if len(l.stack) == 0 {
				if root != nil {
					return nil, l.errorf(errors.New("more than one root element"))
				}
				root = n
			} else {
				top := l.top()
				l.flush(top)
				top.node.Append(n)
			}
			l.stack = append(l.stack, &frame{node: n})
		case xml.EndElement:
			if len(l.stack) == 0 {
				return nil, l.errorf(fmt.Errorf("unexpected end element %q", t.Name.Local))
			}
			l.flush(l.top())
			l.stack = l.stack[:len(l.stack)-1]
		case xml.CharData:
			if len(l.stack) > 0 {
				l.top().text.Write(t)
			}
		}
	}
	if root == nil {
		return nil, l.errorf(errors.New("no root element"))
	}
	if len(l.stack) != 0 {
		return nil, l.errorf(io.ErrUnexpectedEOF)
	}
	return &Tree{Root: root}, nil
}

func (l *loader) top() *frame {
	return l.stack[len(l.stack)-1]
}

func (l *loader) parentTag() string {
	if len(l.stack) < 2 {
		return ""
	}
	return l.stack[len(l.stack)-2].node.Tag
}

func (l *loader) path() string {
	parts := make([]string, 0, len(l.stack))
	for _, f := range l.stack {
		parts = append(parts, f.node.Tag)
	}
	return strings.Join(parts, "/")
}

func (l *loader) errorf(err error) error {
	line, col := l.dec.InputPos()
	return &LoadError{Line: line, Col: col, Err: err}
}

// flush converts text accumulated for the element on top of the stack into
// leaf children.
func (l *loader) flush(f *frame) {
	text := f.text.String()
	f.text.Reset()
	if isBlank(text) {
		return
	}

	n := f.node
	switch {
	case isBinaryField(l.parentTag(), n.Tag):
		data, err := base64.StdEncoding.DecodeString(normalizeBase64(text))
		if err != nil {
			var corruptErr base64.CorruptInputError
			if errors.As(err, &corruptErr) && len(data) > 0 {
				l.log.Warn("Unable to fully decode binary", zap.String("path", l.path()), zap.Int("line", n.Line), zap.Error(err))
			} else {
				l.log.Warn("Unable to decode binary, ignoring", zap.String("path", l.path()), zap.Int("line", n.Line), zap.Error(err))
				return
			}
		}
		n.Append(NewBinary(data))
	case strings.HasPrefix(strings.TrimLeftFunc(text, unicode.IsSpace), "<"):
		nodes, err := ParseHTML(text)
		if err != nil {
			l.log.Warn("Unable to parse embedded markup, keeping as text", zap.String("path", l.path()), zap.Int("line", n.Line), zap.Error(err))
			n.Append(NewText(text))
			return
		}
		for _, c := range nodes {
			n.Append(c)
		}
	default:
		n.Append(NewText(strings.TrimSpace(text)))
	}
}

func normalizeBase64(input string) string {
	var builder strings.Builder
	builder.Grow(len(input))
	for _, r := range input {
		if !unicode.IsSpace(r) {
			builder.WriteRune(r)
		}
	}
	return builder.String()
}
