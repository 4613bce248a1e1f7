package content

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"golang.org/x/text/language"

	"rwout/rw"
)

var errDiskFull = errors.New("disk full")

// recorder is a sink remembering every call as a line of text.
type recorder struct {
	events    []string
	front     *FrontPage
	images    []*Image
	externals []*External
	failOn    string
}

func (r *recorder) add(format string, args ...any) {
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recorder) BeginFrontPage(fp *FrontPage) error {
	r.front = fp
	r.add("begin-front")
	return nil
}

func (r *recorder) EndFrontPage(*FrontPage) error {
	r.add("end-front")
	return nil
}

func (r *recorder) BeginTopic(t *Topic) error {
	r.add("begin-topic %s", t.ID)
	if t.ID == r.failOn {
		return errDiskFull
	}
	return nil
}

func (r *recorder) EndTopic(t *Topic) error {
	r.add("end-topic %s", t.ID)
	return nil
}

func (r *recorder) Heading(level int, text, anchor string) {
	r.add("h%d %s #%s", level, text, anchor)
}

func elementName(el *Element) string {
	name := el.Kind.String()
	if el.Style != StyleNone {
		name += "." + el.Style.String()
	}
	return name
}

func (r *recorder) Open(el *Element)  { r.add("<%s>", elementName(el)) }
func (r *recorder) Close(el *Element) { r.add("</%s>", elementName(el)) }
func (r *recorder) Text(s string)     { r.add("text %s", s) }

func (r *recorder) Link(text, topicID string) {
	r.add("link %s -> %s", text, topicID)
}

func (r *recorder) Image(img *Image) {
	r.images = append(r.images, img)
	r.add("image %s", img.Name)
}

func (r *recorder) External(obj *External) {
	r.externals = append(r.externals, obj)
	r.add("external %s", obj.Name)
}

func (r *recorder) String() string {
	return strings.Join(r.events, "\n")
}

// has reports whether seq appears in recorded events as contiguous run.
func (r *recorder) has(seq ...string) bool {
	for i := 0; i+len(seq) <= len(r.events); i++ {
		match := true
		for j, s := range seq {
			if r.events[i+j] != s {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func (r *recorder) count(event string) int {
	n := 0
	for _, e := range r.events {
		if e == event {
			n++
		}
	}
	return n
}

func testLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
}

func campaign(topics string) string {
	return `<export format_version="4">
<definition><details name="Lost Mine" export_date="2024-05-01"><summary>Short summary.</summary></details></definition>
<contents>` + topics + `</contents></export>`
}

func loadTree(t *testing.T, src string) *rw.Tree {
	t.Helper()
	tree, err := rw.Load(context.Background(), strings.NewReader(src), testLogger(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return tree
}

func defaultOptions() Options {
	return Options{Language: language.English, UseRevealMask: true}
}

func record(t *testing.T, src string, opts Options, log *zap.Logger) *recorder {
	t.Helper()
	rec := &recorder{}
	if err := Render(context.Background(), loadTree(t, src), rec, opts, log); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return rec
}
