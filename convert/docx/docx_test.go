package docx

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fumiama/go-docx"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"golang.org/x/text/language"

	"rwout/content"
	"rwout/rw"
)

const campaign = `<export format_version="4">
<definition><details name="Lost Mine" export_date="2024-05-01"><summary>Short summary.</summary></details></definition>
<contents>
<topic topic_id="t1" public_name="Inn">
  <linkage target_id="t2" target_name="Bob" direction="Outbound"/>
  <section partition_name="Overview">
    <snippet type="Multi_Line"><contents>A cozy inn.</contents></snippet>
    <snippet type="Multi_Line" style="Read_Aloud"><contents>&lt;p&gt;Ask &lt;span&gt;bob&lt;/span&gt; for &lt;b&gt;ale&lt;/b&gt;&lt;/p&gt;&lt;ul&gt;&lt;li&gt;one&lt;/li&gt;&lt;li&gt;two&lt;/li&gt;&lt;/ul&gt;</contents></snippet>
    <snippet type="Numeric" facet_name="Rooms"><contents>12</contents></snippet>
    <snippet type="Audio"><ext_object name="theme" url="https://example.com/theme.mp3"/></snippet>
  </section>
  <topic topic_id="t2" public_name="Bob"/>
</topic>
</contents></export>`

func testLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
}

func session(t *testing.T, src string) *content.Session {
	t.Helper()
	log := testLogger(t)
	tree, err := rw.Load(context.Background(), strings.NewReader(src), log)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	opts := content.Options{
		Language:      language.English,
		UseRevealMask: true,
		Now:           func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) },
	}
	s, err := content.NewSession(tree, opts, log)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	return s
}

// paragraphs returns text of every paragraph of the produced document.
func paragraphs(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		t.Fatal(err)
	}
	doc, err := docx.Parse(f, fi.Size())
	if err != nil {
		t.Fatalf("docx.Parse() error = %v", err)
	}

	var res []string
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		var sb strings.Builder
		for _, child := range para.Children {
			run, ok := child.(*docx.Run)
			if !ok {
				continue
			}
			for _, rc := range run.Children {
				if t, ok := rc.(*docx.Text); ok {
					sb.WriteString(t.Text)
				}
			}
		}
		res = append(res, sb.String())
	}
	return res
}

func TestGenerate(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "out", "campaign.docx")
	if err := New(testLogger(t)).Generate(context.Background(), session(t, campaign), dst); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	got := strings.Join(paragraphs(t, dst), "\n")
	for _, want := range []string{
		"Lost Mine",
		"Exported: 2024-05-01",
		"Generated on: 2025-01-02 03:04:05",
		"Inn",
		"Overview",
		"A cozy inn.",
		"Ask bob for ale",
		"• one",
		"• two",
		"Rooms: 12",
		"Bob",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("document misses %q:\n%s", want, got)
		}
	}
}

func TestGenerate_PreservesEdgeSpaces(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "campaign.docx")
	if err := New(testLogger(t)).Generate(context.Background(), session(t, campaign), dst); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	f, err := os.Open(dst)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		t.Fatal(err)
	}
	doc, err := docx.Parse(f, fi.Size())
	if err != nil {
		t.Fatalf("docx.Parse() error = %v", err)
	}

	var spaced []*docx.Text
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		for _, child := range para.Children {
			run, ok := child.(*docx.Run)
			if !ok {
				continue
			}
			for _, rc := range run.Children {
				if txt, ok := rc.(*docx.Text); ok && strings.TrimSpace(txt.Text) != txt.Text {
					spaced = append(spaced, txt)
				}
			}
		}
	}
	if len(spaced) == 0 {
		t.Fatal("no text with edge spaces, label separator expected")
	}
	for _, txt := range spaced {
		if txt.XMLSpace != "preserve" {
			t.Errorf("text %q is not space preserved", txt.Text)
		}
	}
}

func TestGenerate_Idempotent(t *testing.T) {
	dir := t.TempDir()
	var texts [2]string
	for i := range texts {
		dst := filepath.Join(dir, "campaign.docx")
		if err := New(testLogger(t)).Generate(context.Background(), session(t, campaign), dst); err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		texts[i] = strings.Join(paragraphs(t, dst), "\n")
	}
	if texts[0] != texts[1] {
		t.Error("repeated render produced different documents")
	}
}

func TestGenerate_IoError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}
	err := New(testLogger(t)).Generate(context.Background(), session(t, campaign), filepath.Join(blocker, "campaign.docx"))
	var ioErr *content.IoError
	if !errors.As(err, &ioErr) {
		t.Fatalf("expected *content.IoError, got %v", err)
	}
}

func TestWriter_Formats(t *testing.T) {
	tests := []struct {
		style content.Style
		props content.Props
		want  format
	}{
		{content.StyleReadAloud, content.Props{}, format{italic: true, shade: "DEEAF6"}},
		{content.StyleNone, content.Props{Bold: true, Color: "#f00"}, format{bold: true, color: "FF0000"}},
		{content.StyleGMDirections, content.Props{Background: "red"}, format{color: gmColor}},
	}
	for _, tt := range tests {
		var f format
		applyStyle(tt.style, &f)
		applyProps(tt.props, &f)
		if f != tt.want {
			t.Errorf("format(%v, %+v) = %+v, want %+v", tt.style, tt.props, f, tt.want)
		}
	}

	if headingSize(0) != "40" || headingSize(9) != "22" {
		t.Error("heading sizes must be clamped")
	}
}
