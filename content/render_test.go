package content

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"rwout/rw"
)

func pngBase64(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}
	img.Set(0, 0, color.Black)
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		t.Fatal(err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func zipBase64(t *testing.T, files map[string]string) string {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	for name, content := range files {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write([]byte(content))
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestRender_ScenarioA(t *testing.T) {
	rec := record(t, campaign(`
<topic topic_id="t1" public_name="Inn">
  <section partition_name="Overview">
    <snippet type="Multi_Line"><contents>A cozy inn.</contents></snippet>
  </section>
</topic>`), defaultOptions(), testLogger(t))

	want := []string{
		"begin-topic t1",
		"h1 Inn #t1",
		"h2 Overview #",
		"<paragraph>",
		"text A cozy inn.",
		"</paragraph>",
		"end-topic t1",
	}
	if !rec.has(want...) {
		t.Errorf("unexpected events:\n%s", rec)
	}
}

func TestRender_FrontPage(t *testing.T) {
	opts := defaultOptions()
	opts.Now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

	rec := record(t, campaign(`<topic topic_id="t1" public_name="Inn"/>`), opts, testLogger(t))

	want := []string{
		"begin-front",
		"h1 Lost Mine #",
		"<paragraph>", "<label>", "text Exported:", "</label>", "text  ", "text 2024-05-01", "</paragraph>",
		"<paragraph>", "<label>", "text Generated on:", "</label>", "text  ", "text 2025-01-02 03:04:05", "</paragraph>",
		"h2 Summary #",
		"<paragraph>", "text Short summary.", "</paragraph>",
		"h2 Contents #",
	}
	if !rec.has(want...) {
		t.Errorf("unexpected front page:\n%s", rec)
	}
	if rec.front.Title != "Lost Mine" || rec.front.ExportDate != "2024-05-01" {
		t.Errorf("front page = %+v", rec.front)
	}
	if tp, ok := rec.front.Lookup("t1"); !ok || tp.Name != "Inn" {
		t.Error("topic lookup failed")
	}
}

func TestRender_AliasesAndNestedSections(t *testing.T) {
	rec := record(t, campaign(`
<topic topic_id="t1" public_name="Bob" suffix="NPC">
  <alias name="Robert"/><alias name="Bobby"/>
  <section partition_name="Outer">
    <section partition_name="Inner">
      <snippet type="Multi_Line"><contents>deep</contents></snippet>
    </section>
  </section>
  <topic topic_id="t2" public_name="Hat">
    <section partition_name="Look"/>
  </topic>
</topic>`), defaultOptions(), testLogger(t))

	if !rec.has("h1 Bob (NPC) #t1", "<paragraph>", "<label>", "text Aliases:", "</label>", "text  ", "text Robert, Bobby", "</paragraph>") {
		t.Errorf("aliases not rendered:\n%s", rec)
	}
	if !rec.has("h2 Outer #", "h3 Inner #") {
		t.Errorf("nested section levels wrong:\n%s", rec)
	}
	if !rec.has("h2 Hat #t2", "h3 Look #") {
		t.Errorf("child topic levels wrong:\n%s", rec)
	}
}

func TestRender_SpanElision(t *testing.T) {
	rec := record(t, campaign(`
<topic topic_id="t1" public_name="Inn">
  <section partition_name="S">
    <snippet type="Multi_Line"><contents>&lt;p&gt;&lt;span&gt;plain&lt;/span&gt;&lt;span class="Read_Aloud" style="font-weight:bold"&gt;styled&lt;/span&gt;&lt;/p&gt;</contents></snippet>
  </section>
</topic>`), defaultOptions(), testLogger(t))

	if !rec.has("<paragraph>", "text plain", "<span.read-aloud>", "text styled", "</span.read-aloud>", "</paragraph>") {
		t.Errorf("bare span must be elided, styled one kept:\n%s", rec)
	}
	if rec.count("<span>") != 0 {
		t.Errorf("no-op span wrapper emitted:\n%s", rec)
	}
}

func TestRender_TagAssignSkipped(t *testing.T) {
	rec := record(t, campaign(`
<topic topic_id="t1" public_name="Inn">
  <section partition_name="S">
    <snippet type="Multi_Line"><contents>&lt;p&gt;before&lt;tag_assign tag_name="secret"&gt;hidden&lt;/tag_assign&gt;after&lt;/p&gt;</contents></snippet>
  </section>
</topic>`), defaultOptions(), testLogger(t))

	if strings.Contains(rec.String(), "hidden") {
		t.Errorf("tag_assign content rendered:\n%s", rec)
	}
	if !rec.has("text before", "text after") {
		t.Errorf("paragraph text lost:\n%s", rec)
	}
}

func TestRender_SnippetStyleAndGMDirections(t *testing.T) {
	rec := record(t, campaign(`
<topic topic_id="t1" public_name="Inn">
  <section partition_name="S">
    <snippet type="Multi_Line" style="Read_Aloud">
      <gm_directions>Roll initiative.</gm_directions>
      <contents>You enter.</contents>
    </snippet>
  </section>
</topic>`), defaultOptions(), testLogger(t))

	want := []string{
		"<block.read-aloud>",
		"<block.gm-directions>", "<paragraph>", "text Roll initiative.", "</paragraph>", "</block.gm-directions>",
		"<paragraph>", "text You enter.", "</paragraph>",
		"</block.read-aloud>",
	}
	if !rec.has(want...) {
		t.Errorf("unexpected events:\n%s", rec)
	}
}

func TestRender_Values(t *testing.T) {
	rec := record(t, campaign(`
<topic topic_id="t1" public_name="Inn">
  <section partition_name="S">
    <snippet type="Date_Game" facet_name="Founded"><game_date display="12 Mirtul 1492"/></snippet>
    <snippet type="Date_Range" label="Open"><date_range display_start="Spring" display_end="Autumn"/></snippet>
    <snippet type="Tag_Standard" facet_name="Tags"><tag_assign tag_name="Tavern"/><tag_assign tag_name="Safe"/></snippet>
    <snippet type="Tag_Multi_Domain" facet_name="Owners"><tag_assign domain_name="Guild" tag_name="Brewers"/><tag_assign domain_name="Family" tag_name="Stone"/></snippet>
    <snippet type="Numeric" facet_name="Rooms"><contents>12</contents></snippet>
  </section>
</topic>`), defaultOptions(), testLogger(t))

	for _, want := range [][]string{
		{"<label>", "text Founded:", "</label>", "text  ", "text 12 Mirtul 1492"},
		{"<label>", "text Open:", "</label>", "text  ", "text From: Spring To: Autumn"},
		{"<label>", "text Tags:", "</label>", "text  ", "text Tavern, Safe"},
		{"<label>", "text Owners:", "</label>", "text  ", "text Guild:Brewers; Family:Stone"},
		{"<label>", "text Rooms:", "</label>", "text  ", "text 12"},
	} {
		if !rec.has(want...) {
			t.Errorf("missing %v:\n%s", want, rec)
		}
	}
}

// Label and value move inside the first paragraph of the annotation for
// every single value snippet type.
func TestRender_AnnotationLabelRule(t *testing.T) {
	for _, snippet := range []string{
		`<snippet type="Numeric" facet_name="Rooms"><contents>12</contents><annotation>&lt;p&gt;mostly empty&lt;/p&gt;&lt;p&gt;second&lt;/p&gt;</annotation></snippet>`,
		`<snippet type="Date_Game" facet_name="Rooms"><game_date display="12"/><annotation>mostly empty</annotation></snippet>`,
		`<snippet type="Tag_Standard" facet_name="Rooms"><tag_assign tag_name="12"/><annotation>&lt;p&gt;mostly empty&lt;/p&gt;</annotation></snippet>`,
	} {
		rec := record(t, campaign(`<topic topic_id="t1" public_name="Inn"><section partition_name="S">`+snippet+`</section></topic>`),
			defaultOptions(), testLogger(t))

		want := []string{
			"<block.annotation>", "<paragraph>",
			"<label>", "text Rooms:", "</label>", "text  ", "text 12 ",
			"text mostly empty", "</paragraph>",
		}
		if !rec.has(want...) {
			t.Errorf("label not injected into annotation:\n%s", rec)
		}
	}

	// annotation starting with a list gets its own label paragraph
	rec := record(t, campaign(`<topic topic_id="t1" public_name="Inn"><section partition_name="S">
<snippet type="Numeric" facet_name="Rooms"><contents>12</contents><annotation>&lt;ul&gt;&lt;li&gt;one&lt;/li&gt;&lt;/ul&gt;</annotation></snippet>
</section></topic>`), defaultOptions(), testLogger(t))
	if !rec.has("<block.annotation>", "<paragraph>", "<label>", "text Rooms:", "</label>", "text  ", "text 12 ", "</paragraph>", "<list>") {
		t.Errorf("label paragraph not opened:\n%s", rec)
	}
}

func TestRender_LabeledText(t *testing.T) {
	rec := record(t, campaign(`
<topic topic_id="t1" public_name="Inn">
  <section partition_name="S">
    <snippet type="Labeled_Text" label="Owner"><contents>&lt;p&gt;Old &lt;b&gt;Tom&lt;/b&gt;&lt;/p&gt;</contents></snippet>
  </section>
</topic>`), defaultOptions(), testLogger(t))

	want := []string{
		"<paragraph>", "<label>", "text Owner:", "</label>", "text  ", "text Old ", "<bold>", "text Tom", "</bold>", "</paragraph>",
	}
	if !rec.has(want...) {
		t.Errorf("unexpected events:\n%s", rec)
	}
	if rec.count("<block.annotation>") != 0 {
		t.Errorf("annotation block without annotation:\n%s", rec)
	}
}

// Labeled text follows the same rule as single value snippets: with
// annotation present the label moves inside the annotation block.
func TestRender_LabeledTextWithAnnotation(t *testing.T) {
	rec := record(t, campaign(`
<topic topic_id="t1" public_name="Inn">
  <section partition_name="S">
    <snippet type="Labeled_Text" label="Owner"><contents>&lt;p&gt;Old &lt;b&gt;Tom&lt;/b&gt;&lt;/p&gt;</contents><annotation>since 1480</annotation></snippet>
  </section>
</topic>`), defaultOptions(), testLogger(t))

	want := []string{
		"<block.annotation>",
		"<paragraph>", "<label>", "text Owner:", "</label>", "text  ", "text Old ", "<bold>", "text Tom", "</bold>", "</paragraph>",
		"<paragraph>", "text since 1480", "</paragraph>",
		"</block.annotation>",
	}
	if !rec.has(want...) {
		t.Errorf("label not moved inside annotation:\n%s", rec)
	}
	if rec.has("</block.annotation>", "<block.annotation>") {
		t.Errorf("annotation rendered separately:\n%s", rec)
	}
}

func TestRender_StructuralErrors(t *testing.T) {
	tests := map[string]string{
		"no definition": `<export><contents/></export>`,
		"no details":    `<export><definition/><contents/></export>`,
		"no contents":   `<export><definition><details name="x"/></definition></export>`,
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			rec := &recorder{}
			err := Render(context.Background(), loadTree(t, src), rec, defaultOptions(), testLogger(t))
			var se *rw.StructuralError
			if !errors.As(err, &se) {
				t.Fatalf("expected *rw.StructuralError, got %v", err)
			}
			if len(rec.events) != 0 {
				t.Errorf("sink called before failure: %v", rec.events)
			}
		})
	}
}

func TestRender_DepthGuard(t *testing.T) {
	tree := loadTree(t, campaign(""))
	parent := tree.Contents()
	for range rw.MaxDepth + 2 {
		n := rw.NewElement("topic")
		n.SetAttr("public_name", "x")
		parent.Append(n)
		parent = n
	}
	err := Render(context.Background(), tree, &recorder{}, defaultOptions(), testLogger(t))
	var se *rw.StructuralError
	if !errors.As(err, &se) {
		t.Fatalf("expected *rw.StructuralError, got %v", err)
	}
}

func TestRender_ProgressAndCancel(t *testing.T) {
	src := campaign(`<topic topic_id="a" public_name="A"><topic topic_id="a1" public_name="A1"/></topic>
<topic topic_id="b" public_name="B"/><topic topic_id="c" public_name="C"/>`)

	var calls [][2]int
	opts := defaultOptions()
	opts.Progress = func(done, total int) { calls = append(calls, [2]int{done, total}) }
	record(t, src, opts, testLogger(t))
	if len(calls) != 3 || calls[0] != [2]int{1, 3} || calls[2] != [2]int{3, 3} {
		t.Errorf("progress calls = %v", calls)
	}

	ctx, cancel := context.WithCancel(context.Background())
	rec := &recorder{}
	opts.Progress = func(done, _ int) {
		if done == 1 {
			cancel()
		}
	}
	err := Render(ctx, loadTree(t, src), rec, opts, testLogger(t))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if rec.count("begin-topic a1") != 1 || rec.count("begin-topic b") != 0 {
		t.Errorf("cancellation must happen between topics:\n%s", rec)
	}
}

func TestRender_SinkError(t *testing.T) {
	rec := &recorder{failOn: "b"}
	err := Render(context.Background(), loadTree(t, campaign(`<topic topic_id="a" public_name="A"/><topic topic_id="b" public_name="B"/>`)),
		rec, defaultOptions(), testLogger(t))
	if !errors.Is(err, errDiskFull) {
		t.Fatalf("expected sink error, got %v", err)
	}
	if rec.count("end-topic a") != 1 {
		t.Error("earlier topic must be complete")
	}
}

// Image with mask of different size renders with a single warning.
func TestRender_ScenarioD(t *testing.T) {
	src := campaign(`
<topic topic_id="t1" public_name="Map">
  <section partition_name="S">
    <snippet type="Smart_Image">
      <smart_image name="Town">
        <asset filename="town.png"><contents>` + pngBase64(t, 40, 40) + `</contents></asset>
        <subset_mask>` + pngBase64(t, 20, 30) + `</subset_mask>
      </smart_image>
    </snippet>
  </section>
</topic>`)

	core, logs := observer.New(zapcore.WarnLevel)
	rec := record(t, src, defaultOptions(), zap.New(core))
	if logs.Len() != 1 {
		t.Errorf("expected exactly 1 warning, got %d: %v", logs.Len(), logs.All())
	}
	if len(rec.images) != 1 || !rec.images[0].Asset.Changed {
		t.Fatalf("masked image not rendered: %v", rec.images)
	}

	// without reveal mask image is passed through
	opts := defaultOptions()
	opts.UseRevealMask = false
	rec = record(t, src, opts, testLogger(t))
	if len(rec.images) != 1 || rec.images[0].Asset.Changed {
		t.Error("mask applied although disabled")
	}
}

func TestRender_SmartImagePins(t *testing.T) {
	src := campaign(`
<topic topic_id="t1" public_name="Map">
  <section partition_name="S">
    <snippet type="Smart_Image">
      <smart_image name="Town">
        <asset filename="town.png"><contents>` + pngBase64(t, 1000, 8) + `</contents></asset>
        <map_pin pin_name="Inn" topic_id="t2" x="400" y="6">
          <description>Best ale</description>
          <gm_directions>Trap door</gm_directions>
        </map_pin>
      </smart_image>
      <annotation>Town map</annotation>
    </snippet>
  </section>
</topic>`)

	opts := defaultOptions()
	opts.MaxImageWidth = 300
	rec := record(t, src, opts, testLogger(t))
	if len(rec.images) != 1 {
		t.Fatalf("images = %d", len(rec.images))
	}
	img := rec.images[0]
	if img.Asset.Divisor != 4 || img.Asset.Width != 250 {
		t.Errorf("divisor = %d, width = %d", img.Asset.Divisor, img.Asset.Width)
	}
	want := Pin{Name: "Inn", TopicID: "t2", Description: "Best ale", GMDirections: "Trap door", X: 100, Y: 1}
	if len(img.Pins) != 1 || img.Pins[0] != want {
		t.Errorf("pins = %+v, want %+v", img.Pins, want)
	}
	if !rec.has("image town.png", "<block.annotation>", "<paragraph>", "text Town map") {
		t.Errorf("annotation must follow image:\n%s", rec)
	}
}

func TestRender_PictureDedup(t *testing.T) {
	data := pngBase64(t, 4, 4)
	picture := `<snippet type="Picture"><ext_object name="p"><asset filename="p.png"><contents>` + data + `</contents></asset></ext_object></snippet>`
	tree := loadTree(t, campaign(`<topic topic_id="t1" public_name="A"><section partition_name="S">`+picture+picture+`</section></topic>`))

	s, err := NewSession(tree, defaultOptions(), testLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}
	if err := s.Render(context.Background(), rec); err != nil {
		t.Fatal(err)
	}
	if len(rec.images) != 2 || rec.images[0].Asset != rec.images[1].Asset {
		t.Error("equal pictures must share adapted asset")
	}
	if dump := s.String(); !strings.Contains(dump, `Topic["t1"]`) || !strings.Contains(dump, "Assets: 1") {
		t.Errorf("unexpected dump:\n%s", dump)
	}
}

func TestRender_Portfolio(t *testing.T) {
	data := zipBase64(t, map[string]string{
		"statblocks_html/goblin.html": `<html><head><title>x</title></head><body><p>Goblin <b>AC 15</b></p></body></html>`,
		"readme.txt":                  "not a statblock",
	})
	rec := record(t, campaign(`
<topic topic_id="t1" public_name="Foes">
  <section partition_name="S">
    <snippet type="Portfolio"><ext_object name="foes"><asset filename="foes.por"><contents>`+data+`</contents></asset></ext_object></snippet>
  </section>
</topic>`), defaultOptions(), testLogger(t))

	want := []string{
		"external foes.por",
		"<block.statblock>", "<paragraph>", "text Goblin ", "<bold>", "text AC 15", "</bold>", "</paragraph>", "</block.statblock>",
	}
	if !rec.has(want...) {
		t.Errorf("unexpected events:\n%s", rec)
	}
	if strings.Contains(rec.String(), "not a statblock") {
		t.Error("entries outside of statblocks rendered")
	}
}

func TestRender_CorruptPortfolio(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	rec := record(t, campaign(`
<topic topic_id="t1" public_name="Foes">
  <section partition_name="S">
    <snippet type="Portfolio"><ext_object name="foes"><asset filename="foes.por"><contents>`+base64.StdEncoding.EncodeToString([]byte("garbage"))+`</contents></asset></ext_object></snippet>
    <snippet type="Multi_Line"><contents>still here</contents></snippet>
  </section>
</topic>`), defaultOptions(), zap.New(core))

	if logs.Len() != 1 {
		t.Errorf("expected 1 warning, got %d", logs.Len())
	}
	if !rec.has("external foes.por") || !rec.has("text still here") {
		t.Errorf("rendering must continue:\n%s", rec)
	}
}

func TestRender_Foreign(t *testing.T) {
	html := base64.StdEncoding.EncodeToString([]byte(`<html><body><h2>Rules</h2><p>Be nice.</p></body></html>`))
	rtf := base64.StdEncoding.EncodeToString([]byte(`{\rtf1 text}`))

	core, logs := observer.New(zapcore.WarnLevel)
	rec := record(t, campaign(`
<topic topic_id="t1" public_name="Docs">
  <section partition_name="S">
    <snippet type="Foreign"><ext_object name="rules"><asset filename="rules.HTML"><contents>`+html+`</contents></asset></ext_object></snippet>
    <snippet type="Rich_Text"><ext_object name="notes"><asset filename="notes.rtf"><contents>`+rtf+`</contents></asset></ext_object></snippet>
    <snippet type="PDF"><ext_object name="book"><asset filename="book.pdf"><contents>`+rtf+`</contents></asset></ext_object></snippet>
    <snippet type="Audio"><ext_object name="theme" url="https://example.com/theme.mp3"/></snippet>
  </section>
</topic>`), defaultOptions(), zap.New(core))

	if !rec.has("<block>", "<heading>", "text Rules", "</heading>", "<paragraph>", "text Be nice.", "</paragraph>", "</block>") {
		t.Errorf("html document not embedded:\n%s", rec)
	}
	if !rec.has("external notes.rtf") || !rec.has("external book.pdf") || !rec.has("external theme") {
		t.Errorf("external references missing:\n%s", rec)
	}
	// broken pdf reports missing page count only
	if logs.Len() != 1 {
		t.Errorf("expected 1 warning, got %d", logs.Len())
	}
	for _, e := range rec.externals {
		switch e.Name {
		case "theme":
			if e.URL != "https://example.com/theme.mp3" || e.Key != "" {
				t.Errorf("linked object = %+v", e)
			}
		case "book.pdf":
			if e.MIME != "application/pdf" || e.Pages != 0 {
				t.Errorf("pdf = %+v", e)
			}
		case "notes.rtf":
			if !strings.HasSuffix(e.FileName(), ".rtf") || !strings.HasPrefix(e.Description(), "Rich_Text, ") {
				t.Errorf("file name = %q, description = %q", e.FileName(), e.Description())
			}
		}
	}
}
