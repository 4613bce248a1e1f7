package content

import (
	"testing"

	"rwout/rw"
)

func linkage(name, id, direction string) *rw.Node {
	n := rw.NewElement("linkage")
	n.SetAttr("target_name", name)
	n.SetAttr("target_id", id)
	n.SetAttr("direction", direction)
	return n
}

func TestLinkTable(t *testing.T) {
	topic := rw.NewElement("topic")
	topic.Append(linkage("Inn", "t1", "Outbound"))
	topic.Append(linkage("Bob the Brave", "t2", "Both"))
	topic.Append(linkage("Villain", "t3", "Inbound"))
	topic.Append(linkage("INN", "t9", "Outbound"))
	topic.Append(linkage("", "t4", "Outbound"))

	// nested linkages belong to other topics
	child := rw.NewElement("topic")
	child.Append(linkage("Cellar", "t5", "Outbound"))
	topic.Append(child)

	lt := BuildLinkTable(topic)
	if lt.Len() != 2 {
		t.Errorf("Len() = %d, want 2", lt.Len())
	}

	tests := []struct {
		text string
		id   string
		ok   bool
	}{
		{"Inn", "t1", true},
		{"inn", "t1", true},
		{"iNN", "t1", true},
		{"bob the brave", "t2", true},
		{"Villain", "", false},
		{"Cellar", "", false},
		{"", "", false},
		{"In", "", false},
		{"Bob the Brave!", "", false},
		{"Inn ", "", false},
	}
	for _, tt := range tests {
		id, ok := lt.Find(tt.text)
		if id != tt.id || ok != tt.ok {
			t.Errorf("Find(%q) = %q, %v; want %q, %v", tt.text, id, ok, tt.id, tt.ok)
		}
	}

	var empty *LinkTable
	if _, ok := empty.Find("Inn"); ok {
		t.Error("nil table must not match")
	}
}

func TestRender_SpanLinks(t *testing.T) {
	rec := record(t, campaign(`
<topic topic_id="t1" public_name="Inn"/>
<topic topic_id="t2" public_name="Bob">
  <linkage target_id="t1" target_name="Inn" direction="Outbound"/>
  <section partition_name="Overview">
    <snippet type="Multi_Line"><contents>&lt;p&gt;&lt;span&gt;Visit the &lt;/span&gt;&lt;span&gt; inn &lt;/span&gt;&lt;span&gt;tonight&lt;/span&gt;&lt;/p&gt;</contents></snippet>
    <snippet type="Multi_Line"><contents>inn</contents></snippet>
  </section>
</topic>`), defaultOptions(), testLogger(t))

	if !rec.has("text Visit the ", "text  ", "link inn -> t1", "text  ", "text tonight") {
		t.Errorf("span text was not linked:\n%s", rec)
	}
	if rec.count("link inn -> t1") != 1 {
		t.Errorf("text outside of spans must not be linked:\n%s", rec)
	}
}
