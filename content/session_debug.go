package content

import (
	"maps"
	"slices"
	"sort"

	"github.com/maruel/natural"

	"rwout/utils/debug"
)

// String returns readable dump of the topic hierarchy and adapted assets.
// It exists solely for manual inspection during debugging.
func (s *Session) String() string {
	if s == nil {
		return "<nil Session>"
	}

	tw := debug.NewTreeWriter()
	fp := s.front
	tw.TextBlock(0, "Campaign", fp.Title)
	tw.TextBlock(0, "Exported", fp.ExportDate)
	tw.Line(0, "Topics: %d", len(fp.All))
	var walk func(ts []*Topic, depth int)
	walk = func(ts []*Topic, depth int) {
		for _, t := range ts {
			tw.Line(depth, "Topic[%q] seq[%d] title[%q] category[%q] links[%d]", t.ID, t.Seq, t.Title(), t.Category, BuildLinkTable(t.Node).Len())
			walk(t.Children, depth+1)
		}
	}
	walk(fp.Roots, 1)

	if len(s.assets) > 0 {
		tw.Line(0, "Assets: %d", len(s.assets))
		keys := slices.Collect(maps.Keys(s.assets))
		sort.Sort(natural.StringSlice(keys))
		for _, k := range keys {
			a := s.assets[k]
			tw.Line(1, "Asset[%q] format[%q] size[%d] dim[%dx%d] divisor[%d] changed[%t]", k, a.Format, len(a.Data), a.Width, a.Height, a.Divisor, a.Changed)
		}
	}
	return tw.String()
}
