package content

import (
	"slices"
	"strings"

	"github.com/maruel/natural"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"rwout/rw"
)

// Collator orders sibling topics: topics with prefix come first, then
// prefix and public name are compared in locale aware, numeric aware and case
// insensitive manner. Collator is not safe for concurrent use.
type Collator struct {
	col *collate.Collator
}

// NewCollator returns collator for requested language.
func NewCollator(tag language.Tag) *Collator {
	return &Collator{col: collate.New(tag, collate.Numeric, collate.IgnoreCase)}
}

// Compare returns negative value when a goes before b, positive when after
// and zero only for topics with identical prefix and name.
func (c *Collator) Compare(a, b *rw.Node) int {
	pa, pb := a.Attr("prefix"), b.Attr("prefix")
	switch {
	case pa != "" && pb == "":
		return -1
	case pa == "" && pb != "":
		return 1
	}
	if r := c.CompareStrings(pa, pb); r != 0 {
		return r
	}
	return c.CompareStrings(a.Attr("public_name"), b.Attr("public_name"))
}

// CompareStrings compares using collation, strings equal under collation are
// ordered naturally and then bytewise so only identical strings compare
// equal.
func (c *Collator) CompareStrings(a, b string) int {
	if a == b {
		return 0
	}
	if r := c.col.CompareString(a, b); r != 0 {
		return r
	}
	switch {
	case natural.Less(a, b):
		return -1
	case natural.Less(b, a):
		return 1
	}
	return strings.Compare(a, b)
}

// Sort orders topics in place, equal topics keep document order.
func (c *Collator) Sort(topics []*rw.Node) {
	slices.SortStableFunc(topics, c.Compare)
}
