package content

import (
	"strings"
	"unicode/utf8"

	"rwout/rw"
)

// LinkTable maps display names declared by topic linkage to target topic
// ids. Lookups are case insensitive exact matches.
type LinkTable struct {
	targets map[string]string
	// longest registered name in runes
	maxLen int
}

// BuildLinkTable collects direct linkage children of the topic ignoring
// inbound ones. When several linkages share name the first one wins.
func BuildLinkTable(topic *rw.Node) *LinkTable {
	lt := &LinkTable{targets: make(map[string]string)}
	for _, l := range topic.ChildrenOf(rw.KindLinkage) {
		if l.Attr("direction") == "Inbound" {
			continue
		}
		name, id := l.Attr("target_name"), l.Attr("target_id")
		if name == "" || id == "" {
			continue
		}
		key := strings.ToUpper(name)
		if _, exists := lt.targets[key]; exists {
			continue
		}
		lt.targets[key] = id
		lt.maxLen = max(lt.maxLen, utf8.RuneCountInString(key))
	}
	return lt
}

// Find returns target topic id for the text.
func (lt *LinkTable) Find(text string) (string, bool) {
	if lt == nil || text == "" || utf8.RuneCountInString(text) > lt.maxLen {
		return "", false
	}
	id, ok := lt.targets[strings.ToUpper(text)]
	return id, ok
}

// Len returns number of registered names.
func (lt *LinkTable) Len() int {
	if lt == nil {
		return 0
	}
	return len(lt.targets)
}
