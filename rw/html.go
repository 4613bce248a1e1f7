package rw

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseHTML parses permissive HTML fragment and returns its top level nodes
// converted to the tree representation. Parser never fails on bad markup,
// only on too deep nesting.
func ParseHTML(markup string) ([]*Node, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), body)
	if err != nil {
		return nil, err
	}
	var res []*Node
	for _, hn := range nodes {
		n, err := convertHTML(hn, 0)
		if err != nil {
			return nil, err
		}
		if n != nil {
			res = append(res, n)
		}
	}
	return res, nil
}

func convertHTML(hn *html.Node, depth int) (*Node, error) {
	if depth > MaxDepth {
		return nil, &StructuralError{Path: hn.Data, Msg: "embedded markup is nested too deep"}
	}
	switch hn.Type {
	case html.TextNode:
		if isBlank(hn.Data) {
			return nil, nil
		}
		return NewText(hn.Data), nil
	case html.ElementNode:
		n := NewElement(strings.ToLower(hn.Data))
		for _, a := range hn.Attr {
			n.SetAttr(a.Key, a.Val)
		}
		for c := hn.FirstChild; c != nil; c = c.NextSibling {
			child, err := convertHTML(c, depth+1)
			if err != nil {
				return nil, err
			}
			if child != nil {
				n.Append(child)
			}
		}
		return n, nil
	default:
		// comments, doctype
		return nil, nil
	}
}

// ExtractBody returns inner markup of the <body> element. Content without
// body element is reported as not found.
func ExtractBody(markup string) (string, bool) {
	lower := strings.ToLower(markup)
	start := strings.Index(lower, "<body")
	if start < 0 {
		return "", false
	}
	end := strings.Index(markup[start:], ">")
	if end < 0 {
		return "", false
	}
	start = start + end + 1

	bodyEnd := strings.Index(lower[start:], "</body>")
	if bodyEnd < 0 {
		return markup[start:], true
	}
	return markup[start : start+bodyEnd], true
}

func isBlank(s string) bool {
	return strings.TrimFunc(s, unicode.IsSpace) == ""
}
