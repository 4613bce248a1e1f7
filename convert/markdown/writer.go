package markdown

import (
	"strings"
)

// writer is a line oriented markup writer. Block prefixes (list
// indentation) are repeated at the start of every line.
type writer struct {
	sb      strings.Builder
	prefix  []string
	bol     bool
	pending bool
	// fresh is set right after list marker, first block of the item
	// continues marker line
	fresh bool
}

func newWriter() *writer {
	return &writer{bol: true}
}

func (w *writer) String() string {
	return w.sb.String()
}

// inline writes s to the current line, starting new line with prefixes
// when necessary.
func (w *writer) inline(s string) {
	if s == "" {
		return
	}
	if w.bol {
		lead := strings.Join(w.prefix, "")
		if w.pending && w.sb.Len() > 0 {
			w.sb.WriteString(strings.TrimRight(lead, " "))
			w.sb.WriteByte('\n')
		}
		w.sb.WriteString(lead)
		w.pending, w.bol = false, false
	}
	w.fresh = false
	w.sb.WriteString(s)
}

// raw writes s as is at the start of a line, prefixes are not applied.
func (w *writer) raw(s string) {
	w.endLine()
	w.sb.WriteString(s)
	w.pending = false
}

func (w *writer) endLine() {
	if !w.bol {
		w.sb.WriteByte('\n')
		w.bol = true
	}
}

// blank requests empty line before the next block.
func (w *writer) blank() {
	if w.fresh {
		return
	}
	w.endLine()
	w.pending = true
}

func (w *writer) push(p string) {
	w.prefix = append(w.prefix, p)
}

func (w *writer) pop() {
	if n := len(w.prefix); n > 0 {
		w.prefix = w.prefix[:n-1]
	}
}

// headingSigns is sliced to produce ATX heading marker for a level.
const headingSigns = "###### "

func heading(level int) string {
	level = min(max(level, 1), 6)
	return headingSigns[len(headingSigns)-level-1:]
}

var escaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", `*`, `\*`, `_`, `\_`, `[`, `\[`, `]`, `\]`,
	`<`, `\<`, `>`, `\>`, `#`, `\#`, `|`, `\|`,
	"\r\n", " ", "\n", " ", "\r", " ",
)

// escape makes text safe to place inline.
func escape(text string) string {
	return escaper.Replace(text)
}

// destination formats link destination, addresses with spaces or
// parentheses are enclosed in angle brackets.
func destination(href string) string {
	if strings.ContainsAny(href, " ()") {
		return "<" + href + ">"
	}
	return href
}
