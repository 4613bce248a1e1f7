package fgmod

import (
	"io"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// representable reports whether rune survives module encoding.
func representable(r rune) bool {
	_, ok := charmap.ISO8859_1.EncodeRune(r)
	return ok
}

// clean replaces runes which module encoding cannot represent with '?',
// lossy is set when replacement happened.
func clean(s string, lossy *bool) string {
	out, _, err := transform.String(runes.Map(func(r rune) rune {
		if representable(r) {
			return r
		}
		*lossy = true
		return '?'
	}), s)
	if err != nil {
		return s
	}
	return out
}

func latin1Writer(w io.Writer) io.WriteCloser {
	return transform.NewWriter(w, charmap.ISO8859_1.NewEncoder())
}
