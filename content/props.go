package content

import (
	"strconv"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// Props are presentation properties of inline style attribute which all
// output formats can express.
type Props struct {
	Bold      bool
	Italic    bool
	Underline bool
	Color     string
	// Background is background color.
	Background string
}

// IsZero reports whether no property is set.
func (p Props) IsZero() bool {
	return p == Props{}
}

// Declarations returns properties as inline CSS declarations.
func (p Props) Declarations() string {
	if p.IsZero() {
		return ""
	}
	var parts []string
	if p.Bold {
		parts = append(parts, "font-weight:bold")
	}
	if p.Italic {
		parts = append(parts, "font-style:italic")
	}
	if p.Underline {
		parts = append(parts, "text-decoration:underline")
	}
	if p.Color != "" {
		parts = append(parts, "color:"+p.Color)
	}
	if p.Background != "" {
		parts = append(parts, "background-color:"+p.Background)
	}
	return strings.Join(parts, ";")
}

// ParseProps parses declarations of inline style attribute, unknown
// properties are ignored.
func ParseProps(style string) Props {
	var props Props
	if strings.TrimSpace(style) == "" {
		return props
	}

	parser := css.NewParser(parse.NewInputString(style), true)
	for {
		gt, _, data := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			return props
		case css.DeclarationGrammar:
			props.set(strings.ToLower(string(data)), declarationValue(parser.Values()))
		}
	}
}

func (p *Props) set(name, value string) {
	value = strings.ToLower(value)
	switch name {
	case "font-weight":
		weight, err := strconv.Atoi(value)
		p.Bold = value == "bold" || value == "bolder" || err == nil && weight >= 600
	case "font-style":
		p.Italic = value == "italic" || value == "oblique"
	case "text-decoration", "text-decoration-line":
		p.Underline = strings.Contains(value, "underline")
	case "color":
		p.Color = value
	case "background-color", "background":
		p.Background = value
	}
}

func declarationValue(tokens []css.Token) string {
	var sb strings.Builder
	for _, t := range tokens {
		if t.TokenType == css.WhitespaceToken {
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			continue
		}
		sb.Write(t.Data)
	}
	return strings.TrimSpace(sb.String())
}

// HexColor returns color as six hex digits without leading "#" when it is
// given in hex notation, empty string otherwise.
func HexColor(c string) string {
	c = strings.TrimPrefix(strings.TrimSpace(c), "#")
	switch len(c) {
	case 3:
		c = string([]byte{c[0], c[0], c[1], c[1], c[2], c[2]})
	case 6:
	default:
		return ""
	}
	for _, r := range c {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return ""
		}
	}
	return strings.ToUpper(c)
}
