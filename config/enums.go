package config

//go:generate go tool go-enum --names -f=$GOFILE

// Specification of requested output type.
// ENUM(docx, html, markdown, fgmod)
type OutputFmt int

// Ext returns extension of the produced artifact. Formats which produce
// directory trees return empty string.
func (o OutputFmt) Ext() string {
	switch o {
	case OutputFmtDocx:
		return ".docx"
	case OutputFmtFgmod:
		return ".mod"
	case OutputFmtHtml, OutputFmtMarkdown:
		return ""
	default:
		// this should never happen
		panic("unsupported format requested")
	}
}

// IsDirectory reports whether output is a directory rather than single file.
func (o OutputFmt) IsDirectory() bool {
	return o == OutputFmtHtml || o == OutputFmtMarkdown
}
