package content

import (
	"archive/zip"
	"bytes"
	"fmt"
	"mime"
	"path"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"rwout/archive"
	"rwout/rw"
	"rwout/utils/images"
)

const statblocksPrefix = "statblocks_html/"

// external builds reference for the object stored in the snippet.
func (r *renderer) external(n *rw.Node, st rw.SnippetType) *External {
	obj := n.Child(rw.KindExtObject)
	asset := obj.Child(rw.KindAsset)
	name := firstNonEmpty(asset.Attr("filename"), obj.Attr("name"))

	e := &External{
		Type: st,
		Name: name,
		Data: asset.Child(rw.KindContents).Binary(),
		URL:  obj.Attr("url"),
		MIME: mime.TypeByExtension(strings.ToLower(path.Ext(name))),
	}
	if e.MIME == "" {
		e.MIME = "application/octet-stream"
	}
	if len(e.Data) > 0 {
		e.Key = images.AssetKey(e.Data)
	}
	if st == rw.SnippetPDF && len(e.Data) > 0 {
		pages, err := pdfPages(e.Data)
		if err != nil {
			r.log.Warn("Unable to read PDF, page count is not available", zap.String("asset", name), zap.Error(err))
		}
		e.Pages = pages
	}
	return e
}

// foreign renders documents in markup formats inline, everything else becomes
// an external reference.
func (r *renderer) foreign(n *rw.Node, st rw.SnippetType, depth int) {
	e := r.external(n, st)
	if e.Name == "" && e.URL == "" && len(e.Data) == 0 {
		r.log.Debug("Snippet without object, skipping", zap.Stringer("type", st), zap.Int("line", n.Line))
		return
	}
	switch strings.ToLower(path.Ext(e.Name)) {
	case ".htm", ".html", ".rtf":
		if body, ok := rw.ExtractBody(decodeMarkup(e.Data)); ok {
			if r.embedded(body, e.Name, StyleNone, depth) {
				return
			}
		}
	}
	r.sink.External(e)
}

// portfolio emits reference to the package followed by statblocks stored
// in it.
func (r *renderer) portfolio(n *rw.Node, depth int) {
	e := r.external(n, rw.SnippetPortfolio)
	r.sink.External(e)
	if len(e.Data) == 0 {
		return
	}

	err := archive.WalkBytes(e.Data, statblocksPrefix, func(f *zip.File) error {
		data, err := archive.ReadFile(f)
		if err != nil {
			r.log.Warn("Unable to read statblock, skipping", zap.String("portfolio", e.Name), zap.String("entry", f.Name), zap.Error(err))
			return nil
		}
		markup := decodeMarkup(data)
		if body, ok := rw.ExtractBody(markup); ok {
			markup = body
		}
		r.embedded(markup, f.Name, StyleStatblock, depth)
		return nil
	})
	if err != nil {
		r.log.Warn("Unable to open portfolio, statblocks are not rendered", zap.String("portfolio", e.Name), zap.Error(err))
	}
}

// embedded renders markup fragment as nested sub-document.
func (r *renderer) embedded(markup, name string, style Style, depth int) bool {
	nodes, err := rw.ParseHTML(markup)
	if err != nil {
		r.log.Warn("Unable to parse embedded document", zap.String("asset", name), zap.Error(err))
		return false
	}
	holder := rw.NewElement("contents")
	for _, c := range nodes {
		holder.Append(c)
	}
	r.styledBody(holder, style, depth)
	return true
}

// decodeMarkup converts markup to UTF-8 using BOM, meta declarations or
// content sniffing.
func decodeMarkup(data []byte) string {
	enc, name, _ := charset.DetermineEncoding(data, "text/html")
	if name == "utf-8" {
		return string(data)
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(out)
}

// pdfPages returns number of pages of PDF document. PDF reader panics on
// some malformed input, this is reported as an error.
func pdfPages(data []byte) (pages int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			pages, err = 0, fmt.Errorf("malformed PDF: %v", rec)
		}
	}()
	rd, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, err
	}
	return rd.NumPage(), nil
}
