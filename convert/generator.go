package convert

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"rwout/config"
	"rwout/content"
	"rwout/convert/docx"
	"rwout/convert/fgmod"
	"rwout/convert/markdown"
	"rwout/convert/web"
)

// Generator renders prepared session into destination path.
type Generator interface {
	Generate(ctx context.Context, s *content.Session, dst string) error
}

// NewGenerator returns emitter for requested format. Stylesheet is used by
// web and markdown outputs, nil selects built-in one.
func NewGenerator(format config.OutputFmt, cfg *config.Config, stylesheet []byte, log *zap.Logger) (Generator, error) {
	switch format {
	case config.OutputFmtDocx:
		return docx.New(log), nil
	case config.OutputFmtHtml:
		return web.New(stylesheet, log), nil
	case config.OutputFmtMarkdown:
		return markdown.New(stylesheet, cfg.Document.CategoryDirs, log), nil
	case config.OutputFmtFgmod:
		return fgmod.New(cfg.Module, cfg.Document.FixZip, log), nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}
