// Package docx produces printable campaign document.
package docx

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"rwout/content"
)

// Generator writes single .docx file, split mode does not apply.
type Generator struct {
	log *zap.Logger
}

// New creates docx generator.
func New(log *zap.Logger) *Generator {
	return &Generator{log: log.Named("docx")}
}

// Generate renders session into dst file.
func (g *Generator) Generate(ctx context.Context, s *content.Session, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w := newWriter(s.Options().MaxImageWidth, g.log)
	if err := s.Render(ctx, w); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return &content.IoError{Path: dst, Err: err}
	}
	f, err := os.Create(dst)
	if err != nil {
		return &content.IoError{Path: dst, Err: err}
	}
	if _, err := w.doc.WriteTo(f); err != nil {
		f.Close()
		return &content.IoError{Path: dst, Err: err}
	}
	if err := f.Close(); err != nil {
		return &content.IoError{Path: dst, Err: fmt.Errorf("unable to finalize document: %w", err)}
	}
	g.log.Debug("Document written", zap.String("file", dst), zap.Int("images", w.images))
	return nil
}
