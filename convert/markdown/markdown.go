// Package markdown produces tree of markdown files, one per topic, with YAML
// front matter and relative links between topics.
package markdown

import (
	"context"
	_ "embed"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"rwout/content"
)

const (
	indexFile      = "index.md"
	stylesheetName = "style.css"
	assetsDir      = "assets"
)

//go:embed style.css
var DefaultStylesheet []byte

// Generator writes markdown tree into destination directory.
type Generator struct {
	stylesheet   []byte
	categoryDirs bool
	log          *zap.Logger
}

// New creates markdown generator. With categoryDirs topic files are grouped
// into subdirectories named after topic categories, nil stylesheet selects
// built-in one.
func New(stylesheet []byte, categoryDirs bool, log *zap.Logger) *Generator {
	if stylesheet == nil {
		stylesheet = DefaultStylesheet
	}
	return &Generator{stylesheet: stylesheet, categoryDirs: categoryDirs, log: log.Named("markdown")}
}

// Generate renders session into dst directory. Files written before a
// failure are left in place.
func (g *Generator) Generate(ctx context.Context, s *content.Session, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(dst, assetsDir), 0755); err != nil {
		return &content.IoError{Path: dst, Err: err}
	}

	opts := s.Options()
	t := newTree(dst, opts.SplitIntoFiles, opts.ShowIndexEverywhere, g.categoryDirs, g.log)
	if err := s.Render(ctx, t); err != nil {
		return err
	}
	if !t.split {
		if err := t.write(t.page); err != nil {
			return err
		}
	}

	path := filepath.Join(dst, stylesheetName)
	if err := os.WriteFile(path, g.stylesheet, 0644); err != nil {
		return &content.IoError{Path: path, Err: err}
	}
	g.log.Debug("Markdown written", zap.String("dir", dst), zap.Int("files", t.pages), zap.Int("assets", len(t.assets)))
	return nil
}
