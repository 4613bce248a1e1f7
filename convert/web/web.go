// Package web produces static web site: either single page with in-page
// anchors or one page per topic with navigation.
package web

import (
	"context"
	_ "embed"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"rwout/content"
)

const (
	indexPage      = "index.htm"
	stylesheetName = "rwout.css"
	scriptName     = "rwout.js"
	assetsDir      = "assets"
)

//go:embed rwout.css
var DefaultStylesheet []byte

//go:embed rwout.js
var script []byte

// Generator writes site into destination directory.
type Generator struct {
	stylesheet []byte
	log        *zap.Logger
}

// New creates web generator, nil stylesheet selects built-in one.
func New(stylesheet []byte, log *zap.Logger) *Generator {
	if stylesheet == nil {
		stylesheet = DefaultStylesheet
	}
	return &Generator{stylesheet: stylesheet, log: log.Named("web")}
}

// Generate renders session into dst directory. Pages written before a
// failure are left in place.
func (g *Generator) Generate(ctx context.Context, s *content.Session, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(dst, assetsDir), 0755); err != nil {
		return &content.IoError{Path: dst, Err: err}
	}

	opts := s.Options()
	st := newSite(dst, opts.SplitIntoFiles, opts.ShowIndexEverywhere, g.log)
	if err := s.Render(ctx, st); err != nil {
		return err
	}
	if !st.split {
		if err := st.write(st.page); err != nil {
			return err
		}
	}

	for name, data := range map[string][]byte{stylesheetName: g.stylesheet, scriptName: script} {
		path := filepath.Join(dst, name)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return &content.IoError{Path: path, Err: err}
		}
	}
	g.log.Debug("Site written", zap.String("dir", dst), zap.Int("pages", st.pages), zap.Int("assets", len(st.assets)))
	return nil
}
