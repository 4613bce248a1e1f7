// Package fgmod produces module package for virtual tabletop: zip archive
// holding module definition, database of encounter records and images.
package fgmod

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"rwout/archive"
	"rwout/config"
	"rwout/content"
	"rwout/misc"
)

const (
	definitionFile = "definition.xml"
	databaseFile   = "db.xml"
	imagesDir      = "images"

	dbVersion = "3.3"
	dbRelease = "8|CoreRPG:4"
)

// Generator writes module archive.
type Generator struct {
	cfg    config.ModuleConfig
	fixZip bool
	log    *zap.Logger
}

// New creates module generator. With fixZip archive entries are rewritten
// without data descriptors.
func New(cfg config.ModuleConfig, fixZip bool, log *zap.Logger) *Generator {
	return &Generator{cfg: cfg, fixZip: fixZip, log: log.Named("fgmod")}
}

// Generate renders session into module archive dst. Module files are staged
// in temporary directory which is removed afterwards.
func (g *Generator) Generate(ctx context.Context, s *content.Session, dst string) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	work, err := os.MkdirTemp("", misc.GetAppName()+"-fgmod-*")
	if err != nil {
		return &content.IoError{Path: os.TempDir(), Err: err}
	}
	defer func() { err = multierr.Append(err, os.RemoveAll(work)) }()

	if err := os.MkdirAll(filepath.Join(work, imagesDir), 0755); err != nil {
		return &content.IoError{Path: work, Err: err}
	}

	b := newBuilder(work, s.Options().MaxImageWidth, g.log)
	if err := s.Render(ctx, b); err != nil {
		return err
	}
	if b.err != nil {
		return b.err
	}

	name := g.cfg.Name
	if name == "" {
		name = b.front.Title
	}
	files := map[string]func() ([]byte, error){
		definitionFile: func() ([]byte, error) { return b.definition(name, g.cfg) },
		databaseFile:   func() ([]byte, error) { return b.database(name, g.cfg.Category) },
	}
	for file, build := range files {
		data, err := build()
		if err != nil {
			return fmt.Errorf("unable to build %s: %w", file, err)
		}
		path := filepath.Join(work, file)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return &content.IoError{Path: path, Err: err}
		}
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return &content.IoError{Path: dst, Err: err}
	}
	if err := g.pack(work, dst); err != nil {
		return &content.IoError{Path: dst, Err: err}
	}
	g.log.Debug("Module written", zap.String("file", dst), zap.Int("records", len(b.records)), zap.Int("images", len(b.images)))
	return nil
}

func (g *Generator) pack(work, dst string) error {
	if !g.fixZip {
		return archive.Pack(work, dst)
	}
	tmp := dst + ".tmp"
	if err := archive.Pack(work, tmp); err != nil {
		return multierr.Append(err, removeIfExists(tmp))
	}
	return multierr.Combine(archive.RewriteWithoutDataDescriptors(tmp, dst), os.Remove(tmp))
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
