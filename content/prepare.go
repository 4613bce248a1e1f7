package content

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"rwout/misc"
	"rwout/rw"
	"rwout/state"
)

// Document is loaded campaign export ready for rendering.
type Document struct {
	SrcName string
	Tree    *rw.Tree
	// WorkDir is a temporary directory receiving debug dumps of the tree and
	// the session, it is kept for the debug report.
	WorkDir string
}

// Prepare reads and parses campaign export. When debug report is requested
// parsed tree is saved for inspection.
func Prepare(ctx context.Context, r io.Reader, srcName string, log *zap.Logger) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	env := state.EnvFromContext(ctx)

	tree, err := rw.Load(ctx, r, log)
	if err != nil {
		return nil, fmt.Errorf("unable to read campaign export: %w", err)
	}

	tmpDir, err := os.MkdirTemp("", misc.GetAppName()+"-")
	if err != nil {
		return nil, fmt.Errorf("unable to create temporary directory: %w", err)
	}

	baseSrcName := filepath.Base(srcName)
	if env.Rpt != nil {
		env.Rpt.Store(misc.GetAppName()+"-"+baseSrcName, tmpDir)
		if err := os.WriteFile(filepath.Join(tmpDir, baseSrcName+"_tree"), []byte(tree.Root.String()), 0644); err != nil {
			return nil, fmt.Errorf("unable to write parsed tree for debugging: %w", err)
		}
	}

	return &Document{SrcName: srcName, Tree: tree, WorkDir: tmpDir}, nil
}
