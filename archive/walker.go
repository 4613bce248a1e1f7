// Package archive reads and writes zip containers: prefix filtered walks over
// archive files or in-memory buffers, deterministic directory packing and
// data descriptor removal.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"path"
	"strings"
)

// WalkFunc is called for every file entry which name starts with requested
// prefix. If an error is returned, processing stops.
type WalkFunc func(file *zip.File) error

// Walk walks files in the archive at path which names start with prefix.
// Archives having entries with absolute names or ".." components are
// rejected as a whole.
func Walk(archive, prefix string, walkFn WalkFunc) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	return walk(&r.Reader, prefix, walkFn)
}

// WalkBytes is Walk over archive held in memory.
func WalkBytes(data []byte, prefix string, walkFn WalkFunc) error {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return err
	}
	return walk(r, prefix, walkFn)
}

func walk(r *zip.Reader, prefix string, walkFn WalkFunc) error {
	for _, f := range r.File {
		name := f.FileHeader.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if !f.FileInfo().IsDir() && strings.HasPrefix(name, prefix) {
			if err := walkFn(f); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReadFile returns uncompressed content of the entry.
func ReadFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	buf := bytes.NewBuffer(make([]byte, 0, f.UncompressedSize64))
	if _, err := buf.ReadFrom(rc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// isSafePath returns false for paths that could escape the extraction
// directory: absolute paths and those containing ".." components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, `\`) {
		return false
	}
	for part := range strings.SplitSeq(strings.ReplaceAll(name, `\`, "/"), "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
