package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	fixzip "github.com/hidez8891/zip"
	"go.uber.org/multierr"
)

// Pack stores every regular file under dir into a new zip archive at target.
// Entries are added in lexical order without modification times so equal
// input always produces identical archives.
func Pack(dir, target string) error {
	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("unable to create archive (%s): %w", target, err)
	}
	zw := zip.NewWriter(f)

	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		return addFile(zw, filepath.ToSlash(rel), p)
	})
	return multierr.Combine(err, zw.Close(), f.Close())
}

func addFile(zw *zip.Writer, name, p string) error {
	src, err := os.Open(p)
	if err != nil {
		return err
	}
	defer src.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("unable to store %s: %w", name, err)
	}
	return nil
}

// RewriteWithoutDataDescriptors copies archive entries clearing data
// descriptor flag, some readers of module packages cannot handle streamed
// entries.
func RewriteWithoutDataDescriptors(from, to string) (err error) {
	out, err := os.Create(to)
	if err != nil {
		return fmt.Errorf("unable to create target file (%s): %w", to, err)
	}
	defer func() { err = multierr.Append(err, out.Close()) }()

	r, err := fixzip.OpenReader(from)
	if err != nil {
		return fmt.Errorf("unable to read archive file (%s): %w", from, err)
	}
	defer r.Close()

	w := fixzip.NewWriter(out)
	defer func() { err = multierr.Append(err, w.Close()) }()

	for _, file := range r.File {
		file.Flags &^= fixzip.FlagDataDescriptor
		if err := w.CopyFile(file); err != nil {
			return fmt.Errorf("unable to write target file (%s): %w", to, err)
		}
	}
	return nil
}
