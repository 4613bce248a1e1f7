package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

// makeZip builds archive in memory, names ending with "/" become directory
// entries.
func makeZip(t *testing.T, names ...string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	for _, name := range names {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatalf("Failed to create %s in zip: %v", name, err)
		}
		if name[len(name)-1] != '/' {
			fw.Write([]byte("content of " + name))
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
	return buf.Bytes()
}

func collect(visited *[]string) WalkFunc {
	return func(file *zip.File) error {
		*visited = append(*visited, file.Name)
		return nil
	}
}

func TestWalkBytes(t *testing.T) {
	data := makeZip(t,
		"statblocks_html/",
		"statblocks_html/goblin.html",
		"statblocks_html/orc.html",
		"Statblocks_html/upper.html",
		"portfolio.xml",
	)

	tests := []struct {
		prefix string
		want   []string
	}{
		{"statblocks_html/", []string{"statblocks_html/goblin.html", "statblocks_html/orc.html"}},
		{"nonexistent/", nil},
		{"", []string{"statblocks_html/goblin.html", "statblocks_html/orc.html", "Statblocks_html/upper.html", "portfolio.xml"}},
	}
	for _, tt := range tests {
		t.Run("prefix "+tt.prefix, func(t *testing.T) {
			var visited []string
			if err := WalkBytes(data, tt.prefix, collect(&visited)); err != nil {
				t.Fatalf("WalkBytes() error = %v", err)
			}
			if !slices.Equal(visited, tt.want) {
				t.Errorf("visited %v, want %v", visited, tt.want)
			}
		})
	}
}

func TestWalk_File(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "test.zip")
	if err := os.WriteFile(zipPath, makeZip(t, "docs/readme.txt", "src/main.go"), 0644); err != nil {
		t.Fatal(err)
	}

	var visited []string
	if err := Walk(zipPath, "docs/", collect(&visited)); err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	if !slices.Equal(visited, []string{"docs/readme.txt"}) {
		t.Errorf("visited %v", visited)
	}

	err := Walk(zipPath, "", func(file *zip.File) error {
		content, err := ReadFile(file)
		if err != nil {
			return err
		}
		if string(content) != "content of "+file.Name {
			t.Errorf("content = %q", content)
		}
		return nil
	})
	if err != nil {
		t.Errorf("Walk() error = %v", err)
	}
}

func TestWalk_InvalidArchive(t *testing.T) {
	if err := Walk("/nonexistent/file.zip", "", collect(new([]string))); err == nil {
		t.Error("Expected error for nonexistent file")
	}
	if err := WalkBytes([]byte("not a zip file"), "", collect(new([]string))); err == nil {
		t.Error("Expected error for invalid zip data")
	}
}

func TestWalk_EarlyTermination(t *testing.T) {
	data := makeZip(t, "files/0.txt", "files/1.txt", "files/2.txt")

	var visited int
	stopErr := errors.New("stop walking")
	err := WalkBytes(data, "files/", func(file *zip.File) error {
		visited++
		if visited == 2 {
			return stopErr
		}
		return nil
	})
	if !errors.Is(err, stopErr) {
		t.Errorf("WalkBytes() error = %v, want %v", err, stopErr)
	}
	if visited != 2 {
		t.Errorf("visited %d files, want 2", visited)
	}
}

func TestWalk_UnsafePaths(t *testing.T) {
	for _, name := range []string{"../evil.html", "statblocks_html/../../evil.html", "/etc/passwd", `..\evil.html`} {
		data := makeZip(t, "statblocks_html/ok.html", name)
		if err := WalkBytes(data, "statblocks_html/", collect(new([]string))); err == nil {
			t.Errorf("entry %q accepted", name)
		}
	}
}
