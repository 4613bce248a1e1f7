package config

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReport(t *testing.T) {
	tmpDir := t.TempDir()

	stored := filepath.Join(tmpDir, "output.docx")
	if err := os.WriteFile(stored, []byte("docx bytes"), 0644); err != nil {
		t.Fatal(err)
	}
	dir := filepath.Join(tmpDir, "site")
	if err := os.MkdirAll(filepath.Join(dir, "assets"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "assets", "a.png"), []byte("png"), 0644); err != nil {
		t.Fatal(err)
	}

	conf := ReporterConfig{Destination: filepath.Join(tmpDir, "report.zip")}
	r, err := conf.Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	r.Store("result.docx", stored)
	r.Store("site", dir)
	r.Store("absent.log", filepath.Join(tmpDir, "absent.log"))
	r.StoreData("tree.txt", []byte("tree"))
	r.StoreData("tree.txt", []byte("tree again"))

	if r.Name() != conf.Destination {
		t.Errorf("Name() = %q, want %q", r.Name(), conf.Destination)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	zr, err := zip.OpenReader(conf.Destination)
	if err != nil {
		t.Fatalf("unable to open report: %v", err)
	}
	defer zr.Close()

	names := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		data, _ := io.ReadAll(rc)
		rc.Close()
		names[f.Name] = string(data)
	}

	if names["result.docx"] != "docx bytes" {
		t.Errorf("result.docx = %q", names["result.docx"])
	}
	if names["site/assets/a.png"] != "png" {
		t.Errorf("directory entry missing: %v", names)
	}
	if _, ok := names["absent.log"]; ok {
		t.Error("absent file should be skipped")
	}
	if !strings.Contains(names["MANIFEST"], "tree.txt") {
		t.Error("MANIFEST misses data entry")
	}
	versioned := 0
	for n := range names {
		if strings.HasPrefix(n, "tree.txt") {
			versioned++
		}
	}
	if versioned != 2 {
		t.Errorf("expected 2 tree.txt entries, got %d", versioned)
	}
}

func TestReportNil(t *testing.T) {
	var r *Report
	r.Store("a", "b")
	r.StoreData("a", nil)
	if r.Name() != "" {
		t.Error("nil report must have empty name")
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close() on nil report = %v", err)
	}
}

func TestReportStoreCollisions(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	r.Store("result.docx", "/a/result.docx")
	r.Store("result.docx", "/a/result.docx")
	r.Store("result.docx", "/b/result.docx")
	r.Store("result.docx", "/c/result.docx")

	want := map[string]string{
		"result.docx":   "/a/result.docx",
		"result.docx-2": "/b/result.docx",
		"result.docx-3": "/c/result.docx",
	}
	if len(r.entries) != len(want) {
		t.Fatalf("entries = %d, want %d", len(r.entries), len(want))
	}
	for name, path := range want {
		if got := r.entries[name].original; got != path {
			t.Errorf("entry %q = %q, want %q", name, got, path)
		}
	}
}
