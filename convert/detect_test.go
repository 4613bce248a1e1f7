package convert

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMatchExport(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"bare root", `<export format_version="4">`, true},
		{"declaration", "<?xml version=\"1.0\"?>\n<export>", true},
		{"bom and comment", "\xEF\xBB\xBF<!-- exported -->\r\n<export\n>", true},
		{"doctype", `<!DOCTYPE export><export/>`, true},
		{"other root", `<?xml version="1.0"?><FictionBook>`, false},
		{"prefix only", `<exports>`, false},
		{"truncated", `<export`, false},
		{"unterminated declaration", `<?xml version="1.0"`, false},
		{"text", `export`, false},
		{"empty", ``, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchExport([]byte(tt.in)); got != tt.want {
				t.Errorf("matchExport(%q) = %v, want %v", tt.in, got, tt.want)
			}
			if got := isExportData([]byte(tt.in)); got != tt.want {
				t.Errorf("isExportData(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsExportFile(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
		return p
	}

	tests := []struct {
		path string
		want bool
	}{
		{write("a.rwexport", "anything"), true},
		{write("b.RWEXPORT", ""), true},
		{write("c.xml", sampleExport), true},
		{write("d.xml", "<html></html>"), false},
		{write("e.txt", ""), false},
	}
	for _, tt := range tests {
		got, err := isExportFile(tt.path)
		if err != nil {
			t.Errorf("isExportFile(%s) error = %v", tt.path, err)
		}
		if got != tt.want {
			t.Errorf("isExportFile(%s) = %v, want %v", filepath.Base(tt.path), got, tt.want)
		}
	}

	if _, err := isExportFile(filepath.Join(dir, "missing.xml")); err == nil {
		t.Error("missing file reported no error")
	}
}

func TestIsArchiveFile(t *testing.T) {
	dir := t.TempDir()

	fake := filepath.Join(dir, "fake.zip")
	if err := os.WriteFile(fake, []byte("not a real zip file"), 0644); err != nil {
		t.Fatal(err)
	}
	if got, err := isArchiveFile(fake); err != nil || got {
		t.Errorf("isArchiveFile(fake) = %v, %v", got, err)
	}

	real := filepath.Join(dir, "real.zip")
	writeArchive(t, real, map[string]string{"x.rwexport": sampleExport})
	if got, err := isArchiveFile(real); err != nil || !got {
		t.Errorf("isArchiveFile(real) = %v, %v", got, err)
	}

	renamed := filepath.Join(dir, "real.bin")
	if err := os.Rename(real, renamed); err != nil {
		t.Fatal(err)
	}
	if got, _ := isArchiveFile(renamed); got {
		t.Error("archive without .zip extension detected")
	}
}
