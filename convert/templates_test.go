package convert

import (
	"strings"
	"testing"

	"rwout/config"
)

func TestExpandTemplate(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		want    string
		wantErr bool
	}{
		{"plain text", "static", "static", false},
		{"fields", "{{ .Title }}-{{ .Format }}-{{ .SourceFile }}", "Lost Mine-markdown-lost", false},
		{"counts", "{{ .Topics }} topics, {{ len .Roots }} root", "2 topics, 1 root", false},
		{"context", "{{ .Context }}", string(config.OutputNameTemplateFieldName), false},
		{"sprig", `{{ .Title | lower | replace " " "_" }}`, "lost_mine", false},
		{"join roots", `{{ join "," .Roots }}`, "Inn", false},
		{"parse error", "{{ .Title", "", true},
		{"exec error", "{{ .Missing }}", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandTemplate(testFrontPage(), "dir/lost.rwexport", config.OutputNameTemplateFieldName, tt.field, config.OutputFmtMarkdown)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expandTemplate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if tt.name == "parse error" && !strings.Contains(err.Error(), "unable to parse") {
					t.Errorf("unexpected error text: %v", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("expandTemplate() = %q, want %q", got, tt.want)
			}
		})
	}
}
