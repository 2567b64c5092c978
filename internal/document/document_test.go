package document

import (
	"testing"

	"github.com/alisoncf/gscan/constants"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		want constants.FileFormat
	}{
		{"scan.pdf", constants.PDF},
		{"SCAN.PDF", constants.PDF},
		{"photo.jpg", constants.IMAGE},
		{"photo.JPEG", constants.IMAGE},
		{"dir.v2/photo.png", constants.IMAGE},
		{"notes.txt", constants.UNKNOWN},
		{"archive.tar.gz", constants.UNKNOWN},
		{"noext", constants.UNKNOWN},
		{"", constants.UNKNOWN},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := New(tt.name, nil).Format(); got != tt.want {
				t.Errorf("Format(%q) = %s, want %s", tt.name, got, tt.want)
			}
		})
	}
}

func TestExt(t *testing.T) {
	if got := New("Recibo.JPG", nil).Ext(); got != "jpg" {
		t.Errorf("Ext = %q, want jpg", got)
	}
}
