package ocr

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"empty", "", ""},
		{"crlf", "a\r\nb\rc", "a\nb\nc"},
		{"tabs and spaces", "Nome:\t\tAna   Maria", "Nome: Ana Maria"},
		{"blank runs", "a\n\n\n\n\nb", "a\n\nb"},
		{"trailing spaces", "a   \nb  ", "a\nb"},
		{"form feed only", "\f", ""},
		{"ruled line", "Total: 10\n-------\nFim", "Total: 10\n\nFim"},
		{"keeps leading zeros", "Data: 01/02/2024", "Data: 01/02/2024"},
		{"nfc", "Enderec\u0327o", "Endere\u00e7o"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSplitLines(t *testing.T) {
	got := SplitLines("  a \n\n b\n \n")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("SplitLines = %q", got)
	}
	if SplitLines("") != nil {
		t.Errorf("empty input should give nil")
	}
}
