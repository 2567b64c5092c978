package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestScanFiltersAndDeduplicates(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.pdf":           "pdf-a",
		"b.PNG":           "png-b",
		"notes.txt":       "skip",
		"sub/c.jpeg":      "jpeg-c",
		"sub/copy.jpg":    "pdf-a",
		".hidden/d.png":   "hidden",
		"sub/.secret.pdf": "hidden",
	})

	results, stats, err := NewDirectoryScanner(nil).Scan(context.Background(), root, nil, true)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	var got []string
	for _, r := range results {
		rel, _ := filepath.Rel(root, r.Path)
		got = append(got, filepath.ToSlash(rel))
	}
	want := []string{"a.pdf", "b.PNG", "sub/c.jpeg", "sub/copy.jpg"}
	if len(got) != len(want) {
		t.Fatalf("paths = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("paths[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if !results[3].Deduplicated || results[0].Deduplicated {
		t.Errorf("dedup flags = %v, %v", results[0].Deduplicated, results[3].Deduplicated)
	}
	if results[0].HashHex != results[3].HashHex || len(results[0].HashHex) != 64 {
		t.Errorf("hashes = %q, %q", results[0].HashHex, results[3].HashHex)
	}
	if stats.Scanned != 5 || stats.Matched != 4 || stats.Succeeded != 4 || stats.Deduplicated != 1 || stats.Failed != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestScanIncludesHiddenWhenAsked(t *testing.T) {
	root := writeTree(t, map[string]string{".hidden/d.png": "x", "e.pdf": "y"})
	results, _, err := NewDirectoryScanner(nil).Scan(context.Background(), root, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("got %d results, want 2", len(results))
	}
}

func TestScanCustomExtensions(t *testing.T) {
	root := writeTree(t, map[string]string{"a.pdf": "1", "b.png": "2"})
	results, stats, err := NewDirectoryScanner(nil).Scan(context.Background(), root, []string{".PDF"}, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || filepath.Base(results[0].Path) != "a.pdf" || stats.Matched != 1 {
		t.Errorf("results = %+v stats = %+v", results, stats)
	}
}

func TestScanErrors(t *testing.T) {
	s := NewDirectoryScanner(nil)
	if _, _, err := s.Scan(context.Background(), "  ", nil, true); err == nil {
		t.Error("expected error for empty root")
	}
	if _, _, err := s.Scan(context.Background(), filepath.Join(t.TempDir(), "missing"), nil, true); err == nil {
		t.Error("expected error for missing root")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	root := writeTree(t, map[string]string{"a.pdf": "1"})
	if _, _, err := s.Scan(ctx, root, nil, true); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestLoad(t *testing.T) {
	root := writeTree(t, map[string]string{"dir/Scan.PDF": "%PDF"})
	doc, err := Load(filepath.Join(root, "dir", "Scan.PDF"))
	if err != nil {
		t.Fatal(err)
	}
	if doc.Filename != "Scan.PDF" || string(doc.Content) != "%PDF" || doc.Ext() != "pdf" {
		t.Errorf("doc = %+v", doc)
	}
	if _, err := Load(filepath.Join(root, "nope.pdf")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestIsHidden(t *testing.T) {
	for path, want := range map[string]bool{".git": true, "a/.b": true, "a/b": false, ".": false} {
		if got := IsHidden(path); got != want {
			t.Errorf("IsHidden(%q) = %v, want %v", path, got, want)
		}
	}
}
