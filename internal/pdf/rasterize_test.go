package pdf

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"os/exec"
	"testing"

	"github.com/alisoncf/gscan/internal/common"
)

// pdftoppmStub writes one PNG per page at <prefix>-<n>.png, page n being
// n pixels wide so tests can check the order.
type pdftoppmStub struct {
	pages   int
	padded  bool
	err     error
	gotArgs []string
}

func (s *pdftoppmStub) Run(_ context.Context, _ string, _ *slog.Logger, args ...string) ([]byte, []byte, error) {
	s.gotArgs = args
	if s.err != nil {
		return nil, []byte("pdftoppm: boom"), s.err
	}
	prefix := args[len(args)-1]
	for n := 1; n <= s.pages; n++ {
		name := fmt.Sprintf("%s-%d.png", prefix, n)
		if s.padded {
			name = fmt.Sprintf("%s-%02d.png", prefix, n)
		}
		f, err := os.Create(name)
		if err != nil {
			return nil, nil, err
		}
		if err := png.Encode(f, image.NewGray(image.Rect(0, 0, n, 1))); err != nil {
			return nil, nil, err
		}
		_ = f.Close()
	}
	return nil, nil, nil
}

func TestRasterizeOrdersPagesNumerically(t *testing.T) {
	for _, padded := range []bool{false, true} {
		t.Run(fmt.Sprintf("padded=%v", padded), func(t *testing.T) {
			const n = 12
			texts := make([]string, n)
			stub := &pdftoppmStub{pages: n, padded: padded}
			r := NewPopplerRasterizer(PopplerConfig{TempDir: t.TempDir()}, stub, nil)

			pages, err := r.Rasterize(context.Background(), buildPDF(t, texts...), 0)
			if err != nil {
				t.Fatalf("Rasterize: %v", err)
			}
			if len(pages) != n {
				t.Fatalf("got %d pages, want %d", len(pages), n)
			}
			for i, p := range pages {
				if w := p.Bounds().Dx(); w != i+1 {
					t.Errorf("page %d has width %d, out of order", i+1, w)
				}
			}
			if stub.gotArgs[0] != "-r" || stub.gotArgs[1] != "200" || stub.gotArgs[2] != "-png" {
				t.Errorf("args = %q, want default dpi 200", stub.gotArgs)
			}
		})
	}
}

func TestRasterizeCleansUp(t *testing.T) {
	dir := t.TempDir()
	r := NewPopplerRasterizer(PopplerConfig{TempDir: dir}, &pdftoppmStub{pages: 2}, nil)
	if _, err := r.Rasterize(context.Background(), buildPDF(t, "", ""), 150); err != nil {
		t.Fatal(err)
	}
	r = NewPopplerRasterizer(PopplerConfig{TempDir: dir}, &pdftoppmStub{err: errors.New("exit status 1")}, nil)
	if _, err := r.Rasterize(context.Background(), buildPDF(t, ""), 150); err == nil {
		t.Fatal("expected error")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("work dirs left behind: %d", len(entries))
	}
}

func TestRasterizeErrors(t *testing.T) {
	tests := []struct {
		name    string
		content func(t *testing.T) []byte
		stub    *pdftoppmStub
		cfg     PopplerConfig
		want    error
	}{
		{
			name:    "not a pdf",
			content: func(*testing.T) []byte { return []byte("hello") },
			stub:    &pdftoppmStub{pages: 1},
			want:    common.ErrMalformedDocument,
		},
		{
			name:    "toolchain missing",
			content: func(t *testing.T) []byte { return buildPDF(t, "") },
			stub:    &pdftoppmStub{err: exec.ErrNotFound},
			want:    common.ErrRasterization,
		},
		{
			name:    "converter fails",
			content: func(t *testing.T) []byte { return buildPDF(t, "") },
			stub:    &pdftoppmStub{err: errors.New("exit status 99")},
			want:    common.ErrRasterization,
		},
		{
			name:    "page count mismatch",
			content: func(t *testing.T) []byte { return buildPDF(t, "", "", "") },
			stub:    &pdftoppmStub{pages: 2},
			want:    common.ErrRasterization,
		},
		{
			name:    "too many pages",
			content: func(t *testing.T) []byte { return buildPDF(t, "", "", "") },
			stub:    &pdftoppmStub{pages: 3},
			cfg:     PopplerConfig{MaxPages: 2},
			want:    common.ErrRasterization,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.TempDir = t.TempDir()
			r := NewPopplerRasterizer(cfg, tt.stub, nil)
			_, err := r.Rasterize(context.Background(), tt.content(t), 200)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

// TestRasterizeWithPoppler runs the installed pdftoppm, if any.
func TestRasterizeWithPoppler(t *testing.T) {
	if _, err := exec.LookPath("pdftoppm"); err != nil {
		t.Skipf("pdftoppm not installed: %v", err)
	}
	r := NewPopplerRasterizer(PopplerConfig{TempDir: t.TempDir()}, nil, nil)
	pages, err := r.Rasterize(context.Background(), buildPDF(t, "one", "two"), 50)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("got %d pages", len(pages))
	}
	if b := pages[0].Bounds(); b.Dx() == 0 || b.Dy() <= b.Dx() {
		t.Errorf("A4 portrait page rendered as %v", b)
	}
}
