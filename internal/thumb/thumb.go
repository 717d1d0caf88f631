// Package thumb generates reference thumbnails for galleries. Generation
// is synchronous from the caller's point of view but bounded: it runs in a
// short-lived goroutine and falls back to the shared placeholder image
// when it fails or exceeds the timeout, so an insert is never aborted by
// a broken cover image.
package thumb

import (
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "image/gif"
	_ "image/png"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"gallerybase/internal/archive"
	"gallerybase/internal/imghash"
)

// Generator scales the first page of a chapter into the cache dir.
type Generator struct {
	Width       int
	Height      int
	CacheDir    string
	Placeholder string // shared "no image" path, returned on any failure
	Timeout     time.Duration
	Logger      *logrus.Logger
}

// Generate produces a thumbnail with a unique filename in the cache dir
// and returns its absolute path. It never returns an error: any failure,
// including a timeout, resolves to the placeholder path.
func (g *Generator) Generate(chapterPath string) string {
	timeout := g.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	done := make(chan string, 1)
	go func() {
		path, err := g.generate(chapterPath)
		if err != nil {
			g.Logger.Warnf("Thumbnail generation for %s failed: %v", chapterPath, err)
			path = g.placeholder()
		}
		done <- path
	}()

	select {
	case path := <-done:
		return path
	case <-time.After(timeout):
		g.Logger.Warnf("Thumbnail generation for %s timed out", chapterPath)
		return g.placeholder()
	}
}

// IsPlaceholder reports whether path is the shared no-image thumbnail,
// which must never be deleted when a gallery is removed.
func (g *Generator) IsPlaceholder(path string) bool {
	return path == g.placeholder()
}

func (g *Generator) placeholder() string {
	abs, err := filepath.Abs(g.Placeholder)
	if err != nil {
		return g.Placeholder
	}
	return abs
}

func (g *Generator) generate(chapterPath string) (string, error) {
	if err := os.MkdirAll(g.CacheDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create cache dir: %w", err)
	}

	src, err := openFirstPage(chapterPath)
	if err != nil {
		return "", err
	}
	defer src.Close()

	img, _, err := image.Decode(src)
	if err != nil {
		return "", fmt.Errorf("failed to decode cover image: %w", err)
	}

	scaled := scale(img, g.Width, g.Height)

	name := ulid.Make().String() + ".jpg"
	outPath := filepath.Join(g.CacheDir, name)
	out, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("failed to create thumbnail file: %w", err)
	}
	defer out.Close()

	if err := jpeg.Encode(out, scaled, &jpeg.Options{Quality: 90}); err != nil {
		os.Remove(outPath)
		return "", fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return filepath.Abs(outPath)
}

// openFirstPage resolves a chapter path (archive or directory) to a reader
// over its first image.
func openFirstPage(chapterPath string) (io.ReadCloser, error) {
	if archive.Supported(chapterPath) {
		r, err := archive.Open(chapterPath)
		if err != nil {
			return nil, err
		}
		names := r.List()
		if len(names) == 0 {
			r.Close()
			return nil, fmt.Errorf("archive %s contains no images", chapterPath)
		}
		entry, err := r.OpenEntry(names[0])
		if err != nil {
			r.Close()
			return nil, err
		}
		return &archiveEntry{ReadCloser: entry, reader: r}, nil
	}

	entries, err := os.ReadDir(chapterPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read chapter dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && imghash.IsImage(e.Name()) {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("chapter dir %s contains no images", chapterPath)
	}
	sort.Strings(names)
	return os.Open(filepath.Join(chapterPath, names[0]))
}

// archiveEntry keeps the parent archive open for as long as the entry is
// being read.
type archiveEntry struct {
	io.ReadCloser
	reader *archive.Reader
}

func (a *archiveEntry) Close() error {
	err := a.ReadCloser.Close()
	if cerr := a.reader.Close(); err == nil {
		err = cerr
	}
	return err
}

// scale fits img into a w x h box keeping the aspect ratio.
func scale(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return img
	}
	rw := float64(w) / float64(b.Dx())
	rh := float64(h) / float64(b.Dy())
	r := rw
	if rh < rw {
		r = rh
	}
	dw := int(float64(b.Dx()) * r)
	dh := int(float64(b.Dy()) * r)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
