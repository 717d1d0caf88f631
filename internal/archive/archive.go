// Package archive reads chapter archives (zip/cbz) so the thumbnail
// generator and the hash store can treat archived and plain-directory
// chapters the same way.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gallerybase/internal/imghash"
)

var archiveExts = map[string]bool{
	".zip": true,
	".cbz": true,
}

// Supported reports whether path has a readable archive extension.
func Supported(path string) bool {
	return archiveExts[strings.ToLower(filepath.Ext(path))]
}

// Reader lists and extracts the page images of one chapter archive.
type Reader struct {
	path string
	zr   *zip.ReadCloser
}

// Open opens the archive at path.
func Open(path string) (*Reader, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", path, err)
	}
	return &Reader{path: path, zr: zr}, nil
}

func (r *Reader) Close() error {
	return r.zr.Close()
}

// List returns the archive's image entry names sorted ascending, which is
// the page order for chapter archives.
func (r *Reader) List() []string {
	names := make([]string, 0, len(r.zr.File))
	for _, f := range r.zr.File {
		if f.FileInfo().IsDir() || !imghash.IsImage(f.Name) {
			continue
		}
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}

// OpenEntry opens one entry by its archive name.
func (r *Reader) OpenEntry(name string) (io.ReadCloser, error) {
	for _, f := range r.zr.File {
		if f.Name == name {
			return f.Open()
		}
	}
	return nil, fmt.Errorf("entry %s not found in %s", name, r.path)
}

// ExtractAll writes every image entry into dst, flattened to base names so
// the destination reads like a plain chapter directory. Nested directory
// structure inside the archive is not preserved.
func (r *Reader) ExtractAll(dst string) error {
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return fmt.Errorf("failed to create extraction dir %s: %w", dst, err)
	}
	for i, name := range r.List() {
		src, err := r.OpenEntry(name)
		if err != nil {
			return err
		}
		// Index prefix keeps page order and avoids base-name collisions
		// between subdirectories.
		target := filepath.Join(dst, fmt.Sprintf("%05d_%s", i, filepath.Base(name)))
		out, err := os.Create(target)
		if err != nil {
			src.Close()
			return fmt.Errorf("failed to create %s: %w", target, err)
		}
		_, err = io.Copy(out, src)
		src.Close()
		out.Close()
		if err != nil {
			return fmt.Errorf("failed to extract %s: %w", name, err)
		}
	}
	return nil
}
