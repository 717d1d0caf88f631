package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeTestArchive(t *testing.T, entries map[string][]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chapter.zip")
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("Failed to create entry %s: %v", name, err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatalf("Failed to write entry %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close archive: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("Failed to write archive: %v", err)
	}
	return path
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("/library/ch1.zip"))
	assert.True(t, Supported("/library/ch1.CBZ"))
	assert.False(t, Supported("/library/ch1.rar"))
	assert.False(t, Supported("/library/chapter"))
}

func TestListSortsImageEntries(t *testing.T) {
	path := writeTestArchive(t, map[string][]byte{
		"02.png":      []byte("b"),
		"01.jpg":      []byte("a"),
		"notes.txt":   []byte("skip"),
		"sub/03.webp": []byte("c"),
	})

	r, err := Open(path)
	assert.NoError(t, err)
	defer r.Close()

	assert.Equal(t, []string{"01.jpg", "02.png", "sub/03.webp"}, r.List())
}

func TestOpenEntry(t *testing.T) {
	path := writeTestArchive(t, map[string][]byte{"01.jpg": []byte("page one")})

	r, err := Open(path)
	assert.NoError(t, err)
	defer r.Close()

	entry, err := r.OpenEntry("01.jpg")
	assert.NoError(t, err)
	data, err := io.ReadAll(entry)
	entry.Close()
	assert.NoError(t, err)
	assert.Equal(t, []byte("page one"), data)

	_, err = r.OpenEntry("missing.jpg")
	assert.Error(t, err)
}

func TestExtractAllFlattens(t *testing.T) {
	path := writeTestArchive(t, map[string][]byte{
		"01.jpg":     []byte("one"),
		"sub/02.jpg": []byte("two"),
		"readme.md":  []byte("skip"),
	})

	r, err := Open(path)
	assert.NoError(t, err)
	defer r.Close()

	dst := filepath.Join(t.TempDir(), "extracted")
	assert.NoError(t, r.ExtractAll(dst))

	entries, err := os.ReadDir(dst)
	assert.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, "00000_01.jpg", entries[0].Name())
	assert.Equal(t, "00001_02.jpg", entries[1].Name())

	data, err := os.ReadFile(filepath.Join(dst, "00001_02.jpg"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("two"), data)
}

func TestOpenMissingArchive(t *testing.T) {
	_, err := Open("/does/not/exist.zip")
	assert.Error(t, err)
}
