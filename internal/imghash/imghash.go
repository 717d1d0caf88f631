// Package imghash computes the content hashes used for duplicate and
// identity checks, one fixed-size digest per page image.
package imghash

import (
	"crypto/sha1"
	"encoding/hex"
	"io"
	"path/filepath"
	"strings"
)

// Hasher turns one open page-image stream into a hash value.
type Hasher interface {
	Hash(r io.Reader) (string, error)
}

// SHA1 digests the raw image bytes. Identical pages always produce the
// same value regardless of filename or location.
type SHA1 struct{}

func (SHA1) Hash(r io.Reader) (string, error) {
	h := sha1.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
}

// IsImage reports whether name looks like a recognized page image.
func IsImage(name string) bool {
	return imageExts[strings.ToLower(filepath.Ext(name))]
}
