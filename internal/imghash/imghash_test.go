package imghash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSHA1Hash(t *testing.T) {
	h, err := SHA1{}.Hash(strings.NewReader("hello"))
	assert.NoError(t, err)
	assert.Equal(t, "aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d", h)

	// Same bytes, same digest, regardless of where they came from.
	again, err := SHA1{}.Hash(strings.NewReader("hello"))
	assert.NoError(t, err)
	assert.Equal(t, h, again)

	other, err := SHA1{}.Hash(strings.NewReader("hello!"))
	assert.NoError(t, err)
	assert.NotEqual(t, h, other)
}

func TestIsImage(t *testing.T) {
	assert.True(t, IsImage("001.jpg"))
	assert.True(t, IsImage("cover.JPEG"))
	assert.True(t, IsImage("page.png"))
	assert.True(t, IsImage("anim.gif"))
	assert.True(t, IsImage("modern.webp"))
	assert.False(t, IsImage("notes.txt"))
	assert.False(t, IsImage("archive.zip"))
	assert.False(t, IsImage("noextension"))
}
