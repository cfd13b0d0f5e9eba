package imgutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsImageFile(t *testing.T) {
	for _, name := range []string{"a.png", "b.JPG", "c.jpeg", "d.webp", "dir/e.tiff", "f.gif", "g.bmp"} {
		assert.True(t, IsImageFile(name), name)
	}
	for _, name := range []string{"a.txt", "b", "c.png.json", ".png.part"} {
		assert.False(t, IsImageFile(name), name)
	}
}

func TestImageFormat(t *testing.T) {
	assert.Equal(t, "PNG", ImageFormat("a.png"))
	assert.Equal(t, "JPEG", ImageFormat("a.jpg"))
	assert.Equal(t, "WEBP", ImageFormat("a.WebP"))
	assert.Equal(t, "", ImageFormat("a.txt"))
}
