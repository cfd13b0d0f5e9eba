package imgutil

import (
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// Image file extensions not known to imaging but readable by features/imagecodec.
var extraImageExts = []string{".webp"}

// IsImageFile reports whether name has the extension of an image format
// (jpg / jpeg / png / gif / tif / tiff / bmp / webp).
func IsImageFile(name string) bool {
	if _, err := imaging.FormatFromFilename(name); err == nil {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range extraImageExts {
		if ext == e {
			return true
		}
	}
	return false
}

// ImageFormat returns the upper case format name of an image file name, e.g. "JPEG", "PNG",
// or "" if it's not an image file.
func ImageFormat(name string) string {
	if format, err := imaging.FormatFromFilename(name); err == nil {
		return format.String()
	}
	if IsImageFile(name) {
		return strings.ToUpper(strings.TrimPrefix(filepath.Ext(name), "."))
	}
	return ""
}
