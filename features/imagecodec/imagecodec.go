// Package imagecodec reads the container level of an image file: its format, size,
// color mode, the text dictionary (PNG text chunks, JPEG comment) and the EXIF tags.
// Pixel data is never decoded.
package imagecodec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	ErrTooLarge    = errors.New("image file exceeds size limit")
	ErrUnsupported = errors.New("unsupported image format")
	ErrInvalidData = errors.New("invalid image data")
)

// Field is a metadata value that is either text or an opaque byte string.
type Field struct {
	text   string
	raw    []byte
	isText bool
}

func TextField(s string) Field {
	return Field{text: s, isText: true}
}

func BytesField(b []byte) Field {
	return Field{raw: b}
}

// Text returns the value and true if f holds text.
func (f Field) Text() (string, bool) {
	return f.text, f.isText
}

// Bytes returns the raw bytes of f. For a text field it's the UTF-8 encoding.
func (f Field) Bytes() []byte {
	if f.isText {
		return []byte(f.text)
	}
	return f.raw
}

func (f Field) IsText() bool {
	return f.isText
}

func (f Field) String() string {
	if f.isText {
		return f.text
	}
	return fmt.Sprintf("<bytes: %d bytes>", len(f.raw))
}

// Image is the decoded container metadata of one image file.
type Image struct {
	Format string // "PNG", "JPEG", "WEBP", "GIF", "BMP", "TIFF"
	Width  int
	Height int
	Mode   string // color mode, e.g. "RGB", "RGBA", "L", "P"
	// Info is the text dictionary: PNG tEXt / zTXt / iTXt chunks and a few binary entries
	// ("exif", "icc_profile", "comment").
	Info map[string]Field
	// InfoKeys lists Info keys in the order they first appeared in the file.
	InfoKeys []string
	// ExifTags holds the tags of the primary IFD (IFD0).
	ExifTags map[uint16]Field
	// ExifIFD holds the tags of the Exif sub-IFD (pointer tag 0x8769).
	ExifIFD map[uint16]Field
}

func newImage() *Image {
	return &Image{
		Info:     map[string]Field{},
		ExifTags: map[uint16]Field{},
		ExifIFD:  map[uint16]Field{},
	}
}

func (img *Image) setInfo(key string, value Field) {
	if _, ok := img.Info[key]; !ok {
		img.InfoKeys = append(img.InfoKeys, key)
	}
	img.Info[key] = value
}

// InfoText returns Info[key] if it's present and is text.
func (img *Image) InfoText(key string) (string, bool) {
	field, ok := img.Info[key]
	if !ok {
		return "", false
	}
	return field.Text()
}

// Decode reads an image file from r, at most maxSize bytes.
func Decode(r io.Reader, maxSize int64) (*Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("%w (%d bytes)", ErrTooLarge, maxSize)
	}
	return DecodeBytes(data)
}

// DecodeBytes parses the container metadata of an in-memory image file.
// Damaged metadata segments are skipped; an error is returned only if the file
// is not a recognizable image.
func DecodeBytes(data []byte) (*Image, error) {
	img := newImage()
	mimeType := detectContentType(data)
	cfg, format, configErr := image.DecodeConfig(bytes.NewReader(data))
	if configErr == nil {
		img.Format = strings.ToUpper(format)
		img.Width = cfg.Width
		img.Height = cfg.Height
		img.Mode = colorMode(cfg.ColorModel)
	} else {
		log.Debugf("image config: %v", configErr)
	}

	var err error
	switch mimeType {
	case "image/png":
		img.Format = "PNG"
		err = readPNG(data, img)
	case "image/jpeg":
		img.Format = "JPEG"
		err = readJPEG(data, img)
	case "image/webp", "image/tiff":
		if img.Format == "" {
			img.Format = strings.ToUpper(strings.TrimPrefix(mimeType, "image/"))
		}
		err = readEmbeddedExif(data, img)
	default:
		if configErr != nil {
			return nil, fmt.Errorf("%w (%s): %w", ErrUnsupported, mimeType, configErr)
		}
	}
	if err != nil {
		if errors.Is(err, ErrInvalidData) {
			return nil, err
		}
		log.Debugf("%s metadata: %v", img.Format, err)
	}
	return img, nil
}

func detectContentType(data []byte) string {
	if bytes.HasPrefix(data, []byte("II*\x00")) || bytes.HasPrefix(data, []byte("MM\x00*")) {
		return "image/tiff"
	}
	return http.DetectContentType(data)
}

// colorMode names a color model the way common imaging tools name modes.
func colorMode(model color.Model) string {
	if _, ok := model.(color.Palette); ok {
		return "P"
	}
	switch model {
	case color.RGBAModel, color.NRGBAModel, color.RGBA64Model, color.NRGBA64Model, color.NYCbCrAModel:
		return "RGBA"
	case color.YCbCrModel:
		return "RGB"
	case color.GrayModel:
		return "L"
	case color.Gray16Model:
		return "I;16"
	case color.CMYKModel:
		return "CMYK"
	case color.AlphaModel, color.Alpha16Model:
		return "A"
	}
	return ""
}
