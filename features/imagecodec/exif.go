package imagecodec

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	exif "github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
	"github.com/rwcarlsen/goexif/tiff"
	log "github.com/sirupsen/logrus"
)

// IFD paths as reported by go-exif.
const (
	IFDPathRoot = "IFD"
	IFDPathExif = "IFD/Exif"
)

// TagExifIFDPointer is the IFD0 tag holding the offset of the Exif sub-IFD.
const TagExifIFDPointer = 0x8769

// parseExif reads the IFD0 and Exif sub-IFD tags of a raw EXIF block (starting with
// the TIFF header) into img.
// ASCII values are kept as text, numeric values as their formatted text, the rest
// (UNDEFINED, BYTE) as raw bytes, byte for byte.
func parseExif(rawExif []byte, img *Image) error {
	err := parseExifTiff(rawExif, img)
	if err == nil {
		return nil
	}
	log.Debugf("goexif: %v; retrying with go-exif", err)
	return parseExifFlat(rawExif, img)
}

func parseExifTiff(rawExif []byte, img *Image) error {
	t, err := tiff.Decode(bytes.NewReader(rawExif))
	if err != nil {
		return fmt.Errorf("goexif: %w", err)
	}
	if len(t.Dirs) == 0 {
		return nil
	}
	var exifOffset int64 = -1
	for _, tag := range t.Dirs[0].Tags {
		img.ExifTags[tag.Id] = tiffTagField(tag)
		if tag.Id == TagExifIFDPointer {
			if v, err := tag.Int64(0); err == nil {
				exifOffset = v
			}
		}
	}
	if exifOffset < 0 || exifOffset >= int64(len(rawExif)) {
		return nil
	}
	r := bytes.NewReader(rawExif)
	if _, err := r.Seek(exifOffset, io.SeekStart); err != nil {
		return err
	}
	dir, _, err := tiff.DecodeDir(r, t.Order)
	if err != nil {
		return fmt.Errorf("goexif: Exif sub-IFD: %w", err)
	}
	for _, tag := range dir.Tags {
		img.ExifIFD[tag.Id] = tiffTagField(tag)
	}
	return nil
}

// parseExifFlat is the go-exif reader. It tolerates some damage goexif rejects,
// but re-encodes UNDEFINED values it knows (e.g. UserComment).
func parseExifFlat(rawExif []byte, img *Image) error {
	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return fmt.Errorf("go-exif: %w", err)
	}
	for _, entry := range entries {
		var target map[uint16]Field
		switch entry.IfdPath {
		case IFDPathRoot:
			target = img.ExifTags
		case IFDPathExif:
			target = img.ExifIFD
		default:
			continue
		}
		switch entry.TagTypeId {
		case exifcommon.TypeAscii, exifcommon.TypeAsciiNoNul:
			if s, ok := entry.Value.(string); ok {
				target[entry.TagId] = TextField(s)
			} else {
				target[entry.TagId] = TextField(strings.TrimRight(string(entry.ValueBytes), "\x00"))
			}
		case exifcommon.TypeUndefined, exifcommon.TypeByte:
			target[entry.TagId] = BytesField(entry.ValueBytes)
		default:
			target[entry.TagId] = TextField(entry.Formatted)
		}
	}
	return nil
}

func tiffTagField(tag *tiff.Tag) Field {
	switch tag.Type {
	case tiff.DTAscii:
		if s, err := tag.StringVal(); err == nil {
			return TextField(s)
		}
		return TextField(strings.TrimRight(string(tag.Val), "\x00"))
	case tiff.DTUndefined, tiff.DTByte:
		return BytesField(tag.Val)
	}
	return TextField(tag.String())
}

// Names of the tags most commonly seen in generated images and camera files.
// Read-only.
var tagNames = map[uint16]string{
	0x010E: "ImageDescription",
	0x010F: "Make",
	0x0110: "Model",
	0x0112: "Orientation",
	0x011A: "XResolution",
	0x011B: "YResolution",
	0x0128: "ResolutionUnit",
	0x0131: "Software",
	0x0132: "DateTime",
	0x013B: "Artist",
	0x0213: "YCbCrPositioning",
	0x8298: "Copyright",
	0x8769: "ExifOffset",
	0x8825: "GPSInfo",
	0x829A: "ExposureTime",
	0x829D: "FNumber",
	0x8827: "ISOSpeedRatings",
	0x9000: "ExifVersion",
	0x9003: "DateTimeOriginal",
	0x9004: "DateTimeDigitized",
	0x9101: "ComponentsConfiguration",
	0x920A: "FocalLength",
	0x927C: "MakerNote",
	0x9286: "UserComment",
	0x9C9B: "XPTitle",
	0x9C9C: "XPComment",
	0x9C9D: "XPAuthor",
	0x9C9E: "XPKeywords",
	0x9C9F: "XPSubject",
	0xA000: "FlashPixVersion",
	0xA001: "ColorSpace",
	0xA002: "ExifImageWidth",
	0xA003: "ExifImageHeight",
	0xA005: "ExifInteroperabilityOffset",
	0xA420: "ImageUniqueID",
}

var (
	tagIndex   = exif.NewTagIndex()
	tagIndexMu sync.Mutex
)

// TagName returns a human name of an EXIF tag, or its decimal id if unknown.
func TagName(ifdPath string, id uint16) string {
	if name, ok := tagNames[id]; ok {
		return name
	}
	ii := exifcommon.IfdStandardIfdIdentity
	if ifdPath == IFDPathExif {
		ii = exifcommon.IfdExifStandardIfdIdentity
	}
	tagIndexMu.Lock()
	it, err := tagIndex.Get(ii, id)
	tagIndexMu.Unlock()
	if err == nil && it != nil {
		return it.Name
	}
	return strconv.Itoa(int(id))
}
