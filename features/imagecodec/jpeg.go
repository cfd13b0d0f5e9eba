package imagecodec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	exif "github.com/dsoprea/go-exif/v3"
	log "github.com/sirupsen/logrus"
)

var jpegExifHeader = []byte("Exif\x00\x00")

// readJPEG walks the JPEG segments before the first scan, reading the EXIF APP1
// segment and the comment (COM) segment.
func readJPEG(data []byte, img *Image) error {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return fmt.Errorf("%w: bad JPEG signature", ErrInvalidData)
	}
	exifFound := false
	offset := 2
	for offset+4 <= len(data) {
		if data[offset] != 0xFF {
			return fmt.Errorf("expected marker at offset %d, got 0x%02X", offset, data[offset])
		}
		marker := data[offset+1]
		switch {
		case marker == 0xFF: // fill byte
			offset++
			continue
		case marker == 0x01, marker >= 0xD0 && marker <= 0xD8: // TEM, RSTn, SOI: no payload
			offset += 2
			continue
		case marker == 0xD9, marker == 0xDA: // EOI, SOS: no metadata after this point
			return nil
		}
		length := int(binary.BigEndian.Uint16(data[offset+2:]))
		if length < 2 || offset+2+length > len(data) {
			return fmt.Errorf("truncated segment 0x%02X at offset %d", marker, offset)
		}
		payload := data[offset+4 : offset+2+length]
		offset += 2 + length

		switch marker {
		case 0xE1:
			if exifFound || !bytes.HasPrefix(payload, jpegExifHeader) {
				continue // XMP or a second EXIF block
			}
			exifFound = true
			img.setInfo("exif", BytesField(payload))
			if err := parseExif(payload[len(jpegExifHeader):], img); err != nil {
				log.Debugf("JPEG EXIF: %v", err)
			}
		case 0xFE:
			img.setInfo("comment", BytesField(payload))
		}
	}
	return nil
}

// readEmbeddedExif locates an EXIF (TIFF) block anywhere in data: WebP EXIF chunks,
// TIFF files themselves.
func readEmbeddedExif(data []byte, img *Image) error {
	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil {
		if errors.Is(err, exif.ErrNoExif) {
			return nil
		}
		return err
	}
	img.setInfo("exif", BytesField(rawExif))
	return parseExif(rawExif, img)
}
