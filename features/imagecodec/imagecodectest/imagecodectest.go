// Package imagecodectest builds small in-memory image files with embedded metadata,
// for use in tests.
package imagecodectest

import (
	"bytes"
	"cmp"
	"compress/zlib"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/jpeg"
	"image/png"
	"slices"
)

// TIFF field types.
const (
	TypeByte      = 1
	TypeASCII     = 2
	TypeShort     = 3
	TypeLong      = 4
	TypeUndefined = 7
)

// Entry is one IFD entry.
type Entry struct {
	Tag   uint16
	Type  uint16
	Value []byte // raw value bytes; for TypeASCII include the trailing NUL
}

func ASCII(tag uint16, s string) Entry {
	return Entry{Tag: tag, Type: TypeASCII, Value: append([]byte(s), 0)}
}

func Undefined(tag uint16, b []byte) Entry {
	return Entry{Tag: tag, Type: TypeUndefined, Value: b}
}

func Bytes(tag uint16, b []byte) Entry {
	return Entry{Tag: tag, Type: TypeByte, Value: b}
}

// TIFF builds a little-endian TIFF (EXIF) block with the given IFD0 entries and,
// if exifIFD is not empty, an Exif sub-IFD linked from IFD0 by tag 0x8769.
func TIFF(ifd0 []Entry, exifIFD []Entry) []byte {
	le := binary.LittleEndian
	if len(exifIFD) > 0 {
		ifd0 = append(append([]Entry{}, ifd0...), Entry{Tag: 0x8769, Type: TypeLong, Value: make([]byte, 4)})
		slices.SortFunc(ifd0, func(a, b Entry) int { return cmp.Compare(a.Tag, b.Tag) })
	}
	ifd0Size := ifdSize(ifd0)
	buf := make([]byte, 8)
	copy(buf, "II")
	le.PutUint16(buf[2:], 42)
	le.PutUint32(buf[4:], 8)

	exifOffset := uint32(8 + ifd0Size)
	buf = appendIFD(buf, ifd0, func(e Entry) []byte {
		if e.Tag == 0x8769 && len(exifIFD) > 0 {
			v := make([]byte, 4)
			le.PutUint32(v, exifOffset)
			return v
		}
		return e.Value
	})
	if len(exifIFD) > 0 {
		buf = appendIFD(buf, exifIFD, func(e Entry) []byte { return e.Value })
	}
	return buf
}

func ifdSize(entries []Entry) int {
	size := 2 + 12*len(entries) + 4
	for _, e := range entries {
		if len(e.Value) > 4 {
			size += len(e.Value) + len(e.Value)%2
		}
	}
	return size
}

// appendIFD writes an IFD at the end of buf, followed by its out-of-line values.
func appendIFD(buf []byte, entries []Entry, value func(Entry) []byte) []byte {
	le := binary.LittleEndian
	start := len(buf)
	dataOffset := start + 2 + 12*len(entries) + 4
	var data []byte
	buf = le.AppendUint16(buf, uint16(len(entries)))
	for _, e := range entries {
		v := value(e)
		count := len(v)
		switch e.Type {
		case TypeShort:
			count /= 2
		case TypeLong:
			count /= 4
		}
		buf = le.AppendUint16(buf, e.Tag)
		buf = le.AppendUint16(buf, e.Type)
		buf = le.AppendUint32(buf, uint32(count))
		if len(v) <= 4 {
			inline := make([]byte, 4)
			copy(inline, v)
			buf = append(buf, inline...)
			continue
		}
		buf = le.AppendUint32(buf, uint32(dataOffset+len(data)))
		data = append(data, v...)
		if len(v)%2 == 1 {
			data = append(data, 0)
		}
	}
	buf = le.AppendUint32(buf, 0) // no next IFD
	return append(buf, data...)
}

// Chunk returns a complete PNG chunk (length, type, data, CRC).
func Chunk(chunkType string, data []byte) []byte {
	buf := binary.BigEndian.AppendUint32(nil, uint32(len(data)))
	buf = append(buf, chunkType...)
	buf = append(buf, data...)
	return binary.BigEndian.AppendUint32(buf, crc32.ChecksumIEEE(buf[4:]))
}

func TEXt(key, value string) []byte {
	return Chunk("tEXt", append(append([]byte(key), 0), value...))
}

func ZTXt(key, value string) []byte {
	data := append([]byte(key), 0, 0)
	return Chunk("zTXt", append(data, deflate([]byte(value))...))
}

func ITXt(key, value string, compressed bool) []byte {
	data := append([]byte(key), 0)
	text := []byte(value)
	if compressed {
		data = append(data, 1, 0)
		text = deflate(text)
	} else {
		data = append(data, 0, 0)
	}
	data = append(data, 0, 0) // empty language tag and translated keyword
	return Chunk("iTXt", append(data, text...))
}

func deflate(b []byte) []byte {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	zw.Write(b)
	zw.Close()
	return buf.Bytes()
}

// PNG encodes a small RGBA image and inserts the given chunks right after IHDR.
func PNG(chunks ...[]byte) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	for i := range img.Pix {
		img.Pix[i] = 0x80 // translucent, so the encoder keeps the alpha channel
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	encoded := buf.Bytes()
	const ihdrEnd = 8 + 4 + 4 + 13 + 4
	out := append([]byte{}, encoded[:ihdrEnd]...)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return append(out, encoded[ihdrEnd:]...)
}

// JPEG encodes a small grayscale image and inserts, after SOI, an APP1 EXIF segment
// holding tiffBlock (if not nil) and a COM segment holding comment (if not empty).
func JPEG(tiffBlock []byte, comment string) []byte {
	img := image.NewGray(image.Rect(0, 0, 5, 2))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 20)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		panic(err)
	}
	encoded := buf.Bytes()
	out := append([]byte{}, encoded[:2]...)
	if tiffBlock != nil {
		out = append(out, Segment(0xE1, append([]byte("Exif\x00\x00"), tiffBlock...))...)
	}
	if comment != "" {
		out = append(out, Segment(0xFE, []byte(comment))...)
	}
	return append(out, encoded[2:]...)
}

// Segment returns a JPEG marker segment.
func Segment(marker byte, payload []byte) []byte {
	buf := []byte{0xFF, marker}
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(payload)+2))
	return append(buf, payload...)
}

// UTF16LE encodes s (BMP characters only) as UTF-16LE without BOM.
func UTF16LE(s string) []byte {
	var b []byte
	for _, r := range s {
		b = binary.LittleEndian.AppendUint16(b, uint16(r))
	}
	return b
}

// UserComment builds an EXIF UserComment value: 8-byte charset prefix then payload.
func UserComment(prefix string, payload []byte) []byte {
	header := make([]byte, 8)
	copy(header, prefix)
	return append(header, payload...)
}
