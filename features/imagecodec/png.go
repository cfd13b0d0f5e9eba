package imagecodec

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"

	"github.com/sagan/promptmeta/util/stringutil"
)

const (
	// Max decompressed size of one zTXt / iTXt / iCCP chunk.
	maxTextChunk = 1 << 20
	// Max total size of text kept from one file.
	maxTextMemory = 64 * maxTextChunk
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// readPNG walks the chunks of a PNG file and collects the text chunks into img.Info.
// CRCs are not verified. A truncated file keeps the chunks read so far.
func readPNG(data []byte, img *Image) error {
	if !bytes.HasPrefix(data, pngSignature) {
		return fmt.Errorf("%w: bad PNG signature", ErrInvalidData)
	}
	textMemory := 0
	offset := len(pngSignature)
	for offset+8 <= len(data) {
		length := binary.BigEndian.Uint32(data[offset:])
		chunkType := string(data[offset+4 : offset+8])
		start := offset + 8
		if uint64(length) > uint64(len(data)-start) {
			return fmt.Errorf("truncated %q chunk at offset %d", chunkType, offset)
		}
		chunk := data[start : start+int(length)]
		offset = start + int(length) + 4 // CRC

		var key string
		var value Field
		var err error
		switch chunkType {
		case "IHDR":
			if mode := pngColorMode(chunk); mode != "" {
				img.Mode = mode
			}
			continue
		case "tEXt":
			key, value, err = parseTEXt(chunk)
		case "zTXt":
			key, value, err = parseZTXt(chunk)
		case "iTXt":
			key, value, err = parseITXt(chunk)
		case "iCCP":
			key, value, err = parseICCP(chunk)
		case "eXIf":
			key, value = "exif", BytesField(chunk)
			if err := parseExif(chunk, img); err != nil {
				log.Debugf("PNG eXIf chunk: %v", err)
			}
		case "IEND":
			return nil
		default:
			continue
		}
		if err != nil {
			log.Debugf("skip PNG %s chunk: %v", chunkType, err)
			continue
		}
		textMemory += len(value.Bytes())
		if textMemory > maxTextMemory {
			return fmt.Errorf("too much text in PNG chunks (> %d bytes)", maxTextMemory)
		}
		img.setInfo(key, value)
	}
	return nil
}

// IHDR: width(4) height(4) bit-depth(1) color-type(1) ...
func pngColorMode(ihdr []byte) string {
	if len(ihdr) < 13 {
		return ""
	}
	bitDepth, colorType := ihdr[8], ihdr[9]
	switch colorType {
	case 0:
		if bitDepth == 16 {
			return "I;16"
		}
		return "L"
	case 2:
		return "RGB"
	case 3:
		return "P"
	case 4:
		return "LA"
	case 6:
		return "RGBA"
	}
	return ""
}

// tEXt: keyword \0 text.
// tEXt is defined as Latin-1, but generators commonly write UTF-8; valid UTF-8 is kept as is.
func parseTEXt(chunk []byte) (string, Field, error) {
	keyword, text, found := bytes.Cut(chunk, []byte{0})
	if !found || len(keyword) == 0 {
		return "", Field{}, fmt.Errorf("missing keyword")
	}
	return stringutil.DecodeLatin1(keyword), TextField(decodeChunkText(text)), nil
}

// zTXt: keyword \0 compression-method compressed-text.
func parseZTXt(chunk []byte) (string, Field, error) {
	keyword, rest, found := bytes.Cut(chunk, []byte{0})
	if !found || len(keyword) == 0 || len(rest) < 1 {
		return "", Field{}, fmt.Errorf("missing keyword")
	}
	if rest[0] != 0 {
		return "", Field{}, fmt.Errorf("unknown compression method %d", rest[0])
	}
	text, err := inflate(rest[1:])
	if err != nil {
		return "", Field{}, err
	}
	return stringutil.DecodeLatin1(keyword), TextField(decodeChunkText(text)), nil
}

// iTXt: keyword \0 compression-flag compression-method language \0 translated-keyword \0 text.
func parseITXt(chunk []byte) (string, Field, error) {
	keyword, rest, found := bytes.Cut(chunk, []byte{0})
	if !found || len(keyword) == 0 || len(rest) < 2 {
		return "", Field{}, fmt.Errorf("missing keyword")
	}
	compressed, method := rest[0], rest[1]
	rest = rest[2:]
	if _, rest, found = bytes.Cut(rest, []byte{0}); !found {
		return "", Field{}, fmt.Errorf("missing language tag")
	}
	if _, rest, found = bytes.Cut(rest, []byte{0}); !found {
		return "", Field{}, fmt.Errorf("missing translated keyword")
	}
	text := rest
	if compressed != 0 {
		if method != 0 {
			return "", Field{}, fmt.Errorf("unknown compression method %d", method)
		}
		var err error
		if text, err = inflate(text); err != nil {
			return "", Field{}, err
		}
	}
	if !utf8.Valid(text) {
		return "", Field{}, fmt.Errorf("text is not UTF-8")
	}
	return stringutil.DecodeLatin1(keyword), TextField(string(text)), nil
}

// iCCP: profile-name \0 compression-method compressed-profile.
func parseICCP(chunk []byte) (string, Field, error) {
	_, rest, found := bytes.Cut(chunk, []byte{0})
	if !found || len(rest) < 1 || rest[0] != 0 {
		return "", Field{}, fmt.Errorf("malformed iCCP chunk")
	}
	profile, err := inflate(rest[1:])
	if err != nil {
		return "", Field{}, err
	}
	return "icc_profile", BytesField(profile), nil
}

func inflate(compressed []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	data, err := io.ReadAll(io.LimitReader(zr, maxTextChunk+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxTextChunk {
		return nil, fmt.Errorf("decompressed data too large (> %d bytes)", maxTextChunk)
	}
	return data, nil
}

func decodeChunkText(text []byte) string {
	return stringutil.DecodeUTF8OrLatin1(text)
}
