// Package exifcomment decodes EXIF comment tags (UserComment, XPComment) written by
// image generation tools, which are inconsistent about the character set they use.
package exifcomment

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/unicode"

	"github.com/sagan/promptmeta/features/imagecodec"
	"github.com/sagan/promptmeta/util/stringutil"
)

const (
	// TagUserComment lives in the Exif sub-IFD.
	TagUserComment = 37510
	// IFDExif is the IFD0 tag pointing to the Exif sub-IFD.
	IFDExif             = 0x8769
	TagXPComment        = 0x9C9C
	TagImageDescription = 270
)

// 8-byte character code at the start of a UserComment value.
var (
	prefixUnicode   = []byte("UNICODE\x00")
	prefixASCII     = []byte("ASCII\x00\x00\x00")
	prefixJIS       = []byte("JIS\x00\x00\x00\x00\x00")
	prefixUndefined = make([]byte, 8)
)

const (
	EncodingUTF16LE = "utf-16le"
	EncodingUTF16BE = "utf-16be"
	EncodingUTF16   = "utf-16"
	EncodingUTF8    = "utf-8"
	EncodingLatin1  = "iso-8859-1"
	EncodingText    = "text" // the tag was stored as ASCII text
)

// Result is a decoded comment.
type Result struct {
	Text string
	// Encoding names the decoding that produced Text; empty for a placeholder.
	Encoding string
	// Placeholder is true when no decoding was plausible. Text is then "<bytes: N bytes>".
	Placeholder bool
}

type decoder struct {
	name   string
	decode func([]byte) string
	accept func(raw []byte, text string) bool
}

// Tried in order when the primary UTF-16LE decoding is not plausible.
var fallbacks = []decoder{
	{name: EncodingUTF16BE, decode: decodeUTF16BE, accept: acceptUTF16BE},
	{name: EncodingUTF16, decode: decodeUTF16BOM, accept: acceptUTF16},
	{name: EncodingUTF8, decode: decodeUTF8, accept: plausible},
	{name: EncodingLatin1, decode: stringutil.DecodeLatin1, accept: plausible},
}

// Used for values declared ASCII, which need no length heuristic.
var asciiChain = []decoder{
	{name: EncodingUTF8, decode: decodeUTF8, accept: validText},
	{name: EncodingLatin1, decode: stringutil.DecodeLatin1, accept: func([]byte, string) bool { return true }},
}

// FromIFD decodes the UserComment tag of an Exif sub-IFD. It returns false if the tag
// is absent.
func FromIFD(ifd map[uint16]imagecodec.Field) (Result, bool) {
	field, ok := ifd[TagUserComment]
	if !ok {
		return Result{}, false
	}
	if text, ok := field.Text(); ok {
		return Result{Text: stripNUL(text), Encoding: EncodingText}, true
	}
	return Decode(field.Bytes()), true
}

// Decode decodes a raw UserComment value. It never fails: undecodable input
// yields a placeholder.
func Decode(raw []byte) Result {
	payload := raw
	chain, tryPrimary := fallbacks, true
	declaredUnicode := false
	switch {
	case bytes.HasPrefix(raw, prefixUnicode):
		payload = raw[len(prefixUnicode):]
		declaredUnicode = true
	case bytes.HasPrefix(raw, prefixASCII):
		payload = raw[len(prefixASCII):]
		chain, tryPrimary = asciiChain, false
	case bytes.HasPrefix(raw, prefixJIS):
		payload = raw[len(prefixJIS):]
	case bytes.HasPrefix(raw, prefixUndefined):
		payload = raw[len(prefixUndefined):]
	}

	if tryPrimary {
		if text, ok := decodePrimary(payload, declaredUnicode); ok {
			return Result{Text: text, Encoding: EncodingUTF16LE}
		}
	}
	for _, d := range chain {
		text := stripNUL(d.decode(payload))
		if d.accept(payload, text) {
			return Result{Text: text, Encoding: d.name}
		}
		log.Debugf("UserComment: %s decoding rejected", d.name)
	}
	return Result{Text: fmt.Sprintf("<bytes: %d bytes>", len(payload)), Placeholder: true}
}

// decodePrimary decodes UTF-16LE and drops every NUL. Tools pad ASCII with NULs
// irregularly, so the layout check only requires NULs to lean to odd offsets.
// A payload declared UNICODE may have no NUL at all (e.g. CJK text) unless it
// is also valid UTF-8, which is mis-tagged 8-bit text.
func decodePrimary(payload []byte, declaredUnicode bool) (string, bool) {
	if len(payload) == 0 {
		return "", true
	}
	even, odd := nulOffsets(payload)
	if odd < even || odd == 0 && (even > 0 || !declaredUnicode || utf8.Valid(payload)) {
		return "", false
	}
	if len(payload)%2 == 1 {
		payload = payload[:len(payload)-1]
	}
	decoded, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(payload)
	if err != nil {
		return "", false
	}
	text := stripNUL(string(decoded))
	if strings.ContainsRune(text, utf8.RuneError) {
		return "", false
	}
	return text, true
}

// nulOffsets counts the NUL bytes at even and odd offsets.
func nulOffsets(payload []byte) (even, odd int) {
	for i, b := range payload {
		if b == 0 {
			if i%2 == 0 {
				even++
			} else {
				odd++
			}
		}
	}
	return even, odd
}

func decodeUTF16BE(payload []byte) string {
	if len(payload)%2 == 1 {
		payload = payload[:len(payload)-1]
	}
	decoded, err := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder().Bytes(payload)
	if err != nil {
		return string(utf8.RuneError)
	}
	return string(decoded)
}

func decodeUTF16BOM(payload []byte) string {
	decoded, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder().Bytes(payload)
	if err != nil {
		return string(utf8.RuneError)
	}
	return string(decoded)
}

func decodeUTF8(payload []byte) string {
	return strings.ToValidUTF8(string(bytes.ReplaceAll(payload, []byte{0}, nil)), string(utf8.RuneError))
}

// plausible reports whether text looks like real text: more than 10 characters
// once trimmed and no replacement characters.
func plausible(_ []byte, text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) > 10 && !strings.ContainsRune(text, utf8.RuneError)
}

func validText(_ []byte, text string) bool {
	return !strings.ContainsRune(text, utf8.RuneError)
}

func hasUTF16BOM(raw []byte) bool {
	return bytes.HasPrefix(raw, []byte{0xFF, 0xFE}) || bytes.HasPrefix(raw, []byte{0xFE, 0xFF})
}

// BOM-less big-endian text (as written by piexif) has its NULs at even offsets.
func acceptUTF16BE(raw []byte, text string) bool {
	if hasUTF16BOM(raw) {
		return false
	}
	even, odd := nulOffsets(raw)
	return even > odd && plausible(raw, text)
}

// UTF-16 without a BOM must be little-endian shaped: NULs present and leaning to odd
// offsets. Anything else is almost always 8-bit text misread.
func acceptUTF16(raw []byte, text string) bool {
	if !hasUTF16BOM(raw) {
		even, odd := nulOffsets(raw)
		if len(raw)%2 == 1 || odd == 0 || odd < even {
			return false
		}
	}
	return plausible(raw, text)
}

// DecodeXPComment decodes a Windows XP* tag (XPComment, XPTitle...): UTF-16LE,
// NUL terminated.
func DecodeXPComment(raw []byte) string {
	if len(raw)%2 == 1 {
		raw = raw[:len(raw)-1]
	}
	decoded, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(raw)
	if err != nil {
		return ""
	}
	text, _, _ := strings.Cut(string(decoded), "\x00")
	return text
}

// DecodeField decodes any EXIF comment-like field: text is kept, XP* tags are
// UTF-16LE, other bytes go through Decode.
func DecodeField(tag uint16, field imagecodec.Field) Result {
	if text, ok := field.Text(); ok {
		return Result{Text: stripNUL(text), Encoding: EncodingText}
	}
	if tag >= 0x9C9B && tag <= 0x9C9F {
		return Result{Text: DecodeXPComment(field.Bytes()), Encoding: EncodingUTF16LE}
	}
	return Decode(field.Bytes())
}

func stripNUL(s string) string {
	return strings.ReplaceAll(s, "\x00", "")
}
