package exifcomment

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sagan/promptmeta/features/imagecodec"
	"github.com/sagan/promptmeta/features/imagecodec/imagecodectest"
)

func utf16BE(s string) []byte {
	var b []byte
	for _, r := range s {
		b = binary.BigEndian.AppendUint16(b, uint16(r))
	}
	return b
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		raw      []byte
		text     string
		encoding string
	}{
		{
			name:     "unicode prefix",
			raw:      imagecodectest.UserComment("UNICODE", imagecodectest.UTF16LE("hello")),
			text:     "hello",
			encoding: EncodingUTF16LE,
		},
		{
			name:     "unicode prefix, trailing odd byte",
			raw:      append(imagecodectest.UserComment("UNICODE", imagecodectest.UTF16LE("hello")), 0),
			text:     "hello",
			encoding: EncodingUTF16LE,
		},
		{
			name:     "unicode prefix, no NUL bytes",
			raw:      imagecodectest.UserComment("UNICODE", imagecodectest.UTF16LE("ユニコード")),
			text:     "ユニコード",
			encoding: EncodingUTF16LE,
		},
		{
			name:     "unicode prefix on UTF-8 text",
			raw:      imagecodectest.UserComment("UNICODE", []byte("Steps: 20, Sampler: Euler")),
			text:     "Steps: 20, Sampler: Euler",
			encoding: EncodingUTF8,
		},
		{
			name:     "no prefix UTF-16LE",
			raw:      imagecodectest.UTF16LE("Steps: 20, Sampler: Euler"),
			text:     "Steps: 20, Sampler: Euler",
			encoding: EncodingUTF16LE,
		},
		{
			name:     "empty unicode payload",
			raw:      imagecodectest.UserComment("UNICODE", nil),
			text:     "",
			encoding: EncodingUTF16LE,
		},
		{
			name:     "ascii prefix",
			raw:      imagecodectest.UserComment("ASCII", []byte("hi")),
			text:     "hi",
			encoding: EncodingUTF8,
		},
		{
			name:     "undefined prefix",
			raw:      imagecodectest.UserComment("", []byte("a plain UTF-8 comment")),
			text:     "a plain UTF-8 comment",
			encoding: EncodingUTF8,
		},
		{
			name:     "big-endian with BOM",
			raw:      append([]byte{0xFE, 0xFF}, utf16BE("hello world!")...),
			text:     "hello world!",
			encoding: EncodingUTF16,
		},
		{
			name:     "unicode prefix, big-endian without BOM",
			raw:      imagecodectest.UserComment("UNICODE", utf16BE("a cat\nNegative prompt: blurry\nSteps: 20, Sampler: Euler")),
			text:     "a cat\nNegative prompt: blurry\nSteps: 20, Sampler: Euler",
			encoding: EncodingUTF16BE,
		},
		{
			name:     "no prefix big-endian without BOM",
			raw:      utf16BE("Steps: 20, Sampler: Euler"),
			text:     "Steps: 20, Sampler: Euler",
			encoding: EncodingUTF16BE,
		},
		{
			name:     "latin-1",
			raw:      []byte("caf\xe9 au lait tr\xe8s bon"),
			text:     "café au lait très bon",
			encoding: EncodingLatin1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Decode(tt.raw)
			assert.Equal(t, tt.text, result.Text)
			assert.Equal(t, tt.encoding, result.Encoding)
			assert.False(t, result.Placeholder)
			assert.NotContains(t, result.Text, "\x00")
		})
	}
}

func TestDecode_Placeholder(t *testing.T) {
	result := Decode([]byte{0xFF, 0xFE, 0xFD})
	assert.True(t, result.Placeholder)
	assert.Equal(t, "<bytes: 3 bytes>", result.Text)
	assert.Equal(t, "", result.Encoding)
}

func TestFromIFD(t *testing.T) {
	_, ok := FromIFD(map[uint16]imagecodec.Field{})
	assert.False(t, ok)

	result, ok := FromIFD(map[uint16]imagecodec.Field{
		TagUserComment: imagecodec.BytesField(imagecodectest.UserComment("UNICODE", imagecodectest.UTF16LE("hello"))),
	})
	assert.True(t, ok)
	assert.Equal(t, "hello", result.Text)

	result, ok = FromIFD(map[uint16]imagecodec.Field{TagUserComment: imagecodec.TextField("as text\x00")})
	assert.True(t, ok)
	assert.Equal(t, "as text", result.Text)
	assert.Equal(t, EncodingText, result.Encoding)
}

func TestDecodeXPComment(t *testing.T) {
	raw := append(imagecodectest.UTF16LE("xp comment"), 0, 0)
	assert.Equal(t, "xp comment", DecodeXPComment(raw))
	assert.Equal(t, "", DecodeXPComment(nil))
}

func TestDecodeField(t *testing.T) {
	xp := DecodeField(TagXPComment, imagecodec.BytesField(imagecodectest.UTF16LE("{\"a\": 1}")))
	assert.Equal(t, `{"a": 1}`, xp.Text)

	description := DecodeField(TagImageDescription, imagecodec.TextField("a description"))
	assert.Equal(t, "a description", description.Text)

	comment := DecodeField(TagUserComment, imagecodec.BytesField([]byte(strings.Repeat("x", 20))))
	assert.Equal(t, strings.Repeat("x", 20), comment.Text)
}
