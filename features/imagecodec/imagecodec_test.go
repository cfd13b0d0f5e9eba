package imagecodec_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagan/promptmeta/features/imagecodec"
	"github.com/sagan/promptmeta/features/imagecodec/imagecodectest"
)

func TestDecode_PNGTextChunks(t *testing.T) {
	data := imagecodectest.PNG(
		imagecodectest.TEXt("parameters", "a cat\nSteps: 20"),
		imagecodectest.ZTXt("workflow", `{"nodes": []}`),
		imagecodectest.ITXt("prompt", `{"1": {}}`, true),
		imagecodectest.ITXt("Comment", "ユニコード", false),
		imagecodectest.TEXt("latin", "caf\xe9"),
	)
	img, err := imagecodec.Decode(bytes.NewReader(data), 1<<20)
	require.NoError(t, err)

	assert.Equal(t, "PNG", img.Format)
	assert.Equal(t, 4, img.Width)
	assert.Equal(t, 3, img.Height)
	assert.Equal(t, "RGBA", img.Mode)
	assert.Equal(t, []string{"parameters", "workflow", "prompt", "Comment", "latin"}, img.InfoKeys)

	tests := map[string]string{
		"parameters": "a cat\nSteps: 20",
		"workflow":   `{"nodes": []}`,
		"prompt":     `{"1": {}}`,
		"Comment":    "ユニコード",
		"latin":      "café",
	}
	for key, want := range tests {
		got, ok := img.InfoText(key)
		assert.True(t, ok, key)
		assert.Equal(t, want, got, key)
	}
	_, ok := img.InfoText("missing")
	assert.False(t, ok)
}

func TestDecode_PNGDamagedChunkSkipped(t *testing.T) {
	bad := imagecodectest.Chunk("zTXt", []byte("workflow\x00\x00not zlib"))
	data := imagecodectest.PNG(bad, imagecodectest.TEXt("parameters", "ok"))
	img, err := imagecodec.DecodeBytes(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"parameters"}, img.InfoKeys)
}

func TestDecode_JPEGExif(t *testing.T) {
	comment := imagecodectest.UserComment("UNICODE", imagecodectest.UTF16LE("hello"))
	block := imagecodectest.TIFF(
		[]imagecodectest.Entry{imagecodectest.ASCII(0x010E, "a description")},
		[]imagecodectest.Entry{imagecodectest.Undefined(0x9286, comment)},
	)
	data := imagecodectest.JPEG(block, "a comment")
	img, err := imagecodec.DecodeBytes(data)
	require.NoError(t, err)

	assert.Equal(t, "JPEG", img.Format)
	assert.Equal(t, 5, img.Width)
	assert.Equal(t, 2, img.Height)
	assert.Equal(t, "L", img.Mode)
	assert.Equal(t, []string{"exif", "comment"}, img.InfoKeys)
	assert.Equal(t, "a comment", string(img.Info["comment"].Bytes()))
	assert.False(t, img.Info["exif"].IsText())

	description, ok := img.ExifTags[0x010E].Text()
	assert.True(t, ok)
	assert.Equal(t, "a description", description)
	userComment := img.ExifIFD[0x9286]
	assert.False(t, userComment.IsText())
	assert.Equal(t, comment, userComment.Bytes())
}

func TestDecode_JPEGWithoutExif(t *testing.T) {
	img, err := imagecodec.DecodeBytes(imagecodectest.JPEG(nil, ""))
	require.NoError(t, err)
	assert.Empty(t, img.Info)
	assert.Empty(t, img.ExifTags)
	assert.Empty(t, img.ExifIFD)
}

func TestDecode_Errors(t *testing.T) {
	_, err := imagecodec.DecodeBytes([]byte("this is plain text, not an image"))
	assert.ErrorIs(t, err, imagecodec.ErrUnsupported)

	_, err = imagecodec.DecodeBytes(nil)
	assert.ErrorIs(t, err, imagecodec.ErrUnsupported)

	data := imagecodectest.PNG()
	_, err = imagecodec.Decode(bytes.NewReader(data), int64(len(data)-1))
	assert.ErrorIs(t, err, imagecodec.ErrTooLarge)
	_, err = imagecodec.Decode(bytes.NewReader(data), int64(len(data)))
	assert.NoError(t, err)
}

func TestField(t *testing.T) {
	text := imagecodec.TextField("abc")
	s, ok := text.Text()
	assert.True(t, ok)
	assert.Equal(t, "abc", s)
	assert.Equal(t, []byte("abc"), text.Bytes())
	assert.Equal(t, "abc", text.String())

	raw := imagecodec.BytesField([]byte{1, 2, 3})
	_, ok = raw.Text()
	assert.False(t, ok)
	assert.Equal(t, "<bytes: 3 bytes>", raw.String())
}

func TestTagName(t *testing.T) {
	assert.Equal(t, "UserComment", imagecodec.TagName(imagecodec.IFDPathExif, 0x9286))
	assert.Equal(t, "XPComment", imagecodec.TagName(imagecodec.IFDPathRoot, 0x9C9C))
	assert.Equal(t, "ImageDescription", imagecodec.TagName(imagecodec.IFDPathRoot, 0x010E))
	assert.Equal(t, "30583", imagecodec.TagName(imagecodec.IFDPathRoot, 0x7777))
	assert.False(t, strings.ContainsAny(imagecodec.TagName(imagecodec.IFDPathExif, 0x829A), "0123456789"))
}
