package aimeta

import (
	"bytes"
	"encoding/binary"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagan/promptmeta/features/exifcomment"
	"github.com/sagan/promptmeta/features/imagecodec"
	"github.com/sagan/promptmeta/features/imagecodec/imagecodectest"
)

const a1111Payload = "a cat\nNegative prompt: blurry\nSteps: 20, Sampler: Euler, CFG scale: 7"

func pngImage(info ...string) *imagecodec.Image {
	img := &imagecodec.Image{
		Format:   "PNG",
		Info:     map[string]imagecodec.Field{},
		ExifTags: map[uint16]imagecodec.Field{},
		ExifIFD:  map[uint16]imagecodec.Field{},
	}
	for i := 0; i+1 < len(info); i += 2 {
		img.Info[info[i]] = imagecodec.TextField(info[i+1])
		img.InfoKeys = append(img.InfoKeys, info[i])
	}
	return img
}

func jpegImage(ifd0, exifIFD map[uint16]imagecodec.Field) *imagecodec.Image {
	img := pngImage()
	img.Format = "JPEG"
	if ifd0 != nil {
		img.ExifTags = ifd0
	}
	if exifIFD != nil {
		img.ExifIFD = exifIFD
	}
	return img
}

func userComment(s string) imagecodec.Field {
	return imagecodec.BytesField(imagecodectest.UserComment("UNICODE", imagecodectest.UTF16LE(s)))
}

func TestExtract(t *testing.T) {
	comfyPrompt := `{"3": {"class_type":"KSampler","inputs":{"seed":12345,"steps":30,"cfg":8}}}`
	tests := []struct {
		name      string
		img       *imagecodec.Image
		format    string
		source    Source
		firstKey  string
		rawText   string
		workflow  bool
		noneFound bool
	}{
		{
			name:     "NovelAI wins over A1111",
			img:      pngImage("Software", "NovelAI", "Comment", `{"prompt":"x"}`, "parameters", a1111Payload),
			format:   FormatNovelAI,
			firstKey: "Prompt",
			rawText:  `{"prompt":"x"}`,
		},
		{
			name:     "A1111",
			img:      pngImage("parameters", a1111Payload),
			format:   FormatA1111,
			firstKey: "Prompt",
			rawText:  a1111Payload,
		},
		{
			name:     "software other than NovelAI",
			img:      pngImage("Software", "Photoshop", "Comment", `{"prompt":"x"}`, "parameters", a1111Payload),
			format:   FormatA1111,
			firstKey: "Prompt",
			rawText:  a1111Payload,
		},
		{
			name:     "ComfyUI with workflow",
			img:      pngImage("prompt", "  "+comfyPrompt, "workflow", `{"nodes": []}`),
			format:   FormatComfyUI,
			firstKey: "Seed (3)",
			rawText:  "  " + comfyPrompt,
			workflow: true,
		},
		{
			name:     "A1111 parameters take precedence over ComfyUI prompt",
			img:      pngImage("prompt", comfyPrompt, "parameters", a1111Payload),
			format:   FormatA1111,
			firstKey: "Prompt",
			rawText:  a1111Payload,
		},
		{
			name:     "JPEG UserComment in Exif sub-IFD",
			img:      jpegImage(nil, map[uint16]imagecodec.Field{exifcomment.TagUserComment: userComment(a1111Payload)}),
			format:   FormatA1111JPEG,
			source:   SourceJPEGExifComment,
			firstKey: "Prompt",
			rawText:  a1111Payload,
		},
		{
			name:     "JPEG UserComment in IFD0",
			img:      jpegImage(map[uint16]imagecodec.Field{exifcomment.TagUserComment: userComment(a1111Payload)}, nil),
			format:   FormatA1111JPEG,
			source:   SourceJPEGExifComment,
			firstKey: "Prompt",
			rawText:  a1111Payload,
		},
		{
			name: "JPEG ComfyUI in XPComment",
			img: jpegImage(map[uint16]imagecodec.Field{
				exifcomment.TagXPComment: imagecodec.BytesField(append(imagecodectest.UTF16LE(comfyPrompt), 0, 0)),
			}, nil),
			format:   FormatComfyUIJPEG,
			source:   SourceJPEGExifComment,
			firstKey: "Seed (3)",
			rawText:  comfyPrompt,
		},
		{
			name: "JPEG ComfyUI in ImageDescription",
			img: jpegImage(map[uint16]imagecodec.Field{
				exifcomment.TagImageDescription: imagecodec.TextField(" " + comfyPrompt),
			}, nil),
			format:   FormatComfyUIJPEG,
			source:   SourceJPEGExifComment,
			firstKey: "Seed (3)",
			rawText:  " " + comfyPrompt,
		},
		{
			name: "A1111 comment wins over ComfyUI comment",
			img: jpegImage(
				map[uint16]imagecodec.Field{exifcomment.TagImageDescription: imagecodec.TextField(comfyPrompt)},
				map[uint16]imagecodec.Field{exifcomment.TagUserComment: userComment(a1111Payload)},
			),
			format:   FormatA1111JPEG,
			source:   SourceJPEGExifComment,
			firstKey: "Prompt",
			rawText:  a1111Payload,
		},
		{
			name:      "prompt that is not JSON",
			img:       pngImage("prompt", "a cat"),
			noneFound: true,
		},
		{
			name:      "parameters without Steps",
			img:       pngImage("parameters", "a cat, masterpiece"),
			noneFound: true,
		},
		{
			name: "undecodable UserComment",
			img: jpegImage(nil, map[uint16]imagecodec.Field{
				exifcomment.TagUserComment: imagecodec.BytesField([]byte{0xFF, 0xFE, 0xFD}),
			}),
			noneFound: true,
		},
		{
			name:      "ordinary photo",
			img:       jpegImage(map[uint16]imagecodec.Field{0x010F: imagecodec.TextField("Canon")}, nil),
			noneFound: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := Extract(tt.img)
			if tt.noneFound {
				assert.Nil(t, md)
				return
			}
			require.NotNil(t, md)
			assert.Equal(t, tt.format, md.Format)
			assert.Equal(t, tt.source, md.Source)
			assert.Equal(t, tt.rawText, md.RawText)
			require.Positive(t, md.Params.Len())
			assert.Equal(t, tt.firstKey, md.Params.Keys()[0])
			if tt.workflow {
				require.NotNil(t, md.WorkflowText)
				assert.Equal(t, `{"nodes": []}`, *md.WorkflowText)
			} else {
				assert.Nil(t, md.WorkflowText)
			}
		})
	}
}

func TestExtract_SanitizesRawText(t *testing.T) {
	md := Extract(pngImage("parameters", "a cat! see http://example.com\nSteps: 20"))
	require.NotNil(t, md)
	assert.Equal(t, "a cat see \nSteps: 20", md.RawText)
}

func TestExtract_BigEndianUserComment(t *testing.T) {
	var payload []byte
	for _, r := range a1111Payload {
		payload = binary.BigEndian.AppendUint16(payload, uint16(r))
	}
	md := Extract(jpegImage(nil, map[uint16]imagecodec.Field{
		exifcomment.TagUserComment: imagecodec.BytesField(imagecodectest.UserComment("UNICODE", payload)),
	}))
	require.NotNil(t, md)
	assert.Equal(t, FormatA1111JPEG, md.Format)
	prompt, _ := md.Params.Get("Prompt")
	assert.Equal(t, "a cat", prompt)
	steps, _ := md.Params.Get("Steps")
	assert.Equal(t, "20", steps)
}

func TestExtractReader(t *testing.T) {
	comment := imagecodectest.UserComment("UNICODE", imagecodectest.UTF16LE(a1111Payload))
	files := map[string]struct {
		data   []byte
		format string
	}{
		"png parameters": {imagecodectest.PNG(imagecodectest.TEXt("parameters", a1111Payload)), FormatA1111},
		"png zTXt prompt": {
			imagecodectest.PNG(
				imagecodectest.ZTXt("prompt", `{"3": {"class_type":"KSampler","inputs":{"seed":1}}}`),
				imagecodectest.ITXt("workflow", `{"nodes": []}`, true),
			),
			FormatComfyUI,
		},
		"jpeg user comment": {
			imagecodectest.JPEG(imagecodectest.TIFF(nil, []imagecodectest.Entry{
				imagecodectest.Undefined(exifcomment.TagUserComment, comment),
			}), ""),
			FormatA1111JPEG,
		},
	}
	for name, file := range files {
		t.Run(name, func(t *testing.T) {
			md, err := ExtractReader(bytes.NewReader(file.data), 1<<20)
			require.NoError(t, err)
			assert.Equal(t, file.format, md.Format)

			// same bytes, same result
			again, err := ExtractReader(bytes.NewReader(file.data), 1<<20)
			require.NoError(t, err)
			var first, second bytes.Buffer
			require.NoError(t, Render(&first, md, RenderJSON))
			require.NoError(t, Render(&second, again, RenderJSON))
			assert.Equal(t, first.String(), second.String())
		})
	}
}

func TestExtractReader_Errors(t *testing.T) {
	_, err := ExtractReader(bytes.NewReader(imagecodectest.PNG()), 1<<20)
	assert.ErrorIs(t, err, ErrNoMetadata)

	_, err = ExtractReader(bytes.NewReader([]byte("plain text")), 1<<20)
	assert.ErrorIs(t, err, imagecodec.ErrUnsupported)

	_, err = ExtractFile(filepath.Join(t.TempDir(), "missing.png"), 1<<20)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}
