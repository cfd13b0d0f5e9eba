package aimeta

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/sagan/promptmeta/features/exifcomment"
	"github.com/sagan/promptmeta/features/imagecodec"
	"github.com/sagan/promptmeta/util/stringutil"
)

// probe returns nil if the image does not carry its format.
type probe struct {
	name  string
	match func(*probeInput) *ParsedMetadata
}

// Tried in order, first match wins. NovelAI goes before A1111 since its JSON
// may contain "Steps:" too.
var probes = []probe{
	{name: FormatNovelAI, match: probeNovelAI},
	{name: FormatA1111, match: probeA1111},
	{name: FormatA1111JPEG, match: probeA1111JPEG},
	{name: FormatComfyUI, match: probeComfyUI},
	{name: FormatComfyUIJPEG, match: probeComfyUIJPEG},
}

type probeInput struct {
	img      *imagecodec.Image
	comments func() []string
}

// Extract detects the metadata format of img and parses it.
// It returns nil if img carries no known AI generation metadata.
func Extract(img *imagecodec.Image) *ParsedMetadata {
	input := &probeInput{
		img:      img,
		comments: sync.OnceValue(func() []string { return exifComments(img) }),
	}
	for _, p := range probes {
		if md := p.match(input); md != nil {
			log.Debugf("metadata format: %s", p.name)
			return md
		}
	}
	return nil
}

// ExtractReader decodes an image from r (at most maxSize bytes) and extracts its
// metadata. It returns ErrNoMetadata if there is none.
func ExtractReader(r io.Reader, maxSize int64) (*ParsedMetadata, error) {
	img, err := imagecodec.Decode(r, maxSize)
	if err != nil {
		return nil, err
	}
	md := Extract(img)
	if md == nil {
		return nil, ErrNoMetadata
	}
	return md, nil
}

func ExtractFile(path string, maxSize int64) (*ParsedMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	md, err := ExtractReader(f, maxSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return md, nil
}

// exifComments returns the decoded, sanitized EXIF comment texts of img, in order:
// Exif sub-IFD UserComment, IFD0 UserComment, IFD0 XPComment, IFD0 ImageDescription.
// Placeholders of undecodable values are left out.
func exifComments(img *imagecodec.Image) []string {
	type source struct {
		ifd map[uint16]imagecodec.Field
		tag uint16
	}
	sources := []source{
		{img.ExifIFD, exifcomment.TagUserComment},
		{img.ExifTags, exifcomment.TagUserComment},
		{img.ExifTags, exifcomment.TagXPComment},
		{img.ExifTags, exifcomment.TagImageDescription},
	}
	var comments []string
	for _, s := range sources {
		field, ok := s.ifd[s.tag]
		if !ok {
			continue
		}
		result := exifcomment.DecodeField(s.tag, field)
		if result.Placeholder {
			continue
		}
		comments = append(comments, stringutil.Sanitize(result.Text, MaxPayloadLength))
	}
	return comments
}

func probeNovelAI(in *probeInput) *ParsedMetadata {
	software, ok := in.img.InfoText("Software")
	if !ok || software != "NovelAI" {
		return nil
	}
	comment, ok := in.img.InfoText("Comment")
	if !ok {
		return nil
	}
	comment = stringutil.Sanitize(comment, MaxPayloadLength)
	return &ParsedMetadata{
		Format:  FormatNovelAI,
		Params:  ParseNovelAI(comment),
		RawText: comment,
		Source:  SourcePNGInfo,
	}
}

func probeA1111(in *probeInput) *ParsedMetadata {
	parameters, ok := in.img.InfoText("parameters")
	if !ok {
		return nil
	}
	parameters = stringutil.Sanitize(parameters, MaxPayloadLength)
	if !strings.Contains(parameters, "Steps:") {
		return nil
	}
	return &ParsedMetadata{
		Format:  FormatA1111,
		Params:  ParseA1111(parameters),
		RawText: parameters,
		Source:  SourcePNGInfo,
	}
}

func probeA1111JPEG(in *probeInput) *ParsedMetadata {
	for _, comment := range in.comments() {
		if strings.Contains(comment, "Steps:") {
			return &ParsedMetadata{
				Format:  FormatA1111JPEG,
				Params:  ParseA1111(comment),
				RawText: comment,
				Source:  SourceJPEGExifComment,
			}
		}
	}
	return nil
}

func probeComfyUI(in *probeInput) *ParsedMetadata {
	prompt, ok := in.img.InfoText("prompt")
	if !ok {
		return nil
	}
	prompt = stringutil.Sanitize(prompt, MaxPayloadLength)
	if !strings.HasPrefix(strings.TrimLeft(prompt, " \t\n\r\v\f"), "{") {
		return nil
	}
	var workflow *string
	if text, ok := in.img.InfoText("workflow"); ok {
		text = stringutil.Sanitize(text, MaxPayloadLength)
		workflow = &text
	}
	return &ParsedMetadata{
		Format:       FormatComfyUI,
		Params:       ParseComfyUI(prompt, workflow),
		RawText:      prompt,
		WorkflowText: workflow,
		Source:       SourcePNGInfo,
	}
}

func probeComfyUIJPEG(in *probeInput) *ParsedMetadata {
	for _, comment := range in.comments() {
		if strings.HasPrefix(strings.TrimSpace(comment), "{") {
			return &ParsedMetadata{
				Format:  FormatComfyUIJPEG,
				Params:  ParseComfyUI(comment, nil),
				RawText: comment,
				Source:  SourceJPEGExifComment,
			}
		}
	}
	return nil
}
