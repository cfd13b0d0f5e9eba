// Package aimeta extracts AI image generation parameters (A1111 / Civitai, ComfyUI,
// NovelAI) from the metadata of an image and normalizes them into an ordered
// key / value list.
package aimeta

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"iter"

	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var ErrNoMetadata = errors.New("no metadata found in image")

// Format names reported in ParsedMetadata.Format.
const (
	FormatNovelAI     = "NovelAI"
	FormatA1111       = "A1111/Civitai"
	FormatA1111JPEG   = "A1111/Civitai (JPEG)"
	FormatComfyUI     = "ComfyUI"
	FormatComfyUIJPEG = "ComfyUI (JPEG)"
)

// Max length (in characters) of sanitized texts.
const (
	MaxPayloadLength = 50000
	MaxValueLength   = 1000
	MaxKeyLength     = 100
	MaxErrorLength   = 200
)

// Source is where in the image the payload was found.
type Source int

const (
	SourcePNGInfo Source = iota
	SourceJPEGExifComment
)

func (s Source) String() string {
	switch s {
	case SourcePNGInfo:
		return "png_info"
	case SourceJPEGExifComment:
		return "jpeg_exif_comment"
	}
	return fmt.Sprintf("Source(%d)", int(s))
}

func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Params is an insertion-ordered string to string map.
// Setting an existing key overwrites its value in place.
type Params struct {
	m *orderedmap.OrderedMap[string, string]
}

func NewParams() *Params {
	return &Params{m: orderedmap.New[string, string]()}
}

func (p *Params) Set(key, value string) {
	p.m.Set(key, value)
}

func (p *Params) Get(key string) (string, bool) {
	return p.m.Get(key)
}

func (p *Params) Len() int {
	if p == nil || p.m == nil {
		return 0
	}
	return p.m.Len()
}

// All iterates the params in insertion order.
func (p *Params) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		if p == nil || p.m == nil {
			return
		}
		for pair := p.m.Oldest(); pair != nil; pair = pair.Next() {
			if !yield(pair.Key, pair.Value) {
				return
			}
		}
	}
}

// Keys returns the keys in insertion order.
func (p *Params) Keys() []string {
	keys := make([]string, 0, p.Len())
	for key := range p.All() {
		keys = append(keys, key)
	}
	return keys
}

// Map returns an unordered copy, e.g. for templates.
func (p *Params) Map() map[string]string {
	m := make(map[string]string, p.Len())
	for key, value := range p.All() {
		m[key] = value
	}
	return m
}

// MarshalJSON writes the params as a JSON object in insertion order.
// "<", ">" and "&" are not escaped.
func (p *Params) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	buf.WriteByte('{')
	first := true
	for key, value := range p.All() {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		// Encode appends a newline after each value.
		if err := enc.Encode(key); err != nil {
			return nil, err
		}
		buf.Truncate(buf.Len() - 1)
		buf.WriteByte(':')
		if err := enc.Encode(value); err != nil {
			return nil, err
		}
		buf.Truncate(buf.Len() - 1)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (p *Params) UnmarshalJSON(data []byte) error {
	m := orderedmap.New[string, string]()
	if err := m.UnmarshalJSON(data); err != nil {
		return err
	}
	p.m = m
	return nil
}

func (Params) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:                 "object",
		Description:          "Generation parameters, in the order they were found",
		AdditionalProperties: &jsonschema.Schema{Type: "string"},
	}
}

// ParsedMetadata is the result of a successful extraction.
type ParsedMetadata struct {
	Format string  `json:"format"`
	Params *Params `json:"params"`
	// RawText is the sanitized payload the params were parsed from.
	RawText string `json:"raw_text"`
	// WorkflowText is the sanitized ComfyUI workflow, if the image has one.
	WorkflowText *string `json:"workflow_text,omitempty"`
	Source       Source  `json:"source"`
}

// Summary is the public JSON form of a ParsedMetadata.
type Summary struct {
	Format string  `json:"format" jsonschema:"description=Detected metadata format,enum=NovelAI,enum=A1111/Civitai,enum=A1111/Civitai (JPEG),enum=ComfyUI,enum=ComfyUI (JPEG)"`
	Params *Params `json:"params"`
}

func (md *ParsedMetadata) Summary() *Summary {
	return &Summary{Format: md.Format, Params: md.Params}
}

// Schema returns the JSON schema of Summary.
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		Anonymous:      true,
		DoNotReference: true,
		ExpandedStruct: true,
	}
	return r.Reflect(&Summary{})
}
