package aimeta

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Output formats of Render.
const (
	RenderText = "text"
	RenderJSON = "json"
	RenderYAML = "yaml"
	RenderTOML = "toml"
)

var RenderFormats = []string{RenderText, RenderJSON, RenderYAML, RenderTOML}

// Render writes md in one of RenderFormats. All formats keep the params order.
func Render(w io.Writer, md *ParsedMetadata, format string) error {
	switch format {
	case RenderText:
		return renderText(w, md)
	case RenderJSON:
		return renderJSON(w, md)
	case RenderYAML:
		return renderYAML(w, md)
	case RenderTOML:
		return renderTOML(w, md)
	}
	return fmt.Errorf("unsupported output format %q, must be one of %s", format, strings.Join(RenderFormats, ", "))
}

func renderText(w io.Writer, md *ParsedMetadata) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Format: %s\n", md.Format)
	sb.WriteString("\nParameters:\n")
	for key, value := range md.Params.All() {
		fmt.Fprintf(&sb, "\n%s:\n  %s\n", key, value)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func renderJSON(w io.Writer, md *ParsedMetadata) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(md.Summary())
}

func renderYAML(w io.Writer, md *ParsedMetadata) error {
	params := &yaml.Node{Kind: yaml.MappingNode}
	for key, value := range md.Params.All() {
		params.Content = append(params.Content, yamlString(key), yamlString(value))
	}
	doc := &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{
		yamlString("format"), yamlString(md.Format),
		yamlString("params"), params,
	}}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

func yamlString(s string) *yaml.Node {
	node := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
	if strings.Contains(s, "\n") {
		node.Style = yaml.LiteralStyle
	}
	return node
}

type tomlParam struct {
	Key   string `toml:"key"`
	Value string `toml:"value"`
}

type tomlDocument struct {
	Format string      `toml:"format"`
	Params []tomlParam `toml:"params"`
}

// TOML tables are unordered, so params are written as an array of {key, value} tables.
func renderTOML(w io.Writer, md *ParsedMetadata) error {
	doc := tomlDocument{Format: md.Format, Params: []tomlParam{}}
	for key, value := range md.Params.All() {
		doc.Params = append(doc.Params, tomlParam{Key: key, Value: value})
	}
	return toml.NewEncoder(w).Encode(doc)
}
