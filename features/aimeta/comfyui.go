package aimeta

import (
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/sagan/promptmeta/util/jsonutil"
	"github.com/sagan/promptmeta/util/stringutil"
)

// comfyNode is one node of a ComfyUI API prompt. Input shapes vary per node type
// and per ComfyUI version, so inputs stay raw and are probed by name.
type comfyNode struct {
	ClassType json.RawMessage            `json:"class_type"`
	Inputs    map[string]json.RawMessage `json:"inputs"`
}

// ParseComfyUI parses a ComfyUI API prompt: a JSON object of node id => node.
// Nodes are visited in document order. The workflow is never parsed: the caller
// stores it verbatim.
func ParseComfyUI(prompt string, workflow *string) (params *Params) {
	defer func() {
		if r := recover(); r != nil {
			params = errorParams("Could not parse metadata: %v", r)
		}
	}()
	nodes, err := jsonutil.LoadObject(prompt)
	if err != nil {
		return errorParams("Could not parse metadata: prompt is not a JSON object: %v", err)
	}
	params = NewParams()
	for pair := nodes.Oldest(); pair != nil; pair = pair.Next() {
		if err := parseComfyNode(params, pair.Key, pair.Value); err != nil {
			log.Debugf("skip ComfyUI node %q: %v", pair.Key, err)
		}
	}
	return params
}

func parseComfyNode(params *Params, id string, raw json.RawMessage) error {
	var node comfyNode
	if err := json.Unmarshal(raw, &node); err != nil {
		return err
	}
	if node.Inputs == nil {
		return nil
	}
	id = stringutil.Sanitize(id, MaxKeyLength)
	inputs := node.Inputs

	if text, ok := inputs["text"]; ok {
		classType := valueText(node.ClassType, MaxKeyLength)
		params.Set(fmt.Sprintf("%s (%s)", classType, id), valueText(text, MaxValueLength))
	}
	if ckpt, ok := inputs["ckpt_name"]; ok {
		params.Set(fmt.Sprintf("Checkpoint (%s)", id), valueText(ckpt, MaxValueLength))
	}
	seed, hasSeed := inputs["seed"]
	noiseSeed, hasNoiseSeed := inputs["noise_seed"]
	if hasNoiseSeed && (!hasSeed || !truthy(seed)) {
		seed = noiseSeed
	}
	if hasSeed || hasNoiseSeed {
		params.Set(fmt.Sprintf("Seed (%s)", id), valueText(seed, MaxValueLength))
	}
	if steps, ok := inputs["steps"]; ok {
		params.Set(fmt.Sprintf("Steps (%s)", id), valueText(steps, MaxValueLength))
	}
	if cfg, ok := inputs["cfg"]; ok {
		params.Set(fmt.Sprintf("CFG (%s)", id), valueText(cfg, MaxValueLength))
	}
	return nil
}
