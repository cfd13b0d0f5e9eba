package aimeta

import (
	"encoding/json"
	"fmt"

	"github.com/sagan/promptmeta/util/jsonutil"
	"github.com/sagan/promptmeta/util/stringutil"
)

// ParseNovelAI parses the NovelAI "Comment" JSON. The fixed keys are always present.
func ParseNovelAI(comment string) (params *Params) {
	defer func() {
		if r := recover(); r != nil {
			params = errorParams("Could not parse metadata: %v", r)
		}
	}()
	comment = stringutil.Sanitize(comment, MaxPayloadLength)
	data, err := jsonutil.Load[map[string]json.RawMessage](comment, nil)
	if err != nil {
		return errorParams("Could not parse metadata: %v", err)
	}
	if data == nil {
		return errorParams("Could not parse metadata: comment is not a JSON object")
	}

	params = NewParams()
	params.Set("Prompt", stringText(data["prompt"], MaxValueLength))
	params.Set("Negative Prompt", stringText(data["uc"], MaxValueLength))
	params.Set("Steps", valueText(data["steps"], MaxValueLength))
	params.Set("Sampler", stringText(data["sampler"], MaxKeyLength))
	params.Set("CFG scale", valueText(data["scale"], MaxValueLength))
	params.Set("Seed", valueText(data["seed"], MaxValueLength))
	if width, height := data["width"], data["height"]; truthy(width) && truthy(height) {
		size := fmt.Sprintf("%sx%s", valueText(width, MaxKeyLength), valueText(height, MaxKeyLength))
		params.Set("Size", stringutil.Sanitize(size, MaxKeyLength))
	}
	if source, ok := data["Source"]; ok {
		params.Set("Model", stringText(source, MaxKeyLength))
	}
	return params
}
