package aimeta

import (
	"strings"

	"github.com/sagan/promptmeta/util/stringutil"
)

const (
	a1111StepsMarker    = "Steps: "
	a1111NegativeMarker = "Negative prompt: "
)

// ParseA1111 parses the A1111 / Civitai "parameters" text:
//
//	<prompt>
//	Negative prompt: <negative prompt>
//	Steps: 20, Sampler: Euler a, CFG scale: 7, Seed: 1234, Size: 512x768, ...
//
// A value that itself contains ", " is split into bogus fragments; fragments without
// ": " are dropped.
func ParseA1111(payload string) (params *Params) {
	defer func() {
		if r := recover(); r != nil {
			params = errorParams("Could not parse metadata: %v", r)
		}
	}()
	payload = stringutil.Sanitize(payload, MaxPayloadLength)
	prompts, settings, found := strings.Cut(payload, a1111StepsMarker)
	if !found {
		return errorParams("Could not parse metadata: Can't parse A1111 metadata: missing Steps key")
	}

	params = NewParams()
	if prompt, negative, found := strings.Cut(prompts, a1111NegativeMarker); found {
		params.Set("Prompt", stringutil.Sanitize(strings.TrimSpace(prompt), MaxValueLength))
		params.Set("Negative Prompt", stringutil.Sanitize(strings.TrimSpace(negative), MaxValueLength))
	} else {
		params.Set("Prompt", stringutil.Sanitize(strings.TrimSpace(prompts), MaxValueLength))
	}

	for fragment := range strings.SplitSeq(a1111StepsMarker+settings, ", ") {
		key, value, found := strings.Cut(fragment, ": ")
		if !found {
			continue
		}
		params.Set(stringutil.Sanitize(strings.TrimSpace(key), MaxKeyLength),
			stringutil.Sanitize(strings.TrimSpace(value), MaxValueLength))
	}
	return params
}
