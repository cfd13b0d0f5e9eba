package aimeta

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/sagan/promptmeta/util/stringutil"
)

// valueText renders a JSON value as a param value. Numbers keep their literal,
// strings are sanitized, null is "", anything else is compact JSON then sanitized.
func valueText(raw json.RawMessage, maxLength int) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch c := raw[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return stringutil.Sanitize(s, maxLength)
	case c == 'n':
		return ""
	case c == '-' || c >= '0' && c <= '9':
		return stringutil.Sanitize(string(raw), maxLength)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return ""
	}
	return stringutil.Sanitize(buf.String(), maxLength)
}

// stringText returns the sanitized value of a JSON string, or "" for any other value.
func stringText(raw json.RawMessage, maxLength int) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return stringutil.Sanitize(s, maxLength)
}

// truthy reports whether a JSON value is truthy: not null, false, 0, "", [] or {}.
func truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	switch c := raw[0]; {
	case c == 'n' || c == 'f':
		return false
	case c == 't':
		return true
	case c == '"':
		return string(raw) != `""`
	case c == '[' || c == '{':
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return false
		}
		switch v := v.(type) {
		case []any:
			return len(v) > 0
		case map[string]any:
			return len(v) > 0
		}
		return false
	}
	// Out of range literals parse as ±Inf (truthy) or 0 (underflow).
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return false
	}
	return f != 0
}

func errorParams(format string, args ...any) *Params {
	params := NewParams()
	params.Set("Error", stringutil.Sanitize(fmt.Sprintf(format, args...), MaxErrorLength))
	return params
}
