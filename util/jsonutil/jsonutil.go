// Package jsonutil parses JSON that comes from untrusted sources (image metadata)
// under a hard size ceiling. Callers always get a usable value back; the error
// tells whether it is the parsed document or the supplied default.
package jsonutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// MaxLength is the largest input, in characters, that will be parsed.
const MaxLength = 1_000_000

var (
	ErrTooLarge = errors.New("json input exceeds size limit")
	ErrInvalid  = errors.New("invalid json")
)

// Object is a JSON object whose members keep their document order.
// Member values are left undecoded.
type Object = orderedmap.OrderedMap[string, json.RawMessage]

// Load parses text into a T. On failure it returns defaultValue together with an
// error wrapping ErrTooLarge or ErrInvalid.
// Numbers are decoded as json.Number so the literal is preserved.
// Trailing data after the first JSON value is an error.
func Load[T any](text string, defaultValue T) (T, error) {
	if tooLarge(text) {
		return defaultValue, ErrTooLarge
	}
	var target T
	decoder := json.NewDecoder(bytes.NewReader([]byte(text)))
	decoder.UseNumber()
	if err := decoder.Decode(&target); err != nil {
		return defaultValue, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := decoder.Decode(new(json.RawMessage)); err != io.EOF {
		return defaultValue, fmt.Errorf("%w: trailing data after top-level value", ErrInvalid)
	}
	return target, nil
}

// LoadOr is Load that discards the error.
func LoadOr[T any](text string, defaultValue T) T {
	value, _ := Load(text, defaultValue)
	return value
}

// LoadObject parses text as a JSON object keeping member order.
// Anything but an object (array, string, null...) is ErrInvalid.
func LoadObject(text string) (*Object, error) {
	if tooLarge(text) {
		return nil, ErrTooLarge
	}
	data := bytes.TrimSpace([]byte(text))
	if len(data) == 0 || data[0] != '{' {
		return nil, fmt.Errorf("%w: not a json object", ErrInvalid)
	}
	obj := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(data, obj); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return obj, nil
}

// DecodeValue decodes a raw member value with numbers kept as json.Number.
func DecodeValue(raw json.RawMessage) (value any, err error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err = decoder.Decode(&value); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return value, nil
}

// Report whether text has more than MaxLength runes, without counting past the limit.
func tooLarge(text string) bool {
	if len(text) <= MaxLength {
		return false
	}
	if len(text) > MaxLength*utf8.UTFMax {
		return true
	}
	return utf8.RuneCountInString(text) > MaxLength
}
