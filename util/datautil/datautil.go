package datautil

import (
	"encoding/json"
	"fmt"
	"io"
	"iter"
)

const (
	OpChanged = "changed"
	OpAdded   = "added"
	OpRemoved = "removed"
)

// Change is the difference of one key between two key/value sequences.
type Change struct {
	Key  string `json:"key"`
	Op   string `json:"op"`
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// DiffResult holds the changes in key order: keys of a first (in a's order),
// then keys only present in b (in b's order).
type DiffResult struct {
	Changes []Change
}

// Diff computes the diff between two key/value sequences with unique keys.
// If there are no differences, it returns nil.
func Diff(a, b iter.Seq2[string, string]) *DiffResult {
	var aKeys, bKeys []string
	aMap := map[string]string{}
	bMap := map[string]string{}
	for k, v := range a {
		aKeys = append(aKeys, k)
		aMap[k] = v
	}
	for k, v := range b {
		bKeys = append(bKeys, k)
		bMap[k] = v
	}

	var changes []Change
	for _, k := range aKeys {
		bVal, exists := bMap[k]
		if !exists {
			changes = append(changes, Change{Key: k, Op: OpRemoved, From: aMap[k]})
		} else if bVal != aMap[k] {
			changes = append(changes, Change{Key: k, Op: OpChanged, From: aMap[k], To: bVal})
		}
	}
	for _, k := range bKeys {
		if _, exists := aMap[k]; !exists {
			changes = append(changes, Change{Key: k, Op: OpAdded, To: bMap[k]})
		}
	}
	if len(changes) == 0 {
		return nil
	}
	return &DiffResult{Changes: changes}
}

// Empty reports whether there are no differences.
func (d *DiffResult) Empty() bool {
	return d == nil || len(d.Changes) == 0
}

// MarshalJSON writes the changes array; no differences is an empty array.
func (d *DiffResult) MarshalJSON() ([]byte, error) {
	if d.Empty() {
		return []byte("[]"), nil
	}
	return json.Marshal(d.Changes)
}

// Print writes a human-readable diff to the given writer.
//
// Format examples:
//
//	~ Steps: 20 -> 30
//	+ Model = sd_xl
//	- Seed = 42
func (d *DiffResult) Print(w io.Writer) error {
	if d.Empty() {
		_, err := fmt.Fprintln(w, "no differences")
		return err
	}
	for _, c := range d.Changes {
		var err error
		switch c.Op {
		case OpAdded:
			_, err = fmt.Fprintf(w, "+ %s = %s\n", c.Key, c.To)
		case OpRemoved:
			_, err = fmt.Fprintf(w, "- %s = %s\n", c.Key, c.From)
		default:
			_, err = fmt.Fprintf(w, "~ %s: %s -> %s\n", c.Key, c.From, c.To)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Keys returns the changed keys.
func (d *DiffResult) Keys() []string {
	if d.Empty() {
		return nil
	}
	keys := make([]string, 0, len(d.Changes))
	for _, c := range d.Changes {
		keys = append(keys, c.Key)
	}
	return keys
}
