// Package changes reduces an update payload to the fields that differ from
// the current state of an entity.
package changes

import (
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/example/mkc/internal/core/command"
)

// Detect compares proposed against current field by field and returns a JSON
// object holding only the proposed fields whose value differs.
//
// Fields absent from proposed never appear in the result. Fields the
// definition does not know are skipped; they cannot be applied anyway.
// Proposed values are kept in their original representation.
func Detect(def command.Definition, current, proposed []byte) ([]byte, error) {
	if !gjson.ValidBytes(current) {
		return nil, fmt.Errorf("current state of %s is not valid JSON", def.Resource)
	}
	if !gjson.ValidBytes(proposed) {
		return nil, fmt.Errorf("proposed payload for %s is not valid JSON", def.Resource)
	}
	cur := gjson.ParseBytes(current)
	prop := gjson.ParseBytes(proposed)
	if !prop.IsObject() {
		return nil, fmt.Errorf("proposed payload for %s must be a JSON object", def.Resource)
	}

	delta := []byte("{}")
	var setErr error
	prop.ForEach(func(key, value gjson.Result) bool {
		field, ok := def.Field(key.Str)
		if !ok {
			return true
		}
		path := command.EscapePath(key.Str)
		if command.Equal(field.Kind, cur.Get(path), value) {
			return true
		}
		delta, setErr = sjson.SetRawBytes(delta, path, []byte(value.Raw))
		return setErr == nil
	})
	if setErr != nil {
		return nil, fmt.Errorf("failed to build delta for %s: %w", def.Resource, setErr)
	}
	return delta, nil
}

// Fields returns the top-level keys of a JSON object in document order.
func Fields(doc []byte) []string {
	var names []string
	gjson.ParseBytes(doc).ForEach(func(key, _ gjson.Result) bool {
		names = append(names, key.Str)
		return true
	})
	return names
}
