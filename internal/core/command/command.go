package command

import (
	"fmt"
	"math/big"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Value is one deserialized field of a command.
type Value struct {
	Field Field
	Raw   string // canonical JSON
}

// IsNull reports whether the value was explicitly null.
func (v Value) IsNull() bool { return v.Raw == "null" }

// Command is the typed, read-only projection of a command payload.
type Command struct {
	resource   string
	resourceID *int64
	values     []Value
	index      map[string]int
}

func newCommand(resource string, resourceID *int64) *Command {
	c := &Command{resource: resource, index: map[string]int{}}
	if resourceID != nil {
		id := *resourceID
		c.resourceID = &id
	}
	return c
}

func (c *Command) set(v Value) {
	if i, ok := c.index[v.Field.Name]; ok {
		c.values[i] = v
		return
	}
	c.index[v.Field.Name] = len(c.values)
	c.values = append(c.values, v)
}

// Resource returns the resource name the command targets.
func (c *Command) Resource() string { return c.resource }

// ResourceID returns the targeted resource id, or nil for creates.
func (c *Command) ResourceID() *int64 {
	if c.resourceID == nil {
		return nil
	}
	id := *c.resourceID
	return &id
}

// Len returns the number of fields carried.
func (c *Command) Len() int { return len(c.values) }

// Has reports whether the payload carried the field (null included).
func (c *Command) Has(name string) bool {
	_, ok := c.index[name]
	return ok
}

// Value returns the field value.
func (c *Command) Value(name string) (Value, bool) {
	i, ok := c.index[name]
	if !ok {
		return Value{}, false
	}
	return c.values[i], true
}

// Values returns the fields in payload order.
func (c *Command) Values() []Value {
	out := make([]Value, len(c.values))
	copy(out, c.values)
	return out
}

// FieldNames returns the names of the carried fields in payload order.
func (c *Command) FieldNames() []string {
	names := make([]string, len(c.values))
	for i, v := range c.values {
		names[i] = v.Field.Name
	}
	return names
}

// String returns a string field.
func (c *Command) String(name string) (string, bool) {
	v, ok := c.Value(name)
	if !ok || v.IsNull() {
		return "", false
	}
	return gjson.Parse(v.Raw).Str, true
}

// Number returns a number field.
func (c *Command) Number(name string) (*big.Rat, bool) {
	v, ok := c.Value(name)
	if !ok || v.IsNull() {
		return nil, false
	}
	return ParseNumber(gjson.Parse(v.Raw), false)
}

// Bool returns a boolean field.
func (c *Command) Bool(name string) (bool, bool) {
	v, ok := c.Value(name)
	if !ok || v.IsNull() {
		return false, false
	}
	return ParseBool(gjson.Parse(v.Raw), false)
}

// Date returns a date field.
func (c *Command) Date(name string) (time.Time, bool) {
	v, ok := c.Value(name)
	if !ok || v.IsNull() {
		return time.Time{}, false
	}
	return ParseDate(gjson.Parse(v.Raw))
}

// JSON renders the command's fields as a canonical JSON object.
func (c *Command) JSON() (string, error) {
	doc := []byte("{}")
	for _, v := range c.values {
		var err error
		doc, err = sjson.SetRawBytes(doc, EscapePath(v.Field.Name), []byte(v.Raw))
		if err != nil {
			return "", fmt.Errorf("failed to render field %s: %w", v.Field.Name, err)
		}
	}
	return string(doc), nil
}

// EscapePath escapes a top-level key for use as a gjson/sjson path.
func EscapePath(key string) string {
	out := make([]byte, 0, len(key))
	for i := 0; i < len(key); i++ {
		switch key[i] {
		case '\\', '.', '*', '?', '|', '#', '@', '!', ':', '%', '=', '<', '>':
			out = append(out, '\\')
		}
		out = append(out, key[i])
	}
	return string(out)
}
