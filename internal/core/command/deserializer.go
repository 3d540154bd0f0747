package command

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/example/mkc/internal/apperr"
)

// Deserializer turns raw JSON payloads into typed commands.
//
// In lenient mode unknown parameters are dropped and scalar representations
// are coerced ("40" for a number, "true" for a boolean). Strict mode rejects
// unknown parameters and requires every value in its native JSON type.
type Deserializer struct {
	registry *Registry
}

// NewDeserializer creates a Deserializer for the registered entity types.
func NewDeserializer(registry *Registry) *Deserializer {
	return &Deserializer{registry: registry}
}

// Deserialize parses payload into a Command for resource.
func (d *Deserializer) Deserialize(resource string, resourceID *int64, payload string, strict bool) (*Command, error) {
	def, err := d.registry.Lookup(resource)
	if err != nil {
		return nil, err
	}

	if !gjson.Valid(payload) {
		return nil, apperr.Validation([]ParameterError{{
			Parameter: "json",
			Code:      "validation.msg.invalid.json",
			Message:   "The request body is not valid JSON.",
		}})
	}
	root := gjson.Parse(payload)
	if !root.IsObject() {
		return nil, apperr.Validation([]ParameterError{{
			Parameter: "json",
			Code:      "validation.msg.invalid.json.object",
			Message:   "The request body must be a JSON object.",
		}})
	}

	cmd := newCommand(def.Resource, resourceID)
	var errs []ParameterError
	root.ForEach(func(key, value gjson.Result) bool {
		name := key.Str
		field, known := def.Field(name)
		if !known {
			if strict {
				errs = append(errs, paramError(def.Resource, name, "not.supported.parameter",
					fmt.Sprintf("The parameter %s is not supported.", name), value.Value()))
			}
			return true
		}
		raw, err := canonical(field.Kind, value, !strict)
		if err != nil {
			errs = append(errs, paramError(def.Resource, name, "invalid."+string(field.Kind),
				fmt.Sprintf("The parameter %s %s.", name, err), value.Value()))
			return true
		}
		cmd.set(Value{Field: field, Raw: raw})
		return true
	})

	if len(errs) > 0 {
		return nil, apperr.Validation(errs)
	}
	return cmd, nil
}

// ParameterError is re-exported so callers of this package do not need apperr
// for building validation failures.
type ParameterError = apperr.ParameterError

func paramError(resource, parameter, rule, message string, value any) ParameterError {
	return ParameterError{
		Parameter: parameter,
		Code:      fmt.Sprintf("validation.msg.%s.%s.%s", resource, parameter, rule),
		Message:   message,
		Value:     value,
	}
}
