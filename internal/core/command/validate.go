package command

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/example/mkc/internal/apperr"
)

// ValidateForCreate checks a create command against its definition.
// Rules:
// - Every required field must be present and not blank
// - Positive numbers must be integers greater than zero
// - Strings must not exceed their max length
func ValidateForCreate(def Definition, cmd *Command) error {
	var errs []ParameterError
	for _, f := range def.Fields {
		if f.Required && !cmd.Has(f.Name) {
			errs = append(errs, paramError(def.Resource, f.Name, "cannot.be.blank",
				fmt.Sprintf("The parameter %s is mandatory.", f.Name), nil))
		}
	}
	errs = append(errs, checkValues(def, cmd)...)
	if len(errs) > 0 {
		return apperr.Validation(errs)
	}
	return nil
}

// ValidateForUpdate checks an update command against its definition.
// Rules:
// - Required fields may be omitted but never cleared
// - Positive numbers must be integers greater than zero
// - Strings must not exceed their max length
func ValidateForUpdate(def Definition, cmd *Command) error {
	if errs := checkValues(def, cmd); len(errs) > 0 {
		return apperr.Validation(errs)
	}
	return nil
}

// RequireParameters fails when the command carries no known parameter.
func RequireParameters(cmd *Command) error {
	if cmd.Len() > 0 {
		return nil
	}
	return apperr.Validation([]ParameterError{{
		Parameter: "id",
		Code:      fmt.Sprintf("validation.msg.%s.update.parameters.none", cmd.Resource()),
		Message:   "No parameters passed for update.",
	}})
}

func checkValues(def Definition, cmd *Command) []ParameterError {
	var errs []ParameterError
	for _, v := range cmd.Values() {
		f := v.Field
		if v.IsNull() {
			if f.Required {
				errs = append(errs, paramError(def.Resource, f.Name, "cannot.be.blank",
					fmt.Sprintf("The parameter %s is mandatory.", f.Name), nil))
			}
			continue
		}

		switch f.Kind {
		case KindString:
			s, _ := cmd.String(f.Name)
			if f.Required && strings.TrimSpace(s) == "" {
				errs = append(errs, paramError(def.Resource, f.Name, "cannot.be.blank",
					fmt.Sprintf("The parameter %s is mandatory.", f.Name), s))
			}
			if f.MaxLength > 0 && utf8.RuneCountInString(s) > f.MaxLength {
				errs = append(errs, paramError(def.Resource, f.Name, "exceeds.max.length",
					fmt.Sprintf("The parameter %s exceeds max length of %d.", f.Name, f.MaxLength), s))
			}
		case KindNumber:
			if !f.Positive {
				continue
			}
			n, _ := cmd.Number(f.Name)
			if n == nil || !n.IsInt() || n.Sign() <= 0 {
				errs = append(errs, paramError(def.Resource, f.Name, "not.greater.than.zero",
					fmt.Sprintf("The parameter %s must be greater than 0.", f.Name), v.Raw))
			}
		case KindBool, KindDate:
			// kind already enforced by deserialization
		}
	}
	return errs
}
