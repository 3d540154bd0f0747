package command

import (
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// DateLayout is the canonical representation of date fields.
const DateLayout = "2006-01-02"

// ParseNumber reads a JSON number, or a numeric string when lenient is set.
func ParseNumber(v gjson.Result, lenient bool) (*big.Rat, bool) {
	var text string
	switch {
	case v.Type == gjson.Number:
		text = v.Raw
	case v.Type == gjson.String && lenient:
		text = strings.TrimSpace(v.Str)
	default:
		return nil, false
	}
	if text == "" {
		return nil, false
	}
	r, ok := new(big.Rat).SetString(text)
	return r, ok
}

// ParseBool reads a JSON boolean, or "true"/"false" strings when lenient is set.
func ParseBool(v gjson.Result, lenient bool) (bool, bool) {
	switch v.Type {
	case gjson.True:
		return true, true
	case gjson.False:
		return false, true
	case gjson.String:
		if !lenient {
			return false, false
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v.Str))
		return b, err == nil
	}
	return false, false
}

// ParseDate reads a date either as "yyyy-mm-dd" or as a [year, month, day]
// array.
func ParseDate(v gjson.Result) (time.Time, bool) {
	switch {
	case v.Type == gjson.String:
		t, err := time.Parse(DateLayout, strings.TrimSpace(v.Str))
		return t, err == nil
	case v.IsArray():
		parts := v.Array()
		if len(parts) != 3 {
			return time.Time{}, false
		}
		var ymd [3]int
		for i, p := range parts {
			if p.Type != gjson.Number {
				return time.Time{}, false
			}
			n, err := strconv.Atoi(p.Raw)
			if err != nil {
				return time.Time{}, false
			}
			ymd[i] = n
		}
		t := time.Date(ymd[0], time.Month(ymd[1]), ymd[2], 0, 0, 0, 0, time.UTC)
		// reject overflowed dates like [2026, 2, 31]
		if t.Year() != ymd[0] || int(t.Month()) != ymd[1] || t.Day() != ymd[2] {
			return time.Time{}, false
		}
		return t, true
	}
	return time.Time{}, false
}

// isBlank reports whether v carries no value: absent, null, or a blank string.
func isBlank(v gjson.Result) bool {
	if !v.Exists() || v.Type == gjson.Null {
		return true
	}
	return v.Type == gjson.String && strings.TrimSpace(v.Str) == ""
}

// Equal compares two JSON values of a field of the given kind. Representation
// differences are ignored: 40, 40.0 and "40" are equal numbers, "2026-01-05"
// and [2026,1,5] are equal dates, and absent, null and blank strings are all
// "no value".
func Equal(kind Kind, a, b gjson.Result) bool {
	if isBlank(a) || isBlank(b) {
		return isBlank(a) && isBlank(b)
	}

	switch kind {
	case KindNumber:
		x, okA := ParseNumber(a, true)
		y, okB := ParseNumber(b, true)
		if okA && okB {
			return x.Cmp(y) == 0
		}
	case KindBool:
		x, okA := ParseBool(a, true)
		y, okB := ParseBool(b, true)
		if okA && okB {
			return x == y
		}
	case KindDate:
		x, okA := ParseDate(a)
		y, okB := ParseDate(b)
		if okA && okB {
			return x.Equal(y)
		}
	case KindString:
		if a.Type == gjson.String && b.Type == gjson.String {
			return strings.TrimSpace(a.Str) == strings.TrimSpace(b.Str)
		}
	}
	return reflect.DeepEqual(a.Value(), b.Value())
}

// canonical renders v as the canonical JSON for a field of the given kind.
// lenient enables string coercion for numbers and booleans and scalar
// coercion for strings.
func canonical(kind Kind, v gjson.Result, lenient bool) (string, error) {
	if v.Type == gjson.Null {
		return "null", nil
	}

	switch kind {
	case KindString:
		switch {
		case v.Type == gjson.String:
			return quote(v.Str), nil
		case lenient && (v.Type == gjson.Number || v.Type == gjson.True || v.Type == gjson.False):
			return quote(v.Raw), nil
		}
		return "", fmt.Errorf("must be a string")
	case KindNumber:
		r, ok := ParseNumber(v, lenient)
		if !ok {
			return "", fmt.Errorf("must be a number")
		}
		return FormatNumber(r), nil
	case KindBool:
		b, ok := ParseBool(v, lenient)
		if !ok {
			return "", fmt.Errorf("must be a boolean")
		}
		return strconv.FormatBool(b), nil
	case KindDate:
		t, ok := ParseDate(v)
		if !ok {
			return "", fmt.Errorf("must be a date in yyyy-mm-dd form")
		}
		return quote(t.Format(DateLayout)), nil
	}
	return "", fmt.Errorf("has unsupported kind %q", kind)
}

// FormatNumber renders r as the shortest exact decimal.
func FormatNumber(r *big.Rat) string {
	if r.IsInt() {
		return r.Num().String()
	}
	for prec := 1; prec <= 64; prec++ {
		s := r.FloatString(prec)
		back, ok := new(big.Rat).SetString(s)
		if ok && back.Cmp(r) == 0 {
			return s
		}
	}
	return r.FloatString(64)
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
