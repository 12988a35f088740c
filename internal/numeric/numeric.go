// Package numeric converts numbers printed by GALFIT, repairing the truncated
// exponent markers it sometimes emits (e.g. "3.414e").
package numeric

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

var danglingExponent = regexp.MustCompile(`[eE][+-]?$`)

// SafeFloat parses s as a float.
// A trailing exponent marker with no digits is dropped before retrying.
// It returns false if s does not hold a number once repaired.
func SafeFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if v, ok := parseFloat(s); ok {
		return v, true
	}

	repaired := danglingExponent.ReplaceAllString(s, "")
	if repaired == s || repaired == "" {
		return 0, false
	}
	return parseFloat(repaired)
}

func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err == nil {
		return v, true
	}
	// Out of range values still carry the nearest representable value.
	if errors.Is(err, strconv.ErrRange) {
		return v, true
	}
	return 0, false
}

// SafeInt parses s as an integer. Integral float text ("8175.0") is accepted.
func SafeInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if v, err := strconv.Atoi(s); err == nil {
		return v, true
	}
	f, ok := SafeFloat(s)
	if !ok || f != math.Trunc(f) || math.IsInf(f, 0) || f > math.MaxInt || f < math.MinInt {
		return 0, false
	}
	return int(f), true
}

// Float converts an already decoded value to a float.
// Strings, including named string types such as json.Number, go through SafeFloat.
// Every other numeric kind is converted directly.
func Float(v any) (float64, bool) {
	switch t := v.(type) {
	case string:
		return SafeFloat(t)
	case []byte:
		return SafeFloat(string(t))
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.String:
		return SafeFloat(rv.String())
	default:
		return 0, false
	}
}

// ErrNotANumber is returned by FloatHook when a value cannot be read as a float.
var ErrNotANumber = errors.New("not a number")

// FloatHook is a mapstructure decode hook filling float fields through Float,
// so that quoted and truncated numbers from request files are accepted.
func FloatHook() mapstructure.DecodeHookFuncType {
	return func(_ reflect.Type, to reflect.Type, data any) (any, error) {
		if to.Kind() != reflect.Float64 && to.Kind() != reflect.Float32 {
			return data, nil
		}
		v, ok := Float(data)
		if !ok {
			return nil, fmt.Errorf("%w: %v", ErrNotANumber, data)
		}
		return v, nil
	}
}
