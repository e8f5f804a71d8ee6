package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// ErrInvalidType is returned when a field value cannot be converted to its column kind.
var ErrInvalidType = errors.New("invalid type")

// Payload is a write request body: field name to value.
type Payload map[string]any

// Has reports whether key is present with a non-null value.
func (p Payload) Has(key string) bool {
	if p == nil {
		return false
	}
	v, ok := p[key]
	return ok && v != nil
}

// Decode copies the payload into out, a pointer to a record struct with
// mapstructure tags. Numbers may arrive as json.Number, float64 or numeric
// strings; unknown keys are ignored.
func (p Payload) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		DecodeHook:       jsonNumberHook,
	})
	if err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	if err := dec.Decode(map[string]any(p)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidType, err)
	}
	return nil
}

// jsonNumberHook unwraps json.Number so integer targets reject fractions
// and float targets keep full precision.
func jsonNumberHook(_ reflect.Type, _ reflect.Type, data any) (any, error) {
	n, ok := data.(json.Number)
	if !ok {
		return data, nil
	}
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Coerce converts a payload or query value to the Go type stored for kind:
// string for text and datetime columns, int64 for integer columns and
// float64 for real columns. Datetimes are normalized to StorageLayout.
// JSON columns are returned unchanged.
func Coerce(kind Kind, v any) (any, error) {
	switch kind {
	case KindText:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: want text, got %T", ErrInvalidType, v)
		}
		return s, nil
	case KindDatetime:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: want datetime string, got %T", ErrInvalidType, v)
		}
		return NormalizeDatetime(s)
	case KindInteger:
		return toInt64(v)
	case KindReal:
		return toFloat64(v)
	case KindJSON:
		return v, nil
	default:
		return nil, fmt.Errorf("%w: unknown column kind %d", ErrInvalidType, kind)
	}
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%w: %v is not an integer", ErrInvalidType, n)
		}
		return int64(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s is not an integer", ErrInvalidType, n)
		}
		return i, nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidType, n)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("%w: want integer, got %T", ErrInvalidType, v)
	}
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s is not a number", ErrInvalidType, n)
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidType, n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: want number, got %T", ErrInvalidType, v)
	}
}
