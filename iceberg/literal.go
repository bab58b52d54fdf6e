package iceberg

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Literal converts a native value into a SQL literal. This is the single
// point where injection-relevant escaping happens: every statement builder
// routes caller values through here and never concatenates them raw.
//
// The accepted set is closed: nil, bool, integers, floats, strings,
// time.Time, json.Number, and JSON-shaped maps/slices. Anything else fails
// with ErrUnsupportedValue.
func Literal(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "NULL", nil
	case bool:
		if val {
			return "TRUE", nil
		}
		return "FALSE", nil
	case int:
		return strconv.FormatInt(int64(val), 10), nil
	case int8:
		return strconv.FormatInt(int64(val), 10), nil
	case int16:
		return strconv.FormatInt(int64(val), 10), nil
	case int32:
		return strconv.FormatInt(int64(val), 10), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case uint:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint64:
		return strconv.FormatUint(val, 10), nil
	case float32:
		return floatLiteral(float64(val))
	case float64:
		return floatLiteral(val)
	case json.Number:
		return val.String(), nil
	case string:
		return textLiteral(val)
	case time.Time:
		// Quoted ISO-8601, engine-side cast is up to the column type
		return "'" + val.Format("2006-01-02T15:04:05") + "'", nil
	case map[string]any, []any:
		jsonBytes, err := json.Marshal(val)
		if err != nil {
			return "", fmt.Errorf("error in json.Marshal: %s: %w", err.Error(), ErrUnsupportedValue)
		}
		return textLiteral(string(jsonBytes))
	default:
		return "", fmt.Errorf("cannot serialize %T: %w", v, ErrUnsupportedValue)
	}
}

func floatLiteral(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("non-finite float: %w", ErrUnsupportedValue)
	}
	return strconv.FormatFloat(f, 'g', -1, 64), nil
}

func textLiteral(s string) (string, error) {
	if strings.ContainsRune(s, 0) {
		return "", fmt.Errorf("text contains a null byte: %w", ErrUnsupportedValue)
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'", nil
}
