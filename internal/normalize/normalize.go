// Package normalize reads loosely shaped stored records into typed values.
// Every accessor returns its documented default when the field is missing
// or has an unexpected type; none of them fail.
package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// String returns the field as a string, "" by default. Numbers are formatted.
func String(data map[string]any, key string) string {
	switch v := data[key].(type) {
	case string:
		return v
	case int, int32, int64, float64:
		return fmt.Sprint(v)
	default:
		return ""
	}
}

func StringOr(data map[string]any, key, fallback string) string {
	if s := strings.TrimSpace(String(data, key)); s != "" {
		return s
	}
	return fallback
}

// Bool returns false unless the field is true or the string "true".
func Bool(data map[string]any, key string) bool {
	switch v := data[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	default:
		return false
	}
}

// Int accepts any numeric type or a numeric string, 0 by default.
func Int(data map[string]any, key string) int {
	return int(Float(data, key))
}

func Float(data map[string]any, key string) float64 {
	switch v := data[key].(type) {
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case float32:
		return float64(v)
	case float64:
		return v
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// Decimal reads prices stored either as numbers or strings.
func Decimal(data map[string]any, key string) decimal.Decimal {
	switch v := data[key].(type) {
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return decimal.Zero
		}
		return d
	case int:
		return decimal.NewFromInt(int64(v))
	case int32:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	case float64:
		return decimal.NewFromFloat(v)
	default:
		return decimal.Zero
	}
}

// Time converts a stored timestamp, falling back to now when absent.
func Time(data map[string]any, key string, now time.Time) time.Time {
	if t, ok := OptionalTime(data, key); ok {
		return t
	}
	return now
}

// OptionalTime accepts time.Time, RFC 3339 strings, epoch milliseconds and
// {seconds, nanoseconds} maps as written by web SDKs.
func OptionalTime(data map[string]any, key string) (time.Time, bool) {
	switch v := data[key].(type) {
	case time.Time:
		return v, !v.IsZero()
	case *time.Time:
		if v == nil || v.IsZero() {
			return time.Time{}, false
		}
		return *v, true
	case string:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"} {
			if t, err := time.Parse(layout, strings.TrimSpace(v)); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	case int64:
		return time.UnixMilli(v), true
	case int:
		return time.UnixMilli(int64(v)), true
	case float64:
		return time.UnixMilli(int64(v)), true
	case map[string]any:
		secs := Float(v, "seconds")
		if secs == 0 {
			secs = Float(v, "_seconds")
		}
		nanos := Float(v, "nanoseconds")
		if nanos == 0 {
			nanos = Float(v, "_nanoseconds")
		}
		if secs == 0 && nanos == 0 {
			return time.Time{}, false
		}
		return time.Unix(int64(secs), int64(nanos)), true
	default:
		return time.Time{}, false
	}
}

// Strings returns a list field as strings; never nil.
func Strings(data map[string]any, key string) []string {
	out := make([]string, 0)
	switch v := data[key].(type) {
	case []string:
		out = append(out, v...)
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
	case string:
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func Map(data map[string]any, key string) map[string]any {
	if m, ok := data[key].(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// Maps returns a list of nested records; never nil.
func Maps(data map[string]any, key string) []map[string]any {
	out := make([]map[string]any, 0)
	switch v := data[key].(type) {
	case []map[string]any:
		out = append(out, v...)
	case []any:
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
	}
	return out
}

// Number is a JSON value clients send either as a number or as a string.
type Number string

func (n *Number) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*n = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = Number(strings.TrimSpace(s))
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return errors.New("number must be a numeric value or string")
	}
	*n = Number(num.String())
	return nil
}

func (n Number) Decimal() decimal.Decimal {
	d, err := decimal.NewFromString(string(n))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (n Number) Float() float64 {
	f, _ := strconv.ParseFloat(string(n), 64)
	return f
}
