package config

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/ludo-technologies/jsguard/domain"
)

// InvalidValueError reports a configured value that cannot be coerced to
// the type the reader asked for
type InvalidValueError struct {
	Path  string
	Value string
	Type  string
	Cause error
}

// Error implements the error interface
func (e *InvalidValueError) Error() string {
	msg := fmt.Sprintf("Value %q set for config parameter %q is not of required type %s.", e.Value, e.Path, e.Type)
	if e.Cause != nil {
		msg += " " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *InvalidValueError) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is(err, domain.ErrConfig) match coercion failures
func (e *InvalidValueError) Is(target error) bool {
	return target == domain.ErrConfig
}

// KeyPath renders the addressing path of key in scope, e.g. "style > MaxLineLength > threshold"
func KeyPath(c Config, key string) string {
	return strings.Join(append(c.Path(), key), " > ")
}

// Value reads key from the scope, walking outward, and coerces it to the
// type of def. A missing key yields def. Supported types are string,
// bool, int, float64 and []string.
func Value[T any](c Config, key string, def T) (T, error) {
	raw, ok := c.Lookup(key)
	if !ok {
		return def, nil
	}
	return coerce(c, key, raw, def)
}

// LocalValue is Value restricted to the scope itself
func LocalValue[T any](c Config, key string, def T) (T, error) {
	raw, ok := c.Local(key)
	if !ok {
		return def, nil
	}
	return coerce(c, key, raw, def)
}

func coerce[T any](c Config, key string, raw any, def T) (T, error) {
	var (
		out any
		err error
	)
	switch any(def).(type) {
	case string:
		out, err = toString(raw)
	case bool:
		out, err = toBool(raw)
	case int:
		out, err = toInt(raw)
	case float64:
		out, err = toFloat(raw)
	case []string:
		out, err = toStringList(raw)
	default:
		return def, fmt.Errorf("unsupported config value type %T for %s", def, KeyPath(c, key))
	}
	if err != nil {
		return def, &InvalidValueError{Path: KeyPath(c, key), Value: fmt.Sprint(raw), Type: typeName(def)}
	}
	return out.(T), nil
}

func typeName(v any) string {
	switch v.(type) {
	case []string:
		return "list of strings"
	case float64:
		return "number"
	}
	return fmt.Sprintf("%T", v)
}

func toString(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case int, int64, float64, bool:
		return fmt.Sprint(v), nil
	}
	return "", fmt.Errorf("not a string")
}

func toBool(raw any) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(v))
	}
	return false, fmt.Errorf("not a bool")
}

func toInt(raw any) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v == math.Trunc(v) {
			return int(v), nil
		}
	case string:
		return strconv.Atoi(strings.TrimSpace(v))
	}
	return 0, fmt.Errorf("not an int")
}

func toFloat(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	}
	return 0, fmt.Errorf("not a number")
}

// toStringList accepts a YAML sequence, an inline "[a, b]" string or a
// comma-separated string
func toStringList(raw any) ([]string, error) {
	switch v := raw.(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, err := toString(item)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	case []string:
		return v, nil
	case string:
		return SplitList(v), nil
	}
	return nil, fmt.Errorf("not a list")
}

// SplitList parses an inline list such as "[a, b]" or "a, b". Quotes
// around items and empty items are dropped.
func SplitList(s string) []string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		part = strings.Trim(strings.TrimSpace(part), `"'`)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// StringList reads a list of strings
func StringList(c Config, key string, def []string) ([]string, error) {
	return Value(c, key, def)
}

// Regex reads and compiles a regular expression. Callers read it only for
// active rules so an invalid pattern on an inactive rule goes unnoticed.
func Regex(c Config, key string, def string) (*regexp.Regexp, error) {
	pattern, err := Value(c, key, def)
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &InvalidValueError{Path: KeyPath(c, key), Value: pattern, Type: "regex", Cause: err}
	}
	return re, nil
}

// IsActive reads the "active" key of the scope itself, defaulting to true.
// Unlisted scopes can be forced inactive by the load policy.
func IsActive(c Config) (bool, error) {
	return LocalValue(c, KeyActive, true)
}
