package utils

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// DecodeTOMLFile strictly decodes a TOML file into v.
// Undecoded keys are not an error, type mismatches are.
func DecodeTOMLFile(path string, v any) error {
	if _, err := toml.DecodeFile(path, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// ParseTOMLMap reads a TOML file into a generic map, for callers that want
// to salvage what they can from a file that doesn't match their struct.
func ParseTOMLMap(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any)
	if _, err := toml.Decode(string(data), &out); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return out, nil
}

// Lookup returns data[key] when it holds a T.
func Lookup[T any](data map[string]any, key string) (T, bool) {
	val, ok := data[key].(T)
	return val, ok
}

// ExtractInt reads a TOML integer, which decodes as int64.
func ExtractInt(data map[string]any, key string) (int, bool) {
	val, ok := Lookup[int64](data, key)
	return int(val), ok
}

// ExtractFloat64 accepts integers too: `threshold = 1` decodes as int64.
func ExtractFloat64(data map[string]any, key string) (float64, bool) {
	switch val := data[key].(type) {
	case float64:
		return val, true
	case int64:
		return float64(val), true
	}
	return 0, false
}
