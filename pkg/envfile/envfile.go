// Package envfile reads and writes dotenv files. Deployment outputs
// are rendered as the environment variables the bot application reads
// at startup.
package envfile

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Parse reads KEY=value pairs from dotenv content. Blank lines and
// #-comments are ignored; an optional "export " prefix and single or
// double quotes around the value are stripped.
func Parse(content []byte) (map[string]string, error) {
	vars := make(map[string]string)

	for i, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		line = strings.TrimPrefix(line, "export ")

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: expected KEY=value, got %q", i+1, line)
		}

		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = unquote(value)

		vars[key] = value
	}

	return vars, nil
}

func unquote(value string) string {
	if len(value) >= 2 {
		if (value[0] == '"' && value[len(value)-1] == '"') ||
			(value[0] == '\'' && value[len(value)-1] == '\'') {
			return value[1 : len(value)-1]
		}
	}
	return value
}

// Render serializes the variables as dotenv content with sorted keys.
// Values containing whitespace or # are double-quoted.
func Render(vars map[string]string) []byte {
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	for _, key := range keys {
		value := vars[key]
		if strings.ContainsAny(value, " \t#") {
			value = `"` + value + `"`
		}
		fmt.Fprintf(&buf, "%s=%s\n", key, value)
	}
	return buf.Bytes()
}

// WriteMerged writes the variables to path, merging with any existing
// file: existing keys not present in vars are preserved, overlapping
// keys take the new value.
func WriteMerged(path string, vars map[string]string) error {
	merged := make(map[string]string, len(vars))

	if content, err := os.ReadFile(path); err == nil {
		existing, err := Parse(content)
		if err != nil {
			return fmt.Errorf("failed to parse existing %s: %w", path, err)
		}
		for key, value := range existing {
			merged[key] = value
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	for key, value := range vars {
		merged[key] = value
	}

	if err := os.WriteFile(path, Render(merged), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
