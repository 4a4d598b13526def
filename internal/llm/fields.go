package llm

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedResponse is returned when a model response contains none of the requested keys.
var ErrMalformedResponse = errors.New("malformed model response")

// Fields holds the values parsed from a "Key: value" response, keyed by normalized key.
type Fields map[string]string

// ParseFields parses the strict key-value grammar the prompts ask for:
//
//	Title: ...
//	Description: ...
//	Content: ...
//	Keywords: a, b, c
//
// A line starts a field when the text before its first colon is one of keys
// (case, spaces, underscores and markdown emphasis ignored). Any other
// non-blank line continues the field above it. Lines before the first key are
// dropped. Placeholder values such as "Not available" are stored empty.
func ParseFields(text string, keys ...string) (Fields, error) {
	allowed := make(map[string]bool, len(keys))
	for _, k := range keys {
		allowed[normalizeKey(k)] = true
	}

	fields := Fields{}
	current := ""
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if idx := strings.Index(trimmed, ":"); idx > 0 {
			key := normalizeKey(trimmed[:idx])
			if allowed[key] {
				current = key
				fields[key] = strings.TrimSpace(strings.Trim(trimmed[idx+1:], "* "))
				continue
			}
		}
		if current == "" || trimmed == "" {
			continue
		}
		if fields[current] == "" {
			fields[current] = trimmed
		} else {
			fields[current] += "\n" + trimmed
		}
	}

	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: none of %s found", ErrMalformedResponse, strings.Join(keys, ", "))
	}
	for k, v := range fields {
		if isPlaceholder(v) {
			fields[k] = ""
		}
	}
	return fields, nil
}

// Get returns the value of key, or "" when absent.
func (f Fields) Get(key string) string {
	return f[normalizeKey(key)]
}

// List splits a comma separated value, dropping surrounding brackets and blanks.
func (f Fields) List(key string) []string {
	raw := strings.Trim(f.Get(key), "[] ")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.Trim(strings.TrimSpace(part), `"'`)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Int parses a numeric value, tolerating thousands separators and a trailing unit.
func (f Fields) Int(key string) (int64, bool) {
	raw := strings.TrimSpace(f.Get(key))
	if raw == "" {
		return 0, false
	}
	raw = strings.Fields(raw)[0]
	raw = strings.NewReplacer(",", "", "_", "", "~", "").Replace(raw)
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func normalizeKey(k string) string {
	k = strings.ToLower(strings.TrimSpace(k))
	k = strings.TrimLeft(k, "-*#0123456789. ")
	k = strings.NewReplacer("*", "", " ", "", "_", "").Replace(k)
	return k
}

func isPlaceholder(v string) bool {
	switch strings.ToLower(strings.Trim(v, ". []")) {
	case "", "not available", "n/a", "none", "unknown":
		return true
	}
	return false
}
