package headers

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strings"
)

const (
	crlf = "\r\n"
)

// Headers holds header fields keyed by lowercased name.
type Headers map[string]string

func NewHeaders() Headers {
	return make(Headers)
}

// Parse consumes at most one header line from data. It returns the number of
// bytes consumed and done=true once the empty line ending the header section
// has been read. n == 0 with a nil error means more data is needed.
func (h Headers) Parse(data []byte) (n int, done bool, err error) {
	idx := bytes.Index(data, []byte(crlf))

	if idx == -1 {
		return 0, false, nil
	}
	if idx == 0 {
		return len(crlf), true, nil
	}

	line := string(data[:idx])
	name, value, ok := strings.Cut(line, ":")
	if !ok {
		return 0, false, fmt.Errorf("malformed header: %s", line)
	}

	if strings.TrimRight(name, " \t") != name {
		return 0, false, fmt.Errorf("spaces between header name and colon not allowed")
	}

	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return 0, false, fmt.Errorf("empty header key not allowed")
	}
	if !validateHeaderKey(key) {
		return 0, false, fmt.Errorf("invalid characters in header name: %s", key)
	}

	h.Add(key, strings.TrimSpace(value))

	return idx + len(crlf), false, nil
}

func validateHeaderKey(key string) bool {
	for _, char := range key {
		isAlpha := char >= 'a' && char <= 'z'
		isDigit := char >= '0' && char <= '9'
		isSpecial := strings.ContainsRune("!#$%&'*+-.^_`|~", char)

		if !isAlpha && !isDigit && !isSpecial {
			return false
		}
	}
	return true
}

func (h Headers) Get(key string) string {
	return h[strings.ToLower(key)]
}

func (h Headers) Set(key, value string) {
	h[strings.ToLower(key)] = value
}

// Add appends value to an existing field, comma separated.
func (h Headers) Add(key, value string) {
	key = strings.ToLower(key)
	if existing, ok := h[key]; ok {
		h[key] = existing + ", " + value
		return
	}
	h[key] = value
}

// Keys returns the field names in sorted order.
func (h Headers) Keys() []string {
	return slices.Sorted(maps.Keys(h))
}

func (h Headers) Clone() Headers {
	return maps.Clone(h)
}
