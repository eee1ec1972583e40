// Package codec reads and writes the flat KEY=VALUE request/response format.
package codec

import (
	"sort"
	"strings"
)

// Fields is a parsed request: case-sensitive field name to value.
type Fields map[string]string

// Field is one KEY=VALUE entry of a response.
type Field struct {
	Key   string
	Value string
}

// Get returns the value of key and whether it was present.
func (f Fields) Get(key string) (string, bool) {
	v, ok := f[key]
	return v, ok
}

// Pairs returns the entries in the given key order, followed by any
// remaining keys sorted lexically.
func (f Fields) Pairs(order ...string) []Field {
	out := make([]Field, 0, len(f))
	seen := make(map[string]struct{}, len(order))
	for _, k := range order {
		if v, ok := f[k]; ok {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, Field{Key: k, Value: v})
		}
	}
	rest := make([]string, 0, len(f)-len(out))
	for k := range f {
		if _, ok := seen[k]; !ok {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		out = append(out, Field{Key: k, Value: f[k]})
	}
	return out
}

// Parse is a best-effort parse: lines without '=' are skipped, each line is
// split on its first '=', and the last occurrence of a key wins.
func Parse(text string) Fields {
	fields := Fields{}
	for _, line := range strings.Split(text, "\n") {
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		fields[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return fields
}

// Serialize renders each entry as KEY=VALUE\n in the given order.
func Serialize(pairs []Field) string {
	var b strings.Builder
	for _, p := range pairs {
		b.WriteString(p.Key)
		b.WriteByte('=')
		b.WriteString(p.Value)
		b.WriteByte('\n')
	}
	return b.String()
}
