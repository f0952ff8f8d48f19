package harness

import (
	"regexp"
	"strconv"
)

// placeholder matches {i} and {name} references.
var placeholder = regexp.MustCompile(`\{([A-Za-z][A-Za-z0-9_-]*)\}`)

// resolver maps a name to the principal it stands for.
type resolver func(name string) (string, bool)

// expandIndex replaces {i} with the repeat index and leaves other
// placeholders untouched. This is the form recorded in traces.
func expandIndex(s string, index int) string {
	return placeholder.ReplaceAllStringFunc(s, func(m string) string {
		if m == "{i}" {
			return strconv.Itoa(index)
		}
		return m
	})
}

// expand replaces {i} and every {name} the resolver knows. Unknown names
// are left as written so the literal parser reports them.
func expand(s string, index int, resolve resolver) string {
	return placeholder.ReplaceAllStringFunc(s, func(m string) string {
		name := m[1 : len(m)-1]
		if name == "i" {
			return strconv.Itoa(index)
		}
		if p, ok := resolve(name); ok {
			return p
		}
		return m
	})
}

func expandAll(in []string, index int, resolve resolver) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = expand(s, index, resolve)
	}
	return out
}

func expandIndexAll(in []string, index int) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = expandIndex(s, index)
	}
	return out
}
