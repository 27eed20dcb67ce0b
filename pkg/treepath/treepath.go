package treepath

import (
	"fmt"
	"strconv"
	"strings"
)

// Path is an ordered sequence of components addressing a node inside nested
// map[string]any / []any structures. A component is either a non-empty string
// (map key) or an int (slice index).
//
// The string form separates keys by dots and wraps indices in brackets:
// "company.members[0].name" -> ["company", "members", 0, "name"].
type Path struct {
	components []any
}

// Empty returns the empty path, which denotes the root node.
func Empty() Path {
	return Path{}
}

// New builds a path from the given components. Components must be non-empty
// strings or ints.
func New(components ...any) (Path, error) {
	for _, c := range components {
		switch v := c.(type) {
		case string:
			if v == "" {
				return Path{}, fmt.Errorf("path contains an empty string component")
			}
		case int:
		default:
			return Path{}, fmt.Errorf("path component %v is neither string nor int", c)
		}
	}
	return Path{components: components}, nil
}

// MustNew is New for components known to be valid; it panics otherwise.
func MustNew(components ...any) Path {
	p, err := New(components...)
	if err != nil {
		panic(err)
	}
	return p
}

// Parse converts the dotted/bracketed string form into a Path.
func Parse(s string) (Path, error) {
	if s == "" {
		return Path{}, nil
	}

	var components []any
	for _, part := range strings.Split(s, ".") {
		key, brackets, err := splitFirstBracket(part)
		if err != nil {
			return Path{}, err
		}
		if key == "" {
			return Path{}, fmt.Errorf("path %q contains an empty component", s)
		}
		components = append(components, key)

		for brackets != "" {
			var idx int
			idx, brackets, err = extractIndex(brackets)
			if err != nil {
				return Path{}, err
			}
			components = append(components, idx)
		}
	}
	return Path{components: components}, nil
}

// MustParse is Parse for paths known to be well-formed; it panics otherwise.
func MustParse(s string) Path {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

// splitFirstBracket splits "members[0][1]" into ("members", "[0][1]").
func splitFirstBracket(s string) (key, brackets string, err error) {
	pos := strings.IndexByte(s, '[')
	if pos == -1 {
		if strings.IndexByte(s, ']') != -1 {
			return "", "", fmt.Errorf("unmatched ']' in path component %q", s)
		}
		return s, "", nil
	}
	return s[:pos], s[pos:], nil
}

// extractIndex consumes one "[n]" prefix and returns the remainder.
func extractIndex(s string) (int, string, error) {
	end := strings.IndexByte(s, ']')
	if end == -1 {
		return 0, "", fmt.Errorf("unmatched '[' in path")
	}
	idx, err := strconv.Atoi(s[1:end])
	if err != nil {
		return 0, "", fmt.Errorf("invalid index %q in path", s[1:end])
	}
	return idx, s[end+1:], nil
}

// Components returns a copy of the component slice.
func (p Path) Components() []any {
	out := make([]any, len(p.components))
	copy(out, p.components)
	return out
}

// Len returns the number of components.
func (p Path) Len() int {
	return len(p.components)
}

// IsEmpty reports whether the path denotes the root.
func (p Path) IsEmpty() bool {
	return len(p.components) == 0
}

// At returns the i-th component.
func (p Path) At(i int) any {
	return p.components[i]
}

// Slice returns a new path holding components [from:to].
func (p Path) Slice(from, to int) Path {
	sub := make([]any, to-from)
	copy(sub, p.components[from:to])
	return Path{components: sub}
}

// Parent returns the path without its last component, and false for the root.
func (p Path) Parent() (Path, bool) {
	if len(p.components) == 0 {
		return Path{}, false
	}
	return p.Slice(0, len(p.components)-1), true
}

// Last returns the final component, or nil for the empty path.
func (p Path) Last() any {
	if len(p.components) == 0 {
		return nil
	}
	return p.components[len(p.components)-1]
}

// Append returns a new path with the given components appended.
func (p Path) Append(components ...any) Path {
	joined := make([]any, 0, len(p.components)+len(components))
	joined = append(joined, p.components...)
	joined = append(joined, components...)
	return Path{components: joined}
}

// Join concatenates paths into a new path.
func Join(paths ...Path) Path {
	var joined []any
	for _, p := range paths {
		joined = append(joined, p.components...)
	}
	return Path{components: joined}
}

// String renders the canonical string form: integers emit "[n]" with no
// separator, string components are preceded by '.' unless first.
func (p Path) String() string {
	var b strings.Builder
	for i, c := range p.components {
		switch v := c.(type) {
		case int:
			fmt.Fprintf(&b, "[%d]", v)
		case string:
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(v)
		}
	}
	return b.String()
}
