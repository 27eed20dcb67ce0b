package dispatch

import (
	"reflect"
	"regexp"
)

// Predicate tests a single value. Predicates must be consistent: the same
// value always yields the same answer, so a match decision can be relied on
// after it was made.
type Predicate func(value any) bool

// Any accepts every value.
func Any() Predicate {
	return func(any) bool { return true }
}

// NotNil accepts every value except nil.
func NotNil() Predicate {
	return func(v any) bool { return v != nil }
}

// Equals accepts values deep-equal to expected.
func Equals(expected any) Predicate {
	return func(v any) bool { return reflect.DeepEqual(v, expected) }
}

// In accepts values deep-equal to one of the given values.
func In(values ...any) Predicate {
	return func(v any) bool {
		for _, candidate := range values {
			if reflect.DeepEqual(v, candidate) {
				return true
			}
		}
		return false
	}
}

// Not inverts a predicate.
func Not(p Predicate) Predicate {
	return func(v any) bool { return !p(v) }
}

// When is the logical and of predicates.
func When(preds ...Predicate) Predicate {
	return func(v any) bool {
		for _, p := range preds {
			if !p(v) {
				return false
			}
		}
		return true
	}
}

// Either is the logical or of predicates.
func Either(preds ...Predicate) Predicate {
	return func(v any) bool {
		for _, p := range preds {
			if p(v) {
				return true
			}
		}
		return false
	}
}

// OneOf accepts values matching exactly one of the predicates.
func OneOf(preds ...Predicate) Predicate {
	return func(v any) bool {
		found := false
		for _, p := range preds {
			if p(v) {
				if found {
					return false
				}
				found = true
			}
		}
		return found
	}
}

// OfType accepts values assignable to T.
func OfType[T any]() Predicate {
	return func(v any) bool {
		_, ok := v.(T)
		return ok
	}
}

// IsString accepts string values.
func IsString() Predicate { return OfType[string]() }

// IsInt accepts int values.
func IsInt() Predicate { return OfType[int]() }

// IsBool accepts bool values.
func IsBool() Predicate { return OfType[bool]() }

// IsMap accepts map[string]any values.
func IsMap() Predicate { return OfType[map[string]any]() }

// IsList accepts []any values.
func IsList() Predicate { return OfType[[]any]() }

// Match accepts strings matched by the anchored-at-start pattern.
func Match(pattern string) Predicate {
	re := regexp.MustCompile(pattern)
	return func(v any) bool {
		s, ok := v.(string)
		if !ok {
			return false
		}
		loc := re.FindStringIndex(s)
		return loc != nil && loc[0] == 0
	}
}

// InRange accepts numbers between min and max inclusive. Either bound may
// be nil to leave that side open. Bounds and values may be int or float64.
func InRange(min, max any) Predicate {
	return func(v any) bool {
		n, ok := asNumber(v)
		if !ok {
			return false
		}
		if lo, ok := asNumber(min); ok && n < lo {
			return false
		}
		if hi, ok := asNumber(max); ok && hi < n {
			return false
		}
		return true
	}
}

// OfLen accepts strings, slices and maps whose length lies between min and
// max inclusive; max -1 leaves the upper bound open.
func OfLen(min, max int) Predicate {
	return func(v any) bool {
		var n int
		switch t := v.(type) {
		case string:
			n = len(t)
		case []any:
			n = len(t)
		case map[string]any:
			n = len(t)
		default:
			return false
		}
		if n < min {
			return false
		}
		return max < 0 || n <= max
	}
}

// Call adapts any bool-returning function of the value into a predicate.
func Call(fn func(value any) bool) Predicate {
	return Predicate(fn)
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
