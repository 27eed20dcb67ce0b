package dispatch

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNoVariant is returned when no registered variant accepts the call
// arguments.
var ErrNoVariant = errors.New("no matching variant")

// Param constrains one named argument of a variant.
type Param struct {
	pred     Predicate
	optional bool
	absent   bool
}

// P declares a required argument matching pred.
func P(pred Predicate) Param {
	return Param{pred: pred}
}

// Opt declares an optional argument; when present it must match pred.
func Opt(pred Predicate) Param {
	return Param{pred: pred, optional: true}
}

// Absent declares an argument that must not be present.
func Absent() Param {
	return Param{absent: true}
}

// Params maps argument names to their constraints.
type Params map[string]Param

// MatchError explains why args fail the constraints, or returns "" on a
// match. Arguments not named in the constraints fail the match unless
// allowExtra is set.
func (ps Params) MatchError(args map[string]any, allowExtra bool) string {
	for name, param := range ps {
		value, present := args[name]
		switch {
		case param.absent:
			if present {
				return fmt.Sprintf("%q must not be present", name)
			}
		case !present:
			if !param.optional {
				return fmt.Sprintf("%q is a missing argument", name)
			}
		case param.pred != nil && !param.pred(value):
			return fmt.Sprintf("test for %q failed on %v", name, value)
		}
	}

	if !allowExtra {
		for name := range args {
			if _, declared := ps[name]; !declared {
				return fmt.Sprintf("unexpected argument %q", name)
			}
		}
	}
	return ""
}

// Matches reports whether args satisfy the constraints.
func (ps Params) Matches(args map[string]any, allowExtra bool) bool {
	return ps.MatchError(args, allowExtra) == ""
}

type variant[H any] struct {
	params     Params
	allowExtra bool
	handler    H
}

// Namespace holds the variants of one dispatched operation. Variants are
// tried in registration order; the first whose parameter constraints accept
// the arguments wins.
type Namespace[H any] struct {
	name     string
	variants []variant[H]
}

// NewNamespace creates a namespace; the name only appears in error
// messages.
func NewNamespace[H any](name string) *Namespace[H] {
	return &Namespace[H]{name: name}
}

// Variant registers a handler guarded by parameter constraints.
func (n *Namespace[H]) Variant(params Params, handler H) *Namespace[H] {
	n.variants = append(n.variants, variant[H]{params: params, handler: handler})
	return n
}

// VariantExtra registers a handler that tolerates arguments beyond its
// declared parameters.
func (n *Namespace[H]) VariantExtra(params Params, handler H) *Namespace[H] {
	n.variants = append(n.variants, variant[H]{params: params, allowExtra: true, handler: handler})
	return n
}

// Fallback registers a handler accepting any arguments. It matches
// unconditionally, so later variants are unreachable.
func (n *Namespace[H]) Fallback(handler H) *Namespace[H] {
	return n.VariantExtra(Params{}, handler)
}

// Select returns the first variant accepting args.
func (n *Namespace[H]) Select(args map[string]any) (H, error) {
	for _, v := range n.variants {
		if v.params.Matches(args, v.allowExtra) {
			return v.handler, nil
		}
	}
	var zero H
	return zero, fmt.Errorf("%w: %s(%s)", ErrNoVariant, n.name, describeArgs(args))
}

// Len returns the number of registered variants.
func (n *Namespace[H]) Len() int {
	return len(n.variants)
}

func describeArgs(args map[string]any) string {
	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%v", name, args[name])
	}
	return strings.Join(parts, ", ")
}
