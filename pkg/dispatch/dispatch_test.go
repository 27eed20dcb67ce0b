package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredicates(t *testing.T) {
	tests := []struct {
		name  string
		pred  Predicate
		value any
		want  bool
	}{
		{"any matches nil", Any(), nil, true},
		{"not nil rejects nil", NotNil(), nil, false},
		{"not nil accepts zero", NotNil(), 0, true},
		{"equals int", Equals(3), 3, true},
		{"equals mismatched type", Equals(3), "3", false},
		{"in hit", In("a", "b"), "b", true},
		{"in miss", In("a", "b"), "c", false},
		{"not", Not(Equals(1)), 2, true},
		{"when all", When(IsInt(), InRange(0, 10)), 5, true},
		{"when one fails", When(IsInt(), InRange(0, 10)), 11, false},
		{"either", Either(IsString(), IsInt()), 7, true},
		{"either none", Either(IsString(), IsInt()), true, false},
		{"one of single match", OneOf(IsInt(), Equals("x")), 4, true},
		{"one of double match", OneOf(IsInt(), InRange(0, 10)), 4, false},
		{"of type string", IsString(), "s", true},
		{"of type string miss", IsString(), 1, false},
		{"is map", IsMap(), map[string]any{}, true},
		{"is list", IsList(), []any{1}, true},
		{"match anchored", Match(`[a-z]+\.[a-z]+`), "bin.help", true},
		{"match needs prefix", Match(`[a-z]+`), "9abc", false},
		{"match non-string", Match(`.*`), 5, false},
		{"in range inclusive", InRange(0, 3), 3, true},
		{"in range below", InRange(0, 3), -1, false},
		{"in range open upper", InRange(0, nil), 1000, true},
		{"in range float", InRange(0.5, 1.5), 1.0, true},
		{"in range non-number", InRange(0, 3), "2", false},
		{"of len string", OfLen(1, 3), "ab", true},
		{"of len open max", OfLen(2, -1), []any{1, 2, 3, 4}, true},
		{"of len too short", OfLen(2, -1), []any{1}, false},
		{"call", Call(func(v any) bool { return v == 17 }), 17, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.pred(tt.value))
		})
	}
}

func TestParamsMatchError(t *testing.T) {
	ps := Params{
		"asset": P(IsString()),
		"html":  Opt(In("0", "1", 0, 1)),
		"raw":   Absent(),
	}

	tests := []struct {
		name       string
		args       map[string]any
		allowExtra bool
		wantMatch  bool
	}{
		{"required present", map[string]any{"asset": "bin.ls"}, false, true},
		{"required missing", map[string]any{}, false, false},
		{"optional valid", map[string]any{"asset": "x", "html": "1"}, false, true},
		{"optional invalid", map[string]any{"asset": "x", "html": "2"}, false, false},
		{"absent violated", map[string]any{"asset": "x", "raw": true}, false, false},
		{"extra rejected", map[string]any{"asset": "x", "more": 1}, false, false},
		{"extra allowed", map[string]any{"asset": "x", "more": 1}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMatch, ps.Matches(tt.args, tt.allowExtra))
		})
	}
}

func TestSelectRegistrationOrder(t *testing.T) {
	type handler func() string

	ns := NewNamespace[handler]("render").
		Variant(Params{"html": P(Equals("1")), "path": P(IsString())},
			func() string { return "html" }).
		Variant(Params{"path": P(IsString())},
			func() string { return "plain" }).
		Fallback(func() string { return "fallback" })

	h, err := ns.Select(map[string]any{"html": "1", "path": "a.b"})
	require.NoError(t, err)
	assert.Equal(t, "html", h())

	h, err = ns.Select(map[string]any{"path": "a.b"})
	require.NoError(t, err)
	assert.Equal(t, "plain", h())

	h, err = ns.Select(map[string]any{"anything": true})
	require.NoError(t, err)
	assert.Equal(t, "fallback", h())
}

func TestSelectFirstMatchWinsOverLaterMatches(t *testing.T) {
	ns := NewNamespace[string]("op").
		Variant(Params{"n": P(InRange(0, 10))}, "narrow").
		Variant(Params{"n": P(IsInt())}, "wide")

	h, err := ns.Select(map[string]any{"n": 5})
	require.NoError(t, err)
	assert.Equal(t, "narrow", h)

	h, err = ns.Select(map[string]any{"n": 50})
	require.NoError(t, err)
	assert.Equal(t, "wide", h)
}

func TestSelectNoVariant(t *testing.T) {
	ns := NewNamespace[string]("op").
		Variant(Params{"n": P(IsInt())}, "only")

	_, err := ns.Select(map[string]any{"n": "text"})
	require.ErrorIs(t, err, ErrNoVariant)
	assert.Contains(t, err.Error(), "op(")
}

func TestVariantExtraToleratesUnknownArgs(t *testing.T) {
	ns := NewNamespace[string]("op").
		VariantExtra(Params{"id": P(IsInt())}, "loose")

	h, err := ns.Select(map[string]any{"id": 1, "trace": true})
	require.NoError(t, err)
	assert.Equal(t, "loose", h)
}
