package treepath

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRenderRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "single key", in: "company"},
		{name: "nested keys", in: "company.members"},
		{name: "index", in: "company.members[0]"},
		{name: "index then key", in: "company.members[0].name"},
		{name: "double index", in: "matrix[1][2]"},
		{name: "deep mix", in: "a.b[0].c[10][3].d"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.in, p.String())
		})
	}
}

func TestParseComponents(t *testing.T) {
	p, err := Parse("company.members[0].name")
	require.NoError(t, err)
	assert.Equal(t, []any{"company", "members", 0, "name"}, p.Components())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "empty component", in: "a..b"},
		{name: "unmatched open", in: "a[0"},
		{name: "unmatched close", in: "a0]"},
		{name: "non-integer index", in: "a[x]"},
		{name: "bare index component", in: "a.[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.in)
			assert.Error(t, err)
		})
	}
}

func TestEmptyPath(t *testing.T) {
	p, err := Parse("")
	require.NoError(t, err)
	assert.True(t, p.IsEmpty())
	assert.Equal(t, "", p.String())
}

func TestNewValidation(t *testing.T) {
	_, err := New("a", "")
	assert.Error(t, err)

	_, err = New("a", 3.5)
	assert.Error(t, err)

	p, err := New("a", 2, "b")
	require.NoError(t, err)
	assert.Equal(t, "a[2].b", p.String())
}

func TestParentLastAppend(t *testing.T) {
	p := MustParse("a.b[3]")

	parent, ok := p.Parent()
	require.True(t, ok)
	assert.Equal(t, "a.b", parent.String())
	assert.Equal(t, 3, p.Last())

	grown := parent.Append("c", 0)
	assert.Equal(t, "a.b.c[0]", grown.String())
	// Append must not disturb the source path.
	assert.Equal(t, "a.b", parent.String())

	_, ok = Empty().Parent()
	assert.False(t, ok)
}

func sampleTree() map[string]any {
	return map[string]any{
		"company": map[string]any{
			"name": "Acme",
			"members": []any{
				map[string]any{"name": "alice"},
				map[string]any{"name": "bob"},
			},
		},
	}
}

func TestGet(t *testing.T) {
	root := sampleTree()

	tests := []struct {
		name string
		path string
		want any
		ok   bool
	}{
		{name: "key", path: "company.name", want: "Acme", ok: true},
		{name: "index", path: "company.members[1].name", want: "bob", ok: true},
		{name: "missing key", path: "company.ceo", ok: false},
		{name: "index out of range", path: "company.members[5]", ok: false},
		{name: "key into slice", path: "company.members.name", ok: false},
		{name: "index into map", path: "company[0]", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Get(root, MustParse(tt.path))
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestGetEmptyPathReturnsRoot(t *testing.T) {
	root := sampleTree()
	got, ok := Get(root, Empty())
	require.True(t, ok)
	assert.Equal(t, root, got)
}

func TestGetVisitedSink(t *testing.T) {
	root := sampleTree()

	var visited []any
	_, ok := Get(root, MustParse("company.members[0]"), WithVisited(&visited))
	require.True(t, ok)
	require.Len(t, visited, 4)
	assert.Equal(t, root, visited[0])
	assert.Equal(t, map[string]any{"name": "alice"}, visited[3])
}

func TestGetAbort(t *testing.T) {
	root := sampleTree()

	stopAtSlice := func(node any) bool {
		_, isSlice := node.([]any)
		return isSlice
	}
	got, ok := Get(root, MustParse("company.members[0].name"), WithAbort(stopAtSlice))
	require.True(t, ok)
	_, isSlice := got.([]any)
	assert.True(t, isSlice)
}

func TestGetDefault(t *testing.T) {
	root := sampleTree()
	assert.Equal(t, "Acme", GetDefault(root, MustParse("company.name"), "n/a"))
	assert.Equal(t, "n/a", GetDefault(root, MustParse("company.ceo"), "n/a"))
}

func TestSetThenGet(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		value any
	}{
		{name: "existing key", path: "company.name", value: "Umbrella"},
		{name: "new key", path: "company.ceo", value: "carol"},
		{name: "new nested map", path: "company.hq.city", value: "Basel"},
		{name: "existing index", path: "company.members[0].name", value: "alicia"},
		{name: "extend slice", path: "company.members[4].name", value: "eve"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := sampleTree()
			p := MustParse(tt.path)

			require.NoError(t, Set(root, p, tt.value))

			got, ok := Get(root, p)
			require.True(t, ok)
			assert.Equal(t, tt.value, got)
		})
	}
}

func TestSetExtendsSliceWithNils(t *testing.T) {
	root := sampleTree()
	require.NoError(t, Set(root, MustParse("company.members[4].name"), "eve"))

	members, ok := Get(root, MustParse("company.members"))
	require.True(t, ok)
	require.Len(t, members, 5)
	assert.Nil(t, members.([]any)[2])
	assert.Nil(t, members.([]any)[3])
}

func TestSetMaterializesByNextComponent(t *testing.T) {
	root := map[string]any{}
	require.NoError(t, Set(root, MustParse("a.b[0].c"), 42))

	want := map[string]any{
		"a": map[string]any{
			"b": []any{
				map[string]any{"c": 42},
			},
		},
	}
	if diff := cmp.Diff(want, root); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestSetEmptyPathFails(t *testing.T) {
	assert.Error(t, Set(map[string]any{}, Empty(), 1))
}

func TestSetTypeMismatch(t *testing.T) {
	root := sampleTree()
	// "name" holds a string; descending further must fail, not overwrite.
	assert.Error(t, Set(root, MustParse("company.name.first"), "x"))
}

func TestSetNodeCreatedHook(t *testing.T) {
	root := map[string]any{}

	var keys []any
	hook := func(_ any, key any) { keys = append(keys, key) }
	require.NoError(t, Set(root, MustParse("a.b.c"), 1, WithNodeCreated(hook)))

	assert.Equal(t, []any{"a", "b", "c"}, keys)
}

func TestSetDefaultGetter(t *testing.T) {
	root := map[string]any{}

	getter := func(_ any, key any) any {
		if key == "leaf" {
			return "filled"
		}
		return map[string]any{}
	}
	require.NoError(t, Set(root, MustParse("branch.leaf"), nil, WithDefaultGetter(getter)))

	got, ok := Get(root, MustParse("branch.leaf"))
	require.True(t, ok)
	assert.Equal(t, "filled", got)
}

func TestSetDefaultGetterReceivesEachKey(t *testing.T) {
	root := map[string]any{}

	var keys []any
	getter := func(_ any, key any) any {
		keys = append(keys, key)
		if key == "leaf" {
			return "filled"
		}
		return map[string]any{}
	}
	require.NoError(t, Set(root, MustParse("branch.twig.leaf"), nil, WithDefaultGetter(getter)))

	// The getter is asked for the key being written, not the one after it.
	assert.Equal(t, []any{"branch", "twig", "leaf"}, keys)

	got, ok := Get(root, MustParse("branch.twig.leaf"))
	require.True(t, ok)
	assert.Equal(t, "filled", got)
}

func TestSetRejectsNonContainerIntermediates(t *testing.T) {
	root := map[string]any{
		"items": []any{"scalar"},
	}
	assert.Error(t, Set(root, MustParse("items[0].x"), 1))

	// The scalar survives the failed write.
	got, ok := Get(root, MustParse("items[0]"))
	require.True(t, ok)
	assert.Equal(t, "scalar", got)
}

func TestDelete(t *testing.T) {
	root := sampleTree()

	v, ok := Delete(root, MustParse("company.name"))
	require.True(t, ok)
	assert.Equal(t, "Acme", v)

	_, ok = Get(root, MustParse("company.name"))
	assert.False(t, ok)

	// Deleting again misses.
	_, ok = Delete(root, MustParse("company.name"))
	assert.False(t, ok)
}

func TestDeleteFromSliceShifts(t *testing.T) {
	root := sampleTree()

	v, ok := Delete(root, MustParse("company.members[0]"))
	require.True(t, ok)
	assert.Equal(t, map[string]any{"name": "alice"}, v)

	got, ok := Get(root, MustParse("company.members[0].name"))
	require.True(t, ok)
	assert.Equal(t, "bob", got)
}

func TestDeleteMisses(t *testing.T) {
	root := sampleTree()

	_, ok := Delete(root, MustParse("company.missing"))
	assert.False(t, ok)

	_, ok = Delete(root, MustParse("absent.branch"))
	assert.False(t, ok)

	_, ok = Delete(root, Empty())
	assert.False(t, ok)
}

func TestWalker(t *testing.T) {
	root := sampleTree()
	w := Walk(root, MustParse("company.members[1].name"), nil)

	var nodes []any
	for {
		node, done, err := w.Next()
		require.NoError(t, err)
		if done {
			break
		}
		nodes = append(nodes, node)
	}
	require.Len(t, nodes, 4)
	assert.Equal(t, "bob", nodes[3])
}

func TestWalkerMissFails(t *testing.T) {
	root := sampleTree()
	w := Walk(root, MustParse("company.missing"), nil)

	_, done, err := w.Next()
	require.NoError(t, err)
	require.False(t, done)

	_, _, err = w.Next()
	assert.Error(t, err)
}

func TestWalkerMissSplice(t *testing.T) {
	root := sampleTree()

	onMiss := func(w *Walker) (any, bool) {
		container, ok := w.Current().(map[string]any)
		if !ok {
			return nil, false
		}
		created := map[string]any{}
		container[w.Component().(string)] = created
		return created, true
	}

	w := Walk(root, MustParse("company.departments.eng"), onMiss)
	for {
		_, done, err := w.Next()
		require.NoError(t, err)
		if done {
			break
		}
	}

	_, ok := Get(root, MustParse("company.departments.eng"))
	assert.True(t, ok)
}
