package integration

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoardlab/hoard/pkg/action"
	"github.com/hoardlab/hoard/pkg/gateway"
	"github.com/hoardlab/hoard/pkg/identity"
	"github.com/hoardlab/hoard/pkg/result"
	"github.com/hoardlab/hoard/pkg/store"
)

// newRegistry seeds the entities every scenario needs.
func newRegistry(t *testing.T) *identity.Registry {
	t.Helper()
	reg := identity.NewRegistry()
	for _, name := range []string{"root", "system", "bob", "devs"} {
		_, err := reg.MakeEntity(name, nil)
		require.NoError(t, err)
	}
	require.True(t, reg.AddLayerToEntity("bob", "devs"))
	return reg
}

func bootStore(t *testing.T, backend store.Backend) (*store.Store, *store.UpdateContext) {
	t.Helper()
	st := store.New(backend)
	require.NoError(t, st.Load())
	ctx := store.NewUpdateContext(st, newRegistry(t), "root", "system")
	require.NoError(t, action.CreateRegisteredAssets(ctx))
	return st, ctx
}

// queryValue runs a query and unwraps the captured build result.
func queryValue(t *testing.T, st *store.Store, ctx *store.UpdateContext, path string, args map[string]any) any {
	t.Helper()
	asset, err := st.Query(ctx, path, args)
	require.NoError(t, err)
	res, ok := asset.Result().(result.Result)
	require.True(t, ok, "asset result is %T", asset.Result())
	v, err := res.Get()
	require.NoError(t, err)
	return v
}

// TestLifecycleWithFileBackend walks the full daemon lifecycle against the
// file backend: boot, store user assets, query, persist, reopen.
func TestLifecycleWithFileBackend(t *testing.T) {
	dir := t.TempDir()

	backend, err := store.NewFileBackend(dir)
	require.NoError(t, err)
	st, ctx := bootStore(t, backend)

	// A user stores an asset in a world-writable home directory.
	require.NoError(t, st.Mkdir(ctx, "home", "777"))
	userCtx := store.NewUpdateContext(st, ctx.Registry, "bob", "devs")
	require.NoError(t, st.Store(userCtx, store.NewAsset(&store.NoAction{}), "home.notes", "640"))

	listing, ok := queryValue(t, st, ctx, "bin.ls", map[string]any{"path": "home"}).(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "home", listing["path"])

	require.NoError(t, st.Save())

	// A second process opens the same state.
	backend2, err := store.NewFileBackend(dir)
	require.NoError(t, err)
	st2 := store.New(backend2)
	require.NoError(t, st2.Load())
	ctx2 := store.NewUpdateContext(st2, newRegistry(t), "root", "system")

	asset, err := st2.AcquireByPath(ctx2, "home.notes")
	require.NoError(t, err)
	perms, err := asset.Permissions()
	require.NoError(t, err)
	assert.Equal(t, "bob", perms.User())
}

// TestLifecycleWithBoltBackend runs the same lifecycle against bbolt.
func TestLifecycleWithBoltBackend(t *testing.T) {
	dir := t.TempDir()

	backend, err := store.NewBoltBackend(dir)
	require.NoError(t, err)
	st, ctx := bootStore(t, backend)

	require.NoError(t, st.Mkdir(ctx, "var.cache", "775"))
	require.NoError(t, st.Store(ctx, store.NewAsset(&store.NoAction{}), "var.cache.blob", "644"))
	require.NoError(t, st.Save())
	require.NoError(t, backend.Close())

	backend2, err := store.NewBoltBackend(dir)
	require.NoError(t, err)
	defer backend2.Close()
	st2 := store.New(backend2)
	require.NoError(t, st2.Load())
	ctx2 := store.NewUpdateContext(st2, newRegistry(t), "root", "system")

	_, err = st2.AcquireByPath(ctx2, "var.cache.blob")
	assert.NoError(t, err)
}

// TestGatewayServesStore drives the HTTP surface end to end.
func TestGatewayServesStore(t *testing.T) {
	_, ctx := bootStore(t, store.NewMemoryBackend())
	gw := gateway.New(ctx)
	server := httptest.NewServer(gw.Handler())
	defer server.Close()

	// The root query renders the HTML index.
	resp, err := http.Get(server.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html", resp.Header.Get("Content-Type"))

	// A named asset with parameters answers JSON.
	resp2, err := http.Get(server.URL + "/?asset=bin.base64&encode=hello")
	require.NoError(t, err)
	defer resp2.Body.Close()
	body, err := io.ReadAll(resp2.Body)
	require.NoError(t, err)
	assert.Contains(t, resp2.Header.Get("Content-Type"), "application/json")
	assert.Contains(t, string(body), "aGVsbG8=")
}

// TestDispatchedAssetThroughQuery exercises multi-variant dispatch through
// the query path.
func TestDispatchedAssetThroughQuery(t *testing.T) {
	st, ctx := bootStore(t, store.NewMemoryBackend())

	value := queryValue(t, st, ctx, "test.dispatch", map[string]any{"count": 7, "label": 5})
	assert.Equal(t, "got a count and a max: 7/5", value)

	asset, err := st.Query(ctx, "test.dispatch", map[string]any{"bogus": true})
	require.NoError(t, err)
	res, ok := asset.Result().(result.Result)
	require.True(t, ok)
	assert.True(t, res.IsError())
}

// TestMemberAccessThroughPath drives member dispatch over the inner access
// protocol: a surplus path component names the member to call.
func TestMemberAccessThroughPath(t *testing.T) {
	st, ctx := bootStore(t, store.NewMemoryBackend())

	asset, err := st.AcquireByPath(ctx, "test.gimme.foo")
	require.NoError(t, err)
	res, ok := asset.Update(ctx, nil).Result().(result.Result)
	require.True(t, ok)
	v, err := res.Get()
	require.NoError(t, err)
	assert.Equal(t, "foo ()", v)

	value := queryValue(t, st, ctx, "test.gimme.baz", map[string]any{"x": "4"})
	assert.Equal(t, "baz - val/x=4.25 (x=4)", value)
}
