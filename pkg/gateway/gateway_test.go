package gateway

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoardlab/hoard/pkg/action"
	"github.com/hoardlab/hoard/pkg/identity"
	"github.com/hoardlab/hoard/pkg/metrics"
	"github.com/hoardlab/hoard/pkg/store"
)

func testGateway(t *testing.T) *Gateway {
	t.Helper()
	reg := identity.NewRegistry()
	for _, name := range []string{"root", "system"} {
		_, err := reg.MakeEntity(name, nil)
		require.NoError(t, err)
	}
	s := store.New(store.NewMemoryBackend())
	ctx := store.NewUpdateContext(s, reg, "root", "system")
	require.NoError(t, action.CreateRegisteredAssets(ctx))
	return New(ctx)
}

func get(t *testing.T, g *Gateway, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	g.Handler().ServeHTTP(rec, req)
	return rec
}

func TestDefaultAssetServesIndex(t *testing.T) {
	g := testGateway(t)
	rec := get(t, g, "/")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "<html><body><code>"))
}

func TestQueryNamedAsset(t *testing.T) {
	g := testGateway(t)
	rec := get(t, g, "/?asset=test.active&ping=pong")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	assert.Contains(t, rec.Body.String(), `"ping": "pong"`)
}

func TestQueryForwardsParameters(t *testing.T) {
	g := testGateway(t)
	rec := get(t, g, "/?asset=bin.base64&encode=hi")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "aGk=")
}

func TestUnknownAssetIs404(t *testing.T) {
	g := testGateway(t)
	rec := get(t, g, "/?asset=no.such.thing")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}

func TestRequestIDHeader(t *testing.T) {
	g := testGateway(t)
	rec := get(t, g, "/?asset=test.active")

	id := rec.Header().Get("X-Request-Id")
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
}

func TestMethodNotAllowed(t *testing.T) {
	g := testGateway(t)
	req := httptest.NewRequest(http.MethodDelete, "/?asset=test.active", nil)
	rec := httptest.NewRecorder()
	g.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestFormBodyMergesParameters(t *testing.T) {
	g := testGateway(t)
	form := url.Values{"encode": {"hi"}}
	req := httptest.NewRequest(http.MethodPost, "/?asset=bin.base64",
		strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	g.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "aGk=")
}

func TestJSONBodyLandsUnderBodyKey(t *testing.T) {
	g := testGateway(t)
	req := httptest.NewRequest(http.MethodPost, "/?asset=test.active",
		strings.NewReader(`{"n": 1}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	g.Handler().ServeHTTP(rec, req)

	// The echo asset mirrors the parameters back, JSON body included.
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"body"`)
	assert.Contains(t, rec.Body.String(), `"n": 1`)
}

func TestOversizedBodyIsRejected(t *testing.T) {
	g := testGateway(t)
	huge := bytes.Repeat([]byte("x"), MaxBodySize+1)
	req := httptest.NewRequest(http.MethodPost, "/?asset=test.active", bytes.NewReader(huge))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	g.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestFailedUpdateRendersErrorBody(t *testing.T) {
	g := testGateway(t)
	rec := get(t, g, "/?asset=test.gimme&weird=1")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "The requested operation failed.")
	assert.Contains(t, rec.Body.String(), "stacktrace")
}

func TestHealthEndpoints(t *testing.T) {
	metrics.RegisterComponent("store", true, "")
	metrics.RegisterComponent("backend", true, "")
	metrics.RegisterComponent("gateway", true, "")

	hs := NewHealthServer()

	for _, path := range []string{"/health", "/ready", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		hs.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
