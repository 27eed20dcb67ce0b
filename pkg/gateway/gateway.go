package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hoardlab/hoard/pkg/log"
	"github.com/hoardlab/hoard/pkg/metrics"
	"github.com/hoardlab/hoard/pkg/persist"
	"github.com/hoardlab/hoard/pkg/result"
	"github.com/hoardlab/hoard/pkg/store"
)

// MaxBodySize caps request bodies; larger requests are rejected with 413.
const MaxBodySize = 1_000_000

// DefaultAsset answers queries that do not name an asset.
const DefaultAsset = "www.index"

// Gateway exposes the asset store over HTTP. A single endpoint takes the
// asset path and the update arguments from the query string, form fields or
// a JSON body, runs the update under the configured identity and renders
// the captured result.
type Gateway struct {
	base         *store.UpdateContext
	maxBody      int64
	defaultAsset string
	mux          *http.ServeMux
	server       *http.Server
	log          zerolog.Logger
}

// New creates a gateway over a base context. Every request runs on a copy
// of it, so per-request identity changes and values never leak.
func New(base *store.UpdateContext) *Gateway {
	g := &Gateway{
		base:         base,
		maxBody:      MaxBodySize,
		defaultAsset: DefaultAsset,
		mux:          http.NewServeMux(),
		log:          log.WithComponent("gateway"),
	}
	g.mux.HandleFunc("/", g.handleQuery)
	return g
}

// SetDefaultAsset overrides the asset that answers unnamed queries.
func (g *Gateway) SetDefaultAsset(path string) {
	if path != "" {
		g.defaultAsset = path
	}
}

// SetMaxBodySize overrides the request body cap.
func (g *Gateway) SetMaxBodySize(limit int64) {
	if limit > 0 {
		g.maxBody = limit
	}
}

// Handler returns the HTTP handler for embedding in other servers.
func (g *Gateway) Handler() http.Handler {
	return g.mux
}

// Start serves the gateway on addr until the context is canceled.
func (g *Gateway) Start(ctx context.Context, addr string) error {
	g.server = &http.Server{
		Addr:         addr,
		Handler:      g.mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		g.log.Info().Str("addr", addr).Msg("gateway listening")
		if err := g.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return g.server.Shutdown(shutdownCtx)
	}
}

// collectParameters merges the query string with the request body. A JSON
// body lands under the "body" key; form fields merge in next to the query
// parameters; anything else is kept as the raw "body" string.
func (g *Gateway) collectParameters(r *http.Request) (map[string]any, error) {
	params := map[string]any{}
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}

	if r.Method != http.MethodPost {
		return params, nil
	}
	if r.ContentLength > g.maxBody {
		return nil, errBodyTooLarge
	}

	contentType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch contentType {
	case "application/json":
		data, err := io.ReadAll(io.LimitReader(r.Body, g.maxBody+1))
		if err != nil {
			return nil, err
		}
		if int64(len(data)) > g.maxBody {
			return nil, errBodyTooLarge
		}
		body, err := persist.Unmarshal(data)
		if err != nil {
			return nil, fmt.Errorf("invalid JSON body: %w", err)
		}
		params["body"] = body

	case "application/x-www-form-urlencoded", "multipart/form-data":
		r.Body = http.MaxBytesReader(nil, r.Body, g.maxBody)
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		for key, values := range r.PostForm {
			if len(values) > 0 {
				params[key] = values[0]
			}
		}

	default:
		data, err := io.ReadAll(io.LimitReader(r.Body, g.maxBody+1))
		if err != nil {
			return nil, err
		}
		if int64(len(data)) > g.maxBody {
			return nil, errBodyTooLarge
		}
		if len(data) > 0 {
			params["body"] = string(data)
		}
	}
	return params, nil
}

var errBodyTooLarge = errors.New("request body exceeds maximum allowed size")

func statusForError(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, store.ErrInvalidPath):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (g *Gateway) handleQuery(w http.ResponseWriter, r *http.Request) {
	timer := metrics.NewTimer()
	requestID := uuid.New().String()
	w.Header().Set("X-Request-Id", requestID)

	status := http.StatusOK
	defer func() {
		metrics.QueriesTotal.WithLabelValues(r.Method, strconv.Itoa(status)).Inc()
		timer.ObserveDurationVec(metrics.QueryDuration, r.Method)
	}()

	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		status = http.StatusMethodNotAllowed
		g.writeError(w, status, fmt.Errorf("method %s not allowed", r.Method))
		return
	}

	params, err := g.collectParameters(r)
	if err != nil {
		status = http.StatusBadRequest
		if errors.Is(err, errBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		g.writeError(w, status, err)
		return
	}

	assetPath := g.defaultAsset
	if raw, named := params["asset"]; named {
		if s, ok := raw.(string); ok {
			assetPath = s
		}
		delete(params, "asset")
	}

	callCtx := g.base.Copy()
	callCtx.SetValue("mimetype", "application/json")

	logger := log.WithUser(callCtx.User(), callCtx.Group()).With().
		Str("request_id", requestID).Str("asset", assetPath).Logger()

	asset, err := callCtx.Store.AcquireByPath(callCtx, assetPath)
	if err != nil {
		status = statusForError(err)
		logger.Warn().Err(err).Msg("acquire failed")
		g.writeError(w, status, err)
		return
	}

	updated := asset.Update(callCtx, params)
	res, ok := updated.Result().(result.Result)
	if !ok {
		res = result.Of(updated.Result())
	}

	body, valid := res.Render()
	if !valid {
		status = http.StatusInternalServerError
		logger.Warn().Msg("asset update failed")
		g.writeJSON(w, status, body.(result.ErrorBody).AsMap())
		return
	}

	mimetype := "application/json"
	if raw, found := callCtx.Value("mimetype"); found {
		if s, ok := raw.(string); ok {
			mimetype = s
		}
	}

	logger.Debug().Str("mimetype", mimetype).Msg("query served")
	if mimetype == "application/json" {
		g.writeJSON(w, status, body)
		return
	}

	w.Header().Set("Content-Type", mimetype)
	w.WriteHeader(status)
	switch data := body.(type) {
	case string:
		_, _ = w.Write([]byte(data))
	case []byte:
		_, _ = w.Write(data)
	default:
		rendered, err := persist.Marshal(data)
		if err != nil {
			logger.Error().Err(err).Msg("rendering reply failed")
			return
		}
		_, _ = w.Write(rendered)
	}
}

func (g *Gateway) writeError(w http.ResponseWriter, status int, err error) {
	g.writeJSON(w, status, map[string]any{"error": err.Error()})
}

func (g *Gateway) writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := persist.Marshal(body)
	if err != nil {
		http.Error(w, fmt.Sprintf(`{"error": %q}`, err.Error()), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
