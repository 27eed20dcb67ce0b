package reload

import (
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/hoardlab/hoard/pkg/log"
	"github.com/hoardlab/hoard/pkg/metrics"
)

// ScriptFunc is the entry point a script file must export: a function taking
// the call arguments and returning the action's value.
type ScriptFunc func(args map[string]any) (any, error)

type cacheKey struct {
	path   string
	symbol string
}

// Loader evaluates Go script files with an embedded interpreter and hands
// out their exported entry points. Loaded scripts are cached per (file,
// symbol); a file watcher drops cache entries when the file changes, so the
// next load picks up the new source. Scripts see the standard library only.
type Loader struct {
	mu      sync.Mutex
	cache   map[cacheKey]ScriptFunc
	watcher *fsnotify.Watcher
	watched map[string]bool
	log     zerolog.Logger
}

// NewLoader creates a loader. Without a usable file watcher the loader still
// works, it just never invalidates on its own.
func NewLoader() *Loader {
	l := &Loader{
		cache:   map[cacheKey]ScriptFunc{},
		watched: map[string]bool{},
		log:     log.WithComponent("reload"),
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		l.log.Warn().Err(err).Msg("file watching unavailable, scripts reload on request only")
		return l
	}
	l.watcher = watcher
	go l.watch()
	return l
}

// Close stops the file watcher.
func (l *Loader) Close() error {
	if l.watcher == nil {
		return nil
	}
	return l.watcher.Close()
}

func (l *Loader) watch() {
	for {
		select {
		case event, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				l.Invalidate(event.Name)
			}
		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			l.log.Warn().Err(err).Msg("script watcher error")
		}
	}
}

// Invalidate drops every cached entry point of the given file.
func (l *Loader) Invalidate(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	dropped := 0
	for key := range l.cache {
		if key.path == path {
			delete(l.cache, key)
			dropped++
		}
	}
	if dropped > 0 {
		metrics.ScriptCacheInvalidations.Inc()
		l.log.Info().Str("path", path).Msg("script cache invalidated")
	}
}

// Load evaluates the script file and returns its exported entry point. The
// symbol is the fully qualified function name, such as "main.Run"; the
// function must have the ScriptFunc signature. Evaluation is serialized, as
// the interpreter is not safe for concurrent use.
func (l *Loader) Load(path, symbol string) (ScriptFunc, error) {
	key := cacheKey{path: path, symbol: symbol}

	l.mu.Lock()
	defer l.mu.Unlock()
	if fn, hit := l.cache[key]; hit {
		return fn, nil
	}

	fn, err := l.evaluate(path, symbol)
	if err != nil {
		metrics.ScriptLoadsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.ScriptLoadsTotal.WithLabelValues("ok").Inc()

	l.cache[key] = fn
	if l.watcher != nil && !l.watched[path] {
		if err := l.watcher.Add(path); err != nil {
			l.log.Warn().Err(err).Str("path", path).Msg("cannot watch script file")
		} else {
			l.watched[path] = true
		}
	}
	l.log.Info().Str("path", path).Str("symbol", symbol).Msg("script loaded")
	return fn, nil
}

func (l *Loader) evaluate(path, symbol string) (ScriptFunc, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("loading stdlib into interpreter: %w", err)
	}
	if _, err := i.Eval(string(source)); err != nil {
		return nil, fmt.Errorf("evaluating %s: %w", path, err)
	}

	value, err := i.Eval(symbol)
	if err != nil {
		return nil, fmt.Errorf("symbol %q not found in %s: %w", symbol, path, err)
	}
	fn, ok := value.Interface().(func(map[string]interface{}) (interface{}, error))
	if !ok {
		return nil, fmt.Errorf(
			"symbol %q has the wrong signature (expected func(map[string]interface{}) (interface{}, error))",
			symbol)
	}
	return ScriptFunc(fn), nil
}

var (
	defaultOnce   sync.Once
	defaultLoader *Loader
)

// DefaultLoader returns the process-wide loader, creating it on first use.
// Persisted scripted actions bind to it when they are rebuilt.
func DefaultLoader() *Loader {
	defaultOnce.Do(func() {
		defaultLoader = NewLoader()
	})
	return defaultLoader
}
