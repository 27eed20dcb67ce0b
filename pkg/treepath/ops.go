package treepath

import (
	"fmt"
)

// Navigation over generic JSON-like trees built from map[string]any and []any.
// String components descend into maps, int components into slices.

type getConfig struct {
	visited *[]any
	abort   func(node any) bool
}

// GetOption modifies the behavior of Get.
type GetOption func(*getConfig)

// WithVisited records every node encountered during descent (root included)
// by appending it to the given sink.
func WithVisited(sink *[]any) GetOption {
	return func(c *getConfig) { c.visited = sink }
}

// WithAbort short-circuits the descent: when fn returns true for the current
// node, Get stops and returns that node.
func WithAbort(fn func(node any) bool) GetOption {
	return func(c *getConfig) { c.abort = fn }
}

// Get retrieves the value at path below root. The second return value reports
// whether the full path resolved; on a miss or type mismatch the first value
// is nil.
func Get(root any, p Path, opts ...GetOption) (any, bool) {
	var cfg getConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	current := root
	if cfg.visited != nil {
		*cfg.visited = append(*cfg.visited, current)
	}

	for _, step := range p.components {
		if cfg.abort != nil && cfg.abort(current) {
			return current, true
		}

		next, ok := lookup(current, step)
		if !ok {
			return nil, false
		}
		current = next

		if cfg.visited != nil {
			*cfg.visited = append(*cfg.visited, current)
		}
	}
	return current, true
}

// GetDefault is Get with a fallback value for misses.
func GetDefault(root any, p Path, fallback any) any {
	if v, ok := Get(root, p); ok {
		return v
	}
	return fallback
}

func lookup(node, step any) (any, bool) {
	switch key := step.(type) {
	case string:
		m, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := m[key]
		return v, ok
	case int:
		s, ok := node.([]any)
		if !ok || key < 0 || key >= len(s) {
			return nil, false
		}
		return s[key], true
	}
	return nil, false
}

type setConfig struct {
	defaultGetter func(container any, key any) any
	nodeCreated   func(container any, key any)
}

// SetOption modifies the behavior of Set.
type SetOption func(*setConfig)

// WithDefaultGetter overrides how intermediate containers and the final value
// are produced. The function receives the container being written and the key
// the value is created for.
func WithDefaultGetter(fn func(container any, key any) any) SetOption {
	return func(c *setConfig) { c.defaultGetter = fn }
}

// WithNodeCreated is notified for every key that Set materialized or wrote.
func WithNodeCreated(fn func(container any, key any)) SetOption {
	return func(c *setConfig) { c.nodeCreated = fn }
}

// Set writes value at path below root, materializing intermediate containers
// as needed. The container type for each intermediate step is driven by the
// type of the *next* component: a string key needs a map, an int index needs
// a slice. Out-of-range indices extend the slice with nils. The empty path
// cannot be assigned.
func Set(root any, p Path, value any, opts ...SetOption) error {
	cfg := setConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	if len(p.components) == 0 {
		return fmt.Errorf("cannot set a value for the empty path")
	}

	// makeDefault produces the value written at key. Without a custom
	// getter, intermediates become the container type the next component
	// needs and the last component becomes the value itself.
	makeDefault := func(container any, key any, next any, isLast bool) any {
		if cfg.defaultGetter != nil {
			return cfg.defaultGetter(container, key)
		}
		if isLast {
			return value
		}
		if _, ok := next.(string); ok {
			return map[string]any{}
		}
		return []any{}
	}

	current := root
	for i, step := range p.components {
		isLast := i == len(p.components)-1

		switch key := step.(type) {
		case string:
			m, ok := current.(map[string]any)
			if !ok {
				return fmt.Errorf("expected a map for key %q, got %T", key, current)
			}

			if isLast {
				m[key] = makeDefault(m, key, nil, true)
				notify(cfg, m, key)
				return nil
			}

			next := p.components[i+1]
			if existing, present := m[key]; present && existing != nil {
				if !containerMatches(existing, next) {
					return fmt.Errorf("expected a container at %q, got %T", key, existing)
				}
			} else {
				m[key] = makeDefault(m, key, next, false)
			}
			notify(cfg, m, key)
			current = m[key]

		case int:
			s, ok := current.([]any)
			if !ok {
				return fmt.Errorf("expected a slice for index %d, got %T", key, current)
			}

			if key >= len(s) {
				grown := append(s, make([]any, key-len(s)+1)...)
				if i == 0 {
					return fmt.Errorf("cannot extend the root sequence past index %d", len(s)-1)
				}
				if err := writeBack(root, p.Slice(0, i), grown); err != nil {
					return err
				}
				s = grown
			}

			if isLast {
				s[key] = makeDefault(s, key, nil, true)
				notify(cfg, s, key)
				return nil
			}

			next := p.components[i+1]
			if s[key] != nil {
				if !containerMatches(s[key], next) {
					return fmt.Errorf("expected a container at index %d, got %T", key, s[key])
				}
			} else {
				s[key] = makeDefault(s, key, next, false)
			}
			notify(cfg, s, key)
			current = s[key]
		}
	}
	return nil
}

func notify(cfg setConfig, container any, key any) {
	if cfg.nodeCreated != nil {
		cfg.nodeCreated(container, key)
	}
}

// containerMatches reports whether v is a container suitable for the next
// path component.
func containerMatches(v any, next any) bool {
	switch next.(type) {
	case string:
		_, ok := v.(map[string]any)
		return ok
	case int:
		_, ok := v.([]any)
		return ok
	}
	return false
}

// writeBack re-assigns a grown slice into its parent container.
func writeBack(root any, parentPath Path, grown []any) error {
	parent, ok := Get(root, parentPath.Slice(0, parentPath.Len()-1))
	if !ok {
		return fmt.Errorf("lost parent while extending slice at %s", parentPath)
	}
	key := parentPath.Last()
	switch k := key.(type) {
	case string:
		parent.(map[string]any)[k] = grown
	case int:
		parent.([]any)[k] = grown
	}
	return nil
}

// Delete removes the value at path and returns it. The second return value
// is false when the path did not resolve. Deleting from a slice shifts the
// remaining elements; the caller must not hold stale references into it.
func Delete(root any, p Path) (any, bool) {
	if len(p.components) == 0 {
		return nil, false
	}

	parentPath, _ := p.Parent()
	parent, ok := Get(root, parentPath)
	if !ok {
		return nil, false
	}

	switch key := p.Last().(type) {
	case string:
		m, ok := parent.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := m[key]
		if !ok {
			return nil, false
		}
		delete(m, key)
		return v, true
	case int:
		s, ok := parent.([]any)
		if !ok || key < 0 || key >= len(s) {
			return nil, false
		}
		v := s[key]
		if parentPath.IsEmpty() {
			// The root slice header cannot shrink through an any value;
			// shift left and clear the vacated tail slot instead.
			copy(s[key:], s[key+1:])
			s[len(s)-1] = nil
			return v, true
		}
		shrunk := append(s[:key], s[key+1:]...)
		if err := writeBack(root, parentPath, shrunk); err != nil {
			return nil, false
		}
		return v, true
	}
	return nil, false
}

// MissFunc is consulted by a Walker when a component does not resolve. It may
// return a replacement node to splice in; returning ok=false fails the walk.
type MissFunc func(w *Walker) (any, bool)

// Walker descends a tree along a path, yielding every node encountered.
type Walker struct {
	current    any
	index      int
	components []any
	onMiss     MissFunc
}

// Walk creates a Walker over root along path. onMiss may be nil.
func Walk(root any, p Path, onMiss MissFunc) *Walker {
	return &Walker{
		current:    root,
		index:      -1,
		components: p.components,
		onMiss:     onMiss,
	}
}

// Current returns the node the walker last arrived at.
func (w *Walker) Current() any {
	return w.current
}

// Index returns the index of the component the walker last consumed.
func (w *Walker) Index() int {
	return w.index
}

// Component returns the component at the walker's current index.
func (w *Walker) Component() any {
	return w.components[w.index]
}

// Next advances one component and returns the node reached. Done is true when
// the path is exhausted.
func (w *Walker) Next() (node any, done bool, err error) {
	w.index++
	if w.index >= len(w.components) {
		return nil, true, nil
	}

	step := w.components[w.index]
	next, ok := lookup(w.current, step)
	if !ok {
		if w.onMiss == nil {
			return nil, false, fmt.Errorf("%q not found at index %d", fmt.Sprint(step), w.index)
		}
		next, ok = w.onMiss(w)
		if !ok {
			return nil, false, fmt.Errorf("%q not found at index %d", fmt.Sprint(step), w.index)
		}
	}
	w.current = next
	return next, false, nil
}
