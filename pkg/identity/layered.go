package identity

import "fmt"

// LayeredMap is a credential map assembled from a writable current layer and
// an ordered list of read-only parent views. Lookups consult a merged
// snapshot where earlier layers shadow later ones and the current layer
// shadows them all. After a parent layer changes, Merge must be called to
// refresh the snapshot.
type LayeredMap struct {
	current map[string]bool
	layers  []*LayeredMap
	merged  map[string]bool
}

// NewLayeredMap builds a map over the given current layer. A nil current
// starts empty.
func NewLayeredMap(current map[string]bool) *LayeredMap {
	if current == nil {
		current = map[string]bool{}
	}
	lm := &LayeredMap{current: current}
	lm.Merge()
	return lm
}

// Merge recomputes the merged snapshot from all layers and the current
// layer. Later layers are applied first so that earlier layers win.
func (lm *LayeredMap) Merge() {
	merged := map[string]bool{}
	for i := len(lm.layers) - 1; i >= 0; i-- {
		for k, v := range lm.layers[i].merged {
			merged[k] = v
		}
	}
	for k, v := range lm.current {
		merged[k] = v
	}
	lm.merged = merged
}

// Get looks a key up across all layers.
func (lm *LayeredMap) Get(key string) (bool, bool) {
	v, ok := lm.merged[key]
	return v, ok
}

// GetDefault returns the value for key, or fallback when absent.
func (lm *LayeredMap) GetDefault(key string, fallback bool) bool {
	if v, ok := lm.merged[key]; ok {
		return v
	}
	return fallback
}

// Set writes a key into the current layer.
func (lm *LayeredMap) Set(key string, value bool) {
	lm.current[key] = value
	lm.merged[key] = value
}

// Delete removes a key from the current layer. Keys visible only through a
// parent layer cannot be removed here.
func (lm *LayeredMap) Delete(key string) error {
	if _, ok := lm.current[key]; ok {
		delete(lm.current, key)
		lm.Merge()
		return nil
	}
	if _, ok := lm.merged[key]; ok {
		return fmt.Errorf("key %q exists only in layers and cannot be removed", key)
	}
	return fmt.Errorf("key %q not found", key)
}

// Contains reports whether key resolves in any layer.
func (lm *LayeredMap) Contains(key string) bool {
	_, ok := lm.merged[key]
	return ok
}

// Len returns the number of distinct keys across all layers.
func (lm *LayeredMap) Len() int {
	return len(lm.merged)
}

// Keys returns the distinct keys across all layers in no particular order.
func (lm *LayeredMap) Keys() []string {
	keys := make([]string, 0, len(lm.merged))
	for k := range lm.merged {
		keys = append(keys, k)
	}
	return keys
}

// AddLayer appends a parent view at the lowest priority. Pass merge=false
// when stacking several layers and call Merge once at the end.
func (lm *LayeredMap) AddLayer(layer *LayeredMap, merge bool) {
	lm.layers = append(lm.layers, layer)
	if merge {
		lm.Merge()
	}
}

// InsertLayer places a parent view at the given priority index; index 0 is
// the highest-priority guard position.
func (lm *LayeredMap) InsertLayer(index int, layer *LayeredMap) {
	lm.layers = append(lm.layers, nil)
	copy(lm.layers[index+1:], lm.layers[index:])
	lm.layers[index] = layer
	lm.Merge()
}

// RemoveLayer drops a previously added parent view.
func (lm *LayeredMap) RemoveLayer(layer *LayeredMap) error {
	for i, l := range lm.layers {
		if l == layer {
			lm.layers = append(lm.layers[:i], lm.layers[i+1:]...)
			lm.Merge()
			return nil
		}
	}
	return fmt.Errorf("layer not found")
}
