package persist

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"sort"
	"sync"
)

// ErrNotSerializable reports a value no registered codec covers. Callers may
// treat it as "keep in memory" rather than as a hard failure.
var ErrNotSerializable = errors.New("not serializable")

// Codec describes how one Go type travels through the self-describing JSON
// format. Params extracts the constructor parameters of a live object;
// Build reconstructs the object from decoded parameters. Codecs are
// registered at program start, which pins the set of loadable types to what
// the binary was built with.
type Codec struct {
	// Name identifies the type inside envelopes. It must be unique.
	Name string
	// Source is the portable origin recorded in envelopes, informational
	// only on decode.
	Source string
	// Version travels with every envelope and is handed back to Build.
	Version string
	// Type is the concrete Go type the codec handles.
	Type reflect.Type
	// Params returns the constructor parameters of obj. Values may contain
	// further registered types; the engine encodes them recursively.
	Params func(obj any) (map[string]any, error)
	// Build reconstructs an object from decoded parameters.
	Build func(params map[string]any, version string) (any, error)
}

// Registry holds the codecs available for encoding and decoding.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Codec
	byType map[reflect.Type]Codec
}

// NewRegistry creates an empty codec registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: map[string]Codec{},
		byType: map[reflect.Type]Codec{},
	}
}

// Default is the process-wide registry. Packages register their codecs here
// from init functions.
var Default = NewRegistry()

// Register adds a codec to the registry. Registering a duplicate name or
// type panics, as that is always a wiring mistake.
func (r *Registry) Register(c Codec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.byName[c.Name]; dup {
		panic(fmt.Sprintf("persist: codec %q registered twice", c.Name))
	}
	if _, dup := r.byType[c.Type]; dup {
		panic(fmt.Sprintf("persist: type %v registered twice", c.Type))
	}
	r.byName[c.Name] = c
	r.byType[c.Type] = c
}

// Register adds a codec to the default registry.
func Register(c Codec) {
	Default.Register(c)
}

// Nothing is the serializable null object. It allows nil to be a valid
// payload value, distinguishable from "no value at all".
type Nothing struct{}

// IsNothing reports whether v is the Nothing sentinel.
func IsNothing(v any) bool {
	_, ok := v.(Nothing)
	return ok
}

// Opaque carries an envelope whose type has no codec in this process. It
// round-trips unchanged, so data written by a richer binary survives a pass
// through a leaner one.
type Opaque struct {
	Source  string
	Name    string
	Version string
	Params  map[string]any
}

const envelopeKey = "object_source"

// Encode converts v into a generic JSON tree. Registered types become
// envelopes of the form
//
//	{"object_source": [source, name, version, params]}
//
// and Nothing becomes {"object_source": null}. Maps and slices are encoded
// recursively; plain JSON values pass through.
func (r *Registry) Encode(v any) (any, error) {
	switch t := v.(type) {
	case nil, bool, string, int, int32, int64, float32, float64, json.Number:
		return v, nil
	case Nothing:
		return map[string]any{envelopeKey: nil}, nil
	case Opaque:
		return map[string]any{
			envelopeKey: []any{t.Source, t.Name, t.Version, t.Params},
		}, nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			enc, err := r.Encode(val)
			if err != nil {
				return nil, err
			}
			out[k] = enc
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			enc, err := r.Encode(val)
			if err != nil {
				return nil, err
			}
			out[i] = enc
		}
		return out, nil
	}

	r.mu.RLock()
	codec, ok := r.byType[reflect.TypeOf(v)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("persist: %T is %w", v, ErrNotSerializable)
	}

	params, err := codec.Params(v)
	if err != nil {
		return nil, fmt.Errorf("persist: extracting %s: %w", codec.Name, err)
	}
	encodedParams := make(map[string]any, len(params))
	for k, val := range params {
		enc, err := r.Encode(val)
		if err != nil {
			return nil, err
		}
		encodedParams[k] = enc
	}
	return map[string]any{
		envelopeKey: []any{codec.Source, codec.Name, codec.Version, encodedParams},
	}, nil
}

// Decode rebuilds objects from a generic JSON tree, replacing envelopes
// with the instances their codecs construct. Envelopes naming unknown types
// decode into Opaque carriers. json.Number values become int when integral
// and float64 otherwise.
func (r *Registry) Decode(tree any) (any, error) {
	switch t := tree.(type) {
	case json.Number:
		return normalizeNumber(t), nil
	case map[string]any:
		decoded := make(map[string]any, len(t))
		for k, val := range t {
			d, err := r.Decode(val)
			if err != nil {
				return nil, err
			}
			decoded[k] = d
		}
		if raw, isEnvelope := decoded[envelopeKey]; isEnvelope {
			return r.decodeEnvelope(raw)
		}
		return decoded, nil
	case []any:
		decoded := make([]any, len(t))
		for i, val := range t {
			d, err := r.Decode(val)
			if err != nil {
				return nil, err
			}
			decoded[i] = d
		}
		return decoded, nil
	}
	return tree, nil
}

func (r *Registry) decodeEnvelope(raw any) (any, error) {
	if raw == nil {
		return Nothing{}, nil
	}
	info, ok := raw.([]any)
	if !ok || len(info) != 4 {
		return nil, fmt.Errorf("persist: malformed envelope %v", raw)
	}

	source, _ := info[0].(string)
	name, _ := info[1].(string)
	version, _ := info[2].(string)
	params, _ := info[3].(map[string]any)
	if params == nil {
		params = map[string]any{}
	}

	r.mu.RLock()
	codec, known := r.byName[name]
	r.mu.RUnlock()
	if !known {
		return Opaque{Source: source, Name: name, Version: version, Params: params}, nil
	}

	obj, err := codec.Build(params, version)
	if err != nil {
		return nil, fmt.Errorf("persist: building %s: %w", name, err)
	}
	return obj, nil
}

// normalizeNumber converts integral numbers to int, everything else to
// float64. Asset ids and directory entries rely on staying ints across a
// round trip.
func normalizeNumber(n json.Number) any {
	if i, err := n.Int64(); err == nil {
		return int(i)
	}
	f, err := n.Float64()
	if err != nil {
		return 0
	}
	return f
}

// Marshal encodes v into the tab-indented transport form.
func (r *Registry) Marshal(v any) ([]byte, error) {
	tree, err := r.Encode(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "\t")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(tree); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal parses transport data and rebuilds the objects inside.
func (r *Registry) Unmarshal(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, fmt.Errorf("persist: %w", err)
	}
	return r.Decode(tree)
}

// Clone deep-copies v through a transport round trip.
func (r *Registry) Clone(v any) (any, error) {
	data, err := r.Marshal(v)
	if err != nil {
		return nil, err
	}
	return r.Unmarshal(data)
}

// WriteFile marshals v into path.
func (r *Registry) WriteFile(path string, v any) error {
	data, err := r.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadFile unmarshals the object stored at path.
func (r *Registry) ReadFile(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return r.Unmarshal(data)
}

// Marshal encodes v with the default registry.
func Marshal(v any) ([]byte, error) { return Default.Marshal(v) }

// Unmarshal decodes data with the default registry.
func Unmarshal(data []byte) (any, error) { return Default.Unmarshal(data) }

// Clone deep-copies v with the default registry.
func Clone(v any) (any, error) { return Default.Clone(v) }

// WriteFile writes v to path with the default registry.
func WriteFile(path string, v any) error { return Default.WriteFile(path, v) }

// ReadFile reads the object at path with the default registry.
func ReadFile(path string) (any, error) { return Default.ReadFile(path) }

// Names returns the registered codec names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
