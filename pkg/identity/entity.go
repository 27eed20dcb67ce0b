package identity

import "fmt"

// Entity represents a user, role or group together with its credentials.
// Credential keys have the form "<right>:<entity>". The special entity "*"
// stands for everyone.
//
// Entities must be initialized against a Registry with initCredentials
// before their credentials are consulted; the Registry does this for every
// entity it creates or loads.
type Entity struct {
	name         string
	meta         map[string]any
	inheritsFrom []string
	core         map[string]bool
	credentials  *LayeredMap
}

// NewEntity creates an entity with its core read/write/execute rights on
// itself. Credentials stay unusable until the owning registry initializes
// them.
func NewEntity(name string, bases []string, meta map[string]any) *Entity {
	if meta == nil {
		meta = map[string]any{}
	}
	return &Entity{
		name: name,
		meta: meta,
		core: map[string]bool{
			"r:" + name: true,
			"w:" + name: true,
			"x:" + name: true,
		},
		inheritsFrom: append([]string{}, bases...),
	}
}

// Name returns the entity's registry name.
func (e *Entity) Name() string {
	return e.name
}

// Meta returns the entity's metadata map.
func (e *Entity) Meta() map[string]any {
	return e.meta
}

// InheritsFromNames returns the names of the entities layered into this one,
// in priority order.
func (e *Entity) InheritsFromNames() []string {
	return append([]string{}, e.inheritsFrom...)
}

// initCredentials (re)builds the layered credential view, pulling in every
// base entity's credentials. Bases that are not yet initialized are
// initialized on the way.
func (e *Entity) initCredentials(reg *Registry) {
	e.credentials = NewLayeredMap(e.core)
	for _, base := range e.inheritsFrom {
		parent := reg.GetEntity(base)
		if parent == nil {
			continue
		}
		if parent.credentials == nil {
			parent.initCredentials(reg)
		}
		e.credentials.AddLayer(parent.credentials, false)
	}
	e.credentials.Merge()
}

// SetCredential grants or revokes a right of the entity on itself.
func (e *Entity) SetCredential(right string, value bool) {
	e.credentials.Set(right+":"+e.name, value)
}

// RemoveCredential drops a right of the entity on itself.
func (e *Entity) RemoveCredential(right string) {
	key := right + ":" + e.name
	if e.credentials.Contains(key) {
		_ = e.credentials.Delete(key)
	}
}

// HasCredential reports whether a right of the entity on itself is granted.
func (e *Entity) HasCredential(right string) bool {
	return e.credentials.GetDefault(right+":"+e.name, false)
}

// AddLayer stacks another entity's credentials below this entity's own.
func (e *Entity) AddLayer(other *Entity) {
	e.credentials.AddLayer(other.credentials, true)
	e.inheritsFrom = append(e.inheritsFrom, other.name)
}

// AddGuardLayer stacks another entity's credentials at the highest layer
// priority, in front of all previously inherited layers.
func (e *Entity) AddGuardLayer(other *Entity) {
	e.credentials.InsertLayer(0, other.credentials)
	e.inheritsFrom = append([]string{other.name}, e.inheritsFrom...)
}

// RemoveLayer detaches another entity's credential layer.
func (e *Entity) RemoveLayer(other *Entity) {
	_ = e.credentials.RemoveLayer(other.credentials)
	for i, n := range e.inheritsFrom {
		if n == other.name {
			e.inheritsFrom = append(e.inheritsFrom[:i], e.inheritsFrom[i+1:]...)
			break
		}
	}
}

// InheritsDirectlyFrom reports whether other is layered into this entity
// without intermediaries.
func (e *Entity) InheritsDirectlyFrom(other string) bool {
	for _, n := range e.inheritsFrom {
		if n == other {
			return true
		}
	}
	return false
}

// InheritsFrom reports whether other is reachable through any chain of
// layers.
func (e *Entity) InheritsFrom(reg *Registry, other string) bool {
	if e.InheritsDirectlyFrom(other) {
		return true
	}
	for _, name := range e.inheritsFrom {
		parent := reg.GetEntity(name)
		if parent != nil && parent.InheritsFrom(reg, other) {
			return true
		}
	}
	return false
}

func (e *Entity) String() string {
	return fmt.Sprintf("Entity(%s, inherits %v)", e.name, e.inheritsFrom)
}
