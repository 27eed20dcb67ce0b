package identity

import (
	"errors"
	"fmt"
	"regexp"
)

// Wildcard is the entity every other entity inherits from.
const Wildcard = "*"

var (
	// ErrInvalidName rejects entity names outside the allowed alphabet.
	ErrInvalidName = errors.New("invalid entity name")
	// ErrEntityExists rejects creation under a taken name.
	ErrEntityExists = errors.New("entity already exists")
	// ErrUnknownEntity flags lookups of names the registry never saw.
	ErrUnknownEntity = errors.New("unknown entity")
	// ErrProtectedEntity guards the wildcard entity against removal.
	ErrProtectedEntity = errors.New("this entity can not be deleted")
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Registry manages entities and their credentials. A fresh registry holds
// only the wildcard entity; every entity created afterwards inherits from
// it.
type Registry struct {
	entities map[string]*Entity
}

// NewRegistry creates a registry seeded with the wildcard entity.
func NewRegistry() *Registry {
	reg := &Registry{entities: map[string]*Entity{}}
	// "*" is not a valid public name, so it is planted directly.
	all := NewEntity(Wildcard, nil, map[string]any{"mode": 0o5777})
	reg.entities[Wildcard] = all
	all.initCredentials(reg)
	return reg
}

// Restore rebuilds a registry from persisted entities and re-links their
// credential layers.
func Restore(entities map[string]*Entity) *Registry {
	reg := &Registry{entities: entities}
	for _, e := range entities {
		e.initCredentials(reg)
	}
	return reg
}

// ValidateName reports whether name is acceptable for a new entity.
func (reg *Registry) ValidateName(name string) bool {
	return namePattern.MatchString(name)
}

// MakeEntity creates an entity under a valid, unused name. The new entity
// inherits from the wildcard entity.
func (reg *Registry) MakeEntity(name string, meta map[string]any) (*Entity, error) {
	if !reg.ValidateName(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if _, taken := reg.entities[name]; taken {
		return nil, fmt.Errorf("%w: %q", ErrEntityExists, name)
	}

	entity := NewEntity(name, nil, meta)
	reg.entities[name] = entity
	entity.initCredentials(reg)
	entity.AddLayer(reg.entities[Wildcard])
	return entity, nil
}

// RemoveEntity deletes an entity, detaching it from every entity that
// inherits from it directly. The wildcard entity cannot be removed.
func (reg *Registry) RemoveEntity(name string) (*Entity, error) {
	if name == Wildcard {
		return nil, ErrProtectedEntity
	}
	toRemove, ok := reg.entities[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntity, name)
	}

	for _, e := range reg.entities {
		if e.InheritsDirectlyFrom(name) {
			e.RemoveLayer(toRemove)
		}
	}
	delete(reg.entities, name)
	return toRemove, nil
}

// HasRight reports whether the named entity exists and holds the right on
// itself, directly or through inheritance.
func (reg *Registry) HasRight(name, right string) bool {
	entity := reg.entities[name]
	if entity == nil {
		return false
	}
	return entity.HasCredential(right)
}

// GrantRight grants a right to the named entity.
func (reg *Registry) GrantRight(name, right string) bool {
	entity := reg.entities[name]
	if entity == nil {
		return false
	}
	entity.SetCredential(right, true)
	return true
}

// RevokeRight revokes a right from the named entity.
func (reg *Registry) RevokeRight(name, right string) bool {
	entity := reg.entities[name]
	if entity == nil {
		return false
	}
	entity.SetCredential(right, false)
	return true
}

// AddLayerToEntity layers the credentials of layerName into name.
func (reg *Registry) AddLayerToEntity(name, layerName string) bool {
	entity, layer := reg.entities[name], reg.entities[layerName]
	if entity == nil || layer == nil {
		return false
	}
	entity.AddLayer(layer)
	return true
}

// AddGuardLayerToEntity layers the credentials of layerName into name at the
// highest priority.
func (reg *Registry) AddGuardLayerToEntity(name, layerName string) bool {
	entity, layer := reg.entities[name], reg.entities[layerName]
	if entity == nil || layer == nil {
		return false
	}
	entity.AddGuardLayer(layer)
	return true
}

// RemoveLayerFromEntity detaches the credential layer of layerName from
// name.
func (reg *Registry) RemoveLayerFromEntity(name, layerName string) bool {
	entity, layer := reg.entities[name], reg.entities[layerName]
	if entity == nil || layer == nil {
		return false
	}
	entity.RemoveLayer(layer)
	return true
}

// IsKnownEntity reports whether the registry holds an entity of that name.
func (reg *Registry) IsKnownEntity(name string) bool {
	_, ok := reg.entities[name]
	return ok
}

// GetEntity returns the named entity or nil.
func (reg *Registry) GetEntity(name string) *Entity {
	return reg.entities[name]
}

// Entities returns the live entity map, keyed by name.
func (reg *Registry) Entities() map[string]*Entity {
	return reg.entities
}
