// Package identity manages the entities (users, groups and roles) known to
// the asset store and the credentials attached to them.
//
// Credentials are boolean flags keyed "<right>:<entity>", held in a
// LayeredMap: every entity owns a writable current layer with its core
// r/w/x rights on itself and inherits further layers from other entities.
// Lookups walk the merged view, where the current layer shadows all
// inherited layers and earlier layers shadow later ones. A guard layer is
// an inherited layer inserted at the highest layer priority, useful for
// explicit denials.
//
// The Registry owns the entity set. It always contains the wildcard entity
// "*", which every entity created through MakeEntity inherits from, so a
// right granted to "*" reaches everyone. The wildcard cannot be removed.
// Entity names are restricted to [A-Za-z0-9_]+.
//
// Inheritance is transitive: Entity.InheritsFrom follows layer chains
// through the registry, which is what directory group permissions are
// evaluated against.
package identity
