package store

import (
	"fmt"
	"sync"

	"github.com/hoardlab/hoard/pkg/identity"
	"github.com/hoardlab/hoard/pkg/permission"
)

type identityFrame struct {
	user  string
	group string
}

// UpdateContext carries everything an operation on the store or an asset
// needs: the store, the identity registry and the identity on whose behalf
// the operation runs. The identity is an explicit stack of (user, group)
// frames; actions that need to act as someone else push a frame and pop it
// when done. The base frame can not be popped.
//
// A Values bag transports per-request data, such as the response mimetype
// the gateway honors.
type UpdateContext struct {
	Store    *Store
	Registry *identity.Registry

	mu       sync.Mutex
	baseUser string
	baseGrp  string
	frames   []identityFrame
	values   map[string]any
}

// NewUpdateContext creates a context with the given base identity.
func NewUpdateContext(s *Store, reg *identity.Registry, user, group string) *UpdateContext {
	return &UpdateContext{
		Store:    s,
		Registry: reg,
		baseUser: user,
		baseGrp:  group,
		frames:   []identityFrame{{user: user, group: group}},
		values:   map[string]any{},
	}
}

// Copy returns an independent context with the same store, registry and
// base identity, a reset identity stack and a copy of the values bag.
func (ctx *UpdateContext) Copy() *UpdateContext {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	clone := NewUpdateContext(ctx.Store, ctx.Registry, ctx.baseUser, ctx.baseGrp)
	for k, v := range ctx.values {
		clone.values[k] = v
	}
	return clone
}

// PushIdentity makes user/group the effective identity.
func (ctx *UpdateContext) PushIdentity(user, group string) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	ctx.frames = append(ctx.frames, identityFrame{user: user, group: group})
}

// PopIdentity restores the previous identity. The base frame stays.
func (ctx *UpdateContext) PopIdentity() error {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	if len(ctx.frames) <= 1 {
		return fmt.Errorf("base identity can not be removed")
	}
	ctx.frames = ctx.frames[:len(ctx.frames)-1]
	return nil
}

// User returns the effective user.
func (ctx *UpdateContext) User() string {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	return ctx.frames[len(ctx.frames)-1].user
}

// Group returns the effective group.
func (ctx *UpdateContext) Group() string {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	return ctx.frames[len(ctx.frames)-1].group
}

// RealUser returns the base user the context was created with.
func (ctx *UpdateContext) RealUser() string {
	return ctx.baseUser
}

// RealGroup returns the base group the context was created with.
func (ctx *UpdateContext) RealGroup() string {
	return ctx.baseGrp
}

// PermissionGranted checks the requested right of the effective user on the
// given permissions.
func (ctx *UpdateContext) PermissionGranted(perms *permission.Permissions, right string) bool {
	return perms.IsRightGranted(ctx.Registry, ctx.User(), right)
}

// MakePermissions builds permissions owned by the effective identity.
func (ctx *UpdateContext) MakePermissions(mode any) (*permission.Permissions, error) {
	return permission.Make(ctx.Registry, ctx.User(), ctx.Group(), mode)
}

// SetValue stores a per-request value, such as "mimetype".
func (ctx *UpdateContext) SetValue(key string, value any) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	ctx.values[key] = value
}

// Value reads a per-request value.
func (ctx *UpdateContext) Value(key string) (any, bool) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	v, ok := ctx.values[key]
	return v, ok
}
