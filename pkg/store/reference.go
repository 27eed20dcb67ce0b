package store

import (
	"fmt"

	"github.com/hoardlab/hoard/pkg/permission"
)

// Reference locates an asset without owning it. Dependencies and action
// indirections always travel as references; the persisted form carries only
// an id or a path, never the referred asset itself.
type Reference interface {
	// Name is the optional lookup name for DependencyByName.
	Name() string
	// Resolve retrieves the referred asset through the context's store.
	Resolve(ctx *UpdateContext) (*Asset, error)
}

// ByID references an asset by its store id.
type ByID struct {
	ID      int
	RefName string
}

// Name returns the reference's lookup name.
func (r *ByID) Name() string { return r.RefName }

// Resolve loads the asset by id.
func (r *ByID) Resolve(ctx *UpdateContext) (*Asset, error) {
	return ctx.Store.AcquireByID(ctx, r.ID)
}

func (r *ByID) String() string {
	if r.RefName != "" {
		return fmt.Sprintf("%s:%d", r.RefName, r.ID)
	}
	return fmt.Sprintf("%d", r.ID)
}

// ByPath references an asset by its store path.
type ByPath struct {
	Path    string
	RefName string
}

// Name returns the reference's lookup name.
func (r *ByPath) Name() string { return r.RefName }

// Resolve acquires the asset along the path, with all permission checks a
// direct acquisition would perform.
func (r *ByPath) Resolve(ctx *UpdateContext) (*Asset, error) {
	return ctx.Store.AcquireByPath(ctx, r.Path)
}

func (r *ByPath) String() string {
	if r.RefName != "" {
		return fmt.Sprintf("%s:%s", r.RefName, r.Path)
	}
	return r.Path
}

// ActiveAsset mounts an asset into the directory tree by id while carrying
// its own permissions, so the tree can gate access without loading the
// asset. It marks mounts whose action takes part in the inner access
// protocol: surplus path components of an acquisition are handed to the
// action instead of failing the traversal.
type ActiveAsset struct {
	ID          int
	Permissions *permission.Permissions
}

// Name returns "".
func (r *ActiveAsset) Name() string { return "" }

// Resolve loads the mounted asset by id.
func (r *ActiveAsset) Resolve(ctx *UpdateContext) (*Asset, error) {
	return ctx.Store.AcquireByID(ctx, r.ID)
}

// GetPermissions returns the mount's own permissions.
func (r *ActiveAsset) GetPermissions() *permission.Permissions {
	return r.Permissions
}

// SetPermissions replaces the mount's own permissions.
func (r *ActiveAsset) SetPermissions(p *permission.Permissions) {
	r.Permissions = p
}

// ActionRef is an action slot holding a reference: the asset borrows the
// action (and the configured arguments) of the referred asset. Chains of
// action references flatten at update time.
type ActionRef struct {
	BaseAction
	Ref Reference
}

// Execute fails; an action reference must be flattened by an update
// strategy before execution.
func (r *ActionRef) Execute(*Asset, *UpdateContext, map[string]any) (any, error) {
	return nil, fmt.Errorf("unresolved action reference %v executed directly", r.Ref)
}

// Help describes the indirection.
func (r *ActionRef) Help() map[string]any {
	return MakeHelp(fmt.Sprintf("Borrows the action of %v.", r.Ref), nil, nil)
}
