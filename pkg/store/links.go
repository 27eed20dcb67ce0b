package store

import "github.com/hoardlab/hoard/pkg/permission"

// PermissionProvider is implemented by directory entries that carry their
// own permissions.
type PermissionProvider interface {
	GetPermissions() *permission.Permissions
	SetPermissions(p *permission.Permissions)
}

// SymLink redirects a path to another path. Following a symbolic link
// traverses the target path with all involved permissions; the link itself
// may carry permissions gating its own slot.
type SymLink struct {
	Path        string
	Permissions *permission.Permissions
}

// GetPermissions returns the link's own permissions, which may be nil.
func (l *SymLink) GetPermissions() *permission.Permissions {
	return l.Permissions
}

// SetPermissions attaches permissions to the link.
func (l *SymLink) SetPermissions(p *permission.Permissions) {
	l.Permissions = p
}

// AsPath returns the link target.
func (l *SymLink) AsPath() string {
	return l.Path
}

// HardLink mounts an existing directory at a second place in the tree. Both
// mounts share the same map, so entries appear at both paths; the shared
// directory's own "" entry provides the permissions at either mount. Only
// the target path persists; the shared map is re-bound after loading.
type HardLink struct {
	Path string
	Dir  map[string]any
}

// GetPermissions returns the shared directory's own permissions.
func (l *HardLink) GetPermissions() *permission.Permissions {
	if p, ok := l.Dir[""].(*permission.Permissions); ok {
		return p
	}
	return nil
}

// SetPermissions sets the shared directory's own permissions.
func (l *HardLink) SetPermissions(p *permission.Permissions) {
	if l.Dir == nil {
		l.Dir = map[string]any{}
	}
	l.Dir[""] = p
}

// AsPath returns the linked directory's primary path.
func (l *HardLink) AsPath() string {
	return l.Path
}
