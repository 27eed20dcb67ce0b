package store

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/hoardlab/hoard/pkg/log"
	"github.com/hoardlab/hoard/pkg/metrics"
	"github.com/hoardlab/hoard/pkg/permission"
	"github.com/hoardlab/hoard/pkg/persist"
	"github.com/hoardlab/hoard/pkg/treepath"
)

// FirstID is the first asset id a fresh store hands out.
const FirstID = 100_000

// maxLinkDepth caps symbolic link chains during traversal.
const maxLinkDepth = 40

// allowAccessByDefault governs nodes without any effective permissions.
const allowAccessByDefault = true

// Store is a POSIX-flavored hierarchy of nested directories whose entries
// resolve into assets. Directories are maps; the "" key of a directory
// holds its *permission.Permissions. An int entry is an asset id the
// backend resolves; ActiveAsset entries mount assets with their own
// permissions; SymLink and HardLink entries link across the tree.
//
// The store mutex serializes tree mutations against traversals. It is never
// held while an action executes, so actions are free to re-enter the store.
type Store struct {
	mu      sync.RWMutex
	backend Backend
	tree    map[string]any
	nextID  int

	cacheMu sync.Mutex
	cache   map[int]*Asset

	log zerolog.Logger
}

// New creates a store over a backend with an empty root.
func New(backend Backend) *Store {
	return &Store{
		backend: backend,
		tree:    EmptyRoot(),
		nextID:  FirstID,
		cache:   map[int]*Asset{},
		log:     log.WithComponent("store"),
	}
}

// EmptyRoot returns a fresh root directory carrying the default root
// permissions.
func EmptyRoot() map[string]any {
	perms, _ := permission.New("root", "system", 0o775)
	return map[string]any{"": perms}
}

// parseStorePath validates and parses a store path: index components are
// not acceptable in the store.
func parseStorePath(path string) (treepath.Path, error) {
	if strings.ContainsRune(path, '[') {
		return treepath.Path{}, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	p, err := treepath.Parse(path)
	if err != nil {
		return treepath.Path{}, fmt.Errorf("%w: %q: %v", ErrInvalidPath, path, err)
	}
	return p, nil
}

// nodePermissions extracts the permissions a node itself carries, or nil.
func nodePermissions(node any) *permission.Permissions {
	switch t := node.(type) {
	case map[string]any:
		if p, ok := t[""].(*permission.Permissions); ok {
			return p
		}
		return nil
	case PermissionProvider:
		return t.GetPermissions()
	}
	return nil
}

func (s *Store) mayEnter(ctx *UpdateContext, perms *permission.Permissions) bool {
	// As in POSIX, traversing directories by known names only needs "x".
	if perms == nil {
		return allowAccessByDefault
	}
	return ctx.PermissionGranted(perms, "x")
}

func (s *Store) mayRead(ctx *UpdateContext, perms *permission.Permissions) bool {
	if perms == nil {
		return allowAccessByDefault
	}
	return ctx.PermissionGranted(perms, "r")
}

// mayWrite decides whether the effective identity may create or replace the
// entry key in the directory node. On sticky directories an existing entry
// may only be replaced by its owner.
func (s *Store) mayWrite(ctx *UpdateContext, perms *permission.Permissions, node map[string]any, key string) (bool, error) {
	if perms == nil {
		return allowAccessByDefault, nil
	}
	if !ctx.PermissionGranted(perms, "w") {
		return false, nil
	}

	existing, present := node[key]
	if !present || !perms.Sticky() {
		return true, nil
	}

	entryPerms := nodePermissions(existing)
	if entryPerms == nil {
		if id, isID := existing.(int); isID {
			asset, err := s.loadAsset(id)
			if err != nil {
				return false, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
			}
			entryPerms, _ = asset.Permissions()
		}
	}
	if entryPerms == nil {
		entryPerms = perms
	}
	return ctx.User() == entryPerms.User(), nil
}

// resolution is the outcome of a tree traversal.
type resolution struct {
	node      any
	remaining []any
	perms     *permission.Permissions
}

// resolve walks components from the root, following hard and symbolic
// links. It stops early at the first non-directory node, handing back the
// unconsumed components. The returned permissions are the effective ones:
// the node's own, or the last non-nil ones seen on the way.
func (s *Store) resolve(ctx *UpdateContext, comps []any, depth int) (resolution, error) {
	if depth > maxLinkDepth {
		return resolution{}, fmt.Errorf("%w (depth %d)", ErrLinkLoop, depth)
	}

	current := any(s.tree)
	currentPerms := nodePermissions(current)
	lastPerms := currentPerms
	effective := func() *permission.Permissions {
		if currentPerms != nil {
			return currentPerms
		}
		return lastPerms
	}

	for i := 0; i < len(comps); i++ {
		if hl, isHard := current.(*HardLink); isHard {
			current = hl.Dir
		}
		if sl, isSym := current.(*SymLink); isSym {
			target, err := parseStorePath(sl.Path)
			if err != nil {
				return resolution{}, err
			}
			return s.resolve(ctx, append(target.Components(), comps[i:]...), depth+1)
		}

		dir, isDir := current.(map[string]any)
		if !isDir {
			return resolution{node: current, remaining: comps[i:], perms: effective()}, nil
		}

		if !s.mayEnter(ctx, effective()) {
			return resolution{}, fmt.Errorf("entering %v: %w", comps[:i], ErrPermissionDenied)
		}

		key, isKey := comps[i].(string)
		if !isKey {
			return resolution{}, fmt.Errorf("%w: index component in %v", ErrInvalidPath, comps)
		}
		entry, found := dir[key]
		if !found || key == "" {
			return resolution{}, fmt.Errorf("path %w: %v", ErrNotFound, comps[:i+1])
		}

		current = entry
		currentPerms = nodePermissions(current)
		if currentPerms != nil {
			lastPerms = currentPerms
		}
	}

	// Normalize terminal links so callers see the real target. A hard
	// link's effective permissions are the shared directory's already.
	if hl, isHard := current.(*HardLink); isHard {
		current = hl.Dir
	}
	if sl, isSym := current.(*SymLink); isSym {
		target, err := parseStorePath(sl.Path)
		if err != nil {
			return resolution{}, err
		}
		return s.resolve(ctx, target.Components(), depth+1)
	}

	return resolution{node: current, perms: effective()}, nil
}

// allocateID hands out the next asset id.
func (s *Store) allocateID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	return id
}

// loadAsset retrieves an asset record by id, through the cache.
func (s *Store) loadAsset(id int) (*Asset, error) {
	s.cacheMu.Lock()
	if asset, hit := s.cache[id]; hit {
		s.cacheMu.Unlock()
		return asset, nil
	}
	s.cacheMu.Unlock()

	asset, err := s.backend.LoadAsset(id)
	if err != nil {
		return nil, fmt.Errorf("asset %d: %w", id, err)
	}
	metrics.AssetsLoaded.Inc()

	s.cacheMu.Lock()
	s.cache[id] = asset
	s.cacheMu.Unlock()
	return asset, nil
}

// AcquireByID retrieves an asset record by id.
func (s *Store) AcquireByID(_ *UpdateContext, id int) (*Asset, error) {
	return s.loadAsset(id)
}

// AcquireByPath resolves a path into an asset. Directories resolve into a
// synthesized directory-listing asset carrying the directory's effective
// permissions. Surplus path components reach the asset's action as the
// _inner_get argument when the action takes part in the inner access
// protocol, which requires execute access on the mount.
func (s *Store) AcquireByPath(ctx *UpdateContext, path string) (*Asset, error) {
	p, err := parseStorePath(path)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	res, err := s.resolve(ctx, p.Components(), 0)
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	switch node := res.node.(type) {
	case map[string]any:
		return NewAsset(&ReadDir{},
			WithArgs(map[string]any{"path": path}),
			WithPermissions(res.perms),
		), nil

	case int:
		if len(res.remaining) > 0 {
			return nil, fmt.Errorf("path %w: %s", ErrNotFound, path)
		}
		return s.loadAsset(node)

	case *ActiveAsset:
		asset, err := s.loadAsset(node.ID)
		if err != nil {
			return nil, err
		}
		if len(res.remaining) == 0 {
			return asset, nil
		}
		if !asset.Action().AcceptsInnerAccess() {
			return nil, fmt.Errorf("path %w: %s", ErrNotFound, path)
		}
		if node.Permissions != nil && !ctx.PermissionGranted(node.Permissions, "x") {
			return nil, fmt.Errorf("inner access to %s: %w", path, ErrPermissionDenied)
		}
		clone := asset.Clone()
		args := clone.ActionArgs()
		args["_inner_get"] = append([]any{}, res.remaining...)
		clone.SetActionArgs(args)
		return clone, nil
	}

	return nil, fmt.Errorf("%w at %s: %T", ErrInvalidEntry, path, res.node)
}

// Acquire retrieves an asset by path or id; exactly one selector must be
// given (id 0 counts as unset).
func (s *Store) Acquire(ctx *UpdateContext, path string, id int) (*Asset, error) {
	switch {
	case path != "" && id != 0:
		return nil, fmt.Errorf("acquire called with path and asset id, only one of them is allowed")
	case path != "":
		return s.AcquireByPath(ctx, path)
	case id != 0:
		return s.AcquireByID(ctx, id)
	}
	return nil, fmt.Errorf("acquire called without path or asset id")
}

// setNode writes value at path, materializing missing directories. Every
// directory entered needs x, every directory created or written needs w,
// and sticky directories protect existing entries for their owners.
func (s *Store) setNode(ctx *UpdateContext, p treepath.Path, value any) error {
	if p.IsEmpty() {
		return fmt.Errorf("root can not be assigned: %w", ErrPermissionDenied)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	currentPerms := nodePermissions(s.tree)
	lastPerms := currentPerms
	effective := func() *permission.Permissions {
		if currentPerms != nil {
			return currentPerms
		}
		return lastPerms
	}

	containerPath, _ := p.Parent()
	var walkErr error
	onMiss := func(w *treepath.Walker) (any, bool) {
		dir, isDir := w.Current().(map[string]any)
		if !isDir {
			walkErr = fmt.Errorf("%v: %w", w.Component(), ErrNotDirectory)
			return nil, false
		}
		key := w.Component().(string)
		ok, err := s.mayWrite(ctx, effective(), dir, key)
		if err != nil {
			walkErr = err
			return nil, false
		}
		if !ok {
			walkErr = fmt.Errorf("creating %q: %w", key, ErrPermissionDenied)
			return nil, false
		}
		created := map[string]any{}
		dir[key] = created
		return created, true
	}

	node := any(s.tree)
	walker := treepath.Walk(s.tree, containerPath, onMiss)
	for {
		next, done, err := walker.Next()
		if err != nil {
			if walkErr != nil {
				return walkErr
			}
			return fmt.Errorf("path %w: %v", ErrNotFound, err)
		}
		if done {
			break
		}

		if hl, isHard := next.(*HardLink); isHard {
			next = hl.Dir
		}
		currentPerms = nodePermissions(next)
		if _, isDir := next.(map[string]any); isDir {
			if !s.mayEnter(ctx, effective()) {
				return fmt.Errorf("entering %v: %w", walker.Component(), ErrPermissionDenied)
			}
		} else {
			return fmt.Errorf("%v: %w", walker.Component(), ErrNotDirectory)
		}
		if currentPerms != nil {
			lastPerms = currentPerms
		}
		node = next
	}

	dir, isDir := node.(map[string]any)
	if !isDir {
		return fmt.Errorf("%s: %w", containerPath, ErrNotDirectory)
	}
	key := p.Last().(string)
	ok, err := s.mayWrite(ctx, effective(), dir, key)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no write permission for %q: %w", containerPath.String(), ErrPermissionDenied)
	}
	dir[key] = value
	return nil
}

// Store registers an asset with the backend and, when a path is given,
// mounts it into the tree. A mode synthesizes permissions owned by the
// effective identity. Assets whose action takes part in the inner access
// protocol mount as ActiveAsset entries; everything else mounts as a bare
// id.
//
// Assets whose action has no persistence codec stay memory resident: they
// serve queries like any other asset but do not survive a restart.
func (s *Store) Store(ctx *UpdateContext, asset *Asset, path string, mode any) error {
	if asset.ID() == UnassignedID {
		asset.SetID(s.allocateID())
	}

	if mode != nil {
		perms, err := ctx.MakePermissions(mode)
		if err != nil {
			return err
		}
		asset.SetPermissions(perms)
	}

	entry := log.WithAsset(path).With().
		Int("id", asset.ID()).Str("user", ctx.User()).Logger()

	if err := s.backend.SaveAsset(asset); err != nil {
		if !errors.Is(err, persist.ErrNotSerializable) {
			return fmt.Errorf("saving asset %d: %w", asset.ID(), err)
		}
		entry.Debug().Msg("asset kept in memory only")
	} else {
		metrics.AssetsStored.Inc()
	}

	s.cacheMu.Lock()
	s.cache[asset.ID()] = asset
	s.cacheMu.Unlock()

	if path == "" {
		return nil
	}

	p, err := parseStorePath(path)
	if err != nil {
		return err
	}

	var mount any = asset.ID()
	if action := asset.Action(); action != nil && action.AcceptsInnerAccess() {
		perms, _ := asset.Permissions()
		mount = &ActiveAsset{ID: asset.ID(), Permissions: perms}
	}
	if err := s.setNode(ctx, p, mount); err != nil {
		return err
	}

	entry.Debug().Msg("asset stored")
	return nil
}

// Mkdir creates a directory at path. A mode gives the directory its own
// permissions, owned by the effective identity.
func (s *Store) Mkdir(ctx *UpdateContext, path string, mode any) error {
	p, err := parseStorePath(path)
	if err != nil {
		return err
	}
	if p.IsEmpty() {
		return fmt.Errorf("%w: empty path", ErrInvalidPath)
	}

	dir := map[string]any{}
	if mode != nil {
		perms, err := ctx.MakePermissions(mode)
		if err != nil {
			return err
		}
		dir[""] = perms
	}
	return s.setNode(ctx, p, dir)
}

// Symlink mounts a symbolic link to target at linkPath. A mode gives the
// link its own permissions.
func (s *Store) Symlink(ctx *UpdateContext, target, linkPath string, mode any) error {
	if _, err := parseStorePath(target); err != nil {
		return err
	}
	p, err := parseStorePath(linkPath)
	if err != nil {
		return err
	}

	link := &SymLink{Path: target}
	if mode != nil {
		perms, err := ctx.MakePermissions(mode)
		if err != nil {
			return err
		}
		link.Permissions = perms
	}
	return s.setNode(ctx, p, link)
}

// Hardlink mounts the directory at target a second time at linkPath. Both
// mounts share one map. Linking a directory into its own subtree is
// rejected, as it would close a traversal loop.
func (s *Store) Hardlink(ctx *UpdateContext, target, linkPath string) error {
	tp, err := parseStorePath(target)
	if err != nil {
		return err
	}
	lp, err := parseStorePath(linkPath)
	if err != nil {
		return err
	}
	if strings.HasPrefix(linkPath+".", target+".") {
		return fmt.Errorf("%w: %q is inside %q", ErrInvalidPath, linkPath, target)
	}

	s.mu.RLock()
	res, err := s.resolve(ctx, tp.Components(), 0)
	s.mu.RUnlock()
	if err != nil {
		return err
	}
	dir, isDir := res.node.(map[string]any)
	if !isDir {
		return fmt.Errorf("hard links require a directory target: %w", ErrNotDirectory)
	}
	return s.setNode(ctx, lp, &HardLink{Path: target, Dir: dir})
}

// Remove unmounts the entry at path. Directories must be empty; the asset
// record in the backend is kept, so the asset merely returns to the
// registered state and can be mounted again by id.
func (s *Store) Remove(ctx *UpdateContext, path string) error {
	p, err := parseStorePath(path)
	if err != nil {
		return err
	}
	if p.IsEmpty() {
		return fmt.Errorf("root directory can not be removed: %w", ErrInvalidPath)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	containerPath, _ := p.Parent()
	res, err := s.resolve(ctx, containerPath.Components(), 0)
	if err != nil {
		return err
	}
	dir, isDir := res.node.(map[string]any)
	if !isDir {
		return fmt.Errorf("%s: %w", containerPath, ErrNotDirectory)
	}

	key := p.Last().(string)
	entry, found := dir[key]
	if !found {
		return fmt.Errorf("path %w: %s", ErrNotFound, path)
	}

	ok, err := s.mayWrite(ctx, res.perms, dir, key)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("removing %q: %w", path, ErrPermissionDenied)
	}

	if sub, isSubDir := entry.(map[string]any); isSubDir {
		for k := range sub {
			if k != "" {
				return fmt.Errorf("%q: %w", path, ErrNotEmpty)
			}
		}
	}

	delete(dir, key)
	s.log.Debug().Str("path", path).Msg("entry removed")
	return nil
}

// ReadDirectory lists a directory: its path, its effective permissions and
// one descriptor per entry (name, owner, group, mode, dir flag), sorted by
// name. The "" permission slot never appears as an entry. Reading requires
// r on the directory.
func (s *Store) ReadDirectory(ctx *UpdateContext, path string) (map[string]any, error) {
	p, err := parseStorePath(path)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	res, err := s.resolve(ctx, p.Components(), 0)
	if err != nil {
		return nil, err
	}
	dir, isDir := res.node.(map[string]any)
	if !isDir || len(res.remaining) > 0 {
		return nil, fmt.Errorf("%q: %w", path, ErrNotDirectory)
	}
	if !s.mayRead(ctx, res.perms) {
		return nil, fmt.Errorf("read access to %q: %w", path, ErrPermissionDenied)
	}

	names := make([]string, 0, len(dir))
	for name := range dir {
		if name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	contents := make([]any, 0, len(names))
	for _, name := range names {
		contents = append(contents, s.describeEntry(name, dir[name], res.perms))
	}

	listing := map[string]any{
		"path":     path,
		"contents": contents,
	}
	if res.perms != nil {
		listing["permissions"] = res.perms.ShortString()
	}
	return listing, nil
}

// describeEntry renders one directory entry descriptor. Entries without
// permissions of their own report the directory's.
func (s *Store) describeEntry(name string, entry any, dirPerms *permission.Permissions) map[string]any {
	perms := nodePermissions(entry)
	isDir := false

	switch t := entry.(type) {
	case map[string]any:
		isDir = true
	case *HardLink:
		isDir = true
	case int:
		if asset, err := s.loadAsset(t); err == nil {
			perms, _ = asset.Permissions()
		}
	}

	if perms == nil {
		perms = dirPerms
	}

	descriptor := map[string]any{
		"name": name,
		"dir":  isDir,
	}
	if perms != nil {
		descriptor["owner"] = perms.User()
		descriptor["group"] = perms.Group()
		descriptor["mode"] = perms.ShortString()
	}
	return descriptor
}

// Load restores the tree and the id counter from the backend. A missing
// tree starts empty; hard links are re-bound to their target directories.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tree, err := s.backend.LoadTree()
	switch {
	case errors.Is(err, ErrNotFound):
		tree = EmptyRoot()
	case err != nil:
		return fmt.Errorf("loading tree: %w", err)
	}
	if _, hasRoot := tree[""].(*permission.Permissions); !hasRoot {
		perms, _ := permission.New("root", "system", 0o775)
		tree[""] = perms
	}
	s.tree = tree

	nextID, err := s.backend.LoadNextID()
	switch {
	case errors.Is(err, ErrNotFound):
		nextID = FirstID
	case err != nil:
		return fmt.Errorf("loading next id: %w", err)
	}
	s.nextID = nextID

	s.relinkHardLinks(s.tree)
	s.log.Info().Int("next_id", s.nextID).Msg("store loaded")
	return nil
}

// relinkHardLinks re-binds loaded hard links to the live directory maps at
// their target paths. Unresolvable links keep their empty map rather than
// failing the whole load.
func (s *Store) relinkHardLinks(node map[string]any) {
	for key, entry := range node {
		if key == "" {
			continue
		}
		switch t := entry.(type) {
		case map[string]any:
			s.relinkHardLinks(t)
		case *HardLink:
			target, err := treepath.Parse(t.Path)
			if err != nil {
				continue
			}
			if found, ok := treepath.Get(s.tree, target); ok {
				if dir, isDir := found.(map[string]any); isDir {
					t.Dir = dir
				}
			}
		}
	}
}

// Save writes the tree and the id counter through the backend.
func (s *Store) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.backend.SaveTree(s.tree); err != nil {
		return fmt.Errorf("saving tree: %w", err)
	}
	if err := s.backend.SaveNextID(s.nextID); err != nil {
		return fmt.Errorf("saving next id: %w", err)
	}
	return nil
}

// Stats snapshots store-level gauges for the metrics collector.
func (s *Store) Stats() metrics.StoreStats {
	s.mu.RLock()
	nextID := s.nextID
	s.mu.RUnlock()

	s.cacheMu.Lock()
	cached := len(s.cache)
	s.cacheMu.Unlock()

	return metrics.StoreStats{CachedAssets: cached, NextID: nextID}
}

// Query acquires the asset at path and updates it with the given
// arguments, the one-call form the gateway uses.
func (s *Store) Query(ctx *UpdateContext, path string, args map[string]any) (*Asset, error) {
	asset, err := s.AcquireByPath(ctx, path)
	if err != nil {
		return nil, err
	}
	return asset.Update(ctx, args), nil
}
