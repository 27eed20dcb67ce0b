package store

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hoardlab/hoard/pkg/metrics"
	"github.com/hoardlab/hoard/pkg/permission"
	"github.com/hoardlab/hoard/pkg/result"
	"github.com/hoardlab/hoard/pkg/treepath"
)

// UnassignedID marks an asset the store has not yet registered.
const UnassignedID = -1

// Asset pairs an executable action with its configuration, permissions,
// dependencies and the result of its last run. The action defines purpose
// and interpretation of the asset's data; the asset is the action's "this".
//
// Field access is lock-guarded. Update does not hold the lock across action
// execution, so actions may re-enter the store or the same asset freely;
// concurrent updates race benignly on who captures the result last.
type Asset struct {
	mu sync.Mutex

	action       Action
	actionArgs   map[string]any
	permissions  *permission.Permissions
	localID      int
	updater      string
	meta         map[string]any
	buildResult  any
	creationDate time.Time
	lastModified time.Time
	lastBuild    time.Time
	dependencies []Reference
	assetHelp    map[string]any
}

// AssetOption configures optional fields of a new asset.
type AssetOption func(*Asset)

// WithArgs sets the configured action arguments.
func WithArgs(args map[string]any) AssetOption {
	return func(a *Asset) { a.actionArgs = args }
}

// WithPermissions attaches access permissions.
func WithPermissions(p *permission.Permissions) AssetOption {
	return func(a *Asset) { a.permissions = p }
}

// WithUpdater selects the update strategy by name.
func WithUpdater(name string) AssetOption {
	return func(a *Asset) { a.updater = name }
}

// WithMeta sets the asset metadata.
func WithMeta(meta map[string]any) AssetOption {
	return func(a *Asset) { a.meta = meta }
}

// WithDependencies sets the ordered dependency references.
func WithDependencies(deps ...Reference) AssetOption {
	return func(a *Asset) { a.dependencies = deps }
}

// WithHelp overrides the action's help block for this asset.
func WithHelp(help map[string]any) AssetOption {
	return func(a *Asset) { a.assetHelp = help }
}

// NewAsset creates an asset around an action. The id stays unassigned until
// the store registers it; the update strategy defaults to "basic".
func NewAsset(action Action, opts ...AssetOption) *Asset {
	a := &Asset{
		action:       action,
		localID:      UnassignedID,
		updater:      "basic",
		creationDate: time.Now(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.actionArgs == nil {
		a.actionArgs = map[string]any{}
	}
	if a.meta == nil {
		a.meta = map[string]any{}
	}
	return a
}

// Action returns the asset's action.
func (a *Asset) Action() Action {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.action
}

// SetAction replaces the action and bumps the modification time.
func (a *Asset) SetAction(action Action) *Asset {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.action = action
	a.lastModified = time.Now()
	return a
}

// ActionArgs returns a snapshot of the configured action arguments.
func (a *Asset) ActionArgs() map[string]any {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]any, len(a.actionArgs))
	for k, v := range a.actionArgs {
		out[k] = v
	}
	return out
}

// ActionArg reads one configured action argument.
func (a *Asset) ActionArg(key string) (any, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	v, ok := a.actionArgs[key]
	return v, ok
}

// SetActionArgs replaces the configured action arguments and bumps the
// modification time.
func (a *Asset) SetActionArgs(args map[string]any) *Asset {
	a.mu.Lock()
	defer a.mu.Unlock()
	if args == nil {
		args = map[string]any{}
	}
	a.actionArgs = args
	a.lastModified = time.Now()
	return a
}

// Permissions returns the asset's permissions, failing when the asset was
// never fully initialized.
func (a *Asset) Permissions() (*permission.Permissions, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.permissions == nil {
		return nil, fmt.Errorf("asset is not completely initialized: permissions are missing")
	}
	return a.permissions, nil
}

// SetPermissions attaches permissions.
func (a *Asset) SetPermissions(p *permission.Permissions) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.permissions = p
}

// ID returns the store-assigned id, or UnassignedID.
func (a *Asset) ID() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.localID
}

// SetID assigns the store id.
func (a *Asset) SetID(id int) *Asset {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.localID = id
	return a
}

// Updater returns the name of the asset's update strategy.
func (a *Asset) Updater() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.updater
}

// SetResult captures a build result; a non-nil result bumps the build time.
func (a *Asset) SetResult(value any) *Asset {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.buildResult = value
	if value != nil {
		a.lastBuild = time.Now()
	}
	return a
}

// Result returns the captured build result.
func (a *Asset) Result() any {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.buildResult
}

// metaPath translates an access key into a metadata tree path: underscores
// separate nesting levels, so "make_phony" reaches meta["make"]["phony"].
func metaPath(key string) treepath.Path {
	return treepath.MustParse(strings.ReplaceAll(key, "_", "."))
}

// Meta reads a (possibly nested) metadata value.
func (a *Asset) Meta(key string, fallback any) any {
	a.mu.Lock()
	defer a.mu.Unlock()
	if key == "" {
		return a.meta
	}
	return treepath.GetDefault(a.meta, metaPath(key), fallback)
}

// SetMeta writes a (possibly nested) metadata value.
func (a *Asset) SetMeta(key string, value any) *Asset {
	a.mu.Lock()
	defer a.mu.Unlock()
	_ = treepath.Set(a.meta, metaPath(key), value)
	return a
}

// DeleteMeta removes a metadata value and returns it.
func (a *Asset) DeleteMeta(key string) (any, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return treepath.Delete(a.meta, metaPath(key))
}

// IsPhony reports whether the asset is marked phony for the make strategy.
func (a *Asset) IsPhony() bool {
	v := a.Meta("make_phony", false)
	b, ok := v.(bool)
	return ok && b
}

// AddDependencies appends dependency references.
func (a *Asset) AddDependencies(deps ...Reference) *Asset {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.dependencies = append(a.dependencies, deps...)
	return a
}

// Dependencies returns a snapshot of the dependency references.
func (a *Asset) Dependencies() []Reference {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Reference{}, a.dependencies...)
}

// DependencyByName finds a dependency by its reference name.
func (a *Asset) DependencyByName(name string) (Reference, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, dep := range a.dependencies {
		if dep.Name() == name {
			return dep, nil
		}
	}
	return nil, fmt.Errorf("dependency %q %w", name, ErrNotFound)
}

// CreationDate returns the creation timestamp.
func (a *Asset) CreationDate() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.creationDate
}

// LastModification returns the last modification timestamp; zero when the
// asset was never modified.
func (a *Asset) LastModification() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastModified
}

// LastBuild returns the last build timestamp; zero when the asset never
// captured a result.
func (a *Asset) LastBuild() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastBuild
}

// Help returns the asset's own help block, or the action's.
func (a *Asset) Help() map[string]any {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.assetHelp != nil {
		return a.assetHelp
	}
	return a.action.Help()
}

// Clone creates a working copy sharing the action and permissions but
// owning fresh copies of all mutable containers, so runs on the copy never
// leak into the original.
func (a *Asset) Clone() *Asset {
	a.mu.Lock()
	defer a.mu.Unlock()

	args := make(map[string]any, len(a.actionArgs))
	for k, v := range a.actionArgs {
		args[k] = v
	}
	meta := make(map[string]any, len(a.meta))
	for k, v := range a.meta {
		meta[k] = v
	}
	var help map[string]any
	if a.assetHelp != nil {
		help = make(map[string]any, len(a.assetHelp))
		for k, v := range a.assetHelp {
			help[k] = v
		}
	}

	return &Asset{
		action:       a.action,
		actionArgs:   args,
		permissions:  a.permissions,
		localID:      a.localID,
		updater:      a.updater,
		meta:         meta,
		buildResult:  a.buildResult,
		creationDate: a.creationDate,
		lastModified: time.Now(),
		lastBuild:    a.lastBuild,
		dependencies: append([]Reference{}, a.dependencies...),
		assetHelp:    help,
	}
}

// Update runs the asset's update strategy. Failures never escape as errors;
// they are captured as the asset's error result. The returned asset is the
// one carrying the outcome: the asset itself, or a clone when the caller
// lacked write access or supplied arguments.
func (a *Asset) Update(ctx *UpdateContext, args map[string]any) *Asset {
	strategy, ok := Strategy(a.Updater())
	if !ok {
		a.SetResult(result.Errf("unknown update strategy %q", a.Updater()))
		metrics.AssetUpdatesTotal.WithLabelValues("failure").Inc()
		return a
	}

	updated, err := strategy.Update(a, ctx, args)
	if err != nil {
		a.SetResult(result.Err(err))
		metrics.AssetUpdatesTotal.WithLabelValues("failure").Inc()
		return a
	}

	outcome := "success"
	if res, isResult := updated.Result().(result.Result); isResult && res.IsError() {
		outcome = "failure"
	}
	metrics.AssetUpdatesTotal.WithLabelValues(outcome).Inc()
	return updated
}
