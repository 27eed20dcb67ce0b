package action

import (
	"fmt"
	"sort"
	"sync"

	"github.com/hoardlab/hoard/pkg/store"
)

// Registration declares a built-in asset: where it mounts, who owns it and
// how its action is created. The factory runs once per created store, so
// stateful actions do not leak between stores.
type Registration struct {
	Path      string
	User      string
	Group     string
	Mode      any
	Action    func() store.Action
	AssetArgs map[string]any
}

var (
	regMu    sync.Mutex
	registry = map[string]Registration{}
)

// Register adds a built-in asset declaration. Action files call this from
// their init functions; duplicates panic as they are wiring mistakes.
func Register(r Registration) {
	if r.Path == "" || r.Action == nil {
		panic("action: registration needs a path and an action factory")
	}
	if r.User == "" {
		r.User = "root"
	}
	if r.Group == "" {
		r.Group = "system"
	}
	if r.Mode == nil {
		r.Mode = 0o775
	}

	regMu.Lock()
	defer regMu.Unlock()
	if _, dup := registry[r.Path]; dup {
		panic(fmt.Sprintf("action: %q registered twice", r.Path))
	}
	registry[r.Path] = r
}

// Registered returns the declared built-in assets, sorted by path.
func Registered() []Registration {
	regMu.Lock()
	defer regMu.Unlock()

	out := make([]Registration, 0, len(registry))
	for _, r := range registry {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// CreateRegisteredAssets mounts every declared built-in asset into the
// context's store. Each asset is stored under the identity its registration
// names, not the caller's.
func CreateRegisteredAssets(ctx *store.UpdateContext) error {
	for _, entry := range Registered() {
		asset := store.NewAsset(entry.Action(), store.WithArgs(entry.AssetArgs))
		owner := store.NewUpdateContext(ctx.Store, ctx.Registry, entry.User, entry.Group)
		if err := ctx.Store.Store(owner, asset, entry.Path, entry.Mode); err != nil {
			return fmt.Errorf("mounting %s: %w", entry.Path, err)
		}
	}
	return nil
}
