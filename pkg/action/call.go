package action

import (
	"reflect"

	"github.com/hoardlab/hoard/pkg/persist"
	"github.com/hoardlab/hoard/pkg/store"
)

// CallAsset updates the asset a _ref path points at, forwarding all other
// arguments, and passes its result through. It is the store's generic
// trampoline: mounting it with configured arguments turns any asset into an
// addressable entry point.
type CallAsset struct {
	store.BaseAction
}

func (CallAsset) Execute(_ *store.Asset, ctx *store.UpdateContext, args map[string]any) (any, error) {
	ref, err := stringArg(args, "_ref")
	if err != nil {
		return nil, err
	}
	target, err := ctx.Store.AcquireByPath(ctx, ref)
	if err != nil {
		return nil, err
	}

	forwarded := make(map[string]any, len(args))
	for k, v := range args {
		if k != "_ref" {
			forwarded[k] = v
		}
	}
	return target.Update(ctx, forwarded).Result(), nil
}

func (CallAsset) Help() map[string]any {
	return store.ParseHelp(`
Call an asset identified by a store-path.

_ref: str -- the store-path to the referred asset.
returns: the result of the referred asset's update;
all other arguments are forwarded to it`)
}

func init() {
	Register(Registration{
		Path:   "bin.call",
		Mode:   "755",
		Action: func() store.Action { return &CallAsset{} },
	})

	// Default page when called without any asset: show the root directory.
	Register(Registration{
		Path:   "www.index",
		Mode:   "755",
		Action: func() store.Action { return &CallAsset{} },
		AssetArgs: map[string]any{
			"_ref": "bin.ls",
			"html": "1",
		},
	})

	persist.Register(persist.Codec{
		Name:    "CallAsset",
		Source:  "[]/pkg/action/call.go",
		Version: "1.0",
		Type:    reflect.TypeOf(&CallAsset{}),
		Params:  noParams,
		Build:   func(map[string]any, string) (any, error) { return &CallAsset{}, nil },
	})
}
