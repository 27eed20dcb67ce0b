package action

import (
	"reflect"

	"github.com/hoardlab/hoard/pkg/persist"
	"github.com/hoardlab/hoard/pkg/store"
)

// GetAssetInfo returns the full serialized record of the asset at a path.
type GetAssetInfo struct {
	store.BaseAction
}

func (GetAssetInfo) Execute(_ *store.Asset, ctx *store.UpdateContext, args map[string]any) (any, error) {
	path, err := pathArg(args)
	if err != nil {
		return nil, err
	}
	target, err := ctx.Store.AcquireByPath(ctx, path)
	if err != nil {
		return nil, err
	}
	return persist.Default.Encode(target)
}

func (GetAssetInfo) Help() map[string]any {
	return store.ParseHelp(`
Returns the full info for an asset given its path.

path: str -- the store-path to the asset of interest.
returns: the asset record as a JSON document`)
}

func init() {
	Register(Registration{
		Path:   "bin.info",
		Action: func() store.Action { return &GetAssetInfo{} },
	})

	persist.Register(persist.Codec{
		Name:    "GetAssetInfo",
		Source:  "[]/pkg/action/info.go",
		Version: "1.0",
		Type:    reflect.TypeOf(&GetAssetInfo{}),
		Params:  noParams,
		Build:   func(map[string]any, string) (any, error) { return &GetAssetInfo{}, nil },
	})
}
