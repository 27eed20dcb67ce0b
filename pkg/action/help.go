package action

import (
	"reflect"

	"github.com/hoardlab/hoard/pkg/persist"
	"github.com/hoardlab/hoard/pkg/store"
)

// GetHelp returns the help block of the asset at a given path.
type GetHelp struct {
	store.BaseAction
}

func (GetHelp) Execute(_ *store.Asset, ctx *store.UpdateContext, args map[string]any) (any, error) {
	path, err := pathArg(args)
	if err != nil {
		return nil, err
	}
	target, err := ctx.Store.AcquireByPath(ctx, path)
	if err != nil {
		return nil, err
	}
	return target.Help(), nil
}

func (GetHelp) Help() map[string]any {
	return store.ParseHelp(`
Returns the help for an asset given its path.

path: str -- the store-path to the asset of interest.
returns: the help block of the asset`)
}

func init() {
	Register(Registration{
		Path:   "bin.help",
		Mode:   "755",
		Action: func() store.Action { return &GetHelp{} },
	})

	persist.Register(persist.Codec{
		Name:    "GetHelp",
		Source:  "[]/pkg/action/help.go",
		Version: "1.0",
		Type:    reflect.TypeOf(&GetHelp{}),
		Params:  noParams,
		Build:   func(map[string]any, string) (any, error) { return &GetHelp{}, nil },
	})
}
