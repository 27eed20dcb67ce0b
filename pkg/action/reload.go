package action

import (
	"fmt"
	"reflect"

	"github.com/hoardlab/hoard/pkg/dispatch"
	"github.com/hoardlab/hoard/pkg/persist"
	"github.com/hoardlab/hoard/pkg/reload"
	"github.com/hoardlab/hoard/pkg/store"
)

// validDescription accepts the asset_description documents ReloadAsset
// consumes: a script binding (file path and symbol), a mount mode and
// optional configured arguments.
func validDescription(v any) bool {
	desc, ok := v.(map[string]any)
	if !ok {
		return false
	}
	script, ok := desc["script"].(map[string]any)
	if !ok {
		return false
	}
	if _, ok := script["path"].(string); !ok {
		return false
	}
	if _, ok := script["symbol"].(string); !ok {
		return false
	}
	switch desc["mode"].(type) {
	case int, string:
	default:
		return false
	}
	if raw, present := desc["action_args"]; present {
		if _, ok := raw.(map[string]any); !ok {
			return false
		}
	}
	return true
}

type reloadHandler func(ctx *store.UpdateContext, args map[string]any) (any, error)

var reloadScope = dispatch.NewNamespace[reloadHandler]("ReloadAsset").
	VariantExtra(dispatch.Params{
		"path_to_asset":     dispatch.P(dispatch.IsString()),
		"asset_description": dispatch.P(dispatch.Call(validDescription)),
	}, storeScriptedAsset).
	VariantExtra(dispatch.Params{
		"path_to_asset": dispatch.P(dispatch.IsString()),
	}, reloadScriptedAsset)

// ReloadAsset creates or refreshes script-backed assets. With an
// asset_description it evaluates the script binding and mounts a new asset;
// with only a path it drops the cached code of an existing scripted asset,
// so its next run picks up the current file.
type ReloadAsset struct {
	store.BaseAction
}

func (ReloadAsset) Execute(_ *store.Asset, ctx *store.UpdateContext, args map[string]any) (any, error) {
	handler, err := reloadScope.Select(args)
	if err != nil {
		return nil, fmt.Errorf("no matching handler found: %w", err)
	}
	return handler(ctx, args)
}

func (ReloadAsset) Help() map[string]any {
	return store.MakeHelp(
		"Create or reload a script-backed asset",
		"a confirmation message",
		map[string]string{
			"path_to_asset": "str -- the store-path of the asset to create or reload",
			"asset_description": "map, optional -- {script: {path, symbol}, mode, action_args?};" +
				" when present a new scripted asset is stored at the path",
		},
	)
}

func storeScriptedAsset(ctx *store.UpdateContext, args map[string]any) (any, error) {
	path := args["path_to_asset"].(string)
	desc := args["asset_description"].(map[string]any)
	script := desc["script"].(map[string]any)

	scripted := reload.NewScriptedAction(
		script["path"].(string),
		script["symbol"].(string),
	)
	actionArgs, _ := desc["action_args"].(map[string]any)

	created := store.NewAsset(scripted, store.WithArgs(actionArgs))
	if err := ctx.Store.Store(ctx, created, path, desc["mode"]); err != nil {
		return nil, err
	}
	return fmt.Sprintf("stored %s:%s in %s", scripted.Path, scripted.Symbol, path), nil
}

func reloadScriptedAsset(ctx *store.UpdateContext, args map[string]any) (any, error) {
	path := args["path_to_asset"].(string)
	target, err := ctx.Store.AcquireByPath(ctx, path)
	if err != nil {
		return nil, err
	}

	scripted, ok := target.Action().(*reload.ScriptedAction)
	if !ok {
		return nil, fmt.Errorf("%s is not script-backed (%T)", path, target.Action())
	}
	scripted.Reload()
	return fmt.Sprintf("reloaded %s:%s in %s", scripted.Path, scripted.Symbol, path), nil
}

func init() {
	Register(Registration{
		Path:   "bin.reload",
		Mode:   "755",
		Action: func() store.Action { return &ReloadAsset{} },
	})

	persist.Register(persist.Codec{
		Name:    "ReloadAsset",
		Source:  "[]/pkg/action/reload.go",
		Version: "1.0",
		Type:    reflect.TypeOf(&ReloadAsset{}),
		Params:  noParams,
		Build:   func(map[string]any, string) (any, error) { return &ReloadAsset{}, nil },
	})
}
