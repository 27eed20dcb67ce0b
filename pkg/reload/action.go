package reload

import (
	"fmt"
	"reflect"

	"github.com/hoardlab/hoard/pkg/persist"
	"github.com/hoardlab/hoard/pkg/store"
)

// ScriptedAction runs an entry point from a Go script file. The asset store
// only persists the file path and the symbol; the code itself stays on disk
// and is re-evaluated when it changes, so scripted assets can be updated
// without restarting the process.
type ScriptedAction struct {
	store.BaseAction
	Path   string
	Symbol string

	loader *Loader
}

// NewScriptedAction creates a scripted action bound to the default loader.
func NewScriptedAction(path, symbol string) *ScriptedAction {
	return &ScriptedAction{Path: path, Symbol: symbol, loader: DefaultLoader()}
}

// Execute loads the entry point and runs it with the call arguments.
func (a *ScriptedAction) Execute(_ *store.Asset, _ *store.UpdateContext, args map[string]any) (any, error) {
	loader := a.loader
	if loader == nil {
		loader = DefaultLoader()
	}
	fn, err := loader.Load(a.Path, a.Symbol)
	if err != nil {
		return nil, err
	}
	return fn(args)
}

// Reload drops the cached entry point, so the next execution re-evaluates
// the file.
func (a *ScriptedAction) Reload() {
	loader := a.loader
	if loader == nil {
		loader = DefaultLoader()
	}
	loader.Invalidate(a.Path)
}

// Help describes the script binding.
func (a *ScriptedAction) Help() map[string]any {
	return store.MakeHelp(
		fmt.Sprintf("Runs %s from %s.", a.Symbol, a.Path),
		"whatever the script returns",
		nil,
	)
}

func init() {
	persist.Register(persist.Codec{
		Name:    "ScriptedAction",
		Source:  "[]/pkg/reload/action.go",
		Version: "1.0",
		Type:    reflect.TypeOf(&ScriptedAction{}),
		Params: func(obj any) (map[string]any, error) {
			a := obj.(*ScriptedAction)
			return map[string]any{
				"path":   a.Path,
				"symbol": a.Symbol,
			}, nil
		},
		Build: func(params map[string]any, _ string) (any, error) {
			path, ok := params["path"].(string)
			if !ok {
				return nil, fmt.Errorf("scripted action path missing")
			}
			symbol, ok := params["symbol"].(string)
			if !ok {
				return nil, fmt.Errorf("scripted action symbol missing")
			}
			return NewScriptedAction(path, symbol), nil
		},
	})
}
