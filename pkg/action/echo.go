package action

import (
	"reflect"

	"github.com/hoardlab/hoard/pkg/persist"
	"github.com/hoardlab/hoard/pkg/store"
)

// EchoAction mirrors the calling arguments back as its result. It takes
// part in the inner access protocol, so surplus path components of an
// acquisition come back under the _inner_get key.
type EchoAction struct {
	store.BaseAction
}

func (EchoAction) Execute(_ *store.Asset, _ *store.UpdateContext, args map[string]any) (any, error) {
	return args, nil
}

func (EchoAction) AcceptsInnerAccess() bool { return true }

func (EchoAction) Help() map[string]any {
	return store.MakeHelp("an action to mirror a call back to the caller", "None",
		map[string]string{"args": "any -- everything is echoed back"})
}

func init() {
	Register(Registration{
		Path:   "test.active",
		Action: func() store.Action { return &EchoAction{} },
	})

	persist.Register(persist.Codec{
		Name:    "EchoAction",
		Source:  "[]/pkg/action/echo.go",
		Version: "1.0",
		Type:    reflect.TypeOf(&EchoAction{}),
		Params:  noParams,
		Build:   func(map[string]any, string) (any, error) { return &EchoAction{}, nil },
	})
}
