package action

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/hoardlab/hoard/pkg/dispatch"
	"github.com/hoardlab/hoard/pkg/persist"
	"github.com/hoardlab/hoard/pkg/result"
	"github.com/hoardlab/hoard/pkg/store"
)

type variantHandler func(args map[string]any) (any, error)

// variantScope exercises every dispatch feature: typed arguments, value
// ranges, optionals and a reporting fallback. Registration order is the
// dispatch order.
var variantScope = dispatch.NewNamespace[variantHandler]("VariantAction").
	VariantExtra(dispatch.Params{
		"path": dispatch.P(dispatch.IsString()),
	}, func(args map[string]any) (any, error) {
		return fmt.Sprintf("some path here: %v", args["path"]), nil
	}).
	VariantExtra(dispatch.Params{
		"count": dispatch.P(dispatch.When(dispatch.IsInt(), dispatch.InRange(1000, 3000))),
	}, func(args map[string]any) (any, error) {
		return fmt.Sprintf("got a good count: %v", args["count"]), nil
	}).
	VariantExtra(dispatch.Params{
		"count":  dispatch.P(dispatch.OfType[float64]()),
		"option": dispatch.Opt(dispatch.IsString()),
	}, func(args map[string]any) (any, error) {
		option, _ := args["option"].(string)
		return fmt.Sprintf("floaty option5: %v/%s", args["count"], option), nil
	}).
	Variant(dispatch.Params{
		"count": dispatch.P(dispatch.OfType[float64]()),
	}, func(args map[string]any) (any, error) {
		return fmt.Sprintf("thats floaty: %v", args["count"]), nil
	}).
	Variant(dispatch.Params{
		"count": dispatch.P(dispatch.IsInt()),
	}, func(args map[string]any) (any, error) {
		return fmt.Sprintf("got a count: %v", args["count"]), nil
	}).
	Variant(dispatch.Params{
		"count": dispatch.P(dispatch.IsInt()),
		"label": dispatch.P(dispatch.IsInt()),
	}, func(args map[string]any) (any, error) {
		return fmt.Sprintf("got a count and a max: %v/%v", args["count"], args["label"]), nil
	}).
	Variant(dispatch.Params{
		"count": dispatch.P(dispatch.IsInt()),
		"label": dispatch.P(dispatch.IsString()),
	}, func(args map[string]any) (any, error) {
		return fmt.Sprintf("got a count with a label: %v %q", args["count"], args["label"]), nil
	}).
	Fallback(func(args map[string]any) (any, error) {
		lines := []string{
			"VariantAction: Fallthrough method called -- no appropriate handler was found.",
			"Args:",
		}
		names := make([]string, 0, len(args))
		for name := range args {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			lines = append(lines, fmt.Sprintf("%s:%T=%v", name, args[name], args[name]))
		}
		return result.Errf("%s", strings.Join(lines, "\n")), nil
	})

// VariantAction selects its reply by the shape of the call arguments; it
// is mounted at test.dispatch.
type VariantAction struct {
	store.BaseAction
}

func (VariantAction) Execute(_ *store.Asset, _ *store.UpdateContext, args map[string]any) (any, error) {
	handler, err := variantScope.Select(args)
	if err != nil {
		return nil, err
	}
	return handler(args)
}

func (VariantAction) Help() map[string]any {
	return store.MakeHelp(
		"an action to take basic dispatched actions",
		"None",
		map[string]string{
			"count":  "int | float -- some number / \"good\" between 1000 and 3000",
			"label":  "int | str -- more data",
			"option": "str, optional if count:float (default=\"\") -- and even more data",
			"path":   "str -- echoes the path back",
		},
	)
}

func init() {
	Register(Registration{
		Path:   "test.dispatch",
		Action: func() store.Action { return &VariantAction{} },
	})

	persist.Register(persist.Codec{
		Name:    "VariantAction",
		Source:  "[]/pkg/action/variants.go",
		Version: "1.0",
		Type:    reflect.TypeOf(&VariantAction{}),
		Params:  noParams,
		Build:   func(map[string]any, string) (any, error) { return &VariantAction{}, nil },
	})
}
