package result

import (
	"errors"
	"reflect"

	"github.com/hoardlab/hoard/pkg/persist"
)

// Restore rebuilds a failed result from its persisted message and stack.
func Restore(message, stack string) Result {
	return Result{err: errors.New(message), stack: stack}
}

func init() {
	persist.Register(persist.Codec{
		Name:    "Result",
		Source:  "[]/pkg/result/result.go",
		Version: "1.0",
		Type:    reflect.TypeOf(Result{}),
		Params: func(obj any) (map[string]any, error) {
			r := obj.(Result)
			if r.err != nil {
				return map[string]any{
					"error":      r.err.Error(),
					"stacktrace": r.stack,
				}, nil
			}
			value := r.value
			if value == nil {
				value = persist.Nothing{}
			}
			return map[string]any{"value": value}, nil
		},
		Build: func(params map[string]any, _ string) (any, error) {
			if msg, failed := params["error"].(string); failed {
				stack, _ := params["stacktrace"].(string)
				return Restore(msg, stack), nil
			}
			value := params["value"]
			if persist.IsNothing(value) {
				value = nil
			}
			return Of(value), nil
		},
	})
}
