package identity

import (
	"fmt"
	"reflect"

	"github.com/hoardlab/hoard/pkg/persist"
)

func init() {
	persist.Register(persist.Codec{
		Name:    "Entity",
		Source:  "[]/pkg/identity/entity.go",
		Version: "1.0",
		Type:    reflect.TypeOf(&Entity{}),
		Params: func(obj any) (map[string]any, error) {
			e := obj.(*Entity)
			bases := make([]any, 0, len(e.inheritsFrom))
			for _, b := range e.inheritsFrom {
				bases = append(bases, b)
			}
			return map[string]any{
				"name":  e.name,
				"bases": bases,
				"meta":  e.meta,
			}, nil
		},
		Build: func(params map[string]any, _ string) (any, error) {
			name, ok := params["name"].(string)
			if !ok {
				return nil, fmt.Errorf("entity name missing")
			}
			var bases []string
			if raw, ok := params["bases"].([]any); ok {
				for _, b := range raw {
					s, ok := b.(string)
					if !ok {
						return nil, fmt.Errorf("entity %s: base %v is not a string", name, b)
					}
					bases = append(bases, s)
				}
			}
			meta, _ := params["meta"].(map[string]any)
			return NewEntity(name, bases, meta), nil
		},
	})

	persist.Register(persist.Codec{
		Name:    "UserRegistry",
		Source:  "[]/pkg/identity/registry.go",
		Version: "1.0",
		Type:    reflect.TypeOf(&Registry{}),
		Params: func(obj any) (map[string]any, error) {
			reg := obj.(*Registry)
			entities := make(map[string]any, len(reg.entities))
			for name, e := range reg.entities {
				entities[name] = e
			}
			return map[string]any{"entities": entities}, nil
		},
		Build: func(params map[string]any, _ string) (any, error) {
			raw, ok := params["entities"].(map[string]any)
			if !ok {
				return nil, fmt.Errorf("registry entities missing")
			}
			entities := make(map[string]*Entity, len(raw))
			for name, v := range raw {
				e, ok := v.(*Entity)
				if !ok {
					return nil, fmt.Errorf("entity %s decoded as %T", name, v)
				}
				entities[name] = e
			}
			return Restore(entities), nil
		},
	})
}
