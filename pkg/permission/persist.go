package permission

import (
	"fmt"
	"reflect"

	"github.com/hoardlab/hoard/pkg/persist"
)

func init() {
	persist.Register(persist.Codec{
		Name:    "UnixPermissions",
		Source:  "[]/pkg/permission/permission.go",
		Version: "1.0",
		Type:    reflect.TypeOf(&Permissions{}),
		Params: func(obj any) (map[string]any, error) {
			p := obj.(*Permissions)
			mode := make(map[string]any, len(p.rights))
			for k, v := range p.rights {
				mode[k] = v
			}
			var group any
			if p.groupName != "" {
				group = p.groupName
			}
			return map[string]any{
				"user":  p.userName,
				"group": group,
				"mode":  mode,
			}, nil
		},
		Build: func(params map[string]any, _ string) (any, error) {
			user, ok := params["user"].(string)
			if !ok {
				return nil, fmt.Errorf("permissions user missing")
			}
			group, _ := params["group"].(string)

			rights := map[string]bool{}
			if raw, ok := params["mode"].(map[string]any); ok {
				for k, v := range raw {
					flag, ok := v.(bool)
					if !ok {
						return nil, fmt.Errorf("right %q is not a bool", k)
					}
					rights[k] = flag
				}
			}
			return Restore(user, group, rights), nil
		},
	})
}
