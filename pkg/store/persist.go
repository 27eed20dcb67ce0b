package store

import (
	"fmt"
	"reflect"
	"time"

	"github.com/hoardlab/hoard/pkg/permission"
	"github.com/hoardlab/hoard/pkg/persist"
)

// Codecs for everything the store writes through a backend: asset records,
// the references and links mounted in the directory tree, and the built-in
// actions. Parameter names are part of the stored format.

func encodeTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func decodeTime(v any) time.Time {
	if t, ok := v.(time.Time); ok {
		return t
	}
	return time.Time{}
}

func decodePermissions(v any) *permission.Permissions {
	p, _ := v.(*permission.Permissions)
	return p
}

func init() {
	persist.Register(persist.Codec{
		Name:    "Asset",
		Source:  "[]/pkg/store/asset.go",
		Version: "1.0",
		Type:    reflect.TypeOf(&Asset{}),
		Params: func(obj any) (map[string]any, error) {
			a := obj.(*Asset)
			a.mu.Lock()
			defer a.mu.Unlock()

			deps := make([]any, 0, len(a.dependencies))
			for _, d := range a.dependencies {
				deps = append(deps, d)
			}

			params := map[string]any{
				"action":            a.action,
				"action_args":       a.actionArgs,
				"local_id":          a.localID,
				"updater":           a.updater,
				"meta":              a.meta,
				"creation_date":     encodeTime(a.creationDate),
				"last_modification": encodeTime(a.lastModified),
				"last_build":        encodeTime(a.lastBuild),
				"dependencies":      deps,
			}
			if a.permissions != nil {
				params["permissions"] = a.permissions
			}
			if a.buildResult != nil {
				params["build_result"] = a.buildResult
			}
			if a.assetHelp != nil {
				params["asset_help"] = a.assetHelp
			}
			return params, nil
		},
		Build: func(params map[string]any, _ string) (any, error) {
			action, _ := params["action"].(Action)
			args, _ := params["action_args"].(map[string]any)
			if args == nil {
				args = map[string]any{}
			}
			meta, _ := params["meta"].(map[string]any)
			if meta == nil {
				meta = map[string]any{}
			}
			localID, _ := params["local_id"].(int)
			updater, _ := params["updater"].(string)
			if updater == "" {
				updater = "basic"
			}

			var deps []Reference
			if raw, ok := params["dependencies"].([]any); ok {
				for _, d := range raw {
					ref, ok := d.(Reference)
					if !ok {
						return nil, fmt.Errorf("dependency decoded as %T", d)
					}
					deps = append(deps, ref)
				}
			}
			help, _ := params["asset_help"].(map[string]any)

			return &Asset{
				action:       action,
				actionArgs:   args,
				permissions:  decodePermissions(params["permissions"]),
				localID:      localID,
				updater:      updater,
				meta:         meta,
				buildResult:  params["build_result"],
				creationDate: decodeTime(params["creation_date"]),
				lastModified: decodeTime(params["last_modification"]),
				lastBuild:    decodeTime(params["last_build"]),
				dependencies: deps,
				assetHelp:    help,
			}, nil
		},
	})

	persist.Register(persist.Codec{
		Name:    "AssetReferenceById",
		Source:  "[]/pkg/store/reference.go",
		Version: "1.0",
		Type:    reflect.TypeOf(&ByID{}),
		Params: func(obj any) (map[string]any, error) {
			r := obj.(*ByID)
			return map[string]any{"asset_id": r.ID, "name": r.RefName}, nil
		},
		Build: func(params map[string]any, _ string) (any, error) {
			id, ok := params["asset_id"].(int)
			if !ok {
				return nil, fmt.Errorf("reference asset id missing")
			}
			name, _ := params["name"].(string)
			return &ByID{ID: id, RefName: name}, nil
		},
	})

	persist.Register(persist.Codec{
		Name:    "AssetReferenceByPath",
		Source:  "[]/pkg/store/reference.go",
		Version: "1.0",
		Type:    reflect.TypeOf(&ByPath{}),
		Params: func(obj any) (map[string]any, error) {
			r := obj.(*ByPath)
			return map[string]any{"path": r.Path, "name": r.RefName}, nil
		},
		Build: func(params map[string]any, _ string) (any, error) {
			path, ok := params["path"].(string)
			if !ok {
				return nil, fmt.Errorf("reference path missing")
			}
			name, _ := params["name"].(string)
			return &ByPath{Path: path, RefName: name}, nil
		},
	})

	persist.Register(persist.Codec{
		Name:    "ActiveAsset",
		Source:  "[]/pkg/store/reference.go",
		Version: "1.0",
		Type:    reflect.TypeOf(&ActiveAsset{}),
		Params: func(obj any) (map[string]any, error) {
			r := obj.(*ActiveAsset)
			params := map[string]any{"asset_id": r.ID}
			if r.Permissions != nil {
				params["permissions"] = r.Permissions
			}
			return params, nil
		},
		Build: func(params map[string]any, _ string) (any, error) {
			id, ok := params["asset_id"].(int)
			if !ok {
				return nil, fmt.Errorf("active asset id missing")
			}
			return &ActiveAsset{ID: id, Permissions: decodePermissions(params["permissions"])}, nil
		},
	})

	persist.Register(persist.Codec{
		Name:    "ActionReference",
		Source:  "[]/pkg/store/reference.go",
		Version: "1.0",
		Type:    reflect.TypeOf(&ActionRef{}),
		Params: func(obj any) (map[string]any, error) {
			r := obj.(*ActionRef)
			return map[string]any{"ref": r.Ref}, nil
		},
		Build: func(params map[string]any, _ string) (any, error) {
			ref, ok := params["ref"].(Reference)
			if !ok {
				return nil, fmt.Errorf("action reference target missing")
			}
			return &ActionRef{Ref: ref}, nil
		},
	})

	persist.Register(persist.Codec{
		Name:    "SymLink",
		Source:  "[]/pkg/store/links.go",
		Version: "1.0",
		Type:    reflect.TypeOf(&SymLink{}),
		Params: func(obj any) (map[string]any, error) {
			l := obj.(*SymLink)
			params := map[string]any{"path": l.Path}
			if l.Permissions != nil {
				params["permissions"] = l.Permissions
			}
			return params, nil
		},
		Build: func(params map[string]any, _ string) (any, error) {
			path, ok := params["path"].(string)
			if !ok {
				return nil, fmt.Errorf("symlink path missing")
			}
			return &SymLink{Path: path, Permissions: decodePermissions(params["permissions"])}, nil
		},
	})

	// A hard link persists as its target path only; the shared directory
	// map is re-bound when the tree loads.
	persist.Register(persist.Codec{
		Name:    "HardLink",
		Source:  "[]/pkg/store/links.go",
		Version: "1.0",
		Type:    reflect.TypeOf(&HardLink{}),
		Params: func(obj any) (map[string]any, error) {
			l := obj.(*HardLink)
			return map[string]any{"path": l.Path}, nil
		},
		Build: func(params map[string]any, _ string) (any, error) {
			path, ok := params["path"].(string)
			if !ok {
				return nil, fmt.Errorf("hard link path missing")
			}
			return &HardLink{Path: path, Dir: map[string]any{}}, nil
		},
	})

	persist.Register(persist.Codec{
		Name:    "NoAction",
		Source:  "[]/pkg/store/action.go",
		Version: "1.0",
		Type:    reflect.TypeOf(&NoAction{}),
		Params: func(any) (map[string]any, error) {
			return map[string]any{}, nil
		},
		Build: func(map[string]any, string) (any, error) {
			return &NoAction{}, nil
		},
	})

	persist.Register(persist.Codec{
		Name:    "ReadDir",
		Source:  "[]/pkg/store/readdir.go",
		Version: "1.0",
		Type:    reflect.TypeOf(&ReadDir{}),
		Params: func(any) (map[string]any, error) {
			return map[string]any{}, nil
		},
		Build: func(map[string]any, string) (any, error) {
			return &ReadDir{}, nil
		},
	})
}
