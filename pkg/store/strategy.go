package store

import (
	"fmt"

	"github.com/hoardlab/hoard/pkg/result"
)

// UpdateStrategy decides how an asset's action runs during Update. The
// returned asset carries the outcome; a returned error is captured as the
// asset's error result by Update.
type UpdateStrategy interface {
	Update(asset *Asset, ctx *UpdateContext, args map[string]any) (*Asset, error)
}

var strategies = map[string]UpdateStrategy{
	"basic": basicStrategy{},
	"std":   basicStrategy{},
	"make":  makeStrategy{},
}

// Strategy looks an update strategy up by name.
func Strategy(name string) (UpdateStrategy, bool) {
	s, ok := strategies[name]
	return s, ok
}

// actionAndArgs flattens a chain of action references into the concrete
// action and the merged configured arguments. Merge precedence, lowest
// first: the asset's own arguments, then the referred assets' arguments
// from the deepest to the nearest reference.
func actionAndArgs(asset *Asset, ctx *UpdateContext) (Action, map[string]any, error) {
	action := asset.Action()

	var referred []map[string]any
	for {
		ref, isRef := action.(*ActionRef)
		if !isRef {
			break
		}
		target, err := ref.Ref.Resolve(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("resolving action reference %v: %w", ref.Ref, err)
		}
		referred = append(referred, target.ActionArgs())
		action = target.Action()
	}
	if action == nil {
		return nil, nil, fmt.Errorf("asset has no action")
	}

	merged := map[string]any{}
	for k, v := range asset.ActionArgs() {
		merged[k] = v
	}
	for i := len(referred) - 1; i >= 0; i-- {
		for k, v := range referred[i] {
			merged[k] = v
		}
	}
	return action, merged, nil
}

// executeAction runs the action hooks around Execute and captures the
// outcome on the asset. Values already shaped as results pass through;
// everything else becomes a valid result; failures become error results.
func executeAction(asset *Asset, action Action, args map[string]any, ctx *UpdateContext) *Asset {
	if err := action.PreExecute(asset, ctx, args); err != nil {
		return asset.SetResult(result.Err(fmt.Errorf("in pre-execute: %w", err)))
	}

	value, err := action.Execute(asset, ctx, args)
	if err != nil {
		return asset.SetResult(result.Err(fmt.Errorf("action failed: %w", err)))
	}

	if post, err := action.PostExecute(asset, ctx, value, args); err != nil {
		return asset.SetResult(result.Err(fmt.Errorf("in post-execute: %w", err)))
	} else if post != nil {
		value = post
	}

	if res, isResult := value.(result.Result); isResult {
		return asset.SetResult(res)
	}
	return asset.SetResult(result.Of(value))
}

// readUpdate handles an update without caller arguments. Since the result
// is a member of the asset, this is functionally the read operation: it
// requires read access, and runs on the asset itself only when the caller
// could have modified it anyway, otherwise on a clone.
func readUpdate(asset *Asset, ctx *UpdateContext, action Action, args map[string]any) (*Asset, error) {
	perms, err := asset.Permissions()
	if err != nil {
		return nil, err
	}
	if !ctx.PermissionGranted(perms, "r") {
		return nil, fmt.Errorf("read %w", ErrPermissionDenied)
	}
	if ctx.PermissionGranted(perms, "w") {
		return executeAction(asset, action, args, ctx), nil
	}
	return executeAction(asset.Clone(), action, args, ctx), nil
}

// parametrizedUpdate handles an update with caller arguments: a true
// execution requiring execute access, always on a clone, with the caller's
// arguments overriding the configured ones.
func parametrizedUpdate(asset *Asset, ctx *UpdateContext, action Action, args, callerArgs map[string]any) (*Asset, error) {
	perms, err := asset.Permissions()
	if err != nil {
		return nil, err
	}
	if !ctx.PermissionGranted(perms, "x") {
		return nil, fmt.Errorf("execute %w", ErrPermissionDenied)
	}
	for k, v := range callerArgs {
		args[k] = v
	}
	return executeAction(asset.Clone(), action, args, ctx), nil
}

// basicStrategy calls the action unconditionally and single-threaded. All
// actions support it; it is the default.
type basicStrategy struct{}

func (basicStrategy) Update(asset *Asset, ctx *UpdateContext, args map[string]any) (*Asset, error) {
	action, merged, err := actionAndArgs(asset, ctx)
	if err != nil {
		return nil, err
	}

	if len(args) == 0 {
		return readUpdate(asset, ctx, action, merged)
	}
	return parametrizedUpdate(asset, ctx, action, merged, args)
}

// makeStrategy rebuilds the asset only when needed: when it is phony, has
// no prior result, was modified after its last build, or when any
// dependency needs rebuilding. Dependencies are brought up to date through
// the action before the asset itself runs.
type makeStrategy struct{}

func (makeStrategy) Update(asset *Asset, ctx *UpdateContext, args map[string]any) (*Asset, error) {
	action, merged, err := actionAndArgs(asset, ctx)
	if err != nil {
		return nil, err
	}
	if err := action.PreUpdate(asset, ctx); err != nil {
		return nil, fmt.Errorf("in pre-update: %w", err)
	}

	deps := asset.Dependencies()
	depAssets := make([]*Asset, 0, len(deps))
	for _, dep := range deps {
		target, err := dep.Resolve(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolving dependency %v: %w", dep, err)
		}
		depAssets = append(depAssets, target)
	}

	required := action.UpdateRequired(asset)
	for _, dep := range depAssets {
		if required {
			break
		}
		required = dependencyRequiresUpdate(dep)
	}
	if !required {
		return asset, nil
	}

	for _, dep := range depAssets {
		if _, err := action.UpdateDependency(asset, ctx, dep, args); err != nil {
			return nil, fmt.Errorf("updating dependency: %w", err)
		}
	}

	if len(args) == 0 {
		return readUpdate(asset, ctx, action, merged)
	}
	return parametrizedUpdate(asset, ctx, action, merged, args)
}

// dependencyRequiresUpdate asks a dependency's own action for its
// freshness. Dependencies without an action always count as stale.
func dependencyRequiresUpdate(dep *Asset) bool {
	action := dep.Action()
	if action == nil {
		return true
	}
	return action.UpdateRequired(dep)
}
