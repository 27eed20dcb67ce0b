package store

import "fmt"

// Action is the executable part of an asset. The asset serves as the
// action's data carrier: configuration lives in the asset's action
// arguments, outcomes land in the asset's build result.
//
// Execute returns the action's value; returning a result.Result passes it
// through unchanged, anything else is wrapped as a valid result by the
// update machinery, and a returned error becomes an error result. The
// surrounding hooks are observers: PreExecute may veto the run, a non-nil
// PostExecute value replaces the result.
type Action interface {
	Execute(asset *Asset, ctx *UpdateContext, args map[string]any) (any, error)
	PreExecute(asset *Asset, ctx *UpdateContext, args map[string]any) error
	PostExecute(asset *Asset, ctx *UpdateContext, value any, args map[string]any) (any, error)

	// PreUpdate runs before the make strategy inspects dependencies.
	PreUpdate(asset *Asset, ctx *UpdateContext) error
	// UpdateRequired reports whether the make strategy must rebuild the
	// asset. Actions override it to replace the timestamp rule with their
	// own freshness check.
	UpdateRequired(asset *Asset) bool
	// UpdateDependency brings one dependency up to date for the make
	// strategy.
	UpdateDependency(asset *Asset, ctx *UpdateContext, dependency *Asset, args map[string]any) (*Asset, error)

	// Help returns the action's help block (see MakeHelp).
	Help() map[string]any

	// AcceptsInnerAccess reports whether surplus path components from
	// acquisition may be forwarded to Execute as the _inner_get argument.
	AcceptsInnerAccess() bool
}

// BaseAction supplies the default behavior for every hook; concrete actions
// embed it and override what they need.
type BaseAction struct{}

// PreExecute does nothing.
func (BaseAction) PreExecute(*Asset, *UpdateContext, map[string]any) error {
	return nil
}

// PostExecute keeps the execute value.
func (BaseAction) PostExecute(_ *Asset, _ *UpdateContext, _ any, _ map[string]any) (any, error) {
	return nil, nil
}

// PreUpdate does nothing.
func (BaseAction) PreUpdate(*Asset, *UpdateContext) error {
	return nil
}

// UpdateRequired applies the make freshness rule: phony assets, assets
// without a result and assets modified after their last build need a run.
func (BaseAction) UpdateRequired(asset *Asset) bool {
	if asset.IsPhony() || asset.Result() == nil {
		return true
	}
	lastBuild := asset.LastBuild()
	lastMod := asset.LastModification()
	return !lastBuild.IsZero() && !lastMod.IsZero() && lastBuild.Before(lastMod)
}

// UpdateDependency updates the dependency with no caller arguments.
func (BaseAction) UpdateDependency(_ *Asset, ctx *UpdateContext, dependency *Asset, _ map[string]any) (*Asset, error) {
	return dependency.Update(ctx, nil), nil
}

// Help reports no documentation.
func (BaseAction) Help() map[string]any {
	return MakeHelp("undocumented action", nil, nil)
}

// AcceptsInnerAccess declines the inner access protocol.
func (BaseAction) AcceptsInnerAccess() bool {
	return false
}

// RequiredParameter reads a configured action argument, failing when the
// asset does not carry it.
func RequiredParameter(asset *Asset, key string) (any, error) {
	if v, ok := asset.ActionArg(key); ok {
		return v, nil
	}
	return nil, fmt.Errorf("required %q parameter missing", key)
}

// OptionalParameter reads a configured action argument with a fallback.
func OptionalParameter(asset *Asset, key string, fallback any) any {
	if v, ok := asset.ActionArg(key); ok {
		return v
	}
	return fallback
}

// NoAction does nothing. Assets carrying it are pure data records.
type NoAction struct {
	BaseAction
}

// Execute returns no value.
func (NoAction) Execute(*Asset, *UpdateContext, map[string]any) (any, error) {
	return nil, nil
}

// Help describes the action.
func (NoAction) Help() map[string]any {
	return MakeHelp("This action does nothing.", nil, nil)
}
