package action

import (
	"fmt"

	"github.com/hoardlab/hoard/pkg/store"
)

// pathArg extracts the mandatory "path" argument.
func pathArg(args map[string]any) (string, error) {
	return stringArg(args, "path")
}

func stringArg(args map[string]any, name string) (string, error) {
	raw, present := args[name]
	if !present {
		return "", fmt.Errorf("required %q parameter missing", name)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%q must be a string, got %T", name, raw)
	}
	return s, nil
}

// noParams is the codec extractor for stateless actions.
func noParams(any) (map[string]any, error) {
	return map[string]any{}, nil
}

func init() {
	// The directory listing is a store built-in; mounting it under bin.ls
	// gives it a callable address.
	Register(Registration{
		Path:   "bin.ls",
		Mode:   "755",
		Action: func() store.Action { return &store.ReadDir{} },
	})
}
