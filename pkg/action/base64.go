package action

import (
	"encoding/base64"
	"fmt"
	"reflect"
	"strings"

	"github.com/hoardlab/hoard/pkg/persist"
	"github.com/hoardlab/hoard/pkg/store"
)

// Base64Encoding converts between plain text and base64. Exactly one of the
// encode and decode arguments must be present.
type Base64Encoding struct {
	store.BaseAction
}

func (Base64Encoding) Execute(_ *store.Asset, _ *store.UpdateContext, args map[string]any) (any, error) {
	encode, hasEncode := args["encode"]
	decode, hasDecode := args["decode"]
	if hasEncode == hasDecode {
		return nil, fmt.Errorf("either encode or decode data must be provided")
	}

	if hasEncode {
		switch data := encode.(type) {
		case string:
			return base64.StdEncoding.EncodeToString([]byte(data)), nil
		case []byte:
			return base64.StdEncoding.EncodeToString(data), nil
		}
		return nil, fmt.Errorf("encode expects a string, got %T", encode)
	}

	text, ok := decode.(string)
	if !ok {
		return nil, fmt.Errorf("decode expects a string, got %T", decode)
	}
	// Tolerate transports that strip the padding.
	if missing := len(text) % 4; missing != 0 {
		text += strings.Repeat("=", 4-missing)
	}
	plain, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 data: %w", err)
	}
	return string(plain), nil
}

func (Base64Encoding) Help() map[string]any {
	return store.MakeHelp(
		"Convert to and from Base64 encoding",
		"The conversion result",
		map[string]string{
			"encode": "str - optional, the data to convert to base64 / mutually exclusive with decode",
			"decode": "str - optional, the data to convert from base64 / mutually exclusive with encode",
		},
	)
}

func init() {
	Register(Registration{
		Path:   "bin.base64",
		Mode:   "755",
		Action: func() store.Action { return &Base64Encoding{} },
	})

	persist.Register(persist.Codec{
		Name:    "Base64Encoding",
		Source:  "[]/pkg/action/base64.go",
		Version: "1.0",
		Type:    reflect.TypeOf(&Base64Encoding{}),
		Params:  noParams,
		Build:   func(map[string]any, string) (any, error) { return &Base64Encoding{}, nil },
	})
}
