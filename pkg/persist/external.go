package persist

import (
	"encoding/base64"
	"fmt"
	"reflect"
	"time"
)

// Codecs for foreign types that carry no constructor-parameter protocol of
// their own: timestamps, durations and raw byte payloads.

func init() {
	Register(Codec{
		Name:    "Datetime",
		Source:  "[]/pkg/persist/external.go",
		Version: "0.0",
		Type:    reflect.TypeOf(time.Time{}),
		Params: func(obj any) (map[string]any, error) {
			ts := obj.(time.Time)
			return map[string]any{
				"timestamp": float64(ts.UnixNano()) / float64(time.Second),
			}, nil
		},
		Build: func(params map[string]any, _ string) (any, error) {
			ts, err := asFloat(params["timestamp"])
			if err != nil {
				return nil, fmt.Errorf("timestamp: %w", err)
			}
			sec := int64(ts)
			nsec := int64((ts - float64(sec)) * float64(time.Second))
			return time.Unix(sec, nsec), nil
		},
	})

	Register(Codec{
		Name:    "Timedelta",
		Source:  "[]/pkg/persist/external.go",
		Version: "0.0",
		Type:    reflect.TypeOf(time.Duration(0)),
		Params: func(obj any) (map[string]any, error) {
			return map[string]any{"seconds": obj.(time.Duration).Seconds()}, nil
		},
		Build: func(params map[string]any, _ string) (any, error) {
			sec, err := asFloat(params["seconds"])
			if err != nil {
				return nil, fmt.Errorf("seconds: %w", err)
			}
			return time.Duration(sec * float64(time.Second)), nil
		},
	})

	Register(Codec{
		Name:    "Bytes",
		Source:  "[]/pkg/persist/external.go",
		Version: "0.0",
		Type:    reflect.TypeOf([]byte(nil)),
		Params: func(obj any) (map[string]any, error) {
			return map[string]any{
				"data": base64.URLEncoding.EncodeToString(obj.([]byte)),
			}, nil
		},
		Build: func(params map[string]any, _ string) (any, error) {
			s, ok := params["data"].(string)
			if !ok {
				return nil, fmt.Errorf("data is not a string")
			}
			return base64.URLEncoding.DecodeString(s)
		},
	})
}

// asFloat accepts the numeric shapes the decoder produces.
func asFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	}
	return 0, fmt.Errorf("expected a number, got %T", v)
}
