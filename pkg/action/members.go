package action

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/hoardlab/hoard/pkg/dispatch"
	"github.com/hoardlab/hoard/pkg/persist"
	"github.com/hoardlab/hoard/pkg/store"
)

// memberMethod is one callable member of a MemberDispatch action.
type memberMethod func(m *MemberDispatch, args map[string]any) (any, error)

// sumScope picks the sum flavor by the arguments present. Registration
// order is the dispatch order, so the three-operand form wins when c is
// given.
var sumScope = dispatch.NewNamespace[memberMethod]("sum").
	VariantExtra(dispatch.Params{
		"a": dispatch.P(dispatch.IsInt()),
		"b": dispatch.P(dispatch.IsInt()),
		"c": dispatch.P(dispatch.IsInt()),
	}, func(_ *MemberDispatch, args map[string]any) (any, error) {
		a, b, c := args["a"].(int), args["b"].(int), args["c"].(int)
		return fmt.Sprintf("sum3: %d+%d+%d = %d", a, b, c, a+b+c), nil
	}).
	VariantExtra(dispatch.Params{
		"a": dispatch.P(dispatch.IsInt()),
		"b": dispatch.P(dispatch.IsInt()),
	}, func(_ *MemberDispatch, args map[string]any) (any, error) {
		a, b := args["a"].(int), args["b"].(int)
		return fmt.Sprintf("sum2: %d+%d = %d", a, b, a+b), nil
	})

// memberMethods are the callable members of MemberDispatch, looked up by
// the selected method name.
var memberMethods = map[string]memberMethod{
	"foo": func(_ *MemberDispatch, args map[string]any) (any, error) {
		return fmt.Sprintf("foo (%s)", renderArgs(args)), nil
	},
	"bar": func(m *MemberDispatch, args map[string]any) (any, error) {
		return fmt.Sprintf("bar - val=%d (%s)", m.value, renderArgs(args)), nil
	},
	"baz": func(m *MemberDispatch, args map[string]any) (any, error) {
		raw, present := args["x"]
		if !present {
			return nil, fmt.Errorf(`baz needs an "x" argument`)
		}
		x, err := intValue(raw)
		if err != nil {
			return nil, fmt.Errorf(`"x" %v`, err)
		}
		if x == 0 {
			return nil, fmt.Errorf(`"x" must not be zero`)
		}
		return fmt.Sprintf("baz - val/x=%v (%s)", float64(m.value)/float64(x), renderArgs(args)), nil
	},
	"sum": func(m *MemberDispatch, args map[string]any) (any, error) {
		handler, err := sumScope.Select(args)
		if err != nil {
			return nil, err
		}
		return handler(m, args)
	},
}

// MemberDispatch routes a call to one of its named member methods (foo,
// bar, baz, sum). The method name comes from the "method" argument or,
// through the inner access protocol, from the first surplus path component
// of the acquisition: test.gimme.foo calls foo.
type MemberDispatch struct {
	store.BaseAction
	value int
}

func (m *MemberDispatch) Execute(_ *store.Asset, _ *store.UpdateContext, args map[string]any) (any, error) {
	name, err := m.methodName(args)
	if err != nil {
		return nil, err
	}
	method, known := memberMethods[name]
	if !known {
		return nil, fmt.Errorf("no such method: %q", name)
	}
	return method(m, args)
}

func (m *MemberDispatch) methodName(args map[string]any) (string, error) {
	if raw, present := args["method"]; present {
		name, ok := raw.(string)
		if !ok || name == "" {
			return "", fmt.Errorf(`the "method" argument must be a non-empty string`)
		}
		return name, nil
	}
	if inner, ok := args["_inner_get"].([]any); ok && len(inner) > 0 {
		if name, ok := inner[0].(string); ok {
			return name, nil
		}
	}
	return "", fmt.Errorf(`method name missing: provide a "method" argument or address a member path`)
}

func (m *MemberDispatch) AcceptsInnerAccess() bool { return true }

func (m *MemberDispatch) Help() map[string]any {
	return store.MakeHelp(
		"an action to call a named member method",
		"None",
		map[string]string{
			"method": `str -- member to call: "foo", "bar", "baz" or "sum"; inner access (test.gimme.foo) selects it too`,
			"x":      "int -- divisor for baz",
			"a":      "int -- first operand for sum",
			"b":      "int -- second operand for sum",
			"c":      "int, optional -- third operand for sum",
		},
	)
}

// renderArgs formats the call arguments for the member replies, with the
// routing keys stripped and the rest sorted by name.
func renderArgs(args map[string]any) string {
	names := make([]string, 0, len(args))
	for name := range args {
		if name == "method" || name == "_inner_get" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%v", name, args[name]))
	}
	return strings.Join(parts, ", ")
}

// intValue converts the int shapes member arguments arrive in: native ints
// from store calls, strings from the gateway.
func intValue(raw any) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("must be an integer, got %q", v)
		}
		return n, nil
	}
	return 0, fmt.Errorf("must be an integer, got %T", raw)
}

const defaultMemberValue = 17

func init() {
	Register(Registration{
		Path:   "test.gimme",
		Action: func() store.Action { return &MemberDispatch{value: defaultMemberValue} },
	})

	persist.Register(persist.Codec{
		Name:    "MemberDispatch",
		Source:  "[]/pkg/action/members.go",
		Version: "1.0",
		Type:    reflect.TypeOf(&MemberDispatch{}),
		Params: func(obj any) (map[string]any, error) {
			m := obj.(*MemberDispatch)
			return map[string]any{"value": m.value}, nil
		},
		Build: func(params map[string]any, _ string) (any, error) {
			value, ok := params["value"].(int)
			if !ok {
				value = defaultMemberValue
			}
			return &MemberDispatch{value: value}, nil
		},
	})
}
