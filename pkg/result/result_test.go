package result

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOfGet(t *testing.T) {
	v, err := Of(42).Get()
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestErr(t *testing.T) {
	r := Err(errors.New("boom"))
	assert.True(t, r.IsError())
	assert.NotEmpty(t, r.Stack())

	_, err := r.Get()
	assert.EqualError(t, err, "boom")
}

func TestGetOr(t *testing.T) {
	assert.Equal(t, 42, Of(42).GetOr(7))
	assert.Equal(t, 7, Err(errors.New("boom")).GetOr(7))
}

func TestThenChains(t *testing.T) {
	r := Of(2).
		Then(func(v any) (any, error) { return v.(int) * 3, nil }).
		Then(func(v any) (any, error) { return v.(int) + 1, nil })

	v, err := r.Get()
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestThenSkippedAfterFailure(t *testing.T) {
	called := false
	r := Errf("early failure").Then(func(v any) (any, error) {
		called = true
		return v, nil
	})

	assert.True(t, r.IsError())
	assert.False(t, called)
}

func TestThenCapturesError(t *testing.T) {
	r := Of(1).Then(func(any) (any, error) {
		return nil, errors.New("step failed")
	})

	assert.True(t, r.IsError())
	assert.EqualError(t, r.Unwrap(), "step failed")
	assert.NotEmpty(t, r.Stack())
}

func TestTryRecoversPanic(t *testing.T) {
	r := Try(func() (any, error) {
		panic("unexpected")
	})

	require.True(t, r.IsError())
	assert.Contains(t, r.Unwrap().Error(), "unexpected")
	assert.NotEmpty(t, r.Stack())
}

func TestOnErrorRecovers(t *testing.T) {
	r := Errf("boom").OnError(func(err error) (any, error) {
		return "fallback", nil
	})

	v, err := r.Get()
	require.NoError(t, err)
	assert.Equal(t, "fallback", v)
}

func TestOnErrorSkippedWhenValid(t *testing.T) {
	called := false
	r := Of("value").OnError(func(err error) (any, error) {
		called = true
		return nil, err
	})

	assert.False(t, called)
	assert.False(t, r.IsError())
}

func TestRenderErrorBody(t *testing.T) {
	body, ok := Errf("no such asset").Render()
	require.False(t, ok)

	eb, isBody := body.(ErrorBody)
	require.True(t, isBody)
	assert.Equal(t, "The requested operation failed.", eb.Message)
	assert.Equal(t, "no such asset", eb.Exception)
	assert.NotEmpty(t, eb.Stacktrace)
}

func TestMarshalJSON(t *testing.T) {
	data, err := json.Marshal(Of(map[string]any{"x": 1}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":1}`, string(data))

	data, err = json.Marshal(Errf("gone"))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "gone", decoded["exception"])
	assert.Contains(t, decoded, "stacktrace")
}
