package function

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLibrary_NormalizesPrefix(t *testing.T) {
	lib := NewLibrary("custom", "my")
	assert.Equal(t, "my:", lib.Prefix)

	lib.Register("hello", func([]string) (string, error) { return "hi", nil }, "says hi")
	fn, ok := lib.Lookup("hello")
	require.True(t, ok)
	out, err := fn(nil)
	require.NoError(t, err)
	assert.Equal(t, "hi", out)
	assert.Equal(t, "says hi", lib.Description("hello"))
	assert.Equal(t, []string{"hello"}, lib.Names())
}

func TestRegistry_AddReplacesSamePrefix(t *testing.T) {
	first := NewLibrary("first", "x:")
	second := NewLibrary("second", "x:")
	r := NewRegistry(first, second)

	libs := r.Libraries()
	require.Len(t, libs, 1)
	assert.Equal(t, "second", libs[0].Name)

	lib, ok := r.LibraryForPrefix("x:")
	require.True(t, ok)
	assert.Same(t, second, lib)
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.Same(t, r, DefaultRegistry())

	_, ok := r.LibraryForPrefix("core:")
	assert.True(t, ok)
	_, ok = r.LibraryForPrefix("sprig:")
	assert.True(t, ok)
}

func TestRegistry_IsFunction(t *testing.T) {
	r := NewRegistry(CoreLibrary())

	tests := []struct {
		expression string
		expected   bool
	}{
		{"core:upperCase('a')", true},
		{"  core:randomUUID()  ", true},
		{"core:upperCase", false},
		{"unknown:upperCase('a')", false},
		{"plain text", false},
		{"", false},
		{"${core}", false},
	}

	for _, tt := range tests {
		t.Run(tt.expression, func(t *testing.T) {
			assert.Equal(t, tt.expected, r.IsFunction(tt.expression))
		})
	}
}

func TestRegistry_Resolve(t *testing.T) {
	r := NewRegistry(CoreLibrary())

	result, err := r.Resolve("core:concat('Hello', ' ', 'World')", nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello World", result)

	result, err = r.Resolve("core:upperCase(${name})", func(raw string) (string, error) {
		assert.Equal(t, "${name}", raw)
		return "'proctor'", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "PROCTOR", result)
}

func TestRegistry_ResolveErrors(t *testing.T) {
	r := NewRegistry(CoreLibrary())

	_, err := r.Resolve("core:doesNotExist()", nil)
	assert.ErrorIs(t, err, ErrUnknownFunction)

	var fnErr *FunctionError
	require.True(t, errors.As(err, &fnErr))
	assert.Equal(t, "core:doesNotExist()", fnErr.Expression)

	_, err = r.Resolve("other:upperCase('a')", nil)
	assert.ErrorIs(t, err, ErrUnknownFunction)

	_, err = r.Resolve("core:upperCase()", nil)
	assert.ErrorIs(t, err, ErrInvalidFunctionUsage)

	_, err = r.Resolve("core:upperCase('a'", nil)
	assert.ErrorIs(t, err, ErrInvalidFunctionUsage)

	_, err = r.Resolve("core:upperCase(${x})", func(string) (string, error) {
		return "", errors.New("boom")
	})
	assert.EqualError(t, err, "failed to resolve parameters of core:upperCase(${x}): boom")
}
