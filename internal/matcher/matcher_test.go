package matcher

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsExpression(t *testing.T) {
	assert.True(t, IsExpression("@ignore@"))
	assert.True(t, IsExpression(" @startsWith('a')@ "))
	assert.False(t, IsExpression("@@"))
	assert.False(t, IsExpression("user@example.com"))
	assert.False(t, IsExpression("plain"))
}

func TestParse(t *testing.T) {
	name, params, err := Parse("@startsWith('Hello ')@")
	require.NoError(t, err)
	assert.Equal(t, "startsWith", name)
	assert.Equal(t, []string{"Hello "}, params)

	name, params, err = Parse("@ignore@")
	require.NoError(t, err)
	assert.Equal(t, "ignore", name)
	assert.Empty(t, params)

	_, _, err = Parse("@startsWith('a'@")
	assert.Error(t, err)

	_, _, err = Parse("startsWith('a')")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		value      string
		expression string
		valid      bool
	}{
		{"ignore", "anything", "@ignore@", true},
		{"starts with", "Hello World", "@startsWith('Hello')@", true},
		{"starts with mismatch", "Hello World", "@startsWith('World')@", false},
		{"ends with", "Hello World", "@endsWith('World')@", true},
		{"contains", "Hello World", "@contains('lo W')@", true},
		{"contains ignore case", "Hello World", "@containsIgnoreCase('LO w')@", true},
		{"equals ignore case", "Hello", "@equalsIgnoreCase('hELLO')@", true},
		{"pattern", "ab12", "@matchesPattern('[a-z]+[0-9]+')@", true},
		{"pattern anchored", "xab12", "@matchesPattern('ab[0-9]+')@", false},
		{"number", "3.14", "@isNumber()@", true},
		{"not a number", "pi", "@isNumber()@", false},
		{"uuid", "1b4e28ba-2fa1-11d2-883f-0016d3cca427", "@isUUID()@", true},
		{"empty", " ", "@isEmpty()@", true},
		{"not empty", "x", "@notEmpty()@", true},
		{"greater than", "10", "@greaterThan(5)@", true},
		{"greater than not numeric", "ten", "@greaterThan(5)@", false},
		{"lower than", "4", "@lowerThan(5)@", true},
		{"string length", "Grüße", "@stringLength(5)@", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate("field", tt.value, tt.expression)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrValidationFailed)
			}
		})
	}
}

func TestValidate_ErrorMessage(t *testing.T) {
	err := Validate("Text", "Hello", "@startsWith('Bye')@")

	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "startsWith failed for field 'Text'. Received value is 'Hello', control value is 'Bye'", err.Error())
}

func TestValidate_Misuse(t *testing.T) {
	err := Validate("f", "v", "@unknown()@")
	assert.ErrorIs(t, err, ErrUnknownMatcher)

	err = Validate("f", "v", "@startsWith()@")
	assert.ErrorContains(t, err, "missing control value")
	assert.NotErrorIs(t, err, ErrValidationFailed)

	err = Validate("f", "v", "@greaterThan('x')@")
	assert.ErrorContains(t, err, "is not a number")
}

func TestNames(t *testing.T) {
	names := Names()
	assert.Contains(t, names, "ignore")
	assert.Contains(t, names, "startsWith")
	assert.IsIncreasing(t, names)
}
