package peggml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorChannel(t *testing.T) {
	t.Parallel()

	ec := NewErrorChannel()
	require.False(t, ec.Occurred(), "expected clear error channel")

	ec.SetString("boom")
	require.True(t, ec.Occurred())
	assert.Equal(t, "boom", ec.Message())

	ec.Clear()
	assert.False(t, ec.Occurred())
	assert.Empty(t, ec.Message())

	ec.Set(newError(KindMisuse, "bad %s", "handle"))
	assert.Equal(t, "bad handle", ec.Message())

	ec.Clear()
	ec.Set(nil)
	assert.False(t, ec.Occurred(), "Set(nil) must be a no-op")
}

func TestErrorKindString(t *testing.T) {
	t.Parallel()

	cases := map[Kind]string{
		KindMisuse:         "misuse",
		KindGrammarCompile: "grammar_compile",
		KindParseFailure:   "parse_failure",
		KindOutOfRange:     "out_of_range",
		KindResource:       "resource",
		KindTokenParse:     "token_parse",
	}

	for kind, want := range cases {
		assert.Equal(t, want, kind.String(), "Kind(%d)", kind)
	}
}

func TestNewErrorFormatting(t *testing.T) {
	t.Parallel()

	err := newError(KindOutOfRange, "index %d out of bounds for len %d", 5, 3)

	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, KindOutOfRange, pe.Kind)
	assert.Equal(t, "index 5 out of bounds for len 3", pe.Error())
}
