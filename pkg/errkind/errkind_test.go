package errkind

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWrapsAndUnwraps(t *testing.T) {
	cause := errors.New("boom")
	err := New(Transient, cause)
	require.Error(t, err)
	assert.True(t, Is(err, Transient))
	assert.False(t, Is(err, Fatal))
	assert.ErrorIs(t, err, cause)
}

func TestNewNilIsNil(t *testing.T) {
	assert.NoError(t, New(Transient, nil))
}

func TestOf(t *testing.T) {
	err := Newf(Capability, "child %d crashed", 7)
	kind, ok := Of(err)
	require.True(t, ok)
	assert.Equal(t, Capability, kind)

	_, ok = Of(errors.New("plain"))
	assert.False(t, ok)
}
