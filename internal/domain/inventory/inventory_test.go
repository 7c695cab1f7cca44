package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeduct(t *testing.T) {
	left, err := Deduct(3, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, left)

	left, err = Deduct(3, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, left)

	left, err = Deduct(2, 3)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 2, left)

	_, err = Deduct(2, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestRestore(t *testing.T) {
	got, err := Restore(0, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, got)

	_, err = Restore(1, -1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}
