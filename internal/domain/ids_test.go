package domain

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIDIsStrictlyIncreasing(t *testing.T) {
	prev := int64(0)
	for i := 0; i < 1000; i++ {
		id, err := strconv.ParseInt(NewID(), 10, 64)
		require.NoError(t, err)
		require.Greater(t, id, prev)
		prev = id
	}
}

func TestIsPendingLocal(t *testing.T) {
	cases := map[string]bool{
		"":              true,
		"new":           true,
		"temp-123":      true,
		NewPendingID():  true,
		"1700000000000": false,
		"65f1c0ffee":    false,
		"temporary":     false,
	}
	for id, want := range cases {
		assert.Equal(t, want, IsPendingLocal(id), "id %q", id)
	}
	assert.True(t, strings.HasPrefix(NewPendingID(), PendingPrefix))
	assert.False(t, IsPendingLocal(NewID()))
}
