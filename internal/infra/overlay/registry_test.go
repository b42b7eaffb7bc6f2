// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndFetch(t *testing.T) {
	r := NewRegistry(1)

	_, ok := r.FetchOverlay(7)
	assert.False(t, ok)

	v, err := r.CreateOverlay(7)
	require.NoError(t, err)
	require.NoError(t, r.RegisterOverlay(7, v))

	got, ok := r.FetchOverlay(7)
	require.True(t, ok)
	assert.Equal(t, int64(7), got.ID())

	other, _ := r.CreateOverlay(8)
	require.Error(t, r.RegisterOverlay(8, other), "limit reached")
	require.NoError(t, r.RegisterOverlay(7, v), "re-registering an existing id is allowed")

	r.UnregisterOverlay(7)
	assert.Zero(t, r.Len())
	r.UnregisterOverlay(7)

	// the freed slot is usable again
	require.NoError(t, r.RegisterOverlay(8, other))
	assert.Equal(t, 1, r.Len())
}
