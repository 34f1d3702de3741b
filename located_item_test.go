package archipelago

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michael4d45/archipelago/internal/protocol"
)

func TestHydrateLocatedItem_ResolvesWellKnownLocation(t *testing.T) {
	clique := newGame("Clique", map[string]int64{"Sword": 1}, nil, nil)
	alice := Player{Team: 0, Slot: 1, Alias: "Alice", Game: "Clique"}

	li, err := hydrateLocatedItem(protocol.NetworkItem{Item: 1, Location: -2, Flags: protocol.FlagTrap}, alice, alice, clique, clique)
	require.NoError(t, err)
	assert.Equal(t, ServerLocation, li.Location)
	assert.True(t, li.IsTrap())
	assert.False(t, li.IsProgression())
}

func TestHydrateLocatedItem_MissingItemIsProtocolError(t *testing.T) {
	clique := newGame("Clique", nil, nil, nil)
	alice := Player{Team: 0, Slot: 1, Alias: "Alice", Game: "Clique"}

	_, err := hydrateLocatedItem(protocol.NetworkItem{Item: 999}, alice, alice, clique, clique)
	require.Error(t, err)

	var pe *ProtocolError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrMissingItem, pe.Kind)
}
