package archipelago

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersion_StringAndNetworkRoundTrip(t *testing.T) {
	v := Version{Major: 1, Minor: 2, Build: 3}
	assert.Equal(t, "1.2.3", v.String())

	nv := v.toNetwork()
	assert.Equal(t, "Version", nv.Class)
	assert.Equal(t, v, versionFromNetwork(nv))
}

func TestGame_ItemAndLocationLookup(t *testing.T) {
	g := newGame("Clique", map[string]int64{"Sword": 1}, map[string]int64{"Start": 100}, nil)

	item, ok := g.ItemByName("Sword")
	assert.True(t, ok)
	assert.Equal(t, int64(1), item.ID)

	loc, ok := g.Location(100)
	assert.True(t, ok)
	assert.Equal(t, "Start", loc.Name)

	_, ok = g.Location(999)
	assert.False(t, ok)
}

func TestWellKnownLocation(t *testing.T) {
	loc, ok := wellKnownLocation(-1)
	assert.True(t, ok)
	assert.Equal(t, CheatConsole, loc)

	_, ok = wellKnownLocation(5)
	assert.False(t, ok)
}
