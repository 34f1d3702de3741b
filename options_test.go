package archipelago

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestItemHandling_Flags(t *testing.T) {
	assert.Equal(t, uint8(0), ItemHandling{None: true}.flags())
	assert.Equal(t, uint8(1), ItemHandling{}.flags())
	assert.Equal(t, uint8(5), DefaultItemHandling.flags())
	assert.Equal(t, uint8(7), ItemHandling{OwnWorld: true, StartingInventory: true}.flags())
}

func TestConnectionOptions_WithDefaultsFillsZeroItemHandling(t *testing.T) {
	o := ConnectionOptions{}.withDefaults()
	assert.Equal(t, DefaultItemHandling, o.ItemHandling)

	custom := ConnectionOptions{ItemHandling: ItemHandling{None: true}}.withDefaults()
	assert.Equal(t, ItemHandling{None: true}, custom.ItemHandling)
}
