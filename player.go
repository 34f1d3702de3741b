package archipelago

import "github.com/michael4d45/archipelago/internal/protocol"

// Player is a single slot in the multiworld.
type Player struct {
	Team  uint32
	Slot  uint32
	Alias string
	Name  string
	Game  string
}

func (p Player) String() string { return p.Alias }

func playerFromNetwork(n protocol.NetworkPlayer, game string) Player {
	return Player{Team: n.Team, Slot: n.Slot, Alias: n.Alias, Name: n.Name, Game: game}
}

// Group is a set of players sharing items (most commonly an item-link
// group). It's reconstructed from Connected.SlotInfo entries tagged
// SlotTypeGroup.
type Group struct {
	Name    string
	Game    string
	Members []Player
}
