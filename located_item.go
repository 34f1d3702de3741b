package archipelago

import (
	"fmt"

	"github.com/michael4d45/archipelago/internal/protocol"
)

// LocatedItem is an item associated with a particular location in a
// particular player's world.
type LocatedItem struct {
	Item     Item
	Location Location
	Sender   Player
	Receiver Player
	flags    protocol.NetworkItemFlags
}

// IsProgression reports whether this item can unblock logical advancement.
func (i LocatedItem) IsProgression() bool { return i.flags.Has(protocol.FlagProgression) }

// IsUseful reports whether this item is especially useful.
func (i LocatedItem) IsUseful() bool { return i.flags.Has(protocol.FlagUseful) }

// IsTrap reports whether this item is a trap.
func (i LocatedItem) IsTrap() bool { return i.flags.Has(protocol.FlagTrap) }

func (i LocatedItem) String() string {
	return fmt.Sprintf("item %d (%s) at location %d (%s) from %s for %s",
		i.Item.ID, i.Item.Name, i.Location.ID, i.Location.Name, i.Sender.Alias, i.Receiver.Alias)
}

// hydrateLocatedItem resolves a wire-level NetworkItem into a LocatedItem,
// looking up the item in receiverGame and the location in senderGame unless
// it's one of the well-known universal locations.
func hydrateLocatedItem(n protocol.NetworkItem, sender, receiver Player, senderGame, receiverGame Game) (LocatedItem, error) {
	item, ok := receiverGame.Item(n.Item)
	if !ok {
		return LocatedItem{}, &ProtocolError{Kind: ErrMissingItem, ItemID: n.Item, Game: receiverGame.Name}
	}

	loc, ok := wellKnownLocation(n.Location)
	if !ok {
		loc, ok = senderGame.Location(n.Location)
		if !ok {
			return LocatedItem{}, &ProtocolError{Kind: ErrMissingLocation, LocID: n.Location, Game: senderGame.Name}
		}
	}

	return LocatedItem{
		Item: item, Location: loc, Sender: sender, Receiver: receiver, flags: n.Flags,
	}, nil
}
