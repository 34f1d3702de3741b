package archipelago

import "github.com/michael4d45/archipelago/internal/protocol"

// ItemHandling controls which items the server sends to this client.
type ItemHandling struct {
	// None disables receiving items entirely, overriding the other fields.
	None bool

	// OwnWorld also sends items found in the local world. Implies OtherWorlds.
	OwnWorld bool

	// StartingInventory also sends the player's starting inventory.
	// Implies OtherWorlds.
	StartingInventory bool
}

// DefaultItemHandling receives items from other worlds and the player's
// starting inventory, but not items found in their own world — the same
// default the upstream client uses.
var DefaultItemHandling = ItemHandling{StartingInventory: true}

func (h ItemHandling) flags() uint8 {
	if h.None {
		return 0
	}
	flags := uint8(protocol.ItemsHandlingOtherWorlds)
	if h.OwnWorld {
		flags |= uint8(protocol.ItemsHandlingOwnWorld)
	}
	if h.StartingInventory {
		flags |= uint8(protocol.ItemsHandlingStartingInventory)
	}
	return flags
}

// Reserved client tags with special meaning to the server or this library.
const (
	TagDeathLink = "DeathLink"
	TagHintGame  = "HintGame"
	TagTracker   = "Tracker"
	TagTextOnly  = "TextOnly"
)

// ConnectionOptions configures a Connection beyond the required url/game/name.
type ConnectionOptions struct {
	// Password is sent with Connect if the room requires one.
	Password string

	// ItemHandling controls which items this client receives. Connect
	// replaces the zero value with DefaultItemHandling, so ItemHandling{}
	// (other worlds only) cannot be requested through Connect.
	ItemHandling ItemHandling

	// Tags identify details of this client to the server and other
	// clients (e.g. TagDeathLink, TagTracker).
	Tags []string

	// Cache stores downloaded datapackages between sessions. If nil, a
	// platform-default Cache is used.
	Cache *Cache

	// SlotData requests the slot's generation-time data in Connected.
	// Connect sends it as given: the zero value (false) does not request
	// slot data, and withDefaults does not change it.
	SlotData bool
}

// withDefaults fills in zero-value fields with this library's defaults.
func (o ConnectionOptions) withDefaults() ConnectionOptions {
	if o.ItemHandling == (ItemHandling{}) {
		o.ItemHandling = DefaultItemHandling
	}
	return o
}

// BounceOptions scopes a Bounce broadcast to a subset of games, slots, or
// client tags. A nil slice means "no restriction" for that dimension.
type BounceOptions struct {
	Games []string
	Slots []uint32
	Tags  []string
}

// DeathLinkOptions scopes and overrides the fields of a death-link Bounce.
// Zero values fall back to the current time, the connected player's alias,
// and no cause, respectively.
type DeathLinkOptions struct {
	Games  []string
	Slots  []uint32
	Tags   []string
	Time   float64
	Source string
	Cause  string
}

// HintStatus mirrors protocol.HintStatus for callers who don't want to
// import the internal package directly.
type HintStatus = protocol.HintStatus

const (
	HintFound       = protocol.HintFound
	HintUnspecified = protocol.HintUnspecified
	HintNoPriority  = protocol.HintNoPriority
	HintAvoid       = protocol.HintAvoid
	HintPriority    = protocol.HintPriority
)

// ClientStatus mirrors protocol.ClientStatus for callers who don't want to
// import the internal package directly.
type ClientStatus = protocol.ClientStatus

const (
	ClientUnknown   = protocol.ClientUnknown
	ClientConnected = protocol.ClientConnected
	ClientReady     = protocol.ClientReady
	ClientPlaying   = protocol.ClientPlaying
	ClientGoal      = protocol.ClientGoal
)

// CreateHintsOptions configures UpdateHint's target slot and initial status
// when creating a hint that doesn't exist yet.
type CreateHintsOptions struct {
	// Slot is the slot whose world contains the hinted locations. Zero
	// means "the current player's slot".
	Slot uint32

	// Status is the hint's initial priority.
	Status HintStatus
}
