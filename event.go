package archipelago

import (
	"encoding/json"

	"github.com/michael4d45/archipelago/internal/protocol"
)

// EventKind discriminates the variants of Event.
type EventKind int

const (
	_ EventKind = iota
	EventConnected
	EventUpdated
	EventPrint
	EventReceivedItems
	EventError
	EventBounce
	EventDeathLink
	EventKeyChanged
)

// Event is a single occurrence reported by Connection.Update. Only the
// fields relevant to Kind are populated.
type Event struct {
	Kind EventKind

	Updated       []UpdatedField
	Print         PrintMessage
	ReceivedItems ReceivedItemsEvent
	Err           Error
	Bounce        BounceEvent
	DeathLink     DeathLinkEvent
	KeyChanged    KeyChangedEvent
}

// PrintMessage is a chat/status line, either plain text or a hydrated
// sequence of rich segments.
type PrintMessage struct {
	Text     string
	Segments []PrintSegment
}

// PrintSegmentKind discriminates a hydrated rich-print segment.
type PrintSegmentKind int

const (
	_ PrintSegmentKind = iota
	SegmentPlain
	SegmentPlayer
	SegmentItem
	SegmentLocation
	SegmentEntranceName
	SegmentColor
)

// PrintSegment is one hydrated component of a PrintJSON message.
type PrintSegment struct {
	Kind     PrintSegmentKind
	Text     string
	Player   Player
	Item     LocatedItem
	Location Location
	Color    string
}

// ReceivedItemsEvent carries a batch of items the server sent to this slot.
type ReceivedItemsEvent struct {
	Index int64
	Items []ReceivedItem
}

// BounceEvent is a peer-to-peer Bounced message that isn't a death link.
type BounceEvent struct {
	Games []string
	Slots []uint32
	Tags  []string
	Data  json.RawMessage
}

// DeathLinkEvent is a Bounced message tagged "DeathLink".
type DeathLinkEvent struct {
	Games  []string
	Slots  []uint32
	Tags   []string
	Time   float64
	Source string
	Cause  *string
}

// KeyChangedEvent reports that a data-storage key this client watches (or
// just Set) changed value.
type KeyChangedEvent struct {
	Key      string
	OldValue json.RawMessage
	NewValue json.RawMessage
	Player   Player
}

// UpdatedFieldKind discriminates the variants of UpdatedField.
type UpdatedFieldKind int

const (
	_ UpdatedFieldKind = iota
	UpdatedServerTags
	UpdatedPermissions
	UpdatedHintEconomy
	UpdatedHintPoints
	UpdatedPlayers
	UpdatedCheckedLocations
)

// UpdatedField is one field that changed as a result of a RoomUpdate. It
// carries the *previous* value(s), since the new ones are already reflected
// in the session.
type UpdatedField struct {
	Kind UpdatedFieldKind

	PreviousServerTags []string
	PreviousPermissions protocol.PermissionMap

	PreviousPointsPerHint     uint64
	PreviousHintPointsPerCheck uint64

	PreviousHintPoints uint64

	ReplacedPlayers []Player

	NewlyCheckedLocations []Location
}
