package protocol

import "encoding/json"

// RichPrint is the PrintJSON server message: a structured chat/status line
// made of typed text segments that the caller hydrates against session
// state (player/item/location lookups).
type RichPrint struct {
	Type     string          `json:"type"`
	Data     []NetworkText   `json:"data"`
	Receiving *uint32        `json:"receiving,omitempty"`
	Item      *NetworkItem   `json:"item,omitempty"`
	Found     *bool          `json:"found,omitempty"`
	Team      *uint32        `json:"team,omitempty"`
	Slot      *uint32        `json:"slot,omitempty"`
	Tags      []string       `json:"tags,omitempty"`
	Message   *string        `json:"message,omitempty"`
	Countdown *uint64        `json:"countdown,omitempty"`
}

// NetworkTextKind discriminates the variants of NetworkText.
type NetworkTextKind string

const (
	TextPlayerID    NetworkTextKind = "player_id"
	TextPlayerName  NetworkTextKind = "player_name"
	TextItemID      NetworkTextKind = "item_id"
	TextLocationID  NetworkTextKind = "location_id"
	TextEntranceName NetworkTextKind = "entrance_name"
	TextColorKind   NetworkTextKind = "color"
	TextPlain       NetworkTextKind = "text"
)

// NetworkText is a single segment of a RichPrint's Data, still in wire form
// (not yet hydrated with Player/Item/Location lookups).
type NetworkText struct {
	Type   NetworkTextKind  `json:"type"`
	Text   string           `json:"text"`
	Player *uint32          `json:"player,omitempty"`
	Flags  *NetworkItemFlags `json:"flags,omitempty"`
	Color  string           `json:"color,omitempty"`
}

// UnmarshalJSON defaults an untagged segment (no "type" field, as the server
// sends for plain text) to TextPlain.
func (t *NetworkText) UnmarshalJSON(data []byte) error {
	type alias NetworkText
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	if a.Type == "" {
		a.Type = TextPlain
	}
	*t = NetworkText(a)
	return nil
}
