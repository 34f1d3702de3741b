package protocol

import "encoding/json"

// DeathLinkTag is the well-known tag that marks a Bounce/Bounced as a death
// link event.
const DeathLinkTag = "DeathLink"

// Bounce is a client -> server peer-to-peer message, optionally scoped to a
// subset of games/slots/tags.
type Bounce struct {
	Cmd   string          `json:"cmd"`
	Games []string        `json:"games,omitempty"`
	Slots []uint32        `json:"slots,omitempty"`
	Tags  []string        `json:"tags,omitempty"`
	Data  json.RawMessage `json:"data"`
}

// NewBounce builds a Bounce request with its cmd tag set.
func NewBounce(games, tags []string, slots []uint32, data json.RawMessage) Bounce {
	return Bounce{Cmd: "Bounce", Games: games, Slots: slots, Tags: tags, Data: data}
}

// Bounced is the server -> client relay of a Bounce.
type Bounced struct {
	Games []string        `json:"games"`
	Slots []uint32        `json:"slots"`
	Tags  []string        `json:"tags"`
	Data  json.RawMessage `json:"data"`
}

// HasTag reports whether tags contains the given tag.
func HasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// DeathLink is the payload of a death-link Bounce/Bounced.
type DeathLink struct {
	Time   float64 `json:"time"`
	Cause  *string `json:"cause,omitempty"`
	Source string  `json:"source"`
}
