package archipelago

import (
	"fmt"
	"strings"
)

// Error is implemented by every error type this package returns directly.
// IsFatal reports whether the connection that produced it must move to
// Disconnected; Connection.Update uses it to decide whether to keep reading
// after an error.
type Error interface {
	error
	IsFatal() bool
}

// TransportError wraps a failure from the underlying WebSocket connection
// (dial, read, or write). It is always fatal.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("archipelago: transport: %v", e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }
func (e *TransportError) IsFatal() bool { return true }

// ConnectionRefusedError reports that the server rejected the Connect
// handshake. It is always fatal — the handshake never retries on its own.
type ConnectionRefusedError struct {
	Reasons []string
}

func (e *ConnectionRefusedError) Error() string {
	return fmt.Sprintf("archipelago: connection refused: %s", strings.Join(e.Reasons, ", "))
}
func (e *ConnectionRefusedError) IsFatal() bool { return true }

// ClientDisconnectedError reports that the client is disconnected with no
// more specific error. Connection does not produce it: Connection.Err
// returns nil while no error has been recorded.
type ClientDisconnectedError struct{}

func (e *ClientDisconnectedError) Error() string { return "archipelago: client disconnected" }
func (e *ClientDisconnectedError) IsFatal() bool  { return true }

// ElsewhereError is the final event emitted alongside a fatal error: the
// real error is available from Connection.Err, this is just a marker that
// one occurred and the connection has moved to Disconnected.
type ElsewhereError struct{}

func (e *ElsewhereError) Error() string { return "archipelago: a full error is available elsewhere, see Connection.Err" }
func (e *ElsewhereError) IsFatal() bool  { return true }

// ProtocolErrorKind enumerates the ways the server can violate the client's
// understanding of the Archipelago wire protocol.
type ProtocolErrorKind int

const (
	_ ProtocolErrorKind = iota
	// ErrDeserialize: a server frame element failed to parse as JSON, or
	// didn't match any known message shape.
	ErrDeserialize
	// ErrBinaryMessage: the server sent a binary WebSocket frame.
	ErrBinaryMessage
	// ErrUnexpectedResponse: during the handshake, the server sent a
	// message kind other than the one being awaited.
	ErrUnexpectedResponse
	// ErrEmptyPlayers: Connected.Players was empty.
	ErrEmptyPlayers
	// ErrMissingPlayer: a (team, slot) the server referred to, including
	// this client's own, isn't in Players.
	ErrMissingPlayer
	// ErrMissingSlotInfo: a player's slot is missing from Connected.SlotInfo.
	ErrMissingSlotInfo
	// ErrMissingGameData: the server's DataPackage has no entry for a game
	// this session needs.
	ErrMissingGameData
	// ErrMissingItem: an item ID doesn't appear in its game's data package.
	ErrMissingItem
	// ErrMissingLocation: a location ID doesn't appear in its game's data
	// package.
	ErrMissingLocation
	// ErrResponseWithoutRequest: the server sent a reply (e.g. LocationInfo,
	// Retrieved) that doesn't correlate to any pending request.
	ErrResponseWithoutRequest
)

// ProtocolError reports that the server violated the Archipelago wire
// protocol as this client understands it. IsFatal is always false: once
// Connected, the session stays Connected and the connection keeps
// dispatching subsequent messages. A ProtocolError raised during the
// handshake still ends the Connection in StateDisconnected.
type ProtocolError struct {
	Kind ProtocolErrorKind

	// Context fields; only the ones relevant to Kind are populated.
	Cause    error
	Actual   string
	Expected string
	Team     uint32
	Slot     uint32
	Game     string
	ItemID   int64
	LocID    int64
	Response string
}

func (e *ProtocolError) Unwrap() error { return e.Cause }

func (e *ProtocolError) Error() string {
	switch e.Kind {
	case ErrDeserialize:
		return fmt.Sprintf("archipelago: failed to deserialize server message: %v", e.Cause)
	case ErrBinaryMessage:
		return "archipelago: unexpected binary message"
	case ErrUnexpectedResponse:
		return fmt.Sprintf("archipelago: unexpected response %s, expected %s", e.Actual, e.Expected)
	case ErrEmptyPlayers:
		return "archipelago: Connected message includes no players"
	case ErrMissingPlayer:
		return fmt.Sprintf("archipelago: missing player on slot %d, team %d", e.Slot, e.Team)
	case ErrMissingSlotInfo:
		return fmt.Sprintf("archipelago: slot %d is missing from Connected.SlotInfo", e.Slot)
	case ErrMissingGameData:
		return fmt.Sprintf("archipelago: no data package provided for %s", e.Game)
	case ErrMissingItem:
		return fmt.Sprintf("archipelago: item %d is missing %s's data package", e.ItemID, e.Game)
	case ErrMissingLocation:
		return fmt.Sprintf("archipelago: location %d is missing %s's data package", e.LocID, e.Game)
	case ErrResponseWithoutRequest:
		return fmt.Sprintf("archipelago: server sent %s response that we didn't request", e.Response)
	default:
		return "archipelago: protocol error"
	}
}

func (e *ProtocolError) IsFatal() bool { return false }

// InvalidPacketError is sent by the server when it rejects a message this
// client sent. It is never fatal.
type InvalidPacketError struct {
	Type        string
	OriginalCmd string
	Text        string
}

func (e *InvalidPacketError) Error() string {
	return fmt.Sprintf("archipelago: server rejected %s packet (%s): %s", e.OriginalCmd, e.Type, e.Text)
}
func (e *InvalidPacketError) IsFatal() bool { return false }

// ArgumentErrorKind enumerates the ways a caller can misuse a Client method.
type ArgumentErrorKind int

const (
	_ ArgumentErrorKind = iota
	// ErrMissingGame: game was empty and ConnectionOptions.Tags doesn't
	// contain "HintGame", "Tracker", or "TextOnly".
	ErrMissingGame
	// ErrInvalidLocationArg: the given location ID has no entry in the
	// named game's data package.
	ErrInvalidLocationArg
	// ErrInvalidSlotArg: the given slot number doesn't exist in this
	// multiworld.
	ErrInvalidSlotArg
)

// ArgumentError reports that the caller violated a method's contract. Client
// methods return it synchronously rather than surfacing it through
// Connection.Update, leaving the session exactly as it was, and its IsFatal
// is always false. Connect is the exception: it records ErrMissingGame as
// the Connection's Err and leaves the Connection in StateDisconnected.
type ArgumentError struct {
	Kind     ArgumentErrorKind
	Tags     []string
	Location int64
	Game     string
	Slot     uint32
}

func (e *ArgumentError) Error() string {
	switch e.Kind {
	case ErrMissingGame:
		return fmt.Sprintf("archipelago: game is empty but tags %v don't contain \"HintGame\", \"Tracker\", or \"TextOnly\"", e.Tags)
	case ErrInvalidLocationArg:
		return fmt.Sprintf("archipelago: %s has no location with ID %d", e.Game, e.Location)
	case ErrInvalidSlotArg:
		return fmt.Sprintf("archipelago: this multiworld doesn't have a slot %d", e.Slot)
	default:
		return "archipelago: invalid argument"
	}
}
func (e *ArgumentError) IsFatal() bool { return false }

// connectionErrorFromCode maps one of the well-known ConnectionRefused
// error codes to a human-readable reason, falling back to the raw code for
// anything the server-side protocol adds in the future.
func connectionErrorFromCode(code string) string {
	switch code {
	case "InvalidSlot":
		return "the name provided doesn't match any names on the server"
	case "InvalidGame":
		return "this player isn't playing the expected game"
	case "InvalidVersion":
		return "this client isn't compatible with the server version"
	case "InvalidPassword":
		return "invalid or missing password"
	case "InvalidItemsHandling":
		return "invalid ItemsHandling flag"
	default:
		return code
	}
}
