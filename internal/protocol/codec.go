package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ServerMessageKind is the discriminator of a decoded server->client message.
type ServerMessageKind string

const (
	KindRoomInfo          ServerMessageKind = "RoomInfo"
	KindConnectionRefused ServerMessageKind = "ConnectionRefused"
	KindConnected         ServerMessageKind = "Connected"
	KindReceivedItems     ServerMessageKind = "ReceivedItems"
	KindLocationInfo      ServerMessageKind = "LocationInfo"
	KindRoomUpdate        ServerMessageKind = "RoomUpdate"
	KindPrint             ServerMessageKind = "Print"
	KindPrintJSON         ServerMessageKind = "PrintJSON"
	KindDataPackage       ServerMessageKind = "DataPackage"
	KindBounced           ServerMessageKind = "Bounced"
	KindInvalidPacket     ServerMessageKind = "InvalidPacket"
	KindRetrieved         ServerMessageKind = "Retrieved"
	KindSetReply          ServerMessageKind = "SetReply"
)

// ServerMessage is one decoded element of an inbound frame, already routed
// to its concrete payload type by "cmd".
type ServerMessage struct {
	Kind    ServerMessageKind
	Payload any
}

// UnknownCommandError is returned for a frame element whose "cmd" does not
// match any known server message kind. The caller treats it as recoverable.
type UnknownCommandError struct {
	Cmd string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("protocol: unknown server command %q", e.Cmd)
}

type cmdEnvelope struct {
	Cmd string `json:"cmd"`
}

// DecodeServerMessages parses one inbound WebSocket text frame — a JSON
// array of zero or more tagged objects — into typed ServerMessages.
//
// A malformed or unrecognized element does not abort the whole frame: it is
// skipped and its error joined into the returned error, so the caller still
// receives every message the frame did carry alongside a non-nil error it
// can classify and log.
func DecodeServerMessages(frame []byte) ([]ServerMessage, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(frame, &raw); err != nil {
		return nil, fmt.Errorf("protocol: decode frame: %w", err)
	}

	msgs := make([]ServerMessage, 0, len(raw))
	var errs []error
	for i, item := range raw {
		var env cmdEnvelope
		if err := json.Unmarshal(item, &env); err != nil {
			errs = append(errs, fmt.Errorf("protocol: element %d: %w", i, err))
			continue
		}

		payload, err := decodeServerPayload(ServerMessageKind(env.Cmd), item)
		if err != nil {
			errs = append(errs, fmt.Errorf("protocol: element %d (%s): %w", i, env.Cmd, err))
			continue
		}
		msgs = append(msgs, ServerMessage{Kind: ServerMessageKind(env.Cmd), Payload: payload})
	}

	return msgs, errors.Join(errs...)
}

func decodeServerPayload(kind ServerMessageKind, item json.RawMessage) (any, error) {
	switch kind {
	case KindRoomInfo:
		var v RoomInfo
		err := json.Unmarshal(item, &v)
		return v, err
	case KindConnectionRefused:
		var v ConnectionRefused
		err := json.Unmarshal(item, &v)
		return v, err
	case KindConnected:
		var v Connected
		err := json.Unmarshal(item, &v)
		return v, err
	case KindReceivedItems:
		var v ReceivedItems
		err := json.Unmarshal(item, &v)
		return v, err
	case KindLocationInfo:
		var v LocationInfo
		err := json.Unmarshal(item, &v)
		return v, err
	case KindRoomUpdate:
		var v RoomUpdate
		err := json.Unmarshal(item, &v)
		return v, err
	case KindPrint:
		var v Print
		err := json.Unmarshal(item, &v)
		return v, err
	case KindPrintJSON:
		var v RichPrint
		err := json.Unmarshal(item, &v)
		return v, err
	case KindDataPackage:
		var v DataPackage
		err := json.Unmarshal(item, &v)
		return v, err
	case KindBounced:
		var v Bounced
		err := json.Unmarshal(item, &v)
		return v, err
	case KindInvalidPacket:
		var v InvalidPacket
		err := json.Unmarshal(item, &v)
		return v, err
	case KindRetrieved:
		var v Retrieved
		err := json.Unmarshal(item, &v)
		return v, err
	case KindSetReply:
		var v SetReply
		err := json.Unmarshal(item, &v)
		return v, err
	default:
		return nil, &UnknownCommandError{Cmd: string(kind)}
	}
}

// EncodeClientMessage wraps a single client->server request as the
// one-element JSON array frame the Archipelago wire format requires. msg
// must already carry its own "cmd" tag (every type in this package's
// client-request section does, via its New* constructor).
func EncodeClientMessage(msg any) ([]byte, error) {
	frame := [1]any{msg}
	b, err := json.Marshal(&frame)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode frame: %w", err)
	}
	return b, nil
}
