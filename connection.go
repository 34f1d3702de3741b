package archipelago

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/michael4d45/archipelago/internal/protocol"
	"github.com/michael4d45/archipelago/internal/transport"
)

// ConnectionState identifies which phase of the connection lifecycle a
// Connection is in. Transitions are one-way: Connecting -> Connected ->
// Disconnected, or Connecting -> Disconnected directly on handshake
// failure.
type ConnectionState int

const (
	StateConnecting ConnectionState = iota
	StateConnected
	StateDisconnected
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	case StateDisconnected:
		return "Disconnected"
	default:
		return "Unknown"
	}
}

// handshakeStep tracks progress through the multi-message handshake that
// runs before a Connection becomes Connected.
type handshakeStep int

const (
	stepAwaitRoomInfo handshakeStep = iota
	stepAwaitDataPackage
	stepAwaitConnected
)

// Connection drives the non-blocking lifecycle of a single Archipelago
// session: dialing the transport, running the handshake, and then handing
// off to a Client for the life of the session. Update must be polled
// regularly (e.g. once per frame); it never blocks.
type Connection struct {
	state ConnectionState
	err   error

	game string
	name string
	opts ConnectionOptions
	uuid string

	logger *log.Logger
	cache  *Cache

	transport   *transport.Transport
	step        handshakeStep
	roomInfo    protocol.RoomInfo
	cachedGames map[string]protocol.GameData
	dataPackage protocol.DataPackageObject

	client *Client
}

// Connect dials addr and begins the handshake. The returned Connection
// starts in StateConnecting, or already in StateDisconnected (with Err set)
// if game is empty without a HintGame/Tracker/TextOnly tag or dialing
// fails; call Update until it reports StateConnected or StateDisconnected.
func Connect(ctx context.Context, addr, game, name string, opts ConnectionOptions, tlsConfig *tls.Config, logger *log.Logger) *Connection {
	if logger == nil {
		logger = log.Default()
	}
	opts = opts.withDefaults()
	cache := opts.Cache
	if cache == nil {
		cache = SharedCache(logger)
	}

	c := &Connection{
		state:  StateConnecting,
		game:   game,
		name:   name,
		opts:   opts,
		uuid:   uuid.NewString(),
		logger: logger,
		cache:  cache,
	}

	if game == "" && !hasAny(opts.Tags, TagHintGame, TagTracker, TagTextOnly) {
		c.fail(&ArgumentError{Kind: ErrMissingGame, Tags: opts.Tags})
		return c
	}

	t, err := transport.Dial(ctx, addr, tlsConfig, logger)
	if err != nil {
		c.fail(&TransportError{Err: err})
		return c
	}
	c.transport = t
	c.step = stepAwaitRoomInfo
	return c
}

// State reports the current lifecycle phase.
func (c *Connection) State() ConnectionState { return c.state }

// IsConnected reports whether the session has completed its handshake and
// a Client is available.
func (c *Connection) IsConnected() bool { return c.state == StateConnected }

// IsDisconnected reports whether the connection has permanently ended,
// successfully or not.
func (c *Connection) IsDisconnected() bool { return c.state == StateDisconnected }

// Err returns the error that caused a Disconnected state, if any.
func (c *Connection) Err() error { return c.err }

// Client returns the session's Client and true if the connection is
// Connected.
func (c *Connection) Client() (*Client, bool) {
	if c.state != StateConnected {
		return nil, false
	}
	return c.client, true
}

func (c *Connection) fail(err Error) {
	c.state = StateDisconnected
	c.err = err
	if c.transport != nil {
		_ = c.transport.Close()
	}
}

// Update advances the handshake or, once Connected, drains the Client's
// inbound queue and returns its Events. It never blocks.
func (c *Connection) Update() []Event {
	switch c.state {
	case StateConnecting:
		c.pumpHandshake()
		if c.state == StateConnected {
			return []Event{{Kind: EventConnected}}
		}
		return nil
	case StateConnected:
		events := c.client.Update()
		for _, e := range events {
			if e.Kind == EventError && e.Err != nil && e.Err.IsFatal() {
				c.fail(e.Err)
				return append(events, Event{Kind: EventError, Err: &ElsewhereError{}})
			}
		}
		return events
	default:
		return nil
	}
}

func (c *Connection) pumpHandshake() {
	for {
		frame, err, ok := c.transport.TryRecv()
		if !ok {
			return
		}
		if err != nil {
			c.fail(&TransportError{Err: err})
			return
		}

		msgs, derr := protocol.DecodeServerMessages(frame)
		if derr != nil {
			c.fail(&ProtocolError{Kind: ErrDeserialize, Cause: derr})
			return
		}

		for _, m := range msgs {
			if c.handleHandshakeMessage(m) {
				return
			}
		}
	}
}

// handleHandshakeMessage processes one message of the handshake. It returns
// true if the connection has left StateConnecting (either Connected or
// failed), signaling the caller to stop draining this frame.
func (c *Connection) handleHandshakeMessage(m protocol.ServerMessage) bool {
	switch c.step {
	case stepAwaitRoomInfo:
		ri, ok := m.Payload.(protocol.RoomInfo)
		if !ok {
			c.fail(&ProtocolError{Kind: ErrUnexpectedResponse, Actual: string(m.Kind), Expected: string(protocol.KindRoomInfo)})
			return true
		}
		c.roomInfo = ri
		checksums := make(map[string]string, len(ri.Games))
		for _, g := range ri.Games {
			if cs, ok := ri.DatapackageChecksums[g]; ok {
				checksums[g] = cs
			}
		}
		cached := c.cache.Load(checksums)
		missing := make([]string, 0, len(checksums))
		for game, cs := range checksums {
			if gd, ok := cached[game]; !ok || gd.Checksum != cs {
				missing = append(missing, game)
			}
		}
		if err := c.send(protocol.NewGetDataPackage(missing)); err != nil {
			c.fail(err.(Error))
			return true
		}
		c.cachedGames = cached
		c.step = stepAwaitDataPackage
		return false

	case stepAwaitDataPackage:
		dp, ok := m.Payload.(protocol.DataPackage)
		if !ok {
			c.fail(&ProtocolError{Kind: ErrUnexpectedResponse, Actual: string(m.Kind), Expected: string(protocol.KindDataPackage)})
			return true
		}
		games := make(map[string]protocol.GameData, len(c.cachedGames)+len(dp.Data.Games))
		for game, gd := range c.cachedGames {
			games[game] = gd
		}
		for game, gd := range dp.Data.Games {
			games[game] = gd
		}
		c.cache.Store(dp.Data.Games)
		c.dataPackage = protocol.DataPackageObject{Games: games}

		req := protocol.NewConnect(optionalString(c.opts.Password), c.game, c.name, c.opts.ItemHandling.flags(), c.opts.Tags, c.opts.SlotData)
		req.UUID = c.uuid
		if err := c.send(req); err != nil {
			c.fail(err.(Error))
			return true
		}
		c.step = stepAwaitConnected
		return false

	case stepAwaitConnected:
		switch payload := m.Payload.(type) {
		case protocol.Connected:
			sess, err := newSession(c.game, c.roomInfo, c.dataPackage, payload)
			if err != nil {
				c.fail(err.(Error))
				return true
			}
			c.client = &Client{session: sess, transport: c.transport, cache: c.cache, logger: c.logger}
			c.state = StateConnected
			return true
		case protocol.ConnectionRefused:
			reasons := make([]string, 0, len(payload.Errors))
			for _, code := range payload.Errors {
				reasons = append(reasons, connectionErrorFromCode(code))
			}
			c.fail(&ConnectionRefusedError{Reasons: reasons})
			return true
		default:
			c.fail(&ProtocolError{
				Kind: ErrUnexpectedResponse, Actual: string(m.Kind),
				Expected: string(protocol.KindConnected) + " or " + string(protocol.KindConnectionRefused),
			})
			return true
		}

	default:
		return false
	}
}

func (c *Connection) send(msg any) error {
	b, err := protocol.EncodeClientMessage(msg)
	if err != nil {
		return &TransportError{Err: fmt.Errorf("encode handshake message: %w", err)}
	}
	if err := c.transport.Send(context.Background(), b); err != nil {
		return &TransportError{Err: err}
	}
	return nil
}

func hasAny(tags []string, want ...string) bool {
	for _, t := range tags {
		for _, w := range want {
			if t == w {
				return true
			}
		}
	}
	return false
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
