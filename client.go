package archipelago

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/michael4d45/archipelago/internal/protocol"
	"github.com/michael4d45/archipelago/internal/transport"
)

// Data-storage operation names for Client.Change, per the Archipelago
// DataStorageOperation vocabulary.
const (
	OpReplace     = "replace"
	OpDefault     = "default"
	OpAdd         = "add"
	OpAppend      = "append"
	OpMul         = "mul"
	OpPow         = "pow"
	OpMod         = "mod"
	OpFloor       = "floor"
	OpCeil        = "ceil"
	OpMax         = "max"
	OpMin         = "min"
	OpAnd         = "and"
	OpOr          = "or"
	OpXor         = "xor"
	OpLeftShift   = "left_shift"
	OpRightShift  = "right_shift"
	OpRemove      = "remove"
	OpRemoveIndex = "remove_index"
	OpRemoveKey   = "remove_key"
	OpUnion       = "union"
	OpUpdate      = "update"
)

// DataOp builds a single step of a Change operation chain.
func DataOp(op string, value json.RawMessage) protocol.DataStorageOperation {
	return protocol.DataStorageOperation{Operation: op, Value: value}
}

// ScoutPolicy controls whether (and how) LocationScouts also creates hints
// for the scouted locations.
type ScoutPolicy uint8

const (
	ScoutNo ScoutPolicy = iota
	ScoutAll
	ScoutNew
)

// ScoutCompletion is fulfilled by the LocationInfo reply to a
// ScoutLocations call. It's a one-shot value: once TryRecv returns ok, it
// will never return another result.
type ScoutCompletion struct {
	ch chan scoutResult
}

type scoutResult struct {
	items []LocatedItem
	err   error
}

func newScoutCompletion() *ScoutCompletion { return &ScoutCompletion{ch: make(chan scoutResult, 1)} }

func (c *ScoutCompletion) resolve(items []LocatedItem, err error) {
	c.ch <- scoutResult{items: items, err: err}
}

// TryRecv returns the scouted items without blocking. ok is false until the
// server's LocationInfo reply has arrived.
func (c *ScoutCompletion) TryRecv() (items []LocatedItem, err error, ok bool) {
	select {
	case r := <-c.ch:
		return r.items, r.err, true
	default:
		return nil, nil, false
	}
}

// GetCompletion is fulfilled by the Retrieved reply to a Get call.
type GetCompletion struct {
	ch chan getResult
}

type getResult struct {
	keys map[string]json.RawMessage
	err  error
}

func newGetCompletion() *GetCompletion { return &GetCompletion{ch: make(chan getResult, 1)} }

func (c *GetCompletion) resolve(keys map[string]json.RawMessage, err error) {
	c.ch <- getResult{keys: keys, err: err}
}

// TryRecv returns the retrieved keys without blocking. ok is false until the
// server's Retrieved reply has arrived.
func (c *GetCompletion) TryRecv() (keys map[string]json.RawMessage, err error, ok bool) {
	select {
	case r := <-c.ch:
		return r.keys, r.err, true
	default:
		return nil, nil, false
	}
}

// Client is a connected Archipelago session: the normalized session model
// plus the request API of §4.D.2. It's only reachable through a Connected
// Connection.
type Client struct {
	session   *session
	transport *transport.Transport
	cache     *Cache
	logger    *log.Logger

	scoutQueue []*ScoutCompletion
	getQueue   []*GetCompletion
}

func (c *Client) send(msg any) error {
	b, err := protocol.EncodeClientMessage(msg)
	if err != nil {
		return &TransportError{Err: err}
	}
	if err := c.transport.Send(context.Background(), b); err != nil {
		return &TransportError{Err: err}
	}
	return nil
}

// Update drains every message the transport has buffered since the last
// call, dispatching each to its session-model effect and collecting the
// Events it produces. It never blocks.
func (c *Client) Update() []Event {
	var events []Event
	for {
		frame, err, ok := c.transport.TryRecv()
		if !ok {
			return events
		}
		if err != nil {
			events = append(events, c.classifyTransportErr(err))
			continue
		}

		msgs, derr := protocol.DecodeServerMessages(frame)
		for _, m := range msgs {
			events = append(events, c.dispatch(m)...)
		}
		if derr != nil {
			events = append(events, Event{Kind: EventError, Err: &ProtocolError{Kind: ErrDeserialize, Cause: derr}})
		}
	}
}

func (c *Client) classifyTransportErr(err error) Event {
	if errors.Is(err, transport.ErrBinaryMessage) {
		return Event{Kind: EventError, Err: &ProtocolError{Kind: ErrBinaryMessage, Cause: err}}
	}
	return Event{Kind: EventError, Err: &TransportError{Err: err}}
}

func (c *Client) dispatch(m protocol.ServerMessage) []Event {
	switch m.Kind {
	case protocol.KindPrintJSON:
		rp, _ := m.Payload.(protocol.RichPrint)
		pm, err := hydrateRichPrint(c.session, rp)
		if err != nil {
			return []Event{{Kind: EventError, Err: err.(Error)}}
		}
		return []Event{{Kind: EventPrint, Print: pm}}

	case protocol.KindPrint:
		p, _ := m.Payload.(protocol.Print)
		return []Event{{Kind: EventPrint, Print: PrintMessage{Text: p.Text}}}

	case protocol.KindRoomUpdate:
		ru, _ := m.Payload.(protocol.RoomUpdate)
		updated, err := c.applyRoomUpdate(ru)
		if err != nil {
			return []Event{{Kind: EventError, Err: err.(Error)}}
		}
		if len(updated) == 0 {
			return nil
		}
		return []Event{{Kind: EventUpdated, Updated: updated}}

	case protocol.KindReceivedItems:
		ri, _ := m.Payload.(protocol.ReceivedItems)
		items, err := c.hydrateReceivedItems(ri)
		if err != nil {
			return []Event{{Kind: EventError, Err: err.(Error)}}
		}
		return []Event{{Kind: EventReceivedItems, ReceivedItems: ReceivedItemsEvent{Index: ri.Index, Items: items}}}

	case protocol.KindLocationInfo:
		li, _ := m.Payload.(protocol.LocationInfo)
		return c.fulfillScout(li)

	case protocol.KindBounced:
		b, _ := m.Payload.(protocol.Bounced)
		return []Event{c.handleBounced(b)}

	case protocol.KindInvalidPacket:
		ip, _ := m.Payload.(protocol.InvalidPacket)
		orig := ""
		if ip.OriginalCmd != nil {
			orig = *ip.OriginalCmd
		}
		return []Event{{Kind: EventError, Err: &InvalidPacketError{Type: ip.Type, OriginalCmd: orig, Text: ip.Text}}}

	case protocol.KindRetrieved:
		r, _ := m.Payload.(protocol.Retrieved)
		return c.fulfillGet(r)

	case protocol.KindSetReply:
		sr, _ := m.Payload.(protocol.SetReply)
		return []Event{c.handleSetReply(sr)}

	default:
		// RoomInfo/Connected/ConnectionRefused/DataPackage only ever occur
		// during the handshake; receiving one afterwards is surprising but
		// harmless to ignore.
		return nil
	}
}

// applyRoomUpdate implements §4.D.1: every optional field is validated
// before any mutation, so a RoomUpdate either fully applies or leaves the
// session untouched.
func (c *Client) applyRoomUpdate(ru protocol.RoomUpdate) ([]UpdatedField, error) {
	s := c.session

	var newPlayers []Player
	if ru.Players != nil {
		newPlayers = make([]Player, len(s.players))
		copy(newPlayers, s.players)
		for _, np := range *ru.Players {
			idx := -1
			for i, p := range s.players {
				if p.Team == np.Team && p.Slot == np.Slot {
					idx = i
					break
				}
			}
			if idx < 0 {
				return nil, &ProtocolError{Kind: ErrMissingPlayer, Team: np.Team, Slot: np.Slot}
			}
			newPlayers[idx] = playerFromNetwork(np, s.players[idx].Game)
		}
	}

	var newlyChecked []Location
	if ru.CheckedLocations != nil {
		for _, id := range *ru.CheckedLocations {
			loc, ok := wellKnownLocation(id)
			if !ok {
				loc, ok = s.thisGame().Location(id)
			}
			if !ok {
				return nil, &ProtocolError{Kind: ErrMissingLocation, LocID: id, Game: s.gameName}
			}
			if !s.localLocationsChecked[id] {
				newlyChecked = append(newlyChecked, loc)
			}
		}
	}

	var updated []UpdatedField

	if ru.Tags != nil {
		prev := tagSlice(s.serverTags)
		s.serverTags = make(map[string]struct{}, len(*ru.Tags))
		for _, t := range *ru.Tags {
			s.serverTags[t] = struct{}{}
		}
		updated = append(updated, UpdatedField{Kind: UpdatedServerTags, PreviousServerTags: prev})
	}

	if ru.Permissions != nil {
		prev := s.permissions
		s.permissions = *ru.Permissions
		updated = append(updated, UpdatedField{Kind: UpdatedPermissions, PreviousPermissions: prev})
	}

	if ru.HintCost != nil || ru.LocationCheckPoints != nil {
		prevPPH := s.pointsPerHint
		prevHPC := s.hintPointsPerCheck
		if ru.LocationCheckPoints != nil {
			s.hintPointsPerCheck = uint64(*ru.LocationCheckPoints)
		}
		if ru.HintCost != nil {
			total := int64(len(s.localLocationsChecked))
			s.pointsPerHint = uint64(total) * uint64(*ru.HintCost) / 100
		}
		updated = append(updated, UpdatedField{
			Kind: UpdatedHintEconomy, PreviousPointsPerHint: prevPPH, PreviousHintPointsPerCheck: prevHPC,
		})
	}

	if ru.HintPoints != nil {
		prev := s.hintPoints
		s.hintPoints = uint64(*ru.HintPoints)
		updated = append(updated, UpdatedField{Kind: UpdatedHintPoints, PreviousHintPoints: prev})
	}

	if newPlayers != nil {
		var replaced []Player
		for i, np := range newPlayers {
			if np != s.players[i] {
				replaced = append(replaced, s.players[i])
			}
		}
		s.players = newPlayers
		if len(replaced) > 0 {
			updated = append(updated, UpdatedField{Kind: UpdatedPlayers, ReplacedPlayers: replaced})
		}
	}

	if len(newlyChecked) > 0 {
		for _, loc := range newlyChecked {
			s.localLocationsChecked[loc.ID] = true
		}
		updated = append(updated, UpdatedField{Kind: UpdatedCheckedLocations, NewlyCheckedLocations: newlyChecked})
	}

	return updated, nil
}

func (c *Client) hydrateReceivedItems(ri protocol.ReceivedItems) ([]ReceivedItem, error) {
	receiver := c.session.thisPlayer()
	receiverGame := c.session.thisGame()
	out := make([]ReceivedItem, 0, len(ri.Items))
	for _, ni := range ri.Items {
		sender, ok := c.session.teammate(ni.Player)
		if !ok {
			return nil, &ProtocolError{Kind: ErrMissingPlayer, Team: receiver.Team, Slot: ni.Player}
		}
		senderGame, ok := c.session.gameByName(sender.Game)
		if !ok {
			return nil, &ProtocolError{Kind: ErrMissingGameData, Game: sender.Game}
		}
		li, err := hydrateLocatedItem(ni, sender, receiver, senderGame, receiverGame)
		if err != nil {
			return nil, err
		}
		out = append(out, ReceivedItem{LocatedItem: li, Index: ri.Index})
	}
	return out, nil
}

func (c *Client) fulfillScout(li protocol.LocationInfo) []Event {
	if len(c.scoutQueue) == 0 {
		return []Event{{Kind: EventError, Err: &ProtocolError{Kind: ErrResponseWithoutRequest, Response: "LocationInfo"}}}
	}
	comp := c.scoutQueue[0]
	c.scoutQueue = c.scoutQueue[1:]

	sender := c.session.thisPlayer()
	senderGame := c.session.thisGame()
	items := make([]LocatedItem, 0, len(li.Locations))
	for _, ni := range li.Locations {
		receiver, ok := c.session.teammate(ni.Player)
		if !ok {
			comp.resolve(nil, &ProtocolError{Kind: ErrMissingPlayer, Team: sender.Team, Slot: ni.Player})
			return nil
		}
		receiverGame, ok := c.session.gameByName(receiver.Game)
		if !ok {
			comp.resolve(nil, &ProtocolError{Kind: ErrMissingGameData, Game: receiver.Game})
			return nil
		}
		hi, err := hydrateLocatedItem(ni, sender, receiver, senderGame, receiverGame)
		if err != nil {
			comp.resolve(nil, err)
			return nil
		}
		items = append(items, hi)
	}
	comp.resolve(items, nil)
	return nil
}

func (c *Client) handleBounced(b protocol.Bounced) Event {
	if protocol.HasTag(b.Tags, protocol.DeathLinkTag) {
		var dl protocol.DeathLink
		if err := json.Unmarshal(b.Data, &dl); err != nil {
			return Event{Kind: EventError, Err: &ProtocolError{Kind: ErrDeserialize, Cause: err}}
		}
		return Event{Kind: EventDeathLink, DeathLink: DeathLinkEvent{
			Games: b.Games, Slots: b.Slots, Tags: b.Tags, Time: dl.Time, Source: dl.Source, Cause: dl.Cause,
		}}
	}
	return Event{Kind: EventBounce, Bounce: BounceEvent{Games: b.Games, Slots: b.Slots, Tags: b.Tags, Data: b.Data}}
}

func (c *Client) fulfillGet(r protocol.Retrieved) []Event {
	if len(c.getQueue) == 0 {
		return []Event{{Kind: EventError, Err: &ProtocolError{Kind: ErrResponseWithoutRequest, Response: "Retrieved"}}}
	}
	comp := c.getQueue[0]
	c.getQueue = c.getQueue[1:]
	comp.resolve(r.Keys, nil)
	return nil
}

func (c *Client) handleSetReply(sr protocol.SetReply) Event {
	player, _ := c.session.playerByTeamSlot(c.session.thisPlayer().Team, sr.Slot)
	var old json.RawMessage
	if sr.OriginalValue != nil {
		old = *sr.OriginalValue
	}
	return Event{Kind: EventKeyChanged, KeyChanged: KeyChangedEvent{Key: sr.Key, OldValue: old, NewValue: sr.Value, Player: player}}
}

// -- Request API (§4.D.2) --

// UpdateConnection re-sends item handling and tags after the initial
// Connect, via ConnectUpdate.
func (c *Client) UpdateConnection(itemHandling ItemHandling, tags []string) error {
	return c.send(protocol.NewConnectUpdate(itemHandling.flags(), tags))
}

// Sync requests a fresh ReceivedItems snapshot of this slot's full
// inventory.
func (c *Client) Sync() error {
	return c.send(protocol.NewSync())
}

// MarkChecked validates every location id against the current game, then
// sends LocationChecks. Newly-checked locations are applied to the local
// map immediately (optimistic, before server confirmation) and credit
// HintPointsPerCheck to HintPoints.
func (c *Client) MarkChecked(locations []int64) error {
	game := c.session.thisGame()
	for _, id := range locations {
		if _, ok := wellKnownLocation(id); ok {
			continue
		}
		if _, ok := game.Location(id); !ok {
			return &ArgumentError{Kind: ErrInvalidLocationArg, Location: id, Game: game.Name}
		}
	}

	if err := c.send(protocol.NewLocationChecks(locations)); err != nil {
		return err
	}

	for _, id := range locations {
		if _, ok := wellKnownLocation(id); ok {
			continue
		}
		if !c.session.localLocationsChecked[id] {
			c.session.localLocationsChecked[id] = true
			c.session.hintPoints += c.session.hintPointsPerCheck
		}
	}
	return nil
}

// ScoutLocations requests information about locations without checking
// them. The returned completion resolves once the matching LocationInfo
// arrives.
func (c *Client) ScoutLocations(locations []int64, policy ScoutPolicy) (*ScoutCompletion, error) {
	comp := newScoutCompletion()
	if err := c.send(protocol.NewLocationScouts(locations, uint8(policy))); err != nil {
		return nil, err
	}
	c.scoutQueue = append(c.scoutQueue, comp)
	return comp, nil
}

// UpdateHint changes the priority of an existing or not-yet-created hint.
func (c *Client) UpdateHint(slot uint32, location int64, status HintStatus) error {
	player, ok := c.session.teammate(slot)
	if !ok {
		return &ArgumentError{Kind: ErrInvalidSlotArg, Slot: slot}
	}
	if _, ok := wellKnownLocation(location); !ok {
		game, ok := c.session.gameByName(player.Game)
		if !ok {
			return &ArgumentError{Kind: ErrInvalidLocationArg, Location: location, Game: player.Game}
		}
		if _, ok := game.Location(location); !ok {
			return &ArgumentError{Kind: ErrInvalidLocationArg, Location: location, Game: player.Game}
		}
	}
	return c.send(protocol.NewUpdateHint(slot, location, status))
}

// SetStatus reports this client's play status.
func (c *Client) SetStatus(status ClientStatus) error {
	return c.send(protocol.NewStatusUpdate(status))
}

// Get requests values from the server's key-value data store. The returned
// completion resolves once the matching Retrieved arrives.
func (c *Client) Get(keys []string) (*GetCompletion, error) {
	comp := newGetCompletion()
	if err := c.send(protocol.NewGet(keys)); err != nil {
		return nil, err
	}
	c.getQueue = append(c.getQueue, comp)
	return comp, nil
}

// Set replaces a key's value outright.
func (c *Client) Set(key string, value json.RawMessage, wantReply bool) error {
	return c.send(protocol.NewSet(key, value, wantReply, []protocol.DataStorageOperation{DataOp(OpReplace, value)}))
}

// Change applies a chain of data-storage operations to key, initializing it
// to def if it doesn't exist yet.
func (c *Client) Change(key string, def json.RawMessage, operations []protocol.DataStorageOperation, wantReply bool) error {
	return c.send(protocol.NewSet(key, def, wantReply, operations))
}

// Watch subscribes this client to future SetReply notifications for keys.
func (c *Client) Watch(keys []string) error {
	return c.send(protocol.NewSetNotify(keys))
}

// Say sends a chat message.
func (c *Client) Say(text string) error {
	return c.send(protocol.NewSay(text))
}

// Bounce broadcasts a free-form peer-to-peer message, scoped by opts.
func (c *Client) Bounce(data json.RawMessage, opts BounceOptions) error {
	return c.send(protocol.NewBounce(opts.Games, opts.Tags, opts.Slots, data))
}

// DeathLink broadcasts a death-link Bounce. Source defaults to the
// connected player's alias and Time to the current time if left zero.
func (c *Client) DeathLink(opts DeathLinkOptions) error {
	source := opts.Source
	if source == "" {
		source = c.session.thisPlayer().Alias
	}
	t := opts.Time
	if t == 0 {
		t = float64(time.Now().Unix())
	}
	var cause *string
	if opts.Cause != "" {
		cause = &opts.Cause
	}

	data, err := json.Marshal(protocol.DeathLink{Time: t, Source: source, Cause: cause})
	if err != nil {
		return &TransportError{Err: fmt.Errorf("marshal death link: %w", err)}
	}

	tags := make([]string, 0, len(opts.Tags)+1)
	tags = append(tags, protocol.DeathLinkTag)
	tags = append(tags, opts.Tags...)
	return c.send(protocol.NewBounce(opts.Games, tags, opts.Slots, data))
}

// CreateHints scouts locations with create-as-hint semantics (skipping
// locations already hinted) and, if opts.Status is set, follows up with an
// UpdateHint for each to set its initial priority.
func (c *Client) CreateHints(locations []int64, opts CreateHintsOptions) (*ScoutCompletion, error) {
	comp, err := c.ScoutLocations(locations, ScoutNew)
	if err != nil {
		return nil, err
	}
	if opts.Status != 0 {
		slot := opts.Slot
		if slot == 0 {
			slot = c.session.thisPlayer().Slot
		}
		for _, loc := range locations {
			if err := c.UpdateHint(slot, loc, opts.Status); err != nil {
				return comp, err
			}
		}
	}
	return comp, nil
}

// -- Session accessors (§3, supplemented per original_source) --

// ThisGame returns the game this client is connected as.
func (c *Client) ThisGame() Game { return c.session.thisGame() }

// Game returns the named game, including the reserved Archipelago
// pseudo-game.
func (c *Client) Game(name string) (Game, bool) { return c.session.gameByName(name) }

// ThisPlayer returns the connected player.
func (c *Client) ThisPlayer() Player { return c.session.thisPlayer() }

// Players returns every player in the multiworld.
func (c *Client) Players() []Player {
	return append([]Player(nil), c.session.players...)
}

// Player returns the player on the given team and slot, if one exists.
func (c *Client) Player(team, slot uint32) (Player, bool) {
	return c.session.playerByTeamSlot(team, slot)
}

// Teammate returns the player on the given slot on this client's own team.
func (c *Client) Teammate(slot uint32) (Player, bool) { return c.session.teammate(slot) }

// Groups returns the groups on the given team.
func (c *Client) Groups(team uint32) ([]Group, bool) { return c.session.groupsForTeam(team) }

// TeammateGroups returns the groups on this client's own team.
func (c *Client) TeammateGroups() []Group {
	g, _ := c.session.groupsForTeam(c.session.thisPlayer().Team)
	return g
}

// PointsPerHint is the number of hint points needed to access a single hint.
func (c *Client) PointsPerHint() uint64 { return c.session.pointsPerHint }

// HintPointsPerCheck is the number of hint points granted per checked
// location.
func (c *Client) HintPointsPerCheck() uint64 { return c.session.hintPointsPerCheck }

// HintPoints is this player's current hint point balance.
func (c *Client) HintPoints() uint64 { return c.session.hintPoints }

// SeedName uniquely identifies the generated multiworld.
func (c *Client) SeedName() string { return c.session.seedName }

// ServerVersion is the Archipelago version the server is running.
func (c *Client) ServerVersion() Version { return c.session.serverVersion }

// GeneratorVersion is the Archipelago version that generated the multiworld.
func (c *Client) GeneratorVersion() Version { return c.session.generatorVersion }

// ServerTags are the server's special features or capabilities.
func (c *Client) ServerTags() []string { return tagSlice(c.session.serverTags) }

// PasswordRequired reports whether this room requires a password to join.
func (c *Client) PasswordRequired() bool { return c.session.passwordRequired }

// ReleasePermission is the permission for releasing all items after a goal.
func (c *Client) ReleasePermission() protocol.Permission { return c.session.permissions.Release }

// CollectPermission is the permission for collecting all items after a goal.
func (c *Client) CollectPermission() protocol.Permission { return c.session.permissions.Collect }

// RemainingPermission is the permission for querying remaining items.
func (c *Client) RemainingPermission() protocol.Permission { return c.session.permissions.Remaining }

// IsLocalLocationChecked reports whether id has been checked, either by
// this client or by a co-op teammate in the same slot.
func (c *Client) IsLocalLocationChecked(id int64) bool { return c.session.localLocationsChecked[id] }

// SlotData is the slot's generation-time data, if ConnectionOptions.SlotData
// was requested.
func (c *Client) SlotData() json.RawMessage { return c.session.slotData }

func tagSlice(tags map[string]struct{}) []string {
	out := make([]string, 0, len(tags))
	for t := range tags {
		out = append(out, t)
	}
	return out
}

// AsItemID accepts either a raw item ID or an Item and returns its ID.
func AsItemID(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case Item:
		return t.ID
	default:
		return 0
	}
}

// AsLocationID accepts either a raw location ID or a Location and returns
// its ID.
func AsLocationID(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case Location:
		return t.ID
	default:
		return 0
	}
}
