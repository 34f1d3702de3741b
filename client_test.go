package archipelago

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michael4d45/archipelago/internal/protocol"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	s, err := newSession("Clique", sampleRoomInfo(), sampleDataPackage(), sampleConnected())
	require.NoError(t, err)
	return &Client{session: s}
}

func TestApplyRoomUpdate_AllOrNothing(t *testing.T) {
	c := newTestClient(t)

	badLoc := int64(9999)
	newTags := []string{"Changed"}
	ru := protocol.RoomUpdate{Tags: &newTags, CheckedLocations: &[]int64{badLoc}}

	_, err := c.applyRoomUpdate(ru)
	require.Error(t, err)

	var pe *ProtocolError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrMissingLocation, pe.Kind)

	// nothing was mutated by the failed update
	assert.False(t, c.session.localLocationsChecked[badLoc])
	assert.ElementsMatch(t, []string{"AP"}, tagSlice(c.session.serverTags))
}

func TestApplyRoomUpdate_AppliesEveryOptionalField(t *testing.T) {
	c := newTestClient(t)

	newTags := []string{"AP", "Tracker"}
	newPerms := protocol.PermissionMap{Release: protocol.PermissionEnabled}
	hintCost := int64(20)
	checkPoints := int64(2)
	hintPoints := int64(5)
	checked := []int64{100}
	players := []protocol.NetworkPlayer{{Team: 0, Slot: 1, Alias: "Alicia", Name: "alice"}}

	ru := protocol.RoomUpdate{
		Tags:                &newTags,
		Permissions:         &newPerms,
		HintCost:            &hintCost,
		LocationCheckPoints: &checkPoints,
		HintPoints:          &hintPoints,
		Players:             &players,
		CheckedLocations:    &checked,
	}

	updated, err := c.applyRoomUpdate(ru)
	require.NoError(t, err)
	assert.True(t, c.session.localLocationsChecked[100])
	assert.Equal(t, "Alicia", c.session.thisPlayer().Alias)
	assert.Equal(t, uint64(5), c.session.hintPoints)
	assert.Equal(t, uint64(2), c.session.hintPointsPerCheck)
	assert.ElementsMatch(t, newTags, tagSlice(c.session.serverTags))

	kinds := make([]UpdatedFieldKind, 0, len(updated))
	for _, u := range updated {
		kinds = append(kinds, u.Kind)
	}
	assert.Contains(t, kinds, UpdatedServerTags)
	assert.Contains(t, kinds, UpdatedPermissions)
	assert.Contains(t, kinds, UpdatedHintEconomy)
	assert.Contains(t, kinds, UpdatedHintPoints)
	assert.Contains(t, kinds, UpdatedPlayers)
	assert.Contains(t, kinds, UpdatedCheckedLocations)
}

func TestDispatch_ReceivedItems(t *testing.T) {
	c := newTestClient(t)

	events := c.dispatch(protocol.ServerMessage{
		Kind: protocol.KindReceivedItems,
		Payload: protocol.ReceivedItems{
			Index: 0,
			Items: []protocol.NetworkItem{{Item: 1, Location: 100, Player: 1, Flags: protocol.FlagProgression}},
		},
	})

	require.Len(t, events, 1)
	assert.Equal(t, EventReceivedItems, events[0].Kind)
	require.Len(t, events[0].ReceivedItems.Items, 1)
	assert.Equal(t, "Progressive Sword", events[0].ReceivedItems.Items[0].Item.Name)
	assert.True(t, events[0].ReceivedItems.Items[0].IsProgression())
}

func TestDispatch_BouncedDeathLinkVsPlainBounce(t *testing.T) {
	c := newTestClient(t)

	dl, _ := json.Marshal(protocol.DeathLink{Time: 1, Source: "Alice"})
	events := c.dispatch(protocol.ServerMessage{
		Kind:    protocol.KindBounced,
		Payload: protocol.Bounced{Tags: []string{protocol.DeathLinkTag}, Data: dl},
	})
	require.Len(t, events, 1)
	assert.Equal(t, EventDeathLink, events[0].Kind)
	assert.Equal(t, "Alice", events[0].DeathLink.Source)

	events = c.dispatch(protocol.ServerMessage{
		Kind:    protocol.KindBounced,
		Payload: protocol.Bounced{Tags: []string{"Tracker"}, Data: json.RawMessage(`{}`)},
	})
	require.Len(t, events, 1)
	assert.Equal(t, EventBounce, events[0].Kind)
}

func TestFulfillScout_ResolvesFIFOCompletion(t *testing.T) {
	c := newTestClient(t)
	comp := newScoutCompletion()
	c.scoutQueue = append(c.scoutQueue, comp)

	events := c.dispatch(protocol.ServerMessage{
		Kind: protocol.KindLocationInfo,
		Payload: protocol.LocationInfo{
			Locations: []protocol.NetworkItem{{Item: 1, Location: 100, Player: 1}},
		},
	})
	assert.Empty(t, events)

	items, err, ok := comp.TryRecv()
	require.True(t, ok)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Progressive Sword", items[0].Item.Name)
}

func TestFulfillScout_WithoutPendingRequestIsProtocolError(t *testing.T) {
	c := newTestClient(t)

	events := c.dispatch(protocol.ServerMessage{Kind: protocol.KindLocationInfo, Payload: protocol.LocationInfo{}})
	require.Len(t, events, 1)
	assert.Equal(t, EventError, events[0].Kind)

	var pe *ProtocolError
	require.ErrorAs(t, events[0].Err, &pe)
	assert.Equal(t, ErrResponseWithoutRequest, pe.Kind)
}

func TestFulfillGet_ResolvesFIFOCompletion(t *testing.T) {
	c := newTestClient(t)
	comp := newGetCompletion()
	c.getQueue = append(c.getQueue, comp)

	events := c.dispatch(protocol.ServerMessage{
		Kind:    protocol.KindRetrieved,
		Payload: protocol.Retrieved{Keys: map[string]json.RawMessage{"foo": json.RawMessage(`1`)}},
	})
	assert.Empty(t, events)

	keys, err, ok := comp.TryRecv()
	require.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage(`1`), keys["foo"])
}

func TestMarkChecked_RejectsUnknownLocation(t *testing.T) {
	c := newTestClient(t)

	err := c.MarkChecked([]int64{424242})
	require.Error(t, err)

	var ae *ArgumentError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, ErrInvalidLocationArg, ae.Kind)
}

func TestUpdateHint_RejectsUnknownSlot(t *testing.T) {
	c := newTestClient(t)

	err := c.UpdateHint(42, 100, HintPriority)
	require.Error(t, err)

	var ae *ArgumentError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, ErrInvalidSlotArg, ae.Kind)
	assert.Equal(t, uint32(42), ae.Slot)
}

func TestUpdateHint_RejectsUnknownLocation(t *testing.T) {
	c := newTestClient(t)

	err := c.UpdateHint(1, 999999, HintPriority)
	require.Error(t, err)

	var ae *ArgumentError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, ErrInvalidLocationArg, ae.Kind)
}

func TestAsItemIDAndAsLocationID(t *testing.T) {
	item := Item{ID: 7, Name: "Sword"}
	loc := Location{ID: 8, Name: "Chest"}

	assert.Equal(t, int64(7), AsItemID(item))
	assert.Equal(t, int64(42), AsItemID(int64(42)))
	assert.Equal(t, int64(42), AsItemID(42))
	assert.Equal(t, int64(8), AsLocationID(loc))
}
