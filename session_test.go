package archipelago

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michael4d45/archipelago/internal/protocol"
)

func sampleRoomInfo() protocol.RoomInfo {
	return protocol.RoomInfo{
		Version:             protocol.NetworkVersion{Major: 0, Minor: 6, Build: 0},
		GeneratorVersion:    protocol.NetworkVersion{Major: 0, Minor: 6, Build: 0},
		Tags:                []string{"AP"},
		PasswordRequired:    false,
		Permissions:         protocol.PermissionMap{Release: protocol.PermissionGoal},
		HintCost:            10,
		LocationCheckPoints: 1,
		Games:               []string{"Clique"},
		SeedName:            "my-seed",
	}
}

func sampleDataPackage() protocol.DataPackageObject {
	return protocol.DataPackageObject{
		Games: map[string]protocol.GameData{
			"Clique": {
				ItemNameToID:     map[string]int64{"Progressive Sword": 1},
				LocationNameToID: map[string]int64{"Start": 100},
				Checksum:         "abc123",
			},
		},
	}
}

func sampleConnected() protocol.Connected {
	return protocol.Connected{
		Team:             0,
		Slot:             1,
		Players:          []protocol.NetworkPlayer{{Team: 0, Slot: 1, Alias: "Alice", Name: "alice"}},
		MissingLocations: []int64{100},
		CheckedLocations: nil,
		SlotData:         json.RawMessage(`{"goal":"triforce"}`),
		SlotInfo: map[string]protocol.NetworkSlot{
			"1": {Name: "alice", Game: "Clique", Type: protocol.SlotTypePlayer},
		},
		HintPoints: 0,
	}
}

func TestNewSession_BuildsNormalizedView(t *testing.T) {
	s, err := newSession("Clique", sampleRoomInfo(), sampleDataPackage(), sampleConnected())
	require.NoError(t, err)

	assert.Equal(t, "my-seed", s.seedName)
	assert.Equal(t, "Alice", s.thisPlayer().Alias)
	assert.Equal(t, "Clique", s.thisGame().Name)
	assert.False(t, s.localLocationsChecked[100])

	// pointsPerHint = total_locations * hint_cost / 100 = 1 * 10 / 100 = 0
	assert.Equal(t, uint64(0), s.pointsPerHint)
}

func TestNewSession_EmptyPlayersIsProtocolError(t *testing.T) {
	connected := sampleConnected()
	connected.Players = nil

	_, err := newSession("Clique", sampleRoomInfo(), sampleDataPackage(), connected)
	require.Error(t, err)

	var pe *ProtocolError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrEmptyPlayers, pe.Kind)
}

func TestNewSession_MissingSelfIsProtocolError(t *testing.T) {
	connected := sampleConnected()
	connected.Slot = 99 // no player with this slot

	_, err := newSession("Clique", sampleRoomInfo(), sampleDataPackage(), connected)
	require.Error(t, err)

	var pe *ProtocolError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrMissingPlayer, pe.Kind)
}

func TestNewSession_MissingGameDataIsProtocolError(t *testing.T) {
	_, err := newSession("SomeOtherGame", sampleRoomInfo(), sampleDataPackage(), sampleConnected())
	require.Error(t, err)

	var pe *ProtocolError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrMissingGameData, pe.Kind)
}

func TestNewSession_GroupMemberMustResolve(t *testing.T) {
	connected := sampleConnected()
	connected.SlotInfo["2"] = protocol.NetworkSlot{
		Name: "item-link", Game: "Clique", Type: protocol.SlotTypeGroup, GroupMembers: []uint32{1, 5},
	}

	_, err := newSession("Clique", sampleRoomInfo(), sampleDataPackage(), connected)
	require.Error(t, err)

	var pe *ProtocolError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrMissingSlotInfo, pe.Kind)
	assert.Equal(t, uint32(5), pe.Slot)
}

func TestSession_TeammateAndGroups(t *testing.T) {
	connected := sampleConnected()
	connected.Players = append(connected.Players, protocol.NetworkPlayer{Team: 0, Slot: 2, Alias: "Bob", Name: "bob"})
	connected.SlotInfo["2"] = protocol.NetworkSlot{Name: "bob", Game: "Clique", Type: protocol.SlotTypePlayer}

	s, err := newSession("Clique", sampleRoomInfo(), sampleDataPackage(), connected)
	require.NoError(t, err)

	bob, ok := s.teammate(2)
	require.True(t, ok)
	assert.Equal(t, "Bob", bob.Alias)

	_, ok = s.teammate(42)
	assert.False(t, ok)

	groups, ok := s.groupsForTeam(0)
	require.True(t, ok)
	assert.Empty(t, groups)

	_, ok = s.groupsForTeam(99)
	assert.False(t, ok)
}
