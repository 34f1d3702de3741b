package archipelago

import (
	"encoding/json"
	"strconv"

	"github.com/michael4d45/archipelago/internal/protocol"
)

// session is the normalized, validated view of a connected multiworld. It's
// built once by newSession from RoomInfo/DataPackage/Connected and mutated
// in place by RoomUpdate messages and by Client.MarkChecked.
type session struct {
	serverVersion      Version
	generatorVersion   Version
	serverTags         map[string]struct{}
	passwordRequired   bool
	permissions        protocol.PermissionMap
	pointsPerHint      uint64
	hintPointsPerCheck uint64
	hintPoints         uint64
	seedName           string

	games    map[string]Game
	gameName string

	players     []Player
	playerIndex int
	teams       uint32

	groups []protocol.NetworkSlot

	slotData json.RawMessage

	localLocationsChecked map[int64]bool
}

// newSession validates and normalizes the handshake's three payloads into a
// session. Every check here corresponds to one of the six numbered
// invariants: a missing player, an unresolvable slot, or missing game data
// all fail construction rather than leaving an inconsistent session.
func newSession(game string, roomInfo protocol.RoomInfo, dataPackage protocol.DataPackageObject, connected protocol.Connected) (*session, error) {
	if len(connected.Players) == 0 {
		return nil, &ProtocolError{Kind: ErrEmptyPlayers}
	}

	totalLocations := len(connected.CheckedLocations) + len(connected.MissingLocations)
	pointsPerHint := uint64(totalLocations) * uint64(roomInfo.HintCost) / 100

	var teams uint32
	for _, p := range connected.Players {
		if p.Team > teams {
			teams = p.Team
		}
	}

	slotInfo := make(map[uint32]protocol.NetworkSlot, len(connected.SlotInfo))
	for k, v := range connected.SlotInfo {
		n, err := strconv.ParseUint(k, 10, 32)
		if err != nil {
			return nil, &ProtocolError{Kind: ErrDeserialize, Cause: err}
		}
		slotInfo[uint32(n)] = v
	}

	var groups []protocol.NetworkSlot
	for _, v := range slotInfo {
		if v.Type == protocol.SlotTypeGroup {
			groups = append(groups, v)
		}
	}
	for _, g := range groups {
		for _, member := range g.GroupMembers {
			if _, ok := slotInfo[member]; !ok {
				return nil, &ProtocolError{Kind: ErrMissingSlotInfo, Slot: member}
			}
		}
	}

	players := make([]Player, 0, len(connected.Players))
	for _, np := range connected.Players {
		slot, ok := slotInfo[np.Slot]
		var gameName string
		switch {
		case ok:
			gameName = slot.Game
		default:
			found := false
			for _, g := range groups {
				if containsSlot(g.GroupMembers, np.Slot) {
					gameName = g.Game
					found = true
					break
				}
			}
			if !found {
				return nil, &ProtocolError{Kind: ErrMissingSlotInfo, Slot: np.Slot}
			}
		}
		players = append(players, playerFromNetwork(np, gameName))
	}

	playerIndex := -1
	for i, p := range players {
		if p.Team == connected.Team && p.Slot == connected.Slot {
			playerIndex = i
			break
		}
	}
	if playerIndex < 0 {
		return nil, &ProtocolError{Kind: ErrMissingPlayer, Team: connected.Team, Slot: connected.Slot}
	}

	local := make(map[int64]bool, totalLocations)
	for _, id := range connected.MissingLocations {
		local[id] = false
	}
	for _, id := range connected.CheckedLocations {
		local[id] = true
	}

	games := make(map[string]Game, len(dataPackage.Games))
	for name, data := range dataPackage.Games {
		games[name] = newGame(name, data.ItemNameToID, data.LocationNameToID, nil)
	}
	if _, ok := games[game]; !ok {
		return nil, &ProtocolError{Kind: ErrMissingGameData, Game: game}
	}

	tags := make(map[string]struct{}, len(roomInfo.Tags))
	for _, t := range roomInfo.Tags {
		tags[t] = struct{}{}
	}

	return &session{
		serverVersion:      versionFromNetwork(roomInfo.Version),
		generatorVersion:   versionFromNetwork(roomInfo.GeneratorVersion),
		serverTags:         tags,
		passwordRequired:   roomInfo.PasswordRequired,
		permissions:        roomInfo.Permissions,
		pointsPerHint:      pointsPerHint,
		hintPointsPerCheck: roomInfo.LocationCheckPoints,
		hintPoints:         connected.HintPoints,
		seedName:           roomInfo.SeedName,
		games:              games,
		gameName:           game,
		players:            players,
		playerIndex:        playerIndex,
		teams:              teams,
		groups:             groups,
		slotData:           connected.SlotData,
		localLocationsChecked: local,
	}, nil
}

func containsSlot(slots []uint32, slot uint32) bool {
	for _, s := range slots {
		if s == slot {
			return true
		}
	}
	return false
}

func (s *session) thisPlayer() Player { return s.players[s.playerIndex] }

func (s *session) thisGame() Game { return s.gameOrArchipelago(s.gameName) }

// gameOrArchipelago returns the named game, falling back to the reserved
// Archipelago pseudo-game (never stored in s.games) for its own name.
func (s *session) gameOrArchipelago(name string) Game {
	if g, ok := s.games[name]; ok {
		return g
	}
	if name == archipelagoGameName {
		return archipelagoGame
	}
	return Game{}
}

func (s *session) gameByName(name string) (Game, bool) {
	if g, ok := s.games[name]; ok {
		return g, true
	}
	if name == archipelagoGameName {
		return archipelagoGame, true
	}
	return Game{}, false
}

func (s *session) playerByTeamSlot(team, slot uint32) (Player, bool) {
	for _, p := range s.players {
		if p.Team == team && p.Slot == slot {
			return p, true
		}
	}
	return Player{}, false
}

func (s *session) teammate(slot uint32) (Player, bool) {
	return s.playerByTeamSlot(s.thisPlayer().Team, slot)
}

func (s *session) group(raw protocol.NetworkSlot, team uint32) Group {
	members := make([]Player, 0, len(raw.GroupMembers))
	for _, slot := range raw.GroupMembers {
		if p, ok := s.playerByTeamSlot(team, slot); ok {
			members = append(members, p)
		}
	}
	return Group{Name: raw.Name, Game: raw.Game, Members: members}
}

// groupsForTeam returns every group on team, or false if team exceeds the
// highest team number seen in this multiworld.
func (s *session) groupsForTeam(team uint32) ([]Group, bool) {
	if team > s.teams {
		return nil, false
	}
	out := make([]Group, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, s.group(g, team))
	}
	return out, true
}
