// Package protocol implements the wire-level Archipelago message kinds and
// the framed JSON codec that converts them to and from batches of frames.
package protocol

import "encoding/json"

// Version is the Archipelago protocol version this client speaks.
var Version = NetworkVersion{Major: 0, Minor: 6, Build: 0, Class: "Version"}

// NetworkVersion mirrors the wire shape of an Archipelago version triple.
type NetworkVersion struct {
	Major uint64 `json:"major"`
	Minor uint64 `json:"minor"`
	Build uint64 `json:"build"`
	Class string `json:"class"`
}

// Permission is the set of allowed timings for release/collect/remaining.
type Permission uint8

const (
	PermissionDisabled    Permission = 0
	PermissionEnabled     Permission = 1
	PermissionGoal        Permission = 2
	PermissionAuto        Permission = 6
	PermissionAutoEnabled Permission = 7
)

// PermissionMap is the permissions block sent in RoomInfo/RoomUpdate.
type PermissionMap struct {
	Release   Permission `json:"release"`
	Collect   Permission `json:"collect"`
	Remaining Permission `json:"remaining"`
}

// NetworkPlayer is a single entry in Connected.Players.
type NetworkPlayer struct {
	Team  uint32 `json:"team"`
	Slot  uint32 `json:"slot"`
	Alias string `json:"alias"`
	Name  string `json:"name"`
}

// NetworkItemFlags is the item flag bitset.
type NetworkItemFlags uint8

const (
	FlagProgression NetworkItemFlags = 0b001
	FlagUseful      NetworkItemFlags = 0b010
	FlagTrap        NetworkItemFlags = 0b100
)

func (f NetworkItemFlags) Has(flag NetworkItemFlags) bool { return f&flag != 0 }

// NetworkItem is a single (item, location, owning player, flags) tuple as
// sent in ReceivedItems and LocationInfo.
type NetworkItem struct {
	Item     int64            `json:"item"`
	Location int64            `json:"location"`
	Player   uint32            `json:"player"`
	Flags    NetworkItemFlags `json:"flags"`
}

// SlotType distinguishes ordinary players, groups, and spectators.
type SlotType uint8

const (
	SlotTypeSpectator SlotType = 0
	SlotTypePlayer    SlotType = 1
	SlotTypeGroup     SlotType = 2
)

// NetworkSlot is a single entry in Connected.SlotInfo.
type NetworkSlot struct {
	Name         string   `json:"name"`
	Game         string   `json:"game"`
	Type         SlotType `json:"type"`
	GroupMembers []uint32 `json:"group_members"`
}

// ItemsHandlingFlags controls which items the server sends to this client.
type ItemsHandlingFlags uint8

const (
	ItemsHandlingOtherWorlds        ItemsHandlingFlags = 0b001
	ItemsHandlingOwnWorld           ItemsHandlingFlags = 0b011
	ItemsHandlingStartingInventory  ItemsHandlingFlags = 0b101
)

// HintStatus is the status a hint may be placed in by UpdateHint.
type HintStatus uint16

const (
	HintFound       HintStatus = 0
	HintUnspecified HintStatus = 1
	HintNoPriority  HintStatus = 10
	HintAvoid       HintStatus = 20
	HintPriority    HintStatus = 30
)

// ClientStatus is the status reported by StatusUpdate.
type ClientStatus uint16

const (
	ClientUnknown   ClientStatus = 0
	ClientConnected ClientStatus = 5
	ClientReady     ClientStatus = 10
	ClientPlaying   ClientStatus = 20
	ClientGoal      ClientStatus = 30
)

// GameData is the per-game metadata the server provides in a DataPackage.
type GameData struct {
	ItemNameToID     map[string]int64 `json:"item_name_to_id"`
	LocationNameToID map[string]int64 `json:"location_name_to_id"`
	Checksum         string           `json:"checksum"`
}

// DataPackageObject is the payload of a DataPackage message.
type DataPackageObject struct {
	Games map[string]GameData `json:"games"`
}

// --- client -> server ---

// Connect is the handshake request sent once RoomInfo/DataPackage have been
// received.
type Connect struct {
	Cmd           string         `json:"cmd"`
	Password      *string        `json:"password"`
	Game          string         `json:"game"`
	Name          string         `json:"name"`
	UUID          string         `json:"uuid"`
	Version       NetworkVersion `json:"version"`
	ItemsHandling uint8          `json:"items_handling"`
	Tags          []string       `json:"tags"`
	SlotData      bool           `json:"slot_data"`
}

// NewConnect builds a Connect request with its cmd tag set.
func NewConnect(password *string, game, name string, itemsHandling uint8, tags []string, slotData bool) Connect {
	return Connect{
		Cmd: "Connect", Password: password, Game: game, Name: name, UUID: "",
		Version: Version, ItemsHandling: itemsHandling, Tags: tags, SlotData: slotData,
	}
}

// ConnectUpdate re-sends item handling and tags after the initial connect.
type ConnectUpdate struct {
	Cmd           string   `json:"cmd"`
	ItemsHandling uint8    `json:"items_handling"`
	Tags          []string `json:"tags"`
}

// NewConnectUpdate builds a ConnectUpdate request with its cmd tag set.
func NewConnectUpdate(itemsHandling uint8, tags []string) ConnectUpdate {
	return ConnectUpdate{Cmd: "ConnectUpdate", ItemsHandling: itemsHandling, Tags: tags}
}

// Sync requests a fresh ReceivedItems snapshot.
type Sync struct {
	Cmd string `json:"cmd"`
}

// NewSync builds a Sync request.
func NewSync() Sync { return Sync{Cmd: "Sync"} }

// LocationChecks marks locations as checked.
type LocationChecks struct {
	Cmd       string  `json:"cmd"`
	Locations []int64 `json:"locations"`
}

// NewLocationChecks builds a LocationChecks request.
func NewLocationChecks(locations []int64) LocationChecks {
	return LocationChecks{Cmd: "LocationChecks", Locations: locations}
}

// LocationScouts requests information about locations without checking them.
type LocationScouts struct {
	Cmd          string  `json:"cmd"`
	Locations    []int64 `json:"locations"`
	CreateAsHint uint8   `json:"create_as_hint"`
}

// NewLocationScouts builds a LocationScouts request.
func NewLocationScouts(locations []int64, createAsHint uint8) LocationScouts {
	return LocationScouts{Cmd: "LocationScouts", Locations: locations, CreateAsHint: createAsHint}
}

// UpdateHint changes the priority of an existing or not-yet-created hint.
type UpdateHint struct {
	Cmd      string     `json:"cmd"`
	Player   uint32     `json:"player"`
	Location int64      `json:"location"`
	Status   HintStatus `json:"status"`
}

// NewUpdateHint builds an UpdateHint request.
func NewUpdateHint(player uint32, location int64, status HintStatus) UpdateHint {
	return UpdateHint{Cmd: "UpdateHint", Player: player, Location: location, Status: status}
}

// StatusUpdate reports this client's play status.
type StatusUpdate struct {
	Cmd    string       `json:"cmd"`
	Status ClientStatus `json:"status"`
}

// NewStatusUpdate builds a StatusUpdate request.
func NewStatusUpdate(status ClientStatus) StatusUpdate {
	return StatusUpdate{Cmd: "StatusUpdate", Status: status}
}

// Say sends a chat message.
type Say struct {
	Cmd  string `json:"cmd"`
	Text string `json:"text"`
}

// NewSay builds a Say request.
func NewSay(text string) Say { return Say{Cmd: "Say", Text: text} }

// GetDataPackage requests per-game metadata, optionally scoped to a subset
// of games.
type GetDataPackage struct {
	Cmd   string   `json:"cmd"`
	Games []string `json:"games,omitempty"`
}

// NewGetDataPackage builds a GetDataPackage request.
func NewGetDataPackage(games []string) GetDataPackage {
	return GetDataPackage{Cmd: "GetDataPackage", Games: games}
}

// Get requests values from the server's key-value data store.
type Get struct {
	Cmd  string   `json:"cmd"`
	Keys []string `json:"keys"`
}

// NewGet builds a Get request.
func NewGet(keys []string) Get { return Get{Cmd: "Get", Keys: keys} }

// DataStorageOperation is a single step in a Set request's operation chain.
type DataStorageOperation struct {
	Operation string          `json:"operation"`
	Value     json.RawMessage `json:"value,omitempty"`
}

// Set mutates a key in the server's key-value data store.
type Set struct {
	Cmd        string                 `json:"cmd"`
	Key        string                 `json:"key"`
	Default    json.RawMessage        `json:"default"`
	WantReply  bool                   `json:"want_reply"`
	Operations []DataStorageOperation `json:"operations"`
}

// NewSet builds a Set request.
func NewSet(key string, def json.RawMessage, wantReply bool, ops []DataStorageOperation) Set {
	return Set{Cmd: "Set", Key: key, Default: def, WantReply: wantReply, Operations: ops}
}

// SetNotify subscribes this client to future changes of the given keys.
type SetNotify struct {
	Cmd  string   `json:"cmd"`
	Keys []string `json:"keys"`
}

// NewSetNotify builds a SetNotify request.
func NewSetNotify(keys []string) SetNotify { return SetNotify{Cmd: "SetNotify", Keys: keys} }


// --- server -> client ---

// RoomInfo is the first message sent by the server upon connection.
type RoomInfo struct {
	Version               NetworkVersion    `json:"version"`
	GeneratorVersion      NetworkVersion    `json:"generator_version"`
	Tags                  []string          `json:"tags"`
	PasswordRequired      bool              `json:"password"`
	Permissions           PermissionMap     `json:"permissions"`
	HintCost              uint8             `json:"hint_cost"`
	LocationCheckPoints   uint64            `json:"location_check_points"`
	Games                 []string          `json:"games"`
	DatapackageChecksums  map[string]string `json:"datapackage_checksums"`
	SeedName              string            `json:"seed_name"`
	Time                  float64           `json:"time"`
}

// ConnectionRefused is sent instead of Connected when the handshake fails.
type ConnectionRefused struct {
	Errors []string `json:"errors"`
}

// Connected completes the handshake with the full initial session snapshot.
type Connected struct {
	Team             uint32                  `json:"team"`
	Slot             uint32                  `json:"slot"`
	Players          []NetworkPlayer         `json:"players"`
	MissingLocations []int64                 `json:"missing_locations"`
	CheckedLocations []int64                 `json:"checked_locations"`
	SlotData         json.RawMessage         `json:"slot_data"`
	SlotInfo         map[string]NetworkSlot  `json:"slot_info"`
	HintPoints       uint64                  `json:"hint_points"`
}

// ReceivedItems is a batch of items sent to this slot.
type ReceivedItems struct {
	Index int64         `json:"index"`
	Items []NetworkItem `json:"items"`
}

// LocationInfo is the reply to a LocationScouts request.
type LocationInfo struct {
	Locations []NetworkItem `json:"locations"`
}

// RoomUpdate carries a partial update to room/session state. Every field is
// optional; only fields that are present should be applied.
type RoomUpdate struct {
	Version              *NetworkVersion   `json:"version"`
	Tags                 *[]string         `json:"tags"`
	PasswordRequired     *bool             `json:"password"`
	Permissions          *PermissionMap    `json:"permissions"`
	HintCost             *int64            `json:"hint_cost"`
	LocationCheckPoints  *int64            `json:"location_check_points"`
	Games                *[]string         `json:"games"`
	DatapackageVersions  map[string]int64  `json:"datapackage_versions"`
	DatapackageChecksums map[string]string `json:"datapackage_checksums"`
	SeedName             *string           `json:"seed_name"`
	Time                 *float64          `json:"time"`
	HintPoints           *int64            `json:"hint_points"`
	Players              *[]NetworkPlayer  `json:"players"`
	CheckedLocations     *[]int64          `json:"checked_locations"`
	MissingLocations     *[]int64          `json:"missing_locations"`
}

// Print is a plain-text server message.
type Print struct {
	Text string `json:"text"`
}

// DataPackage carries per-game metadata.
type DataPackage struct {
	Data DataPackageObject `json:"data"`
}

// InvalidPacket is sent when the server rejects a client message.
type InvalidPacket struct {
	Type        string  `json:"type"`
	OriginalCmd *string `json:"original_cmd"`
	Text        string  `json:"text"`
}

// Retrieved is the reply to a Get request.
type Retrieved struct {
	Keys map[string]json.RawMessage `json:"keys"`
}

// SetReply is the (possibly unsolicited, if SetNotify was used) reply to a
// Set request.
type SetReply struct {
	Key           string          `json:"key"`
	Value         json.RawMessage `json:"value"`
	OriginalValue *json.RawMessage `json:"original_value"`
	Slot          uint32          `json:"slot"`
}
