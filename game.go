package archipelago

import "fmt"

// archipelagoGameName is the reserved pseudo-game used for locations that
// don't belong to any real game, like the cheat console or starting
// inventory.
const archipelagoGameName = "Archipelago"

// Item is a single item definable in a game's data package.
type Item struct {
	ID   int64
	Name string
	Game string
}

// Location is a single location definable in a game's data package.
type Location struct {
	ID   int64
	Name string
	Game string
}

// CheatConsole is the well-known location indicating an item came from the
// in-game cheat console (`!getitem`).
var CheatConsole = Location{ID: -1, Name: "Cheat Console", Game: archipelagoGameName}

// ServerLocation is the well-known location indicating an item came from the
// server itself, typically starting inventory.
var ServerLocation = Location{ID: -2, Name: "Server", Game: archipelagoGameName}

// wellKnownLocation returns the universal location for id, if any.
func wellKnownLocation(id int64) (Location, bool) {
	switch id {
	case -1:
		return CheatConsole, true
	case -2:
		return ServerLocation, true
	default:
		return Location{}, false
	}
}

// Game is a single game's worth of items and locations, as defined by its
// data package.
type Game struct {
	Name      string
	items     map[int64]Item
	itemsByName map[string]Item
	locations map[int64]Location
	locationsByName map[string]Location
}

// archipelagoGame is the reserved pseudo-game containing only the
// well-known locations.
var archipelagoGame = newGame(archipelagoGameName, nil, nil, []Location{CheatConsole, ServerLocation})

func newGame(name string, itemIDs map[string]int64, locationIDs map[string]int64, extraLocations []Location) Game {
	items := make(map[int64]Item, len(itemIDs))
	itemsByName := make(map[string]Item, len(itemIDs))
	for n, id := range itemIDs {
		it := Item{ID: id, Name: n, Game: name}
		items[id] = it
		itemsByName[n] = it
	}

	locations := make(map[int64]Location, len(locationIDs)+len(extraLocations))
	locationsByName := make(map[string]Location, len(locationIDs)+len(extraLocations))
	for n, id := range locationIDs {
		loc := Location{ID: id, Name: n, Game: name}
		locations[id] = loc
		locationsByName[n] = loc
	}
	for _, loc := range extraLocations {
		locations[loc.ID] = loc
		locationsByName[loc.Name] = loc
	}

	return Game{
		Name: name, items: items, itemsByName: itemsByName,
		locations: locations, locationsByName: locationsByName,
	}
}

// Item returns the item with the given id, if this game's data package
// defines one.
func (g Game) Item(id int64) (Item, bool) {
	it, ok := g.items[id]
	return it, ok
}

// ItemByName returns the item with the given name, if this game's data
// package defines one.
func (g Game) ItemByName(name string) (Item, bool) {
	it, ok := g.itemsByName[name]
	return it, ok
}

// Location returns the location with the given id, if this game's data
// package defines one.
func (g Game) Location(id int64) (Location, bool) {
	loc, ok := g.locations[id]
	return loc, ok
}

// LocationByName returns the location with the given name, if this game's
// data package defines one.
func (g Game) LocationByName(name string) (Location, bool) {
	loc, ok := g.locationsByName[name]
	return loc, ok
}

// Items returns every item defined for this game.
func (g Game) Items() []Item {
	out := make([]Item, 0, len(g.items))
	for _, it := range g.items {
		out = append(out, it)
	}
	return out
}

// Locations returns every location defined for this game.
func (g Game) Locations() []Location {
	out := make([]Location, 0, len(g.locations))
	for _, loc := range g.locations {
		out = append(out, loc)
	}
	return out
}

func (g Game) String() string {
	return fmt.Sprintf("%s (%d items, %d locations)", g.Name, len(g.items), len(g.locations))
}
