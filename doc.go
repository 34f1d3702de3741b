// Package archipelago is a client library for the Archipelago multiworld
// randomizer network protocol: connection lifecycle, session state, and
// the inbound/outbound message dispatch loop.
package archipelago
