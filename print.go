package archipelago

import (
	"fmt"

	"github.com/michael4d45/archipelago/internal/protocol"
)

// hydrateRichPrint resolves a PrintJSON message's text segments against the
// session (player/item/location lookups), per §4.D's PrintJSON row.
func hydrateRichPrint(s *session, rp protocol.RichPrint) (PrintMessage, error) {
	segments := make([]PrintSegment, 0, len(rp.Data))
	for _, seg := range rp.Data {
		hydrated, err := hydrateSegment(s, seg)
		if err != nil {
			return PrintMessage{}, err
		}
		segments = append(segments, hydrated)
	}
	return PrintMessage{Segments: segments}, nil
}

func hydrateSegment(s *session, seg protocol.NetworkText) (PrintSegment, error) {
	switch seg.Type {
	case protocol.TextPlayerID:
		slot, err := parseSegmentSlot(seg.Text)
		if err != nil {
			return PrintSegment{}, err
		}
		player, ok := s.playerByTeamSlot(s.thisPlayer().Team, slot)
		if !ok {
			return PrintSegment{}, &ProtocolError{Kind: ErrMissingPlayer, Team: s.thisPlayer().Team, Slot: slot}
		}
		return PrintSegment{Kind: SegmentPlayer, Player: player}, nil

	case protocol.TextItemID:
		itemID, err := parseSegmentID(seg.Text)
		if err != nil {
			return PrintSegment{}, err
		}
		var player Player
		if seg.Player != nil {
			if p, ok := s.playerByTeamSlot(s.thisPlayer().Team, *seg.Player); ok {
				player = p
			}
		}
		game := s.thisGame()
		if player.Game != "" {
			if g, ok := s.gameByName(player.Game); ok {
				game = g
			}
		}
		item, ok := game.Item(itemID)
		if !ok {
			return PrintSegment{}, &ProtocolError{Kind: ErrMissingItem, ItemID: itemID, Game: game.Name}
		}
		flags := protocol.NetworkItemFlags(0)
		if seg.Flags != nil {
			flags = *seg.Flags
		}
		return PrintSegment{Kind: SegmentItem, Item: LocatedItem{Item: item, Sender: player, Receiver: player, flags: flags}}, nil

	case protocol.TextLocationID:
		locID, err := parseSegmentID(seg.Text)
		if err != nil {
			return PrintSegment{}, err
		}
		var player Player
		if seg.Player != nil {
			if p, ok := s.playerByTeamSlot(s.thisPlayer().Team, *seg.Player); ok {
				player = p
			}
		}
		loc, ok := wellKnownLocation(locID)
		if !ok {
			game := s.thisGame()
			if player.Game != "" {
				if g, ok := s.gameByName(player.Game); ok {
					game = g
				}
			}
			loc, ok = game.Location(locID)
			if !ok {
				return PrintSegment{}, &ProtocolError{Kind: ErrMissingLocation, LocID: locID, Game: game.Name}
			}
		}
		return PrintSegment{Kind: SegmentLocation, Location: loc}, nil

	case protocol.TextEntranceName:
		return PrintSegment{Kind: SegmentEntranceName, Text: seg.Text}, nil

	case protocol.TextColorKind:
		return PrintSegment{Kind: SegmentColor, Text: seg.Text, Color: seg.Color}, nil

	default:
		return PrintSegment{Kind: SegmentPlain, Text: seg.Text}, nil
	}
}

func parseSegmentSlot(text string) (uint32, error) {
	n, err := parseSegmentID(text)
	if err != nil {
		return 0, err
	}
	return uint32(n), nil
}

func parseSegmentID(text string) (int64, error) {
	var n int64
	if _, err := fmt.Sscan(text, &n); err != nil {
		return 0, &ProtocolError{Kind: ErrDeserialize, Cause: err}
	}
	return n, nil
}
