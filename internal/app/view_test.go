package app

import (
	"encoding/json"
	"strings"
	"testing"

	"guinote/internal/domain"
)

func TestViewForHidesOtherHands(t *testing.T) {
	state := orderedDeal(t)

	v := ViewFor(state, "u3")
	if v.Seat != 3 || len(v.Hand) != domain.HandSize {
		t.Fatalf("view seat/hand = %d/%d, want 3/%d", v.Seat, len(v.Hand), domain.HandSize)
	}
	if v.HandSizes != [4]int{6, 6, 6, 6} || v.PileSize != domain.DeckSize-24 {
		t.Fatalf("counts = %v pile %d, want all six and pile 16", v.HandSizes, v.PileSize)
	}
	if len(v.LegalCards) != domain.HandSize {
		t.Fatalf("legal cards = %d, want whole hand for the leader", len(v.LegalCards))
	}

	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	for _, field := range []string{"draw_pile", "hands"} {
		if strings.Contains(string(raw), `"`+field+`"`) {
			t.Fatalf("view JSON exposes %q", field)
		}
	}
	for seat := 0; seat < 3; seat++ {
		for _, c := range state.Hands[seat] {
			if domain.ContainsCard(v.Hand, c) {
				t.Fatalf("view of seat 3 holds %s from seat %d", c, seat)
			}
		}
	}
}

func TestViewForSpectator(t *testing.T) {
	state := orderedDeal(t)

	v := ViewFor(state, "watcher")
	if v.Seat != domain.NoSeat || len(v.Hand) != 0 || len(v.LegalCards) != 0 {
		t.Fatalf("spectator view = seat %d hand %v legal %v, want no seat and nothing private", v.Seat, v.Hand, v.LegalCards)
	}
	if v.TrumpCard == nil || *v.TrumpCard != *state.TrumpCard {
		t.Fatalf("trump = %v, want %v", v.TrumpCard, state.TrumpCard)
	}
}
