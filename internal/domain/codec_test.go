package domain

import (
	"encoding/json"
	"testing"
)

func TestCodecRoundTrip(t *testing.T) {
	var states []*GameState
	randomPlayout(t, 3, func(_, next *GameState) { states = append(states, next) })

	for i, s := range states {
		decoded, err := Decode(Encode(s))
		if err != nil {
			t.Fatalf("step %d: Decode() error = %v", i, err)
		}
		if !Equal(decoded, s) {
			t.Fatalf("step %d: Decode(Encode(s)) differs from s", i)
		}

		data, err := Marshal(s)
		if err != nil {
			t.Fatalf("step %d: Marshal() error = %v", i, err)
		}
		fromJSON, err := Unmarshal(data)
		if err != nil {
			t.Fatalf("step %d: Unmarshal() error = %v", i, err)
		}
		if !Equal(fromJSON, s) {
			t.Fatalf("step %d: JSON round trip differs", i)
		}
		if res := Validate(fromJSON); !res.Valid {
			t.Fatalf("step %d: decoded state invalid: %v", i, res.Errors)
		}
	}
}

func TestEncodeOrdersRecords(t *testing.T) {
	snap := Encode(meldWindow(t))
	for i, h := range snap.Hands {
		if h.Seat != i || h.PlayerID != snap.Players[i].ID {
			t.Fatalf("Hands[%d] = seat %d player %s", i, h.Seat, h.PlayerID)
		}
	}
	for i, rec := range snap.TeamTricks {
		if rec.Key != i {
			t.Fatalf("TeamTricks[%d].Key = %d", i, rec.Key)
		}
	}
	if len(snap.TeamTricks[1].Tricks) != 1 || len(snap.TeamTricks[0].Tricks) != 0 {
		t.Fatalf("TeamTricks = %+v", snap.TeamTricks)
	}
	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if raw["trump_suit"] != "copas" || raw["trump_card"] != "copas-6" {
		t.Fatalf("trump fields = %v / %v", raw["trump_suit"], raw["trump_card"])
	}
}

func TestDecodeRejectsBadSnapshots(t *testing.T) {
	good := Encode(dealtGame(t))

	badVersion := good
	badVersion.Version = 99
	if _, err := Decode(badVersion); err == nil {
		t.Fatalf("Decode() accepted version 99")
	}

	badCard := Encode(dealtGame(t))
	badCard.DrawPile[3] = "oros-9"
	if _, err := Decode(badCard); err == nil {
		t.Fatalf("Decode() accepted oros-9")
	}

	badSeat := Encode(dealtGame(t))
	badSeat.Hands[0].Seat = 5
	if _, err := Decode(badSeat); err == nil {
		t.Fatalf("Decode() accepted seat 5")
	}
}
