package brain

import (
	"testing"

	"guinote/internal/domain"
)

func TestCardToIndexCoversDeck(t *testing.T) {
	seen := make(map[int]bool)
	for _, c := range domain.NewDeck() {
		idx := cardToIndex(c)
		if idx < 0 || idx >= domain.DeckSize || seen[idx] {
			t.Fatalf("cardToIndex(%s) = %d, duplicate or out of range", c, idx)
		}
		seen[idx] = true
	}
}

func TestIsBoss(t *testing.T) {
	as := domain.Card{Suit: domain.Oros, Rank: domain.As}
	tres := domain.Card{Suit: domain.Oros, Rank: domain.Tres}
	rey := domain.Card{Suit: domain.Oros, Rank: domain.Rey}

	tests := []struct {
		name   string
		mine   []domain.Card
		played []domain.Card
		card   domain.Card
		want   bool
	}{
		{name: "as is always boss", card: as, want: true},
		{name: "tres behind unseen as", card: tres, want: false},
		{name: "tres after as played", played: []domain.Card{as}, card: tres, want: true},
		{name: "rey with as and tres in hand", mine: []domain.Card{as, tres}, card: rey, want: true},
		{name: "rey with tres unseen", mine: []domain.Card{as}, card: rey, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMemory()
			m.MarkMine(tt.mine)
			m.MarkPlayed(tt.played)
			if got := m.IsBoss(tt.card); got != tt.want {
				t.Fatalf("IsBoss(%s) = %v, want %v", tt.card, got, tt.want)
			}
		})
	}
}

func TestObserve(t *testing.T) {
	s, err := domain.CreateInitialGameState([]domain.Player{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}, 0)
	if err != nil {
		t.Fatalf("CreateInitialGameState() error = %v", err)
	}
	s, err = domain.DealInitial(s)
	if err != nil {
		t.Fatalf("DealInitial() error = %v", err)
	}

	m := NewMemory()
	m.Observe(s, 0)
	if got := m.Status(*s.TrumpCard); got != StatusExposed {
		t.Fatalf("trump status = %v, want exposed", got)
	}
	for _, c := range s.Hands[0] {
		if m.Status(c) != StatusMine {
			t.Fatalf("Status(%s) = %v, want mine", c, m.Status(c))
		}
	}
	// copas: seat 0 holds 11, 10, 7; seat 1 holds 12; 6 is exposed.
	if got := m.Outstanding(domain.Copas); got != 6 {
		t.Fatalf("Outstanding(copas) = %d, want 6", got)
	}
}
