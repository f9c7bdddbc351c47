package domain

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
)

// Suit is one of the four Spanish-deck suits.
type Suit int

const (
	Oros Suit = iota
	Copas
	Espadas
	Bastos
)

// Suits lists every suit in deck order.
var Suits = []Suit{Oros, Copas, Espadas, Bastos}

var suitNames = [...]string{"oros", "copas", "espadas", "bastos"}

func (s Suit) String() string {
	if !s.Valid() {
		return "suit(" + strconv.Itoa(int(s)) + ")"
	}
	return suitNames[s]
}

// Valid reports whether s is one of the four suits.
func (s Suit) Valid() bool {
	return s >= Oros && s <= Bastos
}

// ParseSuit maps a suit name to a Suit.
func ParseSuit(name string) (Suit, error) {
	for i, n := range suitNames {
		if strings.EqualFold(n, name) {
			return Suit(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown suit %q", ErrInvalidCard, name)
}

func (s Suit) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: suit %d", ErrInvalidCard, int(s))
	}
	return []byte(s.String()), nil
}

func (s *Suit) UnmarshalText(text []byte) error {
	parsed, err := ParseSuit(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Named ranks. 8 and 9 are not part of the deck.
const (
	As      = 1
	Tres    = 3
	Siete   = 7
	Sota    = 10
	Caballo = 11
	Rey     = 12
)

// Ranks lists the ten ranks of each suit in ascending face value.
var Ranks = []int{1, 2, 3, 4, 5, 6, 7, Sota, Caballo, Rey}

// rank -> trick-taking strength, higher wins.
var strength = map[int]int{
	2: 1, 4: 2, 5: 3, 6: 4, 7: 5,
	Caballo: 6, Sota: 7, Rey: 8, Tres: 9, As: 10,
}

// rank -> card points; ranks not listed are worth nothing.
var points = map[int]int{
	As: 11, Tres: 10, Rey: 4, Sota: 3, Caballo: 2,
}

// DeckSize is the number of cards in a full deck.
const DeckSize = 40

// Card is a single card of the Spanish deck. Its identity is (Suit, Rank).
type Card struct {
	Suit Suit `json:"suit"`
	Rank int  `json:"rank"`
}

// ID renders the stable card id, e.g. "oros-1".
func (c Card) ID() string {
	return c.Suit.String() + "-" + strconv.Itoa(c.Rank)
}

func (c Card) String() string { return c.ID() }

// Valid reports whether c belongs to the 40-card deck.
func (c Card) Valid() bool {
	_, ok := strength[c.Rank]
	return ok && c.Suit.Valid()
}

// Points returns the card-point value of c.
func (c Card) Points() int {
	return points[c.Rank]
}

// Strength returns the trick-taking order of c within its suit: As > Tres > Rey > Sota > Caballo > 7 > ... > 2.
func (c Card) Strength() int {
	return strength[c.Rank]
}

// ParseCardID parses ids produced by Card.ID.
func ParseCardID(id string) (Card, error) {
	suitPart, rankPart, ok := strings.Cut(id, "-")
	if !ok {
		return Card{}, fmt.Errorf("%w: malformed id %q", ErrInvalidCard, id)
	}
	suit, err := ParseSuit(suitPart)
	if err != nil {
		return Card{}, err
	}
	rank, err := strconv.Atoi(rankPart)
	if err != nil {
		return Card{}, fmt.Errorf("%w: malformed rank in %q", ErrInvalidCard, id)
	}
	c := Card{Suit: suit, Rank: rank}
	if !c.Valid() {
		return Card{}, fmt.Errorf("%w: %q", ErrInvalidCard, id)
	}
	return c, nil
}

// NewDeck returns the ordered 40-card deck.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, s := range Suits {
		for _, r := range Ranks {
			deck = append(deck, Card{Suit: s, Rank: r})
		}
	}
	return deck
}

// ShuffleDeck returns a shuffled copy of the given deck.
func ShuffleDeck(deck []Card, rng *rand.Rand) []Card {
	out := make([]Card, len(deck))
	copy(out, deck)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// SortHand orders a hand by suit, then by ascending strength.
func SortHand(cards []Card) {
	sort.Slice(cards, func(i, j int) bool {
		if cards[i].Suit != cards[j].Suit {
			return cards[i].Suit < cards[j].Suit
		}
		return cards[i].Strength() < cards[j].Strength()
	})
}
