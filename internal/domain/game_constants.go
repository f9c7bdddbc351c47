package domain

const (
	DefaultTargetScore     = 101
	DefaultMinCardPoints   = 30
	DefaultLastTrickBonus  = 10
	DefaultMeldPoints      = 20
	DefaultTrumpMeldPoints = 40
	DefaultPartidasPerCoto = 3
	DefaultCotosPerMatch   = 2

	// HandSize is the number of cards each player holds while the pile lasts.
	HandSize = 6
	// MaxCardPoints is the sum of card points of the whole deck.
	MaxCardPoints = 120
)

// Rules holds the house-rule numbers of a match.
type Rules struct {
	TargetScore     int `json:"target_score"`
	MinCardPoints   int `json:"min_card_points"`
	LastTrickBonus  int `json:"last_trick_bonus"`
	MeldPoints      int `json:"meld_points"`
	TrumpMeldPoints int `json:"trump_meld_points"`
	PartidasPerCoto int `json:"partidas_per_coto"`
	CotosPerMatch   int `json:"cotos_per_match"`
}

// DefaultRules returns the standard Guiñote numbers.
func DefaultRules() Rules {
	return Rules{
		TargetScore:     DefaultTargetScore,
		MinCardPoints:   DefaultMinCardPoints,
		LastTrickBonus:  DefaultLastTrickBonus,
		MeldPoints:      DefaultMeldPoints,
		TrumpMeldPoints: DefaultTrumpMeldPoints,
		PartidasPerCoto: DefaultPartidasPerCoto,
		CotosPerMatch:   DefaultCotosPerMatch,
	}
}

// withDefaults fills zero fields from DefaultRules.
func (r Rules) withDefaults() Rules {
	d := DefaultRules()
	if r == (Rules{}) {
		return d
	}
	if r.TargetScore <= 0 {
		r.TargetScore = d.TargetScore
	}
	if r.MinCardPoints < 0 {
		r.MinCardPoints = d.MinCardPoints
	}
	if r.LastTrickBonus < 0 {
		r.LastTrickBonus = d.LastTrickBonus
	}
	if r.MeldPoints <= 0 {
		r.MeldPoints = d.MeldPoints
	}
	if r.TrumpMeldPoints <= 0 {
		r.TrumpMeldPoints = d.TrumpMeldPoints
	}
	if r.PartidasPerCoto <= 0 {
		r.PartidasPerCoto = d.PartidasPerCoto
	}
	if r.CotosPerMatch <= 0 {
		r.CotosPerMatch = d.CotosPerMatch
	}
	return r
}
