package domain

import "errors"

var (
	ErrInvalidCard         = errors.New("invalid card")
	ErrInvalidPlayers      = errors.New("exactly four players with unique ids required")
	ErrInvalidSeat         = errors.New("seat out of range")
	ErrWrongPhase          = errors.New("action not allowed in current phase")
	ErrUnknownPlayer       = errors.New("player not found")
	ErrNotYourTurn         = errors.New("not your turn")
	ErrCardNotInHand       = errors.New("card not in hand")
	ErrMustFollowSuit      = errors.New("must follow the led suit")
	ErrMustBeat            = errors.New("must play a card that beats the trick")
	ErrMustTrump           = errors.New("must play a trump")
	ErrTeamNotFound        = errors.New("team not found")
	ErrMeldNotAllowed      = errors.New("meld only allowed right after winning a trick")
	ErrMeldAlreadyDeclared = errors.New("meld already declared")
	ErrMeldCardsMissing    = errors.New("rey and sota of the suit required")
	ErrExchangeNotAllowed  = errors.New("trump seven exchange not allowed now")
	ErrMatchOver           = errors.New("match is over")
	ErrDeckNotFull         = errors.New("draw pile must hold the full deck before dealing")
)
