package nakama

const (
	// RpcQuickMatch is the Nakama RPC id clients call to find or create a lobby-capable match.
	RpcQuickMatch = "quick_match"

	// RpcGetStats returns the caller's match record.
	RpcGetStats = "get_stats"

	// MatchNameGuinote is the authoritative match handler name registered with Nakama.
	MatchNameGuinote = "guinote_match"

	// TickRate is the number of match loop ticks per second.
	TickRate = 5
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpStartGame     int64 = 1
	OpPlayCard      int64 = 2
	OpDeclareMeld   int64 = 3
	OpExchangeSeven int64 = 4
	OpNextHand      int64 = 5

	// Server -> Client events
	OpMatchState      int64 = 100
	OpHandStarted     int64 = 101
	OpHandDealt       int64 = 102 // send privately
	OpCardPlayed      int64 = 103
	OpTrickWon        int64 = 104
	OpCardsDrawn      int64 = 105 // send privately
	OpArrastreStarted int64 = 106
	OpMeldDeclared    int64 = 107
	OpSevenExchanged  int64 = 108
	OpHandEnded       int64 = 109
	OpMatchEnded      int64 = 110
	OpPlayerView      int64 = 111 // send privately
	OpGameError       int64 = 112
)
