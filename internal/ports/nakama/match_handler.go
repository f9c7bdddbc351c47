package nakama

import (
	"context"
	"database/sql"
	"errors"
	"math/rand"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"
	"google.golang.org/protobuf/types/known/structpb"

	"guinote/internal/app"
	"guinote/internal/bot"
	"guinote/internal/config"
	"guinote/internal/domain"
	"guinote/internal/ports"
)

const (
	labelLobby    = "lobby"
	labelPlaying  = "playing"
	labelFinished = "finished"
)

// MatchState holds the authoritative runtime state for the Nakama match handler.
type MatchState struct {
	Seats            [4]string                   `json:"seats"`               // user ids, empty string means seat is empty
	Names            [4]string                   `json:"names"`               // display names by seat
	OwnerSeat        int                         `json:"owner_seat"`          // seat of the connected human who may start the game
	Tick             int64                       `json:"tick"`                // current match tick
	Presences        map[string]runtime.Presence `json:"-"`                   // user id -> presence for targeted messaging
	App              *app.Service                `json:"-"`                   // game use-cases
	Game             *domain.GameState           `json:"-"`                   // nil while in lobby
	Rules            domain.Rules                `json:"rules"`               // house rules the match is played with
	Roster           *bot.Roster                 `json:"-"`                   // identities used to fill seats
	BotLevel         bot.BotLevel                `json:"bot_level"`           // fallback strategy for bots
	BotsEnabled      bool                        `json:"bots_enabled"`        // whether empty seats get bots
	BotMinDelay      int                         `json:"bot_min_delay"`       // min ticks a bot waits
	BotMaxDelay      int                         `json:"bot_max_delay"`       // max ticks a bot waits
	BotAutoFillDelay int                         `json:"bot_auto_fill_delay"` // ticks a lobby waits before filling with bots
	BotWaitUntil     int64                       `json:"bot_wait_until"`      // tick when the bot to move should act
	WaitingSince     int64                       `json:"waiting_since"`       // tick the lobby started waiting for players
	Bots             map[string]*bot.Agent       `json:"-"`                   // bots, and humans who left mid-game
	Stats            ports.StatsPort             `json:"-"`                   // match records, may be nil

	rng *rand.Rand
}

func (ms *MatchState) GetOpenSeatsCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat == "" {
			count++
		}
	}
	return count
}

func (ms *MatchState) GetOccupiedSeatCount() int {
	return len(ms.Seats) - ms.GetOpenSeatsCount()
}

func (ms *MatchState) GetHumanPlayerCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat != "" && !ms.isBot(seat) {
			count++
		}
	}
	return count
}

// isBot reports whether userID belongs to the bot roster.
func (ms *MatchState) isBot(userID string) bool {
	return ms.Roster != nil && ms.Roster.IsBot(userID)
}

func (ms *MatchState) seatOf(userID string) int {
	if userID == "" {
		return domain.NoSeat
	}
	for i, id := range ms.Seats {
		if id == userID {
			return i
		}
	}
	return domain.NoSeat
}

// firstConnectedSeat returns the first seat whose occupant is connected, or NoSeat.
func (ms *MatchState) firstConnectedSeat() int {
	for i, id := range ms.Seats {
		if _, ok := ms.Presences[id]; ok && id != "" {
			return i
		}
	}
	return domain.NoSeat
}

func (ms *MatchState) inProgress() bool {
	return ms.Game != nil && ms.Game.Phase != domain.PhaseGameOver
}

// shouldTerminate reports whether nobody is connected any more.
func (ms *MatchState) shouldTerminate() bool {
	return len(ms.Presences) == 0
}

func (ms *MatchState) newRNG() *rand.Rand {
	return rand.New(rand.NewSource(ms.rng.Int63()))
}

// botDelay draws the number of ticks the next bot waits.
func (ms *MatchState) botDelay() int64 {
	lo, hi := ms.BotMinDelay, ms.BotMaxDelay
	if hi < lo {
		hi = lo
	}
	return int64(lo + ms.rng.Intn(hi-lo+1))
}

type matchHandler struct {
	cfg    config.Config
	roster *bot.Roster
	stats  func(runtime.NakamaModule) ports.StatsPort
}

func newMatchHandler(cfg config.Config, roster *bot.Roster, stats func(runtime.NakamaModule) ports.StatsPort) *matchHandler {
	if roster == nil {
		roster = bot.DefaultRoster()
	}
	return &matchHandler{cfg: cfg, roster: roster, stats: stats}
}

// msToTicks converts a delay to match ticks, at least one.
func msToTicks(ms int) int {
	ticks := ms * TickRate / 1000
	if ticks < 1 {
		return 1
	}
	return ticks
}

// MatchInit is called when the match is created. params may carry "bots": false to keep
// bots out of the match.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing match handler.")

	level, err := bot.ParseLevel(mh.cfg.Bots.Level)
	if err != nil {
		logger.Warn("MatchInit: %v, using random bots", err)
		level = bot.BotLevelRandom
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	state := &MatchState{
		Presences:        make(map[string]runtime.Presence),
		App:              app.NewService(rand.New(rand.NewSource(rng.Int63())), logger).WithValidation(mh.cfg.Server.Validate),
		OwnerSeat:        domain.NoSeat,
		Rules:            mh.cfg.DomainRules(),
		Roster:           mh.roster,
		BotLevel:         level,
		BotsEnabled:      true,
		BotMinDelay:      msToTicks(mh.cfg.Bots.MinActionDelayMs),
		BotMaxDelay:      msToTicks(mh.cfg.Bots.MaxActionDelayMs),
		BotAutoFillDelay: mh.cfg.Bots.AutoFillDelaySeconds * TickRate,
		Bots:             make(map[string]*bot.Agent),
		rng:              rng,
	}
	if v, ok := params["bots"].(bool); ok {
		state.BotsEnabled = v
	}
	if mh.stats != nil && nk != nil {
		state.Stats = mh.stats(nk)
	}

	label, err := encodeLabel(MatchLabel{Game: "guinote", Open: state.GetOpenSeatsCount(), State: labelLobby})
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}
	return state, TickRate, label
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	ms, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}
	if ms.seatOf(presence.GetUserId()) != domain.NoSeat {
		return ms, true, ""
	}
	if ms.Game != nil {
		return ms, false, "match_in_progress"
	}
	if ms.GetOpenSeatsCount() > 0 {
		return ms, true, ""
	}
	for _, seat := range ms.Seats {
		if ms.isBot(seat) {
			return ms, true, ""
		}
	}
	return ms, false, "match_full"
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	ms, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	var rejoined []string
	for _, p := range presences {
		uid := p.GetUserId()
		ms.Presences[uid] = p

		if seat := ms.seatOf(uid); seat != domain.NoSeat {
			if _, ok := ms.Bots[uid]; ok && !ms.isBot(uid) {
				logger.Info("MatchJoin: User %s is back in seat %d, taking over from the bot.", uid, seat)
				delete(ms.Bots, uid)
			}
			rejoined = append(rejoined, uid)
			continue
		}

		assigned := domain.NoSeat
		for i, seatUserID := range ms.Seats {
			if seatUserID == "" {
				assigned = i
				break
			}
		}
		if assigned == domain.NoSeat && ms.Game == nil {
			for i, seatUserID := range ms.Seats {
				if ms.isBot(seatUserID) {
					logger.Info("MatchJoin: Replacing bot %s with human %s in seat %d", seatUserID, uid, i)
					delete(ms.Bots, seatUserID)
					assigned = i
					break
				}
			}
		}
		if assigned == domain.NoSeat {
			logger.Warn("MatchJoin: User %s joined but no seat (empty or bot) was available.", uid)
			continue
		}
		ms.Seats[assigned] = uid
		ms.Names[assigned] = p.GetUsername()
	}

	if _, ok := ms.Presences[ms.seatUser(ms.OwnerSeat)]; !ok {
		ms.OwnerSeat = ms.firstConnectedSeat()
		logger.Debug("MatchJoin: Owner set to seat %d.", ms.OwnerSeat)
	}

	mh.updateLabel(ms, dispatcher, logger)
	mh.broadcastMatchState(ms, dispatcher, logger)
	for _, uid := range rejoined {
		mh.sendView(ms, dispatcher, logger, uid)
	}
	return ms
}

func (ms *MatchState) seatUser(seat int) string {
	if seat < 0 || seat >= len(ms.Seats) {
		return ""
	}
	return ms.Seats[seat]
}

// MatchLeave frees lobby seats. Mid-game the seat is kept and a bot plays it until the
// player rejoins.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	ms, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		uid := p.GetUserId()
		delete(ms.Presences, uid)
		seat := ms.seatOf(uid)
		if seat == domain.NoSeat {
			continue
		}
		if !ms.inProgress() {
			// A finished match goes back to the lobby so the seat can be refilled.
			ms.Game = nil
			ms.Seats[seat] = ""
			ms.Names[seat] = ""
			delete(ms.Bots, uid)
			logger.Debug("MatchLeave: User %s left, seat %d freed.", uid, seat)
			continue
		}
		identity := bot.BotIdentity{UserID: uid, DisplayName: ms.Names[seat]}
		agent, err := bot.NewAgent(identity, ms.BotLevel, ms.newRNG())
		if err != nil {
			logger.Error("MatchLeave: Failed to create stand-in for %s: %v", uid, err)
			continue
		}
		ms.Bots[uid] = agent
		logger.Info("MatchLeave: User %s left seat %d mid-game, a bot plays for them.", uid, seat)
	}

	if ms.shouldTerminate() {
		logger.Info("MatchLeave: Terminating match with nobody connected.")
		return nil
	}

	if _, ok := ms.Presences[ms.seatUser(ms.OwnerSeat)]; !ok {
		ms.OwnerSeat = ms.firstConnectedSeat()
		logger.Debug("MatchLeave: Owner set to seat %d.", ms.OwnerSeat)
	}

	mh.updateLabel(ms, dispatcher, logger)
	mh.broadcastMatchState(ms, dispatcher, logger)
	return ms
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	ms, ok := state.(*MatchState)
	if !ok {
		return state
	}

	ms.Tick = tick

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpStartGame:
			mh.handleStartGame(ctx, ms, dispatcher, logger, msg)
		case OpPlayCard:
			mh.handleMove(ctx, ms, dispatcher, logger, msg, func(req *moveRequest) (*domain.GameState, []app.Event, error) {
				card, err := cardFromRequest(req.body)
				if err != nil {
					return nil, nil, err
				}
				return ms.App.PlayCard(ms.Game, req.userID, card)
			})
		case OpDeclareMeld:
			mh.handleMove(ctx, ms, dispatcher, logger, msg, func(req *moveRequest) (*domain.GameState, []app.Event, error) {
				suit, err := suitFromRequest(req.body)
				if err != nil {
					return nil, nil, err
				}
				return ms.App.DeclareMeld(ms.Game, req.userID, suit)
			})
		case OpExchangeSeven:
			mh.handleMove(ctx, ms, dispatcher, logger, msg, func(req *moveRequest) (*domain.GameState, []app.Event, error) {
				return ms.App.ExchangeSeven(ms.Game, req.userID)
			})
		case OpNextHand:
			mh.handleMove(ctx, ms, dispatcher, logger, msg, func(req *moveRequest) (*domain.GameState, []app.Event, error) {
				return ms.App.NextHand(ms.Game)
			})
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	mh.processBots(ctx, ms, dispatcher, logger)
	return ms
}

func (mh *matchHandler) processBots(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	// 1. Fill the lobby with bots once humans have waited long enough.
	if state.Game == nil && state.BotsEnabled {
		if state.GetHumanPlayerCount() == 0 || state.GetOpenSeatsCount() == 0 {
			state.WaitingSince = 0
		} else {
			if state.WaitingSince == 0 {
				state.WaitingSince = state.Tick
				logger.Debug("processBots: Open seats detected, starting auto-fill timer.")
			}
			if state.Tick-state.WaitingSince >= int64(state.BotAutoFillDelay) {
				mh.fillSeats(state, logger)
				state.WaitingSince = 0
				mh.updateLabel(state, dispatcher, logger)
				mh.broadcastMatchState(state, dispatcher, logger)
			}
		}
	}

	// 2. Let the bot whose turn it is act after its delay.
	if state.Game == nil || !state.Game.InPlay() {
		state.BotWaitUntil = 0
		return
	}
	currentUserID := state.Seats[state.Game.CurrentPlayer]
	agent, ok := state.Bots[currentUserID]
	if !ok {
		state.BotWaitUntil = 0
		return
	}
	if state.BotWaitUntil == 0 {
		state.BotWaitUntil = state.Tick + state.botDelay()
		logger.Debug("processBots: Bot %s (seat %d) will act at tick %d (current %d)", currentUserID, state.Game.CurrentPlayer, state.BotWaitUntil, state.Tick)
	}
	if state.Tick < state.BotWaitUntil {
		return
	}
	state.BotWaitUntil = 0

	next, events, move, err := agent.Act(state.App, state.Game)
	if err != nil {
		logger.Error("processBots: Bot %s failed to %s: %v", currentUserID, move.Kind, err)
		return
	}
	mh.apply(ctx, state, dispatcher, logger, next, events)
}

// fillSeats seats roster bots in every empty seat.
func (mh *matchHandler) fillSeats(state *MatchState, logger runtime.Logger) {
	taken := map[string]bool{}
	for _, id := range state.Seats {
		taken[id] = true
	}
	for i, seat := range state.Seats {
		if seat != "" {
			continue
		}
		identity, ok := state.Roster.PickFree(taken)
		if !ok {
			logger.Warn("processBots: Roster exhausted, seat %d stays empty", i)
			return
		}
		taken[identity.UserID] = true
		agent, err := bot.NewAgent(identity, state.BotLevel, state.newRNG())
		if err != nil {
			logger.Error("Failed to create bot agent for %s: %v", identity.UserID, err)
			continue
		}
		state.Seats[i] = agent.ID
		state.Names[i] = agent.Name
		state.Bots[agent.ID] = agent
		logger.Info("processBots: Added bot %s (%s) to seat %d", agent.Name, agent.ID, i)
	}
}

func (mh *matchHandler) handleStartGame(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	senderSeat := state.seatOf(senderID)

	logger.Info("StartGame: Request received from %s (seat=%d, owner_seat=%d, occupied=%d)", senderID, senderSeat, state.OwnerSeat, state.GetOccupiedSeatCount())

	if senderSeat == domain.NoSeat || senderSeat != state.OwnerSeat {
		logger.Warn("StartGame: User %s tried to start game but is not owner (owner_seat=%d)", senderID, state.OwnerSeat)
		mh.sendError(state, dispatcher, logger, senderID, errForbidden, "only the owner can start the game")
		return
	}
	if state.inProgress() {
		mh.sendError(state, dispatcher, logger, senderID, errConflict, "game already in progress")
		return
	}
	if state.GetOpenSeatsCount() > 0 {
		logger.Warn("StartGame: Cannot start with %d players.", state.GetOccupiedSeatCount())
		mh.sendError(state, dispatcher, logger, senderID, errConflict, "four players are needed")
		return
	}

	players := make([]domain.Player, len(state.Seats))
	for i, id := range state.Seats {
		players[i] = domain.Player{ID: id, Name: state.Names[i]}
	}
	game, events, err := state.App.StartMatch(players, app.FirstDealer, state.Rules)
	if err != nil {
		logger.Error("StartGame: Failed to start game: %v", err)
		mh.sendError(state, dispatcher, logger, senderID, errorCode(err), err.Error())
		return
	}
	mh.apply(ctx, state, dispatcher, logger, game, events)
	logger.Info("StartGame: Match started.")
}

type moveRequest struct {
	userID string
	body   *structpb.Struct
}

// handleMove decodes a client move and runs it against the live game.
func (mh *matchHandler) handleMove(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData, fn func(*moveRequest) (*domain.GameState, []app.Event, error)) {
	senderID := msg.GetUserId()
	if state.Game == nil {
		logger.Warn("handleMove: Game not started.")
		mh.sendError(state, dispatcher, logger, senderID, errConflict, "game not started")
		return
	}
	body, err := decodeRequest(msg.GetData())
	if err != nil {
		logger.Warn("handleMove: User %s sent op %d: %v", senderID, msg.GetOpCode(), err)
		mh.sendError(state, dispatcher, logger, senderID, errBadRequest, err.Error())
		return
	}
	if state.seatOf(senderID) == domain.NoSeat {
		mh.sendError(state, dispatcher, logger, senderID, errForbidden, domain.ErrUnknownPlayer.Error())
		return
	}
	next, events, err := fn(&moveRequest{userID: senderID, body: body})
	if err != nil {
		logger.Warn("handleMove: User %s (seat %d) op %d failed: %v", senderID, state.seatOf(senderID), msg.GetOpCode(), err)
		mh.sendError(state, dispatcher, logger, senderID, errorCode(err), err.Error())
		return
	}
	mh.apply(ctx, state, dispatcher, logger, next, events)
}

// apply installs next as the live game and dispatches events.
func (mh *matchHandler) apply(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, next *domain.GameState, events []app.Event) {
	started := state.Game == nil || state.Game.Phase == domain.PhaseGameOver
	state.Game = next
	for _, ev := range events {
		mh.broadcastEvent(state, dispatcher, logger, ev)
	}
	if next.Phase == domain.PhaseGameOver {
		mh.recordMatch(ctx, state, logger)
		mh.updateLabel(state, dispatcher, logger)
	} else if started {
		mh.updateLabel(state, dispatcher, logger)
	}
}

// recordMatch stores the result for the human players.
func (mh *matchHandler) recordMatch(ctx context.Context, state *MatchState, logger runtime.Logger) {
	if state.Stats == nil || state.Game.MatchWinner == domain.NoSeat {
		return
	}
	rec := ports.MatchRecord{}
	if id, ok := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string); ok {
		rec.MatchID = id
	}
	for _, p := range state.Game.Players {
		if state.isBot(p.ID) {
			continue
		}
		if p.Team == state.Game.MatchWinner {
			rec.Winners = append(rec.Winners, p.ID)
		} else {
			rec.Losers = append(rec.Losers, p.ID)
		}
	}
	if err := state.Stats.RecordMatch(ctx, rec); err != nil {
		logger.Error("Failed to record match result: %v", err)
	}
}

// broadcastEvent dispatches one service event, privately when it has recipients.
func (mh *matchHandler) broadcastEvent(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	opCode, ok := eventOpCodes[ev.Kind]
	if !ok {
		logger.Warn("Unknown event kind: %v", ev.Kind)
		return
	}
	data, err := encodePayload(ev.Payload)
	if err != nil {
		logger.Error("Failed to marshal event %v: %v", ev.Kind, err)
		return
	}

	var recipients []runtime.Presence
	if ev.Private() {
		for _, uid := range ev.Recipients {
			if p, ok := state.Presences[uid]; ok {
				recipients = append(recipients, p)
			}
		}
		// Intended for someone who is not connected (a bot); never fall back to a broadcast.
		if len(recipients) == 0 {
			return
		}
	}
	if err := dispatcher.BroadcastMessage(opCode, data, recipients, nil, true); err != nil {
		logger.Error("Failed to dispatch event %v: %v", ev.Kind, err)
	}
}

type seatInfo struct {
	UserID      string `json:"user_id"`
	Seat        int    `json:"seat"`
	DisplayName string `json:"display_name"`
	IsOwner     bool   `json:"is_owner"`
	IsBot       bool   `json:"is_bot"`
	Connected   bool   `json:"connected"`
	HandSize    int    `json:"hand_size"`
}

type matchSnapshot struct {
	Seats     [4]string  `json:"seats"`
	OwnerSeat int        `json:"owner_seat"`
	Tick      int64      `json:"tick"`
	Phase     string     `json:"phase"`
	Players   []seatInfo `json:"players"`
}

func (mh *matchHandler) broadcastMatchState(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	snapshot := matchSnapshot{
		Seats:     state.Seats,
		OwnerSeat: state.OwnerSeat,
		Tick:      state.Tick,
		Phase:     labelLobby,
		Players:   []seatInfo{},
	}
	if state.Game != nil {
		snapshot.Phase = string(state.Game.Phase)
	}
	for i, userID := range state.Seats {
		if userID == "" {
			continue
		}
		_, connected := state.Presences[userID]
		info := seatInfo{
			UserID:      userID,
			Seat:        i,
			DisplayName: state.Names[i],
			IsOwner:     i == state.OwnerSeat,
			IsBot:       state.isBot(userID),
			Connected:   connected,
		}
		if state.Game != nil {
			info.HandSize = len(state.Game.Hands[i])
		}
		snapshot.Players = append(snapshot.Players, info)
	}
	data, err := encodePayload(snapshot)
	if err != nil {
		logger.Error("Failed to marshal match state: %v", err)
		return
	}
	dispatcher.BroadcastMessage(OpMatchState, data, nil, nil, true)
}

// sendView sends userID its seat view of the live game, e.g. after a reconnect.
func (mh *matchHandler) sendView(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string) {
	presence, ok := state.Presences[userID]
	if !ok || state.Game == nil {
		return
	}
	data, err := encodePayload(app.ViewFor(state.Game, userID))
	if err != nil {
		logger.Error("Failed to marshal view for %s: %v", userID, err)
		return
	}
	dispatcher.BroadcastMessage(OpPlayerView, data, []runtime.Presence{presence}, nil, true)
}

const (
	errBadRequest = 400
	errForbidden  = 403
	errConflict   = 409
	errInternal   = 500
)

// errorCode maps engine errors to the codes sent in OpGameError.
func errorCode(err error) int {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, domain.ErrInvalidCard), errors.Is(err, domain.ErrInvalidPlayers):
		return errBadRequest
	case errors.Is(err, domain.ErrUnknownPlayer):
		return errForbidden
	case errors.Is(err, domain.ErrTeamNotFound), errors.Is(err, app.ErrNoGame):
		return errInternal
	default:
		return errConflict
	}
}

// sendError sends a game error to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, code int, message string) {
	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("Cannot send error to %s: Presence not found", userID)
		return
	}
	data, err := encodePayload(map[string]interface{}{"code": code, "message": message})
	if err != nil {
		logger.Error("Failed to marshal game error: %v", err)
		return
	}
	dispatcher.BroadcastMessage(OpGameError, data, []runtime.Presence{presence}, nil, true)
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	phase := labelLobby
	if state.Game != nil {
		phase = labelPlaying
		if state.Game.Phase == domain.PhaseGameOver {
			phase = labelFinished
		}
	}
	label, err := encodeLabel(MatchLabel{Game: "guinote", Open: state.GetOpenSeatsCount(), State: phase})
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	logger.Debug("MatchTerminate: Match terminated with %d seconds grace", graceSeconds)
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
