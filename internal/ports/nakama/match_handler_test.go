package nakama

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/heroiclabs/nakama-common/runtime"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"guinote/internal/bot"
	"guinote/internal/config"
	"guinote/internal/domain"
	"guinote/internal/ports"
)

// noopLogger implements runtime.Logger for tests that only need to satisfy the interface.
type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) WithField(string, interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) WithFields(map[string]interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) Fields() map[string]interface{} {
	return nil
}

type sentMessage struct {
	opCode    int64
	data      []byte
	presences []runtime.Presence
}

// mockDispatcher records match dispatcher calls for assertions.
type mockDispatcher struct {
	messages     []sentMessage
	labelUpdates int
	lastLabel    string
}

func (md *mockDispatcher) BroadcastMessage(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	md.messages = append(md.messages, sentMessage{opCode: opCode, data: append([]byte(nil), data...), presences: presences})
	return nil
}

func (md *mockDispatcher) BroadcastMessageDeferred(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	return nil
}

func (md *mockDispatcher) MatchKick(presences []runtime.Presence) error {
	return nil
}

func (md *mockDispatcher) MatchLabelUpdate(label string) error {
	md.labelUpdates++
	md.lastLabel = label
	return nil
}

func (md *mockDispatcher) withOp(op int64) []sentMessage {
	var out []sentMessage
	for _, m := range md.messages {
		if m.opCode == op {
			out = append(out, m)
		}
	}
	return out
}

type fakePresence struct {
	userID   string
	username string
}

func (p fakePresence) GetHidden() bool                   { return false }
func (p fakePresence) GetPersistence() bool              { return false }
func (p fakePresence) GetUsername() string               { return p.username }
func (p fakePresence) GetStatus() string                 { return "" }
func (p fakePresence) GetReason() runtime.PresenceReason { return 0 }
func (p fakePresence) GetUserId() string                 { return p.userID }
func (p fakePresence) GetSessionId() string              { return "session-" + p.userID }
func (p fakePresence) GetNodeId() string                 { return "node" }

type fakeMatchData struct {
	fakePresence
	opCode int64
	data   []byte
}

func (d fakeMatchData) GetOpCode() int64      { return d.opCode }
func (d fakeMatchData) GetData() []byte       { return d.data }
func (d fakeMatchData) GetReliable() bool     { return true }
func (d fakeMatchData) GetReceiveTime() int64 { return 0 }

type recordingStats struct {
	records []ports.MatchRecord
}

func (r *recordingStats) RecordMatch(_ context.Context, rec ports.MatchRecord) error {
	r.records = append(r.records, rec)
	return nil
}

func (r *recordingStats) GetStats(context.Context, string) (ports.PlayerStats, error) {
	return ports.PlayerStats{}, nil
}

func (r *recordingStats) InitStats(context.Context, string) (bool, error) {
	return true, nil
}

func newTestMatch(t *testing.T) (*matchHandler, *MatchState, *mockDispatcher) {
	t.Helper()
	cfg := config.Default()
	cfg.Bots.AutoFillDelaySeconds = 1
	cfg.Bots.MinActionDelayMs = 0
	cfg.Bots.MaxActionDelayMs = 0
	cfg.Server.Validate = true
	mh := newMatchHandler(*cfg, bot.DefaultRoster(), nil)
	state, tickRate, label := mh.MatchInit(context.Background(), noopLogger{}, nil, nil, map[string]interface{}{})
	if tickRate != TickRate {
		t.Fatalf("MatchInit() tick rate = %d, want %d", tickRate, TickRate)
	}
	if label == "" {
		t.Fatalf("MatchInit() returned an empty label")
	}
	ms := state.(*MatchState)
	ms.Stats = &recordingStats{}
	return mh, ms, &mockDispatcher{}
}

func join(mh *matchHandler, ms *MatchState, d *mockDispatcher, users ...string) {
	var presences []runtime.Presence
	for _, u := range users {
		presences = append(presences, fakePresence{userID: u, username: u})
	}
	mh.MatchJoin(context.Background(), noopLogger{}, nil, nil, d, ms.Tick, ms, presences)
}

func send(mh *matchHandler, ms *MatchState, d *mockDispatcher, user string, op int64, body map[string]interface{}) {
	var data []byte
	if body != nil {
		s, err := structpb.NewStruct(body)
		if err != nil {
			panic(err)
		}
		data, _ = proto.Marshal(s)
	}
	msg := fakeMatchData{fakePresence: fakePresence{userID: user, username: user}, opCode: op, data: data}
	mh.MatchLoop(context.Background(), noopLogger{}, nil, nil, d, ms.Tick+1, ms, []runtime.MatchData{msg})
}

func tick(mh *matchHandler, ms *MatchState, d *mockDispatcher) {
	mh.MatchLoop(context.Background(), noopLogger{}, nil, nil, d, ms.Tick+1, ms, nil)
}

func decodeStruct(t *testing.T, data []byte) map[string]interface{} {
	t.Helper()
	s := &structpb.Struct{}
	if err := proto.Unmarshal(data, s); err != nil {
		t.Fatalf("proto.Unmarshal() error = %v", err)
	}
	return s.AsMap()
}

func lastError(t *testing.T, d *mockDispatcher) float64 {
	t.Helper()
	errs := d.withOp(OpGameError)
	if len(errs) == 0 {
		t.Fatalf("no game error was sent")
	}
	return decodeStruct(t, errs[len(errs)-1].data)["code"].(float64)
}

func TestMatchInitLabel(t *testing.T) {
	mh := newMatchHandler(*config.Default(), nil, nil)
	_, _, label := mh.MatchInit(context.Background(), noopLogger{}, nil, nil, nil)

	var got MatchLabel
	if err := json.Unmarshal([]byte(label), &got); err != nil {
		t.Fatalf("label %q is not JSON: %v", label, err)
	}
	want := MatchLabel{Game: "guinote", Open: 4, State: labelLobby}
	if got != want {
		t.Fatalf("label = %+v, want %+v", got, want)
	}
}

func TestJoinAssignsSeatsAndOwner(t *testing.T) {
	mh, ms, d := newTestMatch(t)
	join(mh, ms, d, "user-1", "user-2")

	if ms.Seats[0] != "user-1" || ms.Seats[1] != "user-2" {
		t.Fatalf("Seats = %v", ms.Seats)
	}
	if ms.OwnerSeat != 0 {
		t.Fatalf("OwnerSeat = %d, want 0", ms.OwnerSeat)
	}
	if len(d.withOp(OpMatchState)) != 1 || d.labelUpdates != 1 {
		t.Fatalf("expected one match state broadcast and label update, got %d/%d", len(d.withOp(OpMatchState)), d.labelUpdates)
	}

	mh.MatchLeave(context.Background(), noopLogger{}, nil, nil, d, ms.Tick, ms, []runtime.Presence{fakePresence{userID: "user-1"}})
	if ms.Seats[0] != "" {
		t.Fatalf("lobby seat 0 = %q, want freed", ms.Seats[0])
	}
	if ms.OwnerSeat != 1 {
		t.Fatalf("OwnerSeat after leave = %d, want 1", ms.OwnerSeat)
	}

	if got := mh.MatchLeave(context.Background(), noopLogger{}, nil, nil, d, ms.Tick, ms, []runtime.Presence{fakePresence{userID: "user-2"}}); got != nil {
		t.Fatalf("MatchLeave() with nobody left = %v, want nil", got)
	}
}

func TestJoinAttempt(t *testing.T) {
	mh, ms, d := newTestMatch(t)
	join(mh, ms, d, "a", "b", "c", "d")

	tests := []struct {
		name    string
		user    string
		playing bool
		want    bool
	}{
		{name: "FullLobby", user: "e", want: false},
		{name: "SeatedRejoin", user: "b", want: true},
		{name: "InProgress", user: "e", playing: true, want: false},
		{name: "RejoinInProgress", user: "c", playing: true, want: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ms.Game = nil
			if test.playing {
				ms.Game = &domain.GameState{Phase: domain.PhasePlaying}
			}
			_, ok, _ := mh.MatchJoinAttempt(context.Background(), noopLogger{}, nil, nil, d, 0, ms, fakePresence{userID: test.user}, nil)
			if ok != test.want {
				t.Fatalf("MatchJoinAttempt(%s) = %t, want %t", test.user, ok, test.want)
			}
		})
	}
}

func TestProcessBotsFillsLobby(t *testing.T) {
	mh, ms, d := newTestMatch(t)
	join(mh, ms, d, "user-1")

	for i := 0; i <= ms.BotAutoFillDelay+1; i++ {
		tick(mh, ms, d)
	}

	if ms.GetOpenSeatsCount() != 0 {
		t.Fatalf("open seats after auto-fill = %d, want 0", ms.GetOpenSeatsCount())
	}
	if got := ms.GetHumanPlayerCount(); got != 1 {
		t.Fatalf("humans = %d, want 1", got)
	}
	if len(ms.Bots) != 3 {
		t.Fatalf("bots = %d, want 3", len(ms.Bots))
	}
	if ms.WaitingSince != 0 {
		t.Fatalf("auto-fill timer = %d, want reset", ms.WaitingSince)
	}

	// A newcomer replaces a bot while in the lobby.
	_, ok, _ := mh.MatchJoinAttempt(context.Background(), noopLogger{}, nil, nil, d, 0, ms, fakePresence{userID: "user-2"}, nil)
	if !ok {
		t.Fatalf("MatchJoinAttempt() rejected a newcomer with bots seated")
	}
	join(mh, ms, d, "user-2")
	if ms.seatOf("user-2") == domain.NoSeat || len(ms.Bots) != 2 {
		t.Fatalf("user-2 should replace a bot, seats = %v", ms.Seats)
	}
}

func TestStartGameRules(t *testing.T) {
	mh, ms, d := newTestMatch(t)
	join(mh, ms, d, "user-1", "user-2")

	send(mh, ms, d, "user-2", OpStartGame, nil)
	if code := lastError(t, d); code != errForbidden {
		t.Fatalf("non-owner start code = %v, want %d", code, errForbidden)
	}

	send(mh, ms, d, "user-1", OpStartGame, nil)
	if code := lastError(t, d); code != errConflict {
		t.Fatalf("short table start code = %v, want %d", code, errConflict)
	}

	send(mh, ms, d, "user-1", OpPlayCard, map[string]interface{}{"card": "oros-1"})
	if code := lastError(t, d); code != errConflict {
		t.Fatalf("play before start code = %v, want %d", code, errConflict)
	}
	if ms.Game != nil {
		t.Fatalf("game started without four players")
	}
}

func TestFullMatchAgainstBots(t *testing.T) {
	mh, ms, d := newTestMatch(t)
	join(mh, ms, d, "human")
	for ms.GetOpenSeatsCount() > 0 {
		tick(mh, ms, d)
	}

	send(mh, ms, d, "human", OpStartGame, nil)
	if ms.Game == nil || !ms.Game.InPlay() {
		t.Fatalf("game did not start")
	}
	if d.lastLabel == "" || !json.Valid([]byte(d.lastLabel)) {
		t.Fatalf("label not updated: %q", d.lastLabel)
	}

	seat := ms.seatOf("human")
	for steps := 0; ms.Game.Phase != domain.PhaseGameOver; steps++ {
		if steps > 50000 {
			t.Fatalf("match did not finish, phase %s", ms.Game.Phase)
		}
		switch {
		case ms.Game.Phase == domain.PhaseScoring:
			send(mh, ms, d, "human", OpNextHand, nil)
		case ms.Game.InPlay() && ms.Game.CurrentPlayer == seat:
			legal := domain.LegalCards(ms.Game, "human")
			send(mh, ms, d, "human", OpPlayCard, map[string]interface{}{"card": legal[0].ID()})
		default:
			tick(mh, ms, d)
		}
		if res := domain.Validate(ms.Game); !res.Valid {
			t.Fatalf("invalid state after step %d: %v", steps, res.Errors)
		}
	}

	if len(d.withOp(OpGameError)) != 0 {
		t.Fatalf("unexpected game errors: %d", len(d.withOp(OpGameError)))
	}
	for _, m := range d.withOp(OpHandDealt) {
		if len(m.presences) != 1 || m.presences[0].GetUserId() != "human" {
			t.Fatalf("private hand sent to %v", m.presences)
		}
	}
	if got := len(d.withOp(OpMatchEnded)); got != 1 {
		t.Fatalf("match_ended events = %d, want 1", got)
	}

	stats := ms.Stats.(*recordingStats)
	if len(stats.records) != 1 {
		t.Fatalf("recorded matches = %d, want 1", len(stats.records))
	}
	rec := stats.records[0]
	if len(rec.Winners)+len(rec.Losers) != 1 {
		t.Fatalf("record %+v should list only the human", rec)
	}
	var label MatchLabel
	if err := json.Unmarshal([]byte(d.lastLabel), &label); err != nil || label.State != labelFinished {
		t.Fatalf("final label = %q, want state %q", d.lastLabel, labelFinished)
	}
}

func TestLeaveMidGameHandsSeatToBot(t *testing.T) {
	mh, ms, d := newTestMatch(t)
	join(mh, ms, d, "user-1", "user-2")
	for ms.GetOpenSeatsCount() > 0 {
		tick(mh, ms, d)
	}
	send(mh, ms, d, "user-1", OpStartGame, nil)
	if !ms.inProgress() {
		t.Fatalf("game did not start")
	}

	mh.MatchLeave(context.Background(), noopLogger{}, nil, nil, d, ms.Tick, ms, []runtime.Presence{fakePresence{userID: "user-2"}})
	if ms.seatOf("user-2") == domain.NoSeat {
		t.Fatalf("seat of a player who left mid-game was freed")
	}
	if _, ok := ms.Bots["user-2"]; !ok {
		t.Fatalf("no stand-in bot for user-2")
	}

	join(mh, ms, d, "user-2")
	if _, ok := ms.Bots["user-2"]; ok {
		t.Fatalf("stand-in bot kept after rejoin")
	}
	views := d.withOp(OpPlayerView)
	if len(views) != 1 || views[0].presences[0].GetUserId() != "user-2" {
		t.Fatalf("expected one private view for user-2, got %d", len(views))
	}
	view := decodeStruct(t, views[0].data)
	if view["player_id"] != "user-2" {
		t.Fatalf("view player = %v", view["player_id"])
	}
}

func TestBadMoveRequests(t *testing.T) {
	mh, ms, d := newTestMatch(t)
	join(mh, ms, d, "human")
	for ms.GetOpenSeatsCount() > 0 {
		tick(mh, ms, d)
	}
	send(mh, ms, d, "human", OpStartGame, nil)
	before := ms.Game

	tests := []struct {
		name string
		op   int64
		body map[string]interface{}
		want float64
	}{
		{name: "MissingCard", op: OpPlayCard, body: map[string]interface{}{}, want: errBadRequest},
		{name: "CardNotString", op: OpPlayCard, body: map[string]interface{}{"card": 3}, want: errBadRequest},
		{name: "NoSuchCard", op: OpPlayCard, body: map[string]interface{}{"card": "oros-9"}, want: errBadRequest},
		{name: "BadSuit", op: OpDeclareMeld, body: map[string]interface{}{"suit": "hearts"}, want: errBadRequest},
		{name: "MeldWithoutTrick", op: OpDeclareMeld, body: map[string]interface{}{"suit": "oros"}, want: errConflict},
		{name: "ExchangeWithoutTrick", op: OpExchangeSeven, want: errConflict},
		{name: "NextHandMidHand", op: OpNextHand, want: errConflict},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ms.BotWaitUntil = ms.Tick + 100
			send(mh, ms, d, "human", test.op, test.body)
			if code := lastError(t, d); code != test.want {
				t.Fatalf("error code = %v, want %v", code, test.want)
			}
			if ms.Game != before {
				t.Fatalf("rejected move replaced the game")
			}
		})
	}

	send(mh, ms, d, "stranger", OpPlayCard, map[string]interface{}{"card": "oros-1"})
	// strangers have no presence, so nothing is sent back
	if ms.Game != before {
		t.Fatalf("stranger changed the game")
	}
}
