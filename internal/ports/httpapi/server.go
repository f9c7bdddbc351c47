// Package httpapi exposes table games over HTTP and websocket.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/heroiclabs/nakama-common/runtime"

	"guinote/internal/domain"
	"guinote/internal/logging"
	"guinote/internal/ports"
	"guinote/internal/table"
)

type GuestReq struct {
	Name string `json:"name"`
}

type GuestRes struct {
	PlayerID string `json:"player_id"`
	Token    string `json:"token"`
}

type SeatReq struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NewGameReq lists the other human players; the caller always takes seat 0 and bots
// fill whatever is left.
type NewGameReq struct {
	Players []SeatReq `json:"players"`
}

type PlayReq struct {
	Card string `json:"card"`
}

type MeldReq struct {
	Suit string `json:"suit"`
}

type errorRes struct {
	Error string `json:"error"`
}

type Server struct {
	games  *table.Manager
	hub    *Hub
	auth   *Auth
	logger runtime.Logger
}

func NewServer(games *table.Manager, hub *Hub, auth *Auth, logger runtime.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Server{games: games, hub: hub, auth: auth, logger: logger}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/auth/guest", s.handleGuest)

	r.Group(func(r chi.Router) {
		r.Use(s.auth.Middleware)
		r.Post("/games", s.handleNewGame)
		r.Route("/games/{gameID}", func(r chi.Router) {
			r.Get("/", s.handleView)
			r.Get("/legal", s.handleLegal)
			r.Get("/events", s.handleEvents)
			r.Get("/ws", s.handleWS)
			r.Post("/play", s.handlePlay)
			r.Post("/meld", s.handleMeld)
			r.Post("/exchange", s.handleExchange)
			r.Post("/next-hand", s.handleNextHand)
		})
	})
	return r
}

func (s *Server) handleGuest(w http.ResponseWriter, r *http.Request) {
	var req GuestReq
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, errors.New("missing player name"))
		return
	}
	id := uuid.NewString()
	token, err := s.auth.Issue(id, req.Name)
	if err != nil {
		s.logger.Error("issue token: %v", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, GuestRes{PlayerID: id, Token: token})
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	var req NewGameReq
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	humans := []domain.Player{{ID: claims.Subject, Name: claims.Name}}
	for _, p := range req.Players {
		humans = append(humans, domain.Player{ID: p.ID, Name: p.Name})
	}
	gameID, _, err := s.games.Create(r.Context(), humans)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respondView(w, http.StatusCreated, gameID, claims.Subject)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	s.respondView(w, http.StatusOK, chi.URLParam(r, "gameID"), claims.Subject)
}

func (s *Server) handleLegal(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	v, err := s.games.View(chi.URLParam(r, "gameID"), claims.Subject)
	if err != nil {
		s.fail(w, err)
		return
	}
	ids := make([]string, 0, len(v.LegalCards))
	for _, c := range v.LegalCards {
		ids = append(ids, c.ID())
	}
	writeJSON(w, http.StatusOK, map[string][]string{"cards": ids})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	after, err := afterParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	events, err := s.games.Events(r.Context(), chi.URLParam(r, "gameID"), claims.Subject, after)
	if err != nil {
		s.fail(w, err)
		return
	}
	if events == nil {
		events = []ports.LoggedEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	gameID := chi.URLParam(r, "gameID")
	after, err := afterParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if _, err := s.games.View(gameID, claims.Subject); err != nil {
		s.fail(w, err)
		return
	}
	ctx := r.Context()
	s.hub.serve(w, r, gameID, claims.Subject, func() ([]ports.LoggedEvent, error) {
		return s.games.Events(ctx, gameID, claims.Subject, after)
	})
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	var req PlayReq
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	card, err := domain.ParseCardID(req.Card)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	gameID := chi.URLParam(r, "gameID")
	if _, err := s.games.Play(r.Context(), gameID, claims.Subject, card); err != nil {
		s.fail(w, err)
		return
	}
	s.respondView(w, http.StatusOK, gameID, claims.Subject)
}

func (s *Server) handleMeld(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	var req MeldReq
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	suit, err := domain.ParseSuit(req.Suit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	gameID := chi.URLParam(r, "gameID")
	if _, err := s.games.Meld(r.Context(), gameID, claims.Subject, suit); err != nil {
		s.fail(w, err)
		return
	}
	s.respondView(w, http.StatusOK, gameID, claims.Subject)
}

func (s *Server) handleExchange(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	gameID := chi.URLParam(r, "gameID")
	if _, err := s.games.Exchange(r.Context(), gameID, claims.Subject); err != nil {
		s.fail(w, err)
		return
	}
	s.respondView(w, http.StatusOK, gameID, claims.Subject)
}

func (s *Server) handleNextHand(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	gameID := chi.URLParam(r, "gameID")
	v, err := s.games.View(gameID, claims.Subject)
	if err != nil {
		s.fail(w, err)
		return
	}
	if v.Seat == domain.NoSeat {
		writeError(w, http.StatusForbidden, domain.ErrUnknownPlayer)
		return
	}
	if _, err := s.games.NextHand(r.Context(), gameID); err != nil {
		s.fail(w, err)
		return
	}
	s.respondView(w, http.StatusOK, gameID, claims.Subject)
}

func (s *Server) respondView(w http.ResponseWriter, status int, gameID, playerID string) {
	v, err := s.games.View(gameID, playerID)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, status, v)
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed: %v", err)
	}
	writeError(w, status, err)
}

// statusFor maps engine and table errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, table.ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnknownPlayer):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidCard),
		errors.Is(err, domain.ErrInvalidPlayers),
		errors.Is(err, domain.ErrInvalidSeat),
		errors.Is(err, table.ErrTableFull):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotYourTurn),
		errors.Is(err, domain.ErrWrongPhase),
		errors.Is(err, domain.ErrCardNotInHand),
		errors.Is(err, domain.ErrMustFollowSuit),
		errors.Is(err, domain.ErrMustBeat),
		errors.Is(err, domain.ErrMustTrump),
		errors.Is(err, domain.ErrMeldNotAllowed),
		errors.Is(err, domain.ErrMeldAlreadyDeclared),
		errors.Is(err, domain.ErrMeldCardsMissing),
		errors.Is(err, domain.ErrExchangeNotAllowed),
		errors.Is(err, domain.ErrMatchOver):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func afterParam(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("after")
	if raw == "" {
		return 0, nil
	}
	after, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || after < 0 {
		return 0, fmt.Errorf("invalid after %q", raw)
	}
	return after, nil
}

func decode(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	if r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("parse body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorRes{Error: err.Error()})
}
