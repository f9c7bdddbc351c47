package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/heroiclabs/nakama-common/runtime"
)

type BotIdentity struct {
	DeviceID    string `json:"device_id"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Difficulty  string `json:"difficulty"` // "random", "good"
	AvatarIndex int    `json:"avatar_index"`
}

// Roster is the pool of bot identities available to fill seats.
type Roster struct {
	mu         sync.RWMutex
	identities []BotIdentity
	byID       map[string]BotIdentity
}

// NewRoster indexes identities. Identities without a UserID get a random one so they
// can sit at tables that are not backed by Nakama accounts.
func NewRoster(identities []BotIdentity) *Roster {
	r := &Roster{byID: make(map[string]BotIdentity, len(identities))}
	for _, identity := range identities {
		if identity.UserID == "" {
			identity.UserID = "bot-" + uuid.NewString()
		}
		r.identities = append(r.identities, identity)
		r.byID[identity.UserID] = identity
	}
	return r
}

// DefaultRoster returns a small built-in pool.
func DefaultRoster() *Roster {
	return NewRoster([]BotIdentity{
		{Username: "bot_paco", DisplayName: "Paco", Difficulty: "good", AvatarIndex: 1},
		{Username: "bot_lola", DisplayName: "Lola", Difficulty: "good", AvatarIndex: 2},
		{Username: "bot_tere", DisplayName: "Tere", Difficulty: "random", AvatarIndex: 3},
		{Username: "bot_chema", DisplayName: "Chema", Difficulty: "random", AvatarIndex: 4},
	})
}

// LoadRoster loads the bot profiles from the given path.
func LoadRoster(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bot identities: %w", err)
	}
	var identities []BotIdentity
	if err := json.Unmarshal(data, &identities); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bot identities: %w", err)
	}
	if len(identities) == 0 {
		return nil, fmt.Errorf("bot identities %s: empty roster", path)
	}
	return NewRoster(identities), nil
}

// Provision ensures that bot accounts exist in the Nakama database and carry the is_bot
// metadata. Provisioned identities take the Nakama user ids.
func (r *Roster) Provision(ctx context.Context, nk runtime.NakamaModule, logger runtime.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byID := make(map[string]BotIdentity, len(r.identities))
	for i := range r.identities {
		identity := &r.identities[i]
		if identity.DeviceID != "" {
			userID, username, _, err := nk.AuthenticateDevice(ctx, identity.DeviceID, identity.Username, true)
			if err != nil {
				logger.Error("Provision: failed to authenticate bot %s: %v", identity.Username, err)
			} else {
				identity.UserID = userID
				identity.Username = username

				metadata := map[string]interface{}{
					"is_bot":       true,
					"difficulty":   identity.Difficulty,
					"avatar_index": identity.AvatarIndex,
				}
				if err := nk.AccountUpdateId(ctx, userID, identity.Username, metadata, identity.DisplayName, "", "", "", ""); err != nil {
					logger.Warn("Provision: failed to update bot account %s: %v", userID, err)
				}
				logger.Info("Provision: bot %s (%s) is ready, difficulty %s", identity.DisplayName, userID, identity.Difficulty)
			}
		}
		byID[identity.UserID] = *identity
	}
	r.byID = byID
}

// Get returns the identity for a bot user id.
func (r *Roster) Get(userID string) (BotIdentity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	identity, ok := r.byID[userID]
	return identity, ok
}

// IsBot reports whether the given user ID belongs to the roster.
func (r *Roster) IsBot(userID string) bool {
	_, ok := r.Get(userID)
	return ok
}

// Pick returns an identity by index (mod pool size).
func (r *Roster) Pick(index int) BotIdentity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.identities) == 0 {
		return BotIdentity{UserID: fmt.Sprintf("bot-%d", index), DisplayName: fmt.Sprintf("Bot %d", index)}
	}
	if index < 0 {
		index = -index
	}
	return r.identities[index%len(r.identities)]
}

// PickFree returns the first identity whose user id is not in taken.
func (r *Roster) PickFree(taken map[string]bool) (BotIdentity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, identity := range r.identities {
		if !taken[identity.UserID] {
			return identity, true
		}
	}
	return BotIdentity{}, false
}

func (r *Roster) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.identities)
}

// NewAgent builds an agent for identity with the strategy named by its difficulty,
// falling back to fallback when the difficulty is empty or unknown.
func NewAgent(identity BotIdentity, fallback BotLevel, rng *rand.Rand) (*Agent, error) {
	level, err := ParseLevel(identity.Difficulty)
	if err != nil || identity.Difficulty == "" {
		level = fallback
	}
	brain, err := NewBrain(level, rng)
	if err != nil {
		return nil, err
	}
	name := identity.DisplayName
	if name == "" {
		name = identity.Username
	}
	return &Agent{ID: identity.UserID, Name: name, Strategy: brain}, nil
}
