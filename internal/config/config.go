package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"

	"guinote/internal/domain"
)

// RulesConfig carries the house-rule numbers of a match.
type RulesConfig struct {
	TargetScore     int `json:"target_score" env:"GUINOTE_TARGET_SCORE"`
	MinCardPoints   int `json:"min_card_points" env:"GUINOTE_MIN_CARD_POINTS"`
	LastTrickBonus  int `json:"last_trick_bonus" env:"GUINOTE_LAST_TRICK_BONUS"`
	MeldPoints      int `json:"meld_points" env:"GUINOTE_MELD_POINTS"`
	TrumpMeldPoints int `json:"trump_meld_points" env:"GUINOTE_TRUMP_MELD_POINTS"`
	PartidasPerCoto int `json:"partidas_per_coto" env:"GUINOTE_PARTIDAS_PER_COTO"`
	CotosPerMatch   int `json:"cotos_per_match" env:"GUINOTE_COTOS_PER_MATCH"`
}

type BotConfig struct {
	// AutoFillDelaySeconds is how long a lobby waits before empty seats are filled with bots.
	AutoFillDelaySeconds int    `json:"auto_fill_delay_seconds" env:"GUINOTE_BOT_AUTOFILL_SECONDS"`
	MinActionDelayMs     int    `json:"min_action_delay_ms" env:"GUINOTE_BOT_MIN_DELAY_MS"`
	MaxActionDelayMs     int    `json:"max_action_delay_ms" env:"GUINOTE_BOT_MAX_DELAY_MS"`
	Level                string `json:"level" env:"GUINOTE_BOT_LEVEL"`
	RosterPath           string `json:"roster_path" env:"GUINOTE_BOT_ROSTER"`
}

type ServerConfig struct {
	Addr                   string   `json:"addr" env:"GUINOTE_ADDR"`
	AllowedOrigins         []string `json:"allowed_origins" env:"GUINOTE_ALLOWED_ORIGINS"`
	ShutdownTimeoutSeconds int      `json:"shutdown_timeout_seconds" env:"GUINOTE_SHUTDOWN_SECONDS"`
	Development            bool     `json:"development" env:"GUINOTE_DEV"`
	// Validate runs the state validator after every transition and logs violations.
	Validate bool `json:"validate" env:"GUINOTE_VALIDATE"`
}

type NATSConfig struct {
	URL           string `json:"url" env:"GUINOTE_NATS_URL"`
	SubjectPrefix string `json:"subject_prefix" env:"GUINOTE_NATS_PREFIX"`
}

type PostgresConfig struct {
	DSN string `json:"dsn" env:"GUINOTE_DATABASE_URL"`
}

type AuthConfig struct {
	JWTSecret string `json:"jwt_secret" env:"GUINOTE_JWT_SECRET"`
	Issuer    string `json:"issuer" env:"GUINOTE_JWT_ISSUER"`
}

// Config is the full runtime configuration. It is loaded once at startup and passed
// down explicitly.
type Config struct {
	Rules    RulesConfig    `json:"rules"`
	Bots     BotConfig      `json:"bots"`
	Server   ServerConfig   `json:"server"`
	NATS     NATSConfig     `json:"nats"`
	Postgres PostgresConfig `json:"postgres"`
	Auth     AuthConfig     `json:"auth"`
}

var ErrInvalidConfig = errors.New("invalid config")

// Default returns the standard house rules and local server settings.
func Default() *Config {
	r := domain.DefaultRules()
	return &Config{
		Rules: RulesConfig{
			TargetScore:     r.TargetScore,
			MinCardPoints:   r.MinCardPoints,
			LastTrickBonus:  r.LastTrickBonus,
			MeldPoints:      r.MeldPoints,
			TrumpMeldPoints: r.TrumpMeldPoints,
			PartidasPerCoto: r.PartidasPerCoto,
			CotosPerMatch:   r.CotosPerMatch,
		},
		Bots: BotConfig{
			AutoFillDelaySeconds: 5,
			MinActionDelayMs:     700,
			MaxActionDelayMs:     1800,
			Level:                "random",
		},
		Server: ServerConfig{
			Addr:                   ":8080",
			AllowedOrigins:         []string{"*"},
			ShutdownTimeoutSeconds: 10,
		},
		NATS: NATSConfig{SubjectPrefix: "guinote"},
		Auth: AuthConfig{Issuer: "guinote"},
	}
}

// Load builds a Config from defaults, the optional JSON file at path, the optional
// dotenv files and finally the process environment.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return nil, fmt.Errorf("failed to load env files: %w", err)
		}
	}
	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("failed to decode environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyRuntimeEnv overrides rule and bot settings from a Nakama runtime env map.
func (c *Config) ApplyRuntimeEnv(env map[string]string) error {
	ints := map[string]*int{
		"GUINOTE_TARGET_SCORE":         &c.Rules.TargetScore,
		"GUINOTE_MIN_CARD_POINTS":      &c.Rules.MinCardPoints,
		"GUINOTE_LAST_TRICK_BONUS":     &c.Rules.LastTrickBonus,
		"GUINOTE_MELD_POINTS":          &c.Rules.MeldPoints,
		"GUINOTE_TRUMP_MELD_POINTS":    &c.Rules.TrumpMeldPoints,
		"GUINOTE_PARTIDAS_PER_COTO":    &c.Rules.PartidasPerCoto,
		"GUINOTE_COTOS_PER_MATCH":      &c.Rules.CotosPerMatch,
		"GUINOTE_BOT_AUTOFILL_SECONDS": &c.Bots.AutoFillDelaySeconds,
		"GUINOTE_BOT_MIN_DELAY_MS":     &c.Bots.MinActionDelayMs,
		"GUINOTE_BOT_MAX_DELAY_MS":     &c.Bots.MaxActionDelayMs,
	}
	for key, dst := range ints {
		raw, ok := env[key]
		if !ok || raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalidConfig, key, raw, err)
		}
		*dst = n
	}
	if v := env["GUINOTE_BOT_LEVEL"]; v != "" {
		c.Bots.Level = v
	}
	if v := env["GUINOTE_BOT_ROSTER"]; v != "" {
		c.Bots.RosterPath = v
	}
	if v := env["GUINOTE_VALIDATE"]; v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: GUINOTE_VALIDATE=%q", ErrInvalidConfig, v)
		}
		c.Server.Validate = b
	}
	return c.Validate()
}

// Validate rejects settings the engine cannot play with.
func (c *Config) Validate() error {
	r := c.Rules
	switch {
	case r.TargetScore <= 0:
		return fmt.Errorf("%w: target_score must be positive", ErrInvalidConfig)
	case r.MinCardPoints < 0 || r.MinCardPoints > domain.MaxCardPoints:
		return fmt.Errorf("%w: min_card_points out of range", ErrInvalidConfig)
	case r.LastTrickBonus < 0:
		return fmt.Errorf("%w: last_trick_bonus must not be negative", ErrInvalidConfig)
	case r.MeldPoints <= 0 || r.TrumpMeldPoints <= 0:
		return fmt.Errorf("%w: meld points must be positive", ErrInvalidConfig)
	case r.PartidasPerCoto <= 0 || r.CotosPerMatch <= 0:
		return fmt.Errorf("%w: partidas_per_coto and cotos_per_match must be positive", ErrInvalidConfig)
	}
	if c.Bots.MinActionDelayMs < 0 || c.Bots.MaxActionDelayMs < c.Bots.MinActionDelayMs {
		return fmt.Errorf("%w: bot action delays", ErrInvalidConfig)
	}
	return nil
}

// DomainRules converts the rule settings for the engine.
func (c *Config) DomainRules() domain.Rules {
	return domain.Rules{
		TargetScore:     c.Rules.TargetScore,
		MinCardPoints:   c.Rules.MinCardPoints,
		LastTrickBonus:  c.Rules.LastTrickBonus,
		MeldPoints:      c.Rules.MeldPoints,
		TrumpMeldPoints: c.Rules.TrumpMeldPoints,
		PartidasPerCoto: c.Rules.PartidasPerCoto,
		CotosPerMatch:   c.Rules.CotosPerMatch,
	}
}

// ShutdownTimeout is how long the HTTP server waits for in-flight requests.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutSeconds) * time.Second
}

// BotDelay returns the configured bot thinking window.
func (c *Config) BotDelay() (lo, hi time.Duration) {
	return time.Duration(c.Bots.MinActionDelayMs) * time.Millisecond,
		time.Duration(c.Bots.MaxActionDelayMs) * time.Millisecond
}
