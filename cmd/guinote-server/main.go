// Command guinote-server runs the standalone HTTP and websocket match server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/handlers"

	"guinote/internal/app"
	"guinote/internal/bot"
	"guinote/internal/config"
	"guinote/internal/logging"
	"guinote/internal/ports"
	"guinote/internal/ports/httpapi"
	"guinote/internal/ports/natsbus"
	"guinote/internal/store"
	"guinote/internal/store/postgres"
	"guinote/internal/table"
)

const (
	tokenTTL          = 24 * time.Hour
	insecureDevSecret = "dev-secret"
)

var ErrNoJWTSecret = errors.New("GUINOTE_JWT_SECRET is not set (pass -dev-secret to use a fixed development secret)")

var (
	configPath string
	envFiles   string
	devSecret  bool
)

func init() {
	flag.StringVar(&configPath, "config", "", "JSON config file (optional)")
	flag.StringVar(&envFiles, "env", "", "Comma separated dotenv files loaded before the environment")
	flag.BoolVar(&devSecret, "dev-secret", false, "Sign tokens with a fixed, insecure secret when GUINOTE_JWT_SECRET is unset (development only)")
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "guinote-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var files []string
	if envFiles != "" {
		files = strings.Split(envFiles, ",")
	}
	cfg, err := config.Load(configPath, files...)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Server.Development)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	level, err := bot.ParseLevel(cfg.Bots.Level)
	if err != nil {
		return err
	}
	roster := bot.DefaultRoster()
	if cfg.Bots.RosterPath != "" {
		if roster, err = bot.LoadRoster(cfg.Bots.RosterPath); err != nil {
			return err
		}
	}

	sessions := store.NewMemoryStore()
	opts := table.Options{
		Rules:     cfg.DomainRules(),
		Snapshots: sessions,
		Log:       sessions,
		Roster:    roster,
		BotLevel:  level,
		Logger:    logger.WithField("component", "table"),
	}
	if cfg.Postgres.DSN != "" {
		db, err := postgres.Open(ctx, cfg.Postgres.DSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		opts.Snapshots, opts.Log = db, db
		logger.Info("persisting games to postgres")
	}

	hub := httpapi.NewHub(logger.WithField("component", "hub"))
	publishers := ports.Publishers{hub}
	if cfg.NATS.URL != "" {
		nc, err := natsbus.Connect(cfg.NATS.URL, "guinote-server")
		if err != nil {
			return err
		}
		defer nc.Drain()
		publishers = append(publishers, natsbus.NewPublisher(nc, cfg.NATS.SubjectPrefix))
		logger.Info("publishing events to %s under %q", cfg.NATS.URL, cfg.NATS.SubjectPrefix)
	}
	opts.Publisher = publishers

	svc := app.NewService(rand.New(rand.NewSource(time.Now().UnixNano())), logger.WithField("component", "engine")).
		WithValidation(cfg.Server.Validate)
	games := table.NewManager(svc, sessions, opts)

	secret, err := jwtSecret(cfg, devSecret)
	if err != nil {
		return err
	}
	if secret == insecureDevSecret {
		logger.Warn("signing tokens with the fixed development secret")
	}
	auth := httpapi.NewAuth(secret, cfg.Auth.Issuer, tokenTTL)

	access := logger.StdLog()
	var h http.Handler = httpapi.NewServer(games, hub, auth, logger.WithField("component", "api")).Routes()
	h = handlers.CombinedLoggingHandler(access.Writer(), h)
	h = handlers.CORS(
		handlers.AllowedOrigins(cfg.Server.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)(h)
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(access))(h)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening on %s", cfg.Server.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// jwtSecret returns the configured signing secret. The fixed development secret is
// only used when allowDev is set and no secret is configured.
func jwtSecret(cfg *config.Config, allowDev bool) (string, error) {
	switch {
	case cfg.Auth.JWTSecret != "":
		return cfg.Auth.JWTSecret, nil
	case allowDev:
		return insecureDevSecret, nil
	default:
		return "", ErrNoJWTSecret
	}
}
