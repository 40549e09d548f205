package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"trivia-room-service/internal/app"
	"trivia-room-service/internal/config"
	"trivia-room-service/internal/domain"
	"trivia-room-service/internal/infra/memory"
	"trivia-room-service/internal/infra/opentdb"
	pgloader "trivia-room-service/internal/infra/postgres"
	redisinfra "trivia-room-service/internal/infra/redis"
	transport "trivia-room-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia room server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	zerolog.TimeFieldFormat = time.RFC3339
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	publicURL := cfg.Server.PublicURL
	if publicURL == "" {
		publicURL = "http://localhost:" + finalPort
	}

	source, err := buildQuestionSource(ctx, cfg, logger)
	if err != nil {
		return err
	}

	gameCfg := app.GameConfig{
		QuestionCount:    cfg.Game.QuestionCount,
		QuestionDuration: config.DurationOr(cfg.Game.QuestionTime, 15*time.Second),
		RevealPause:      config.DurationOr(cfg.Game.RevealPause, 2*time.Second),
		GameOverPause:    config.DurationOr(cfg.Game.GameOverPause, 1500*time.Millisecond),
		BasePoints:       cfg.Game.BasePoints,
		BonusPerSecond:   cfg.Game.BonusPerSecond,
		PublicURL:        publicURL,
	}

	hub := transport.NewHub(logger)
	service := app.NewGameService(source, hub, gameCfg, logger)
	wsHandler := transport.NewWSHandler(service, hub, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info().Str("port", finalPort).Msg("starting trivia room service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info().Msg("shutting down server...")
	case <-ctx.Done():
		logger.Info().Msg("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildQuestionSource wires the configured provider chain: the remote opentdb
// API by default, or a postgres/static pool behind a redis or in-memory cache.
func buildQuestionSource(ctx context.Context, cfg config.Config, logger zerolog.Logger) (app.QuestionSource, error) {
	poolTTL := config.DurationOr(cfg.Trivia.PoolTTL, 10*time.Minute)
	if cfg.Redis.TTL != "" {
		poolTTL = config.DurationOr(cfg.Redis.TTL, poolTTL)
	}

	var loader memory.PoolLoader
	switch cfg.Trivia.Provider {
	case "", "opentdb":
		timeout := config.DurationOr(cfg.Trivia.Timeout, 20*time.Second)
		return opentdb.New(cfg.Trivia.OpenTDBURL, timeout), nil
	case "postgres":
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		loader = pgloader.NewQuestionLoader(pool)
	case "static":
		loader = memory.NewStaticPoolLoader(samplePool())
	default:
		logger.Warn().Str("provider", cfg.Trivia.Provider).Msg("unknown trivia provider, using opentdb")
		return opentdb.New(cfg.Trivia.OpenTDBURL, 20*time.Second), nil
	}

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return redisinfra.NewCachedSource(client, loader, poolTTL), nil
	}
	return memory.NewCachedSource(loader, poolTTL), nil
}

// samplePool provides a minimal pool for the static provider; swap in the
// postgres provider for real content.
func samplePool() []domain.Question {
	return []domain.Question{
		{Prompt: "What is 2 + 2?", CorrectChoice: "4", Choices: []string{"4", "3", "5", "22"}},
		{Prompt: "Which planet is known as the Red Planet?", CorrectChoice: "Mars", Choices: []string{"Mars", "Venus", "Jupiter", "Mercury"}},
		{Prompt: "What is the capital of France?", CorrectChoice: "Paris", Choices: []string{"Paris", "Lyon", "Marseille", "Lille"}},
		{Prompt: "How many continents are there?", CorrectChoice: "7", Choices: []string{"7", "5", "6", "8"}},
		{Prompt: "What does CPU stand for?", CorrectChoice: "Central Processing Unit", Choices: []string{"Central Processing Unit", "Computer Personal Unit", "Central Program Utility", "Core Processor Unit"}},
		{Prompt: "Which ocean is the largest?", CorrectChoice: "Pacific", Choices: []string{"Pacific", "Atlantic", "Indian", "Arctic"}},
		{Prompt: "What gas do plants absorb from the atmosphere?", CorrectChoice: "Carbon dioxide", Choices: []string{"Carbon dioxide", "Oxygen", "Nitrogen", "Hydrogen"}},
		{Prompt: "In which year did World War II end?", CorrectChoice: "1945", Choices: []string{"1945", "1939", "1944", "1950"}},
		{Prompt: "What is the chemical symbol for gold?", CorrectChoice: "Au", Choices: []string{"Au", "Ag", "Go", "Gd"}},
		{Prompt: "How many sides does a hexagon have?", CorrectChoice: "6", Choices: []string{"6", "5", "7", "8"}},
		{Prompt: "Which language has the most native speakers?", CorrectChoice: "Mandarin Chinese", Choices: []string{"Mandarin Chinese", "English", "Spanish", "Hindi"}},
		{Prompt: "What is the smallest prime number?", CorrectChoice: "2", Choices: []string{"2", "1", "3", "0"}},
	}
}
