package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"diver-exam-service/internal/app"
	"diver-exam-service/internal/config"
	"diver-exam-service/internal/content"
	"diver-exam-service/internal/infra/memory"
	pgstore "diver-exam-service/internal/infra/postgres"
	redisstore "diver-exam-service/internal/infra/redis"
	"diver-exam-service/internal/infra/remote"
	transport "diver-exam-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the exam server",
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
	slog.SetDefault(newLogger(cfg, os.Stderr))

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	sessionTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
	}

	banks, err := content.Load()
	if err != nil {
		return err
	}
	static := memory.NewStaticQuestionLoader(banks)
	var local app.QuestionProvider = static
	if pool != nil {
		local = app.LayeredProvider{pgstore.NewQuestionLoader(pool), local}
	}

	questionTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
	var localBanks app.QuestionProvider
	if redisClient != nil {
		localBanks = redisstore.NewQuestionCache(redisClient, local, questionTTL)
	} else {
		localBanks = memory.NewQuestionCache(local, questionTTL)
	}

	// remote banks share identifiers with local ones, so they get their own cache
	routes := make(map[string]app.QuestionProvider)
	if cfg.Questions.RemoteURL != "" {
		fetched := memory.NewQuestionCache(remote.NewQuestionProvider(cfg.Questions.RemoteURL, nil), questionTTL)
		for _, examID := range cfg.Questions.RemoteExams {
			routes[examID] = fetched
		}
	}
	provider := app.NewRoutedProvider(localBanks, routes)

	var attempts transport.AttemptStore = memory.NewAttemptStore()
	if pool != nil {
		attempts = pgstore.NewAttemptStore(pool)
	}
	var sink app.AttemptSink = attempts
	if cfg.Attempts.SinkURL != "" {
		timeout := config.TTLDuration(cfg.Attempts.Timeout, 10*time.Second)
		sink = remote.NewAttemptSink(cfg.Attempts.SinkURL, &http.Client{Timeout: timeout})
	}

	var store app.SessionRepository
	if redisClient != nil {
		store = redisstore.NewSessionStore(redisClient, sessionTTL)
	} else {
		store = memory.NewSessionStore()
	}

	service := app.NewExamService(store, provider, sink)
	api := transport.NewAPI(localBanks, attempts, static)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      api.Router(transport.NewWSHandler(service)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		slog.Info("starting exam service", "addr", server.Addr, "remote_exams", len(routes), "postgres", pool != nil, "redis", redisClient != nil)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		slog.Info("shutting down server")
	case <-ctx.Done():
		slog.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
