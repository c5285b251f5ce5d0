package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/config"
	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/infra/memory"
	pginfra "quiz-attempt-service/internal/infra/postgres"
	redisinfra "quiz-attempt-service/internal/infra/redis"
	transport "quiz-attempt-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the attempt service",
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

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
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

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var quizLoader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	var directory app.Directory = memory.NewDirectory(sampleUsers(), sampleRosters())
	var attemptRepo app.AttemptRepository = memory.NewAttemptRepository()
	if pool != nil {
		quizLoader = pginfra.NewQuizLoader(pool)
		directory = pginfra.NewDirectory(pool)
		attemptRepo = pginfra.NewAttemptRepository(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redisinfra.NewQuizRepository(redisClient, quizLoader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(quizLoader, quizTTL)
	}

	var snapshots app.SnapshotStore
	if redisClient != nil {
		snapshots = redisinfra.NewSnapshotStore(redisClient)
	} else {
		snapshots = memory.NewSnapshotStore()
	}

	snapshotTTL := config.TTLDuration(cfg.Snapshot.TTL, app.DefaultSnapshotTTL)
	attemptService := app.NewAttemptService(quizRepo, directory, attemptRepo, snapshots, snapshotTTL)
	aggregationService := app.NewAggregationService(attemptRepo, directory)
	exportService := app.NewExportService(snapshots)

	logger := log.New(os.Stdout, "", log.LstdFlags)
	handler := transport.NewHandler(attemptService, aggregationService, exportService, logger)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Printf("starting attempt service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Println("shutting down server...")
	case <-ctx.Done():
		logger.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// Sample data lets the service run end-to-end without Postgres; swap in the
// Postgres-backed loaders for real deployments.
func sampleQuizzes() map[string]domain.Quiz {
	acme := domain.Company{ID: "c-acme", CompanyName: "Acme Corp"}
	return map[string]domain.Quiz{
		"quiz-onboarding": {
			ID:      "quiz-onboarding",
			Title:   "Onboarding Basics",
			Company: acme,
			Questions: []domain.Question{
				{
					ID:      "q1",
					Content: "What is 2 + 2?",
					Options: []domain.Option{
						{ID: "o1", Text: "3", Correct: false},
						{ID: "o2", Text: "4", Correct: true},
						{ID: "o3", Text: "5", Correct: false},
					},
				},
				{
					ID:      "q2",
					Content: "Which planet is closest to the sun?",
					Options: []domain.Option{
						{ID: "o1", Text: "Venus", Correct: false},
						{ID: "o2", Text: "Mercury", Correct: true},
						{ID: "o3", Text: "Mars", Correct: false},
					},
				},
			},
		},
	}
}

func sampleUsers() []domain.User {
	return []domain.User{
		{ID: "u-alice", Email: "alice@acme.test"},
		{ID: "u-bob", Email: "bob@acme.test"},
	}
}

func sampleRosters() map[string][]string {
	return map[string][]string{
		"c-acme": {"u-alice", "u-bob"},
	}
}
