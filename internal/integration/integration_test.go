package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
	pginfra "quiz-attempt-service/internal/infra/postgres"
	pgmigrations "quiz-attempt-service/internal/infra/postgres/migrations"
	redisinfra "quiz-attempt-service/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestSubmitAggregateExportEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedSchema(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	quizRepo := redisinfra.NewQuizRepository(redisClient, pginfra.NewQuizLoader(pool), 5*time.Minute)
	directory := pginfra.NewDirectory(pool)
	attemptRepo := pginfra.NewAttemptRepository(pool)
	snapshots := redisinfra.NewSnapshotStore(redisClient)

	attemptService := app.NewAttemptService(quizRepo, directory, attemptRepo, snapshots, app.DefaultSnapshotTTL)
	aggregationService := app.NewAggregationService(attemptRepo, directory)
	exportService := app.NewExportService(snapshots)

	// First attempt: correct plus one wrong out of three options → diluted 0.5.
	receipt1, err := attemptService.Submit(ctx, "quiz-1", "u1", []domain.AnswerSubmission{
		{QuestionID: "q1", SelectedOptionIDs: []string{"o1", "o2"}},
	})
	if err != nil {
		t.Fatalf("submit 1: %v", err)
	}
	if receipt1.Score != "0.5" || !receipt1.SnapshotStored {
		t.Fatalf("unexpected first receipt: %+v", receipt1)
	}

	// Second attempt: exact correct answer → 1.
	receipt2, err := attemptService.Submit(ctx, "quiz-1", "u1", []domain.AnswerSubmission{
		{QuestionID: "q1", SelectedOptionIDs: []string{"o2"}},
	})
	if err != nil {
		t.Fatalf("submit 2: %v", err)
	}
	if receipt2.Score != "1" {
		t.Fatalf("unexpected second receipt: %+v", receipt2)
	}

	series, err := aggregationService.UserQuizSeries(ctx, "u1")
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	if len(series) != 1 || len(series[0].Points) != 2 {
		t.Fatalf("expected one title with two points, got %+v", series)
	}
	// Cumulative over the union: 0.5/1 then (0.5+1)/2.
	if series[0].Points[0].Score != "0.5" || series[0].Points[1].Score != "0.75" {
		t.Fatalf("unexpected cumulative series: %+v", series[0].Points)
	}

	score, ok, err := aggregationService.UserCompanyScore(ctx, "c1", "u1")
	if err != nil || !ok {
		t.Fatalf("company score: %v ok=%v", err, ok)
	}
	if score != "0.75" {
		t.Fatalf("expected 0.75, got %q", score)
	}

	result, err := exportService.Export(ctx, app.ExportFilter{CompanyID: "c1", UserID: "u1"}, app.FormatJSON)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	var exported []domain.AttemptSnapshot
	if err := json.Unmarshal(result.Payload, &exported); err != nil {
		t.Fatalf("unmarshal export: %v", err)
	}
	if len(exported) != 2 {
		t.Fatalf("expected both snapshots exported, got %d", len(exported))
	}

	csvResult, err := exportService.Export(ctx, app.ExportFilter{CompanyID: "c1"}, app.FormatCSV)
	if err != nil {
		t.Fatalf("csv export: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(csvResult.Payload), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus two rows, got %q", lines)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "quiz",
			"POSTGRES_PASSWORD": "quizpass",
			"POSTGRES_DB":       "quizdb",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

// seedSchema applies migrations and inserts one company, one member, and one
// three-option quiz.
func seedSchema(t *testing.T, ctx context.Context, dsn string) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	questions := []domain.Question{
		{
			ID:      "q1",
			Content: "What is 2 + 2?",
			Options: []domain.Option{
				{ID: "o1", Text: "3", Correct: false},
				{ID: "o2", Text: "4", Correct: true},
				{ID: "o3", Text: "5", Correct: false},
			},
		},
	}
	data, err := json.Marshal(questions)
	if err != nil {
		t.Fatalf("marshal questions: %v", err)
	}

	stmts := []struct {
		query string
		args  []interface{}
	}{
		{`INSERT INTO companies (id, company_name) VALUES (?, ?)`, []interface{}{"c1", "Acme Corp"}},
		{`INSERT INTO users (id, email) VALUES (?, ?)`, []interface{}{"u1", "alice@acme.test"}},
		{`INSERT INTO members (company_id, user_id) VALUES (?, ?)`, []interface{}{"c1", "u1"}},
		{`INSERT INTO quizzes (id, title, company_id, data) VALUES (?, ?, ?, ?::jsonb)`, []interface{}{"quiz-1", "Safety Basics", "c1", string(data)}},
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt.query, stmt.args...); err != nil {
			t.Fatalf("seed %q: %v", stmt.query, err)
		}
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
