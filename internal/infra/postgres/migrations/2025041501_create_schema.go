package migrations

import (
	"context"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

const createSchemaSQL = `
CREATE TABLE IF NOT EXISTS companies (
	id TEXT PRIMARY KEY,
	company_name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS members (
	company_id TEXT NOT NULL REFERENCES companies (id),
	user_id TEXT NOT NULL REFERENCES users (id),
	PRIMARY KEY (company_id, user_id)
);

CREATE TABLE IF NOT EXISTS quizzes (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	company_id TEXT NOT NULL REFERENCES companies (id),
	data JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS attempts (
	id TEXT PRIMARY KEY,
	quiz_id TEXT NOT NULL REFERENCES quizzes (id),
	user_id TEXT NOT NULL REFERENCES users (id),
	correct_credit_sum DOUBLE PRECISION NOT NULL,
	question_count INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	CHECK (correct_credit_sum >= 0 AND correct_credit_sum <= question_count)
);

CREATE INDEX IF NOT EXISTS idx_attempts_user_created ON attempts (user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_attempts_quiz ON attempts (quiz_id);
`

var Migrations = migrate.NewMigrations()

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(createSchemaSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(`DROP TABLE IF EXISTS attempts, quizzes, members, users, companies`)
			return err
		},
	)
}
