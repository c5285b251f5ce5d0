package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"quiz-attempt-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuizLoader loads quiz metadata plus JSONB question content from Postgres.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var quiz domain.Quiz
	var raw []byte
	err := l.pool.QueryRow(ctx,
		`SELECT q.id, q.title, c.id, c.company_name, q.data
		 FROM quizzes q JOIN companies c ON c.id = q.company_id
		 WHERE q.id = $1`,
		quizID,
	).Scan(&quiz.ID, &quiz.Title, &quiz.Company.ID, &quiz.Company.CompanyName, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	if err := json.Unmarshal(raw, &quiz.Questions); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz questions: %w", err)
	}
	return quiz, nil
}
