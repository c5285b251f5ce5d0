package postgres

import (
	"context"
	"fmt"

	"quiz-attempt-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const attemptColumns = `a.id, a.quiz_id, q.title, q.company_id, a.user_id, a.correct_credit_sum, a.question_count, a.created_at`

// AttemptRepository persists attempt rows in Postgres. Reads join quizzes to
// denormalize the quiz title and owning company.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

func (r *AttemptRepository) Insert(ctx context.Context, attempt domain.Attempt) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO attempts (id, quiz_id, user_id, correct_credit_sum, question_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		attempt.ID, attempt.QuizID, attempt.UserID, attempt.CorrectCreditSum, attempt.QuestionCount, attempt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

func (r *AttemptRepository) ListByUser(ctx context.Context, userID string) ([]domain.Attempt, error) {
	return r.list(ctx,
		`SELECT `+attemptColumns+`
		 FROM attempts a JOIN quizzes q ON q.id = a.quiz_id
		 WHERE a.user_id = $1
		 ORDER BY a.created_at ASC`,
		userID,
	)
}

func (r *AttemptRepository) ListByCompany(ctx context.Context, companyID string) ([]domain.Attempt, error) {
	return r.list(ctx,
		`SELECT `+attemptColumns+`
		 FROM attempts a JOIN quizzes q ON q.id = a.quiz_id
		 WHERE q.company_id = $1
		 ORDER BY a.created_at ASC`,
		companyID,
	)
}

func (r *AttemptRepository) ListByCompanyUser(ctx context.Context, companyID, userID string) ([]domain.Attempt, error) {
	return r.list(ctx,
		`SELECT `+attemptColumns+`
		 FROM attempts a JOIN quizzes q ON q.id = a.quiz_id
		 WHERE q.company_id = $1 AND a.user_id = $2
		 ORDER BY a.created_at ASC`,
		companyID, userID,
	)
}

func (r *AttemptRepository) ListByCompanyQuiz(ctx context.Context, companyID, quizID string) ([]domain.Attempt, error) {
	return r.list(ctx,
		`SELECT `+attemptColumns+`
		 FROM attempts a JOIN quizzes q ON q.id = a.quiz_id
		 WHERE q.company_id = $1 AND a.quiz_id = $2
		 ORDER BY a.created_at ASC`,
		companyID, quizID,
	)
}

func (r *AttemptRepository) list(ctx context.Context, query string, args ...interface{}) ([]domain.Attempt, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	attempts := make([]domain.Attempt, 0)
	for rows.Next() {
		attempt, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, attempt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return attempts, nil
}

func scanAttempt(rows pgx.Rows) (domain.Attempt, error) {
	var attempt domain.Attempt
	err := rows.Scan(
		&attempt.ID,
		&attempt.QuizID,
		&attempt.QuizTitle,
		&attempt.CompanyID,
		&attempt.UserID,
		&attempt.CorrectCreditSum,
		&attempt.QuestionCount,
		&attempt.CreatedAt,
	)
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("scan attempt: %w", err)
	}
	return attempt, nil
}
