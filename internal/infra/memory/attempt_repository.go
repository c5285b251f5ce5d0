package memory

import (
	"context"
	"sync"

	"quiz-attempt-service/internal/domain"
)

// AttemptRepository is an in-memory implementation of app.AttemptRepository.
type AttemptRepository struct {
	mu       sync.RWMutex
	attempts []domain.Attempt
}

func NewAttemptRepository() *AttemptRepository {
	return &AttemptRepository{}
}

func (r *AttemptRepository) Insert(_ context.Context, attempt domain.Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, attempt)
	return nil
}

func (r *AttemptRepository) ListByUser(_ context.Context, userID string) ([]domain.Attempt, error) {
	return r.filter(func(a domain.Attempt) bool {
		return a.UserID == userID
	}), nil
}

func (r *AttemptRepository) ListByCompany(_ context.Context, companyID string) ([]domain.Attempt, error) {
	return r.filter(func(a domain.Attempt) bool {
		return a.CompanyID == companyID
	}), nil
}

func (r *AttemptRepository) ListByCompanyUser(_ context.Context, companyID, userID string) ([]domain.Attempt, error) {
	return r.filter(func(a domain.Attempt) bool {
		return a.CompanyID == companyID && a.UserID == userID
	}), nil
}

func (r *AttemptRepository) ListByCompanyQuiz(_ context.Context, companyID, quizID string) ([]domain.Attempt, error) {
	return r.filter(func(a domain.Attempt) bool {
		return a.CompanyID == companyID && a.QuizID == quizID
	}), nil
}

func (r *AttemptRepository) filter(keep func(domain.Attempt) bool) []domain.Attempt {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matched := make([]domain.Attempt, 0)
	for _, attempt := range r.attempts {
		if keep(attempt) {
			matched = append(matched, attempt)
		}
	}
	return matched
}
