package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"quiz-attempt-service/internal/domain"
)

// SnapshotKeyPrefix is the cache key namespace for attempt evidence.
const SnapshotKeyPrefix = "quiz_attempt:"

// DefaultSnapshotTTL is the evidence retention window when config does not
// override it.
const DefaultSnapshotTTL = 172800 * time.Second

// SnapshotKey derives the cache key for one attempt's evidence.
func SnapshotKey(attemptID string) string {
	return SnapshotKeyPrefix + attemptID
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// Directory resolves users and company rosters.
type Directory interface {
	GetUser(ctx context.Context, userID string) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
	ListMembers(ctx context.Context, companyID string) ([]domain.User, error)
}

// AttemptRepository persists and queries relational attempt rows. Lists are
// returned ordered by creation time ascending.
type AttemptRepository interface {
	Insert(ctx context.Context, attempt domain.Attempt) error
	ListByUser(ctx context.Context, userID string) ([]domain.Attempt, error)
	ListByCompany(ctx context.Context, companyID string) ([]domain.Attempt, error)
	ListByCompanyUser(ctx context.Context, companyID, userID string) ([]domain.Attempt, error)
	ListByCompanyQuiz(ctx context.Context, companyID, quizID string) ([]domain.Attempt, error)
}

// SnapshotStore is the write-through evidence cache. Entries expire after the
// given TTL and the store is best-effort: absence is normal, not an error.
type SnapshotStore interface {
	Put(ctx context.Context, attemptID string, snapshot domain.AttemptSnapshot, ttl time.Duration) error
	ScanAll(ctx context.Context, prefix string) ([]domain.AttemptSnapshot, error)
}

// AttemptService scores submissions, persists the attempt row, and writes the
// evidence snapshot.
type AttemptService struct {
	quizzes     QuizRepository
	directory   Directory
	attempts    AttemptRepository
	snapshots   SnapshotStore
	snapshotTTL time.Duration
	now         func() time.Time
	newID       func() string
}

func NewAttemptService(quizzes QuizRepository, directory Directory, attempts AttemptRepository, snapshots SnapshotStore, snapshotTTL time.Duration) *AttemptService {
	if snapshotTTL <= 0 {
		snapshotTTL = DefaultSnapshotTTL
	}
	return &AttemptService{
		quizzes:     quizzes,
		directory:   directory,
		attempts:    attempts,
		snapshots:   snapshots,
		snapshotTTL: snapshotTTL,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// WithClock is test-only for deterministic timestamps and IDs.
func (s *AttemptService) WithClock(now func() time.Time, newID func() string) *AttemptService {
	s.now = now
	s.newID = newID
	return s
}

// Submit scores the answers, inserts the relational attempt, then writes the
// evidence snapshot. Question IDs that do not resolve against the quiz are
// skipped rather than failing the submission. The relational insert must
// succeed; a snapshot write failure is returned as domain.ErrSnapshotWrite
// alongside a valid receipt so callers can report the partial outcome without
// rolling back the already-durable score.
func (s *AttemptService) Submit(ctx context.Context, quizID, userID string, answers []domain.AnswerSubmission) (domain.SubmissionReceipt, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.SubmissionReceipt{}, err
	}
	user, err := s.directory.GetUser(ctx, userID)
	if err != nil {
		return domain.SubmissionReceipt{}, err
	}

	var creditSum float64
	evidence := make([]domain.QuestionEvidence, 0, len(answers))
	for _, answer := range answers {
		question, ok := findQuestion(quiz, answer.QuestionID)
		if !ok {
			continue
		}
		creditSum += QuestionCredit(question, answer.SelectedOptionIDs)
		evidence = append(evidence, domain.QuestionEvidence{
			Question:          question,
			SelectedOptionIDs: answer.SelectedOptionIDs,
		})
	}
	if len(evidence) == 0 {
		return domain.SubmissionReceipt{}, domain.ErrNoQuestionsScored
	}

	attempt := domain.Attempt{
		ID:               s.newID(),
		QuizID:           quiz.ID,
		QuizTitle:        quiz.Title,
		CompanyID:        quiz.Company.ID,
		UserID:           user.ID,
		CorrectCreditSum: creditSum,
		QuestionCount:    len(evidence),
		CreatedAt:        s.now(),
	}
	if err := s.attempts.Insert(ctx, attempt); err != nil {
		return domain.SubmissionReceipt{}, fmt.Errorf("persist attempt: %w", err)
	}

	receipt := domain.SubmissionReceipt{
		AttemptID:        attempt.ID,
		QuizID:           quiz.ID,
		CorrectCreditSum: creditSum,
		QuestionCount:    attempt.QuestionCount,
		Score:            FormatScore(AggregateScore([]domain.Attempt{attempt})),
		SnapshotStored:   true,
		CreatedAt:        attempt.CreatedAt,
	}

	snapshot := domain.AttemptSnapshot{
		AttemptID:   attempt.ID,
		UserID:      user.ID,
		UserEmail:   user.Email,
		CompanyID:   quiz.Company.ID,
		CompanyName: quiz.Company.CompanyName,
		QuizID:      quiz.ID,
		QuizTitle:   quiz.Title,
		Questions:   evidence,
	}
	if err := s.snapshots.Put(ctx, attempt.ID, snapshot, s.snapshotTTL); err != nil {
		receipt.SnapshotStored = false
		return receipt, fmt.Errorf("%w: %v", domain.ErrSnapshotWrite, err)
	}
	return receipt, nil
}

func findQuestion(quiz domain.Quiz, questionID string) (domain.Question, bool) {
	for i := range quiz.Questions {
		if quiz.Questions[i].ID == questionID {
			return quiz.Questions[i], true
		}
	}
	return domain.Question{}, false
}
