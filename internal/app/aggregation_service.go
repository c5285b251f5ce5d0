package app

import (
	"context"
	"fmt"
	"sort"

	"quiz-attempt-service/internal/domain"
)

// AggregationService builds score series and roster views from relationally
// stored attempts. Cumulative values are always the aggregate score of the
// whole series so far, never a running average of per-attempt scores.
type AggregationService struct {
	attempts  AttemptRepository
	directory Directory
}

func NewAggregationService(attempts AttemptRepository, directory Directory) *AggregationService {
	return &AggregationService{attempts: attempts, directory: directory}
}

// UserQuizSeries returns, per distinct quiz title, the cumulative score series
// of one user's attempts ordered by timestamp ascending. Titles appear in
// first-attempt order. A user with zero attempts gets an empty slice.
func (s *AggregationService) UserQuizSeries(ctx context.Context, userID string) ([]domain.QuizSeries, error) {
	attempts, err := s.attempts.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	sortByCreatedAt(attempts)

	series := make([]domain.QuizSeries, 0)
	index := make(map[string]int)
	running := make(map[string][]domain.Attempt)
	for _, attempt := range attempts {
		title := attempt.QuizTitle
		running[title] = append(running[title], attempt)
		point := domain.SeriesPoint{
			Score:     FormatScore(AggregateScore(running[title])),
			CreatedAt: attempt.CreatedAt,
		}
		if i, ok := index[title]; ok {
			series[i].Points = append(series[i].Points, point)
		} else {
			index[title] = len(series)
			series = append(series, domain.QuizSeries{
				QuizTitle: title,
				Points:    []domain.SeriesPoint{point},
			})
		}
	}
	return series, nil
}

// UserCompanyScore computes one aggregate score over a user's attempts on the
// target company's quizzes. ok is false when no attempts match; that is an
// empty result, not an error.
func (s *AggregationService) UserCompanyScore(ctx context.Context, companyID, userID string) (string, bool, error) {
	attempts, err := s.attempts.ListByCompanyUser(ctx, companyID, userID)
	if err != nil {
		return "", false, fmt.Errorf("list attempts: %w", err)
	}
	if len(attempts) == 0 {
		return "", false, nil
	}
	return FormatScore(AggregateScore(attempts)), true, nil
}

// CompanyRosterAttempts lists, for every member of the company, each of their
// attempts scored alone. Members without attempts appear with an empty list.
func (s *AggregationService) CompanyRosterAttempts(ctx context.Context, companyID string) ([]domain.MemberAttempts, error) {
	members, err := s.directory.ListMembers(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	roster := make([]domain.MemberAttempts, 0, len(members))
	for _, member := range members {
		attempts, err := s.attempts.ListByCompanyUser(ctx, companyID, member.ID)
		if err != nil {
			return nil, fmt.Errorf("list attempts for %s: %w", member.ID, err)
		}
		sortByCreatedAt(attempts)
		scored := make([]domain.AttemptScore, 0, len(attempts))
		for _, attempt := range attempts {
			scored = append(scored, attemptScore(attempt))
		}
		roster = append(roster, domain.MemberAttempts{User: member, Attempts: scored})
	}
	return roster, nil
}

// CompanyUserSeries returns one cumulative series per user who has attempted
// any of the company's quizzes, ordered by that user's attempt timestamps.
// Users appear in first-attempt order.
func (s *AggregationService) CompanyUserSeries(ctx context.Context, companyID string) ([]domain.UserSeries, error) {
	attempts, err := s.attempts.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	sortByCreatedAt(attempts)

	series := make([]domain.UserSeries, 0)
	index := make(map[string]int)
	running := make(map[string][]domain.Attempt)
	for _, attempt := range attempts {
		running[attempt.UserID] = append(running[attempt.UserID], attempt)
		point := domain.SeriesPoint{
			Score:     FormatScore(AggregateScore(running[attempt.UserID])),
			CreatedAt: attempt.CreatedAt,
		}
		if i, ok := index[attempt.UserID]; ok {
			series[i].Points = append(series[i].Points, point)
			continue
		}
		user, err := s.directory.GetUser(ctx, attempt.UserID)
		if err != nil {
			return nil, fmt.Errorf("resolve user %s: %w", attempt.UserID, err)
		}
		index[attempt.UserID] = len(series)
		series = append(series, domain.UserSeries{
			User:   user,
			Points: []domain.SeriesPoint{point},
		})
	}
	return series, nil
}

// UserLastAttempts reports, per quiz the user has attempted, only the most
// recent attempt's timestamp. Ties on timestamp keep the later row in sorted
// order so the result is deterministic. Quizzes appear in first-attempt order.
func (s *AggregationService) UserLastAttempts(ctx context.Context, userID string) ([]domain.QuizLastAttempt, error) {
	attempts, err := s.attempts.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	sortByCreatedAt(attempts)

	latest := make([]domain.QuizLastAttempt, 0)
	index := make(map[string]int)
	for _, attempt := range attempts {
		if i, ok := index[attempt.QuizID]; ok {
			if !attempt.CreatedAt.Before(latest[i].CreatedAt) {
				latest[i].CreatedAt = attempt.CreatedAt
			}
			continue
		}
		index[attempt.QuizID] = len(latest)
		latest = append(latest, domain.QuizLastAttempt{
			QuizID:    attempt.QuizID,
			QuizTitle: attempt.QuizTitle,
			CreatedAt: attempt.CreatedAt,
		})
	}
	return latest, nil
}

// CompanyMemberLastAttempts reports each roster member's single most recent
// attempt. A member with zero attempts is kept in the result with a nil
// LastAttempt rather than being skipped or failing the request.
func (s *AggregationService) CompanyMemberLastAttempts(ctx context.Context, companyID string) ([]domain.MemberLastAttempt, error) {
	members, err := s.directory.ListMembers(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	result := make([]domain.MemberLastAttempt, 0, len(members))
	for _, member := range members {
		attempts, err := s.attempts.ListByCompanyUser(ctx, companyID, member.ID)
		if err != nil {
			return nil, fmt.Errorf("list attempts for %s: %w", member.ID, err)
		}
		entry := domain.MemberLastAttempt{User: member}
		if len(attempts) > 0 {
			sort.Slice(attempts, func(i, j int) bool {
				return attempts[i].CreatedAt.After(attempts[j].CreatedAt)
			})
			last := attemptScore(attempts[0])
			entry.LastAttempt = &last
		}
		result = append(result, entry)
	}
	return result, nil
}

func attemptScore(attempt domain.Attempt) domain.AttemptScore {
	return domain.AttemptScore{
		AttemptID: attempt.ID,
		QuizID:    attempt.QuizID,
		QuizTitle: attempt.QuizTitle,
		Score:     FormatScore(AggregateScore([]domain.Attempt{attempt})),
		CreatedAt: attempt.CreatedAt,
	}
}

func sortByCreatedAt(attempts []domain.Attempt) {
	sort.SliceStable(attempts, func(i, j int) bool {
		return attempts[i].CreatedAt.Before(attempts[j].CreatedAt)
	})
}
