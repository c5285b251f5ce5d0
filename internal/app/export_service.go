package app

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"quiz-attempt-service/internal/domain"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// ExportFilter selects snapshots along up to three dimensions. CompanyID is
// required for the company paths; UserID and QuizID are mutually exclusive
// refinements, with UserID taking precedence when both are set.
type ExportFilter struct {
	CompanyID string
	UserID    string
	QuizID    string
}

// ExportService renders attempt evidence from the snapshot cache. It never
// touches relational attempts; an expired snapshot is simply absent from the
// export.
type ExportService struct {
	snapshots SnapshotStore
}

func NewExportService(snapshots SnapshotStore) *ExportService {
	return &ExportService{snapshots: snapshots}
}

// Export renders every live snapshot matching the filter. Zero matches is a
// not-found condition whose scope names the filter combination used.
func (s *ExportService) Export(ctx context.Context, filter ExportFilter, format string) (domain.ExportResult, error) {
	snapshots, err := s.snapshots.ScanAll(ctx, SnapshotKeyPrefix)
	if err != nil {
		return domain.ExportResult{}, fmt.Errorf("scan snapshots: %w", err)
	}

	scope, slug := filterScope(filter)
	matched := make([]domain.AttemptSnapshot, 0, len(snapshots))
	for _, snap := range snapshots {
		if matchesFilter(snap, filter) {
			matched = append(matched, snap)
		}
	}
	if len(matched) == 0 {
		return domain.ExportResult{}, &domain.SnapshotNotFoundError{Scope: scope}
	}
	return render(matched, format, slug)
}

// ExportByEmail renders every live snapshot belonging to one user's email,
// across all companies.
func (s *ExportService) ExportByEmail(ctx context.Context, email, format string) (domain.ExportResult, error) {
	snapshots, err := s.snapshots.ScanAll(ctx, SnapshotKeyPrefix)
	if err != nil {
		return domain.ExportResult{}, fmt.Errorf("scan snapshots: %w", err)
	}

	matched := make([]domain.AttemptSnapshot, 0, len(snapshots))
	for _, snap := range snapshots {
		if snap.UserEmail == email {
			matched = append(matched, snap)
		}
	}
	if len(matched) == 0 {
		return domain.ExportResult{}, &domain.SnapshotNotFoundError{Scope: "user-wide"}
	}
	return render(matched, format, "user_"+email)
}

// filterScope resolves the mutually exclusive filter precedence: company+user,
// then company+quiz, then company-wide. It returns the human-readable scope
// for error messages and the filename slug.
func filterScope(filter ExportFilter) (scope, slug string) {
	switch {
	case filter.UserID != "":
		return "company user", "company_" + filter.CompanyID + "_user_" + filter.UserID
	case filter.QuizID != "":
		return "company quiz", "company_" + filter.CompanyID + "_quiz_" + filter.QuizID
	default:
		return "company-wide", "company_" + filter.CompanyID
	}
}

func matchesFilter(snap domain.AttemptSnapshot, filter ExportFilter) bool {
	if snap.CompanyID != filter.CompanyID {
		return false
	}
	switch {
	case filter.UserID != "":
		return snap.UserID == filter.UserID
	case filter.QuizID != "":
		return snap.QuizID == filter.QuizID
	default:
		return true
	}
}

func render(snapshots []domain.AttemptSnapshot, format, slug string) (domain.ExportResult, error) {
	switch format {
	case FormatJSON:
		payload, err := json.MarshalIndent(snapshots, "", "  ")
		if err != nil {
			return domain.ExportResult{}, fmt.Errorf("render json: %w", err)
		}
		return domain.ExportResult{
			Payload:     payload,
			ContentType: "application/json",
			Filename:    "attempts_" + slug + ".json",
		}, nil
	case FormatCSV:
		payload, err := renderCSV(snapshots)
		if err != nil {
			return domain.ExportResult{}, fmt.Errorf("render csv: %w", err)
		}
		return domain.ExportResult{
			Payload:     payload,
			ContentType: "text/csv",
			Filename:    "attempts_" + slug + ".csv",
		}, nil
	default:
		return domain.ExportResult{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, format)
	}
}

// renderCSV flattens snapshots to one row per question. The header row is
// always written, even for an empty set.
func renderCSV(snapshots []domain.AttemptSnapshot) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"Company Name", "User Email", "Quiz Title", "Question", "Selected Answers", "Correct Answer"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, snap := range snapshots {
		for _, evidence := range snap.Questions {
			row := []string{
				snap.CompanyName,
				snap.UserEmail,
				snap.QuizTitle,
				evidence.Question.Content,
				strings.Join(selectedTexts(evidence), ", "),
				correctText(evidence.Question),
			}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func selectedTexts(evidence domain.QuestionEvidence) []string {
	texts := make([]string, 0, len(evidence.SelectedOptionIDs))
	for _, id := range evidence.SelectedOptionIDs {
		for _, opt := range evidence.Question.Options {
			if opt.ID == id {
				texts = append(texts, opt.Text)
				break
			}
		}
	}
	return texts
}

func correctText(question domain.Question) string {
	for _, opt := range question.Options {
		if opt.Correct {
			return opt.Text
		}
	}
	return ""
}
