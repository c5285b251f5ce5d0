package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrUserNotFound indicates the submitting or queried user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrCompanyNotFound indicates the queried company does not exist.
	ErrCompanyNotFound = errors.New("company not found")
	// ErrNoQuestionsScored is returned when none of a submission's question IDs
	// resolved against the quiz, so there is nothing to score.
	ErrNoQuestionsScored = errors.New("no questions could be scored")
	// ErrUnsupportedFormat indicates an export format other than json or csv.
	ErrUnsupportedFormat = errors.New("unsupported export format")
	// ErrSnapshotWrite marks a failed evidence-cache write after the relational
	// attempt was already persisted. The attempt stands; only the exportable
	// snapshot is missing.
	ErrSnapshotWrite = errors.New("attempt snapshot write failed")
)

// SnapshotNotFoundError reports that an export filter matched zero snapshots.
// Scope names which filter combination was used so clients can tell a
// company-user miss from a company-wide one.
type SnapshotNotFoundError struct {
	Scope string
}

func (e *SnapshotNotFoundError) Error() string {
	return fmt.Sprintf("no attempt snapshots found for %s export", e.Scope)
}

// IsNotFound reports whether err is any of the not-found conditions.
func IsNotFound(err error) bool {
	var snf *SnapshotNotFoundError
	return errors.Is(err, ErrQuizNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrCompanyNotFound) ||
		errors.As(err, &snf)
}
