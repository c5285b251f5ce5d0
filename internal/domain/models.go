package domain

import "time"

// Company is a tenant that owns quizzes and a roster of members.
type Company struct {
	ID          string `json:"id"`
	CompanyName string `json:"companyName"`
}

// User identifies a platform member.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Option represents a possible answer for a question.
type Option struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question models an MCQ question with exactly one correct option.
type Question struct {
	ID      string   `json:"id"`
	Content string   `json:"content"`
	Options []Option `json:"options"`
}

// Quiz is a collection of questions owned by one company.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Company   Company    `json:"company"`
	Questions []Question `json:"questions"`
}

// AnswerSubmission is one question's selections within a submitted attempt.
type AnswerSubmission struct {
	QuestionID        string   `json:"questionId"`
	SelectedOptionIDs []string `json:"selectedOptionIds"`
}

// Attempt is the relational record of one completed quiz submission.
// CorrectCreditSum is the sum of per-question credit earned; QuestionCount is
// the number of questions that were actually scored. Immutable once created.
type Attempt struct {
	ID               string    `json:"id"`
	QuizID           string    `json:"quizId"`
	QuizTitle        string    `json:"quizTitle"`
	CompanyID        string    `json:"companyId"`
	UserID           string    `json:"userId"`
	CorrectCreditSum float64   `json:"correctCreditSum"`
	QuestionCount    int       `json:"questionCount"`
	CreatedAt        time.Time `json:"createdAt"`
}

// QuestionEvidence pairs the full question content with what the user selected.
type QuestionEvidence struct {
	Question          Question `json:"question"`
	SelectedOptionIDs []string `json:"selectedOptionIds"`
}

// AttemptSnapshot is the denormalized, cache-resident copy of an attempt's
// evidence. It exists only for export; the relational Attempt stays the system
// of record and losing a snapshot never corrupts scores.
type AttemptSnapshot struct {
	AttemptID   string             `json:"attemptId"`
	UserID      string             `json:"userId"`
	UserEmail   string             `json:"userEmail"`
	CompanyID   string             `json:"companyId"`
	CompanyName string             `json:"companyName"`
	QuizID      string             `json:"quizId"`
	QuizTitle   string             `json:"quizTitle"`
	Questions   []QuestionEvidence `json:"questions"`
}

// SeriesPoint is one step of a cumulative score series. Score is the
// full-precision text rendering of the aggregate over all attempts up to and
// including this point.
type SeriesPoint struct {
	Score     string    `json:"score"`
	CreatedAt time.Time `json:"createdAt"`
}

// QuizSeries is the cumulative series of one quiz title for one user.
type QuizSeries struct {
	QuizTitle string        `json:"quizTitle"`
	Points    []SeriesPoint `json:"points"`
}

// UserSeries is a user's cumulative series across all of a company's quizzes.
type UserSeries struct {
	User   User          `json:"user"`
	Points []SeriesPoint `json:"points"`
}

// AttemptScore is one attempt scored alone, for roster listings.
type AttemptScore struct {
	AttemptID string    `json:"attemptId"`
	QuizID    string    `json:"quizId"`
	QuizTitle string    `json:"quizTitle"`
	Score     string    `json:"score"`
	CreatedAt time.Time `json:"createdAt"`
}

// MemberAttempts lists one roster member's individually scored attempts.
type MemberAttempts struct {
	User     User           `json:"user"`
	Attempts []AttemptScore `json:"attempts"`
}

// QuizLastAttempt reports the most recent attempt timestamp for one quiz.
type QuizLastAttempt struct {
	QuizID    string    `json:"quizId"`
	QuizTitle string    `json:"quizTitle"`
	CreatedAt time.Time `json:"createdAt"`
}

// MemberLastAttempt reports a roster member's single most recent attempt.
// LastAttempt is nil when the member has never attempted anything; callers
// decide whether to filter or surface such members.
type MemberLastAttempt struct {
	User        User          `json:"user"`
	LastAttempt *AttemptScore `json:"lastAttempt"`
}

// SubmissionReceipt confirms an accepted attempt. SnapshotStored is false when
// the relational write succeeded but the evidence cache write did not.
type SubmissionReceipt struct {
	AttemptID        string    `json:"attemptId"`
	QuizID           string    `json:"quizId"`
	CorrectCreditSum float64   `json:"correctCreditSum"`
	QuestionCount    int       `json:"questionCount"`
	Score            string    `json:"score"`
	SnapshotStored   bool      `json:"snapshotStored"`
	CreatedAt        time.Time `json:"createdAt"`
}

// ExportResult is the rendered evidence payload handed to the HTTP layer.
type ExportResult struct {
	Payload     []byte `json:"-"`
	ContentType string `json:"contentType"`
	Filename    string `json:"filename"`
}
