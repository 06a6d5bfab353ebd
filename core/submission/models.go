package submission

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/minhaescola/backend/core"
	"github.com/minhaescola/backend/core/user"
)

type Submission struct {
	ID          string      `json:"id"`
	QuizID      string      `json:"quiz"`
	StudentID   string      `json:"-"`
	Student     user.Public `json:"student"`
	SubmittedAt time.Time   `json:"submitted_at"` // UTC
	// Answers maps a stringified question ID to the selected option label.
	Answers map[string]string `json:"answers"`
	// Score is null until computed; 0.0–100.0 afterwards.
	Score null.Float64 `json:"score"`
}

// NewSubmission contains information needed to create a new Submission.
// The student is always the authenticated caller.
type NewSubmission struct {
	QuizID  string            `json:"quiz" validate:"required"`
	Answers map[string]string `json:"answers"`
}

func (ns *NewSubmission) Validate(validate *validator.Validate) error {
	ns.QuizID = core.CleanString(ns.QuizID)
	if ns.Answers == nil {
		ns.Answers = map[string]string{}
	}
	return validate.Struct(ns)
}

// UpdateSubmission is admin-only; students and teachers have no
// mutation path to a Submission.
type UpdateSubmission struct {
	Answers map[string]string `json:"answers"`
}

type Filter struct {
	QuizID    string `query:"quiz"`
	StudentID string `query:"student"`
}

func (f *Filter) IsEmpty() bool { return f.QuizID == "" && f.StudentID == "" }
