package quiz

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/minhaescola/backend/core"
	"github.com/minhaescola/backend/core/user"
)

// Option labels a Question accepts.
const (
	OptionA = "A"
	OptionB = "B"
	OptionC = "C"
	OptionD = "D"
)

type Quiz struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	CourseID    string      `json:"course"`
	OwnerID     string      `json:"-"`
	Owner       user.Public `json:"owner"`
	CreatedAt   time.Time   `json:"created_at"` // UTC
	Questions   []Question  `json:"questions"`
}

type Question struct {
	ID            string `json:"id"`
	QuizID        string `json:"quiz"`
	Text          string `json:"text"`
	OptionA       string `json:"option_a"`
	OptionB       string `json:"option_b"`
	OptionC       string `json:"option_c"`
	OptionD       string `json:"option_d"`
	CorrectOption string `json:"correct_option"`
}

// NewQuiz contains information needed to create a new Quiz.
// The owner is always the authenticated caller.
type NewQuiz struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description"`
	CourseID    string `json:"course" validate:"required"`
}

func (nq *NewQuiz) Validate(validate *validator.Validate) error {
	nq.Title = core.CleanString(nq.Title)
	nq.Description = core.CleanString(nq.Description)
	nq.CourseID = core.CleanString(nq.CourseID)
	return validate.Struct(nq)
}

type UpdateQuiz struct {
	Title       string `json:"title" validate:"omitempty,max=200"`
	Description string `json:"description"`
}

func (uq *UpdateQuiz) Validate(orig Quiz, validate *validator.Validate) error {
	if title := core.CleanString(uq.Title); title != "" {
		uq.Title = title
	} else {
		uq.Title = orig.Title
	}
	if desc := core.CleanString(uq.Description); desc != "" {
		uq.Description = desc
	} else {
		uq.Description = orig.Description
	}
	return validate.Struct(uq)
}

// NewQuestion contains information needed to create a new Question.
// QuizID may be forced out-of-band by a nested resource path; when it
// is, the forced value wins over whatever the payload carries.
type NewQuestion struct {
	QuizID        string `json:"quiz" validate:"required"`
	Text          string `json:"text" validate:"required,max=500"`
	OptionA       string `json:"option_a" validate:"required,max=200"`
	OptionB       string `json:"option_b" validate:"required,max=200"`
	OptionC       string `json:"option_c" validate:"required,max=200"`
	OptionD       string `json:"option_d" validate:"required,max=200"`
	CorrectOption string `json:"correct_option" validate:"required,anslabel"`
}

func (nq *NewQuestion) Validate(validate *validator.Validate) error {
	nq.QuizID = core.CleanString(nq.QuizID)
	nq.Text = core.CleanString(nq.Text)
	return validate.Struct(nq)
}

type UpdateQuestion struct {
	Text          string `json:"text" validate:"omitempty,max=500"`
	OptionA       string `json:"option_a" validate:"omitempty,max=200"`
	OptionB       string `json:"option_b" validate:"omitempty,max=200"`
	OptionC       string `json:"option_c" validate:"omitempty,max=200"`
	OptionD       string `json:"option_d" validate:"omitempty,max=200"`
	CorrectOption string `json:"correct_option" validate:"omitempty,anslabel"`
}

func (uq *UpdateQuestion) Validate(orig Question, validate *validator.Validate) error {
	if text := core.CleanString(uq.Text); text != "" {
		uq.Text = text
	} else {
		uq.Text = orig.Text
	}
	if uq.OptionA == "" {
		uq.OptionA = orig.OptionA
	}
	if uq.OptionB == "" {
		uq.OptionB = orig.OptionB
	}
	if uq.OptionC == "" {
		uq.OptionC = orig.OptionC
	}
	if uq.OptionD == "" {
		uq.OptionD = orig.OptionD
	}
	if uq.CorrectOption == "" {
		uq.CorrectOption = orig.CorrectOption
	}
	return validate.Struct(uq)
}

type QuizFilter struct {
	CourseID string `query:"course"`
}

func (f *QuizFilter) IsEmpty() bool { return f.CourseID == "" }

type QuestionFilter struct {
	QuizID string `query:"quiz"`
}

func (f *QuestionFilter) IsEmpty() bool { return f.QuizID == "" }
