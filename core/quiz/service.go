package quiz

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/minhaescola/backend/core"
	"github.com/minhaescola/backend/core/user"
)

var (
	// errors
	ErrQuizNotFound     = errors.New("quiz not found")
	ErrQuestionNotFound = errors.New("question not found")
)

type (
	// CourseGetter is the single thing this package needs from the catalog.
	CourseGetter interface {
		CourseExists(ctx context.Context, id string) error
	}

	Repository interface {
		CreateQuiz(ctx context.Context, qz Quiz) (Quiz, error)
		// GetQuizByID returns the quiz with its questions populated.
		GetQuizByID(ctx context.Context, id string) (Quiz, error)
		QueryQuizzes(ctx context.Context, filter *QuizFilter, ordering []core.DBOrdering) ([]Quiz, error)
		UpdateQuiz(ctx context.Context, qz Quiz) (Quiz, error)
		// DeleteQuizzesByID walks and deletes each quiz's questions and
		// submissions before the quiz row.
		DeleteQuizzesByID(ctx context.Context, ids ...string) error

		CreateQuestion(ctx context.Context, q Question) (Question, error)
		GetQuestionByID(ctx context.Context, id string) (Question, error)
		QueryQuestions(ctx context.Context, filter *QuestionFilter) ([]Question, error)
		UpdateQuestion(ctx context.Context, q Question) (Question, error)
		DeleteQuestionsByID(ctx context.Context, ids ...string) error
	}

	Service interface {
		CreateQuiz(ctx context.Context, nq NewQuiz, owner user.User) (Quiz, error)
		GetQuiz(ctx context.Context, id string) (Quiz, error)
		QueryQuizzes(ctx context.Context, filter *QuizFilter, ordering []core.DBOrdering) ([]Quiz, error)
		UpdateQuiz(ctx context.Context, id string, uq UpdateQuiz) (Quiz, error)
		DeleteQuizzes(ctx context.Context, ids ...string) error

		CreateQuestion(ctx context.Context, nq NewQuestion) (Question, error)
		GetQuestion(ctx context.Context, id string) (Question, error)
		QueryQuestions(ctx context.Context, filter *QuestionFilter) ([]Question, error)
		UpdateQuestion(ctx context.Context, id string, uq UpdateQuestion) (Question, error)
		DeleteQuestions(ctx context.Context, ids ...string) error
	}

	service struct {
		repo    Repository
		courses CourseGetter
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, courses CourseGetter) Service {
	return &service{repo: repo, courses: courses}
}

func (svc *service) CreateQuiz(ctx context.Context, nq NewQuiz, owner user.User) (Quiz, error) {
	if err := svc.courses.CourseExists(ctx, nq.CourseID); err != nil {
		return Quiz{}, err
	}
	qz := Quiz{
		Title:       nq.Title,
		Description: nq.Description,
		CourseID:    nq.CourseID,
		OwnerID:     owner.ID,
		CreatedAt:   time.Now().UTC(),
	}
	return svc.repo.CreateQuiz(ctx, qz)
}

func (svc *service) GetQuiz(ctx context.Context, id string) (Quiz, error) {
	return svc.repo.GetQuizByID(ctx, id)
}

func (svc *service) QueryQuizzes(ctx context.Context, filter *QuizFilter, ordering []core.DBOrdering) ([]Quiz, error) {
	return svc.repo.QueryQuizzes(ctx, filter, ordering)
}

func (svc *service) UpdateQuiz(ctx context.Context, id string, uq UpdateQuiz) (Quiz, error) {
	return svc.repo.UpdateQuiz(ctx, Quiz{ID: id, Title: uq.Title, Description: uq.Description})
}

func (svc *service) DeleteQuizzes(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteQuizzesByID(ctx, ids...)
}

func (svc *service) CreateQuestion(ctx context.Context, nq NewQuestion) (Question, error) {
	if _, err := svc.repo.GetQuizByID(ctx, nq.QuizID); err != nil {
		return Question{}, err
	}
	q := Question{
		QuizID:        nq.QuizID,
		Text:          nq.Text,
		OptionA:       nq.OptionA,
		OptionB:       nq.OptionB,
		OptionC:       nq.OptionC,
		OptionD:       nq.OptionD,
		CorrectOption: nq.CorrectOption,
	}
	return svc.repo.CreateQuestion(ctx, q)
}

func (svc *service) GetQuestion(ctx context.Context, id string) (Question, error) {
	return svc.repo.GetQuestionByID(ctx, id)
}

func (svc *service) QueryQuestions(ctx context.Context, filter *QuestionFilter) ([]Question, error) {
	return svc.repo.QueryQuestions(ctx, filter)
}

func (svc *service) UpdateQuestion(ctx context.Context, id string, uq UpdateQuestion) (Question, error) {
	q := Question{
		ID:            id,
		Text:          uq.Text,
		OptionA:       uq.OptionA,
		OptionB:       uq.OptionB,
		OptionC:       uq.OptionC,
		OptionD:       uq.OptionD,
		CorrectOption: uq.CorrectOption,
	}
	return svc.repo.UpdateQuestion(ctx, q)
}

func (svc *service) DeleteQuestions(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteQuestionsByID(ctx, ids...)
}
