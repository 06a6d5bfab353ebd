package submission

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/minhaescola/backend/core"
	"github.com/minhaescola/backend/core/quiz"
	"github.com/minhaescola/backend/core/user"
)

var (
	// errors
	ErrNotFound = errors.New("submission not found")
	ErrExists   = errors.New("a submission for this quiz already exists")
)

type (
	// QuestionSource is what grading needs from the quiz component.
	QuestionSource interface {
		GetQuiz(ctx context.Context, id string) (quiz.Quiz, error)
	}

	Repository interface {
		// CreateSubmission fails with ErrExists when a submission for the
		// same (quiz, student) pair exists; the store enforces this, so a
		// race between two submissions resolves to one success.
		CreateSubmission(ctx context.Context, sub Submission) (Submission, error)
		GetSubmissionByID(ctx context.Context, id string) (Submission, error)
		QuerySubmissions(ctx context.Context, filter *Filter, ordering []core.DBOrdering) ([]Submission, error)
		UpdateSubmission(ctx context.Context, sub Submission) (Submission, error)
		SetSubmissionScore(ctx context.Context, id string, score float64) (Submission, error)
		DeleteSubmissionsByID(ctx context.Context, ids ...string) error
	}

	Service interface {
		// Create persists the submission and immediately computes and
		// persists its score; grading is never deferred.
		Create(ctx context.Context, ns NewSubmission, student user.User) (Submission, error)
		Get(ctx context.Context, id string) (Submission, error)
		// QueryForUser scopes reads: students see only their own
		// submissions, teachers and admins see all.
		QueryForUser(ctx context.Context, usr user.User, filter *Filter, ordering []core.DBOrdering) ([]Submission, error)
		Update(ctx context.Context, id string, us UpdateSubmission) (Submission, error)
		Delete(ctx context.Context, ids ...string) error
		// Recalculate re-grades a submission against the quiz's current
		// question set and persists the new score.
		Recalculate(ctx context.Context, id string) (Submission, error)
	}

	service struct {
		repo    Repository
		quizzes QuestionSource
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, quizzes QuestionSource) Service {
	return &service{repo: repo, quizzes: quizzes}
}

func (svc *service) Create(ctx context.Context, ns NewSubmission, student user.User) (Submission, error) {
	qz, err := svc.quizzes.GetQuiz(ctx, ns.QuizID)
	if err != nil {
		return Submission{}, err
	}

	sub := Submission{
		QuizID:      qz.ID,
		StudentID:   student.ID,
		SubmittedAt: time.Now().UTC(),
		Answers:     ns.Answers,
	}
	sub, err = svc.repo.CreateSubmission(ctx, sub)
	if err != nil {
		return Submission{}, err
	}
	return svc.grade(ctx, sub, qz.Questions)
}

func (svc *service) Get(ctx context.Context, id string) (Submission, error) {
	return svc.repo.GetSubmissionByID(ctx, id)
}

func (svc *service) QueryForUser(ctx context.Context, usr user.User, filter *Filter, ordering []core.DBOrdering) ([]Submission, error) {
	if filter == nil {
		filter = &Filter{}
	}
	if !(usr.IsAdmin() || usr.IsTeacher()) {
		filter.StudentID = usr.ID
	}
	return svc.repo.QuerySubmissions(ctx, filter, ordering)
}

func (svc *service) Update(ctx context.Context, id string, us UpdateSubmission) (Submission, error) {
	sub, err := svc.repo.UpdateSubmission(ctx, Submission{ID: id, Answers: us.Answers})
	if err != nil {
		return Submission{}, err
	}
	return svc.regrade(ctx, sub)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteSubmissionsByID(ctx, ids...)
}

func (svc *service) Recalculate(ctx context.Context, id string) (Submission, error) {
	sub, err := svc.repo.GetSubmissionByID(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	return svc.regrade(ctx, sub)
}

func (svc *service) regrade(ctx context.Context, sub Submission) (Submission, error) {
	qz, err := svc.quizzes.GetQuiz(ctx, sub.QuizID)
	if err != nil {
		return Submission{}, err
	}
	return svc.grade(ctx, sub, qz.Questions)
}

func (svc *service) grade(ctx context.Context, sub Submission, questions []quiz.Question) (Submission, error) {
	score := CalculateScore(sub.Answers, questions)
	graded, err := svc.repo.SetSubmissionScore(ctx, sub.ID, score)
	if err != nil {
		return Submission{}, errors.Wrap(err, "persisting score")
	}
	return graded, nil
}

// CalculateScore grades an answer mapping against a quiz's current
// question set. It is deterministic and pure:
// an empty mapping or an empty question set scores 0; otherwise each
// question whose stringified ID keys an answer equal to its correct
// option (case-sensitive) counts, and the score is the percentage of
// correct answers.
func CalculateScore(answers map[string]string, questions []quiz.Question) float64 {
	if len(answers) == 0 {
		return 0.0
	}
	total := len(questions)
	if total == 0 {
		return 0.0
	}

	var correct int
	for _, q := range questions {
		if ans, ok := answers[q.ID]; ok && ans == q.CorrectOption {
			correct++
		}
	}
	return (float64(correct) / float64(total)) * 100
}
