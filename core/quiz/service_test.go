package quiz_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhaescola/backend/core/course"
	"github.com/minhaescola/backend/core/quiz"
	"github.com/minhaescola/backend/core/submission"
	"github.com/minhaescola/backend/core/user"
	inmemdb "github.com/minhaescola/backend/storage/database/inmem"
	testutil "github.com/minhaescola/backend/tests"
)

type fixture struct {
	svc     quiz.Service
	subRepo submission.Repository
	prof    user.User
	crs     course.Course
}

// courseChecker adapts the course repository to the quiz service
// without pulling in the file store.
type courseChecker struct {
	repo course.Repository
}

func (c courseChecker) CourseExists(ctx context.Context, id string) error {
	_, err := c.repo.GetCourseByID(ctx, id)
	return err
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := inmemdb.Open()
	crsRepo := inmemdb.NewCourseRepository(db)
	usrRepo := inmemdb.NewUserRepository(db)

	prof := testutil.CreateUser(t, usrRepo, "Prof", "prof", "prof@escola.cd", "mdr", []string{user.RoleTeacher}, true)
	crs := testutil.CreateCourse(t, crsRepo, "Geo", prof)

	return fixture{
		svc:     quiz.NewService(inmemdb.NewQuizRepository(db), courseChecker{repo: crsRepo}),
		subRepo: inmemdb.NewSubmissionRepository(db),
		prof:    prof,
		crs:     crs,
	}
}

func TestService_QuizCRUD(t *testing.T) {
	ctx := context.Background()
	fix := setup(t)

	t.Run("unknown course", func(t *testing.T) {
		_, err := fix.svc.CreateQuiz(ctx, quiz.NewQuiz{Title: "Prova", CourseID: "lol"}, fix.prof)
		assert.Equal(t, course.ErrCourseNotFound, err)
	})

	qz, err := fix.svc.CreateQuiz(ctx, quiz.NewQuiz{Title: "Prova", Description: "d", CourseID: fix.crs.ID}, fix.prof)
	require.NoError(t, err)
	assert.NotEmpty(t, qz.ID)
	assert.Equal(t, fix.prof.ID, qz.Owner.ID)
	assert.Empty(t, qz.Questions)

	got, err := fix.svc.GetQuiz(ctx, qz.ID)
	require.NoError(t, err)
	assert.Equal(t, "Prova", got.Title)

	qz, err = fix.svc.UpdateQuiz(ctx, qz.ID, quiz.UpdateQuiz{Title: "Prova 2"})
	require.NoError(t, err)
	assert.Equal(t, "Prova 2", qz.Title)
	assert.Equal(t, "d", qz.Description)

	_, err = fix.svc.UpdateQuiz(ctx, "lol", quiz.UpdateQuiz{Title: "x"})
	assert.Equal(t, quiz.ErrQuizNotFound, err)

	byCourse, err := fix.svc.QueryQuizzes(ctx, &quiz.QuizFilter{CourseID: fix.crs.ID}, nil)
	require.NoError(t, err)
	assert.Len(t, byCourse, 1)

	require.NoError(t, fix.svc.DeleteQuizzes(ctx, qz.ID))
	_, err = fix.svc.GetQuiz(ctx, qz.ID)
	assert.Equal(t, quiz.ErrQuizNotFound, err)
}

func TestService_Questions(t *testing.T) {
	ctx := context.Background()
	fix := setup(t)

	qz, err := fix.svc.CreateQuiz(ctx, quiz.NewQuiz{Title: "Prova", CourseID: fix.crs.ID}, fix.prof)
	require.NoError(t, err)

	t.Run("unknown quiz", func(t *testing.T) {
		_, err := fix.svc.CreateQuestion(ctx, quiz.NewQuestion{QuizID: "lol", Text: "?"})
		assert.Equal(t, quiz.ErrQuizNotFound, err)
	})

	q1, err := fix.svc.CreateQuestion(ctx, quiz.NewQuestion{
		QuizID: qz.ID, Text: "2+2?",
		OptionA: "4", OptionB: "3", OptionC: "5", OptionD: "6",
		CorrectOption: "A",
	})
	require.NoError(t, err)
	_, err = fix.svc.CreateQuestion(ctx, quiz.NewQuestion{
		QuizID: qz.ID, Text: "3x3?",
		OptionA: "6", OptionB: "9", OptionC: "12", OptionD: "3",
		CorrectOption: "B",
	})
	require.NoError(t, err)

	// questions ride along on the quiz
	qz, err = fix.svc.GetQuiz(ctx, qz.ID)
	require.NoError(t, err)
	assert.Len(t, qz.Questions, 2)

	questions, err := fix.svc.QueryQuestions(ctx, &quiz.QuestionFilter{QuizID: qz.ID})
	require.NoError(t, err)
	assert.Len(t, questions, 2)

	q1, err = fix.svc.UpdateQuestion(ctx, q1.ID, quiz.UpdateQuestion{CorrectOption: "C"})
	require.NoError(t, err)
	assert.Equal(t, "C", q1.CorrectOption)
	assert.Equal(t, "2+2?", q1.Text)

	require.NoError(t, fix.svc.DeleteQuestions(ctx, q1.ID))
	_, err = fix.svc.GetQuestion(ctx, q1.ID)
	assert.Equal(t, quiz.ErrQuestionNotFound, err)
}

func TestService_DeleteQuizzes_cascades(t *testing.T) {
	ctx := context.Background()
	fix := setup(t)

	qz, err := fix.svc.CreateQuiz(ctx, quiz.NewQuiz{Title: "Prova", CourseID: fix.crs.ID}, fix.prof)
	require.NoError(t, err)
	_, err = fix.svc.CreateQuestion(ctx, quiz.NewQuestion{
		QuizID: qz.ID, Text: "2+2?",
		OptionA: "4", OptionB: "3", OptionC: "5", OptionD: "6",
		CorrectOption: "A",
	})
	require.NoError(t, err)

	sub := testutil.CreateSubmission(t, fix.subRepo, qz, fix.prof, map[string]string{})

	require.NoError(t, fix.svc.DeleteQuizzes(ctx, qz.ID))
	_, err = fix.subRepo.GetSubmissionByID(ctx, sub.ID)
	assert.Equal(t, submission.ErrNotFound, err)
}
