package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhaescola/backend/core/quiz"
	"github.com/minhaescola/backend/core/submission"
	"github.com/minhaescola/backend/core/user"
	testutil "github.com/minhaescola/backend/tests"
)

// submissionFixture seeds a course with a graded quiz of two questions.
type submissionFixture struct {
	env        *testEnv
	prof       user.User
	std1, std2 user.User
	qz         quiz.Quiz
	q1, q2     quiz.Question
}

func setupSubmissions(t *testing.T) submissionFixture {
	t.Helper()

	env := setup(t)
	prof := testutil.CreateUser(t, env.usrRepo, "Prof", "prof", "prof@escola.cd", "mdr", []string{user.RoleTeacher}, true)
	std1 := testutil.CreateUser(t, env.usrRepo, "Student One", "std01", "s1@escola.cd", "mdr", []string{user.RoleStudent}, true)
	std2 := testutil.CreateUser(t, env.usrRepo, "Student Two", "std02", "s2@escola.cd", "mdr", []string{user.RoleStudent}, true)
	crs := testutil.CreateCourse(t, env.crsRepo, "Matemática Básica", prof)
	qz := testutil.CreateQuiz(t, env.quizRepo, "Prova de Aritmética", crs, prof)
	q1 := testutil.CreateQuestion(t, env.quizRepo, qz, "Quanto é 2 + 2?", quiz.OptionA)
	q2 := testutil.CreateQuestion(t, env.quizRepo, qz, "Quanto é 3 x 4?", quiz.OptionB)
	return submissionFixture{env: env, prof: prof, std1: std1, std2: std2, qz: qz, q1: q1, q2: q2}
}

func Test_submissionApi_create(t *testing.T) {
	fix := setupSubmissions(t)
	env := fix.env
	stdToken := getToken(t, fix.std1)

	t.Run("quiz is required", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/submissions", stdToken, []byte("{}"))
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"quiz": "this field is required"})}, rec)
	})

	t.Run("unknown quiz is 404", func(t *testing.T) {
		body := marchallObj(t, submission.NewSubmission{QuizID: "6c0c5d9f-71a4-4b7a-8d97-70a1a0db22e3"})
		req, rec := newAuthRequest(http.MethodPost, "/api/submissions", stdToken, body)
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "quiz not found"})}, rec)
	})

	t.Run("submission is graded on create", func(t *testing.T) {
		body := marchallObj(t, submission.NewSubmission{
			QuizID:  fix.qz.ID,
			Answers: map[string]string{fix.q1.ID: "A", fix.q2.ID: "C"},
		})
		req, rec := newAuthRequest(http.MethodPost, "/api/submissions", stdToken, body)
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var sub submission.Submission
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sub))
		assert.Equal(t, fix.qz.ID, sub.QuizID)
		assert.Equal(t, fix.std1.Public(), sub.Student)
		require.True(t, sub.Score.Valid)
		assert.Equal(t, 50.0, sub.Score.Float64)
	})

	t.Run("one submission per quiz per student", func(t *testing.T) {
		body := marchallObj(t, submission.NewSubmission{QuizID: fix.qz.ID})
		req, rec := newAuthRequest(http.MethodPost, "/api/submissions", stdToken, body)
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: "a submission for this quiz already exists"})}, rec)
	})

	t.Run("another student may still submit", func(t *testing.T) {
		body := marchallObj(t, submission.NewSubmission{
			QuizID:  fix.qz.ID,
			Answers: map[string]string{fix.q1.ID: "A", fix.q2.ID: "B"},
		})
		req, rec := newAuthRequest(http.MethodPost, "/api/submissions", getToken(t, fix.std2), body)
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var sub submission.Submission
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sub))
		require.True(t, sub.Score.Valid)
		assert.Equal(t, 100.0, sub.Score.Float64)
	})
}

func Test_submissionApi_queryAndRetrieve(t *testing.T) {
	fix := setupSubmissions(t)
	env := fix.env

	sub1 := testutil.CreateSubmission(t, env.subRepo, fix.qz, fix.std1, map[string]string{fix.q1.ID: "A"})
	sub2 := testutil.CreateSubmission(t, env.subRepo, fix.qz, fix.std2, map[string]string{fix.q1.ID: "B"})

	t.Run("students only see their own", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/submissions", getToken(t, fix.std1))
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var subs []submission.Submission
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &subs))
		require.Len(t, subs, 1)
		assert.Equal(t, sub1.ID, subs[0].ID)
	})

	t.Run("students cannot widen the filter", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/submissions?student="+fix.std2.ID, getToken(t, fix.std1))
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var subs []submission.Submission
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &subs))
		require.Len(t, subs, 1)
		assert.Equal(t, sub1.ID, subs[0].ID)
	})

	t.Run("teachers see every submission of the quiz", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/submissions?quiz="+fix.qz.ID, getToken(t, fix.prof))
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var subs []submission.Submission
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &subs))
		assert.Len(t, subs, 2)
	})

	t.Run("students cannot retrieve another student's submission", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/submissions/"+sub2.ID, getToken(t, fix.std1))
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}, rec)
	})

	t.Run("teachers can retrieve any submission", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/submissions/"+sub2.ID, getToken(t, fix.prof))
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got submission.Submission
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, sub2.ID, got.ID)
		assert.Equal(t, fix.std2.Public(), got.Student)
	})
}

func Test_submissionApi_updateAndDestroy(t *testing.T) {
	fix := setupSubmissions(t)
	env := fix.env

	admin := testutil.CreateUser(t, env.usrRepo, "Admin", "admin", "admin@escola.cd", "mdr", []string{user.RoleAdmin}, true)
	sub := testutil.CreateSubmission(t, env.subRepo, fix.qz, fix.std1, map[string]string{fix.q1.ID: "A", fix.q2.ID: "C"})
	adminToken := getToken(t, admin)

	t.Run("students cannot update", func(t *testing.T) {
		body := marchallObj(t, submission.UpdateSubmission{Answers: map[string]string{fix.q1.ID: "A", fix.q2.ID: "B"}})
		req, rec := newAuthRequest(http.MethodPut, "/api/submissions/"+sub.ID, getToken(t, fix.std1), body)
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}, rec)
	})

	t.Run("teachers cannot update either", func(t *testing.T) {
		body := marchallObj(t, submission.UpdateSubmission{Answers: map[string]string{fix.q1.ID: "A"}})
		req, rec := newAuthRequest(http.MethodPut, "/api/submissions/"+sub.ID, getToken(t, fix.prof), body)
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}, rec)
	})

	t.Run("admin update re-grades", func(t *testing.T) {
		body := marchallObj(t, submission.UpdateSubmission{Answers: map[string]string{fix.q1.ID: "A", fix.q2.ID: "B"}})
		req, rec := newAuthRequest(http.MethodPut, "/api/submissions/"+sub.ID, adminToken, body)
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got submission.Submission
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.True(t, got.Score.Valid)
		assert.Equal(t, 100.0, got.Score.Float64)
	})

	t.Run("admin destroy", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/api/submissions/"+sub.ID, adminToken)
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)

		req, rec = newAuthRequest(http.MethodGet, "/api/submissions/"+sub.ID, adminToken)
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "submission not found"})}, rec)
	})
}
