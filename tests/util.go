package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/minhaescola/backend/core/course"
	"github.com/minhaescola/backend/core/quiz"
	"github.com/minhaescola/backend/core/submission"
	"github.com/minhaescola/backend/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  &isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateCourse(t *testing.T, repo course.Repository, name string, teacher user.User) course.Course {
	t.Helper()

	crs, err := repo.CreateCourse(context.Background(), course.Course{
		Name:      name,
		TeacherID: teacher.ID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return crs
}

func CreateQuiz(t *testing.T, repo quiz.Repository, title string, crs course.Course, owner user.User) quiz.Quiz {
	t.Helper()

	qz, err := repo.CreateQuiz(context.Background(), quiz.Quiz{
		Title:     title,
		CourseID:  crs.ID,
		OwnerID:   owner.ID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateQuiz() failed: %v", err)
	}
	return qz
}

func CreateQuestion(t *testing.T, repo quiz.Repository, qz quiz.Quiz, text, correct string) quiz.Question {
	t.Helper()

	q, err := repo.CreateQuestion(context.Background(), quiz.Question{
		QuizID:        qz.ID,
		Text:          text,
		OptionA:       "a",
		OptionB:       "b",
		OptionC:       "c",
		OptionD:       "d",
		CorrectOption: correct,
	})
	if err != nil {
		t.Fatalf("CreateQuestion() failed: %v", err)
	}
	return q
}

func CreateSubmission(
	t *testing.T,
	repo submission.Repository,
	qz quiz.Quiz,
	student user.User,
	answers map[string]string,
) submission.Submission {
	t.Helper()

	sub, err := repo.CreateSubmission(context.Background(), submission.Submission{
		QuizID:      qz.ID,
		StudentID:   student.ID,
		SubmittedAt: time.Now().UTC(),
		Answers:     answers,
	})
	if err != nil {
		t.Fatalf("CreateSubmission() failed: %v", err)
	}
	return sub
}
