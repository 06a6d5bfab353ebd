package main

import (
	"context"
	"fmt"
	"time"

	"github.com/minhaescola/backend/core/course"
	"github.com/minhaescola/backend/core/quiz"
	"github.com/minhaescola/backend/core/submission"
	"github.com/minhaescola/backend/core/user"
)

const seedPassword = "Escola123!"

// seed loads a small demo data set: one teacher, three students and a
// course with a five-question quiz plus a graded submission per student.
// Running it twice is safe; existing records are reused.
func (cli *commandLine) seed() error {
	ctx := context.Background()

	teacher, err := cli.seedUser(ctx, "prof.amina", "amina@escola.cd", "Amina Kalonji", []string{user.RoleTeacher})
	if err != nil {
		return err
	}
	students := make([]user.User, 0, 3)
	for _, s := range []struct{ uname, email, name string }{
		{"aluno.jose", "jose@escola.cd", "José Mabiala"},
		{"aluno.grace", "grace@escola.cd", "Grâce Tshila"},
		{"aluno.patrick", "patrick@escola.cd", "Patrick Ilunga"},
	} {
		usr, err := cli.seedUser(ctx, s.uname, s.email, s.name, []string{user.RoleStudent})
		if err != nil {
			return err
		}
		students = append(students, usr)
	}

	crs, err := cli.seedCourse(ctx, teacher, "Matemática Básica", "Aritmética e geometria para iniciantes.")
	if err != nil {
		return err
	}
	qz, err := cli.seedQuiz(ctx, crs, teacher, "Prova de Aritmética", "Cinco perguntas de múltipla escolha.")
	if err != nil {
		return err
	}

	if len(qz.Questions) == 0 {
		questions := []quiz.Question{
			{Text: "Quanto é 7 + 5?", OptionA: "12", OptionB: "11", OptionC: "13", OptionD: "10", CorrectOption: "A"},
			{Text: "Quanto é 9 x 6?", OptionA: "52", OptionB: "54", OptionC: "56", OptionD: "48", CorrectOption: "B"},
			{Text: "Quanto é 100 / 4?", OptionA: "20", OptionB: "24", OptionC: "25", OptionD: "30", CorrectOption: "C"},
			{Text: "Quanto é 15 - 8?", OptionA: "6", OptionB: "8", OptionC: "9", OptionD: "7", CorrectOption: "D"},
			{Text: "Quanto é 3 ao quadrado?", OptionA: "9", OptionB: "6", OptionC: "27", OptionD: "12", CorrectOption: "A"},
		}
		for _, q := range questions {
			q.QuizID = qz.ID
			created, err := cli.quizRepo.CreateQuestion(ctx, q)
			if err != nil {
				return err
			}
			qz.Questions = append(qz.Questions, created)
		}
	}

	// one submission per student: all correct, partially correct, blank
	answerSets := []map[string]string{
		answersFor(qz.Questions, "A", "B", "C", "D", "A"),
		answersFor(qz.Questions, "A", "B", "X", "D", "C"),
		{},
	}
	for i, student := range students {
		if err := cli.seedSubmission(ctx, qz, student, answerSets[i]); err != nil {
			return err
		}
	}

	fmt.Printf("seeded course %q with quiz %q, 1 teacher, %d students\n", crs.Name, qz.Title, len(students))
	return nil
}

func (cli *commandLine) seedUser(ctx context.Context, uname, email, name string, roles []string) (user.User, error) {
	if usr, err := cli.usrRepo.GetUserByUsername(ctx, uname); err == nil {
		return usr, nil
	} else if err != user.ErrNotFound {
		return user.User{}, err
	}

	now := time.Now().UTC()
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(seedPassword); err != nil {
		return user.User{}, err
	}
	isActive := true
	usr.IsActive = &isActive
	return cli.usrRepo.CreateUser(ctx, usr)
}

func (cli *commandLine) seedCourse(ctx context.Context, teacher user.User, name, desc string) (course.Course, error) {
	existing, err := cli.crsRepo.QueryCourses(ctx, &course.CourseFilter{TeacherID: teacher.ID}, nil)
	if err != nil {
		return course.Course{}, err
	}
	for _, crs := range existing {
		if crs.Name == name {
			return crs, nil
		}
	}
	return cli.crsRepo.CreateCourse(ctx, course.Course{
		Name:        name,
		Description: desc,
		TeacherID:   teacher.ID,
		CreatedAt:   time.Now().UTC(),
	})
}

func (cli *commandLine) seedQuiz(ctx context.Context, crs course.Course, owner user.User, title, desc string) (quiz.Quiz, error) {
	existing, err := cli.quizRepo.QueryQuizzes(ctx, &quiz.QuizFilter{CourseID: crs.ID}, nil)
	if err != nil {
		return quiz.Quiz{}, err
	}
	for _, qz := range existing {
		if qz.Title == title {
			return qz, nil
		}
	}
	return cli.quizRepo.CreateQuiz(ctx, quiz.Quiz{
		Title:       title,
		Description: desc,
		CourseID:    crs.ID,
		OwnerID:     owner.ID,
		CreatedAt:   time.Now().UTC(),
	})
}

func (cli *commandLine) seedSubmission(ctx context.Context, qz quiz.Quiz, student user.User, answers map[string]string) error {
	sub, err := cli.subRepo.CreateSubmission(ctx, submission.Submission{
		QuizID:      qz.ID,
		StudentID:   student.ID,
		SubmittedAt: time.Now().UTC(),
		Answers:     answers,
	})
	if err == submission.ErrExists {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = cli.subRepo.SetSubmissionScore(ctx, sub.ID, submission.CalculateScore(answers, qz.Questions))
	return err
}

// answersFor zips the given option labels with the questions, in order.
func answersFor(questions []quiz.Question, labels ...string) map[string]string {
	answers := make(map[string]string, len(labels))
	for i, q := range questions {
		if i >= len(labels) {
			break
		}
		answers[q.ID] = labels[i]
	}
	return answers
}
