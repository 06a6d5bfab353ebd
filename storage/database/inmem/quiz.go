package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/minhaescola/backend/core"
	"github.com/minhaescola/backend/core/quiz"
)

type quizRepository struct {
	db *DB
}

var _ quiz.Repository = (*quizRepository)(nil)

func NewQuizRepository(db *DB) quiz.Repository {
	return &quizRepository{db: db}
}

func (r *quizRepository) CreateQuiz(ctx context.Context, qz quiz.Quiz) (quiz.Quiz, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	qz.ID = uuid.New().String()
	r.db.quizzes[qz.ID] = &qz
	return r.hydrate(qz), nil
}

func (r *quizRepository) GetQuizByID(ctx context.Context, id string) (quiz.Quiz, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if qz, ok := r.db.quizzes[id]; ok {
		return r.hydrate(*qz), nil
	}
	return quiz.Quiz{}, quiz.ErrQuizNotFound
}

func (r *quizRepository) QueryQuizzes(ctx context.Context, filter *quiz.QuizFilter, ordering []core.DBOrdering) ([]quiz.Quiz, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	res := make([]quiz.Quiz, 0, len(r.db.quizzes))
	for _, qz := range r.db.quizzes {
		if filter != nil && filter.CourseID != "" && qz.CourseID != filter.CourseID {
			continue
		}
		res = append(res, r.hydrate(*qz))
	}
	// most recently created first
	sort.SliceStable(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res, nil
}

func (r *quizRepository) UpdateQuiz(ctx context.Context, qz quiz.Quiz) (quiz.Quiz, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	orig, ok := r.db.quizzes[qz.ID]
	if !ok {
		return quiz.Quiz{}, quiz.ErrQuizNotFound
	}
	if qz.Title != "" {
		orig.Title = qz.Title
	}
	if qz.Description != "" {
		orig.Description = qz.Description
	}
	return r.hydrate(*orig), nil
}

func (r *quizRepository) DeleteQuizzesByID(ctx context.Context, ids ...string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, id := range ids {
		if _, ok := r.db.quizzes[id]; !ok {
			return quiz.ErrQuizNotFound
		}
	}
	r.db.deleteQuizzesLocked(ids...)
	return nil
}

func (r *quizRepository) CreateQuestion(ctx context.Context, q quiz.Question) (quiz.Question, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.quizzes[q.QuizID]; !ok {
		return quiz.Question{}, quiz.ErrQuizNotFound
	}
	q.ID = uuid.New().String()
	r.db.questions[q.ID] = &q
	return q, nil
}

func (r *quizRepository) GetQuestionByID(ctx context.Context, id string) (quiz.Question, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if q, ok := r.db.questions[id]; ok {
		return *q, nil
	}
	return quiz.Question{}, quiz.ErrQuestionNotFound
}

func (r *quizRepository) QueryQuestions(ctx context.Context, filter *quiz.QuestionFilter) ([]quiz.Question, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	return r.questionsLocked(filter), nil
}

func (r *quizRepository) questionsLocked(filter *quiz.QuestionFilter) []quiz.Question {
	res := make([]quiz.Question, 0, len(r.db.questions))
	for _, q := range r.db.questions {
		if filter != nil && filter.QuizID != "" && q.QuizID != filter.QuizID {
			continue
		}
		res = append(res, *q)
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

func (r *quizRepository) UpdateQuestion(ctx context.Context, q quiz.Question) (quiz.Question, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	orig, ok := r.db.questions[q.ID]
	if !ok {
		return quiz.Question{}, quiz.ErrQuestionNotFound
	}
	if q.Text != "" {
		orig.Text = q.Text
	}
	if q.OptionA != "" {
		orig.OptionA = q.OptionA
	}
	if q.OptionB != "" {
		orig.OptionB = q.OptionB
	}
	if q.OptionC != "" {
		orig.OptionC = q.OptionC
	}
	if q.OptionD != "" {
		orig.OptionD = q.OptionD
	}
	if q.CorrectOption != "" {
		orig.CorrectOption = q.CorrectOption
	}
	return *orig, nil
}

func (r *quizRepository) DeleteQuestionsByID(ctx context.Context, ids ...string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, id := range ids {
		if _, ok := r.db.questions[id]; !ok {
			return quiz.ErrQuestionNotFound
		}
	}
	for _, id := range ids {
		delete(r.db.questions, id)
	}
	return nil
}

func (r *quizRepository) hydrate(qz quiz.Quiz) quiz.Quiz {
	qz.Owner = r.db.public(qz.OwnerID)
	qz.Questions = r.questionsLocked(&quiz.QuestionFilter{QuizID: qz.ID})
	return qz
}
