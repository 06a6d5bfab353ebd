package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/minhaescola/backend/core"
	"github.com/minhaescola/backend/core/submission"
)

type submissionRepository struct {
	db *DB
}

var _ submission.Repository = (*submissionRepository)(nil)

func NewSubmissionRepository(db *DB) submission.Repository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) CreateSubmission(ctx context.Context, sub submission.Submission) (submission.Submission, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	// one submission per (quiz, student)
	for _, s := range r.db.submissions {
		if s.QuizID == sub.QuizID && s.StudentID == sub.StudentID {
			return submission.Submission{}, submission.ErrExists
		}
	}
	sub.ID = uuid.New().String()
	if sub.Answers == nil {
		sub.Answers = map[string]string{}
	}
	r.db.submissions[sub.ID] = &sub
	return r.hydrate(sub), nil
}

func (r *submissionRepository) GetSubmissionByID(ctx context.Context, id string) (submission.Submission, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if sub, ok := r.db.submissions[id]; ok {
		return r.hydrate(*sub), nil
	}
	return submission.Submission{}, submission.ErrNotFound
}

func (r *submissionRepository) QuerySubmissions(ctx context.Context, filter *submission.Filter, ordering []core.DBOrdering) ([]submission.Submission, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	res := make([]submission.Submission, 0, len(r.db.submissions))
	for _, sub := range r.db.submissions {
		if filter != nil {
			if filter.QuizID != "" && sub.QuizID != filter.QuizID {
				continue
			}
			if filter.StudentID != "" && sub.StudentID != filter.StudentID {
				continue
			}
		}
		res = append(res, r.hydrate(*sub))
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].SubmittedAt.After(res[j].SubmittedAt) })
	return res, nil
}

func (r *submissionRepository) UpdateSubmission(ctx context.Context, sub submission.Submission) (submission.Submission, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	orig, ok := r.db.submissions[sub.ID]
	if !ok {
		return submission.Submission{}, submission.ErrNotFound
	}
	if sub.Answers != nil {
		orig.Answers = sub.Answers
	}
	return r.hydrate(*orig), nil
}

func (r *submissionRepository) SetSubmissionScore(ctx context.Context, id string, score float64) (submission.Submission, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	orig, ok := r.db.submissions[id]
	if !ok {
		return submission.Submission{}, submission.ErrNotFound
	}
	orig.Score = null.Float64From(score)
	return r.hydrate(*orig), nil
}

func (r *submissionRepository) DeleteSubmissionsByID(ctx context.Context, ids ...string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, id := range ids {
		if _, ok := r.db.submissions[id]; !ok {
			return submission.ErrNotFound
		}
	}
	for _, id := range ids {
		delete(r.db.submissions, id)
	}
	return nil
}

func (r *submissionRepository) hydrate(sub submission.Submission) submission.Submission {
	sub.Student = r.db.public(sub.StudentID)
	return sub
}
