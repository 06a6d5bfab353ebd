package sqlxrepos

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/minhaescola/backend/core"
	"github.com/minhaescola/backend/core/submission"
)

type submissionRepository struct {
	db *sqlx.DB
}

var _ submission.Repository = (*submissionRepository)(nil) // interface compliance check

func NewSubmissionRepository(db *sqlx.DB) *submissionRepository {
	return &submissionRepository{db: db}
}

// answersMap stores the answer sheet as a jsonb column.
type answersMap map[string]string

func (a answersMap) Value() (driver.Value, error) {
	if a == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(a)
}

func (a *answersMap) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	case nil:
		*a = answersMap{}
		return nil
	}
	return errors.Errorf("unsupported answers type %T", src)
}

type submissionRow struct {
	ID          string       `db:"id"`
	QuizID      string       `db:"quiz_id"`
	StudentID   string       `db:"student_id"`
	SubmittedAt time.Time    `db:"submitted_at"`
	Answers     answersMap   `db:"answers"`
	Score       null.Float64 `db:"score"`
	Student     publicRow    `db:"student"`
}

func (r submissionRow) unmarshal() submission.Submission {
	answers := map[string]string(r.Answers)
	if answers == nil {
		answers = map[string]string{}
	}
	return submission.Submission{
		ID:          r.ID,
		QuizID:      r.QuizID,
		StudentID:   r.StudentID,
		Student:     r.Student.unmarshal(),
		SubmittedAt: r.SubmittedAt,
		Answers:     answers,
		Score:       r.Score,
	}
}

var submissionSelect = `
SELECT s.id, s.quiz_id, s.student_id, s.submitted_at, s.answers, s.score, ` + publicJoin("student") + `
FROM submission s
JOIN "user" u ON u.id = s.student_id`

func (repo submissionRepository) CreateSubmission(ctx context.Context, sub submission.Submission) (submission.Submission, error) {
	sub.ID = uuid.New().String()
	q := `
INSERT INTO submission (id, quiz_id, student_id, submitted_at, answers, score)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := repo.db.ExecContext(ctx, q,
		sub.ID, sub.QuizID, sub.StudentID, sub.SubmittedAt.UTC(), answersMap(sub.Answers), sub.Score)
	if err != nil {
		if isUniqueViolation(errors.Cause(err), "submission_quiz_student_key") {
			return submission.Submission{}, submission.ErrExists
		}
		return submission.Submission{}, errors.Wrap(err, "inserting submission")
	}
	return repo.GetSubmissionByID(ctx, sub.ID)
}

func (repo submissionRepository) GetSubmissionByID(ctx context.Context, id string) (submission.Submission, error) {
	if _, err := uuid.Parse(id); err != nil {
		return submission.Submission{}, submission.ErrNotFound
	}
	var row submissionRow
	if err := repo.db.GetContext(ctx, &row, submissionSelect+` WHERE s.id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return submission.Submission{}, submission.ErrNotFound
		}
		return submission.Submission{}, errors.Wrap(err, "finding submission by ID")
	}
	return row.unmarshal(), nil
}

// submissionSortColumns whitelists the fields a caller may order by.
var submissionSortColumns = map[string]string{
	"submitted_at": "s.submitted_at",
	"score":        "s.score",
}

func (repo submissionRepository) QuerySubmissions(ctx context.Context, filter *submission.Filter, ordering []core.DBOrdering) ([]submission.Submission, error) {
	q := submissionSelect
	var (
		where []string
		args  []interface{}
	)
	if filter != nil {
		if filter.QuizID != "" {
			args = append(args, filter.QuizID)
			where = append(where, "s.quiz_id = $1")
		}
		if filter.StudentID != "" {
			args = append(args, filter.StudentID)
			if len(args) == 1 {
				where = append(where, "s.student_id = $1")
			} else {
				where = append(where, "s.student_id = $2")
			}
		}
	}
	for i, cond := range where {
		if i == 0 {
			q += " WHERE " + cond
		} else {
			q += " AND " + cond
		}
	}
	q += ` ORDER BY ` + orderBy(ordering, submissionSortColumns, "s.submitted_at DESC")

	var rows []submissionRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	subs := make([]submission.Submission, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, row.unmarshal())
	}
	return subs, nil
}

func (repo submissionRepository) UpdateSubmission(ctx context.Context, sub submission.Submission) (submission.Submission, error) {
	if sub.Answers == nil {
		return repo.GetSubmissionByID(ctx, sub.ID)
	}
	res, err := repo.db.ExecContext(ctx, `UPDATE submission SET answers = $1 WHERE id = $2`, answersMap(sub.Answers), sub.ID)
	if err != nil {
		return submission.Submission{}, errors.Wrap(err, "updating submission")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return submission.Submission{}, submission.ErrNotFound
	}
	return repo.GetSubmissionByID(ctx, sub.ID)
}

func (repo submissionRepository) SetSubmissionScore(ctx context.Context, id string, score float64) (submission.Submission, error) {
	res, err := repo.db.ExecContext(ctx, `UPDATE submission SET score = $1 WHERE id = $2`, score, id)
	if err != nil {
		return submission.Submission{}, errors.Wrap(err, "setting submission score")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return submission.Submission{}, submission.ErrNotFound
	}
	return repo.GetSubmissionByID(ctx, id)
}

func (repo submissionRepository) DeleteSubmissionsByID(ctx context.Context, ids ...string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM submission WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return errors.Wrap(err, "deleting submissions")
	}
	if n, _ := res.RowsAffected(); int(n) != len(ids) {
		return submission.ErrNotFound
	}
	return nil
}
