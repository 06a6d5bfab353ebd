package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/minhaescola/backend/core"
	"github.com/minhaescola/backend/core/quiz"
)

type quizRepository struct {
	db *sqlx.DB
}

var _ quiz.Repository = (*quizRepository)(nil) // interface compliance check

func NewQuizRepository(db *sqlx.DB) *quizRepository {
	return &quizRepository{db: db}
}

type quizRow struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	CourseID    string    `db:"course_id"`
	OwnerID     string    `db:"owner_id"`
	CreatedAt   time.Time `db:"created_at"`
	Owner       publicRow `db:"owner"`
}

func (r quizRow) unmarshal() quiz.Quiz {
	return quiz.Quiz{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		CourseID:    r.CourseID,
		OwnerID:     r.OwnerID,
		Owner:       r.Owner.unmarshal(),
		CreatedAt:   r.CreatedAt,
	}
}

var quizSelect = `
SELECT q.id, q.title, q.description, q.course_id, q.owner_id, q.created_at, ` + publicJoin("owner") + `
FROM quiz q
JOIN "user" u ON u.id = q.owner_id`

type questionRow struct {
	ID            string `db:"id"`
	QuizID        string `db:"quiz_id"`
	Text          string `db:"text"`
	OptionA       string `db:"option_a"`
	OptionB       string `db:"option_b"`
	OptionC       string `db:"option_c"`
	OptionD       string `db:"option_d"`
	CorrectOption string `db:"correct_option"`
}

func (r questionRow) unmarshal() quiz.Question {
	return quiz.Question{
		ID:            r.ID,
		QuizID:        r.QuizID,
		Text:          r.Text,
		OptionA:       r.OptionA,
		OptionB:       r.OptionB,
		OptionC:       r.OptionC,
		OptionD:       r.OptionD,
		CorrectOption: r.CorrectOption,
	}
}

const questionSelect = `SELECT id, quiz_id, text, option_a, option_b, option_c, option_d, correct_option FROM question`

func (repo quizRepository) CreateQuiz(ctx context.Context, qz quiz.Quiz) (quiz.Quiz, error) {
	qz.ID = uuid.New().String()
	q := `
INSERT INTO quiz (id, title, description, course_id, owner_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := repo.db.ExecContext(ctx, q, qz.ID, qz.Title, qz.Description, qz.CourseID, qz.OwnerID, qz.CreatedAt.UTC())
	if err != nil {
		return quiz.Quiz{}, errors.Wrap(err, "inserting quiz")
	}
	return repo.GetQuizByID(ctx, qz.ID)
}

func (repo quizRepository) GetQuizByID(ctx context.Context, id string) (quiz.Quiz, error) {
	if _, err := uuid.Parse(id); err != nil {
		return quiz.Quiz{}, quiz.ErrQuizNotFound
	}
	var row quizRow
	if err := repo.db.GetContext(ctx, &row, quizSelect+` WHERE q.id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return quiz.Quiz{}, quiz.ErrQuizNotFound
		}
		return quiz.Quiz{}, errors.Wrap(err, "finding quiz by ID")
	}
	qz := row.unmarshal()

	questions, err := repo.QueryQuestions(ctx, &quiz.QuestionFilter{QuizID: id})
	if err != nil {
		return quiz.Quiz{}, err
	}
	qz.Questions = questions
	return qz, nil
}

// quizSortColumns whitelists the fields a caller may order by.
var quizSortColumns = map[string]string{
	"title":      "q.title",
	"created_at": "q.created_at",
}

func (repo quizRepository) QueryQuizzes(ctx context.Context, filter *quiz.QuizFilter, ordering []core.DBOrdering) ([]quiz.Quiz, error) {
	q := quizSelect
	var args []interface{}
	if filter != nil && filter.CourseID != "" {
		q += ` WHERE q.course_id = $1`
		args = append(args, filter.CourseID)
	}
	q += ` ORDER BY ` + orderBy(ordering, quizSortColumns, "q.created_at DESC")

	var rows []quizRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying quizzes")
	}
	if len(rows) == 0 {
		return []quiz.Quiz{}, nil
	}

	// batch-load the question sets
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	var qRows []questionRow
	if err := repo.db.SelectContext(ctx, &qRows, questionSelect+` WHERE quiz_id = ANY($1) ORDER BY id`, pq.Array(ids)); err != nil {
		return nil, errors.Wrap(err, "querying quiz questions")
	}
	byQuiz := make(map[string][]quiz.Question, len(rows))
	for _, qr := range qRows {
		byQuiz[qr.QuizID] = append(byQuiz[qr.QuizID], qr.unmarshal())
	}

	quizzes := make([]quiz.Quiz, 0, len(rows))
	for _, row := range rows {
		qz := row.unmarshal()
		qz.Questions = byQuiz[qz.ID]
		quizzes = append(quizzes, qz)
	}
	return quizzes, nil
}

func (repo quizRepository) UpdateQuiz(ctx context.Context, qz quiz.Quiz) (quiz.Quiz, error) {
	q := `
UPDATE quiz
SET title       = COALESCE(NULLIF($1, ''), title),
    description = COALESCE(NULLIF($2, ''), description)
WHERE id = $3`
	res, err := repo.db.ExecContext(ctx, q, qz.Title, qz.Description, qz.ID)
	if err != nil {
		return quiz.Quiz{}, errors.Wrap(err, "updating quiz")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return quiz.Quiz{}, quiz.ErrQuizNotFound
	}
	return repo.GetQuizByID(ctx, qz.ID)
}

func (repo quizRepository) DeleteQuizzesByID(ctx context.Context, ids ...string) error {
	var cnt int
	if err := repo.db.GetContext(ctx, &cnt, `SELECT COUNT(*) FROM quiz WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "checking quizzes")
	}
	if cnt != len(ids) {
		return quiz.ErrQuizNotFound
	}

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "starting transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if err = deleteQuizzesTx(ctx, tx, ids); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

// deleteQuizzesTx removes the quizzes along with their questions and
// submissions.
func deleteQuizzesTx(ctx context.Context, tx *sqlx.Tx, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM question WHERE quiz_id = ANY($1)`, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting quiz questions")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM submission WHERE quiz_id = ANY($1)`, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting quiz submissions")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM quiz WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting quizzes")
	}
	return nil
}

func (repo quizRepository) CreateQuestion(ctx context.Context, qn quiz.Question) (quiz.Question, error) {
	qn.ID = uuid.New().String()
	q := `
INSERT INTO question (id, quiz_id, text, option_a, option_b, option_c, option_d, correct_option)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := repo.db.ExecContext(ctx, q,
		qn.ID, qn.QuizID, qn.Text, qn.OptionA, qn.OptionB, qn.OptionC, qn.OptionD, qn.CorrectOption)
	if err != nil {
		return quiz.Question{}, errors.Wrap(err, "inserting question")
	}
	return qn, nil
}

func (repo quizRepository) GetQuestionByID(ctx context.Context, id string) (quiz.Question, error) {
	if _, err := uuid.Parse(id); err != nil {
		return quiz.Question{}, quiz.ErrQuestionNotFound
	}
	var row questionRow
	if err := repo.db.GetContext(ctx, &row, questionSelect+` WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return quiz.Question{}, quiz.ErrQuestionNotFound
		}
		return quiz.Question{}, errors.Wrap(err, "finding question by ID")
	}
	return row.unmarshal(), nil
}

func (repo quizRepository) QueryQuestions(ctx context.Context, filter *quiz.QuestionFilter) ([]quiz.Question, error) {
	q := questionSelect
	var args []interface{}
	if filter != nil && filter.QuizID != "" {
		q += ` WHERE quiz_id = $1`
		args = append(args, filter.QuizID)
	}
	q += ` ORDER BY id`

	var rows []questionRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying questions")
	}
	questions := make([]quiz.Question, 0, len(rows))
	for _, row := range rows {
		questions = append(questions, row.unmarshal())
	}
	return questions, nil
}

func (repo quizRepository) UpdateQuestion(ctx context.Context, qn quiz.Question) (quiz.Question, error) {
	q := `
UPDATE question
SET text           = COALESCE(NULLIF($1, ''), text),
    option_a       = COALESCE(NULLIF($2, ''), option_a),
    option_b       = COALESCE(NULLIF($3, ''), option_b),
    option_c       = COALESCE(NULLIF($4, ''), option_c),
    option_d       = COALESCE(NULLIF($5, ''), option_d),
    correct_option = COALESCE(NULLIF($6, ''), correct_option)
WHERE id = $7`
	res, err := repo.db.ExecContext(ctx, q,
		qn.Text, qn.OptionA, qn.OptionB, qn.OptionC, qn.OptionD, qn.CorrectOption, qn.ID)
	if err != nil {
		return quiz.Question{}, errors.Wrap(err, "updating question")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return quiz.Question{}, quiz.ErrQuestionNotFound
	}
	return repo.GetQuestionByID(ctx, qn.ID)
}

func (repo quizRepository) DeleteQuestionsByID(ctx context.Context, ids ...string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM question WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return errors.Wrap(err, "deleting questions")
	}
	if n, _ := res.RowsAffected(); int(n) != len(ids) {
		return quiz.ErrQuestionNotFound
	}
	return nil
}
