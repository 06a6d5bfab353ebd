package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/minhaescola/backend/core"
	"github.com/minhaescola/backend/core/course"
	"github.com/minhaescola/backend/core/user"
)

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) *courseRepository {
	return &courseRepository{db: db}
}

// publicRow is the owning user's identity joined into resource queries.
type publicRow struct {
	ID       string         `db:"id"`
	Username null.String    `db:"username"`
	Email    null.String    `db:"email"`
	Roles    pq.StringArray `db:"roles"`
}

func (r publicRow) unmarshal() user.Public {
	return user.Public{
		ID:       r.ID,
		Username: r.Username.String,
		Email:    r.Email.String,
		Roles:    r.Roles,
	}
}

// publicJoin aliases the joined user u into a dot-prefixed publicRow.
func publicJoin(prefix string) string {
	return fmt.Sprintf(`u.id AS "%[1]s.id", u.username AS "%[1]s.username", u.email AS "%[1]s.email", u.roles AS "%[1]s.roles"`, prefix)
}

type courseRow struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	TeacherID   string    `db:"teacher_id"`
	CreatedAt   time.Time `db:"created_at"`
	Teacher     publicRow `db:"teacher"`
}

func (r courseRow) unmarshal() course.Course {
	return course.Course{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		TeacherID:   r.TeacherID,
		Teacher:     r.Teacher.unmarshal(),
		CreatedAt:   r.CreatedAt,
	}
}

var courseSelect = `
SELECT c.id, c.name, c.description, c.teacher_id, c.created_at, ` + publicJoin("teacher") + `
FROM course c
JOIN "user" u ON u.id = c.teacher_id`

func (repo courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	crs.ID = uuid.New().String()
	q := `
INSERT INTO course (id, name, description, teacher_id, created_at)
VALUES ($1, $2, $3, $4, $5)`
	_, err := repo.db.ExecContext(ctx, q, crs.ID, crs.Name, crs.Description, crs.TeacherID, crs.CreatedAt.UTC())
	if err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return repo.GetCourseByID(ctx, crs.ID)
}

func (repo courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	if _, err := uuid.Parse(id); err != nil {
		return course.Course{}, course.ErrCourseNotFound
	}
	var row courseRow
	if err := repo.db.GetContext(ctx, &row, courseSelect+` WHERE c.id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrCourseNotFound
		}
		return course.Course{}, errors.Wrap(err, "finding course by ID")
	}
	return row.unmarshal(), nil
}

// courseSortColumns whitelists the fields a caller may order by.
var courseSortColumns = map[string]string{
	"name":       "c.name",
	"created_at": "c.created_at",
}

func (repo courseRepository) QueryCourses(ctx context.Context, filter *course.CourseFilter, ordering []core.DBOrdering) ([]course.Course, error) {
	q := courseSelect
	var args []interface{}
	if filter != nil && filter.TeacherID != "" {
		q += ` WHERE c.teacher_id = $1`
		args = append(args, filter.TeacherID)
	}
	q += ` ORDER BY ` + orderBy(ordering, courseSortColumns, "c.created_at DESC")

	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, row.unmarshal())
	}
	return courses, nil
}

func (repo courseRepository) UpdateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	q := `
UPDATE course
SET name        = COALESCE(NULLIF($1, ''), name),
    description = COALESCE(NULLIF($2, ''), description)
WHERE id = $3`
	res, err := repo.db.ExecContext(ctx, q, crs.Name, crs.Description, crs.ID)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return course.Course{}, course.ErrCourseNotFound
	}
	return repo.GetCourseByID(ctx, crs.ID)
}

func (repo courseRepository) DeleteCoursesByID(ctx context.Context, ids ...string) error {
	var cnt int
	if err := repo.db.GetContext(ctx, &cnt, `SELECT COUNT(*) FROM course WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "checking courses")
	}
	if cnt != len(ids) {
		return course.ErrCourseNotFound
	}

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "starting transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if err = deleteCoursesTx(ctx, tx, ids); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

// deleteCoursesTx removes the courses and everything under them:
// materials, quizzes, their questions and submissions.
func deleteCoursesTx(ctx context.Context, tx *sqlx.Tx, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	var quizIDs []string
	if err := tx.SelectContext(ctx, &quizIDs, `SELECT id FROM quiz WHERE course_id = ANY($1)`, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "listing course quizzes")
	}
	if err := deleteQuizzesTx(ctx, tx, quizIDs); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM material WHERE course_id = ANY($1)`, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting course materials")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM course WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting courses")
	}
	return nil
}

type materialRow struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	FileKey     string    `db:"file_key"`
	FileName    string    `db:"file_name"`
	ContentType string    `db:"content_type"`
	UploadedAt  time.Time `db:"uploaded_at"`
	CourseID    string    `db:"course_id"`
	OwnerID     string    `db:"owner_id"`
	Owner       publicRow `db:"owner"`
}

func (r materialRow) unmarshal() course.Material {
	return course.Material{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		FileKey:     r.FileKey,
		FileName:    r.FileName,
		ContentType: r.ContentType,
		UploadedAt:  r.UploadedAt,
		CourseID:    r.CourseID,
		OwnerID:     r.OwnerID,
		Owner:       r.Owner.unmarshal(),
	}
}

var materialSelect = `
SELECT m.id, m.title, m.description, m.file_key, m.file_name, m.content_type, m.uploaded_at, m.course_id, m.owner_id, ` + publicJoin("owner") + `
FROM material m
JOIN "user" u ON u.id = m.owner_id`

func (repo courseRepository) CreateMaterial(ctx context.Context, mat course.Material) (course.Material, error) {
	mat.ID = uuid.New().String()
	q := `
INSERT INTO material (id, title, description, file_key, file_name, content_type, uploaded_at, course_id, owner_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := repo.db.ExecContext(ctx, q,
		mat.ID, mat.Title, mat.Description, mat.FileKey, mat.FileName, mat.ContentType,
		mat.UploadedAt.UTC(), mat.CourseID, mat.OwnerID,
	)
	if err != nil {
		return course.Material{}, errors.Wrap(err, "inserting material")
	}
	return repo.GetMaterialByID(ctx, mat.ID)
}

func (repo courseRepository) GetMaterialByID(ctx context.Context, id string) (course.Material, error) {
	if _, err := uuid.Parse(id); err != nil {
		return course.Material{}, course.ErrMaterialNotFound
	}
	var row materialRow
	if err := repo.db.GetContext(ctx, &row, materialSelect+` WHERE m.id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return course.Material{}, course.ErrMaterialNotFound
		}
		return course.Material{}, errors.Wrap(err, "finding material by ID")
	}
	return row.unmarshal(), nil
}

// materialSortColumns whitelists the fields a caller may order by.
var materialSortColumns = map[string]string{
	"title":       "m.title",
	"uploaded_at": "m.uploaded_at",
}

func (repo courseRepository) QueryMaterials(ctx context.Context, filter *course.MaterialFilter, ordering []core.DBOrdering) ([]course.Material, error) {
	q := materialSelect
	var args []interface{}
	if filter != nil && filter.CourseID != "" {
		q += ` WHERE m.course_id = $1`
		args = append(args, filter.CourseID)
	}
	q += ` ORDER BY ` + orderBy(ordering, materialSortColumns, "m.uploaded_at DESC")

	var rows []materialRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying materials")
	}
	materials := make([]course.Material, 0, len(rows))
	for _, row := range rows {
		materials = append(materials, row.unmarshal())
	}
	return materials, nil
}

func (repo courseRepository) UpdateMaterial(ctx context.Context, mat course.Material) (course.Material, error) {
	q := `
UPDATE material
SET title       = COALESCE(NULLIF($1, ''), title),
    description = COALESCE(NULLIF($2, ''), description)
WHERE id = $3`
	res, err := repo.db.ExecContext(ctx, q, mat.Title, mat.Description, mat.ID)
	if err != nil {
		return course.Material{}, errors.Wrap(err, "updating material")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return course.Material{}, course.ErrMaterialNotFound
	}
	return repo.GetMaterialByID(ctx, mat.ID)
}

func (repo courseRepository) DeleteMaterialsByID(ctx context.Context, ids ...string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM material WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return errors.Wrap(err, "deleting materials")
	}
	if n, _ := res.RowsAffected(); int(n) != len(ids) {
		return course.ErrMaterialNotFound
	}
	return nil
}

func (repo courseRepository) ListMaterialFileKeys(ctx context.Context, courseIDs ...string) ([]string, error) {
	var keys []string
	q := `SELECT file_key FROM material WHERE course_id = ANY($1) AND file_key != ''`
	if err := repo.db.SelectContext(ctx, &keys, q, pq.Array(courseIDs)); err != nil {
		return nil, errors.Wrap(err, "listing material file keys")
	}
	return keys, nil
}
