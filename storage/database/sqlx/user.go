package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/minhaescola/backend/core"
	"github.com/minhaescola/backend/core/user"
)

const userCols = `id, name, username, email, is_active, roles, password_hash, created_at, updated_at, last_login`

// userSortColumns whitelists the fields a caller may order by.
var userSortColumns = map[string]string{
	"name":       "name",
	"username":   "username",
	"email":      "email",
	"is_active":  "is_active",
	"created_at": "created_at",
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

type userRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Username     null.String    `db:"username"`
	Email        null.String    `db:"email"`
	IsActive     bool           `db:"is_active"`
	Roles        pq.StringArray `db:"roles"`
	PasswordHash []byte         `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	LastLogin    null.Time      `db:"last_login"`
}

func (r userRow) unmarshal() user.User {
	return user.User{
		ID:           r.ID,
		Name:         r.Name,
		Username:     r.Username.String,
		Email:        r.Email.String,
		IsActive:     &r.IsActive,
		Roles:        r.Roles,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		LastLogin:    r.LastLogin.Time,
	}
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	exclIDs := make([]string, 0, len(excludedUsers))
	for _, u := range excludedUsers {
		exclIDs = append(exclIDs, u.ID)
	}

	check := func(col, val string) (bool, error) {
		if val == "" {
			return false, nil
		}
		var exists bool
		q := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM "user" WHERE lower(%s) = lower($1) AND id != ALL($2))`, col)
		err := repo.db.GetContext(ctx, &exists, q, val, pq.Array(exclIDs))
		return exists, err
	}

	if exists, err := check("username", username); err != nil {
		return errors.Wrap(err, "checking username uniqueness")
	} else if exists {
		return user.ErrUsernameExists
	}
	if exists, err := check("email", email); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	} else if exists {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()

	var active bool
	if usr.IsActive != nil {
		active = *usr.IsActive
	}
	q := `
INSERT INTO "user" (id, name, username, email, is_active, roles, password_hash, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := repo.db.ExecContext(ctx, q,
		usr.ID, usr.Name,
		null.NewString(usr.Username, usr.Username != ""),
		null.NewString(usr.Email, usr.Email != ""),
		active, pq.Array(usr.Roles), usr.PasswordHash,
		usr.CreatedAt.UTC(), usr.UpdatedAt.UTC(),
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return user.User{}, user.ErrNotFound
	}
	var row userRow
	q := fmt.Sprintf(`SELECT %s FROM "user" WHERE id = $1`, userCols)
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user by ID")
	}
	return row.unmarshal(), nil
}

func (repo userRepository) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	var row userRow
	q := fmt.Sprintf(`SELECT %s FROM "user" WHERE lower(username) = lower($1)`, userCols)
	if err := repo.db.GetContext(ctx, &row, q, username); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user by username")
	}
	return row.unmarshal(), nil
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var row userRow
	q := fmt.Sprintf(`SELECT %s FROM "user" WHERE lower(email) = lower($1)`, userCols)
	if err := repo.db.GetContext(ctx, &row, q, email); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user by email")
	}
	return row.unmarshal(), nil
}

func (repo userRepository) GetUserByUsernameOrEmail(ctx context.Context, username string) (user.User, error) {
	var row userRow
	q := fmt.Sprintf(`SELECT %s FROM "user" WHERE lower(username) = lower($1) OR lower(email) = lower($1)`, userCols)
	if err := repo.db.GetContext(ctx, &row, q, username); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user")
	}
	return row.unmarshal(), nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(val interface{}) int {
		args = append(args, val)
		return len(args)
	}

	if filter != nil {
		// users with Name, Username or Email matching the search keyword
		if filter.Search != "" {
			n := arg("%" + filter.Search + "%")
			where = append(where, fmt.Sprintf("(name ILIKE $%[1]d OR username ILIKE $%[1]d OR email ILIKE $%[1]d)", n))
		}
		// users with any role that starts with any of the provided roles
		if len(filter.Roles) > 0 {
			roleConds := make([]string, 0, len(filter.Roles))
			for _, role := range filter.Roles {
				n := arg(role + "%")
				roleConds = append(roleConds, fmt.Sprintf("EXISTS(SELECT 1 FROM UNNEST(roles) user_role WHERE user_role ILIKE $%d)", n))
			}
			where = append(where, "("+strings.Join(roleConds, " OR ")+")")
		}
		if filter.IsActive != nil {
			where = append(where, fmt.Sprintf("is_active = $%d", arg(*filter.IsActive)))
		}
		if !filter.CreatedFrom.IsZero() {
			where = append(where, fmt.Sprintf("created_at >= $%d", arg(filter.CreatedFrom.UTC())))
		}
		if !filter.CreatedTo.IsZero() {
			where = append(where, fmt.Sprintf("created_at <= $%d", arg(filter.CreatedTo.UTC())))
		}
	}

	q := fmt.Sprintf(`SELECT %s FROM "user"`, userCols)
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY " + orderBy(ordering, userSortColumns, "created_at DESC")

	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.unmarshal())
	}
	return users, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	var (
		sets []string
		args []interface{}
	)
	set := func(col string, val interface{}) {
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if usr.Name != "" {
		set("name", usr.Name)
	}
	if usr.Username != "" {
		set("username", usr.Username)
	}
	if usr.Email != "" {
		set("email", usr.Email)
	}
	if len(usr.Roles) > 0 {
		set("roles", pq.Array(usr.Roles))
	}
	if len(usr.PasswordHash) > 0 {
		set("password_hash", usr.PasswordHash)
	}
	if !usr.UpdatedAt.IsZero() {
		set("updated_at", usr.UpdatedAt.UTC())
	}
	if !usr.LastLogin.IsZero() {
		set("last_login", usr.LastLogin.UTC())
	}
	if isActive != nil {
		set("is_active", *isActive)
	}
	if len(sets) == 0 {
		return repo.GetUserByID(ctx, usr.ID)
	}

	args = append(args, usr.ID)
	q := fmt.Sprintf(`UPDATE "user" SET %s WHERE id = $%d RETURNING %s`, strings.Join(sets, ", "), len(args), userCols)

	var row userRow
	if err := repo.db.GetContext(ctx, &row, q, args...); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "updating user")
	}
	return row.unmarshal(), nil
}

func (repo userRepository) SetUserRoles(ctx context.Context, id string, roles []string) (user.User, error) {
	var row userRow
	q := fmt.Sprintf(`UPDATE "user" SET roles = $1, updated_at = now() WHERE id = $2 RETURNING %s`, userCols)
	if err := repo.db.GetContext(ctx, &row, q, pq.Array(roles), id); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "setting user roles")
	}
	return row.unmarshal(), nil
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "starting transaction")
	}
	defer func() { _ = tx.Rollback() }()

	// courses taught by these users go first, with everything under them
	var courseIDs []string
	if err = tx.SelectContext(ctx, &courseIDs, `SELECT id FROM course WHERE teacher_id = ANY($1)`, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "listing taught courses")
	}
	if err = deleteCoursesTx(ctx, tx, courseIDs); err != nil {
		return err
	}

	// then anything they own or authored in other teachers' courses
	var quizIDs []string
	if err = tx.SelectContext(ctx, &quizIDs, `SELECT id FROM quiz WHERE owner_id = ANY($1)`, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "listing owned quizzes")
	}
	if err = deleteQuizzesTx(ctx, tx, quizIDs); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM material WHERE owner_id = ANY($1)`, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting owned materials")
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM submission WHERE student_id = ANY($1)`, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting authored submissions")
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM "user" WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}
