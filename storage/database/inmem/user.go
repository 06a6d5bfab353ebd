package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/minhaescola/backend/core"
	"github.com/minhaescola/backend/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func (r *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	excluded := func(id string) bool {
		for _, u := range excludedUsers {
			if u.ID == id {
				return true
			}
		}
		return false
	}
	for _, usr := range r.db.users {
		if excluded(usr.ID) {
			continue
		}
		if username != "" && usr.Username == username {
			return user.ErrUsernameExists
		}
		if email != "" && usr.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (r *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	usr.ID = uuid.New().String()
	r.db.users[usr.ID] = &usr
	return usr, nil
}

func (r *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if usr, ok := r.db.users[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (r *userRepository) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, usr := range r.db.users {
		if usr.Username == username {
			return *usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, usr := range r.db.users {
		if usr.Email == email {
			return *usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *userRepository) GetUserByUsernameOrEmail(ctx context.Context, username string) (user.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, usr := range r.db.users {
		if usr.Username == username || usr.Email == username {
			return *usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	res := make([]user.User, 0, len(r.db.users))
	for _, usr := range r.db.users {
		if filter != nil && !matchUserFilter(*usr, filter) {
			continue
		}
		res = append(res, *usr)
	}
	sortUsers(res, ordering)
	return res, nil
}

func matchUserFilter(usr user.User, filter *user.QueryFilter) bool {
	if filter.Search != "" {
		s := strings.ToLower(filter.Search)
		if !(strings.Contains(strings.ToLower(usr.Name), s) ||
			strings.Contains(strings.ToLower(usr.Username), s) ||
			strings.Contains(strings.ToLower(usr.Email), s)) {
			return false
		}
	}
	if len(filter.Roles) > 0 {
		var match bool
		for _, role := range filter.Roles {
			if usr.HasRole(role) {
				match = true
				break
			}
		}
		if !match {
			return false
		}
	}
	if filter.IsActive != nil {
		if usr.IsActive == nil || *usr.IsActive != *filter.IsActive {
			return false
		}
	}
	if !filter.CreatedFrom.IsZero() && usr.CreatedAt.Before(filter.CreatedFrom) {
		return false
	}
	if !filter.CreatedTo.IsZero() && usr.CreatedAt.After(filter.CreatedTo) {
		return false
	}
	return true
}

func sortUsers(users []user.User, ordering []core.DBOrdering) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at"}}
	}
	sort.SliceStable(users, func(i, j int) bool {
		for _, ord := range ordering {
			var less, eq bool
			a, b := users[i], users[j]
			switch ord.Field {
			case "name":
				less, eq = a.Name < b.Name, a.Name == b.Name
			case "username":
				less, eq = a.Username < b.Username, a.Username == b.Username
			case "email":
				less, eq = a.Email < b.Email, a.Email == b.Email
			case "is_active":
				av, bv := a.IsActive != nil && *a.IsActive, b.IsActive != nil && *b.IsActive
				less, eq = !av && bv, av == bv
			default: // created_at
				less, eq = a.CreatedAt.Before(b.CreatedAt), a.CreatedAt.Equal(b.CreatedAt)
			}
			if eq {
				continue
			}
			if ord.Ascending {
				return less
			}
			return !less
		}
		return false
	})
}

func (r *userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	orig, ok := r.db.users[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	if usr.Name != "" {
		orig.Name = usr.Name
	}
	if usr.Username != "" {
		orig.Username = usr.Username
	}
	if usr.Email != "" {
		orig.Email = usr.Email
	}
	if usr.Roles != nil {
		orig.Roles = usr.Roles
	}
	if usr.PasswordHash != nil {
		orig.PasswordHash = usr.PasswordHash
	}
	if !usr.UpdatedAt.IsZero() {
		orig.UpdatedAt = usr.UpdatedAt
	}
	if !usr.LastLogin.IsZero() {
		orig.LastLogin = usr.LastLogin
	}
	if isActive != nil {
		orig.IsActive = isActive
	}
	return *orig, nil
}

func (r *userRepository) SetUserRoles(ctx context.Context, id string, roles []string) (user.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	usr, ok := r.db.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	usr.Roles = roles
	return *usr, nil
}

func (r *userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.deleteUsersLocked(ids...)
	return nil
}
