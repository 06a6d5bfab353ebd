package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/minhaescola/backend/apps/api/echo"
	"github.com/minhaescola/backend/core/user"
	testutil "github.com/minhaescola/backend/tests"
)

func Test_home(t *testing.T) {
	env := setup(t)

	req, rec := newRequest(http.MethodGet, "/")
	env.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome to")
}

func Test_userApi_login(t *testing.T) {
	env := setup(t)

	testutil.CreateUser(t, env.usrRepo, "Active User", "awe", "awe@escola.cd", "mdr", nil, true)
	testutil.CreateUser(t, env.usrRepo, "Inactive User", "lol", "lol@escola.cd", "mdr", nil, false)

	tests := []httpTest{
		{name: "empty body", body: []byte("{}"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": "this field is required", "password": "this field is required"})},
		{name: "unknown user", body: marchallObj(t, LoginRequest{Username: "bye", Password: "mdr"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"})},
		{name: "wrong password", body: marchallObj(t, LoginRequest{Username: "awe", Password: "lol"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"})},
		{name: "deactivated account", body: marchallObj(t, LoginRequest{Username: "lol", Password: "mdr"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"})},
		{name: "login with username", body: marchallObj(t, LoginRequest{Username: "awe", Password: "mdr"}), wantCode: http.StatusOK},
		{name: "login with email", body: marchallObj(t, LoginRequest{Username: "awe@escola.cd", Password: "mdr"}), wantCode: http.StatusOK},
		{name: "username is case-insensitive", body: marchallObj(t, LoginRequest{Username: "AWE", Password: "mdr"}), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/api/token", tt.body)
			env.server.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
				var resp LoginResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.NotEmpty(t, resp.Token)
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("login updates last_login", func(t *testing.T) {
		usr, err := env.usrSvc.GetByUsername(context.Background(), "awe")
		require.NoError(t, err)
		assert.False(t, usr.LastLogin.IsZero())
	})
}

func Test_userApi_refreshToken(t *testing.T) {
	env := setup(t)

	usr := testutil.CreateUser(t, env.usrRepo, "Awe", "awe", "awe@escola.cd", "mdr", nil, true)

	t.Run("no token", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/token-refresh")
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
	})

	t.Run("fresh token refreshes", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/token-refresh", getToken(t, usr))
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp LoginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)
	})

	t.Run("refresh window expired", func(t *testing.T) {
		oriat := time.Now().Add(-5 * time.Hour).Unix() // refresh window is 4h
		token, err := GenerateToken(GetUserClaims(usr, oriat))
		require.NoError(t, err)

		req, rec := newAuthRequest(http.MethodPost, "/api/token-refresh", token)
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"})}, rec)
	})
}

func Test_userApi_create(t *testing.T) {
	env := setup(t)

	admin := testutil.CreateUser(t, env.usrRepo, "Admin", "admin", "admin@escola.cd", "mdr", []string{user.RoleAdmin}, true)
	prof := testutil.CreateUser(t, env.usrRepo, "Prof", "prof", "prof@escola.cd", "mdr", []string{user.RoleTeacher}, true)
	adminToken := getToken(t, admin)

	newUser := func(uname, email string, roles ...string) []byte {
		return marchallObj(t, user.NewUser{
			Name: "New User", Username: uname, Email: email,
			Password: "LolMdr057", PasswordConfirm: "LolMdr057", Roles: roles,
		})
	}

	tests := []httpTest{
		{name: "unauthenticated", body: newUser("student1", "s1@escola.cd"),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "teachers cannot create users", body: newUser("student1", "s1@escola.cd"), token: getToken(t, prof),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})},
		{name: "admin creates a student", body: newUser("student1", "s1@escola.cd", user.RoleStudent),
			token: adminToken, wantCode: http.StatusCreated},
		{name: "duplicate username", body: newUser("student1", "other@escola.cd", user.RoleStudent), token: adminToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"username": "a user with this username already exists"})},
		{name: "duplicate email", body: newUser("other1x", "s1@escola.cd", user.RoleStudent), token: adminToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"email": "a user with this email already exists"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/api/users", tt.token, tt.body)
			env.server.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
				var usr user.User
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &usr))
				assert.NotEmpty(t, usr.ID)
				assert.Equal(t, "student1", usr.Username)
				assert.Equal(t, []string{user.RoleStudent}, usr.Roles)
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_me(t *testing.T) {
	env := setup(t)

	usr := testutil.CreateUser(t, env.usrRepo, "Awe", "awe", "awe@escola.cd", "mdr", []string{user.RoleStudent}, true)

	t.Run("unauthenticated", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/api/users/me")
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
	})

	t.Run("returns the caller", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/users/me", getToken(t, usr))
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, usr)}, rec)
	})
}

func Test_userApi_query(t *testing.T) {
	env := setup(t)

	admin := testutil.CreateUser(t, env.usrRepo, "Admin", "admin", "admin@escola.cd", "mdr", []string{user.RoleAdmin}, true)
	prof := testutil.CreateUser(t, env.usrRepo, "Prof", "prof", "prof@escola.cd", "mdr", []string{user.RoleTeacher}, true)
	std := testutil.CreateUser(t, env.usrRepo, "Student", "std", "std@escola.cd", "mdr", []string{user.RoleStudent}, true)
	adminToken := getToken(t, admin)

	tests := []httpTest{
		{name: "unauthenticated", path: "/api/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "students cannot list users", path: "/api/users", token: getToken(t, std),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})},
		{name: "all users, newest first", path: "/api/users", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, std, prof, admin)},
		{name: "filter by role", path: "/api/users?role=professor", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, prof)},
		{name: "search", path: "/api/users?search=Student", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, std)},
		{name: "no match", path: "/api/users?search=nobody", token: adminToken,
			wantCode: http.StatusOK, wantData: []byte("[]")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_detail(t *testing.T) {
	env := setup(t)

	admin := testutil.CreateUser(t, env.usrRepo, "Admin", "admin", "admin@escola.cd", "mdr", []string{user.RoleAdmin}, true)
	std := testutil.CreateUser(t, env.usrRepo, "Student", "std", "std@escola.cd", "mdr", []string{user.RoleStudent}, true)
	adminToken := getToken(t, admin)

	t.Run("retrieve", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/users/"+std.ID, adminToken)
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, std)}, rec)
	})

	t.Run("unknown id is 404", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/users/c7c7be01-33f0-4b32-b2cb-8b7bf6e9fc7e", adminToken)
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}, rec)
	})

	t.Run("students cannot read others", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/users/"+admin.ID, getToken(t, std))
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}, rec)
	})

	t.Run("update", func(t *testing.T) {
		body := marchallObj(t, user.UpdateUser{Name: "Renamed Student"})
		req, rec := newAuthRequest(http.MethodPut, "/api/users/"+std.ID, adminToken, body)
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got user.User
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "Renamed Student", got.Name)
		assert.Equal(t, std.Username, got.Username)
	})

	t.Run("self-deletion is forbidden", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/api/users/"+admin.ID, adminToken)
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}, rec)
	})

	t.Run("destroy", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/api/users/"+std.ID, adminToken)
		env.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		req, rec = newAuthRequest(http.MethodGet, "/api/users/"+std.ID, adminToken)
		env.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func Test_userApi_destroyMultiple(t *testing.T) {
	env := setup(t)

	admin := testutil.CreateUser(t, env.usrRepo, "Admin", "admin", "admin@escola.cd", "mdr", []string{user.RoleAdmin}, true)
	std1 := testutil.CreateUser(t, env.usrRepo, "S1", "std1", "s1@escola.cd", "mdr", []string{user.RoleStudent}, true)
	std2 := testutil.CreateUser(t, env.usrRepo, "S2", "std2", "s2@escola.cd", "mdr", []string{user.RoleStudent}, true)
	adminToken := getToken(t, admin)

	t.Run("cannot include self", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/api/users?id="+std1.ID+"&id="+admin.ID, adminToken)
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}, rec)
	})

	t.Run("deletes all named users", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/api/users?id="+std1.ID+"&id="+std2.ID, adminToken)
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)

		req, rec = newAuthRequest(http.MethodGet, "/api/users", adminToken)
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t, admin)}, rec)
	})
}

func Test_userApi_groups(t *testing.T) {
	env := setup(t)

	admin := testutil.CreateUser(t, env.usrRepo, "Admin", "admin", "admin@escola.cd", "mdr", []string{user.RoleAdmin}, true)
	std := testutil.CreateUser(t, env.usrRepo, "Student", "std", "std@escola.cd", "mdr", []string{user.RoleStudent}, true)

	tests := []httpTest{
		{name: "unauthenticated", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "students cannot list groups", token: getToken(t, std),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})},
		{name: "admin lists groups", token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marchallObj(t, user.Groups)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/api/groups", tt.token)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_assignRole(t *testing.T) {
	env := setup(t)

	admin := testutil.CreateUser(t, env.usrRepo, "Admin", "admin", "admin@escola.cd", "mdr", []string{user.RoleAdmin}, true)
	usr := testutil.CreateUser(t, env.usrRepo, "Awe", "awe", "awe@escola.cd", "mdr", []string{user.RoleStudent}, true)
	adminToken := getToken(t, admin)
	path := "/api/users/" + usr.ID + "/assign_role"

	tests := []httpTest{
		{name: "role is required", path: path, body: []byte("{}"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"role": "this field is required"})},
		{name: "unknown role", path: path, body: marchallObj(t, AssignRoleRequest{Role: "lol"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"role": "invalid role"})},
		{name: "admin is not assignable", path: path, body: marchallObj(t, AssignRoleRequest{Role: user.RoleAdmin}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"role": "invalid role"})},
		{name: "assigning replaces the role set", path: path, body: marchallObj(t, AssignRoleRequest{Role: user.RoleTeacher}), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, tt.path, adminToken, tt.body)
			env.server.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
				var got user.User
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
				assert.Equal(t, []string{user.RoleTeacher}, got.Roles)
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_removeFromGroup(t *testing.T) {
	env := setup(t)

	admin := testutil.CreateUser(t, env.usrRepo, "Admin", "admin", "admin@escola.cd", "mdr", []string{user.RoleAdmin}, true)
	usr := testutil.CreateUser(t, env.usrRepo, "Awe", "awe", "awe@escola.cd", "mdr", []string{user.RoleStudent}, true)
	adminToken := getToken(t, admin)
	path := "/api/users/" + usr.ID + "/remove_from_group"

	tests := []httpTest{
		{name: "unknown group", path: path, body: marchallObj(t, RemoveFromGroupRequest{Group: "lol"}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "group not found"})},
		{name: "not a member", path: path, body: marchallObj(t, RemoveFromGroupRequest{Group: user.RoleTeacher}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "user does not belong to this group"})},
		{name: "membership removed", path: path, body: marchallObj(t, RemoveFromGroupRequest{Group: user.RoleStudent}), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, tt.path, adminToken, tt.body)
			env.server.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
				var got user.User
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
				assert.Empty(t, got.Roles)
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_passwordReset(t *testing.T) {
	env := setup(t)

	testutil.CreateUser(t, env.usrRepo, "Awe", "awe", "awe@escola.cd", "mdr", nil, true)

	successMsg := "If the email address supplied is associated with an active account on this system, " +
		"an email will arrive in your inbox shortly with instructions to reset your password."

	t.Run("response does not leak account existence", func(t *testing.T) {
		for _, email := range []string{"awe@escola.cd", "nobody@escola.cd"} {
			req, rec := newRequest(http.MethodPost, "/api/password-reset", marchallObj(t, PasswordResetRequest{Email: email}))
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, SuccessResponse{Success: successMsg})}, rec)
		}
	})

	t.Run("confirm rejects a bad token", func(t *testing.T) {
		body := marchallObj(t, user.ResetUserPassword{Token: "lol-mdr", UID: "bHVs", Password: "NewLolMdr057", PasswordConfirm: "NewLolMdr057"})
		req, rec := newRequest(http.MethodPost, "/api/password-reset-confirm", body)
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "invalid token"})}, rec)
	})

	t.Run("confirm requires matching passwords", func(t *testing.T) {
		body := marchallObj(t, user.ResetUserPassword{Token: "lol-mdr", UID: "bHVs", Password: "NewLolMdr057", PasswordConfirm: "Other057"})
		req, rec := newRequest(http.MethodPost, "/api/password-reset-confirm", body)
		env.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
