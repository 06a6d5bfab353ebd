package main

import (
	"bytes"
	"context"
	"database/sql"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/minhaescola/backend/core/quiz"
	"github.com/minhaescola/backend/core/submission"
	"github.com/minhaescola/backend/core/user"
	inmemdb "github.com/minhaescola/backend/storage/database/inmem"
)

func setup(t *testing.T) *commandLine {
	t.Helper()
	db := inmemdb.Open()
	return &commandLine{
		usrRepo:  inmemdb.NewUserRepository(db),
		crsRepo:  inmemdb.NewCourseRepository(db),
		quizRepo: inmemdb.NewQuizRepository(db),
		subRepo:  inmemdb.NewSubmissionRepository(db),
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)
	cli.db = &sqlx.DB{} // commands never reach the connection; the runner is mocked

	var gotCommand string
	migrateRunFunc = func(db *sql.DB, command string, args ...string) error {
		gotCommand = command
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "force: no args", args: []string{"migrate", "force"}, wantErrStr: "force must be of form: admin migrate force VERSION"},
		{name: "force: non-int arg", args: []string{"migrate", "force", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "force", args: []string{"migrate", "force", "1"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			gotCommand = ""
			if err := cli.run(args); err != nil {
				if tt.wantErr != nil {
					if err != tt.wantErr {
						t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
					}
				} else if tt.wantErrStr != "" {
					if err.Error() != tt.wantErrStr {
						t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
					}
				} else {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
				return
			}
			if gotCommand != tt.args[1] {
				t.Errorf("migration runner got command %q, want %q", gotCommand, tt.args[1])
			}
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)

	type extra struct {
		pwd       string
		wantRoles []string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"adduser", "-username", "awe"}, wantErr: errHelp},
		{name: "invalid role", args: []string{"adduser", "-username", "awe", "-roles", "lol"},
			extra: extra{pwd: "mdr"}, wantErr: user.ErrInvalidRole},
		{name: "defaults to admin", args: []string{"adduser", "-username", "awe", "-email", "awe@escola.cd"},
			extra: extra{pwd: "mdr", wantRoles: []string{user.RoleAdmin}}},
		{name: "explicit roles", args: []string{"adduser", "-username", "prof", "-email", "prof@escola.cd", "-roles", "professor"},
			extra: extra{pwd: "mdr", wantRoles: []string{user.RoleTeacher}}},
		{name: "updates existing user", args: []string{"adduser", "-username", "awe", "-roles", "admin,professor"},
			extra: extra{pwd: "lmao", wantRoles: []string{user.RoleAdmin, user.RoleTeacher}}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("cli.run() unexpected error = %v", err)
			}

			usr, err := cli.usrRepo.GetUserByUsername(context.Background(), tt.args[2])
			if err != nil {
				t.Fatalf("GetUserByUsername() failed, %v", err)
			}
			extra := tt.extra.(extra)
			if len(usr.Roles) != len(extra.wantRoles) {
				t.Fatalf("got roles %v, want %v", usr.Roles, extra.wantRoles)
			}
			for i, role := range extra.wantRoles {
				if usr.Roles[i] != role {
					t.Errorf("got roles %v, want %v", usr.Roles, extra.wantRoles)
				}
			}
			if err := usr.CheckPassword(extra.pwd); err != nil {
				t.Error("password was not set")
			}
			if usr.IsActive == nil || !*usr.IsActive {
				t.Error("user is not active")
			}
		})
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr := seedTestUser(t, cli, "awe", "awe@escola.cd", user.RoleStudent)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, extra: extra{pwd: "lol"}, wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}, extra: extra{pwd: "lol"}},
		{name: "reset with email", args: []string{"resetpassword", "-username", usr.Email}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				refreshedUsr, err := cli.usrRepo.GetUserByID(context.Background(), usr.ID)
				if err != nil {
					t.Fatalf("GetUserByID() failed, %v", err)
				}
				if bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash) {
					t.Error("failed to update new password")
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_assignRole(t *testing.T) {
	cli := setup(t)

	usr := seedTestUser(t, cli, "awe", "awe@escola.cd", user.RoleStudent)

	tests := []cliTest{
		{name: "no args", args: []string{"assignrole"}, wantErr: errHelp},
		{name: "missing role", args: []string{"assignrole", "-username", usr.Username}, wantErr: errHelp},
		{name: "invalid role", args: []string{"assignrole", "-username", usr.Username, "-role", "lol"}, wantErr: user.ErrInvalidRole},
		{name: "user not found", args: []string{"assignrole", "-username", "lol", "-role", "professor"}, wantErr: user.ErrNotFound},
		{name: "assign new role", args: []string{"assignrole", "-username", usr.Username, "-role", "professor"}},
		{name: "already assigned", args: []string{"assignrole", "-username", usr.Username, "-role", "professor"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("cli.run() unexpected error = %v", err)
			}
			refreshedUsr, err := cli.usrRepo.GetUserByID(context.Background(), usr.ID)
			if err != nil {
				t.Fatalf("GetUserByID() failed, %v", err)
			}
			if !refreshedUsr.HasRole(user.RoleTeacher) || !refreshedUsr.HasRole(user.RoleStudent) {
				t.Errorf("got roles %v, want both %q and %q", refreshedUsr.Roles, user.RoleStudent, user.RoleTeacher)
			}
		})
	}
}

func Test_commandLine_seed(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	// running twice must not duplicate anything
	for i := 0; i < 2; i++ {
		if err := cli.run([]string{"admin", "seed"}); err != nil {
			t.Fatalf("cli.run() unexpected error = %v", err)
		}

		users, err := cli.usrRepo.QueryUsers(ctx, nil, nil)
		if err != nil {
			t.Fatalf("QueryUsers() failed, %v", err)
		}
		if len(users) != 4 {
			t.Errorf("got %d users, want 4", len(users))
		}

		courses, err := cli.crsRepo.QueryCourses(ctx, nil, nil)
		if err != nil {
			t.Fatalf("QueryCourses() failed, %v", err)
		}
		if len(courses) != 1 {
			t.Fatalf("got %d courses, want 1", len(courses))
		}

		quizzes, err := cli.quizRepo.QueryQuizzes(ctx, &quiz.QuizFilter{CourseID: courses[0].ID}, nil)
		if err != nil {
			t.Fatalf("QueryQuizzes() failed, %v", err)
		}
		if len(quizzes) != 1 {
			t.Fatalf("got %d quizzes, want 1", len(quizzes))
		}
		if len(quizzes[0].Questions) != 5 {
			t.Errorf("got %d questions, want 5", len(quizzes[0].Questions))
		}

		subs, err := cli.subRepo.QuerySubmissions(ctx, &submission.Filter{QuizID: quizzes[0].ID}, nil)
		if err != nil {
			t.Fatalf("QuerySubmissions() failed, %v", err)
		}
		if len(subs) != 3 {
			t.Fatalf("got %d submissions, want 3", len(subs))
		}
		scores := make(map[float64]int)
		for _, sub := range subs {
			if !sub.Score.Valid {
				t.Error("submission was not graded")
				continue
			}
			scores[sub.Score.Float64]++
		}
		for _, want := range []float64{100.0, 60.0, 0.0} {
			if scores[want] != 1 {
				t.Errorf("got scores %v, want one each of 100, 60 and 0", scores)
			}
		}
	}
}

func seedTestUser(t *testing.T, cli *commandLine, uname, email, role string) user.User {
	t.Helper()
	usr := user.User{Username: uname, Email: email, Roles: []string{role}}
	if err := usr.SetPassword("mdr"); err != nil {
		t.Fatalf("SetPassword() failed, %v", err)
	}
	isActive := true
	usr.IsActive = &isActive
	usr, err := cli.usrRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed, %v", err)
	}
	return usr
}
