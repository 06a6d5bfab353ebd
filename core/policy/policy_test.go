package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/minhaescola/backend/core/user"
)

func TestAllow(t *testing.T) {
	admin := user.User{ID: "adm", Roles: []string{user.RoleAdmin}}
	prof := user.User{ID: "prof", Roles: []string{user.RoleTeacher}}
	student := user.User{ID: "std", Roles: []string{user.RoleStudent}}
	anonymous := user.User{}

	tests := []struct {
		name     string
		usr      user.User
		action   Action
		resource Resource
		want     bool
	}{
		{name: "anonymous is always denied", usr: anonymous, action: ActionRead, resource: ResourceCourse, want: false},
		{name: "unknown pair is denied", usr: admin, action: Action("lol"), resource: ResourceCourse, want: false},

		{name: "only admin manages users", usr: admin, action: ActionCreate, resource: ResourceUser, want: true},
		{name: "teacher cannot manage users", usr: prof, action: ActionCreate, resource: ResourceUser, want: false},
		{name: "student cannot list users", usr: student, action: ActionList, resource: ResourceUser, want: false},
		{name: "only admin lists groups", usr: student, action: ActionList, resource: ResourceGroup, want: false},

		{name: "teacher creates courses", usr: prof, action: ActionCreate, resource: ResourceCourse, want: true},
		{name: "student cannot create courses", usr: student, action: ActionCreate, resource: ResourceCourse, want: false},
		{name: "student reads courses", usr: student, action: ActionRead, resource: ResourceCourse, want: true},
		{name: "admin satisfies teacher requirement", usr: admin, action: ActionDelete, resource: ResourceCourse, want: true},

		{name: "teacher uploads materials", usr: prof, action: ActionCreate, resource: ResourceMaterial, want: true},
		{name: "student downloads materials", usr: student, action: ActionRead, resource: ResourceMaterial, want: true},
		{name: "student cannot delete materials", usr: student, action: ActionDelete, resource: ResourceMaterial, want: false},

		{name: "teacher creates quizzes", usr: prof, action: ActionCreate, resource: ResourceQuiz, want: true},
		{name: "student lists quizzes", usr: student, action: ActionList, resource: ResourceQuiz, want: true},
		{name: "student cannot update questions", usr: student, action: ActionUpdate, resource: ResourceQuestion, want: false},
		{name: "teacher updates questions", usr: prof, action: ActionUpdate, resource: ResourceQuestion, want: true},

		{name: "student submits answers", usr: student, action: ActionCreate, resource: ResourceSubmission, want: true},
		{name: "student lists own submissions", usr: student, action: ActionList, resource: ResourceSubmission, want: true},
		{name: "teacher cannot update submissions", usr: prof, action: ActionUpdate, resource: ResourceSubmission, want: false},
		{name: "admin deletes submissions", usr: admin, action: ActionDelete, resource: ResourceSubmission, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Allow(tt.usr, tt.action, tt.resource))
		})
	}
}
