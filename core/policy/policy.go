// Package policy is the single authorization gate: one declarative
// table mapping (resource, action) to the role requirement, consulted
// before every operation instead of per-handler role checks.
package policy

import "github.com/minhaescola/backend/core/user"

type (
	Action   string
	Resource string

	requirement int
)

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionList   Action = "list"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

const (
	ResourceUser       Resource = "user"
	ResourceGroup      Resource = "group"
	ResourceCourse     Resource = "course"
	ResourceMaterial   Resource = "material"
	ResourceQuiz       Resource = "quiz"
	ResourceQuestion   Resource = "question"
	ResourceSubmission Resource = "submission"
)

const (
	deny requirement = iota
	authenticated
	teacher
	admin
)

// rules is evaluated per request; a (resource, action) pair absent from
// the table is denied. Admins satisfy every requirement.
var rules = map[Resource]map[Action]requirement{
	ResourceUser: {
		ActionCreate: admin,
		ActionRead:   admin, // own profile handled by the /users/me route
		ActionList:   admin,
		ActionUpdate: admin,
		ActionDelete: admin,
	},
	ResourceGroup: {
		ActionRead: admin,
		ActionList: admin,
	},
	ResourceCourse: {
		ActionCreate: teacher,
		ActionRead:   authenticated,
		ActionList:   authenticated,
		ActionUpdate: teacher,
		ActionDelete: teacher,
	},
	ResourceMaterial: {
		ActionCreate: teacher,
		ActionRead:   authenticated,
		ActionList:   authenticated,
		ActionUpdate: teacher,
		ActionDelete: teacher,
	},
	ResourceQuiz: {
		ActionCreate: teacher,
		ActionRead:   authenticated,
		ActionList:   authenticated,
		ActionUpdate: teacher,
		ActionDelete: teacher,
	},
	ResourceQuestion: {
		ActionCreate: teacher,
		ActionRead:   authenticated,
		ActionList:   authenticated,
		ActionUpdate: teacher,
		ActionDelete: teacher,
	},
	ResourceSubmission: {
		ActionCreate: authenticated,
		ActionRead:   authenticated, // scoped to own submissions for students
		ActionList:   authenticated,
		ActionUpdate: admin,
		ActionDelete: admin,
	},
}

// Allow decides whether usr may perform action on resource.
// Precedence is explicit: admin beats teacher beats student, so an
// identity somehow holding several roles gets the strongest one.
func Allow(usr user.User, action Action, resource Resource) bool {
	if usr.ID == "" {
		return false
	}
	req, ok := rules[resource][action]
	if !ok {
		return false
	}
	switch req {
	case authenticated:
		return true
	case teacher:
		return usr.IsAdmin() || usr.IsTeacher()
	case admin:
		return usr.IsAdmin()
	}
	return false
}
