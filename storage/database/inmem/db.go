// Package inmemdb is a map-backed implementation of every repository,
// used in development mode and in tests. A single DB-level lock keeps
// cascading deletes and the (quiz, student) uniqueness check atomic.
package inmemdb

import (
	"sync"

	"github.com/minhaescola/backend/core/course"
	"github.com/minhaescola/backend/core/quiz"
	"github.com/minhaescola/backend/core/submission"
	"github.com/minhaescola/backend/core/user"
)

type DB struct {
	mu sync.RWMutex

	users       map[string]*user.User
	courses     map[string]*course.Course
	materials   map[string]*course.Material
	quizzes     map[string]*quiz.Quiz
	questions   map[string]*quiz.Question
	submissions map[string]*submission.Submission
}

func Open() *DB {
	return &DB{
		users:       make(map[string]*user.User),
		courses:     make(map[string]*course.Course),
		materials:   make(map[string]*course.Material),
		quizzes:     make(map[string]*quiz.Quiz),
		questions:   make(map[string]*quiz.Question),
		submissions: make(map[string]*submission.Submission),
	}
}

// Reset empties every table; test helper.
func (db *DB) Reset() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.users = make(map[string]*user.User)
	db.courses = make(map[string]*course.Course)
	db.materials = make(map[string]*course.Material)
	db.quizzes = make(map[string]*quiz.Quiz)
	db.questions = make(map[string]*quiz.Question)
	db.submissions = make(map[string]*submission.Submission)
}

// public returns the nested identity shape for the given user ID.
func (db *DB) public(id string) user.Public {
	if usr, ok := db.users[id]; ok {
		return usr.Public()
	}
	return user.Public{ID: id, Roles: []string{}}
}

// deletion helpers; callers must hold the write lock.
// Each walks owned children before removing the parent.

func (db *DB) deleteCoursesLocked(ids ...string) {
	for _, id := range ids {
		for mid, mat := range db.materials {
			if mat.CourseID == id {
				delete(db.materials, mid)
			}
		}
		var quizIDs []string
		for qid, qz := range db.quizzes {
			if qz.CourseID == id {
				quizIDs = append(quizIDs, qid)
			}
		}
		db.deleteQuizzesLocked(quizIDs...)
		delete(db.courses, id)
	}
}

func (db *DB) deleteQuizzesLocked(ids ...string) {
	for _, id := range ids {
		for qid, q := range db.questions {
			if q.QuizID == id {
				delete(db.questions, qid)
			}
		}
		for sid, sub := range db.submissions {
			if sub.QuizID == id {
				delete(db.submissions, sid)
			}
		}
		delete(db.quizzes, id)
	}
}

func (db *DB) deleteUsersLocked(ids ...string) {
	for _, id := range ids {
		var courseIDs []string
		for cid, crs := range db.courses {
			if crs.TeacherID == id {
				courseIDs = append(courseIDs, cid)
			}
		}
		db.deleteCoursesLocked(courseIDs...)

		var quizIDs []string
		for qid, qz := range db.quizzes {
			if qz.OwnerID == id {
				quizIDs = append(quizIDs, qid)
			}
		}
		db.deleteQuizzesLocked(quizIDs...)

		for mid, mat := range db.materials {
			if mat.OwnerID == id {
				delete(db.materials, mid)
			}
		}
		for sid, sub := range db.submissions {
			if sub.StudentID == id {
				delete(db.submissions, sid)
			}
		}
		delete(db.users, id)
	}
}
