package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/minhaescola/backend/core"
	"github.com/minhaescola/backend/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db}
}

func (r *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	crs.ID = uuid.New().String()
	r.db.courses[crs.ID] = &crs
	return r.withTeacher(crs), nil
}

func (r *courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if crs, ok := r.db.courses[id]; ok {
		return r.withTeacher(*crs), nil
	}
	return course.Course{}, course.ErrCourseNotFound
}

func (r *courseRepository) QueryCourses(ctx context.Context, filter *course.CourseFilter, ordering []core.DBOrdering) ([]course.Course, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	res := make([]course.Course, 0, len(r.db.courses))
	for _, crs := range r.db.courses {
		if filter != nil && filter.TeacherID != "" && crs.TeacherID != filter.TeacherID {
			continue
		}
		res = append(res, r.withTeacher(*crs))
	}
	// most recently created first
	sort.SliceStable(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res, nil
}

func (r *courseRepository) UpdateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	orig, ok := r.db.courses[crs.ID]
	if !ok {
		return course.Course{}, course.ErrCourseNotFound
	}
	if crs.Name != "" {
		orig.Name = crs.Name
	}
	if crs.Description != "" {
		orig.Description = crs.Description
	}
	return r.withTeacher(*orig), nil
}

func (r *courseRepository) DeleteCoursesByID(ctx context.Context, ids ...string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, id := range ids {
		if _, ok := r.db.courses[id]; !ok {
			return course.ErrCourseNotFound
		}
	}
	r.db.deleteCoursesLocked(ids...)
	return nil
}

func (r *courseRepository) CreateMaterial(ctx context.Context, mat course.Material) (course.Material, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	mat.ID = uuid.New().String()
	r.db.materials[mat.ID] = &mat
	return r.withOwner(mat), nil
}

func (r *courseRepository) GetMaterialByID(ctx context.Context, id string) (course.Material, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if mat, ok := r.db.materials[id]; ok {
		return r.withOwner(*mat), nil
	}
	return course.Material{}, course.ErrMaterialNotFound
}

func (r *courseRepository) QueryMaterials(ctx context.Context, filter *course.MaterialFilter, ordering []core.DBOrdering) ([]course.Material, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	res := make([]course.Material, 0, len(r.db.materials))
	for _, mat := range r.db.materials {
		if filter != nil && filter.CourseID != "" && mat.CourseID != filter.CourseID {
			continue
		}
		res = append(res, r.withOwner(*mat))
	}
	// most recently uploaded first
	sort.SliceStable(res, func(i, j int) bool { return res[i].UploadedAt.After(res[j].UploadedAt) })
	return res, nil
}

func (r *courseRepository) UpdateMaterial(ctx context.Context, mat course.Material) (course.Material, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	orig, ok := r.db.materials[mat.ID]
	if !ok {
		return course.Material{}, course.ErrMaterialNotFound
	}
	if mat.Title != "" {
		orig.Title = mat.Title
	}
	if mat.Description != "" {
		orig.Description = mat.Description
	}
	return r.withOwner(*orig), nil
}

func (r *courseRepository) DeleteMaterialsByID(ctx context.Context, ids ...string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, id := range ids {
		if _, ok := r.db.materials[id]; !ok {
			return course.ErrMaterialNotFound
		}
	}
	for _, id := range ids {
		delete(r.db.materials, id)
	}
	return nil
}

func (r *courseRepository) ListMaterialFileKeys(ctx context.Context, courseIDs ...string) ([]string, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var keys []string
	for _, cid := range courseIDs {
		for _, mat := range r.db.materials {
			if mat.CourseID == cid {
				keys = append(keys, mat.FileKey)
			}
		}
	}
	return keys, nil
}

func (r *courseRepository) withTeacher(crs course.Course) course.Course {
	crs.Teacher = r.db.public(crs.TeacherID)
	return crs
}

func (r *courseRepository) withOwner(mat course.Material) course.Material {
	mat.Owner = r.db.public(mat.OwnerID)
	return mat
}
