package course

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/minhaescola/backend/core"
	"github.com/minhaescola/backend/core/user"
)

var (
	// errors
	ErrCourseNotFound   = errors.New("course not found")
	ErrMaterialNotFound = errors.New("material not found")
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, crs Course) (Course, error)
		GetCourseByID(ctx context.Context, id string) (Course, error)
		QueryCourses(ctx context.Context, filter *CourseFilter, ordering []core.DBOrdering) ([]Course, error)
		UpdateCourse(ctx context.Context, crs Course) (Course, error)
		// DeleteCoursesByID walks and deletes each course's materials and
		// quizzes (with their questions and submissions) before the course row.
		DeleteCoursesByID(ctx context.Context, ids ...string) error

		CreateMaterial(ctx context.Context, mat Material) (Material, error)
		GetMaterialByID(ctx context.Context, id string) (Material, error)
		QueryMaterials(ctx context.Context, filter *MaterialFilter, ordering []core.DBOrdering) ([]Material, error)
		UpdateMaterial(ctx context.Context, mat Material) (Material, error)
		DeleteMaterialsByID(ctx context.Context, ids ...string) error
		// ListMaterialFileKeys returns the stored file keys of the materials
		// owned by the given courses.
		ListMaterialFileKeys(ctx context.Context, courseIDs ...string) ([]string, error)
	}

	Service interface {
		CreateCourse(ctx context.Context, nc NewCourse, teacher user.User) (Course, error)
		GetCourse(ctx context.Context, id string) (Course, error)
		CourseExists(ctx context.Context, id string) error
		QueryCourses(ctx context.Context, filter *CourseFilter, ordering []core.DBOrdering) ([]Course, error)
		UpdateCourse(ctx context.Context, id string, uc UpdateCourse) (Course, error)
		DeleteCourses(ctx context.Context, ids ...string) error

		CreateMaterial(ctx context.Context, nm NewMaterial, up Upload, owner user.User) (Material, error)
		GetMaterial(ctx context.Context, id string) (Material, error)
		QueryMaterials(ctx context.Context, filter *MaterialFilter, ordering []core.DBOrdering) ([]Material, error)
		UpdateMaterial(ctx context.Context, id string, um UpdateMaterial) (Material, error)
		DeleteMaterials(ctx context.Context, ids ...string) error
		DownloadMaterial(ctx context.Context, id string) (Material, io.ReadCloser, int64, error)
	}

	service struct {
		repo  Repository
		files core.FileStore
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, files core.FileStore) Service {
	return &service{repo: repo, files: files}
}

func (svc *service) CreateCourse(ctx context.Context, nc NewCourse, teacher user.User) (Course, error) {
	crs := Course{
		Name:        nc.Name,
		Description: nc.Description,
		TeacherID:   teacher.ID,
		CreatedAt:   time.Now().UTC(),
	}
	return svc.repo.CreateCourse(ctx, crs)
}

func (svc *service) GetCourse(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourseByID(ctx, id)
}

func (svc *service) CourseExists(ctx context.Context, id string) error {
	_, err := svc.repo.GetCourseByID(ctx, id)
	return err
}

func (svc *service) QueryCourses(ctx context.Context, filter *CourseFilter, ordering []core.DBOrdering) ([]Course, error) {
	return svc.repo.QueryCourses(ctx, filter, ordering)
}

func (svc *service) UpdateCourse(ctx context.Context, id string, uc UpdateCourse) (Course, error) {
	return svc.repo.UpdateCourse(ctx, Course{ID: id, Name: uc.Name, Description: uc.Description})
}

func (svc *service) DeleteCourses(ctx context.Context, ids ...string) error {
	keys, err := svc.repo.ListMaterialFileKeys(ctx, ids...)
	if err != nil {
		return errors.Wrap(err, "listing material file keys")
	}
	if err = svc.repo.DeleteCoursesByID(ctx, ids...); err != nil {
		return err
	}
	for _, key := range keys {
		_ = svc.files.Delete(ctx, key) // best effort; rows are gone
	}
	return nil
}

func (svc *service) CreateMaterial(ctx context.Context, nm NewMaterial, up Upload, owner user.User) (Material, error) {
	if _, err := svc.repo.GetCourseByID(ctx, nm.CourseID); err != nil {
		return Material{}, err
	}

	key := fmt.Sprintf("materials/%s", uuid.New().String())
	if err := svc.files.Put(ctx, key, up.ContentType, up.Content, up.Size); err != nil {
		return Material{}, errors.Wrap(err, "storing material file")
	}

	mat := Material{
		Title:       nm.Title,
		Description: nm.Description,
		FileKey:     key,
		FileName:    up.Filename,
		ContentType: up.ContentType,
		UploadedAt:  time.Now().UTC(),
		CourseID:    nm.CourseID,
		OwnerID:     owner.ID,
	}
	mat, err := svc.repo.CreateMaterial(ctx, mat)
	if err != nil {
		_ = svc.files.Delete(ctx, key)
		return Material{}, err
	}
	return mat, nil
}

func (svc *service) GetMaterial(ctx context.Context, id string) (Material, error) {
	return svc.repo.GetMaterialByID(ctx, id)
}

func (svc *service) QueryMaterials(ctx context.Context, filter *MaterialFilter, ordering []core.DBOrdering) ([]Material, error) {
	return svc.repo.QueryMaterials(ctx, filter, ordering)
}

func (svc *service) UpdateMaterial(ctx context.Context, id string, um UpdateMaterial) (Material, error) {
	return svc.repo.UpdateMaterial(ctx, Material{ID: id, Title: um.Title, Description: um.Description})
}

func (svc *service) DeleteMaterials(ctx context.Context, ids ...string) error {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		mat, err := svc.repo.GetMaterialByID(ctx, id)
		if err != nil {
			return err
		}
		keys = append(keys, mat.FileKey)
	}
	if err := svc.repo.DeleteMaterialsByID(ctx, ids...); err != nil {
		return err
	}
	for _, key := range keys {
		_ = svc.files.Delete(ctx, key)
	}
	return nil
}

func (svc *service) DownloadMaterial(ctx context.Context, id string) (Material, io.ReadCloser, int64, error) {
	mat, err := svc.repo.GetMaterialByID(ctx, id)
	if err != nil {
		return Material{}, nil, 0, err
	}
	rc, size, err := svc.files.Get(ctx, mat.FileKey)
	if err != nil {
		return Material{}, nil, 0, errors.Wrap(err, "fetching material file")
	}
	return mat, rc, size, nil
}
