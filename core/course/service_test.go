package course_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhaescola/backend/core"
	"github.com/minhaescola/backend/core/course"
	"github.com/minhaescola/backend/core/user"
	filesvc "github.com/minhaescola/backend/services/filestore"
	inmemdb "github.com/minhaescola/backend/storage/database/inmem"
	testutil "github.com/minhaescola/backend/tests"
)

func setup(t *testing.T) (course.Service, user.Repository, core.FileStore) {
	t.Helper()
	db := inmemdb.Open()
	files := filesvc.NewMemoryStore()
	return course.NewService(inmemdb.NewCourseRepository(db), files), inmemdb.NewUserRepository(db), files
}

func TestService_CourseCRUD(t *testing.T) {
	ctx := context.Background()
	svc, usrRepo, _ := setup(t)

	prof := testutil.CreateUser(t, usrRepo, "Prof", "prof", "prof@escola.cd", "mdr", []string{user.RoleTeacher}, true)

	crs, err := svc.CreateCourse(ctx, course.NewCourse{Name: "Geo", Description: "Mapas"}, prof)
	require.NoError(t, err)
	assert.NotEmpty(t, crs.ID)
	assert.Equal(t, prof.ID, crs.Teacher.ID)

	got, err := svc.GetCourse(ctx, crs.ID)
	require.NoError(t, err)
	assert.Equal(t, "Geo", got.Name)
	require.NoError(t, svc.CourseExists(ctx, crs.ID))
	assert.Equal(t, course.ErrCourseNotFound, svc.CourseExists(ctx, "lol"))

	crs, err = svc.UpdateCourse(ctx, crs.ID, course.UpdateCourse{Name: "Geografia"})
	require.NoError(t, err)
	assert.Equal(t, "Geografia", crs.Name)
	assert.Equal(t, "Mapas", crs.Description) // untouched fields survive

	_, err = svc.UpdateCourse(ctx, "lol", course.UpdateCourse{Name: "x"})
	assert.Equal(t, course.ErrCourseNotFound, err)

	require.NoError(t, svc.DeleteCourses(ctx, crs.ID))
	_, err = svc.GetCourse(ctx, crs.ID)
	assert.Equal(t, course.ErrCourseNotFound, err)
}

func TestService_QueryCourses(t *testing.T) {
	ctx := context.Background()
	svc, usrRepo, _ := setup(t)

	prof1 := testutil.CreateUser(t, usrRepo, "P1", "prof1", "p1@escola.cd", "mdr", []string{user.RoleTeacher}, true)
	prof2 := testutil.CreateUser(t, usrRepo, "P2", "prof2", "p2@escola.cd", "mdr", []string{user.RoleTeacher}, true)

	_, err := svc.CreateCourse(ctx, course.NewCourse{Name: "A"}, prof1)
	require.NoError(t, err)
	_, err = svc.CreateCourse(ctx, course.NewCourse{Name: "B"}, prof1)
	require.NoError(t, err)
	_, err = svc.CreateCourse(ctx, course.NewCourse{Name: "C"}, prof2)
	require.NoError(t, err)

	all, err := svc.QueryCourses(ctx, nil, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := svc.QueryCourses(ctx, &course.CourseFilter{TeacherID: prof1.ID}, nil)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestService_Materials(t *testing.T) {
	ctx := context.Background()
	svc, usrRepo, files := setup(t)

	prof := testutil.CreateUser(t, usrRepo, "Prof", "prof", "prof@escola.cd", "mdr", []string{user.RoleTeacher}, true)
	crs, err := svc.CreateCourse(ctx, course.NewCourse{Name: "Geo"}, prof)
	require.NoError(t, err)

	content := []byte("%PDF-1.4 fake but binary enough \x00\x01")
	upload := course.Upload{
		Filename:    "mapas.pdf",
		ContentType: "application/pdf",
		Size:        int64(len(content)),
		Content:     bytes.NewReader(content),
	}

	t.Run("unknown course", func(t *testing.T) {
		_, err := svc.CreateMaterial(ctx, course.NewMaterial{Title: "x", CourseID: "lol"}, upload, prof)
		assert.Equal(t, course.ErrCourseNotFound, err)
	})

	mat, err := svc.CreateMaterial(ctx, course.NewMaterial{Title: "Mapas", CourseID: crs.ID}, upload, prof)
	require.NoError(t, err)
	assert.NotEmpty(t, mat.FileKey)
	assert.Equal(t, "mapas.pdf", mat.FileName)
	assert.Equal(t, prof.ID, mat.Owner.ID)

	t.Run("download returns the stored bytes", func(t *testing.T) {
		got, rc, size, err := svc.DownloadMaterial(ctx, mat.ID)
		require.NoError(t, err)
		defer func() { _ = rc.Close() }()

		assert.Equal(t, mat.ID, got.ID)
		assert.Equal(t, int64(len(content)), size)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, content, data)
	})

	t.Run("update merges metadata", func(t *testing.T) {
		updated, err := svc.UpdateMaterial(ctx, mat.ID, course.UpdateMaterial{Title: "Mapas 2"})
		require.NoError(t, err)
		assert.Equal(t, "Mapas 2", updated.Title)
		assert.Equal(t, mat.FileKey, updated.FileKey)
	})

	t.Run("delete removes the stored file", func(t *testing.T) {
		require.NoError(t, svc.DeleteMaterials(ctx, mat.ID))
		_, err := svc.GetMaterial(ctx, mat.ID)
		assert.Equal(t, course.ErrMaterialNotFound, err)
		_, _, err = files.Get(ctx, mat.FileKey)
		assert.Error(t, err)
	})
}

func TestService_DeleteCourses_cleansUpFiles(t *testing.T) {
	ctx := context.Background()
	svc, usrRepo, files := setup(t)

	prof := testutil.CreateUser(t, usrRepo, "Prof", "prof", "prof@escola.cd", "mdr", []string{user.RoleTeacher}, true)
	crs, err := svc.CreateCourse(ctx, course.NewCourse{Name: "Geo"}, prof)
	require.NoError(t, err)

	mat, err := svc.CreateMaterial(ctx, course.NewMaterial{Title: "Mapas", CourseID: crs.ID}, course.Upload{
		Filename:    "mapas.txt",
		ContentType: "text/plain",
		Size:        5,
		Content:     strings.NewReader("mapas"),
	}, prof)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteCourses(ctx, crs.ID))
	_, err = svc.GetMaterial(ctx, mat.ID)
	assert.Equal(t, course.ErrMaterialNotFound, err)
	_, _, err = files.Get(ctx, mat.FileKey)
	assert.Error(t, err)
}
