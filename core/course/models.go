package course

import (
	"io"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/minhaescola/backend/core"
	"github.com/minhaescola/backend/core/user"
)

type Course struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	TeacherID   string      `json:"-"`
	Teacher     user.Public `json:"teacher"`
	CreatedAt   time.Time   `json:"created_at"` // UTC
}

type Material struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	FileKey     string      `json:"-"`
	FileName    string      `json:"file_name"`
	ContentType string      `json:"content_type"`
	File        string      `json:"file"` // download path; set by the API layer
	UploadedAt  time.Time   `json:"uploaded_at"` // UTC
	CourseID    string      `json:"course"`
	OwnerID     string      `json:"-"`
	Owner       user.Public `json:"owner"`
}

// NewCourse contains information needed to create a new Course.
// The owning teacher is always the authenticated caller.
type NewCourse struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Description = core.CleanString(nc.Description)
	return validate.Struct(nc)
}

type UpdateCourse struct {
	Name        string `json:"name" validate:"omitempty,max=100"`
	Description string `json:"description"`
}

func (uc *UpdateCourse) Validate(orig Course, validate *validator.Validate) error {
	if name := core.CleanString(uc.Name); name != "" {
		uc.Name = name
	} else {
		uc.Name = orig.Name
	}
	if desc := core.CleanString(uc.Description); desc != "" {
		uc.Description = desc
	} else {
		uc.Description = orig.Description
	}
	return validate.Struct(uc)
}

// NewMaterial contains the metadata of a new Material; the attachment
// itself arrives out-of-band as a multipart file part.
type NewMaterial struct {
	Title       string `json:"title" form:"title" validate:"required,max=200"`
	Description string `json:"description" form:"description"`
	CourseID    string `json:"course" form:"course" validate:"required"`
}

func (nm *NewMaterial) Validate(validate *validator.Validate) error {
	nm.Title = core.CleanString(nm.Title)
	nm.Description = core.CleanString(nm.Description)
	nm.CourseID = core.CleanString(nm.CourseID)
	return validate.Struct(nm)
}

type UpdateMaterial struct {
	Title       string `json:"title" form:"title" validate:"omitempty,max=200"`
	Description string `json:"description" form:"description"`
}

func (um *UpdateMaterial) Validate(orig Material, validate *validator.Validate) error {
	if title := core.CleanString(um.Title); title != "" {
		um.Title = title
	} else {
		um.Title = orig.Title
	}
	if desc := core.CleanString(um.Description); desc != "" {
		um.Description = desc
	} else {
		um.Description = orig.Description
	}
	return validate.Struct(um)
}

// Upload is an attachment streamed in by the caller.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

type CourseFilter struct {
	TeacherID string `query:"teacher"`
}

func (f *CourseFilter) IsEmpty() bool { return f.TeacherID == "" }

type MaterialFilter struct {
	CourseID string `query:"course"`
}

func (f *MaterialFilter) IsEmpty() bool { return f.CourseID == "" }
