package material

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/lophoc/core"
)

type Type string

// Types
const (
	TypeLecture    Type = "BAI_GIANG"
	TypeReading    Type = "BAI_DOC_THEM"
	TypeVideoGuide Type = "VIDEO_HUONG_DAN"
)

type Material struct {
	ID          string    `json:"id" db:"id"`
	ClassID     string    `json:"class_id" db:"class_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Type        Type      `json:"type" db:"type"`
	FileURL     string    `json:"file_url" db:"file_url"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

type NewMaterial struct {
	Title       string `json:"title" form:"title" validate:"required,notblank,max=25"`
	Description string `json:"description" form:"description" validate:"omitempty,max=100"`
	Type        Type   `json:"type" form:"type" validate:"required,oneof=BAI_GIANG BAI_DOC_THEM VIDEO_HUONG_DAN"`
	FileURL     string `json:"-" form:"-"` // set from the uploaded file
}

func (nm *NewMaterial) Validate(validate *validator.Validate) error {
	nm.Title = core.CleanString(nm.Title)
	nm.Description = core.CleanString(nm.Description)
	nm.Type = Type(strings.ToUpper(core.CleanString(string(nm.Type))))
	if err := validate.Struct(nm); err != nil {
		return err
	}
	if nm.FileURL == "" {
		return core.NewFieldError("file", ErrFileRequired.Error())
	}
	return nil
}

type UpdateMaterial struct {
	Title       string  `json:"title" form:"title" validate:"omitempty,notblank,max=25"`
	Description *string `json:"description" form:"description" validate:"omitempty,max=100"`
	Type        Type    `json:"type" form:"type" validate:"omitempty,oneof=BAI_GIANG BAI_DOC_THEM VIDEO_HUONG_DAN"`
	FileURL     string  `json:"-" form:"-"`
}

func (um *UpdateMaterial) Validate(validate *validator.Validate) error {
	um.Title = core.CleanString(um.Title)
	um.Type = Type(strings.ToUpper(core.CleanString(string(um.Type))))
	if um.Description != nil {
		desc := core.CleanString(*um.Description)
		um.Description = &desc
	}
	return validate.Struct(um)
}

func (um UpdateMaterial) apply(m *Material) {
	if um.Title != "" {
		m.Title = um.Title
	}
	if um.Description != nil {
		m.Description = *um.Description
	}
	if um.Type != "" {
		m.Type = um.Type
	}
	if um.FileURL != "" {
		m.FileURL = um.FileURL
	}
}
