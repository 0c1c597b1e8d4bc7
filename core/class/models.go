package class

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/lophoc/core"
	"github.com/trezcool/lophoc/core/schedule"
	"github.com/trezcool/lophoc/core/user"
)

// Type is the kind of teaching of a class: theory (LT), practice (BT) or both.
type Type string

// Types
const (
	TypeTheory   Type = "LT"
	TypePractice Type = "BT"
	TypeBoth     Type = "LT_BT"
)

func (t Type) Valid() bool {
	return t == TypeTheory || t == TypePractice || t == TypeBoth
}

// MaxStudentsLimit is the capacity ceiling of any class.
const MaxStudentsLimit = 125

type Class struct {
	ID          string             `json:"id" db:"id"`
	Name        string             `json:"name" db:"name"`
	Description string             `json:"description" db:"description"`
	MaxStudents int                `json:"max_students" db:"max_students"`
	Type        Type               `json:"type" db:"type"`
	Semester    string             `json:"semester" db:"semester"`
	TimeStart   core.Date          `json:"time_start" db:"time_start"`
	TimeEnd     core.Date          `json:"time_end" db:"time_end"`
	IsOpen      bool               `json:"is_open" db:"is_open"`
	LecturerID  string             `json:"lecturer_id" db:"lecturer_id"`
	Sessions    []schedule.Session `json:"schedule" db:"-"`
	Revision    int                `json:"-" db:"revision"` // bumped on every update
	CreatedAt   time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" db:"updated_at"`
}

// IsOwner reports whether usr is the lecturer teaching the class.
func (c Class) IsOwner(usr user.User) bool {
	return usr.Role.CanManageClasses() && c.LecturerID == usr.ID
}

// Summary is a Class as listed: with its lecturer's name & number of students.
type Summary struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	LecturerName string    `json:"lecturer_name" db:"lecturer_name"`
	StudentCount int       `json:"student_count" db:"student_count"`
	Type         Type      `json:"type" db:"type"`
	IsOpen       bool      `json:"is_open" db:"is_open"`
	TimeStart    core.Date `json:"time_start" db:"time_start"`
	TimeEnd      core.Date `json:"time_end" db:"time_end"`
}

// Info is the detailed view of a Class.
type Info struct {
	Class
	LecturerName string      `json:"lecturer_name"`
	StudentCount int         `json:"student_count"`
	Students     []user.User `json:"students"`
}

type NewClass struct {
	Name        string             `json:"name" validate:"required,notblank,max=50"`
	Description string             `json:"description" validate:"omitempty,max=255"`
	MaxStudents int                `json:"max_students" validate:"required,min=1,max=125"`
	Type        Type               `json:"type" validate:"required,classtype"`
	Semester    string             `json:"semester" validate:"omitempty,max=50"`
	TimeStart   core.Date          `json:"time_start"`
	TimeEnd     core.Date          `json:"time_end"`
	Sessions    []schedule.Session `json:"schedule" validate:"omitempty,dive"`
}

func (nc *NewClass) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Description = core.CleanString(nc.Description)
	nc.Semester = core.CleanString(nc.Semester)
	nc.Type = Type(strings.ToUpper(core.CleanString(string(nc.Type))))

	if err := validate.Struct(nc); err != nil {
		return err
	}
	return validateRange(nc.TimeStart, nc.TimeEnd)
}

// UpdateClass is a partial update: zero fields are left unchanged.
// A non-nil Sessions replaces the whole schedule.
type UpdateClass struct {
	Name        string              `json:"name" validate:"omitempty,notblank,max=50"`
	Description *string             `json:"description" validate:"omitempty,max=255"`
	MaxStudents int                 `json:"max_students" validate:"omitempty,min=1,max=125"`
	Type        Type                `json:"type" validate:"omitempty,classtype"`
	Semester    string              `json:"semester" validate:"omitempty,max=50"`
	TimeStart   core.Date           `json:"time_start"`
	TimeEnd     core.Date           `json:"time_end"`
	IsOpen      *bool               `json:"is_open"`
	Sessions    *[]schedule.Session `json:"schedule" validate:"omitempty,dive"`
}

func (uc *UpdateClass) Validate(validate *validator.Validate) error {
	uc.Name = core.CleanString(uc.Name)
	uc.Semester = core.CleanString(uc.Semester)
	uc.Type = Type(strings.ToUpper(core.CleanString(string(uc.Type))))
	if uc.Description != nil {
		desc := core.CleanString(*uc.Description)
		uc.Description = &desc
	}
	return validate.Struct(uc)
}

// apply merges the update into c.
func (uc UpdateClass) apply(c *Class) {
	if uc.Name != "" {
		c.Name = uc.Name
	}
	if uc.Description != nil {
		c.Description = *uc.Description
	}
	if uc.MaxStudents > 0 {
		c.MaxStudents = uc.MaxStudents
	}
	if uc.Type != "" {
		c.Type = uc.Type
	}
	if uc.Semester != "" {
		c.Semester = uc.Semester
	}
	if !uc.TimeStart.IsZero() {
		c.TimeStart = uc.TimeStart
	}
	if !uc.TimeEnd.IsZero() {
		c.TimeEnd = uc.TimeEnd
	}
	if uc.IsOpen != nil {
		c.IsOpen = *uc.IsOpen
	}
	if uc.Sessions != nil {
		c.Sessions = *uc.Sessions
	}
}

func validateRange(start, end core.Date) error {
	var flds []core.FieldError
	if start.IsZero() {
		flds = append(flds, core.FieldError{Field: "time_start", Error: "this field is required"})
	}
	if end.IsZero() {
		flds = append(flds, core.FieldError{Field: "time_end", Error: "this field is required"})
	}
	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}
	if end.Before(start.Time) {
		return core.NewFieldError("time_end", ErrInvalidRange.Error())
	}
	return nil
}

// AddMember enrolls a student in a class.
type AddMember struct {
	StudentID string `json:"student_id" validate:"required,uuid"`
}

func (am *AddMember) Validate(validate *validator.Validate) error {
	am.StudentID = core.CleanString(am.StudentID, true /* lower */)
	return validate.Struct(am)
}

// QueryFilter selects classes taught by LecturerID or attended by StudentID.
type QueryFilter struct {
	LecturerID string
	StudentID  string
}
