package assignment

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/lophoc/core"
)

// NoDueDate is the due date of assignments created without one.
var NoDueDate = core.NewDate(time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC))

type Assignment struct {
	ID          string    `json:"id" db:"id"`
	ClassID     string    `json:"class_id" db:"class_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	FileURL     string    `json:"file_url" db:"file_url"`
	DueDate     core.Date `json:"due_date" db:"due_date"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

type Submission struct {
	ID           string     `json:"id" db:"id"`
	AssignmentID string     `json:"assignment_id" db:"assignment_id"`
	StudentID    string     `json:"student_id" db:"student_id"`
	Text         string     `json:"text" db:"text"`
	FileURL      string     `json:"file_url" db:"file_url"`
	Grade        *float64   `json:"grade" db:"grade"`
	SubmittedAt  time.Time  `json:"submitted_at" db:"submitted_at"`
	GradedAt     *time.Time `json:"graded_at" db:"graded_at"`
}

// Info is the detailed view of an Assignment: lecturers get every submission, students their own.
type Info struct {
	Assignment
	Submissions []Submission `json:"submissions"`
}

type NewAssignment struct {
	Title       string    `json:"title" form:"title" validate:"required,notblank,max=255"`
	Description string    `json:"description" form:"description" validate:"omitempty,max=2000"`
	DueDate     core.Date `json:"due_date" form:"due_date"`
	FileURL     string    `json:"-" form:"-"` // set from the uploaded file
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	if err := validate.Struct(na); err != nil {
		return err
	}
	if na.Description == "" && na.FileURL == "" {
		return core.NewFieldError("description", ErrNoContent.Error())
	}
	return nil
}

type UpdateAssignment struct {
	Title       string    `json:"title" form:"title" validate:"omitempty,notblank,max=255"`
	Description *string   `json:"description" form:"description" validate:"omitempty,max=2000"`
	DueDate     core.Date `json:"due_date" form:"due_date"`
	FileURL     string    `json:"-" form:"-"`
}

func (ua *UpdateAssignment) Validate(validate *validator.Validate) error {
	ua.Title = core.CleanString(ua.Title)
	if ua.Description != nil {
		desc := core.CleanString(*ua.Description)
		ua.Description = &desc
	}
	return validate.Struct(ua)
}

func (ua UpdateAssignment) apply(a *Assignment) {
	if ua.Title != "" {
		a.Title = ua.Title
	}
	if ua.Description != nil {
		a.Description = *ua.Description
	}
	if !ua.DueDate.IsZero() {
		a.DueDate = ua.DueDate
	}
	if ua.FileURL != "" {
		a.FileURL = ua.FileURL
	}
}

type Submit struct {
	Text    string `json:"text" form:"text" validate:"omitempty,max=5000"`
	FileURL string `json:"-" form:"-"`
}

func (s *Submit) Validate(validate *validator.Validate) error {
	s.Text = core.CleanString(s.Text)
	if err := validate.Struct(s); err != nil {
		return err
	}
	if s.Text == "" && s.FileURL == "" {
		return core.NewFieldError("text", ErrNoSubmission.Error())
	}
	return nil
}

type Grade struct {
	SubmissionID string   `json:"submission_id" validate:"required,uuid"`
	Grade        *float64 `json:"grade" validate:"required,min=0,max=10"`
}

func (g *Grade) Validate(validate *validator.Validate) error {
	return validate.Struct(g)
}
