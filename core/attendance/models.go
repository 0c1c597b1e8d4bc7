package attendance

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/lophoc/core"
)

// Status of a student on an attendance day.
type Status string

// Statuses
const (
	StatusPresent Status = "CO_MAT"
	StatusAbsent  Status = "VANG_MAT"
)

// Toggle flips present <-> absent.
func (s Status) Toggle() Status {
	if s == StatusPresent {
		return StatusAbsent
	}
	return StatusPresent
}

// Attendance is the roll call of a class on a date.
type Attendance struct {
	ID        string    `json:"id" db:"id"`
	ClassID   string    `json:"class_id" db:"class_id"`
	Date      core.Date `json:"date" db:"date"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	Records   []Record  `json:"records" db:"-"`
}

// Record is the status of one student in an Attendance.
type Record struct {
	AttendanceID string    `json:"attendance_id" db:"attendance_id"`
	StudentID    string    `json:"student_id" db:"student_id"`
	Status       Status    `json:"status" db:"status"`
	Date         core.Date `json:"date" db:"date"`
}

// Take lists the absent students of a class on a date; every other member is present.
type Take struct {
	Date      core.Date `json:"date"`
	AbsentIDs []string  `json:"absent_student_ids" validate:"omitempty,dive,uuid"`
}

func (t *Take) Validate(validate *validator.Validate) error {
	if t.Date.IsZero() {
		return core.NewFieldError("date", "this field is required")
	}
	return validate.Struct(t)
}

// SetStatus toggles the status of the listed students of an attendance.
type SetStatus struct {
	StudentIDs []string `json:"student_ids" validate:"required,min=1,dive,uuid"`
}

func (ss *SetStatus) Validate(validate *validator.Validate) error {
	return validate.Struct(ss)
}

// ListFilter selects the attendance of a class on a date.
type ListFilter struct {
	Date core.Date `query:"date"`
}
