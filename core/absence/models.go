package absence

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/lophoc/core"
)

type Status string

// Statuses
const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// Request is a student's leave request for a class date.
type Request struct {
	ID         string     `json:"id" db:"id"`
	ClassID    string     `json:"class_id" db:"class_id"`
	StudentID  string     `json:"student_id" db:"student_id"`
	Date       core.Date  `json:"date" db:"date"`
	Reason     string     `json:"reason" db:"reason"`
	ProofURL   string     `json:"proof_url" db:"proof_url"`
	Status     Status     `json:"status" db:"status"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	ReviewedAt *time.Time `json:"reviewed_at" db:"reviewed_at"`
}

type NewRequest struct {
	Date     core.Date `json:"date" form:"date"`
	Reason   string    `json:"reason" form:"reason" validate:"required,notblank,max=500"`
	ProofURL string    `json:"-" form:"-"` // set from the uploaded file
}

func (nr *NewRequest) Validate(validate *validator.Validate) error {
	nr.Reason = core.CleanString(nr.Reason)
	if nr.Date.IsZero() {
		return core.NewFieldError("date", "this field is required")
	}
	return validate.Struct(nr)
}

type Review struct {
	Status Status `json:"status" validate:"required,oneof=APPROVED REJECTED"`
}

func (r *Review) Validate(validate *validator.Validate) error {
	r.Status = Status(strings.ToUpper(core.CleanString(string(r.Status))))
	return validate.Struct(r)
}

type QueryFilter struct {
	Status Status    `query:"status"`
	Date   core.Date `query:"date"`
}

func (qf *QueryFilter) Clean() error {
	qf.Status = Status(strings.ToUpper(core.CleanString(string(qf.Status))))
	if qf.Status != "" && !qf.Status.Valid() {
		return core.NewFieldError("status", "invalid status")
	}
	return nil
}
