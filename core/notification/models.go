package notification

import (
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/lophoc/core"
)

type Type string

// Types
const (
	TypeAbsence         Type = "ABSENCE"
	TypeAbsenceAccepted Type = "ACCEPT_ABSENCE_REQUEST"
	TypeAbsenceRejected Type = "REJECT_ABSENCE_REQUEST"
	TypeAssignmentGrade Type = "ASSIGNMENT_GRADE"
	TypeGeneral         Type = "GENERAL"
)

func (t Type) Valid() bool {
	switch t {
	case TypeAbsence, TypeAbsenceAccepted, TypeAbsenceRejected, TypeAssignmentGrade, TypeGeneral:
		return true
	}
	return false
}

type Notification struct {
	ID         string    `json:"id" db:"id"`
	SenderID   string    `json:"sender_id" db:"sender_id"`
	ReceiverID string    `json:"receiver_id" db:"receiver_id"`
	Type       Type      `json:"type" db:"type"`
	Message    string    `json:"message" db:"message"`
	RelatedID  string    `json:"related_id" db:"related_id"`
	IsRead     bool      `json:"is_read" db:"is_read"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

type Send struct {
	ReceiverID string `json:"receiver_id" validate:"required,uuid"`
	Type       Type   `json:"type" validate:"required,notiftype"`
	Message    string `json:"message" validate:"required,notblank,max=100"`
	RelatedID  string `json:"related_id" validate:"omitempty,max=64"`
}

func (s *Send) Validate(validate *validator.Validate) error {
	s.ReceiverID = core.CleanString(s.ReceiverID, true /* lower */)
	s.Type = Type(strings.ToUpper(core.CleanString(string(s.Type))))
	s.Message = core.CleanString(s.Message)
	return validate.Struct(s)
}

type MarkRead struct {
	IDs []string `json:"notification_ids" validate:"required,min=1,dive,uuid"`
}

func (mr *MarkRead) Validate(validate *validator.Validate) error {
	return validate.Struct(mr)
}

var (
	notifTypeTag  = "notiftype"
	notifTypeText = "invalid notification type"
)

// InitValidators registers the notification validators & their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(notifTypeTag, func(fl validator.FieldLevel) bool {
		if t, ok := fl.Field().Interface().(Type); ok {
			return t.Valid()
		}
		return false
	})
	core.RegisterCustomTranslation(validate, translator, notifTypeTag, notifTypeText)
}
