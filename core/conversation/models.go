package conversation

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/lophoc/core"
)

// Conversation is a private thread between the user who started it (Sender) and the Receiver.
// Each party may block the other: SenderBlocked is set by the sender, ReceiverBlocked by the receiver.
type Conversation struct {
	ID              string    `json:"id" db:"id"`
	SenderID        string    `json:"sender_id" db:"sender_id"`
	ReceiverID      string    `json:"receiver_id" db:"receiver_id"`
	SenderBlocked   bool      `json:"sender_blocked" db:"sender_blocked"`
	ReceiverBlocked bool      `json:"receiver_blocked" db:"receiver_blocked"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// HasParticipant reports whether userID is one of the two parties.
func (c Conversation) HasParticipant(userID string) bool {
	return c.SenderID == userID || c.ReceiverID == userID
}

// Other returns the ID of the party that is not userID.
func (c Conversation) Other(userID string) string {
	if c.SenderID == userID {
		return c.ReceiverID
	}
	return c.SenderID
}

type Message struct {
	ID             string    `json:"id" db:"id"`
	ConversationID string    `json:"conversation_id" db:"conversation_id"`
	SenderID       string    `json:"sender_id" db:"sender_id"`
	Content        string    `json:"content" db:"content"`
	FileURL        string    `json:"file_url" db:"file_url"`
	IsRead         bool      `json:"is_read" db:"is_read"`
	IsEdited       bool      `json:"is_edited" db:"is_edited"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

type Send struct {
	ReceiverID string `json:"receiver_id" form:"receiver_id" validate:"required,uuid"`
	Message    string `json:"message" form:"message" validate:"omitempty,max=2000"`
	FileURL    string `json:"-" form:"-"` // set from the uploaded file
}

func (s *Send) Validate(validate *validator.Validate) error {
	s.ReceiverID = core.CleanString(s.ReceiverID, true /* lower */)
	s.Message = core.CleanString(s.Message)
	if err := validate.Struct(s); err != nil {
		return err
	}
	if s.Message == "" && s.FileURL == "" {
		return core.NewFieldError("message", "this field is required")
	}
	return nil
}

type Edit struct {
	Message string `json:"message" validate:"required,notblank,max=2000"`
}

func (e *Edit) Validate(validate *validator.Validate) error {
	e.Message = core.CleanString(e.Message)
	return validate.Struct(e)
}
