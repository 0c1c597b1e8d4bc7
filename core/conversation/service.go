package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/lophoc/core"
	"github.com/trezcool/lophoc/core/user"
)

var (
	// errors
	ErrNotFound        = errors.New("conversation not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrBlockedBy       = errors.New("you have been blocked by the receiver, cannot send messages")
	ErrBlocking        = errors.New("you have blocked the sender, cannot send messages")
	ErrSelfMessage     = errors.New("you cannot send a message to yourself")
	ErrNotSender       = errors.New("you can only change your own messages")

	// block toggle messages
	MsgBlocked   = "User blocked successfully"
	MsgUnblocked = "User unblocked successfully"
)

type (
	Repository interface {
		// FindConversation returns the conversation between two users, whoever started it.
		FindConversation(ctx context.Context, userA, userB string) (Conversation, error)
		CreateConversation(ctx context.Context, c Conversation) (Conversation, error)
		GetConversation(ctx context.Context, id string) (Conversation, error)
		UpdateConversation(ctx context.Context, c Conversation) (Conversation, error)
		// ListConversations returns a page of the conversations of a user, most recently active first.
		ListConversations(ctx context.Context, userID string, page core.Page) ([]Conversation, error)

		CreateMessage(ctx context.Context, m Message) (Message, error)
		GetMessage(ctx context.Context, id string) (Message, error)
		UpdateMessage(ctx context.Context, m Message) (Message, error)
		DeleteMessage(ctx context.Context, id string) error
		// ListMessages returns a page of the messages of a conversation, oldest first.
		ListMessages(ctx context.Context, conversationID string, page core.Page) ([]Message, error)
		// MarkRead marks as read the unread messages of a conversation not sent by readerID.
		MarkRead(ctx context.Context, conversationID, readerID string) (int, error)
	}

	Service struct {
		repo   Repository
		usrSvc *user.Service
		events core.EventPublisher
		logger core.Logger
	}
)

func NewService(repo Repository, usrSvc *user.Service, events core.EventPublisher, logger core.Logger) *Service {
	return &Service{repo: repo, usrSvc: usrSvc, events: events, logger: logger}
}

func (svc *Service) findOrCreate(ctx context.Context, senderID, receiverID string) (Conversation, error) {
	conv, err := svc.repo.FindConversation(ctx, senderID, receiverID)
	if err == nil {
		return conv, nil
	}
	if pkgerrors.Cause(err) != ErrNotFound {
		return Conversation{}, pkgerrors.Wrap(err, "finding conversation")
	}
	now := time.Now().UTC()
	return svc.repo.CreateConversation(ctx, Conversation{
		SenderID:   senderID,
		ReceiverID: receiverID,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

// Send delivers a message from actor, starting the conversation with the receiver if needed.
func (svc *Service) Send(ctx context.Context, actor user.User, s Send) (Message, error) {
	if s.ReceiverID == actor.ID {
		return Message{}, core.NewFieldError("receiver_id", ErrSelfMessage.Error())
	}
	receiver, err := svc.usrSvc.GetByID(ctx, s.ReceiverID)
	if err != nil {
		if pkgerrors.Cause(err) == user.ErrNotFound {
			return Message{}, core.NewNotFoundError(errors.New("receiver not found"))
		}
		return Message{}, pkgerrors.Wrap(err, "finding receiver")
	}
	if !receiver.IsActive {
		return Message{}, core.NewNotFoundError(errors.New("receiver not found"))
	}

	conv, err := svc.findOrCreate(ctx, actor.ID, receiver.ID)
	if err != nil {
		return Message{}, pkgerrors.Wrap(err, "starting conversation")
	}
	if conv.SenderID == actor.ID && conv.ReceiverBlocked {
		return Message{}, core.NewPermissionError(ErrBlockedBy.Error())
	}
	if conv.ReceiverID == actor.ID && conv.SenderBlocked {
		return Message{}, core.NewPermissionError(ErrBlocking.Error())
	}

	now := time.Now().UTC()
	msg, err := svc.repo.CreateMessage(ctx, Message{
		ConversationID: conv.ID,
		SenderID:       actor.ID,
		Content:        s.Message,
		FileURL:        s.FileURL,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return Message{}, pkgerrors.Wrap(err, "creating message")
	}
	conv.UpdatedAt = now
	if _, err = svc.repo.UpdateConversation(ctx, conv); err != nil {
		return Message{}, pkgerrors.Wrap(err, "updating conversation")
	}

	if err := svc.events.Publish(ctx, core.NewEvent(core.EventMessageSent, msg, receiver.ID)); err != nil {
		svc.logger.Error(fmt.Sprintf("publishing %s: %v", core.EventMessageSent, err), err)
	}
	return msg, nil
}

// participantConversation returns the conversation `id` if actor takes part in it.
func (svc *Service) participantConversation(ctx context.Context, actor user.User, id string) (Conversation, error) {
	conv, err := svc.repo.GetConversation(ctx, id)
	if err != nil {
		if pkgerrors.Cause(err) == ErrNotFound {
			return Conversation{}, core.NewNotFoundError(ErrNotFound)
		}
		return Conversation{}, pkgerrors.Wrap(err, "finding conversation by ID")
	}
	if !conv.HasParticipant(actor.ID) {
		return Conversation{}, core.NewNotFoundError(ErrNotFound)
	}
	return conv, nil
}

func (svc *Service) Conversations(ctx context.Context, actor user.User, page core.Page) ([]Conversation, error) {
	return svc.repo.ListConversations(ctx, actor.ID, page)
}

func (svc *Service) Messages(ctx context.Context, actor user.User, id string, page core.Page) ([]Message, error) {
	if _, err := svc.participantConversation(ctx, actor, id); err != nil {
		return nil, err
	}
	return svc.repo.ListMessages(ctx, id, page)
}

// MarkRead marks the messages actor received in the conversation `id` as read.
func (svc *Service) MarkRead(ctx context.Context, actor user.User, id string) (int, error) {
	if _, err := svc.participantConversation(ctx, actor, id); err != nil {
		return 0, err
	}
	return svc.repo.MarkRead(ctx, id, actor.ID)
}

func (svc *Service) ownMessage(ctx context.Context, actor user.User, id string) (Message, error) {
	msg, err := svc.repo.GetMessage(ctx, id)
	if err != nil {
		if pkgerrors.Cause(err) == ErrMessageNotFound {
			return Message{}, core.NewNotFoundError(ErrMessageNotFound)
		}
		return Message{}, pkgerrors.Wrap(err, "finding message by ID")
	}
	if msg.SenderID != actor.ID {
		return Message{}, core.NewPermissionError(ErrNotSender.Error())
	}
	return msg, nil
}

func (svc *Service) EditMessage(ctx context.Context, actor user.User, id string, e Edit) (Message, error) {
	msg, err := svc.ownMessage(ctx, actor, id)
	if err != nil {
		return Message{}, err
	}
	msg.Content = e.Message
	msg.IsEdited = true
	msg.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateMessage(ctx, msg)
}

func (svc *Service) DeleteMessage(ctx context.Context, actor user.User, id string) error {
	if _, err := svc.ownMessage(ctx, actor, id); err != nil {
		return err
	}
	return svc.repo.DeleteMessage(ctx, id)
}

// ToggleBlock flips the block flag of actor in the conversation `id`.
// It returns the new state with its report message.
func (svc *Service) ToggleBlock(ctx context.Context, actor user.User, id string) (bool, string, error) {
	conv, err := svc.participantConversation(ctx, actor, id)
	if err != nil {
		return false, "", err
	}

	var blocked bool
	if conv.SenderID == actor.ID {
		conv.SenderBlocked = !conv.SenderBlocked
		blocked = conv.SenderBlocked
	} else {
		conv.ReceiverBlocked = !conv.ReceiverBlocked
		blocked = conv.ReceiverBlocked
	}
	if _, err = svc.repo.UpdateConversation(ctx, conv); err != nil {
		return false, "", pkgerrors.Wrap(err, "updating conversation")
	}

	if blocked {
		return true, MsgBlocked, nil
	}
	return false, MsgUnblocked, nil
}
