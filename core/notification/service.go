package notification

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
	ErrNotFound    = errors.New("notification not found")
	ErrNotReceiver = errors.New("notification does not belong to you")
)

type (
	Repository interface {
		CreateNotification(ctx context.Context, n Notification) (Notification, error)
		// ListNotifications returns a page of the notifications received by a user, oldest first.
		ListNotifications(ctx context.Context, receiverID string, page core.Page) ([]Notification, error)
		GetNotifications(ctx context.Context, ids []string) ([]Notification, error)
		MarkRead(ctx context.Context, ids []string) error
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

// Notify stores a notification and pushes it to its receiver.
func (svc *Service) Notify(ctx context.Context, n Notification) (Notification, error) {
	n.IsRead = false
	n.CreatedAt = time.Now().UTC()
	n, err := svc.repo.CreateNotification(ctx, n)
	if err != nil {
		return Notification{}, pkgerrors.Wrap(err, "creating notification")
	}
	if err := svc.events.Publish(ctx, core.NewEvent(core.EventNotificationCreated, n, n.ReceiverID)); err != nil {
		svc.logger.Error(fmt.Sprintf("publishing notification: %v", err), err)
	}
	return n, nil
}

// Send lets a lecturer notify a student.
func (svc *Service) Send(ctx context.Context, actor user.User, s Send) (Notification, error) {
	if !actor.Role.CanNotify() {
		return Notification{}, core.NewPermissionError("only lecturers can send notifications")
	}
	if _, err := svc.usrSvc.GetStudent(ctx, s.ReceiverID); err != nil {
		return Notification{}, err
	}
	return svc.Notify(ctx, Notification{
		SenderID:   actor.ID,
		ReceiverID: s.ReceiverID,
		Type:       s.Type,
		Message:    s.Message,
		RelatedID:  s.RelatedID,
	})
}

func (svc *Service) List(ctx context.Context, actor user.User, page core.Page) ([]Notification, error) {
	return svc.repo.ListNotifications(ctx, actor.ID, page)
}

// MarkRead marks the notifications `ids` of actor as read.
// Every notification must exist and have been received by actor: nothing is marked otherwise.
func (svc *Service) MarkRead(ctx context.Context, actor user.User, mr MarkRead) error {
	found, err := svc.repo.GetNotifications(ctx, mr.IDs)
	if err != nil {
		return pkgerrors.Wrap(err, "finding notifications")
	}
	byID := make(map[string]Notification, len(found))
	for _, n := range found {
		byID[n.ID] = n
	}
	for _, id := range mr.IDs {
		n, ok := byID[id]
		if !ok {
			return core.NewNotFoundError(fmt.Errorf("%w: %s", ErrNotFound, id))
		}
		if n.ReceiverID != actor.ID {
			return core.NewPermissionError(ErrNotReceiver.Error())
		}
	}
	return svc.repo.MarkRead(ctx, mr.IDs)
}
