package absence

import (
	"context"
	"errors"
	"fmt"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/lophoc/core"
	"github.com/trezcool/lophoc/core/class"
	"github.com/trezcool/lophoc/core/notification"
	"github.com/trezcool/lophoc/core/user"
)

var (
	// errors
	ErrNotFound       = errors.New("absence request not found")
	ErrDateOutOfRange = errors.New("absence date is outside the class start and end dates")
	ErrAlreadyChecked = errors.New("absence request has already been reviewed")
)

type (
	Repository interface {
		CreateRequest(ctx context.Context, req Request) (Request, error)
		GetRequest(ctx context.Context, id string) (Request, error)
		// ReviewRequest stores the status and review time of a request that is still PENDING.
		// It returns ErrAlreadyChecked if the request was reviewed in the meantime.
		ReviewRequest(ctx context.Context, req Request) (Request, error)
		// QueryRequests returns the requests of a class by date.
		QueryRequests(ctx context.Context, classID string, filter QueryFilter) ([]Request, error)
	}

	Service struct {
		repo     Repository
		classSvc *class.Service
		notifSvc *notification.Service
		events   core.EventPublisher
		logger   core.Logger
	}
)

func NewService(
	repo Repository,
	classSvc *class.Service,
	notifSvc *notification.Service,
	events core.EventPublisher,
	logger core.Logger,
) *Service {
	return &Service{repo: repo, classSvc: classSvc, notifSvc: notifSvc, events: events, logger: logger}
}

// Request files a leave request of the enrolled student actor.
func (svc *Service) Request(ctx context.Context, actor user.User, classID string, nr NewRequest) (Request, error) {
	cls, err := svc.classSvc.RequireMember(ctx, actor, classID)
	if err != nil {
		return Request{}, err
	}
	if !core.DateInRange(nr.Date.Time, cls.TimeStart.Time, cls.TimeEnd.Time) {
		return Request{}, core.NewFieldError("date", ErrDateOutOfRange.Error())
	}

	req, err := svc.repo.CreateRequest(ctx, Request{
		ClassID:   classID,
		StudentID: actor.ID,
		Date:      nr.Date,
		Reason:    nr.Reason,
		ProofURL:  nr.ProofURL,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return Request{}, pkgerrors.Wrap(err, "creating absence request")
	}

	_, err = svc.notifSvc.Notify(ctx, notification.Notification{
		SenderID:   actor.ID,
		ReceiverID: cls.LecturerID,
		Type:       notification.TypeAbsence,
		Message:    fmt.Sprintf("%s: %s", actor.DisplayName(), req.Date),
		RelatedID:  req.ID,
	})
	if err != nil {
		svc.logger.Error(fmt.Sprintf("notifying absence request: %v", err), err)
	}
	return req, nil
}

// Review approves or rejects a pending request of a class taught by actor.
func (svc *Service) Review(ctx context.Context, actor user.User, id string, r Review) (Request, error) {
	req, err := svc.repo.GetRequest(ctx, id)
	if err != nil {
		if pkgerrors.Cause(err) == ErrNotFound {
			return Request{}, core.NewNotFoundError(ErrNotFound)
		}
		return Request{}, pkgerrors.Wrap(err, "finding absence request by ID")
	}
	if _, err = svc.classSvc.RequireOwner(ctx, actor, req.ClassID); err != nil {
		return Request{}, err
	}
	if req.Status != StatusPending {
		return Request{}, core.NewConflictError(ErrAlreadyChecked)
	}

	now := time.Now().UTC()
	req.Status = r.Status
	req.ReviewedAt = &now
	if req, err = svc.repo.ReviewRequest(ctx, req); err != nil {
		if pkgerrors.Cause(err) == ErrAlreadyChecked {
			return Request{}, core.NewConflictError(ErrAlreadyChecked)
		}
		return Request{}, pkgerrors.Wrap(err, "reviewing absence request")
	}

	if err := svc.events.Publish(ctx, core.NewEvent(core.EventAbsenceReviewed, req, req.StudentID)); err != nil {
		svc.logger.Error(fmt.Sprintf("publishing %s: %v", core.EventAbsenceReviewed, err), err)
	}

	typ, verb := notification.TypeAbsenceAccepted, "approved"
	if req.Status == StatusRejected {
		typ, verb = notification.TypeAbsenceRejected, "rejected"
	}
	_, err = svc.notifSvc.Notify(ctx, notification.Notification{
		SenderID:   actor.ID,
		ReceiverID: req.StudentID,
		Type:       typ,
		Message:    fmt.Sprintf("Absence request for %s %s", req.Date, verb),
		RelatedID:  req.ID,
	})
	if err != nil {
		svc.logger.Error(fmt.Sprintf("notifying absence review: %v", err), err)
	}
	return req, nil
}

// List returns the requests of a class taught by actor. It may be empty.
func (svc *Service) List(ctx context.Context, actor user.User, classID string, filter QueryFilter) ([]Request, error) {
	if _, err := svc.classSvc.RequireOwner(ctx, actor, classID); err != nil {
		return nil, err
	}
	if err := filter.Clean(); err != nil {
		return nil, err
	}
	return svc.repo.QueryRequests(ctx, classID, filter)
}
