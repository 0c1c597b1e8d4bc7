package class

import (
	"context"
	"errors"
	"fmt"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/skip2/go-qrcode"

	"github.com/trezcool/lophoc/core"
	"github.com/trezcool/lophoc/core/schedule"
	"github.com/trezcool/lophoc/core/user"
)

var (
	// errors
	ErrNotFound      = errors.New("class not found")
	ErrNotOwner      = errors.New("class does not belong to this lecturer")
	ErrNoAccess      = errors.New("you are not a member of this class")
	ErrAlreadyMember = errors.New("student is already in the class")
	ErrClosed        = errors.New("class is closed")
	ErrFull          = errors.New("class is full")
	ErrInvalidRange  = errors.New("time_end must not be before time_start")
	ErrAccessDenied  = errors.New("access denied")
)

type (
	Repository interface {
		// CreateClass stores the class & its sessions.
		CreateClass(ctx context.Context, cls Class) (Class, error)
		GetClass(ctx context.Context, id string) (Class, error)
		// UpdateClass stores the class, replaces all its sessions and bumps its revision.
		UpdateClass(ctx context.Context, cls Class) (Class, error)
		DeleteClass(ctx context.Context, id string) error
		QueryClasses(ctx context.Context, filter QueryFilter) ([]Summary, error)
		// AddMember returns ErrAlreadyMember if the student is already enrolled,
		// or ErrFull if the class already has `capacity` members.
		AddMember(ctx context.Context, classID, studentID string, capacity int) error
		IsMember(ctx context.Context, classID, studentID string) (bool, error)
		ListMembers(ctx context.Context, classID string) ([]user.User, error)
	}

	Service struct {
		repo   Repository
		usrSvc *user.Service
		cache  core.Cache
		events core.EventPublisher
		conf   *core.Config
		logger core.Logger
	}
)

func NewService(
	repo Repository,
	usrSvc *user.Service,
	cache core.Cache,
	events core.EventPublisher,
	conf *core.Config,
	logger core.Logger,
) *Service {
	return &Service{
		repo:   repo,
		usrSvc: usrSvc,
		cache:  cache,
		events: events,
		conf:   conf,
		logger: logger,
	}
}

func (svc *Service) publish(ctx context.Context, ev core.Event) {
	if err := svc.events.Publish(ctx, ev); err != nil {
		svc.logger.Error(fmt.Sprintf("publishing %s: %v", ev.Type, err), err)
	}
}

func (svc *Service) Create(ctx context.Context, actor user.User, nc NewClass) (Class, error) {
	if !actor.Role.CanManageClasses() {
		return Class{}, core.NewPermissionError(ErrAccessDenied.Error())
	}
	if !actor.IsActive {
		return Class{}, core.NewPermissionError(user.ErrAccountInactive.Error())
	}

	now := time.Now().UTC()
	cls := Class{
		Name:        nc.Name,
		Description: nc.Description,
		MaxStudents: nc.MaxStudents,
		Type:        nc.Type,
		Semester:    nc.Semester,
		TimeStart:   nc.TimeStart,
		TimeEnd:     nc.TimeEnd,
		IsOpen:      true,
		LecturerID:  actor.ID,
		Sessions:    nc.Sessions,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if cls.Sessions == nil {
		cls.Sessions = []schedule.Session{}
	}
	cls, err := svc.repo.CreateClass(ctx, cls)
	if err != nil {
		return Class{}, pkgerrors.Wrap(err, "creating class")
	}

	svc.publish(ctx, core.NewEvent(core.EventClassCreated, cls, actor.ID))
	return cls, nil
}

// Get returns the class `id` (NotFoundError if it does not exist).
func (svc *Service) Get(ctx context.Context, id string) (Class, error) {
	cls, err := svc.repo.GetClass(ctx, id)
	if err != nil {
		if pkgerrors.Cause(err) == ErrNotFound {
			return Class{}, core.NewNotFoundError(ErrNotFound)
		}
		return Class{}, pkgerrors.Wrap(err, "finding class by ID")
	}
	return cls, nil
}

// RequireOwner returns the class `id` if actor is the lecturer teaching it.
func (svc *Service) RequireOwner(ctx context.Context, actor user.User, id string) (Class, error) {
	if !actor.Role.CanManageClasses() {
		return Class{}, core.NewPermissionError(ErrAccessDenied.Error())
	}
	cls, err := svc.Get(ctx, id)
	if err != nil {
		return Class{}, err
	}
	if !cls.IsOwner(actor) {
		return Class{}, core.NewPermissionError(ErrNotOwner.Error())
	}
	return cls, nil
}

// RequireAccess returns the class `id` if actor teaches or attends it.
func (svc *Service) RequireAccess(ctx context.Context, actor user.User, id string) (Class, error) {
	cls, err := svc.Get(ctx, id)
	if err != nil {
		return Class{}, err
	}
	if cls.IsOwner(actor) {
		return cls, nil
	}
	if actor.Role.CanEnroll() {
		ok, err := svc.repo.IsMember(ctx, id, actor.ID)
		if err != nil {
			return Class{}, pkgerrors.Wrap(err, "checking membership")
		}
		if ok {
			return cls, nil
		}
	}
	return Class{}, core.NewPermissionError(ErrNoAccess.Error())
}

// RequireMember returns the class `id` if actor is a student enrolled in it.
func (svc *Service) RequireMember(ctx context.Context, actor user.User, id string) (Class, error) {
	if !actor.Role.CanEnroll() {
		return Class{}, core.NewPermissionError(ErrAccessDenied.Error())
	}
	return svc.RequireAccess(ctx, actor, id)
}

func (svc *Service) IsMember(ctx context.Context, classID, studentID string) (bool, error) {
	return svc.repo.IsMember(ctx, classID, studentID)
}

func (svc *Service) Members(ctx context.Context, classID string) ([]user.User, error) {
	return svc.repo.ListMembers(ctx, classID)
}

// Query lists the classes taught (lecturer) or attended (student) by actor.
func (svc *Service) Query(ctx context.Context, actor user.User) ([]Summary, error) {
	var filter QueryFilter
	switch {
	case actor.Role.CanManageClasses():
		filter.LecturerID = actor.ID
	case actor.Role.CanEnroll():
		filter.StudentID = actor.ID
	default:
		return nil, core.NewPermissionError(user.ErrInvalidRole.Error())
	}
	if !actor.IsActive {
		return nil, core.NewPermissionError(user.ErrAccountInactive.Error())
	}
	return svc.repo.QueryClasses(ctx, filter)
}

func (svc *Service) Info(ctx context.Context, actor user.User, id string) (Info, error) {
	cls, err := svc.RequireAccess(ctx, actor, id)
	if err != nil {
		return Info{}, err
	}
	students, err := svc.repo.ListMembers(ctx, id)
	if err != nil {
		return Info{}, pkgerrors.Wrap(err, "listing members")
	}

	info := Info{Class: cls, Students: students, StudentCount: len(students), LecturerName: "Unknown"}
	if lecturer, err := svc.usrSvc.GetByID(ctx, cls.LecturerID); err == nil {
		info.LecturerName = lecturer.DisplayName()
	}
	return info, nil
}

func (svc *Service) Update(ctx context.Context, actor user.User, id string, uc UpdateClass) (Class, error) {
	cls, err := svc.RequireOwner(ctx, actor, id)
	if err != nil {
		return Class{}, err
	}
	uc.apply(&cls)
	if cls.TimeEnd.Before(cls.TimeStart.Time) {
		return Class{}, core.NewFieldError("time_end", ErrInvalidRange.Error())
	}
	cls.UpdatedAt = time.Now().UTC()

	updated, err := svc.repo.UpdateClass(ctx, cls)
	if err != nil {
		return Class{}, pkgerrors.Wrap(err, "updating class")
	}
	svc.cache.Delete(scheduleKey(cls))
	return updated, nil
}

func (svc *Service) Delete(ctx context.Context, actor user.User, id string) error {
	cls, err := svc.RequireOwner(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := svc.repo.DeleteClass(ctx, id); err != nil {
		return pkgerrors.Wrap(err, "deleting class")
	}
	svc.cache.Delete(scheduleKey(cls))
	return nil
}

// AddMember enrolls the student `studentID` in the class `classID`.
// A lecturer may add students to their own class; a student may only enroll themselves.
func (svc *Service) AddMember(ctx context.Context, actor user.User, classID, studentID string) error {
	if !actor.IsActive {
		return core.NewPermissionError(user.ErrAccountInactive.Error())
	}

	var (
		cls Class
		err error
	)
	switch {
	case actor.Role.CanManageClasses():
		cls, err = svc.RequireOwner(ctx, actor, classID)
	case actor.Role.CanEnroll():
		if actor.ID != studentID {
			return core.NewPermissionError(ErrAccessDenied.Error())
		}
		cls, err = svc.Get(ctx, classID)
	default:
		return core.NewPermissionError(ErrAccessDenied.Error())
	}
	if err != nil {
		return err
	}
	if !cls.IsOpen {
		return core.NewPermissionError(ErrClosed.Error())
	}

	if _, err = svc.usrSvc.GetStudent(ctx, studentID); err != nil {
		return err
	}

	members, err := svc.repo.ListMembers(ctx, classID)
	if err != nil {
		return pkgerrors.Wrap(err, "listing members")
	}
	for _, m := range members {
		if m.ID == studentID {
			return core.NewConflictError(ErrAlreadyMember)
		}
	}
	if len(members) >= cls.MaxStudents {
		return core.NewPermissionError(ErrFull.Error())
	}

	if err = svc.repo.AddMember(ctx, classID, studentID, cls.MaxStudents); err != nil {
		switch pkgerrors.Cause(err) {
		case ErrAlreadyMember:
			return core.NewConflictError(ErrAlreadyMember)
		case ErrFull:
			return core.NewPermissionError(ErrFull.Error())
		case ErrNotFound:
			return core.NewNotFoundError(ErrNotFound)
		}
		return pkgerrors.Wrap(err, "adding member")
	}

	svc.publish(ctx, core.NewEvent(
		core.EventClassMemberAdded,
		map[string]string{"class_id": cls.ID, "class_name": cls.Name, "student_id": studentID},
		studentID, cls.LecturerID,
	))
	return nil
}

func scheduleKey(cls Class) string {
	return fmt.Sprintf("schedule:%s:%d", cls.ID, cls.Revision)
}

// Schedule returns the calendar occurrences of the class sessions within its date range.
func (svc *Service) Schedule(ctx context.Context, actor user.User, id string) ([]schedule.Occurrence, error) {
	cls, err := svc.RequireAccess(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	key := scheduleKey(cls)
	if cached, ok := svc.cache.Get(key); ok {
		if occ, ok := cached.([]schedule.Occurrence); ok {
			return append([]schedule.Occurrence(nil), occ...), nil
		}
	}

	occ, err := schedule.Materialize(cls.Sessions, cls.TimeStart.Time, cls.TimeEnd.Time)
	if err != nil {
		return nil, core.NewValidationError(err, core.FieldError{Field: "day_of_week", Error: err.Error()})
	}
	svc.cache.Set(key, occ, svc.conf.Cache.DefaultExpiration)
	return append([]schedule.Occurrence(nil), occ...), nil
}

// JoinURL returns the frontend URL students follow to join the class.
func (svc *Service) JoinURL(cls Class) string {
	return fmt.Sprintf("%s/classes/%s/join", svc.conf.FrontendBaseURL, cls.ID)
}

// InviteQR returns a PNG QR code of the class join URL.
func (svc *Service) InviteQR(ctx context.Context, actor user.User, id string) ([]byte, error) {
	cls, err := svc.RequireOwner(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(svc.JoinURL(cls), qrcode.Medium, 256)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "encoding QR code")
	}
	return png, nil
}
