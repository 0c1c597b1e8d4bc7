package attendance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/lophoc/core"
	"github.com/trezcool/lophoc/core/class"
	"github.com/trezcool/lophoc/core/user"
)

var (
	// errors
	ErrNotFound       = errors.New("attendance not found")
	ErrDateOutOfRange = errors.New("attendance date must be within the class schedule")
	ErrDateInPast     = errors.New("attendance date cannot be in the past")
	ErrAlreadyTaken   = errors.New("attendance has already been taken for this date")
	ErrNoRecord       = errors.New("no attendance record found for the specified date")
)

type (
	Repository interface {
		// CreateAttendance stores the attendance & its records.
		// It returns ErrAlreadyTaken if the class already has an attendance on that date.
		CreateAttendance(ctx context.Context, att Attendance) (Attendance, error)
		GetAttendance(ctx context.Context, id string) (Attendance, error)
		GetAttendanceByDate(ctx context.Context, classID string, date core.Date) (Attendance, error)
		StudentRecords(ctx context.Context, classID, studentID string) ([]Record, error)
		UpdateRecords(ctx context.Context, records []Record) error
	}

	Service struct {
		repo     Repository
		classSvc *class.Service
		nowFunc  func() time.Time // mockable
	}
)

func NewService(repo Repository, classSvc *class.Service) *Service {
	return &Service{repo: repo, classSvc: classSvc, nowFunc: time.Now}
}

func invalidIDsError(field string, ids []string) error {
	return core.NewFieldError(field, fmt.Sprintf("invalid student IDs: %s", strings.Join(ids, ", ")))
}

// Take records the attendance of the class `classID` on t.Date.
func (svc *Service) Take(ctx context.Context, actor user.User, classID string, t Take) (Attendance, error) {
	cls, err := svc.classSvc.RequireOwner(ctx, actor, classID)
	if err != nil {
		return Attendance{}, err
	}
	if !core.DateInRange(t.Date.Time, cls.TimeStart.Time, cls.TimeEnd.Time) {
		return Attendance{}, core.NewFieldError("date", ErrDateOutOfRange.Error())
	}
	if t.Date.Before(core.DateOnly(svc.nowFunc())) {
		return Attendance{}, core.NewFieldError("date", ErrDateInPast.Error())
	}

	members, err := svc.classSvc.Members(ctx, classID)
	if err != nil {
		return Attendance{}, pkgerrors.Wrap(err, "listing members")
	}
	memberIDs := make(map[string]bool, len(members))
	for _, m := range members {
		memberIDs[m.ID] = true
	}
	absent := make(map[string]bool, len(t.AbsentIDs))
	var invalid []string
	for _, id := range t.AbsentIDs {
		if !memberIDs[id] {
			invalid = append(invalid, id)
		}
		absent[id] = true
	}
	if len(invalid) > 0 {
		return Attendance{}, invalidIDsError("absent_student_ids", invalid)
	}

	att := Attendance{
		ClassID:   classID,
		Date:      t.Date,
		CreatedAt: time.Now().UTC(),
		Records:   make([]Record, 0, len(members)),
	}
	for _, m := range members {
		status := StatusPresent
		if absent[m.ID] {
			status = StatusAbsent
		}
		att.Records = append(att.Records, Record{StudentID: m.ID, Status: status, Date: t.Date})
	}

	att, err = svc.repo.CreateAttendance(ctx, att)
	if err != nil {
		if pkgerrors.Cause(err) == ErrAlreadyTaken {
			return Attendance{}, core.NewFieldError("date", ErrAlreadyTaken.Error())
		}
		return Attendance{}, pkgerrors.Wrap(err, "creating attendance")
	}
	return att, nil
}

// StudentRecords returns the attendance records of the enrolled student actor in class `classID`.
func (svc *Service) StudentRecords(ctx context.Context, actor user.User, classID string) ([]Record, error) {
	if _, err := svc.classSvc.RequireMember(ctx, actor, classID); err != nil {
		return nil, err
	}
	return svc.repo.StudentRecords(ctx, classID, actor.ID)
}

// SetStatus toggles present <-> absent for the listed students of the attendance `id`.
func (svc *Service) SetStatus(ctx context.Context, actor user.User, id string, ss SetStatus) (Attendance, error) {
	att, err := svc.repo.GetAttendance(ctx, id)
	if err != nil {
		if pkgerrors.Cause(err) == ErrNotFound {
			return Attendance{}, core.NewNotFoundError(ErrNotFound)
		}
		return Attendance{}, pkgerrors.Wrap(err, "finding attendance by ID")
	}
	if _, err = svc.classSvc.RequireOwner(ctx, actor, att.ClassID); err != nil {
		return Attendance{}, err
	}

	idx := make(map[string]int, len(att.Records))
	for i, r := range att.Records {
		idx[r.StudentID] = i
	}
	var invalid []string
	for _, sid := range ss.StudentIDs {
		if _, ok := idx[sid]; !ok {
			invalid = append(invalid, sid)
		}
	}
	if len(invalid) > 0 {
		return Attendance{}, invalidIDsError("student_ids", invalid)
	}

	toggled := make(map[string]bool, len(ss.StudentIDs))
	changed := make([]Record, 0, len(ss.StudentIDs))
	for _, sid := range ss.StudentIDs {
		if toggled[sid] {
			continue
		}
		toggled[sid] = true
		i := idx[sid]
		att.Records[i].Status = att.Records[i].Status.Toggle()
		changed = append(changed, att.Records[i])
	}
	if err = svc.repo.UpdateRecords(ctx, changed); err != nil {
		return Attendance{}, pkgerrors.Wrap(err, "updating attendance records")
	}
	return att, nil
}

// List returns the attendance of the class `classID` on a date.
func (svc *Service) List(ctx context.Context, actor user.User, classID string, filter ListFilter) (Attendance, error) {
	if _, err := svc.classSvc.RequireOwner(ctx, actor, classID); err != nil {
		return Attendance{}, err
	}
	if filter.Date.IsZero() {
		return Attendance{}, core.NewFieldError("date", "this field is required")
	}
	att, err := svc.repo.GetAttendanceByDate(ctx, classID, filter.Date)
	if err != nil {
		if pkgerrors.Cause(err) == ErrNotFound {
			return Attendance{}, core.NewNotFoundError(ErrNoRecord)
		}
		return Attendance{}, pkgerrors.Wrap(err, "finding attendance by date")
	}
	return att, nil
}
