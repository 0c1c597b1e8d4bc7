package assignment

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
	ErrNotFound           = errors.New("assignment not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrNoContent          = errors.New("a description or a file is required")
	ErrNoSubmission       = errors.New("no file or text provided")
)

type (
	Repository interface {
		CreateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		GetAssignment(ctx context.Context, id string) (Assignment, error)
		UpdateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		DeleteAssignment(ctx context.Context, id string) error
		// ListAssignments returns the assignments of a class by due date.
		ListAssignments(ctx context.Context, classID string) ([]Assignment, error)

		// UpsertSubmission creates the submission of a student, or replaces the existing one.
		UpsertSubmission(ctx context.Context, sub Submission) (Submission, error)
		GetSubmission(ctx context.Context, id string) (Submission, error)
		// ListSubmissions returns the submissions of an assignment, optionally of one student only.
		ListSubmissions(ctx context.Context, assignmentID string, studentID string) ([]Submission, error)
		UpdateSubmission(ctx context.Context, sub Submission) (Submission, error)
	}

	Service struct {
		repo     Repository
		classSvc *class.Service
		notifSvc *notification.Service
		logger   core.Logger
	}
)

func NewService(repo Repository, classSvc *class.Service, notifSvc *notification.Service, logger core.Logger) *Service {
	return &Service{repo: repo, classSvc: classSvc, notifSvc: notifSvc, logger: logger}
}

func (svc *Service) get(ctx context.Context, id string) (Assignment, error) {
	a, err := svc.repo.GetAssignment(ctx, id)
	if err != nil {
		if pkgerrors.Cause(err) == ErrNotFound {
			return Assignment{}, core.NewNotFoundError(ErrNotFound)
		}
		return Assignment{}, pkgerrors.Wrap(err, "finding assignment by ID")
	}
	return a, nil
}

func (svc *Service) Create(ctx context.Context, actor user.User, classID string, na NewAssignment) (Assignment, error) {
	if _, err := svc.classSvc.RequireOwner(ctx, actor, classID); err != nil {
		return Assignment{}, err
	}

	now := time.Now().UTC()
	a := Assignment{
		ClassID:     classID,
		Title:       na.Title,
		Description: na.Description,
		FileURL:     na.FileURL,
		DueDate:     na.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if a.DueDate.IsZero() {
		a.DueDate = NoDueDate
	}
	return svc.repo.CreateAssignment(ctx, a)
}

func (svc *Service) Update(ctx context.Context, actor user.User, id string, ua UpdateAssignment) (Assignment, error) {
	a, err := svc.get(ctx, id)
	if err != nil {
		return Assignment{}, err
	}
	if _, err = svc.classSvc.RequireOwner(ctx, actor, a.ClassID); err != nil {
		return Assignment{}, err
	}
	ua.apply(&a)
	a.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateAssignment(ctx, a)
}

func (svc *Service) Delete(ctx context.Context, actor user.User, id string) error {
	a, err := svc.get(ctx, id)
	if err != nil {
		return err
	}
	if _, err = svc.classSvc.RequireOwner(ctx, actor, a.ClassID); err != nil {
		return err
	}
	return svc.repo.DeleteAssignment(ctx, id)
}

func (svc *Service) List(ctx context.Context, actor user.User, classID string) ([]Assignment, error) {
	if _, err := svc.classSvc.RequireAccess(ctx, actor, classID); err != nil {
		return nil, err
	}
	return svc.repo.ListAssignments(ctx, classID)
}

func (svc *Service) Info(ctx context.Context, actor user.User, id string) (Info, error) {
	a, err := svc.get(ctx, id)
	if err != nil {
		return Info{}, err
	}
	cls, err := svc.classSvc.RequireAccess(ctx, actor, a.ClassID)
	if err != nil {
		return Info{}, err
	}

	var studentID string
	if !cls.IsOwner(actor) {
		studentID = actor.ID
	}
	subs, err := svc.repo.ListSubmissions(ctx, id, studentID)
	if err != nil {
		return Info{}, pkgerrors.Wrap(err, "listing submissions")
	}
	return Info{Assignment: a, Submissions: subs}, nil
}

// Submit stores the work of the enrolled student actor; a new submission replaces the previous one.
// Empty fields keep the previous submission's values.
func (svc *Service) Submit(ctx context.Context, actor user.User, id string, s Submit) (Submission, error) {
	a, err := svc.get(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	if _, err = svc.classSvc.RequireMember(ctx, actor, a.ClassID); err != nil {
		return Submission{}, err
	}

	sub := Submission{
		AssignmentID: id,
		StudentID:    actor.ID,
		Text:         s.Text,
		FileURL:      s.FileURL,
		SubmittedAt:  time.Now().UTC(),
	}
	prev, err := svc.repo.ListSubmissions(ctx, id, actor.ID)
	if err != nil {
		return Submission{}, pkgerrors.Wrap(err, "finding previous submission")
	}
	if len(prev) > 0 {
		if sub.Text == "" {
			sub.Text = prev[0].Text
		}
		if sub.FileURL == "" {
			sub.FileURL = prev[0].FileURL
		}
	}
	return svc.repo.UpsertSubmission(ctx, sub)
}

// Grade sets the grade (0..10) of a submission of the assignment `id`.
func (svc *Service) Grade(ctx context.Context, actor user.User, id string, g Grade) (Submission, error) {
	a, err := svc.get(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	if _, err = svc.classSvc.RequireOwner(ctx, actor, a.ClassID); err != nil {
		return Submission{}, err
	}

	sub, err := svc.repo.GetSubmission(ctx, g.SubmissionID)
	if err != nil {
		if pkgerrors.Cause(err) == ErrSubmissionNotFound {
			return Submission{}, core.NewNotFoundError(ErrSubmissionNotFound)
		}
		return Submission{}, pkgerrors.Wrap(err, "finding submission by ID")
	}
	if sub.AssignmentID != a.ID {
		return Submission{}, core.NewNotFoundError(ErrSubmissionNotFound)
	}

	now := time.Now().UTC()
	sub.Grade = g.Grade
	sub.GradedAt = &now
	sub, err = svc.repo.UpdateSubmission(ctx, sub)
	if err != nil {
		return Submission{}, pkgerrors.Wrap(err, "grading submission")
	}

	_, err = svc.notifSvc.Notify(ctx, notification.Notification{
		SenderID:   actor.ID,
		ReceiverID: sub.StudentID,
		Type:       notification.TypeAssignmentGrade,
		Message:    fmt.Sprintf("%s: %g/10", truncate(a.Title, 80), *sub.Grade),
		RelatedID:  a.ID,
	})
	if err != nil {
		svc.logger.Error(fmt.Sprintf("notifying grade: %v", err), err)
	}
	return sub, nil
}

func truncate(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n])
	}
	return s
}
