package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/lophoc/core/assignment"
)

type assignmentRepository struct {
	db          *table[assignment.Assignment]
	submissions *table[assignment.Submission]
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *DB) *assignmentRepository {
	return &assignmentRepository{db: db.assignment, submissions: db.submission}
}

func (repo *assignmentRepository) CreateAssignment(_ context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	a.ID = uuid.New().String()
	repo.db.rows[a.ID] = a
	return a, nil
}

func (repo *assignmentRepository) GetAssignment(_ context.Context, id string) (assignment.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if a, ok := repo.db.rows[id]; ok {
		return a, nil
	}
	return assignment.Assignment{}, assignment.ErrNotFound
}

func (repo *assignmentRepository) UpdateAssignment(_ context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.rows[a.ID]; !ok {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	repo.db.rows[a.ID] = a
	return a, nil
}

func (repo *assignmentRepository) DeleteAssignment(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.submissions.Lock()
	defer repo.submissions.Unlock()

	if _, ok := repo.db.rows[id]; !ok {
		return assignment.ErrNotFound
	}
	delete(repo.db.rows, id)
	for sid, sub := range repo.submissions.rows {
		if sub.AssignmentID == id {
			delete(repo.submissions.rows, sid)
		}
	}
	return nil
}

func (repo *assignmentRepository) ListAssignments(_ context.Context, classID string) ([]assignment.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	return repo.db.all(
		func(a assignment.Assignment) bool { return a.ClassID == classID },
		func(a, b assignment.Assignment) bool {
			if !a.DueDate.Equal(b.DueDate.Time) {
				return a.DueDate.Before(b.DueDate.Time)
			}
			return a.CreatedAt.Before(b.CreatedAt)
		},
	), nil
}

func (repo *assignmentRepository) UpsertSubmission(_ context.Context, sub assignment.Submission) (assignment.Submission, error) {
	repo.submissions.Lock()
	defer repo.submissions.Unlock()

	sub.ID = uuid.New().String()
	for id, existing := range repo.submissions.rows {
		if existing.AssignmentID == sub.AssignmentID && existing.StudentID == sub.StudentID {
			sub.ID = id
			break
		}
	}
	sub.Grade = nil
	sub.GradedAt = nil
	repo.submissions.rows[sub.ID] = sub
	return sub, nil
}

func (repo *assignmentRepository) GetSubmission(_ context.Context, id string) (assignment.Submission, error) {
	repo.submissions.RLock()
	defer repo.submissions.RUnlock()

	if sub, ok := repo.submissions.rows[id]; ok {
		return sub, nil
	}
	return assignment.Submission{}, assignment.ErrSubmissionNotFound
}

func (repo *assignmentRepository) ListSubmissions(_ context.Context, assignmentID string, studentID string) ([]assignment.Submission, error) {
	repo.submissions.RLock()
	defer repo.submissions.RUnlock()

	return repo.submissions.all(
		func(sub assignment.Submission) bool {
			return sub.AssignmentID == assignmentID && (studentID == "" || sub.StudentID == studentID)
		},
		func(a, b assignment.Submission) bool { return a.SubmittedAt.Before(b.SubmittedAt) },
	), nil
}

func (repo *assignmentRepository) UpdateSubmission(_ context.Context, sub assignment.Submission) (assignment.Submission, error) {
	repo.submissions.Lock()
	defer repo.submissions.Unlock()

	if _, ok := repo.submissions.rows[sub.ID]; !ok {
		return assignment.Submission{}, assignment.ErrSubmissionNotFound
	}
	repo.submissions.rows[sub.ID] = sub
	return sub, nil
}
