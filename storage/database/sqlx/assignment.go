package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/lophoc/core/assignment"
)

const (
	assignmentColumns = `id, class_id, title, description, file_url, due_date, created_at, updated_at`
	submissionColumns = `id, assignment_id, student_id, text, file_url, grade, submitted_at, graded_at`
)

type assignmentRepository struct {
	db *sqlx.DB
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *sqlx.DB) *assignmentRepository {
	return &assignmentRepository{db: db}
}

func (repo assignmentRepository) CreateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	a.ID = uuid.New().String()
	q := `INSERT INTO assignments (` + assignmentColumns + `) VALUES
		(:id, :class_id, :title, :description, :file_url, :due_date, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, a); err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return a, nil
}

func (repo assignmentRepository) GetAssignment(ctx context.Context, id string) (assignment.Assignment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	var a assignment.Assignment
	if err := repo.db.GetContext(ctx, &a, `SELECT `+assignmentColumns+` FROM assignments WHERE id = $1`, id); err != nil {
		return assignment.Assignment{}, trapNoRowsErr(err, assignment.ErrNotFound, "selecting assignment")
	}
	return a, nil
}

func (repo assignmentRepository) UpdateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	q := `UPDATE assignments SET title = :title, description = :description, file_url = :file_url,
		due_date = :due_date, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, a)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "updating assignment")
	}
	if err = expectOne(res, assignment.ErrNotFound); err != nil {
		return assignment.Assignment{}, err
	}
	return a, nil
}

func (repo assignmentRepository) DeleteAssignment(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM assignments WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	return expectOne(res, assignment.ErrNotFound)
}

func (repo assignmentRepository) ListAssignments(ctx context.Context, classID string) ([]assignment.Assignment, error) {
	list := make([]assignment.Assignment, 0)
	q := `SELECT ` + assignmentColumns + ` FROM assignments WHERE class_id = $1 ORDER BY due_date, created_at`
	if err := repo.db.SelectContext(ctx, &list, q, classID); err != nil {
		return nil, errors.Wrap(err, "selecting assignments")
	}
	return list, nil
}

func (repo assignmentRepository) UpsertSubmission(ctx context.Context, sub assignment.Submission) (assignment.Submission, error) {
	sub.ID = uuid.New().String()
	q := `INSERT INTO submissions (` + submissionColumns + `) VALUES
			(:id, :assignment_id, :student_id, :text, :file_url, :grade, :submitted_at, :graded_at)
		ON CONFLICT (assignment_id, student_id) DO UPDATE SET
			text = EXCLUDED.text, file_url = EXCLUDED.file_url, grade = NULL,
			submitted_at = EXCLUDED.submitted_at, graded_at = NULL
		RETURNING ` + submissionColumns
	stmt, err := repo.db.PrepareNamedContext(ctx, q)
	if err != nil {
		return assignment.Submission{}, errors.Wrap(err, "preparing submission upsert")
	}
	defer func() { _ = stmt.Close() }()

	var saved assignment.Submission
	if err = stmt.GetContext(ctx, &saved, sub); err != nil {
		return assignment.Submission{}, errors.Wrap(err, "upserting submission")
	}
	return saved, nil
}

func (repo assignmentRepository) GetSubmission(ctx context.Context, id string) (assignment.Submission, error) {
	if _, err := uuid.Parse(id); err != nil {
		return assignment.Submission{}, assignment.ErrSubmissionNotFound
	}
	var sub assignment.Submission
	if err := repo.db.GetContext(ctx, &sub, `SELECT `+submissionColumns+` FROM submissions WHERE id = $1`, id); err != nil {
		return assignment.Submission{}, trapNoRowsErr(err, assignment.ErrSubmissionNotFound, "selecting submission")
	}
	return sub, nil
}

func (repo assignmentRepository) ListSubmissions(ctx context.Context, assignmentID string, studentID string) ([]assignment.Submission, error) {
	q := `SELECT ` + submissionColumns + ` FROM submissions WHERE assignment_id = $1`
	args := []interface{}{assignmentID}
	if studentID != "" {
		q += ` AND student_id = $2`
		args = append(args, studentID)
	}
	q += ` ORDER BY submitted_at`

	subs := make([]assignment.Submission, 0)
	if err := repo.db.SelectContext(ctx, &subs, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting submissions")
	}
	return subs, nil
}

func (repo assignmentRepository) UpdateSubmission(ctx context.Context, sub assignment.Submission) (assignment.Submission, error) {
	q := `UPDATE submissions SET text = :text, file_url = :file_url, grade = :grade, graded_at = :graded_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, sub)
	if err != nil {
		return assignment.Submission{}, errors.Wrap(err, "updating submission")
	}
	if err = expectOne(res, assignment.ErrSubmissionNotFound); err != nil {
		return assignment.Submission{}, err
	}
	return sub, nil
}
