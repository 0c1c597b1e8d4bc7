package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/lophoc/core/absence"
)

const absenceColumns = `id, class_id, student_id, date, reason, proof_url, status, created_at, reviewed_at`

type absenceRepository struct {
	db *sqlx.DB
}

var _ absence.Repository = (*absenceRepository)(nil) // interface compliance check

func NewAbsenceRepository(db *sqlx.DB) *absenceRepository {
	return &absenceRepository{db: db}
}

func (repo absenceRepository) CreateRequest(ctx context.Context, req absence.Request) (absence.Request, error) {
	req.ID = uuid.New().String()
	q := `INSERT INTO absence_requests (` + absenceColumns + `) VALUES
		(:id, :class_id, :student_id, :date, :reason, :proof_url, :status, :created_at, :reviewed_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, req); err != nil {
		return absence.Request{}, errors.Wrap(err, "inserting absence request")
	}
	return req, nil
}

func (repo absenceRepository) GetRequest(ctx context.Context, id string) (absence.Request, error) {
	if _, err := uuid.Parse(id); err != nil {
		return absence.Request{}, absence.ErrNotFound
	}
	var req absence.Request
	if err := repo.db.GetContext(ctx, &req, `SELECT `+absenceColumns+` FROM absence_requests WHERE id = $1`, id); err != nil {
		return absence.Request{}, trapNoRowsErr(err, absence.ErrNotFound, "selecting absence request")
	}
	return req, nil
}

func (repo absenceRepository) ReviewRequest(ctx context.Context, req absence.Request) (absence.Request, error) {
	q := `UPDATE absence_requests SET status = :status, reviewed_at = :reviewed_at
		WHERE id = :id AND status = 'PENDING'`
	res, err := repo.db.NamedExecContext(ctx, q, req)
	if err != nil {
		return absence.Request{}, errors.Wrap(err, "reviewing absence request")
	}
	if err = expectOne(res, absence.ErrAlreadyChecked); err != nil {
		return absence.Request{}, err
	}
	return req, nil
}

func (repo absenceRepository) QueryRequests(ctx context.Context, classID string, filter absence.QueryFilter) ([]absence.Request, error) {
	q := `SELECT ` + absenceColumns + ` FROM absence_requests WHERE class_id = $1`
	args := []interface{}{classID}
	if filter.Status != "" {
		args = append(args, filter.Status)
		q += ` AND status = $` + itoa(len(args))
	}
	if !filter.Date.IsZero() {
		args = append(args, filter.Date)
		q += ` AND date = $` + itoa(len(args))
	}
	q += ` ORDER BY date, created_at`

	reqs := make([]absence.Request, 0)
	if err := repo.db.SelectContext(ctx, &reqs, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting absence requests")
	}
	return reqs, nil
}
