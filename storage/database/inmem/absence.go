package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/lophoc/core/absence"
)

type absenceRepository struct {
	db *table[absence.Request]
}

var _ absence.Repository = (*absenceRepository)(nil) // interface compliance check

func NewAbsenceRepository(db *DB) *absenceRepository {
	return &absenceRepository{db: db.absence}
}

func (repo *absenceRepository) CreateRequest(_ context.Context, req absence.Request) (absence.Request, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	req.ID = uuid.New().String()
	repo.db.rows[req.ID] = req
	return req, nil
}

func (repo *absenceRepository) GetRequest(_ context.Context, id string) (absence.Request, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if req, ok := repo.db.rows[id]; ok {
		return req, nil
	}
	return absence.Request{}, absence.ErrNotFound
}

func (repo *absenceRepository) ReviewRequest(_ context.Context, req absence.Request) (absence.Request, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	stored, ok := repo.db.rows[req.ID]
	if !ok {
		return absence.Request{}, absence.ErrNotFound
	}
	if stored.Status != absence.StatusPending {
		return absence.Request{}, absence.ErrAlreadyChecked
	}
	stored.Status = req.Status
	stored.ReviewedAt = req.ReviewedAt
	repo.db.rows[req.ID] = stored
	return stored, nil
}

func (repo *absenceRepository) QueryRequests(_ context.Context, classID string, filter absence.QueryFilter) ([]absence.Request, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	return repo.db.all(
		func(req absence.Request) bool {
			return req.ClassID == classID &&
				(filter.Status == "" || req.Status == filter.Status) &&
				(filter.Date.IsZero() || req.Date.Equal(filter.Date.Time))
		},
		func(a, b absence.Request) bool {
			if !a.Date.Equal(b.Date.Time) {
				return a.Date.Before(b.Date.Time)
			}
			return a.CreatedAt.Before(b.CreatedAt)
		},
	), nil
}
