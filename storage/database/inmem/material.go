package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/lophoc/core/material"
)

type materialRepository struct {
	db *table[material.Material]
}

var _ material.Repository = (*materialRepository)(nil) // interface compliance check

func NewMaterialRepository(db *DB) *materialRepository {
	return &materialRepository{db: db.material}
}

func (repo *materialRepository) CreateMaterial(_ context.Context, m material.Material) (material.Material, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	m.ID = uuid.New().String()
	repo.db.rows[m.ID] = m
	return m, nil
}

func (repo *materialRepository) GetMaterial(_ context.Context, id string) (material.Material, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if m, ok := repo.db.rows[id]; ok {
		return m, nil
	}
	return material.Material{}, material.ErrNotFound
}

func (repo *materialRepository) UpdateMaterial(_ context.Context, m material.Material) (material.Material, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.rows[m.ID]; !ok {
		return material.Material{}, material.ErrNotFound
	}
	repo.db.rows[m.ID] = m
	return m, nil
}

func (repo *materialRepository) DeleteMaterial(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.rows[id]; !ok {
		return material.ErrNotFound
	}
	delete(repo.db.rows, id)
	return nil
}

func (repo *materialRepository) ListMaterials(_ context.Context, classID string) ([]material.Material, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	return repo.db.all(
		func(m material.Material) bool { return m.ClassID == classID },
		func(a, b material.Material) bool { return a.CreatedAt.After(b.CreatedAt) },
	), nil
}
