package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/lophoc/core/material"
)

const materialColumns = `id, class_id, title, description, type, file_url, created_at, updated_at`

type materialRepository struct {
	db *sqlx.DB
}

var _ material.Repository = (*materialRepository)(nil) // interface compliance check

func NewMaterialRepository(db *sqlx.DB) *materialRepository {
	return &materialRepository{db: db}
}

func (repo materialRepository) CreateMaterial(ctx context.Context, m material.Material) (material.Material, error) {
	m.ID = uuid.New().String()
	q := `INSERT INTO materials (` + materialColumns + `) VALUES
		(:id, :class_id, :title, :description, :type, :file_url, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, m); err != nil {
		return material.Material{}, errors.Wrap(err, "inserting material")
	}
	return m, nil
}

func (repo materialRepository) GetMaterial(ctx context.Context, id string) (material.Material, error) {
	if _, err := uuid.Parse(id); err != nil {
		return material.Material{}, material.ErrNotFound
	}
	var m material.Material
	if err := repo.db.GetContext(ctx, &m, `SELECT `+materialColumns+` FROM materials WHERE id = $1`, id); err != nil {
		return material.Material{}, trapNoRowsErr(err, material.ErrNotFound, "selecting material")
	}
	return m, nil
}

func (repo materialRepository) UpdateMaterial(ctx context.Context, m material.Material) (material.Material, error) {
	q := `UPDATE materials SET title = :title, description = :description, type = :type, file_url = :file_url,
		updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, m)
	if err != nil {
		return material.Material{}, errors.Wrap(err, "updating material")
	}
	if err = expectOne(res, material.ErrNotFound); err != nil {
		return material.Material{}, err
	}
	return m, nil
}

func (repo materialRepository) DeleteMaterial(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM materials WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting material")
	}
	return expectOne(res, material.ErrNotFound)
}

func (repo materialRepository) ListMaterials(ctx context.Context, classID string) ([]material.Material, error) {
	list := make([]material.Material, 0)
	q := `SELECT ` + materialColumns + ` FROM materials WHERE class_id = $1 ORDER BY created_at DESC`
	if err := repo.db.SelectContext(ctx, &list, q, classID); err != nil {
		return nil, errors.Wrap(err, "selecting materials")
	}
	return list, nil
}
