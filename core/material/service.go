package material

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/lophoc/core"
	"github.com/trezcool/lophoc/core/class"
	"github.com/trezcool/lophoc/core/user"
)

var (
	// errors
	ErrNotFound     = errors.New("material not found")
	ErrFileRequired = errors.New("a file is required")
)

type (
	Repository interface {
		CreateMaterial(ctx context.Context, m Material) (Material, error)
		GetMaterial(ctx context.Context, id string) (Material, error)
		UpdateMaterial(ctx context.Context, m Material) (Material, error)
		DeleteMaterial(ctx context.Context, id string) error
		// ListMaterials returns the materials of a class, newest first.
		ListMaterials(ctx context.Context, classID string) ([]Material, error)
	}

	Service struct {
		repo     Repository
		classSvc *class.Service
	}
)

func NewService(repo Repository, classSvc *class.Service) *Service {
	return &Service{repo: repo, classSvc: classSvc}
}

func (svc *Service) get(ctx context.Context, id string) (Material, error) {
	m, err := svc.repo.GetMaterial(ctx, id)
	if err != nil {
		if pkgerrors.Cause(err) == ErrNotFound {
			return Material{}, core.NewNotFoundError(ErrNotFound)
		}
		return Material{}, pkgerrors.Wrap(err, "finding material by ID")
	}
	return m, nil
}

func (svc *Service) Create(ctx context.Context, actor user.User, classID string, nm NewMaterial) (Material, error) {
	if _, err := svc.classSvc.RequireOwner(ctx, actor, classID); err != nil {
		return Material{}, err
	}
	now := time.Now().UTC()
	return svc.repo.CreateMaterial(ctx, Material{
		ClassID:     classID,
		Title:       nm.Title,
		Description: nm.Description,
		Type:        nm.Type,
		FileURL:     nm.FileURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (svc *Service) Update(ctx context.Context, actor user.User, id string, um UpdateMaterial) (Material, error) {
	m, err := svc.get(ctx, id)
	if err != nil {
		return Material{}, err
	}
	if _, err = svc.classSvc.RequireOwner(ctx, actor, m.ClassID); err != nil {
		return Material{}, err
	}
	um.apply(&m)
	m.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateMaterial(ctx, m)
}

func (svc *Service) Delete(ctx context.Context, actor user.User, id string) error {
	m, err := svc.get(ctx, id)
	if err != nil {
		return err
	}
	if _, err = svc.classSvc.RequireOwner(ctx, actor, m.ClassID); err != nil {
		return err
	}
	return svc.repo.DeleteMaterial(ctx, id)
}

func (svc *Service) Info(ctx context.Context, actor user.User, id string) (Material, error) {
	m, err := svc.get(ctx, id)
	if err != nil {
		return Material{}, err
	}
	if _, err = svc.classSvc.RequireAccess(ctx, actor, m.ClassID); err != nil {
		return Material{}, err
	}
	return m, nil
}

func (svc *Service) List(ctx context.Context, actor user.User, classID string) ([]Material, error) {
	if _, err := svc.classSvc.RequireAccess(ctx, actor, classID); err != nil {
		return nil, err
	}
	return svc.repo.ListMaterials(ctx, classID)
}
