package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/meridian-hq/meridian/modules/core/domain/entities/appmodule"
	"github.com/meridian-hq/meridian/pkg/composables"
)

// ModuleService manages the system-wide module catalog. Catalog entries are
// not tenant-scoped; registering them is a setup/seed concern.
type ModuleService struct {
	repo appmodule.Repository
}

func NewModuleService(repo appmodule.Repository) *ModuleService {
	return &ModuleService{repo: repo}
}

func (s *ModuleService) GetByID(ctx context.Context, id uuid.UUID) (*appmodule.Module, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ModuleService) GetByCode(ctx context.Context, code string) (*appmodule.Module, error) {
	return s.repo.GetByCode(ctx, code)
}

func (s *ModuleService) List(ctx context.Context) ([]*appmodule.Module, error) {
	return s.repo.List(ctx)
}

func (s *ModuleService) Register(ctx context.Context, m *appmodule.Module) (*appmodule.Module, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) (*appmodule.Module, error) {
		return s.repo.Create(txCtx, m)
	})
}

func (s *ModuleService) Update(ctx context.Context, m *appmodule.Module) (*appmodule.Module, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) (*appmodule.Module, error) {
		return s.repo.Update(txCtx, m)
	})
}

func (s *ModuleService) Delete(ctx context.Context, id uuid.UUID) error {
	return composables.InTx(ctx, func(txCtx context.Context) error {
		return s.repo.Delete(txCtx, id)
	})
}
