package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/meridian-hq/meridian/modules/core/domain/aggregates/user"
	"github.com/meridian-hq/meridian/pkg/composables"
	"github.com/meridian-hq/meridian/pkg/eventbus"
)

type UserService struct {
	repo      user.Repository
	publisher eventbus.EventBus
}

func NewUserService(repo user.Repository, publisher eventbus.EventBus) *UserService {
	return &UserService{
		repo:      repo,
		publisher: publisher,
	}
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (user.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

// GetAll returns the users in the current scope. Callers without a tenant in
// context must opt into the system scope explicitly.
func (s *UserService) GetAll(ctx context.Context) ([]user.User, error) {
	return s.repo.GetAll(ctx)
}

func (s *UserService) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

func (s *UserService) Create(ctx context.Context, data user.User) (user.User, error) {
	created, err := composables.InTxResult(ctx, func(txCtx context.Context) (user.User, error) {
		return s.repo.Create(txCtx, data)
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(created)
	return created, nil
}

func (s *UserService) Update(ctx context.Context, data user.User) (user.User, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) (user.User, error) {
		return s.repo.Update(txCtx, data)
	})
}

func (s *UserService) UpdateLastLogin(ctx context.Context, id uuid.UUID) error {
	return s.repo.UpdateLastLogin(ctx, id)
}

func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	return composables.InTx(ctx, func(txCtx context.Context) error {
		return s.repo.Delete(txCtx, id)
	})
}
