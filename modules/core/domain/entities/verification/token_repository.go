package verification

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	GetByValue(ctx context.Context, value string) (*Token, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Token, error)
	// Replace deletes any unconsumed token for the principal and inserts the
	// new one in the same transaction, leaving exactly one row behind.
	Replace(ctx context.Context, t *Token) (*Token, error)
	Update(ctx context.Context, t *Token) error
	Delete(ctx context.Context, id uuid.UUID) error
}
