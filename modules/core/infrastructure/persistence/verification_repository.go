package persistence

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/meridian-hq/meridian/modules/core/domain/entities/verification"
	"github.com/meridian-hq/meridian/modules/core/infrastructure/persistence/models"
	"github.com/meridian-hq/meridian/pkg/composables"
	"github.com/meridian-hq/meridian/pkg/mapping"
)

var (
	ErrVerificationTokenNotFound = fmt.Errorf("verification token not found")
)

const (
	verificationFindQuery = `
		SELECT id, user_id, token, used, verified_at, created_at, expires_at
		FROM email_verification_tokens`
)

type VerificationTokenRepository struct{}

func NewVerificationTokenRepository() verification.Repository {
	return &VerificationTokenRepository{}
}

func (r *VerificationTokenRepository) GetByValue(ctx context.Context, value string) (*verification.Token, error) {
	tokens, err := r.queryTokens(ctx, verificationFindQuery+" WHERE token = $1", value)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, ErrVerificationTokenNotFound
	}
	return tokens[0], nil
}

// GetByUserID returns the principal's live token. Consumed rows stay behind
// after a Replace and are never returned here.
func (r *VerificationTokenRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*verification.Token, error) {
	tokens, err := r.queryTokens(
		ctx,
		verificationFindQuery+" WHERE user_id = $1 AND used = false ORDER BY created_at DESC LIMIT 1",
		userID.String(),
	)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, ErrVerificationTokenNotFound
	}
	return tokens[0], nil
}

// Replace removes any unconsumed token for the principal before inserting the
// new one, so exactly one token row exists per principal afterwards.
func (r *VerificationTokenRepository) Replace(ctx context.Context, t *verification.Token) (*verification.Token, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(
		ctx,
		"DELETE FROM email_verification_tokens WHERE user_id = $1 AND used = false",
		t.UserID().String(),
	); err != nil {
		return nil, errors.Wrap(err, "failed to invalidate prior tokens")
	}

	query := `
		INSERT INTO email_verification_tokens (id, user_id, token, used, verified_at, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING token
	`
	var value string
	if err := tx.QueryRow(
		ctx,
		query,
		t.ID().String(),
		t.UserID().String(),
		t.Value(),
		t.Used(),
		mapping.PointerToSQLNullTime(t.VerifiedAt()),
		t.CreatedAt(),
		t.ExpiresAt(),
	).Scan(&value); err != nil {
		return nil, err
	}

	return r.GetByValue(ctx, value)
}

func (r *VerificationTokenRepository) Update(ctx context.Context, t *verification.Token) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		UPDATE email_verification_tokens
		SET used = $1, verified_at = $2
		WHERE id = $3
	`, t.Used(), mapping.PointerToSQLNullTime(t.VerifiedAt()), t.ID().String())
	return err
}

func (r *VerificationTokenRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, "DELETE FROM email_verification_tokens WHERE id = $1", id.String())
	return err
}

func (r *VerificationTokenRepository) queryTokens(ctx context.Context, query string, args ...interface{}) ([]*verification.Token, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var tokens []*verification.Token
	for rows.Next() {
		var t models.EmailVerificationToken
		if err := rows.Scan(
			&t.ID,
			&t.UserID,
			&t.Token,
			&t.Used,
			&t.VerifiedAt,
			&t.CreatedAt,
			&t.ExpiresAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan verification token row")
		}
		domainToken, err := toDomainVerificationToken(&t)
		if err != nil {
			return nil, errors.Wrap(err, "failed to map verification token row")
		}
		tokens = append(tokens, domainToken)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "row iteration error")
	}

	return tokens, nil
}
