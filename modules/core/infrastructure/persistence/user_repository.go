package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/meridian-hq/meridian/modules/core/domain/aggregates/user"
	"github.com/meridian-hq/meridian/modules/core/infrastructure/persistence/models"
	"github.com/meridian-hq/meridian/pkg/composables"
	"github.com/meridian-hq/meridian/pkg/mapping"
)

var (
	ErrUserNotFound = fmt.Errorf("user not found")
)

const (
	userFindQuery = `
		SELECT id, tenant_id, email, display_name, role, password_digest, email_verified, last_login_at, created_at, updated_at
		FROM users`
)

type UserRepository struct{}

func NewUserRepository() user.Repository {
	return &UserRepository{}
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (user.User, error) {
	users, err := r.queryUsers(ctx, userFindQuery+" WHERE id = $1", id.String())
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, ErrUserNotFound
	}
	return users[0], nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (user.User, error) {
	users, err := r.queryUsers(ctx, userFindQuery+" WHERE lower(email) = $1", strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, ErrUserNotFound
	}
	return users[0], nil
}

// GetAll returns the users visible in the current scope: the rows owned by
// the context tenant, or every row when the caller explicitly opted into the
// system scope. A context with neither is an error, not an unfiltered read.
func (r *UserRepository) GetAll(ctx context.Context) ([]user.User, error) {
	scope, err := composables.UseScope(ctx)
	if err != nil {
		return nil, err
	}
	if scope.System {
		return r.queryUsers(ctx, userFindQuery+" ORDER BY created_at")
	}
	return r.queryUsers(ctx, userFindQuery+" WHERE tenant_id = $1 ORDER BY created_at", scope.TenantID.String())
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	scope, err := composables.UseScope(ctx)
	if err != nil {
		return 0, err
	}

	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}

	var count int64
	if scope.System {
		err = tx.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	} else {
		err = tx.QueryRow(ctx, "SELECT COUNT(*) FROM users WHERE tenant_id = $1", scope.TenantID.String()).Scan(&count)
	}
	if err != nil {
		return 0, errors.Wrap(err, "failed to count users")
	}
	return count, nil
}

func (r *UserRepository) Create(ctx context.Context, u user.User) (user.User, error) {
	query := `
		INSERT INTO users (id, tenant_id, email, display_name, role, password_digest, email_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	var idStr string
	if err := tx.QueryRow(
		ctx,
		query,
		u.ID().String(),
		tenantIDValue(u),
		u.Email(),
		mapping.ValueToSQLNullString(u.DisplayName()),
		u.Role().String(),
		mapping.ValueToSQLNullString(u.PasswordDigest()),
		u.EmailVerified(),
		u.CreatedAt(),
		u.UpdatedAt(),
	).Scan(&idStr); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepository) Update(ctx context.Context, u user.User) (user.User, error) {
	query := `
		UPDATE users
		SET email = $1, display_name = $2, role = $3, password_digest = $4, email_verified = $5, updated_at = $6
		WHERE id = $7
		RETURNING id
	`
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	var idStr string
	if err := tx.QueryRow(
		ctx,
		query,
		u.Email(),
		mapping.ValueToSQLNullString(u.DisplayName()),
		u.Role().String(),
		mapping.ValueToSQLNullString(u.PasswordDigest()),
		u.EmailVerified(),
		time.Now(),
		u.ID().String(),
	).Scan(&idStr); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, "UPDATE users SET last_login_at = now() WHERE id = $1", id.String())
	return err
}

func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, "DELETE FROM users WHERE id = $1", id.String())
	return err
}

func (r *UserRepository) queryUsers(ctx context.Context, query string, args ...interface{}) ([]user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var users []user.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(
			&u.ID,
			&u.TenantID,
			&u.Email,
			&u.DisplayName,
			&u.Role,
			&u.PasswordDigest,
			&u.EmailVerified,
			&u.LastLoginAt,
			&u.CreatedAt,
			&u.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan user row")
		}
		domainUser, err := toDomainUser(&u)
		if err != nil {
			return nil, errors.Wrap(err, "failed to map user row")
		}
		users = append(users, domainUser)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "row iteration error")
	}

	return users, nil
}

func tenantIDValue(u user.User) interface{} {
	if u.TenantID() == uuid.Nil {
		return nil
	}
	return u.TenantID().String()
}
