package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/meridian-hq/meridian/modules/core/domain/entities/appmodule"
	"github.com/meridian-hq/meridian/modules/core/infrastructure/persistence/models"
	"github.com/meridian-hq/meridian/pkg/composables"
)

var (
	ErrModuleNotFound = fmt.Errorf("module not found")
)

const (
	moduleFindQuery = `SELECT id, code, name, created_at, updated_at FROM modules`
)

type ModuleRepository struct{}

func NewModuleRepository() appmodule.Repository {
	return &ModuleRepository{}
}

func (r *ModuleRepository) GetByID(ctx context.Context, id uuid.UUID) (*appmodule.Module, error) {
	mods, err := r.queryModules(ctx, moduleFindQuery+" WHERE id = $1", id.String())
	if err != nil {
		return nil, err
	}
	if len(mods) == 0 {
		return nil, ErrModuleNotFound
	}
	return mods[0], nil
}

func (r *ModuleRepository) GetByCode(ctx context.Context, code string) (*appmodule.Module, error) {
	mods, err := r.queryModules(ctx, moduleFindQuery+" WHERE code = $1", strings.ToLower(strings.TrimSpace(code)))
	if err != nil {
		return nil, err
	}
	if len(mods) == 0 {
		return nil, ErrModuleNotFound
	}
	return mods[0], nil
}

func (r *ModuleRepository) List(ctx context.Context) ([]*appmodule.Module, error) {
	return r.queryModules(ctx, moduleFindQuery+" ORDER BY code")
}

func (r *ModuleRepository) Create(ctx context.Context, m *appmodule.Module) (*appmodule.Module, error) {
	query := `
		INSERT INTO modules (id, code, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
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
		m.ID().String(),
		m.Code(),
		m.Name(),
		m.CreatedAt(),
		m.UpdatedAt(),
	).Scan(&idStr); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *ModuleRepository) Update(ctx context.Context, m *appmodule.Module) (*appmodule.Module, error) {
	query := `
		UPDATE modules
		SET code = $1, name = $2, updated_at = $3
		WHERE id = $4
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
		m.Code(),
		m.Name(),
		m.UpdatedAt(),
		m.ID().String(),
	).Scan(&idStr); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *ModuleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, "DELETE FROM modules WHERE id = $1", id.String())
	return err
}

func (r *ModuleRepository) queryModules(ctx context.Context, query string, args ...interface{}) ([]*appmodule.Module, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var mods []*appmodule.Module
	for rows.Next() {
		var m models.Module
		if err := rows.Scan(&m.ID, &m.Code, &m.Name, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan module row")
		}
		domainModule, err := toDomainModule(&m)
		if err != nil {
			return nil, errors.Wrap(err, "failed to map module row")
		}
		mods = append(mods, domainModule)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "row iteration error")
	}

	return mods, nil
}
