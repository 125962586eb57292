package seed

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/meridian-hq/meridian/modules/core/domain/entities/appmodule"
	"github.com/meridian-hq/meridian/modules/core/infrastructure/persistence"
	"github.com/meridian-hq/meridian/pkg/configuration"
)

// catalog is the set of gateable feature areas shipped with the platform.
var catalog = []struct {
	code string
	name string
}{
	{"inventory", "Inventory"},
	{"sales", "Sales"},
	{"accounting", "Accounting"},
	{"subscriptions", "Subscriptions"},
	{"sso", "Single Sign-On"},
}

func CreateModuleCatalog(ctx context.Context) error {
	logger := configuration.Use().Logger()
	moduleRepository := persistence.NewModuleRepository()

	for _, entry := range catalog {
		_, err := moduleRepository.GetByCode(ctx, entry.code)
		if err == nil {
			continue
		}
		if !errors.Is(err, persistence.ErrModuleNotFound) {
			return errors.Wrapf(err, "failed to look up module %s", entry.code)
		}
		logger.Infof("Registering module %s", entry.code)
		if _, err := moduleRepository.Create(ctx, appmodule.New(entry.code, entry.name)); err != nil {
			return errors.Wrapf(err, "failed to register module %s", entry.code)
		}
	}
	return nil
}
