package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/meridian-hq/meridian/modules/core/seed"
	"github.com/meridian-hq/meridian/pkg/composables"
	"github.com/meridian-hq/meridian/pkg/configuration"
	"github.com/meridian-hq/meridian/pkg/logging"
)

func main() {
	conf := configuration.Use()
	defer conf.Unload()
	logger := logging.ConsoleLogger(logrus.InfoLevel)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		logger.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	ctx = composables.WithPool(ctx, pool)

	if err := composables.InTx(ctx, func(txCtx context.Context) error {
		if err := seed.CreateDefaultTenant(txCtx); err != nil {
			return err
		}
		if err := seed.CreateModuleCatalog(txCtx); err != nil {
			return err
		}
		return seed.CreateSuperAdminUser(txCtx)
	}); err != nil {
		logger.Fatalf("seeding failed: %v", err)
	}

	logger.Info("seeding complete")
}
