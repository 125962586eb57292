package seed

import (
	"context"
	"os"

	"github.com/go-faster/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-hq/meridian/modules/core/domain/aggregates/user"
	"github.com/meridian-hq/meridian/modules/core/infrastructure/persistence"
	"github.com/meridian-hq/meridian/pkg/configuration"
)

const defaultSuperAdminEmail = "admin@meridian.localhost"

// CreateSuperAdminUser ensures the platform operator account exists. Super
// admins carry no tenant and bypass entitlement checks.
func CreateSuperAdminUser(ctx context.Context) error {
	logger := configuration.Use().Logger()
	userRepository := persistence.NewUserRepository()

	email := os.Getenv("SUPERADMIN_EMAIL")
	if email == "" {
		email = defaultSuperAdminEmail
	}

	existing, err := userRepository.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, persistence.ErrUserNotFound) {
		return errors.Wrap(err, "failed to look up super admin")
	}
	if existing != nil {
		logger.Infof("Super admin %s already exists", email)
		return nil
	}

	password := os.Getenv("SUPERADMIN_PASSWORD")
	if password == "" {
		return errors.New("SUPERADMIN_PASSWORD must be set to seed the super admin user")
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "failed to hash super admin password")
	}

	newUser := user.New(
		email,
		user.WithRole(user.RoleSuperAdmin),
		user.WithDisplayName("Platform Operator"),
		user.WithPasswordDigest(string(digest)),
		user.WithEmailVerified(true),
	)

	logger.Infof("Creating super admin %s", email)
	if _, err := userRepository.Create(ctx, newUser); err != nil {
		return errors.Wrap(err, "failed to create super admin")
	}
	return nil
}
