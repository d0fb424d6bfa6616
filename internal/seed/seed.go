// Package seed inserts the rows a fresh store needs before the first
// login: the bootstrap admin account and the starter categories.
package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	authdomain "github.com/muralikrishna41140/cakeraft-sub001/internal/auth/domain"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/auth/password"
	catalogdomain "github.com/muralikrishna41140/cakeraft-sub001/internal/catalog/domain"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/config"
	"gorm.io/gorm"
)

// defaultAdminPassword is used only when BOOTSTRAP_ADMIN_PASSWORD is
// unset. The account is created with IsDefault=true so the UI keeps
// nagging until the password is rotated.
const defaultAdminPassword = "admin123"

// starterCategories make the counter usable before anyone opens the
// admin screens. Checkout treats the cakes category as loyalty-eligible.
var starterCategories = []string{"Cakes", "Pastries", "Snacks", "Beverages"}

// EnsureDefaults seeds the bootstrap admin and starter categories.
// Every step checks before it inserts, so running it on each startup is
// safe.
func EnsureDefaults(db *gorm.DB, cfg config.Config, node *snowflake.Node) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	if node == nil {
		var err error
		node, err = snowflake.NewNode(1)
		if err != nil {
			return err
		}
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureAdminTx(ctx, tx, node, cfg); err != nil {
			return err
		}
		return ensureStarterCategoriesTx(ctx, tx, node)
	})
}

func ensureAdminTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, cfg config.Config) error {
	email := strings.ToLower(strings.TrimSpace(cfg.BootstrapAdminEmail))
	if email == "" {
		return nil
	}

	var user authdomain.User
	err := tx.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	secret := cfg.BootstrapAdminPassword
	if secret == "" {
		secret = defaultAdminPassword
	}
	hashed, err := password.Hash(secret)
	if err != nil {
		return err
	}

	display := strings.TrimSpace(cfg.BootstrapAdminName)
	if display == "" {
		display = "Store Admin"
	}

	now := time.Now().UTC()
	user = authdomain.User{
		ID:           node.Generate(),
		Email:        email,
		DisplayName:  display,
		Role:         authdomain.RoleAdmin,
		PasswordHash: &hashed,
		// LastPasswordChanged stays nil until the operator rotates the
		// bootstrap password.
		IsDefault: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return tx.WithContext(ctx).Create(&user).Error
}

func ensureStarterCategoriesTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node) error {
	for _, name := range starterCategories {
		categorySlug := slug.Make(name)

		var existing catalogdomain.Category
		err := tx.WithContext(ctx).Where("slug = ?", categorySlug).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := time.Now().UTC()
		category := catalogdomain.Category{
			ID:        node.Generate().Int64(),
			Name:      name,
			Slug:      categorySlug,
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.WithContext(ctx).Create(&category).Error; err != nil {
			return err
		}
	}
	return nil
}
