package migration

import (
	"github.com/bwmarrin/snowflake"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/config"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, node *snowflake.Node) error {
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}

		if err := RunMigrations(sqlDB); err != nil {
			return err
		}

		return seed.EnsureDefaults(conn, cfg, node)
	}),
)
