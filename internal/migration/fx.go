package migration

import (
	"github.com/smallbiznis/faktur/internal/config"
	invoicedomain "github.com/smallbiznis/faktur/internal/invoice/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			// The versioned SQL migrations target postgres. For sqlite and
			// mysql (local development), let gorm sync the schema instead.
			return conn.AutoMigrate(
				&invoicedomain.Invoice{},
				&invoicedomain.LineItem{},
				&invoicedomain.SequenceCounter{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
