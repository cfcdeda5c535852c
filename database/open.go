package database

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"
	_ "modernc.org/sqlite"

	"github.com/hyeyeon57/portfolio-backoffice/config"
	"github.com/hyeyeon57/portfolio-backoffice/errs"
)

func gormConfig() *gorm.Config {
	return &gorm.Config{
		PrepareStmt: false,
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				SlowThreshold:             10 * time.Second,
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
				Colorful:                  true,
			},
		),
	}
}

// OpenPostgres connects to dsn and, when replicaDSN is set, routes reads to
// the replica through dbresolver.
func OpenPostgres(dsn, replicaDSN string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if replicaDSN != "" {
		err := db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: []gorm.Dialector{postgres.New(postgres.Config{
				DSN:                  replicaDSN,
				PreferSimpleProtocol: true,
			})},
			Policy: dbresolver.RandomPolicy{},
		}))
		if err != nil {
			return nil, fmt.Errorf("register read replica: %w", err)
		}
	}
	return db, nil
}

// OpenSQLite opens (creating if needed) a sqlite database file through the
// pure Go modernc driver.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Dialector{DriverName: "sqlite", DSN: path}, gormConfig())
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// sqlite allows a single writer; serialise through one connection.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// OpenerFromConfig selects the backing store from DB_TYPE.
func OpenerFromConfig(cfg map[string]string) (Opener, error) {
	dbType := strings.ToLower(config.GetString(cfg, "DB_TYPE", "postgres"))
	replica := config.GetString(cfg, "DB_REPLICA_URL", "")

	switch dbType {
	case "supa":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=require",
			config.GetString(cfg, "SUPABASE_DB_HOST", ""),
			config.GetString(cfg, "SUPABASE_DB_USER", ""),
			config.GetString(cfg, "SUPABASE_DB_PASSWORD", ""),
			config.GetString(cfg, "SUPABASE_DB_NAME", ""),
			config.GetString(cfg, "SUPABASE_DB_PORT", "5432"),
		)
		return func(context.Context) (*gorm.DB, error) { return OpenPostgres(dsn, replica) }, nil
	case "postgres":
		dsn := config.GetString(cfg, "DATABASE_URL", "")
		if dsn == "" {
			return nil, errs.NewEnvironmentVariableError("DATABASE_URL")
		}
		return func(context.Context) (*gorm.DB, error) { return OpenPostgres(dsn, replica) }, nil
	case "sqlite":
		path := config.GetString(cfg, "SQLITE_PATH", "portfolio.db")
		return func(context.Context) (*gorm.DB, error) { return OpenSQLite(path) }, nil
	default:
		return nil, errs.NewInvalidConfigError("DB_TYPE", fmt.Errorf("unsupported value %q", dbType))
	}
}
