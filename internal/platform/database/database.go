package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"studynotes/internal/config"
	"studynotes/internal/model"
)

// New opens the configured SQL store and verifies it answers a ping.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(cfg.Store.Driver) {
	case "mysql":
		dialector = mysql.Open(cfg.MySQLDSN())
	case "postgres":
		dialector = postgres.Open(cfg.Postgres.DSN)
	default:
		return nil, fmt.Errorf("unsupported sql driver: %s", cfg.Store.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: NewGormLogger(logger, cfg.App.Env)})
	if err != nil {
		return nil, fmt.Errorf("open %s failed: %w", cfg.Store.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db failed: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(1 * time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ping %s failed: %w", cfg.Store.Driver, err)
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("auto migrate tables failed: %w", err)
	}
	return nil
}

// NewGormLogger sends gorm's SQL and slow query lines through zap. Statements are
// only logged in dev.
func NewGormLogger(logger *zap.Logger, env string) gormlogger.Interface {
	level := gormlogger.Warn
	if env == "dev" {
		level = gormlogger.Info
	}
	writer := zap.NewStdLog(logger.Named("gorm"))
	return gormlogger.New(writer, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
