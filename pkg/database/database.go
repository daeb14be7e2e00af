package database

import (
	"context"
	"fmt"
	"satistrain_backend/internal/config"
	"satistrain_backend/internal/model"
	"satistrain_backend/pkg/apiutil"
	"satistrain_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DSN 按驱动拼接连接串
func DSN(cfg *config.DatabaseConfig) string {
	if cfg.Driver == "mysql" {
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
			cfg.User,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.DBName,
			cfg.Charset,
			cfg.ParseTime,
		)
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.DBName,
		cfg.SSLMode,
	)
}

func dialector(cfg *config.DatabaseConfig) gorm.Dialector {
	if cfg.Driver == "mysql" {
		return mysql.Open(DSN(cfg))
	}
	return postgres.Open(DSN(cfg))
}

// InitDB 连接数据库，数据库容器启动较慢时按退避策略重试
func InitDB(cfg *config.Config) (*gorm.DB, error) {
	logLevel := gormlogger.Warn
	if cfg.Server.Mode == "debug" {
		logLevel = gormlogger.Info
	}

	opts := apiutil.RetryOptions{
		MaxAttempts:       cfg.Retry.MaxAttempts,
		InitialDelay:      cfg.Retry.InitialDelay,
		MaxDelay:          cfg.Retry.MaxDelay,
		BackoffMultiplier: cfg.Retry.BackoffMultiplier,
		ShouldRetry:       func(err error) bool { return true },
		OnRetry: func(attempt int, delay time.Duration, err error) {
			logger.Log.Warn("Database connection failed, retrying",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(err),
			)
		},
	}

	db, err := apiutil.WithRetry(context.Background(), opts, func(ctx context.Context) (*gorm.DB, error) {
		db, err := gorm.Open(dialector(&cfg.Database), &gorm.Config{
			Logger: gormlogger.Default.LogMode(logLevel),
		})
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			sqlDB.Close()
			return nil, err
		}
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
		return db, nil
	})
	if err != nil {
		return nil, fmt.Errorf("connect database after %d attempts: %w", cfg.Retry.MaxAttempts, err)
	}

	logger.Log.Info("Database connection established", zap.String("driver", cfg.Database.Driver))

	if cfg.ForceMigrate || cfg.Server.Mode != "release" {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}

	return db, nil
}

// Migrate 自动迁移并写入默认数据
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(model.AllModels()...); err != nil {
		return err
	}
	logger.Log.Info("Database migration completed")
	return Seed(db)
}
