package model

import (
	"fmt"

	"license-console/internal/config"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// InitDB 初始化数据库连接
func InitDB(cfg *config.DatabaseConfig) error {
	var logLevel logger.LogLevel
	if config.Get() != nil && config.Get().Server.Mode == "debug" {
		logLevel = logger.Info
	} else {
		logLevel = logger.Silent
	}

	gormCfg := &gorm.Config{
		Logger:                                   logger.Default.LogMode(logLevel),
		DisableForeignKeyConstraintWhenMigrating: true, // 禁用外键约束检查
	}

	var db *gorm.DB
	var err error
	switch cfg.Driver {
	case "sqlite":
		path := cfg.Path
		if path == "" {
			path = "license-console.db"
		}
		db, err = gorm.Open(sqlite.Open(path), gormCfg)
	default:
		db, err = gorm.Open(mysql.Open(cfg.DSN()), gormCfg)
	}
	if err != nil {
		return fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	DB = db
	return nil
}

// AutoMigrate 自动迁移数据库表
func AutoMigrate() error {
	return DB.AutoMigrate(
		// 身份与团队
		&Admin{},
		&Team{},
		&TeamMember{},
		&TeamInvitation{},
		// 席位授权
		&License{},
		// 购买对账
		&PurchaseRecord{},
		// 通知与日志
		&Webhook{},
		&WebhookLog{},
		&AuditLog{},
	)
}
