package db

import (
	"fmt"
	"log/slog"
	"time"
	"tieba/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init 连接数据库并设置全局 DB，随后执行迁移与初始分类
func Init(dsn string, level slog.Level) error {
	conn, err := Open(dsn, level)
	if err != nil {
		return err
	}
	DB = conn
	slog.Info("database connection established")

	if err := Migrate(DB); err != nil {
		return err
	}
	slog.Info("database migration completed")

	return SeedCategories(DB)
}

func Open(dsn string, level slog.Level) (*gorm.DB, error) {
	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         NewLogger(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return conn, nil
}

// Migrate 自动迁移全部模型，测试中也用于初始化 sqlite
func Migrate(conn *gorm.DB) error {
	err := conn.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Post{},
		&models.Comment{},
		&models.UserProfile{},
		&models.Like{},
		&models.Favorite{},
	)
	if err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}

// SeedCategories 分类表为空时写入预设分类
func SeedCategories(conn *gorm.DB) error {
	var count int64
	if err := conn.Model(&models.Category{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		slog.Debug("categories already seeded, skipping")
		return nil
	}

	categories := []models.Category{
		{Name: "技术", Description: "编程、硬件与各类技术讨论"},
		{Name: "生活", Description: "日常生活、经验分享"},
		{Name: "游戏", Description: "游戏资讯与攻略"},
		{Name: "灌水", Description: "随便聊聊"},
	}
	if err := conn.Create(&categories).Error; err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}
	slog.Info("initial categories created", "count", len(categories))
	return nil
}

type slogWriter struct{}

func (slogWriter) Printf(format string, args ...interface{}) {
	slog.Info(fmt.Sprintf(format, args...), "component", "gorm")
}

// NewLogger 将 GORM 日志输出到 slog
func NewLogger(level slog.Level) logger.Interface {
	gormLevel := logger.Warn
	switch {
	case level <= slog.LevelDebug:
		gormLevel = logger.Info
	case level >= slog.LevelError:
		gormLevel = logger.Error
	}
	return logger.New(slogWriter{}, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  gormLevel,
		IgnoreRecordNotFoundError: true,
	})
}
