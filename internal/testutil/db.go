// Package testutil 为各包测试提供内存 sqlite 数据库与常用数据构造
package testutil

import (
	"fmt"
	"strings"
	"testing"
	"tieba/internal/db"
	"tieba/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB 返回已迁移的独立内存库。单连接保证所有查询看到同一个库。
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", name)
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func CreateUser(t testing.TB, conn *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, Password: "hashed", Role: models.RoleUser}
	if err := conn.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func CreateCategory(t testing.TB, conn *gorm.DB, name string) *models.Category {
	t.Helper()
	category := &models.Category{Name: name}
	if err := conn.Create(category).Error; err != nil {
		t.Fatalf("create category: %v", err)
	}
	return category
}

func CreatePost(t testing.TB, conn *gorm.DB, author *models.User, category *models.Category, title, content string) *models.Post {
	t.Helper()
	post := &models.Post{
		Title:      title,
		Content:    content,
		UserID:     author.ID,
		CategoryID: category.ID,
		IsActive:   true,
	}
	if err := conn.Create(post).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}
	return post
}

func CreateComment(t testing.TB, conn *gorm.DB, author *models.User, post *models.Post, parentID *uint, content string) *models.Comment {
	t.Helper()
	comment := &models.Comment{
		PostID:   post.ID,
		UserID:   author.ID,
		ParentID: parentID,
		Content:  content,
		IsActive: true,
	}
	if err := conn.Create(comment).Error; err != nil {
		t.Fatalf("create comment: %v", err)
	}
	return comment
}

// Deactivate 逻辑删除任意带 is_active 列的记录
func Deactivate(t testing.TB, conn *gorm.DB, model interface{}, id uint) {
	t.Helper()
	if err := conn.Model(model).Where("id = ?", id).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}
}
