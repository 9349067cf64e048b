package services

import (
	"context"
	"log/slog"
	"mime/multipart"
	"strings"
	"tieba/internal/apperror"
	"tieba/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileInput struct {
	Bio      string
	Location string `validate:"max=100"`
}

// ProfileView 个人主页数据
type ProfileView struct {
	User     *models.User
	Profile  *models.UserProfile
	Posts    []models.Post
	Comments []models.Comment
	IsOwner  bool
}

type ProfileService struct {
	db     *gorm.DB
	images *ImageUploader
}

func NewProfileService(db *gorm.DB, images *ImageUploader) *ProfileService {
	return &ProfileService{db: db, images: images}
}

// getOrCreateProfile 插入时冲突即放弃，随后读取已有行，
// 并发调用也只会留下一条记录。
func getOrCreateProfile(tx *gorm.DB, userID uint) (*models.UserProfile, error) {
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&models.UserProfile{UserID: userID}).Error
	if err != nil {
		return nil, err
	}

	var profile models.UserProfile
	if err := tx.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// adjustProfileCounter 调整资料中的 post_count / comment_count，不会低于 0
func adjustProfileCounter(tx *gorm.DB, userID uint, column string, delta int) error {
	if _, err := getOrCreateProfile(tx, userID); err != nil {
		return err
	}
	expr := gorm.Expr(column + " + 1")
	if delta < 0 {
		expr = gorm.Expr("CASE WHEN " + column + " > 0 THEN " + column + " - 1 ELSE 0 END")
	}
	return tx.Model(&models.UserProfile{}).Where("user_id = ?", userID).UpdateColumn(column, expr).Error
}

// GetOrCreate 返回 user 的资料，不存在时以默认值创建
func (s *ProfileService) GetOrCreate(ctx context.Context, user *models.User) (*models.UserProfile, error) {
	if user == nil {
		return nil, apperror.ErrUnauthorized
	}
	return getOrCreateProfile(s.db.WithContext(ctx), user.ID)
}

// Edit 更新本人资料。avatar 为 nil 时保留原头像。
func (s *ProfileService) Edit(ctx context.Context, user *models.User, in ProfileInput, avatar *multipart.FileHeader) (*models.UserProfile, error) {
	if user == nil {
		return nil, apperror.ErrUnauthorized
	}
	in.Bio = strings.TrimSpace(in.Bio)
	in.Location = strings.TrimSpace(in.Location)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	profile, err := s.GetOrCreate(ctx, user)
	if err != nil {
		return nil, err
	}

	oldAvatar := profile.Avatar
	if avatar != nil {
		ref, err := s.images.Upload(ctx, "avatars", avatar)
		if err != nil {
			return nil, err
		}
		profile.Avatar = ref
	}
	profile.Bio = in.Bio
	profile.Location = in.Location

	err = s.db.WithContext(ctx).Model(profile).
		Select("avatar", "bio", "location").
		Updates(profile).Error
	if err != nil {
		return nil, err
	}

	if avatar != nil && oldAvatar != "" && oldAvatar != profile.Avatar {
		if err := s.images.Remove(ctx, oldAvatar); err != nil {
			slog.WarnContext(ctx, "remove old avatar failed", "user_id", user.ID, "ref", oldAvatar, "error", err)
		}
	}
	return profile, nil
}

// View 按用户名聚合资料、帖子与评论，任何访客都可查看
func (s *ProfileService) View(ctx context.Context, username string, viewer *models.User) (*ProfileView, error) {
	tx := s.db.WithContext(ctx)

	var user models.User
	if err := tx.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFound(err)
	}

	profile, err := getOrCreateProfile(tx, user.ID)
	if err != nil {
		return nil, err
	}

	var posts []models.Post
	err = tx.Preload("Category").
		Where("user_id = ? AND is_active = ?", user.ID, true).
		Order("created_at DESC, id DESC").
		Find(&posts).Error
	if err != nil {
		return nil, err
	}

	// 所属帖子已删除的评论同样不展示
	var comments []models.Comment
	err = tx.Preload("Post").
		Select("comments.*").
		Joins("JOIN posts ON posts.id = comments.post_id AND posts.is_active = ?", true).
		Where("comments.user_id = ? AND comments.is_active = ?", user.ID, true).
		Order("comments.created_at DESC, comments.id DESC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}

	return &ProfileView{
		User:     &user,
		Profile:  profile,
		Posts:    posts,
		Comments: comments,
		IsOwner:  viewer != nil && viewer.ID == user.ID,
	}, nil
}
