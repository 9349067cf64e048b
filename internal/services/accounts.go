package services

import (
	"context"
	"errors"
	"strings"
	"tieba/internal/apperror"
	"tieba/internal/models"
	"tieba/internal/utils"

	"gorm.io/gorm"
)

type RegisterInput struct {
	Username  string `validate:"required,min=3,max=150"`
	Password  string `validate:"required,min=8"`
	Password2 string `validate:"required,eqfield=Password"`
}

type AccountService struct {
	db *gorm.DB
}

func NewAccountService(db *gorm.DB) *AccountService {
	return &AccountService{db: db}
}

// Register 创建账号并在同一事务内建立个人资料
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username: in.Username,
		Password: hash,
		Role:     models.RoleUser,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperror.NewValidationError("username", "username is already taken")
			}
			return err
		}
		_, err := getOrCreateProfile(tx, user.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate 校验用户名与密码，失败统一返回 ErrUnauthorized
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrUnauthorized
		}
		return nil, err
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, apperror.ErrUnauthorized
	}
	return &user, nil
}

func (s *AccountService) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// SetRole 修改用户角色，供 CLI 提升管理员
func (s *AccountService) SetRole(ctx context.Context, username, role string) error {
	if role != models.RoleUser && role != models.RoleAdmin {
		return apperror.NewValidationError("role", "role must be user or admin")
	}
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.ErrNotFound
	}
	return nil
}
