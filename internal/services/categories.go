package services

import (
	"context"
	"strings"
	"tieba/internal/apperror"
	"tieba/internal/models"
)

type CategoryInput struct {
	Name        string `validate:"required,max=50"`
	Description string `validate:"max=500"`
}

// CreateCategory 管理员新建分类。名称不强制唯一。
func (s *ListingService) CreateCategory(ctx context.Context, admin *models.User, in CategoryInput) (*models.Category, error) {
	if admin == nil {
		return nil, apperror.ErrUnauthorized
	}
	if !admin.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	category := &models.Category{Name: in.Name, Description: in.Description}
	if err := s.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}
