package services

import (
	"errors"
	"tieba/internal/apperror"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

var validate = validator.New()

// validateInput 校验输入结构体，失败时返回 *apperror.ValidationError
func validateInput(v interface{}) error {
	if err := validate.Struct(v); err != nil {
		return apperror.FromValidator(err)
	}
	return nil
}

// notFound 将 gorm 的记录不存在转换为 apperror.ErrNotFound
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.ErrNotFound
	}
	return err
}
