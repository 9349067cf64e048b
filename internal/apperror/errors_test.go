package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapErrorToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("post 3: %w", ErrNotFound), http.StatusNotFound},
		{ErrUnauthorized, http.StatusUnauthorized},
		{ErrForbidden, http.StatusForbidden},
		{ErrInvalidInput, http.StatusBadRequest},
		{NewValidationError("title", "title is required"), http.StatusBadRequest},
		{ErrConflict, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MapErrorToStatus(tt.err), tt.err.Error())
	}
}

func TestFromValidator(t *testing.T) {
	type input struct {
		Title   string `validate:"required,max=5"`
		Content string `validate:"required"`
	}

	err := validator.New().Struct(input{Title: "too long title"})
	require.Error(t, err)

	converted := FromValidator(err)
	var verr *ValidationError
	require.ErrorAs(t, converted, &verr)
	assert.Equal(t, "title must be at most 5 characters", verr.Fields["title"])
	assert.Equal(t, "content is required", verr.Fields["content"])
	assert.ErrorIs(t, converted, ErrInvalidInput)
	assert.Equal(t, "content is required; title must be at most 5 characters", verr.Error())
}

func TestFromValidator_PassesThroughOtherErrors(t *testing.T) {
	plain := errors.New("db down")
	assert.Same(t, plain, FromValidator(plain))
}
