package categories

import (
	"time"

	"github.com/google/uuid"

	"github.com/speedsterx/storefront-backend/pkg/db/models"
)

// CreateCategoryInput carries the admin payload for a new category.
type CreateCategoryInput struct {
	Name        string     `json:"name" validate:"required,min=2,max=100"`
	Slug        string     `json:"slug" validate:"required,min=2,max=100"`
	Description *string    `json:"description,omitempty"`
	IsActive    *bool      `json:"is_active,omitempty"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty"`
}

// UpdateCategoryInput carries partial updates; nil fields are untouched.
type UpdateCategoryInput struct {
	Name        *string    `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Slug        *string    `json:"slug,omitempty" validate:"omitempty,min=2,max=100"`
	Description *string    `json:"description,omitempty"`
	IsActive    *bool      `json:"is_active,omitempty"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty"`
	ClearParent bool       `json:"clear_parent,omitempty"`
}

// CategoryDTO is the API shape of a category.
type CategoryDTO struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	Slug        string        `json:"slug"`
	Description *string       `json:"description,omitempty"`
	IsActive    bool          `json:"is_active"`
	ParentID    *uuid.UUID    `json:"parent_id,omitempty"`
	Children    []CategoryDTO `json:"children,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func toDTO(c *models.Category) CategoryDTO {
	return CategoryDTO{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		IsActive:    c.IsActive,
		ParentID:    c.ParentID,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
