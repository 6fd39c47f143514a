package pages

import (
	"time"

	"github.com/google/uuid"

	"github.com/speedsterx/storefront-backend/pkg/db/models"
)

// CreatePageInput is the admin payload for a new CMS page.
type CreatePageInput struct {
	Title       string `json:"title" validate:"required,min=2,max=200"`
	Slug        string `json:"slug" validate:"required,min=2,max=200"`
	Content     string `json:"content"`
	IsPublished *bool  `json:"is_published,omitempty"`
}

// UpdatePageInput applies partial edits; nil fields are untouched.
type UpdatePageInput struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,min=2,max=200"`
	Slug        *string `json:"slug,omitempty" validate:"omitempty,min=2,max=200"`
	Content     *string `json:"content,omitempty"`
	IsPublished *bool   `json:"is_published,omitempty"`
}

// PageDTO is the API shape of a CMS page.
type PageDTO struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Content     string    `json:"content"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toDTO(p *models.Page) PageDTO {
	return PageDTO{
		ID:          p.ID,
		Title:       p.Title,
		Slug:        p.Slug,
		Content:     p.Content,
		IsPublished: p.IsPublished,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
