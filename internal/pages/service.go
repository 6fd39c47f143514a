package pages

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/speedsterx/storefront-backend/pkg/db/models"
	pkgerrors "github.com/speedsterx/storefront-backend/pkg/errors"
)

type pageStore interface {
	Create(ctx context.Context, page *models.Page) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Page, error)
	FindBySlug(ctx context.Context, slug string) (*models.Page, error)
	SlugTaken(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error)
	List(ctx context.Context) ([]models.Page, error)
}

// ServiceParams groups dependencies for the pages service.
type ServiceParams struct {
	Repo pageStore
}

// Service exposes published CMS content and the admin page console.
type Service interface {
	GetPublished(ctx context.Context, slug string) (PageDTO, error)

	Get(ctx context.Context, id uuid.UUID) (PageDTO, error)
	ListAll(ctx context.Context) ([]PageDTO, error)
	Create(ctx context.Context, input CreatePageInput) (PageDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdatePageInput) (PageDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo pageStore
}

// NewService builds a pages service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pages repo is required")
	}
	return &service{repo: params.Repo}, nil
}

// GetPublished returns one published page. Drafts are indistinguishable from
// missing pages.
func (s *service) GetPublished(ctx context.Context, slug string) (PageDTO, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return PageDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}
	page, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PageDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "page not found")
		}
		return PageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load page")
	}
	if !page.IsPublished {
		return PageDTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "page not found")
	}
	return toDTO(page), nil
}

// Get returns a single page for the admin console.
func (s *service) Get(ctx context.Context, id uuid.UUID) (PageDTO, error) {
	page, err := s.loadPage(ctx, id)
	if err != nil {
		return PageDTO{}, err
	}
	return toDTO(page), nil
}

// ListAll returns every page, drafts included.
func (s *service) ListAll(ctx context.Context) ([]PageDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pages")
	}
	out := make([]PageDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toDTO(&rows[i]))
	}
	return out, nil
}

// Create validates the slug before inserting. New pages default to draft.
func (s *service) Create(ctx context.Context, input CreatePageInput) (PageDTO, error) {
	slug := normalizeSlug(input.Slug)
	if slug == "" {
		return PageDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}

	taken, err := s.repo.SlugTaken(ctx, slug, uuid.Nil)
	if err != nil {
		return PageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check slug")
	}
	if taken {
		return PageDTO{}, pkgerrors.New(pkgerrors.CodeConflict, "slug already in use")
	}

	page := &models.Page{
		Title:   strings.TrimSpace(input.Title),
		Slug:    slug,
		Content: input.Content,
	}
	if input.IsPublished != nil {
		page.IsPublished = *input.IsPublished
	}

	if err := s.repo.Create(ctx, page); err != nil {
		return PageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create page")
	}
	return toDTO(page), nil
}

// Update applies partial edits.
func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdatePageInput) (PageDTO, error) {
	page, err := s.loadPage(ctx, id)
	if err != nil {
		return PageDTO{}, err
	}

	updates := map[string]any{}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return PageDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "title cannot be empty")
		}
		updates["title"] = title
	}

	if input.Slug != nil {
		slug := normalizeSlug(*input.Slug)
		if slug == "" {
			return PageDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "slug cannot be empty")
		}
		if slug != page.Slug {
			taken, err := s.repo.SlugTaken(ctx, slug, page.ID)
			if err != nil {
				return PageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check slug")
			}
			if taken {
				return PageDTO{}, pkgerrors.New(pkgerrors.CodeConflict, "slug already in use")
			}
			updates["slug"] = slug
		}
	}

	if input.Content != nil {
		updates["content"] = *input.Content
	}
	if input.IsPublished != nil {
		updates["is_published"] = *input.IsPublished
	}

	if err := s.repo.Update(ctx, page.ID, updates); err != nil {
		return PageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update page")
	}

	updated, err := s.loadPage(ctx, id)
	if err != nil {
		return PageDTO{}, err
	}
	return toDTO(updated), nil
}

// Delete removes the page.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	page, err := s.loadPage(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, page.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete page")
	}
	return nil
}

func (s *service) loadPage(ctx context.Context, id uuid.UUID) (*models.Page, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "page id is required")
	}
	page, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "page not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load page")
	}
	return page, nil
}

func normalizeSlug(slug string) string {
	slug = strings.ToLower(strings.TrimSpace(slug))
	var b strings.Builder
	lastDash := true
	for _, r := range slug {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteRune('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
