package categories

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/speedsterx/storefront-backend/pkg/config"
	"github.com/speedsterx/storefront-backend/pkg/db/models"
	pkgerrors "github.com/speedsterx/storefront-backend/pkg/errors"
)

type categoryStore interface {
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	FindBySlug(ctx context.Context, slug string) (*models.Category, error)
	SlugTaken(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error)
	List(ctx context.Context) ([]models.Category, error)
	ListActive(ctx context.Context) ([]models.Category, error)
	CountChildren(ctx context.Context, id uuid.UUID) (int64, error)
	CountProducts(ctx context.Context, id uuid.UUID) (int64, error)
}

// ServiceParams groups dependencies for the categories service.
type ServiceParams struct {
	Repo    categoryStore
	Catalog config.CatalogConfig
}

// Service exposes category management and the public category tree.
type Service interface {
	Create(ctx context.Context, input CreateCategoryInput) (CategoryDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateCategoryInput) (CategoryDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (CategoryDTO, error)
	ListAll(ctx context.Context) ([]CategoryDTO, error)
	Tree(ctx context.Context) ([]CategoryDTO, error)
}

type service struct {
	repo    categoryStore
	catalog config.CatalogConfig
}

// NewService builds a categories service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "categories repo is required")
	}
	return &service{repo: params.Repo, catalog: params.Catalog}, nil
}

// Create validates the slug and parent before inserting.
func (s *service) Create(ctx context.Context, input CreateCategoryInput) (CategoryDTO, error) {
	slug := normalizeSlug(input.Slug)
	if slug == "" {
		return CategoryDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}

	taken, err := s.repo.SlugTaken(ctx, slug, uuid.Nil)
	if err != nil {
		return CategoryDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check slug")
	}
	if taken {
		return CategoryDTO{}, pkgerrors.New(pkgerrors.CodeConflict, "slug already in use")
	}

	if input.ParentID != nil {
		if _, err := s.loadCategory(ctx, *input.ParentID); err != nil {
			return CategoryDTO{}, err
		}
	}

	category := &models.Category{
		Name:        strings.TrimSpace(input.Name),
		Slug:        slug,
		Description: input.Description,
		IsActive:    true,
		ParentID:    input.ParentID,
	}
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}

	if err := s.repo.Create(ctx, category); err != nil {
		return CategoryDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create category")
	}
	return toDTO(category), nil
}

// Update applies partial edits. A category can never become its own parent,
// directly or through any chain of ancestors.
func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateCategoryInput) (CategoryDTO, error) {
	category, err := s.loadCategory(ctx, id)
	if err != nil {
		return CategoryDTO{}, err
	}

	updates := map[string]any{}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return CategoryDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		updates["name"] = name
	}

	if input.Slug != nil {
		slug := normalizeSlug(*input.Slug)
		if slug == "" {
			return CategoryDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "slug cannot be empty")
		}
		if slug != category.Slug {
			taken, err := s.repo.SlugTaken(ctx, slug, category.ID)
			if err != nil {
				return CategoryDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check slug")
			}
			if taken {
				return CategoryDTO{}, pkgerrors.New(pkgerrors.CodeConflict, "slug already in use")
			}
			updates["slug"] = slug
		}
	}

	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	switch {
	case input.ClearParent:
		updates["parent_id"] = nil
	case input.ParentID != nil:
		if err := s.validateParent(ctx, category.ID, *input.ParentID); err != nil {
			return CategoryDTO{}, err
		}
		updates["parent_id"] = *input.ParentID
	}

	if err := s.repo.Update(ctx, category.ID, updates); err != nil {
		return CategoryDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update category")
	}

	updated, err := s.loadCategory(ctx, id)
	if err != nil {
		return CategoryDTO{}, err
	}
	return toDTO(updated), nil
}

// Delete refuses to remove categories that still hold products or children.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	category, err := s.loadCategory(ctx, id)
	if err != nil {
		return err
	}

	products, err := s.repo.CountProducts(ctx, category.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count products")
	}
	if products > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "category still contains products")
	}

	children, err := s.repo.CountChildren(ctx, category.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count children")
	}
	if children > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "category still has subcategories")
	}

	if err := s.repo.Delete(ctx, category.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete category")
	}
	return nil
}

// Get returns a single category for the admin console.
func (s *service) Get(ctx context.Context, id uuid.UUID) (CategoryDTO, error) {
	category, err := s.loadCategory(ctx, id)
	if err != nil {
		return CategoryDTO{}, err
	}
	return toDTO(category), nil
}

// ListAll returns a flat list of every category for the admin console.
func (s *service) ListAll(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	out := make([]CategoryDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toDTO(&rows[i]))
	}
	return out, nil
}

// Tree returns active categories as roots with nested children, ordered by
// the catalog sort weight so configured slugs land at the end.
func (s *service) Tree(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}

	nodes := make(map[uuid.UUID]*CategoryDTO, len(rows))
	for i := range rows {
		dto := toDTO(&rows[i])
		nodes[dto.ID] = &dto
	}

	// Children stay as pointers until the whole forest is linked; values are
	// materialized only once every descendant is attached.
	children := make(map[uuid.UUID][]*CategoryDTO, len(rows))
	var roots []*CategoryDTO
	for i := range rows {
		node := nodes[rows[i].ID]
		if rows[i].ParentID != nil {
			if _, ok := nodes[*rows[i].ParentID]; ok {
				children[*rows[i].ParentID] = append(children[*rows[i].ParentID], node)
				continue
			}
		}
		roots = append(roots, node)
	}

	sort.SliceStable(roots, func(i, j int) bool {
		wi, wj := s.catalog.SortWeight(roots[i].Slug), s.catalog.SortWeight(roots[j].Slug)
		if wi != wj {
			return wi < wj
		}
		return roots[i].Name < roots[j].Name
	})

	out := make([]CategoryDTO, 0, len(roots))
	for _, root := range roots {
		out = append(out, materializeNode(root, children))
	}
	return out, nil
}

func materializeNode(node *CategoryDTO, children map[uuid.UUID][]*CategoryDTO) CategoryDTO {
	out := *node
	kids := children[node.ID]
	if len(kids) == 0 {
		return out
	}
	out.Children = make([]CategoryDTO, 0, len(kids))
	for _, kid := range kids {
		out.Children = append(out.Children, materializeNode(kid, children))
	}
	return out
}

// validateParent walks the proposed parent's ancestor chain and rejects any
// assignment that would close a cycle.
func (s *service) validateParent(ctx context.Context, categoryID, parentID uuid.UUID) error {
	if parentID == categoryID {
		return pkgerrors.New(pkgerrors.CodeValidation, "category cannot be its own parent")
	}

	seen := map[uuid.UUID]struct{}{categoryID: {}}
	current := parentID
	for current != uuid.Nil {
		if _, ok := seen[current]; ok {
			return pkgerrors.New(pkgerrors.CodeValidation, "category parent would create a cycle")
		}
		seen[current] = struct{}{}

		node, err := s.loadCategory(ctx, current)
		if err != nil {
			return err
		}
		if node.ParentID == nil {
			return nil
		}
		current = *node.ParentID
	}
	return nil
}

func (s *service) loadCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category id is required")
	}
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	return category, nil
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
