package products

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/speedsterx/storefront-backend/pkg/config"
	"github.com/speedsterx/storefront-backend/pkg/db/models"
	pkgerrors "github.com/speedsterx/storefront-backend/pkg/errors"
	"github.com/speedsterx/storefront-backend/pkg/logger"
	"github.com/speedsterx/storefront-backend/pkg/pagination"
)

type productStore interface {
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindBySlug(ctx context.Context, slug string) (*models.Product, error)
	SlugTaken(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error)
	ListActive(ctx context.Context, filter ListFilter) ([]models.Product, int64, error)
	ListAll(ctx context.Context, search string, offset, limit int) ([]models.Product, int64, error)
	CreateImage(ctx context.Context, image *models.ProductImage) error
	FindImage(ctx context.Context, productID, imageID uuid.UUID) (*models.ProductImage, error)
	ListImages(ctx context.Context, productID uuid.UUID) ([]models.ProductImage, error)
	CountImages(ctx context.Context, productID uuid.UUID) (int64, error)
	DeleteImage(ctx context.Context, imageID uuid.UUID) error
	SetImageOrder(ctx context.Context, imageID uuid.UUID, sortOrder int) error
}

type categoryFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	FindBySlug(ctx context.Context, slug string) (*models.Category, error)
	ListActive(ctx context.Context) ([]models.Category, error)
}

type fileStore interface {
	Save(ctx context.Context, prefix, originalName string, contents io.Reader) (string, error)
	Delete(ctx context.Context, publicURL string) error
}

// ServiceParams groups dependencies for the products service.
type ServiceParams struct {
	Repo       productStore
	Categories categoryFinder
	Files      fileStore
	Catalog    config.CatalogConfig
	Log        *logger.Logger
}

// Service exposes the public catalog and the admin product console.
type Service interface {
	List(ctx context.Context, input ListProductsInput) (ProductListDTO, error)
	GetBySlug(ctx context.Context, slug string) (ProductDTO, error)

	Get(ctx context.Context, id uuid.UUID) (ProductDTO, error)
	ListAdmin(ctx context.Context, search string, page, limit int) (ProductListDTO, error)
	Create(ctx context.Context, input CreateProductInput) (ProductDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (ProductDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error

	AddImage(ctx context.Context, productID uuid.UUID, input AddImageInput) (ImageDTO, error)
	DeleteImage(ctx context.Context, productID, imageID uuid.UUID) error
	ReorderImages(ctx context.Context, productID uuid.UUID, imageIDs []uuid.UUID) ([]ImageDTO, error)
}

type service struct {
	repo       productStore
	categories categoryFinder
	files      fileStore
	catalog    config.CatalogConfig
	log        *logger.Logger
}

// NewService builds a products service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "products repo is required")
	}
	if params.Categories == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "categories store is required")
	}
	if params.Files == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file store is required")
	}
	log := params.Log
	if log == nil {
		log = logger.New(logger.Options{ServiceName: "products", Output: io.Discard})
	}
	return &service{
		repo:       params.Repo,
		categories: params.Categories,
		files:      params.Files,
		catalog:    params.Catalog,
		log:        log,
	}, nil
}

// List returns a page of active products for the storefront. A category slug
// widens to the category plus all of its descendants.
func (s *service) List(ctx context.Context, input ListProductsInput) (ProductListDTO, error) {
	limit := pagination.NormalizeLimit(input.Limit)
	page := pagination.NormalizePage(input.Page)

	filter := ListFilter{
		Search:      input.Search,
		MinPrice:    input.MinPrice,
		MaxPrice:    input.MaxPrice,
		Brand:       input.Brand,
		Scale:       input.Scale,
		Type:        input.Type,
		InStockOnly: input.InStock,
		Sort:        normalizeSort(input.Sort),
		LastSlugs:   s.catalog.LastSlugs,
		Offset:      pagination.Offset(page, limit),
		Limit:       limit,
	}

	if slug := strings.TrimSpace(input.CategorySlug); slug != "" {
		ids, err := s.resolveCategoryTree(ctx, slug)
		if err != nil {
			return ProductListDTO{}, err
		}
		filter.CategoryIDs = ids
	}

	rows, total, err := s.repo.ListActive(ctx, filter)
	if err != nil {
		return ProductListDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return toListDTO(rows, total, page, limit), nil
}

// GetBySlug returns one active product. Inactive products are indistinguishable
// from missing ones.
func (s *service) GetBySlug(ctx context.Context, slug string) (ProductDTO, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return ProductDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}
	product, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProductDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return ProductDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return ProductDTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return toDTO(product), nil
}

// Get returns a single product for the admin console, active or not.
func (s *service) Get(ctx context.Context, id uuid.UUID) (ProductDTO, error) {
	product, err := s.loadProduct(ctx, id)
	if err != nil {
		return ProductDTO{}, err
	}
	return toDTO(product), nil
}

// ListAdmin returns a page of all products, newest first.
func (s *service) ListAdmin(ctx context.Context, search string, page, limit int) (ProductListDTO, error) {
	limit = pagination.NormalizeLimit(limit)
	page = pagination.NormalizePage(page)
	rows, total, err := s.repo.ListAll(ctx, search, pagination.Offset(page, limit), limit)
	if err != nil {
		return ProductListDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return toListDTO(rows, total, page, limit), nil
}

// Create validates pricing, slug and category before inserting.
func (s *service) Create(ctx context.Context, input CreateProductInput) (ProductDTO, error) {
	slug := normalizeSlug(input.Slug)
	if slug == "" {
		return ProductDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}
	if err := validatePricing(input.Price, input.SalePrice); err != nil {
		return ProductDTO{}, err
	}
	if input.Stock < 0 {
		return ProductDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}

	taken, err := s.repo.SlugTaken(ctx, slug, uuid.Nil)
	if err != nil {
		return ProductDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check slug")
	}
	if taken {
		return ProductDTO{}, pkgerrors.New(pkgerrors.CodeConflict, "slug already in use")
	}

	if err := s.ensureCategory(ctx, input.CategoryID); err != nil {
		return ProductDTO{}, err
	}

	product := &models.Product{
		Name:        strings.TrimSpace(input.Name),
		Slug:        slug,
		Description: input.Description,
		Price:       input.Price,
		SalePrice:   input.SalePrice,
		Stock:       input.Stock,
		IsActive:    true,
		CategoryID:  input.CategoryID,
		Brand:       input.Brand,
		Scale:       input.Scale,
		Type:        input.Type,
		MotorType:   input.MotorType,
		BatteryType: input.BatteryType,
		Terrain:     input.Terrain,
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return ProductDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return toDTO(product), nil
}

// Update applies partial edits. Pricing is re-validated against the values
// that would be stored, not just the ones in the request.
func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (ProductDTO, error) {
	product, err := s.loadProduct(ctx, id)
	if err != nil {
		return ProductDTO{}, err
	}

	updates := map[string]any{}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return ProductDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		updates["name"] = name
	}

	if input.Slug != nil {
		slug := normalizeSlug(*input.Slug)
		if slug == "" {
			return ProductDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "slug cannot be empty")
		}
		if slug != product.Slug {
			taken, err := s.repo.SlugTaken(ctx, slug, product.ID)
			if err != nil {
				return ProductDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check slug")
			}
			if taken {
				return ProductDTO{}, pkgerrors.New(pkgerrors.CodeConflict, "slug already in use")
			}
			updates["slug"] = slug
		}
	}

	price := product.Price
	if input.Price != nil {
		price = *input.Price
		updates["price"] = *input.Price
	}
	sale := product.SalePrice
	switch {
	case input.ClearSale:
		sale = nil
		updates["sale_price"] = nil
	case input.SalePrice != nil:
		sale = input.SalePrice
		updates["sale_price"] = *input.SalePrice
	}
	if err := validatePricing(price, sale); err != nil {
		return ProductDTO{}, err
	}

	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return ProductDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		updates["stock"] = *input.Stock
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if input.CategoryID != nil {
		if err := s.ensureCategory(ctx, *input.CategoryID); err != nil {
			return ProductDTO{}, err
		}
		updates["category_id"] = *input.CategoryID
	}
	if input.Brand != nil {
		updates["brand"] = *input.Brand
	}
	if input.Scale != nil {
		updates["scale"] = *input.Scale
	}
	if input.Type != nil {
		updates["type"] = *input.Type
	}
	if input.MotorType != nil {
		updates["motor_type"] = *input.MotorType
	}
	if input.BatteryType != nil {
		updates["battery_type"] = *input.BatteryType
	}
	if input.Terrain != nil {
		updates["terrain"] = *input.Terrain
	}

	if err := s.repo.Update(ctx, product.ID, updates); err != nil {
		return ProductDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}

	updated, err := s.loadProduct(ctx, id)
	if err != nil {
		return ProductDTO{}, err
	}
	return toDTO(updated), nil
}

// Delete removes the product and its image rows, then cleans up local files
// best effort. Order history keeps its own frozen copies.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	product, err := s.loadProduct(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, product.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	for _, image := range product.Images {
		s.removeImageFile(ctx, image.URL)
	}
	return nil
}

// removeImageFile deletes the backing file best effort. The row is already
// gone, so a failure leaves an orphan on disk and is only warned about.
func (s *service) removeImageFile(ctx context.Context, url string) {
	if err := s.files.Delete(ctx, url); err != nil {
		s.log.Warn(s.log.WithFields(ctx, map[string]any{
			"image_url": url,
			"error":     err.Error(),
		}), "image file not removed")
	}
}

func (s *service) loadProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) ensureCategory(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "category id is required")
	}
	if _, err := s.categories.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "category does not exist")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	return nil
}

// resolveCategoryTree returns the IDs of the named category and every active
// descendant.
func (s *service) resolveCategoryTree(ctx context.Context, slug string) ([]uuid.UUID, error) {
	root, err := s.categories.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}

	rows, err := s.categories.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}

	children := map[uuid.UUID][]uuid.UUID{}
	for _, row := range rows {
		if row.ParentID != nil {
			children[*row.ParentID] = append(children[*row.ParentID], row.ID)
		}
	}

	ids := []uuid.UUID{root.ID}
	queue := []uuid.UUID{root.ID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, child := range children[current] {
			ids = append(ids, child)
			queue = append(queue, child)
		}
	}
	return ids, nil
}

func validatePricing(price decimal.Decimal, sale *decimal.Decimal) error {
	if !price.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be greater than zero")
	}
	if sale != nil {
		if !sale.IsPositive() {
			return pkgerrors.New(pkgerrors.CodeValidation, "sale price must be greater than zero")
		}
		if sale.GreaterThanOrEqual(price) {
			return pkgerrors.New(pkgerrors.CodeValidation, "sale price must be below the regular price")
		}
	}
	return nil
}

func normalizeSort(sort string) string {
	switch sort {
	case SortPriceAsc, SortPriceDesc, SortName, SortNewest:
		return sort
	default:
		return SortNewest
	}
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
