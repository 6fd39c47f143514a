package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/speedsterx/storefront-backend/pkg/config"
	"github.com/speedsterx/storefront-backend/pkg/db/models"
)

const effectivePriceExpr = "COALESCE(products.sale_price, products.price)"

// Repository encapsulates product and product image persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a products repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts the product.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// Update applies the provided column updates.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// Delete removes the product row; images cascade.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id).Error
}

// FindByID loads a product with its ordered images.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindBySlug loads a product by slug with its ordered images.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		First(&product, "slug = ?", slug).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDForUpdate loads the product row with a write lock. Only meaningful
// inside a transaction.
func (r *Repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Clauses(forUpdateClause()).
		First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// SlugTaken reports whether another product already uses the slug.
func (r *Repository) SlugTaken(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{}).Where("slug = ?", slug)
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// DecrementStock atomically subtracts qty and fails when stock would go
// negative. Returns gorm.ErrRecordNotFound when no row qualified.
func (r *Repository) DecrementStock(ctx context.Context, id uuid.UUID, qty int) error {
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListActive returns a filtered page of active products plus the total count.
func (r *Repository) ListActive(ctx context.Context, filter ListFilter) ([]models.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{}).Where("products.is_active = ?", true)
	query = applyFilter(query, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applySort(query, filter)

	var rows []models.Product
	err := query.
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListAll returns every product for the admin console, newest first.
func (r *Repository) ListAll(ctx context.Context, search string, offset, limit int) ([]models.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{})
	if term := strings.TrimSpace(search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		query = query.Where("LOWER(products.name) LIKE ? OR LOWER(products.slug) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Product
	err := query.
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Order("products.created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func applyFilter(query *gorm.DB, filter ListFilter) *gorm.DB {
	if len(filter.CategoryIDs) > 0 {
		query = query.Where("products.category_id IN ?", filter.CategoryIDs)
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		query = query.Where("LOWER(products.name) LIKE ? OR LOWER(products.description) LIKE ?", like, like)
	}
	if filter.MinPrice != nil {
		query = query.Where(effectivePriceExpr+" >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where(effectivePriceExpr+" <= ?", *filter.MaxPrice)
	}
	if filter.Brand != nil {
		query = query.Where("products.brand = ?", *filter.Brand)
	}
	if filter.Scale != nil {
		query = query.Where("products.scale = ?", *filter.Scale)
	}
	if filter.Type != nil {
		query = query.Where("products.type = ?", *filter.Type)
	}
	if filter.InStockOnly {
		query = query.Where("products.stock > 0")
	}
	return query
}

func applySort(query *gorm.DB, filter ListFilter) *gorm.DB {
	switch filter.Sort {
	case SortPriceAsc:
		return query.Order(effectivePriceExpr + " ASC")
	case SortPriceDesc:
		return query.Order(effectivePriceExpr + " DESC")
	case SortName:
		return query.Order("products.name ASC")
	default:
		// Default listing keeps configured categories (accessories and the
		// like) at the tail regardless of recency.
		if expr := lastSlugsOrderExpr(filter.LastSlugs); expr != "" {
			query = query.
				Joins("JOIN categories ON categories.id = products.category_id").
				Order(expr)
		}
		return query.Order("products.created_at DESC")
	}
}

// lastSlugsOrderExpr builds the tail-ordering CASE over category slugs.
// Slugs are interpolated into SQL, so only values matching the slug
// alphabet are accepted; anything else is skipped. Returns "" when no
// usable slug remains.
func lastSlugsOrderExpr(lastSlugs []string) string {
	var b strings.Builder
	rank := 0
	for _, slug := range lastSlugs {
		if !config.ValidCatalogSlug(slug) {
			continue
		}
		rank++
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", slug, rank)
	}
	if rank == 0 {
		return ""
	}
	return "CASE categories.slug" + b.String() + " ELSE 0 END ASC"
}
