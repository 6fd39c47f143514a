package products

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"github.com/speedsterx/storefront-backend/pkg/db/models"
)

func forUpdateClause() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}

// CreateImage inserts an image row.
func (r *Repository) CreateImage(ctx context.Context, image *models.ProductImage) error {
	return r.db.WithContext(ctx).Create(image).Error
}

// FindImage loads one image scoped to its product.
func (r *Repository) FindImage(ctx context.Context, productID, imageID uuid.UUID) (*models.ProductImage, error) {
	var image models.ProductImage
	err := r.db.WithContext(ctx).
		First(&image, "id = ? AND product_id = ?", imageID, productID).Error
	if err != nil {
		return nil, err
	}
	return &image, nil
}

// ListImages returns a product's images ordered by sort_order.
func (r *Repository) ListImages(ctx context.Context, productID uuid.UUID) ([]models.ProductImage, error) {
	var rows []models.ProductImage
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("sort_order ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CountImages returns the number of images attached to a product.
func (r *Repository) CountImages(ctx context.Context, productID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ProductImage{}).
		Where("product_id = ?", productID).
		Count(&count).Error
	return count, err
}

// DeleteImage removes an image row.
func (r *Repository) DeleteImage(ctx context.Context, imageID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.ProductImage{}, "id = ?", imageID).Error
}

// SetImageOrder writes one image's sort position.
func (r *Repository) SetImageOrder(ctx context.Context, imageID uuid.UUID, sortOrder int) error {
	return r.db.WithContext(ctx).
		Model(&models.ProductImage{}).
		Where("id = ?", imageID).
		UpdateColumn("sort_order", sortOrder).Error
}
