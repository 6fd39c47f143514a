package products

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/speedsterx/storefront-backend/pkg/db/models"
	pkgerrors "github.com/speedsterx/storefront-backend/pkg/errors"
)

// maxImagesPerProduct caps the gallery size per listing.
const maxImagesPerProduct = 10

// AddImageInput attaches one image, either as an uploaded file or as a link
// to an externally hosted URL.
type AddImageInput struct {
	FileName    string
	Contents    io.Reader
	ExternalURL *string
	AltText     string
}

// AddImage stores the image and appends it at the end of the gallery.
func (s *service) AddImage(ctx context.Context, productID uuid.UUID, input AddImageInput) (ImageDTO, error) {
	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return ImageDTO{}, err
	}

	count, err := s.repo.CountImages(ctx, product.ID)
	if err != nil {
		return ImageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count images")
	}
	if count >= maxImagesPerProduct {
		return ImageDTO{}, pkgerrors.New(pkgerrors.CodeConflict, "product already has the maximum number of images")
	}

	var url string
	switch {
	case input.ExternalURL != nil:
		url = strings.TrimSpace(*input.ExternalURL)
		if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
			return ImageDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "image url must be http or https")
		}
	case input.Contents != nil:
		url, err = s.files.Save(ctx, product.Slug, input.FileName, input.Contents)
		if err != nil {
			return ImageDTO{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "store image")
		}
	default:
		return ImageDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "image file or url is required")
	}

	image := &models.ProductImage{
		ProductID: product.ID,
		URL:       url,
		AltText:   strings.TrimSpace(input.AltText),
		SortOrder: int(count),
	}
	if err := s.repo.CreateImage(ctx, image); err != nil {
		return ImageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create image")
	}
	return ImageDTO{ID: image.ID, URL: image.URL, AltText: image.AltText, SortOrder: image.SortOrder}, nil
}

// DeleteImage removes the image and renumbers the remaining gallery so sort
// orders stay dense from zero.
func (s *service) DeleteImage(ctx context.Context, productID, imageID uuid.UUID) error {
	image, err := s.loadImage(ctx, productID, imageID)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteImage(ctx, image.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete image")
	}
	s.removeImageFile(ctx, image.URL)

	remaining, err := s.repo.ListImages(ctx, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list images")
	}
	for i := range remaining {
		if remaining[i].SortOrder == i {
			continue
		}
		if err := s.repo.SetImageOrder(ctx, remaining[i].ID, i); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "renumber images")
		}
	}
	return nil
}

// ReorderImages rewrites the gallery order. The request must name every image
// of the product exactly once.
func (s *service) ReorderImages(ctx context.Context, productID uuid.UUID, imageIDs []uuid.UUID) ([]ImageDTO, error) {
	if _, err := s.loadProduct(ctx, productID); err != nil {
		return nil, err
	}

	current, err := s.repo.ListImages(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list images")
	}
	if len(imageIDs) != len(current) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must include every image exactly once")
	}

	byID := make(map[uuid.UUID]*models.ProductImage, len(current))
	for i := range current {
		byID[current[i].ID] = &current[i]
	}

	seen := make(map[uuid.UUID]struct{}, len(imageIDs))
	for _, id := range imageIDs {
		if _, ok := byID[id]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown image in order")
		}
		if _, dup := seen[id]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must include every image exactly once")
		}
		seen[id] = struct{}{}
	}

	out := make([]ImageDTO, 0, len(imageIDs))
	for i, id := range imageIDs {
		image := byID[id]
		if image.SortOrder != i {
			if err := s.repo.SetImageOrder(ctx, id, i); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reorder images")
			}
			image.SortOrder = i
		}
		out = append(out, ImageDTO{ID: image.ID, URL: image.URL, AltText: image.AltText, SortOrder: i})
	}
	return out, nil
}

func (s *service) loadImage(ctx context.Context, productID, imageID uuid.UUID) (*models.ProductImage, error) {
	if productID == uuid.Nil || imageID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image id is required")
	}
	image, err := s.repo.FindImage(ctx, productID, imageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "image not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load image")
	}
	return image, nil
}
