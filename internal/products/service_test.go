package products

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/speedsterx/storefront-backend/pkg/config"
	"github.com/speedsterx/storefront-backend/pkg/db/models"
	pkgerrors "github.com/speedsterx/storefront-backend/pkg/errors"
	"github.com/speedsterx/storefront-backend/pkg/logger"
)

type stubProductStore struct {
	byID       map[uuid.UUID]*models.Product
	images     []*models.ProductImage
	lastFilter ListFilter
}

func newStubProductStore(rows ...*models.Product) *stubProductStore {
	s := &stubProductStore{byID: map[uuid.UUID]*models.Product{}}
	for _, row := range rows {
		s.byID[row.ID] = row
	}
	return s
}

func (s *stubProductStore) Create(ctx context.Context, product *models.Product) error {
	product.ID = uuid.New()
	s.byID[product.ID] = product
	return nil
}

func (s *stubProductStore) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	row := s.byID[id]
	if price, ok := updates["price"].(decimal.Decimal); ok {
		row.Price = price
	}
	if sale, ok := updates["sale_price"]; ok {
		if sale == nil {
			row.SalePrice = nil
		} else if v, ok := sale.(decimal.Decimal); ok {
			row.SalePrice = &v
		}
	}
	if slug, ok := updates["slug"].(string); ok {
		row.Slug = slug
	}
	if active, ok := updates["is_active"].(bool); ok {
		row.IsActive = active
	}
	if stock, ok := updates["stock"].(int); ok {
		row.Stock = stock
	}
	return nil
}

func (s *stubProductStore) Delete(ctx context.Context, id uuid.UUID) error {
	delete(s.byID, id)
	return nil
}

func (s *stubProductStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if row, ok := s.byID[id]; ok {
		copied := *row
		copied.Images = s.imagesOf(id)
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubProductStore) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	for _, row := range s.byID {
		if row.Slug == slug {
			copied := *row
			copied.Images = s.imagesOf(row.ID)
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubProductStore) SlugTaken(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	for _, row := range s.byID {
		if row.Slug == slug && row.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubProductStore) ListActive(ctx context.Context, filter ListFilter) ([]models.Product, int64, error) {
	s.lastFilter = filter
	var out []models.Product
	for _, row := range s.byID {
		if row.IsActive {
			out = append(out, *row)
		}
	}
	return out, int64(len(out)), nil
}

func (s *stubProductStore) ListAll(ctx context.Context, search string, offset, limit int) ([]models.Product, int64, error) {
	var out []models.Product
	for _, row := range s.byID {
		out = append(out, *row)
	}
	return out, int64(len(out)), nil
}

func (s *stubProductStore) CreateImage(ctx context.Context, image *models.ProductImage) error {
	image.ID = uuid.New()
	s.images = append(s.images, image)
	return nil
}

func (s *stubProductStore) FindImage(ctx context.Context, productID, imageID uuid.UUID) (*models.ProductImage, error) {
	for _, img := range s.images {
		if img.ID == imageID && img.ProductID == productID {
			copied := *img
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubProductStore) ListImages(ctx context.Context, productID uuid.UUID) ([]models.ProductImage, error) {
	return s.imagesOf(productID), nil
}

func (s *stubProductStore) CountImages(ctx context.Context, productID uuid.UUID) (int64, error) {
	return int64(len(s.imagesOf(productID))), nil
}

func (s *stubProductStore) DeleteImage(ctx context.Context, imageID uuid.UUID) error {
	kept := s.images[:0]
	for _, img := range s.images {
		if img.ID != imageID {
			kept = append(kept, img)
		}
	}
	s.images = kept
	return nil
}

func (s *stubProductStore) SetImageOrder(ctx context.Context, imageID uuid.UUID, sortOrder int) error {
	for _, img := range s.images {
		if img.ID == imageID {
			img.SortOrder = sortOrder
		}
	}
	return nil
}

func (s *stubProductStore) imagesOf(productID uuid.UUID) []models.ProductImage {
	var out []models.ProductImage
	for _, img := range s.images {
		if img.ProductID == productID {
			out = append(out, *img)
		}
	}
	for i := range out {
		for j := i + 1; j < len(out); j++ {
			if out[j].SortOrder < out[i].SortOrder {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}

type stubCategoryFinder struct {
	rows []*models.Category
}

func (s *stubCategoryFinder) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	for _, row := range s.rows {
		if row.ID == id {
			return row, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCategoryFinder) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	for _, row := range s.rows {
		if row.Slug == slug {
			return row, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCategoryFinder) ListActive(ctx context.Context) ([]models.Category, error) {
	out := make([]models.Category, 0, len(s.rows))
	for _, row := range s.rows {
		out = append(out, *row)
	}
	return out, nil
}

type stubFiles struct {
	saved     int
	deleted   []string
	deleteErr error
}

func (s *stubFiles) Save(ctx context.Context, prefix, originalName string, contents io.Reader) (string, error) {
	s.saved++
	return "/uploads/" + prefix + "-stub.jpg", nil
}

func (s *stubFiles) Delete(ctx context.Context, publicURL string) error {
	s.deleted = append(s.deleted, publicURL)
	return s.deleteErr
}

func price(v string) decimal.Decimal {
	d, _ := decimal.NewFromString(v)
	return d
}

func pricePtr(v string) *decimal.Decimal {
	d := price(v)
	return &d
}

type productFixture struct {
	store      *stubProductStore
	categories *stubCategoryFinder
	files      *stubFiles
	svc        Service
}

func newProductFixture(t *testing.T, store *stubProductStore, categories *stubCategoryFinder) *productFixture {
	t.Helper()
	if categories == nil {
		categories = &stubCategoryFinder{}
	}
	files := &stubFiles{}
	svc, err := NewService(ServiceParams{
		Repo:       store,
		Categories: categories,
		Files:      files,
		Catalog:    config.CatalogConfig{LastSlugs: []string{"accessories"}},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &productFixture{store: store, categories: categories, files: files, svc: svc}
}

func activeProduct(name, slug string, categoryID uuid.UUID) *models.Product {
	return &models.Product{
		ID:         uuid.New(),
		Name:       name,
		Slug:       slug,
		Price:      price("4999.00"),
		Stock:      10,
		IsActive:   true,
		CategoryID: categoryID,
	}
}

func TestGetBySlugHidesInactive(t *testing.T) {
	row := activeProduct("Rock Crawler", "rock-crawler", uuid.New())
	row.IsActive = false
	fx := newProductFixture(t, newStubProductStore(row), nil)

	_, err := fx.svc.GetBySlug(context.Background(), "rock-crawler")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateRejectsSaleAtOrAbovePrice(t *testing.T) {
	category := &models.Category{ID: uuid.New(), Slug: "rc-cars", IsActive: true}
	fx := newProductFixture(t, newStubProductStore(), &stubCategoryFinder{rows: []*models.Category{category}})

	_, err := fx.svc.Create(context.Background(), CreateProductInput{
		Name:       "Buggy",
		Slug:       "buggy",
		Price:      price("100"),
		SalePrice:  pricePtr("100"),
		CategoryID: category.ID,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateRejectsDuplicateSlug(t *testing.T) {
	category := &models.Category{ID: uuid.New(), Slug: "rc-cars", IsActive: true}
	existing := activeProduct("Buggy", "buggy", category.ID)
	fx := newProductFixture(t, newStubProductStore(existing), &stubCategoryFinder{rows: []*models.Category{category}})

	_, err := fx.svc.Create(context.Background(), CreateProductInput{
		Name:       "Other Buggy",
		Slug:       "Buggy",
		Price:      price("100"),
		CategoryID: category.ID,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCreateRejectsUnknownCategory(t *testing.T) {
	fx := newProductFixture(t, newStubProductStore(), nil)

	_, err := fx.svc.Create(context.Background(), CreateProductInput{
		Name:       "Buggy",
		Slug:       "buggy",
		Price:      price("100"),
		CategoryID: uuid.New(),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateValidatesResultingPricing(t *testing.T) {
	row := activeProduct("Buggy", "buggy", uuid.New())
	row.SalePrice = pricePtr("80")
	row.Price = price("100")
	fx := newProductFixture(t, newStubProductStore(row), nil)

	// Dropping the regular price below the stored sale price must fail.
	_, err := fx.svc.Update(context.Background(), row.ID, UpdateProductInput{Price: pricePtr("50")})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	// Clearing the sale in the same request makes the lower price fine.
	dto, err := fx.svc.Update(context.Background(), row.ID, UpdateProductInput{Price: pricePtr("50"), ClearSale: true})
	if err != nil {
		t.Fatalf("update with cleared sale: %v", err)
	}
	if dto.SalePrice != nil {
		t.Fatal("expected sale price cleared")
	}
	if dto.EffectivePrice.String() != "50" {
		t.Fatalf("expected effective price 50, got %s", dto.EffectivePrice)
	}
}

func TestDeleteCleansUpFiles(t *testing.T) {
	row := activeProduct("Buggy", "buggy", uuid.New())
	store := newStubProductStore(row)
	store.images = append(store.images, &models.ProductImage{
		ID:        uuid.New(),
		ProductID: row.ID,
		URL:       "/uploads/buggy-1.jpg",
	})
	fx := newProductFixture(t, store, nil)

	if err := fx.svc.Delete(context.Background(), row.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(fx.files.deleted) != 1 || fx.files.deleted[0] != "/uploads/buggy-1.jpg" {
		t.Fatalf("expected file cleanup, got %v", fx.files.deleted)
	}
}

func TestListResolvesCategoryDescendants(t *testing.T) {
	rootID, childID := uuid.New(), uuid.New()
	categories := &stubCategoryFinder{rows: []*models.Category{
		{ID: rootID, Slug: "rc-cars", IsActive: true},
		{ID: childID, Slug: "brushless", IsActive: true, ParentID: &rootID},
	}}
	store := newStubProductStore()
	fx := newProductFixture(t, store, categories)

	if _, err := fx.svc.List(context.Background(), ListProductsInput{CategorySlug: "rc-cars"}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(store.lastFilter.CategoryIDs) != 2 {
		t.Fatalf("expected root plus child, got %v", store.lastFilter.CategoryIDs)
	}
	if len(store.lastFilter.LastSlugs) != 1 || store.lastFilter.LastSlugs[0] != "accessories" {
		t.Fatalf("expected configured last slugs, got %v", store.lastFilter.LastSlugs)
	}
}

func TestListUnknownCategoryIsNotFound(t *testing.T) {
	fx := newProductFixture(t, newStubProductStore(), nil)

	_, err := fx.svc.List(context.Background(), ListProductsInput{CategorySlug: "nope"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAddImageAppendsAtTail(t *testing.T) {
	row := activeProduct("Buggy", "buggy", uuid.New())
	store := newStubProductStore(row)
	store.images = append(store.images, &models.ProductImage{
		ID: uuid.New(), ProductID: row.ID, URL: "/uploads/a.jpg", SortOrder: 0,
	})
	fx := newProductFixture(t, store, nil)

	dto, err := fx.svc.AddImage(context.Background(), row.ID, AddImageInput{
		FileName: "side.jpg",
		Contents: strings.NewReader("fake"),
	})
	if err != nil {
		t.Fatalf("add image: %v", err)
	}
	if dto.SortOrder != 1 {
		t.Fatalf("expected sort order 1, got %d", dto.SortOrder)
	}
	if fx.files.saved != 1 {
		t.Fatalf("expected one file saved, got %d", fx.files.saved)
	}
}

func TestDeleteImageWarnsWhenFileRemovalFails(t *testing.T) {
	row := activeProduct("Buggy", "buggy", uuid.New())
	store := newStubProductStore(row)
	img := &models.ProductImage{ID: uuid.New(), ProductID: row.ID, URL: "/uploads/a.jpg", SortOrder: 0}
	store.images = append(store.images, img)

	var logged bytes.Buffer
	svc, err := NewService(ServiceParams{
		Repo:       store,
		Categories: &stubCategoryFinder{},
		Files:      &stubFiles{deleteErr: errors.New("unlink: permission denied")},
		Log:        logger.New(logger.Options{ServiceName: "products", Output: &logged}),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if err := svc.DeleteImage(context.Background(), row.ID, img.ID); err != nil {
		t.Fatalf("delete image: %v", err)
	}

	out := logged.String()
	for _, want := range []string{`"level":"warn"`, "/uploads/a.jpg", "permission denied"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected log to contain %q, got %q", want, out)
		}
	}
}

func TestAddImageRejectsBadExternalURL(t *testing.T) {
	row := activeProduct("Buggy", "buggy", uuid.New())
	fx := newProductFixture(t, newStubProductStore(row), nil)

	bad := "ftp://example.com/x.jpg"
	_, err := fx.svc.AddImage(context.Background(), row.ID, AddImageInput{ExternalURL: &bad})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeleteImageRenumbersDensely(t *testing.T) {
	row := activeProduct("Buggy", "buggy", uuid.New())
	store := newStubProductStore(row)
	first := &models.ProductImage{ID: uuid.New(), ProductID: row.ID, URL: "/uploads/a.jpg", SortOrder: 0}
	second := &models.ProductImage{ID: uuid.New(), ProductID: row.ID, URL: "/uploads/b.jpg", SortOrder: 1}
	third := &models.ProductImage{ID: uuid.New(), ProductID: row.ID, URL: "/uploads/c.jpg", SortOrder: 2}
	store.images = append(store.images, first, second, third)
	fx := newProductFixture(t, store, nil)

	if err := fx.svc.DeleteImage(context.Background(), row.ID, second.ID); err != nil {
		t.Fatalf("delete image: %v", err)
	}
	remaining, _ := store.ListImages(context.Background(), row.ID)
	if len(remaining) != 2 {
		t.Fatalf("expected 2 images, got %d", len(remaining))
	}
	for i, img := range remaining {
		if img.SortOrder != i {
			t.Fatalf("expected dense order, image %d has sort %d", i, img.SortOrder)
		}
	}
}

func TestReorderImagesRequiresExactSet(t *testing.T) {
	row := activeProduct("Buggy", "buggy", uuid.New())
	store := newStubProductStore(row)
	first := &models.ProductImage{ID: uuid.New(), ProductID: row.ID, URL: "/uploads/a.jpg", SortOrder: 0}
	second := &models.ProductImage{ID: uuid.New(), ProductID: row.ID, URL: "/uploads/b.jpg", SortOrder: 1}
	store.images = append(store.images, first, second)
	fx := newProductFixture(t, store, nil)

	_, err := fx.svc.ReorderImages(context.Background(), row.ID, []uuid.UUID{first.ID})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	out, err := fx.svc.ReorderImages(context.Background(), row.ID, []uuid.UUID{second.ID, first.ID})
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if out[0].ID != second.ID || out[0].SortOrder != 0 || out[1].ID != first.ID || out[1].SortOrder != 1 {
		t.Fatalf("unexpected order: %+v", out)
	}
}
