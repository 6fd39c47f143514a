package categories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/speedsterx/storefront-backend/pkg/config"
	"github.com/speedsterx/storefront-backend/pkg/db/models"
	pkgerrors "github.com/speedsterx/storefront-backend/pkg/errors"
)

type stubCategoryStore struct {
	byID     map[uuid.UUID]*models.Category
	products map[uuid.UUID]int64
	deleted  []uuid.UUID
}

func newStubCategoryStore(rows ...*models.Category) *stubCategoryStore {
	s := &stubCategoryStore{
		byID:     map[uuid.UUID]*models.Category{},
		products: map[uuid.UUID]int64{},
	}
	for _, row := range rows {
		s.byID[row.ID] = row
	}
	return s
}

func (s *stubCategoryStore) Create(ctx context.Context, category *models.Category) error {
	category.ID = uuid.New()
	s.byID[category.ID] = category
	return nil
}

func (s *stubCategoryStore) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	row := s.byID[id]
	if slug, ok := updates["slug"].(string); ok {
		row.Slug = slug
	}
	if name, ok := updates["name"].(string); ok {
		row.Name = name
	}
	if parent, ok := updates["parent_id"]; ok {
		if parent == nil {
			row.ParentID = nil
		} else if pid, ok := parent.(uuid.UUID); ok {
			row.ParentID = &pid
		}
	}
	if active, ok := updates["is_active"].(bool); ok {
		row.IsActive = active
	}
	return nil
}

func (s *stubCategoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.deleted = append(s.deleted, id)
	delete(s.byID, id)
	return nil
}

func (s *stubCategoryStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	if row, ok := s.byID[id]; ok {
		copied := *row
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCategoryStore) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	for _, row := range s.byID {
		if row.Slug == slug {
			copied := *row
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCategoryStore) SlugTaken(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	for _, row := range s.byID {
		if row.Slug == slug && row.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubCategoryStore) List(ctx context.Context) ([]models.Category, error) {
	out := make([]models.Category, 0, len(s.byID))
	for _, row := range s.byID {
		out = append(out, *row)
	}
	return out, nil
}

func (s *stubCategoryStore) ListActive(ctx context.Context) ([]models.Category, error) {
	out := make([]models.Category, 0, len(s.byID))
	for _, row := range s.byID {
		if row.IsActive {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (s *stubCategoryStore) CountChildren(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	for _, row := range s.byID {
		if row.ParentID != nil && *row.ParentID == id {
			count++
		}
	}
	return count, nil
}

func (s *stubCategoryStore) CountProducts(ctx context.Context, id uuid.UUID) (int64, error) {
	return s.products[id], nil
}

func category(name, slug string, parent *uuid.UUID) *models.Category {
	return &models.Category{ID: uuid.New(), Name: name, Slug: slug, IsActive: true, ParentID: parent}
}

func newCategoryService(t *testing.T, store *stubCategoryStore) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:    store,
		Catalog: config.CatalogConfig{LastSlugs: []string{"accessories"}},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestCreateRejectsDuplicateSlug(t *testing.T) {
	store := newStubCategoryStore(category("RC Cars", "rc-cars", nil))
	svc := newCategoryService(t, store)

	_, err := svc.Create(context.Background(), CreateCategoryInput{Name: "Other", Slug: "RC Cars"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUpdateSlugExcludesSelf(t *testing.T) {
	row := category("RC Cars", "rc-cars", nil)
	store := newStubCategoryStore(row)
	svc := newCategoryService(t, store)

	slug := "rc-cars"
	if _, err := svc.Update(context.Background(), row.ID, UpdateCategoryInput{Slug: &slug}); err != nil {
		t.Fatalf("keeping own slug must succeed, got %v", err)
	}
}

func TestUpdateRejectsSelfParent(t *testing.T) {
	row := category("RC Cars", "rc-cars", nil)
	svc := newCategoryService(t, newStubCategoryStore(row))

	_, err := svc.Update(context.Background(), row.ID, UpdateCategoryInput{ParentID: &row.ID})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateRejectsAncestorCycle(t *testing.T) {
	root := category("Root", "root", nil)
	mid := category("Mid", "mid", &root.ID)
	leaf := category("Leaf", "leaf", &mid.ID)
	svc := newCategoryService(t, newStubCategoryStore(root, mid, leaf))

	// root -> leaf would make root a descendant of itself through mid.
	_, err := svc.Update(context.Background(), root.ID, UpdateCategoryInput{ParentID: &leaf.ID})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeleteBlockedByProducts(t *testing.T) {
	row := category("RC Cars", "rc-cars", nil)
	store := newStubCategoryStore(row)
	store.products[row.ID] = 3
	svc := newCategoryService(t, store)

	err := svc.Delete(context.Background(), row.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestDeleteBlockedByChildren(t *testing.T) {
	root := category("Root", "root", nil)
	child := category("Child", "child", &root.ID)
	svc := newCategoryService(t, newStubCategoryStore(root, child))

	err := svc.Delete(context.Background(), root.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestTreeSortsConfiguredSlugsLast(t *testing.T) {
	accessories := category("Accessories", "accessories", nil)
	cars := category("RC Cars", "rc-cars", nil)
	boats := category("RC Boats", "rc-boats", nil)
	hidden := category("Hidden", "hidden", nil)
	hidden.IsActive = false
	child := category("Brushless", "brushless", &cars.ID)
	svc := newCategoryService(t, newStubCategoryStore(accessories, cars, boats, hidden, child))

	tree, err := svc.Tree(context.Background())
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	if len(tree) != 3 {
		t.Fatalf("expected 3 roots, got %d", len(tree))
	}
	if tree[len(tree)-1].Slug != "accessories" {
		t.Fatalf("expected accessories last, got %s", tree[len(tree)-1].Slug)
	}
	var carsNode *CategoryDTO
	for i := range tree {
		if tree[i].Slug == "rc-cars" {
			carsNode = &tree[i]
		}
	}
	if carsNode == nil || len(carsNode.Children) != 1 || carsNode.Children[0].Slug != "brushless" {
		t.Fatal("expected brushless nested under rc-cars")
	}
}

func TestTreeKeepsGrandchildren(t *testing.T) {
	root := category("RC Cars", "rc-cars", nil)
	mid := category("Trucks", "trucks", &root.ID)
	leaf := category("Monster Trucks", "monster-trucks", &mid.ID)
	deep := category("Nitro Monsters", "nitro-monsters", &leaf.ID)
	svc := newCategoryService(t, newStubCategoryStore(root, mid, leaf, deep))

	tree, err := svc.Tree(context.Background())
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	if len(tree) != 1 || tree[0].Slug != "rc-cars" {
		t.Fatalf("expected single rc-cars root, got %+v", tree)
	}

	node := tree[0]
	for _, want := range []string{"trucks", "monster-trucks", "nitro-monsters"} {
		if len(node.Children) != 1 {
			t.Fatalf("expected one child under %s, got %d", node.Slug, len(node.Children))
		}
		node = node.Children[0]
		if node.Slug != want {
			t.Fatalf("expected %s, got %s", want, node.Slug)
		}
	}
}

func TestNormalizeSlug(t *testing.T) {
	cases := map[string]string{
		"RC Cars":       "rc-cars",
		"  Nitro 4WD  ": "nitro-4wd",
		"a--b":          "a-b",
		"--x--":         "x",
	}
	for input, want := range cases {
		if got := normalizeSlug(input); got != want {
			t.Fatalf("normalizeSlug(%q) = %q, want %q", input, got, want)
		}
	}
}
