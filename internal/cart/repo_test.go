package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/speedsterx/storefront-backend/pkg/db/models"
)

func setupCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := []string{`
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  description TEXT,
  price NUMERIC NOT NULL,
  sale_price NUMERIC,
  stock INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  category_id TEXT NOT NULL,
  brand TEXT, scale TEXT, type TEXT,
  motor_type TEXT, battery_type TEXT, terrain TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS product_images (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  url TEXT NOT NULL,
  alt_text TEXT NOT NULL DEFAULT '',
  sort_order INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price_snapshot NUMERIC NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (user_id, product_id)
);`}
	for _, stmt := range schema {
		require.NoError(t, db.Exec(stmt).Error)
	}
	t.Cleanup(func() {
		require.NoError(t, db.Exec("DELETE FROM cart_items").Error)
		require.NoError(t, db.Exec("DELETE FROM product_images").Error)
		require.NoError(t, db.Exec("DELETE FROM products").Error)
	})
	return db
}

func seedCartProduct(t *testing.T, db *gorm.DB, price int64) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:         uuid.New(),
		Name:       "Stampede 4x4",
		Slug:       "stampede-4x4-" + uuid.NewString()[:8],
		Price:      decimal.NewFromInt(price),
		Stock:      10,
		IsActive:   true,
		CategoryID: uuid.New(),
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func TestCartRepoUniquePerUserAndProduct(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	product := seedCartProduct(t, db, 100)

	first := &models.CartItem{
		ID:                uuid.New(),
		UserID:            userID,
		ProductID:         product.ID,
		Quantity:          3,
		UnitPriceSnapshot: decimal.NewFromInt(100),
	}
	require.NoError(t, repo.Create(ctx, first))

	dup := &models.CartItem{
		ID:                uuid.New(),
		UserID:            userID,
		ProductID:         product.ID,
		Quantity:          1,
		UnitPriceSnapshot: decimal.NewFromInt(100),
	}
	assert.Error(t, repo.Create(ctx, dup), "second line for the same (user, product) must be rejected")

	found, err := repo.FindByUserAndProduct(ctx, userID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)
	assert.Equal(t, 3, found.Quantity)
}

func TestCartRepoUpdateKeepsOtherColumns(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	product := seedCartProduct(t, db, 100)

	item := &models.CartItem{
		ID:                uuid.New(),
		UserID:            userID,
		ProductID:         product.ID,
		Quantity:          2,
		UnitPriceSnapshot: decimal.NewFromInt(100),
	}
	require.NoError(t, repo.Create(ctx, item))

	require.NoError(t, repo.Update(ctx, item.ID, map[string]any{"quantity": 5}))

	reloaded, err := repo.FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, reloaded.Quantity)
	assert.True(t, reloaded.UnitPriceSnapshot.Equal(decimal.NewFromInt(100)),
		"quantity-only update must not touch the price snapshot")
}

func TestCartRepoDeleteByUserClearsOnlyThatUser(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userA := uuid.New()
	userB := uuid.New()
	productA := seedCartProduct(t, db, 100)
	productB := seedCartProduct(t, db, 200)

	for _, item := range []*models.CartItem{
		{ID: uuid.New(), UserID: userA, ProductID: productA.ID, Quantity: 1, UnitPriceSnapshot: decimal.NewFromInt(100)},
		{ID: uuid.New(), UserID: userA, ProductID: productB.ID, Quantity: 2, UnitPriceSnapshot: decimal.NewFromInt(200)},
		{ID: uuid.New(), UserID: userB, ProductID: productA.ID, Quantity: 1, UnitPriceSnapshot: decimal.NewFromInt(100)},
	} {
		require.NoError(t, repo.Create(ctx, item))
	}

	require.NoError(t, repo.DeleteByUser(ctx, userA))

	rowsA, err := repo.ListByUser(ctx, userA)
	require.NoError(t, err)
	assert.Empty(t, rowsA)

	rowsB, err := repo.ListByUser(ctx, userB)
	require.NoError(t, err)
	require.Len(t, rowsB, 1)
	assert.Equal(t, productA.ID, rowsB[0].ProductID)
	require.NotNil(t, rowsB[0].Product)
	assert.Equal(t, productA.Slug, rowsB[0].Product.Slug)
}
