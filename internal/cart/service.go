package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/speedsterx/storefront-backend/pkg/config"
	"github.com/speedsterx/storefront-backend/pkg/db/models"
	pkgerrors "github.com/speedsterx/storefront-backend/pkg/errors"
)

const (
	minQuantity = 1
	maxQuantity = 100
)

type cartStore interface {
	Create(ctx context.Context, item *models.CartItem) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.CartItem, error)
	FindByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*models.CartItem, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
}

type productCatalog interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// ServiceParams groups dependencies for the cart service.
type ServiceParams struct {
	Repo     cartStore
	Products productCatalog
	Checkout config.CheckoutConfig
}

// Service exposes the per-user cart.
type Service interface {
	Add(ctx context.Context, userID uuid.UUID, input AddItemInput) (CartItemDTO, error)
	UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (CartItemDTO, error)
	Remove(ctx context.Context, userID, itemID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) (CartDTO, error)
}

type service struct {
	repo     cartStore
	products productCatalog
	checkout config.CheckoutConfig
}

// NewService builds a cart service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart repo is required")
	}
	if params.Products == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "products store is required")
	}
	return &service{repo: params.Repo, products: params.Products, checkout: params.Checkout}, nil
}

// Add creates or merges a cart line. On a repeat add the quantities are
// summed and the price snapshot is refreshed to the product's current
// effective price. Stock is checked against the resulting quantity, not just
// the increment. No stock is reserved here.
func (s *service) Add(ctx context.Context, userID uuid.UUID, input AddItemInput) (CartItemDTO, error) {
	if err := validateQuantity(input.Quantity); err != nil {
		return CartItemDTO{}, err
	}

	product, err := s.loadSellableProduct(ctx, input.ProductID)
	if err != nil {
		return CartItemDTO{}, err
	}

	existing, err := s.repo.FindByUserAndProduct(ctx, userID, input.ProductID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return CartItemDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
	}

	quantity := input.Quantity
	if existing != nil {
		quantity += existing.Quantity
	}
	if quantity > maxQuantity {
		return CartItemDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot exceed 100 per product")
	}
	if product.Stock < quantity {
		return CartItemDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "not enough stock available")
	}

	snapshot := product.EffectivePrice()

	if existing != nil {
		updates := map[string]any{
			"quantity":            quantity,
			"unit_price_snapshot": snapshot,
		}
		if err := s.repo.Update(ctx, existing.ID, updates); err != nil {
			return CartItemDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
		}
		existing.Quantity = quantity
		existing.UnitPriceSnapshot = snapshot
		existing.Product = product
		return toItemDTO(existing), nil
	}

	item := &models.CartItem{
		UserID:            userID,
		ProductID:         product.ID,
		Quantity:          quantity,
		UnitPriceSnapshot: snapshot,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return CartItemDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart line")
	}
	item.Product = product
	return toItemDTO(item), nil
}

// UpdateQuantity replaces the quantity of an owned line. The price snapshot
// is deliberately left untouched.
func (s *service) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (CartItemDTO, error) {
	if err := validateQuantity(quantity); err != nil {
		return CartItemDTO{}, err
	}

	item, err := s.loadOwnedItem(ctx, userID, itemID)
	if err != nil {
		return CartItemDTO{}, err
	}

	product, err := s.loadSellableProduct(ctx, item.ProductID)
	if err != nil {
		return CartItemDTO{}, err
	}
	if product.Stock < quantity {
		return CartItemDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "not enough stock available")
	}

	if err := s.repo.Update(ctx, item.ID, map[string]any{"quantity": quantity}); err != nil {
		return CartItemDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
	}
	item.Quantity = quantity
	item.Product = product
	return toItemDTO(item), nil
}

// Remove deletes an owned line. A repeated remove reports not found.
func (s *service) Remove(ctx context.Context, userID, itemID uuid.UUID) error {
	item, err := s.loadOwnedItem(ctx, userID, itemID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, item.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart line")
	}
	return nil
}

// List returns the caller's cart. Lines whose product has gone inactive or
// missing stay visible with Available=false; totals still come from the
// stored snapshots.
func (s *service) List(ctx context.Context, userID uuid.UUID) (CartDTO, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart")
	}

	out := CartDTO{
		Items:       make([]CartItemDTO, 0, len(rows)),
		Subtotal:    decimal.Zero,
		ShippingFee: decimal.Zero,
		Total:       decimal.Zero,
	}
	for i := range rows {
		dto := toItemDTO(&rows[i])
		out.Items = append(out.Items, dto)
		out.Subtotal = out.Subtotal.Add(dto.LineTotal)
	}
	if len(out.Items) > 0 {
		out.ShippingFee = s.checkout.ShippingFeeAmount()
	}
	out.Total = out.Subtotal.Add(out.ShippingFee)
	return out, nil
}

// loadOwnedItem loads a line and hides other users' lines behind not found.
func (s *service) loadOwnedItem(ctx context.Context, userID, itemID uuid.UUID) (*models.CartItem, error) {
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart item id is required")
	}
	item, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
	}
	if item.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return item, nil
}

func (s *service) loadSellableProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

func validateQuantity(quantity int) error {
	if quantity < minQuantity || quantity > maxQuantity {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be between 1 and 100")
	}
	return nil
}
