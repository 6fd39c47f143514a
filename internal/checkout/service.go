package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/speedsterx/storefront-backend/internal/orders"
	"github.com/speedsterx/storefront-backend/pkg/config"
	"github.com/speedsterx/storefront-backend/pkg/db/models"
	"github.com/speedsterx/storefront-backend/pkg/enums"
	pkgerrors "github.com/speedsterx/storefront-backend/pkg/errors"
)

// PlaceOrderInput selects the shipping address for the order. AddressID may
// be nil only when the user has no saved addresses at all.
type PlaceOrderInput struct {
	AddressID *uuid.UUID `json:"address_id,omitempty"`
}

type cartStore interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

type productStore interface {
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Product, error)
	DecrementStock(ctx context.Context, id uuid.UUID, qty int) error
}

type orderWriter interface {
	Create(ctx context.Context, order *models.Order) error
}

type addressStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Address, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

type transactor interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// TxStores bundles the repositories checkout uses inside one transaction.
type TxStores struct {
	Carts    cartStore
	Products productStore
	Orders   orderWriter
}

// ServiceParams groups dependencies for the checkout service. Stores is
// called once per transaction with the open tx so every write shares it.
type ServiceParams struct {
	Tx        transactor
	Stores    func(tx *gorm.DB) TxStores
	Addresses addressStore
	Checkout  config.CheckoutConfig
}

// Service turns a cart into an order.
type Service interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (orders.OrderDTO, error)
}

type service struct {
	tx        transactor
	stores    func(tx *gorm.DB) TxStores
	addresses addressStore
	checkout  config.CheckoutConfig
}

// NewService builds a checkout service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transactor is required")
	}
	if params.Stores == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store factory is required")
	}
	if params.Addresses == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "addresses repo is required")
	}
	return &service{
		tx:        params.Tx,
		stores:    params.Stores,
		addresses: params.Addresses,
		checkout:  params.Checkout,
	}, nil
}

// PlaceOrder atomically converts the caller's cart into a PENDING order.
// Order header, item rows, stock decrements, and cart clearing all commit or
// roll back together. Items whose product went inactive or short on stock
// since add-time block the whole checkout, each named in the error.
func (s *service) PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (orders.OrderDTO, error) {
	address, err := s.resolveAddress(ctx, userID, input.AddressID)
	if err != nil {
		return orders.OrderDTO{}, err
	}

	var placed *models.Order
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		stores := s.stores(tx)

		items, err := stores.Carts.ListByUser(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart")
		}
		if len(items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		order := &models.Order{
			UserID:        userID,
			Status:        enums.OrderStatusPending,
			PaymentStatus: enums.PaymentStatusUnpaid,
		}
		if address != nil {
			order.ShipFullName = address.FullName
			order.ShipPhone = address.Phone
			order.ShipLine1 = address.Line1
			order.ShipLine2 = address.Line2
			order.ShipCity = address.City
			order.ShipState = address.State
			order.ShipPostal = address.PostalCode
			order.ShipCountry = address.Country
		}

		var blocked error
		for _, item := range items {
			product, err := stores.Products.FindByIDForUpdate(ctx, item.ProductID)
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				blocked = multierr.Append(blocked, fmt.Errorf("item %s is no longer sold", item.ProductID))
				continue
			case err != nil:
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
			case !product.IsActive:
				blocked = multierr.Append(blocked, fmt.Errorf("%s is no longer available", product.Name))
				continue
			case product.Stock < item.Quantity:
				blocked = multierr.Append(blocked, fmt.Errorf("%s has only %d left", product.Name, product.Stock))
				continue
			}

			order.Items = append(order.Items, models.OrderItem{
				ProductID:   &item.ProductID,
				ProductName: product.Name,
				UnitPrice:   item.UnitPriceSnapshot,
				Quantity:    item.Quantity,
				LineTotal:   item.LineTotal(),
			})
			order.Subtotal = order.Subtotal.Add(item.LineTotal())
		}
		if blocked != nil {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, blocked, "some items cannot be checked out")
		}

		for _, item := range items {
			if err := stores.Products.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeConflict, "stock changed during checkout, please retry")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
			}
		}

		order.ShippingFee = s.checkout.ShippingFeeAmount()
		order.TotalAmount = order.Subtotal.Add(order.ShippingFee)

		if err := stores.Orders.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		if err := stores.Carts.DeleteByUser(ctx, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}

		placed = order
		return nil
	})
	if txErr != nil {
		if pkgerrors.As(txErr) != nil {
			return orders.OrderDTO{}, txErr
		}
		return orders.OrderDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, txErr, "place order")
	}
	return orders.ToDTO(placed), nil
}

// resolveAddress enforces the selection rule: users with a saved address must
// pick one of their own; users without any check out address-free.
func (s *service) resolveAddress(ctx context.Context, userID uuid.UUID, addressID *uuid.UUID) (*models.Address, error) {
	count, err := s.addresses.CountByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count addresses")
	}
	if count == 0 {
		if addressID != nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, nil
	}
	if addressID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a shipping address must be selected")
	}

	address, err := s.addresses.FindByID(ctx, *addressID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}
	if address.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return address, nil
}
