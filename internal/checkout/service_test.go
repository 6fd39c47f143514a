package checkout

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/speedsterx/storefront-backend/pkg/config"
	"github.com/speedsterx/storefront-backend/pkg/db/models"
	"github.com/speedsterx/storefront-backend/pkg/enums"
	pkgerrors "github.com/speedsterx/storefront-backend/pkg/errors"
)

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubCarts struct {
	items   []models.CartItem
	cleared bool
}

func (s *stubCarts) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var out []models.CartItem
	for _, item := range s.items {
		if item.UserID == userID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *stubCarts) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	s.cleared = true
	s.items = nil
	return nil
}

type stubProducts struct {
	rows map[uuid.UUID]*models.Product
}

func (s *stubProducts) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if row, ok := s.rows[id]; ok {
		copied := *row
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubProducts) DecrementStock(ctx context.Context, id uuid.UUID, qty int) error {
	row, ok := s.rows[id]
	if !ok || row.Stock < qty {
		return gorm.ErrRecordNotFound
	}
	row.Stock -= qty
	return nil
}

type stubOrders struct {
	created *models.Order
}

func (s *stubOrders) Create(ctx context.Context, order *models.Order) error {
	order.ID = uuid.New()
	s.created = order
	return nil
}

type stubAddresses struct {
	rows map[uuid.UUID]*models.Address
}

func (s *stubAddresses) FindByID(ctx context.Context, id uuid.UUID) (*models.Address, error) {
	if row, ok := s.rows[id]; ok {
		copied := *row
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubAddresses) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	for _, row := range s.rows {
		if row.UserID == userID {
			count++
		}
	}
	return count, nil
}

type checkoutFixture struct {
	carts     *stubCarts
	products  *stubProducts
	orders    *stubOrders
	addresses *stubAddresses
	svc       Service
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()
	fx := &checkoutFixture{
		carts:     &stubCarts{},
		products:  &stubProducts{rows: map[uuid.UUID]*models.Product{}},
		orders:    &stubOrders{},
		addresses: &stubAddresses{rows: map[uuid.UUID]*models.Address{}},
	}
	checkoutCfg, err := config.NewCheckoutConfig("50")
	if err != nil {
		t.Fatalf("checkout config: %v", err)
	}
	fx.svc, err = NewService(ServiceParams{
		Tx: stubTx{},
		Stores: func(tx *gorm.DB) TxStores {
			return TxStores{Carts: fx.carts, Products: fx.products, Orders: fx.orders}
		},
		Addresses: fx.addresses,
		Checkout:  checkoutCfg,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return fx
}

func price(v string) decimal.Decimal {
	d, _ := decimal.NewFromString(v)
	return d
}

func (fx *checkoutFixture) addProduct(name string, priceStr string, stock int) *models.Product {
	p := &models.Product{
		ID:       uuid.New(),
		Name:     name,
		Slug:     strings.ToLower(name),
		Price:    price(priceStr),
		Stock:    stock,
		IsActive: true,
	}
	fx.products.rows[p.ID] = p
	return p
}

func (fx *checkoutFixture) addCartLine(userID uuid.UUID, product *models.Product, qty int, snapshot string) {
	fx.carts.items = append(fx.carts.items, models.CartItem{
		ID:                uuid.New(),
		UserID:            userID,
		ProductID:         product.ID,
		Quantity:          qty,
		UnitPriceSnapshot: price(snapshot),
	})
}

func TestPlaceOrderRejectsEmptyCart(t *testing.T) {
	fx := newCheckoutFixture(t)

	_, err := fx.svc.PlaceOrder(context.Background(), uuid.New(), PlaceOrderInput{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if fx.orders.created != nil {
		t.Fatal("no order may be created for an empty cart")
	}
}

func TestPlaceOrderTotalsComeFromSnapshots(t *testing.T) {
	fx := newCheckoutFixture(t)
	user := uuid.New()
	product := fx.addProduct("Crawler", "150", 10)
	// Snapshot predates a price hike; the order must honor the snapshot.
	fx.addCartLine(user, product, 3, "100")

	dto, err := fx.svc.PlaceOrder(context.Background(), user, PlaceOrderInput{})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if dto.Subtotal.String() != "300" {
		t.Fatalf("expected subtotal 300, got %s", dto.Subtotal)
	}
	if dto.ShippingFee.String() != "50" {
		t.Fatalf("expected shipping fee 50, got %s", dto.ShippingFee)
	}
	if dto.TotalAmount.String() != "350" {
		t.Fatalf("expected total 350, got %s", dto.TotalAmount)
	}
	if dto.Status != enums.OrderStatusPending || dto.PaymentStatus != enums.PaymentStatusUnpaid {
		t.Fatalf("expected pending/unpaid, got %s/%s", dto.Status, dto.PaymentStatus)
	}
	if !fx.carts.cleared {
		t.Fatal("cart must be cleared after checkout")
	}
	if fx.products.rows[product.ID].Stock != 7 {
		t.Fatalf("expected stock 7, got %d", fx.products.rows[product.ID].Stock)
	}
	if len(dto.Items) != 1 || dto.Items[0].ProductName != "Crawler" || dto.Items[0].UnitPrice.String() != "100" {
		t.Fatalf("unexpected items: %+v", dto.Items)
	}
}

func TestPlaceOrderBlocksOnStaleItems(t *testing.T) {
	fx := newCheckoutFixture(t)
	user := uuid.New()
	gone := fx.addProduct("Monster", "200", 10)
	gone.IsActive = false
	short := fx.addProduct("Buggy", "100", 1)
	fx.addCartLine(user, gone, 1, "200")
	fx.addCartLine(user, short, 3, "100")

	_, err := fx.svc.PlaceOrder(context.Background(), user, PlaceOrderInput{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if fx.orders.created != nil {
		t.Fatal("blocked checkout must not create an order")
	}
	if fx.carts.cleared {
		t.Fatal("blocked checkout must not clear the cart")
	}
	if fx.products.rows[short.ID].Stock != 1 {
		t.Fatal("blocked checkout must not touch stock")
	}
}

func TestPlaceOrderRequiresAddressSelection(t *testing.T) {
	fx := newCheckoutFixture(t)
	user := uuid.New()
	product := fx.addProduct("Crawler", "100", 10)
	fx.addCartLine(user, product, 1, "100")
	fx.addresses.rows[uuid.New()] = &models.Address{ID: uuid.New(), UserID: user, FullName: "Arjun Rao"}

	_, err := fx.svc.PlaceOrder(context.Background(), user, PlaceOrderInput{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPlaceOrderHidesForeignAddress(t *testing.T) {
	fx := newCheckoutFixture(t)
	user, other := uuid.New(), uuid.New()
	product := fx.addProduct("Crawler", "100", 10)
	fx.addCartLine(user, product, 1, "100")

	mine := &models.Address{ID: uuid.New(), UserID: user}
	theirs := &models.Address{ID: uuid.New(), UserID: other}
	fx.addresses.rows[mine.ID] = mine
	fx.addresses.rows[theirs.ID] = theirs

	_, err := fx.svc.PlaceOrder(context.Background(), user, PlaceOrderInput{AddressID: &theirs.ID})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPlaceOrderCopiesShippingSnapshot(t *testing.T) {
	fx := newCheckoutFixture(t)
	user := uuid.New()
	product := fx.addProduct("Crawler", "100", 10)
	fx.addCartLine(user, product, 1, "100")

	address := &models.Address{
		ID:         uuid.New(),
		UserID:     user,
		FullName:   "Arjun Rao",
		Phone:      "9876543210",
		Line1:      "12 MG Road",
		City:       "Bengaluru",
		State:      "Karnataka",
		PostalCode: "560001",
		Country:    "India",
	}
	fx.addresses.rows[address.ID] = address

	dto, err := fx.svc.PlaceOrder(context.Background(), user, PlaceOrderInput{AddressID: &address.ID})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if dto.Shipping.FullName != "Arjun Rao" || dto.Shipping.City != "Bengaluru" {
		t.Fatalf("unexpected shipping snapshot: %+v", dto.Shipping)
	}
}

func TestPlaceOrderWithoutSavedAddresses(t *testing.T) {
	fx := newCheckoutFixture(t)
	user := uuid.New()
	product := fx.addProduct("Crawler", "100", 10)
	fx.addCartLine(user, product, 1, "100")

	dto, err := fx.svc.PlaceOrder(context.Background(), user, PlaceOrderInput{})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if dto.Shipping.FullName != "" {
		t.Fatalf("expected empty shipping snapshot, got %+v", dto.Shipping)
	}
}
