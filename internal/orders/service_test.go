package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/speedsterx/storefront-backend/pkg/db/models"
	"github.com/speedsterx/storefront-backend/pkg/enums"
	pkgerrors "github.com/speedsterx/storefront-backend/pkg/errors"
)

type stubOrderStore struct {
	orders map[uuid.UUID]*models.Order
}

func newStubOrderStore(rows ...*models.Order) *stubOrderStore {
	s := &stubOrderStore{orders: map[uuid.UUID]*models.Order{}}
	for _, row := range rows {
		s.orders[row.ID] = row
	}
	return s
}

func (s *stubOrderStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if row, ok := s.orders[id]; ok {
		copied := *row
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrderStore) ListByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.Order, int64, error) {
	var out []models.Order
	for _, row := range s.orders {
		if row.UserID == userID {
			out = append(out, *row)
		}
	}
	return out, int64(len(out)), nil
}

func (s *stubOrderStore) ListAll(ctx context.Context, status *enums.OrderStatus, offset, limit int) ([]models.Order, int64, error) {
	var out []models.Order
	for _, row := range s.orders {
		if status == nil || row.Status == *status {
			out = append(out, *row)
		}
	}
	return out, int64(len(out)), nil
}

func (s *stubOrderStore) UpdateStatuses(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	row := s.orders[id]
	if status, ok := updates["status"].(enums.OrderStatus); ok {
		row.Status = status
	}
	if payment, ok := updates["payment_status"].(enums.PaymentStatus); ok {
		row.PaymentStatus = payment
	}
	return nil
}

func pendingOrder(userID uuid.UUID) *models.Order {
	total, _ := decimal.NewFromString("350")
	return &models.Order{
		ID:            uuid.New(),
		UserID:        userID,
		Status:        enums.OrderStatusPending,
		PaymentStatus: enums.PaymentStatusUnpaid,
		TotalAmount:   total,
	}
}

func newOrderService(t *testing.T, store *stubOrderStore) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Repo: store})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestGetMineHidesOtherUsersOrders(t *testing.T) {
	owner := uuid.New()
	order := pendingOrder(owner)
	svc := newOrderService(t, newStubOrderStore(order))

	_, err := svc.GetMine(context.Background(), uuid.New(), order.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}

	if _, err := svc.GetMine(context.Background(), owner, order.ID); err != nil {
		t.Fatalf("owner must see own order, got %v", err)
	}
}

func TestUpdateStatusRejectsIllegalTransition(t *testing.T) {
	order := pendingOrder(uuid.New())
	svc := newOrderService(t, newStubOrderStore(order))

	_, err := svc.UpdateStatus(context.Background(), order.ID, enums.OrderStatusShipped)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUpdateStatusToPaidSyncsPayment(t *testing.T) {
	order := pendingOrder(uuid.New())
	store := newStubOrderStore(order)
	svc := newOrderService(t, store)

	dto, err := svc.UpdateStatus(context.Background(), order.ID, enums.OrderStatusPaid)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if dto.Status != enums.OrderStatusPaid || dto.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("expected paid/paid, got %s/%s", dto.Status, dto.PaymentStatus)
	}
}

func TestRefundSyncsPaymentStatus(t *testing.T) {
	order := pendingOrder(uuid.New())
	order.Status = enums.OrderStatusShipped
	order.PaymentStatus = enums.PaymentStatusPaid
	svc := newOrderService(t, newStubOrderStore(order))

	dto, err := svc.UpdateStatus(context.Background(), order.ID, enums.OrderStatusRefunded)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if dto.PaymentStatus != enums.PaymentStatusRefunded {
		t.Fatalf("expected refunded payment, got %s", dto.PaymentStatus)
	}
}

func TestMarkPaidIsIdempotent(t *testing.T) {
	order := pendingOrder(uuid.New())
	store := newStubOrderStore(order)
	svc := newOrderService(t, store)

	first, err := svc.MarkPaid(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if first.Status != enums.OrderStatusPaid {
		t.Fatalf("expected paid, got %s", first.Status)
	}

	second, err := svc.MarkPaid(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("repeated confirmation must not fail, got %v", err)
	}
	if second.Status != enums.OrderStatusPaid || second.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("expected stable paid state, got %s/%s", second.Status, second.PaymentStatus)
	}
}

func TestMarkPaidRejectsCancelledOrder(t *testing.T) {
	order := pendingOrder(uuid.New())
	order.Status = enums.OrderStatusCancelled
	svc := newOrderService(t, newStubOrderStore(order))

	_, err := svc.MarkPaid(context.Background(), order.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestListAdminRejectsUnknownStatus(t *testing.T) {
	svc := newOrderService(t, newStubOrderStore())

	bogus := enums.OrderStatus("SETTLED")
	_, err := svc.ListAdmin(context.Background(), &bogus, 1, 10)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
