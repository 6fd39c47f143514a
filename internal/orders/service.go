package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/speedsterx/storefront-backend/pkg/db/models"
	"github.com/speedsterx/storefront-backend/pkg/enums"
	pkgerrors "github.com/speedsterx/storefront-backend/pkg/errors"
	"github.com/speedsterx/storefront-backend/pkg/pagination"
)

type orderStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.Order, int64, error)
	ListAll(ctx context.Context, status *enums.OrderStatus, offset, limit int) ([]models.Order, int64, error)
	UpdateStatuses(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

// ServiceParams groups dependencies for the orders service.
type ServiceParams struct {
	Repo orderStore
}

// Service exposes order history for customers and order management for staff.
type Service interface {
	ListMine(ctx context.Context, userID uuid.UUID, page, limit int) (OrderListDTO, error)
	GetMine(ctx context.Context, userID, orderID uuid.UUID) (OrderDTO, error)

	ListAdmin(ctx context.Context, status *enums.OrderStatus, page, limit int) (OrderListDTO, error)
	GetAdmin(ctx context.Context, orderID uuid.UUID) (OrderDTO, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus) (OrderDTO, error)

	MarkPaid(ctx context.Context, orderID uuid.UUID) (OrderDTO, error)
}

type service struct {
	repo orderStore
}

// NewService builds an orders service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "orders repo is required")
	}
	return &service{repo: params.Repo}, nil
}

// ListMine returns a page of the caller's own orders.
func (s *service) ListMine(ctx context.Context, userID uuid.UUID, page, limit int) (OrderListDTO, error) {
	limit = pagination.NormalizeLimit(limit)
	page = pagination.NormalizePage(page)
	rows, total, err := s.repo.ListByUser(ctx, userID, pagination.Offset(page, limit), limit)
	if err != nil {
		return OrderListDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return toListDTO(rows, total, page, limit), nil
}

// GetMine returns one of the caller's orders. Other users' orders are hidden
// behind not found.
func (s *service) GetMine(ctx context.Context, userID, orderID uuid.UUID) (OrderDTO, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return OrderDTO{}, err
	}
	if order.UserID != userID {
		return OrderDTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return ToDTO(order), nil
}

// ListAdmin returns a page of all orders, optionally filtered by status.
func (s *service) ListAdmin(ctx context.Context, status *enums.OrderStatus, page, limit int) (OrderListDTO, error) {
	if status != nil && !status.IsValid() {
		return OrderListDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}
	limit = pagination.NormalizeLimit(limit)
	page = pagination.NormalizePage(page)
	rows, total, err := s.repo.ListAll(ctx, status, pagination.Offset(page, limit), limit)
	if err != nil {
		return OrderListDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return toListDTO(rows, total, page, limit), nil
}

// GetAdmin returns any order by id.
func (s *service) GetAdmin(ctx context.Context, orderID uuid.UUID) (OrderDTO, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return OrderDTO{}, err
	}
	return ToDTO(order), nil
}

// UpdateStatus applies one legal lifecycle transition. Payment status follows
// where the transition implies it: PAID marks the order paid, REFUNDED marks
// it refunded.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus) (OrderDTO, error) {
	if !next.IsValid() {
		return OrderDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return OrderDTO{}, err
	}
	if !order.Status.CanTransitionTo(next) {
		return OrderDTO{}, pkgerrors.New(pkgerrors.CodeConflict, "illegal status transition")
	}

	updates := map[string]any{"status": next}
	switch next {
	case enums.OrderStatusPaid:
		updates["payment_status"] = enums.PaymentStatusPaid
	case enums.OrderStatusRefunded:
		updates["payment_status"] = enums.PaymentStatusRefunded
	}

	if err := s.repo.UpdateStatuses(ctx, order.ID, updates); err != nil {
		return OrderDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
	}

	updated, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return OrderDTO{}, err
	}
	return ToDTO(updated), nil
}

// MarkPaid records a successful payment confirmation. Repeated confirmations
// for an already paid order are a no-op so webhook retries stay safe.
func (s *service) MarkPaid(ctx context.Context, orderID uuid.UUID) (OrderDTO, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return OrderDTO{}, err
	}
	if order.PaymentStatus == enums.PaymentStatusPaid {
		return ToDTO(order), nil
	}
	if !order.Status.CanTransitionTo(enums.OrderStatusPaid) {
		return OrderDTO{}, pkgerrors.New(pkgerrors.CodeConflict, "order cannot be paid in its current state")
	}

	updates := map[string]any{
		"status":         enums.OrderStatusPaid,
		"payment_status": enums.PaymentStatusPaid,
	}
	if err := s.repo.UpdateStatuses(ctx, order.ID, updates); err != nil {
		return OrderDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
	}

	updated, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return OrderDTO{}, err
	}
	return ToDTO(updated), nil
}

func (s *service) loadOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}
