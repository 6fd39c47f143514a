package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	ordersvc "github.com/speedsterx/storefront-backend/internal/orders"
	"github.com/speedsterx/storefront-backend/pkg/enums"
	pkgerrors "github.com/speedsterx/storefront-backend/pkg/errors"
)

type stubOrderService struct {
	order        ordersvc.OrderDTO
	list         ordersvc.OrderListDTO
	err          error
	markedPaidID uuid.UUID
}

func (s *stubOrderService) ListMine(ctx context.Context, userID uuid.UUID, page, limit int) (ordersvc.OrderListDTO, error) {
	return s.list, s.err
}

func (s *stubOrderService) GetMine(ctx context.Context, userID, orderID uuid.UUID) (ordersvc.OrderDTO, error) {
	return s.order, s.err
}

func (s *stubOrderService) ListAdmin(ctx context.Context, status *enums.OrderStatus, page, limit int) (ordersvc.OrderListDTO, error) {
	return s.list, s.err
}

func (s *stubOrderService) GetAdmin(ctx context.Context, orderID uuid.UUID) (ordersvc.OrderDTO, error) {
	return s.order, s.err
}

func (s *stubOrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus) (ordersvc.OrderDTO, error) {
	return s.order, s.err
}

func (s *stubOrderService) MarkPaid(ctx context.Context, orderID uuid.UUID) (ordersvc.OrderDTO, error) {
	s.markedPaidID = orderID
	return s.order, s.err
}

func webhookRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payment", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestPaymentWebhookMarksOrderPaid(t *testing.T) {
	orderID := uuid.New()
	svc := &stubOrderService{order: ordersvc.OrderDTO{ID: orderID, PaymentStatus: enums.PaymentStatusPaid}}
	handler := PaymentWebhook(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, webhookRequest(`{"order_id":"`+orderID.String()+`","event":"payment.captured"}`))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.markedPaidID != orderID {
		t.Fatalf("MarkPaid called with %s, want %s", svc.markedPaidID, orderID)
	}
}

func TestPaymentWebhookRejectsUnknownEvent(t *testing.T) {
	svc := &stubOrderService{}
	handler := PaymentWebhook(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, webhookRequest(`{"order_id":"`+uuid.NewString()+`","event":"payment.refunded"}`))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.markedPaidID != uuid.Nil {
		t.Fatal("unknown events must not reach the service")
	}
}

func TestPaymentWebhookUnknownOrder(t *testing.T) {
	svc := &stubOrderService{err: pkgerrors.New(pkgerrors.CodeNotFound, "order not found")}
	handler := PaymentWebhook(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, webhookRequest(`{"order_id":"`+uuid.NewString()+`","event":"payment.captured"}`))

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
