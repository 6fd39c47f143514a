package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/speedsterx/storefront-backend/api/middleware"
	cartsvc "github.com/speedsterx/storefront-backend/internal/cart"
	pkgerrors "github.com/speedsterx/storefront-backend/pkg/errors"
)

type stubCartService struct {
	cart    cartsvc.CartDTO
	item    cartsvc.CartItemDTO
	err     error
	lastAdd cartsvc.AddItemInput
}

func (s *stubCartService) Add(ctx context.Context, userID uuid.UUID, input cartsvc.AddItemInput) (cartsvc.CartItemDTO, error) {
	s.lastAdd = input
	return s.item, s.err
}

func (s *stubCartService) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (cartsvc.CartItemDTO, error) {
	return s.item, s.err
}

func (s *stubCartService) Remove(ctx context.Context, userID, itemID uuid.UUID) error {
	return s.err
}

func (s *stubCartService) List(ctx context.Context, userID uuid.UUID) (cartsvc.CartDTO, error) {
	return s.cart, s.err
}

func authedRequest(method, target string, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	return req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
}

func TestCartListSuccess(t *testing.T) {
	svc := &stubCartService{cart: cartsvc.CartDTO{
		Subtotal:    decimal.NewFromInt(300),
		ShippingFee: decimal.NewFromInt(50),
		Total:       decimal.NewFromInt(350),
	}}
	handler := CartList(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodGet, "/api/v1/cart", ""))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data cartsvc.CartDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Total.String() != "350" {
		t.Fatalf("unexpected total: %s", envelope.Data.Total)
	}
}

func TestCartListMissingUserContext(t *testing.T) {
	handler := CartList(&stubCartService{}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCartAddRejectsZeroQuantity(t *testing.T) {
	svc := &stubCartService{}
	handler := CartAdd(svc, nil)

	body := `{"product_id":"` + uuid.NewString() + `","quantity":0}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/cart", body))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.lastAdd.Quantity != 0 {
		t.Fatal("invalid payload must not reach the service")
	}
}

func TestCartAddSurfacesNotFound(t *testing.T) {
	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeNotFound, "product not found")}
	handler := CartAdd(svc, nil)

	body := `{"product_id":"` + uuid.NewString() + `","quantity":2}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/cart", body))

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
