package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	addrsvc "github.com/speedsterx/storefront-backend/internal/addresses"
	pkgerrors "github.com/speedsterx/storefront-backend/pkg/errors"
)

type stubAddressService struct {
	address addrsvc.AddressDTO
	list    []addrsvc.AddressDTO
	err     error
}

func (s *stubAddressService) Create(ctx context.Context, userID uuid.UUID, input addrsvc.CreateAddressInput) (addrsvc.AddressDTO, error) {
	return s.address, s.err
}

func (s *stubAddressService) Update(ctx context.Context, userID, id uuid.UUID, input addrsvc.UpdateAddressInput) (addrsvc.AddressDTO, error) {
	return s.address, s.err
}

func (s *stubAddressService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.err
}

func (s *stubAddressService) List(ctx context.Context, userID uuid.UUID) ([]addrsvc.AddressDTO, error) {
	return s.list, s.err
}

func TestAddressCreateReturnsCreated(t *testing.T) {
	svc := &stubAddressService{address: addrsvc.AddressDTO{ID: uuid.New(), IsDefault: true}}
	handler := AddressCreate(svc, nil)

	body := `{"full_name":"Arjun Rao","phone":"9876543210","line1":"14 MG Road","city":"Bengaluru","state":"Karnataka","postal_code":"560001"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/account/addresses", body))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}

	var envelope struct {
		Data addrsvc.AddressDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Data.IsDefault {
		t.Fatal("expected created address in response")
	}
}

func TestAddressUpdateNotOwned(t *testing.T) {
	svc := &stubAddressService{err: pkgerrors.New(pkgerrors.CodeNotFound, "address not found")}
	handler := AddressUpdate(svc, nil)

	req := authedRequest(http.MethodPatch, "/api/v1/account/addresses/"+uuid.NewString(), `{"city":"Pune"}`)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("addressID", uuid.NewString())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestAddressDeleteStatus(t *testing.T) {
	handler := AddressDelete(&stubAddressService{}, nil)

	req := authedRequest(http.MethodDelete, "/api/v1/account/addresses/"+uuid.NewString(), "")
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("addressID", uuid.NewString())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data map[string]string `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data["status"] != "deleted" {
		t.Fatalf("unexpected delete payload: %v", envelope.Data)
	}
}
