package addresses

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/speedsterx/storefront-backend/pkg/db/models"
	pkgerrors "github.com/speedsterx/storefront-backend/pkg/errors"
)

type stubAddressStore struct {
	rows map[uuid.UUID]*models.Address
}

func newStubAddressStore() *stubAddressStore {
	return &stubAddressStore{rows: map[uuid.UUID]*models.Address{}}
}

func (s *stubAddressStore) Create(ctx context.Context, address *models.Address) error {
	address.ID = uuid.New()
	if address.IsDefault {
		for _, row := range s.rows {
			if row.UserID == address.UserID {
				row.IsDefault = false
			}
		}
	}
	copied := *address
	s.rows[address.ID] = &copied
	return nil
}

func (s *stubAddressStore) Update(ctx context.Context, userID, id uuid.UUID, updates map[string]any) error {
	row := s.rows[id]
	if isDefault, ok := updates["is_default"].(bool); ok && isDefault {
		for _, other := range s.rows {
			if other.UserID == userID {
				other.IsDefault = false
			}
		}
		row.IsDefault = true
	}
	if name, ok := updates["full_name"].(string); ok {
		row.FullName = name
	}
	return nil
}

func (s *stubAddressStore) Delete(ctx context.Context, id uuid.UUID) error {
	delete(s.rows, id)
	return nil
}

func (s *stubAddressStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Address, error) {
	if row, ok := s.rows[id]; ok {
		copied := *row
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubAddressStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	var out []models.Address
	for _, row := range s.rows {
		if row.UserID == userID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (s *stubAddressStore) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	for _, row := range s.rows {
		if row.UserID == userID {
			count++
		}
	}
	return count, nil
}

func newAddressService(t *testing.T, store *stubAddressStore) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Repo: store})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func createInput() CreateAddressInput {
	return CreateAddressInput{
		FullName:   "Arjun Rao",
		Phone:      "9876543210",
		Line1:      "12 MG Road",
		City:       "Bengaluru",
		State:      "Karnataka",
		PostalCode: "560001",
	}
}

func TestFirstAddressBecomesDefault(t *testing.T) {
	store := newStubAddressStore()
	svc := newAddressService(t, store)
	user := uuid.New()

	first, err := svc.Create(context.Background(), user, createInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !first.IsDefault {
		t.Fatal("first address must be default")
	}

	second, err := svc.Create(context.Background(), user, createInput())
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if second.IsDefault {
		t.Fatal("second address must not steal default implicitly")
	}
}

func TestCountryDefaultsWhenBlank(t *testing.T) {
	store := newStubAddressStore()
	svc := newAddressService(t, store)

	dto, err := svc.Create(context.Background(), uuid.New(), createInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if dto.Country != "India" {
		t.Fatalf("expected default country, got %q", dto.Country)
	}
}

func TestAddressOwnershipHiddenAsNotFound(t *testing.T) {
	store := newStubAddressStore()
	svc := newAddressService(t, store)
	owner, intruder := uuid.New(), uuid.New()

	created, err := svc.Create(context.Background(), owner, createInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	name := "Someone Else"
	_, err = svc.Update(context.Background(), intruder, created.ID, UpdateAddressInput{FullName: &name})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("update: expected not found, got %v", err)
	}

	err = svc.Delete(context.Background(), intruder, created.ID)
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("delete: expected not found, got %v", err)
	}
}

func TestCannotUnsetDefaultDirectly(t *testing.T) {
	store := newStubAddressStore()
	svc := newAddressService(t, store)
	user := uuid.New()

	created, err := svc.Create(context.Background(), user, createInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	off := false
	_, err = svc.Update(context.Background(), user, created.ID, UpdateAddressInput{IsDefault: &off})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
