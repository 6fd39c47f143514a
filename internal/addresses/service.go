package addresses

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/speedsterx/storefront-backend/pkg/db/models"
	pkgerrors "github.com/speedsterx/storefront-backend/pkg/errors"
)

const defaultCountry = "India"

type addressStore interface {
	Create(ctx context.Context, address *models.Address) error
	Update(ctx context.Context, userID, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Address, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

// ServiceParams groups dependencies for the addresses service.
type ServiceParams struct {
	Repo addressStore
}

// Service exposes the per-user address book.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateAddressInput) (AddressDTO, error)
	Update(ctx context.Context, userID, id uuid.UUID, input UpdateAddressInput) (AddressDTO, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error)
}

type service struct {
	repo addressStore
}

// NewService builds an addresses service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "addresses repo is required")
	}
	return &service{repo: params.Repo}, nil
}

// Create saves an address. The user's first address becomes the default
// regardless of the flag in the request.
func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateAddressInput) (AddressDTO, error) {
	count, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		return AddressDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count addresses")
	}

	country := strings.TrimSpace(input.Country)
	if country == "" {
		country = defaultCountry
	}

	address := &models.Address{
		UserID:     userID,
		FullName:   strings.TrimSpace(input.FullName),
		Phone:      strings.TrimSpace(input.Phone),
		Line1:      strings.TrimSpace(input.Line1),
		Line2:      input.Line2,
		City:       strings.TrimSpace(input.City),
		State:      strings.TrimSpace(input.State),
		PostalCode: strings.TrimSpace(input.PostalCode),
		Country:    country,
		IsDefault:  input.IsDefault || count == 0,
	}
	if err := s.repo.Create(ctx, address); err != nil {
		return AddressDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create address")
	}
	return toDTO(address), nil
}

// Update applies partial edits to an owned address.
func (s *service) Update(ctx context.Context, userID, id uuid.UUID, input UpdateAddressInput) (AddressDTO, error) {
	address, err := s.loadOwned(ctx, userID, id)
	if err != nil {
		return AddressDTO{}, err
	}

	updates := map[string]any{}
	setTrimmed := func(column string, value *string) error {
		if value == nil {
			return nil
		}
		trimmed := strings.TrimSpace(*value)
		if trimmed == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, column+" cannot be empty")
		}
		updates[column] = trimmed
		return nil
	}

	for column, value := range map[string]*string{
		"full_name":   input.FullName,
		"phone":       input.Phone,
		"line1":       input.Line1,
		"city":        input.City,
		"state":       input.State,
		"postal_code": input.PostalCode,
		"country":     input.Country,
	} {
		if err := setTrimmed(column, value); err != nil {
			return AddressDTO{}, err
		}
	}
	if input.Line2 != nil {
		updates["line2"] = *input.Line2
	}
	if input.IsDefault != nil {
		if !*input.IsDefault && address.IsDefault {
			return AddressDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "set another address as default instead")
		}
		updates["is_default"] = *input.IsDefault
	}

	if err := s.repo.Update(ctx, userID, address.ID, updates); err != nil {
		return AddressDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update address")
	}

	updated, err := s.loadOwned(ctx, userID, id)
	if err != nil {
		return AddressDTO{}, err
	}
	return toDTO(updated), nil
}

// Delete removes an owned address.
func (s *service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	address, err := s.loadOwned(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, address.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete address")
	}
	return nil
}

// List returns the caller's address book, default first.
func (s *service) List(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addresses")
	}
	out := make([]AddressDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toDTO(&rows[i]))
	}
	return out, nil
}

// loadOwned hides other users' addresses behind not found.
func (s *service) loadOwned(ctx context.Context, userID, id uuid.UUID) (*models.Address, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address id is required")
	}
	address, err := s.repo.FindByID(ctx, id)
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
