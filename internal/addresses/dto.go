package addresses

import (
	"time"

	"github.com/google/uuid"

	"github.com/speedsterx/storefront-backend/pkg/db/models"
)

// CreateAddressInput adds a shipping address to the caller's address book.
type CreateAddressInput struct {
	FullName   string  `json:"full_name" validate:"required,min=2,max=120"`
	Phone      string  `json:"phone" validate:"required,min=6,max=20"`
	Line1      string  `json:"line1" validate:"required,min=3,max=200"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city" validate:"required,min=2,max=100"`
	State      string  `json:"state" validate:"required,min=2,max=100"`
	PostalCode string  `json:"postal_code" validate:"required,min=3,max=20"`
	Country    string  `json:"country,omitempty"`
	IsDefault  bool    `json:"is_default,omitempty"`
}

// UpdateAddressInput applies partial edits; nil fields are untouched.
type UpdateAddressInput struct {
	FullName   *string `json:"full_name,omitempty" validate:"omitempty,min=2,max=120"`
	Phone      *string `json:"phone,omitempty" validate:"omitempty,min=6,max=20"`
	Line1      *string `json:"line1,omitempty" validate:"omitempty,min=3,max=200"`
	Line2      *string `json:"line2,omitempty"`
	City       *string `json:"city,omitempty" validate:"omitempty,min=2,max=100"`
	State      *string `json:"state,omitempty" validate:"omitempty,min=2,max=100"`
	PostalCode *string `json:"postal_code,omitempty" validate:"omitempty,min=3,max=20"`
	Country    *string `json:"country,omitempty"`
	IsDefault  *bool   `json:"is_default,omitempty"`
}

// AddressDTO is the API shape of an address.
type AddressDTO struct {
	ID         uuid.UUID `json:"id"`
	FullName   string    `json:"full_name"`
	Phone      string    `json:"phone"`
	Line1      string    `json:"line1"`
	Line2      *string   `json:"line2,omitempty"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	PostalCode string    `json:"postal_code"`
	Country    string    `json:"country"`
	IsDefault  bool      `json:"is_default"`
	CreatedAt  time.Time `json:"created_at"`
}

func toDTO(a *models.Address) AddressDTO {
	return AddressDTO{
		ID:         a.ID,
		FullName:   a.FullName,
		Phone:      a.Phone,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		IsDefault:  a.IsDefault,
		CreatedAt:  a.CreatedAt,
	}
}
