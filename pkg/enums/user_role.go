package enums

import "fmt"

// UserRole represents the account-level permissions tier.
type UserRole string

const (
	UserRoleAdmin    UserRole = "ADMIN"
	UserRoleManager  UserRole = "MANAGER"
	UserRoleCustomer UserRole = "CUSTOMER"
)

var validUserRoles = []UserRole{
	UserRoleAdmin,
	UserRoleManager,
	UserRoleCustomer,
}

// String implements fmt.Stringer.
func (u UserRole) String() string {
	return string(u)
}

// IsValid reports whether the value is a known UserRole.
func (u UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == u {
			return true
		}
	}
	return false
}

// IsAdminOrManager reports whether the role may mutate catalog, order, and page entities.
func (u UserRole) IsAdminOrManager() bool {
	return u == UserRoleAdmin || u == UserRoleManager
}

// CanManageAdmins reports whether the role may view and mutate user accounts.
func (u UserRole) CanManageAdmins() bool {
	return u == UserRoleAdmin
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
