package users

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/speedsterx/storefront-backend/pkg/db/models"
	"github.com/speedsterx/storefront-backend/pkg/enums"
	pkgerrors "github.com/speedsterx/storefront-backend/pkg/errors"
	"github.com/speedsterx/storefront-backend/pkg/pagination"
)

type userStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, search string, offset, limit int) ([]models.User, int64, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role enums.UserRole) error
	UpdateProfile(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ServiceParams groups dependencies for the users service.
type ServiceParams struct {
	Repo userStore
}

// Service exposes account reads plus the admin-only user management rules.
type Service interface {
	CurrentRole(ctx context.Context, userID uuid.UUID) (enums.UserRole, error)
	Get(ctx context.Context, userID uuid.UUID) (UserDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, dto UpdateProfileDTO) (UserDTO, error)
	ListUsers(ctx context.Context, search string, page, limit int) (UserListDTO, error)
	ChangeRole(ctx context.Context, actorID, targetID uuid.UUID, role enums.UserRole) (UserDTO, error)
	DeleteUser(ctx context.Context, actorID, targetID uuid.UUID) error
}

type service struct {
	repo userStore
}

// NewService builds a users service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "users repo is required")
	}
	return &service{repo: params.Repo}, nil
}

// CurrentRole reads the role straight from the database so privileged
// middleware never trusts a stale JWT claim.
func (s *service) CurrentRole(ctx context.Context, userID uuid.UUID) (enums.UserRole, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.Role, nil
}

// Get returns the user's own profile.
func (s *service) Get(ctx context.Context, userID uuid.UUID) (UserDTO, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return UserDTO{}, err
	}
	return ToDTO(user), nil
}

// UpdateProfile applies self-service edits to name and phone.
func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, dto UpdateProfileDTO) (UserDTO, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return UserDTO{}, err
	}

	updates := map[string]any{}
	if dto.Name != nil {
		name := strings.TrimSpace(*dto.Name)
		if name == "" {
			return UserDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		updates["name"] = name
	}
	if dto.Phone != nil {
		updates["phone"] = strings.TrimSpace(*dto.Phone)
	}

	if err := s.repo.UpdateProfile(ctx, user.ID, updates); err != nil {
		return UserDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile")
	}
	updated, err := s.loadUser(ctx, userID)
	if err != nil {
		return UserDTO{}, err
	}
	return ToDTO(updated), nil
}

// ListUsers pages through all accounts for the admin console.
func (s *service) ListUsers(ctx context.Context, search string, page, limit int) (UserListDTO, error) {
	page = pagination.NormalizePage(page)
	limit = pagination.NormalizeLimit(limit)

	rows, total, err := s.repo.List(ctx, search, pagination.Offset(page, limit), limit)
	if err != nil {
		return UserListDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}

	out := make([]UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, ToDTO(&rows[i]))
	}
	return UserListDTO{Users: out, Total: total, Page: page, Limit: limit}, nil
}

// ChangeRole moves a user between CUSTOMER and MANAGER. ADMIN is a fixed
// point: nobody can be promoted into it through the API, and nobody holding
// it can be moved out of it.
func (s *service) ChangeRole(ctx context.Context, actorID, targetID uuid.UUID, role enums.UserRole) (UserDTO, error) {
	if !role.IsValid() {
		return UserDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}

	target, err := s.loadUser(ctx, targetID)
	if err != nil {
		return UserDTO{}, err
	}

	if target.Role == enums.UserRoleAdmin && role != enums.UserRoleAdmin {
		return UserDTO{}, pkgerrors.New(pkgerrors.CodeForbidden, "admin role cannot be removed")
	}
	if target.Role != enums.UserRoleAdmin && role == enums.UserRoleAdmin {
		return UserDTO{}, pkgerrors.New(pkgerrors.CodeForbidden, "admin role cannot be granted")
	}

	if target.Role != role {
		if err := s.repo.UpdateRole(ctx, target.ID, role); err != nil {
			return UserDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update role")
		}
		target.Role = role
	}
	return ToDTO(target), nil
}

// DeleteUser removes an account. Admin accounts and the acting user are off
// limits.
func (s *service) DeleteUser(ctx context.Context, actorID, targetID uuid.UUID) error {
	if actorID == targetID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "cannot delete your own account")
	}

	target, err := s.loadUser(ctx, targetID)
	if err != nil {
		return err
	}
	if target.Role == enums.UserRoleAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "admin accounts cannot be deleted")
	}

	if err := s.repo.Delete(ctx, target.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete user")
	}
	return nil
}

func (s *service) loadUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}
