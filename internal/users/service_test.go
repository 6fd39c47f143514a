package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/speedsterx/storefront-backend/pkg/db/models"
	"github.com/speedsterx/storefront-backend/pkg/enums"
	pkgerrors "github.com/speedsterx/storefront-backend/pkg/errors"
)

type stubUserStore struct {
	users       map[uuid.UUID]*models.User
	roleUpdates map[uuid.UUID]enums.UserRole
	deleted     []uuid.UUID
}

func newStubUserStore(users ...*models.User) *stubUserStore {
	s := &stubUserStore{
		users:       map[uuid.UUID]*models.User{},
		roleUpdates: map[uuid.UUID]enums.UserRole{},
	}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *stubUserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserStore) List(ctx context.Context, search string, offset, limit int) ([]models.User, int64, error) {
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

func (s *stubUserStore) UpdateRole(ctx context.Context, id uuid.UUID, role enums.UserRole) error {
	s.roleUpdates[id] = role
	s.users[id].Role = role
	return nil
}

func (s *stubUserStore) UpdateProfile(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if name, ok := updates["name"].(string); ok {
		s.users[id].Name = name
	}
	return nil
}

func (s *stubUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.deleted = append(s.deleted, id)
	delete(s.users, id)
	return nil
}

func testUser(role enums.UserRole) *models.User {
	return &models.User{
		ID:    uuid.New(),
		Name:  "Test User",
		Email: "user@example.com",
		Role:  role,
	}
}

func TestChangeRoleManagerPromotion(t *testing.T) {
	target := testUser(enums.UserRoleCustomer)
	store := newStubUserStore(target)
	svc, err := NewService(ServiceParams{Repo: store})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	dto, err := svc.ChangeRole(context.Background(), uuid.New(), target.ID, enums.UserRoleManager)
	if err != nil {
		t.Fatalf("change role: %v", err)
	}
	if dto.Role != enums.UserRoleManager {
		t.Fatalf("expected MANAGER, got %s", dto.Role)
	}
	if store.roleUpdates[target.ID] != enums.UserRoleManager {
		t.Fatal("expected role update persisted")
	}
}

func TestChangeRoleCannotGrantAdmin(t *testing.T) {
	target := testUser(enums.UserRoleManager)
	svc, _ := NewService(ServiceParams{Repo: newStubUserStore(target)})

	_, err := svc.ChangeRole(context.Background(), uuid.New(), target.ID, enums.UserRoleAdmin)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestChangeRoleCannotDemoteAdmin(t *testing.T) {
	target := testUser(enums.UserRoleAdmin)
	svc, _ := NewService(ServiceParams{Repo: newStubUserStore(target)})

	_, err := svc.ChangeRole(context.Background(), uuid.New(), target.ID, enums.UserRoleCustomer)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestChangeRoleAdminToAdminIsNoop(t *testing.T) {
	target := testUser(enums.UserRoleAdmin)
	store := newStubUserStore(target)
	svc, _ := NewService(ServiceParams{Repo: store})

	dto, err := svc.ChangeRole(context.Background(), uuid.New(), target.ID, enums.UserRoleAdmin)
	if err != nil {
		t.Fatalf("expected noop success, got %v", err)
	}
	if dto.Role != enums.UserRoleAdmin {
		t.Fatalf("unexpected role %s", dto.Role)
	}
	if len(store.roleUpdates) != 0 {
		t.Fatal("no update should be written for a noop")
	}
}

func TestDeleteUserGuards(t *testing.T) {
	admin := testUser(enums.UserRoleAdmin)
	customer := testUser(enums.UserRoleCustomer)
	actor := uuid.New()
	store := newStubUserStore(admin, customer)
	svc, _ := NewService(ServiceParams{Repo: store})
	ctx := context.Background()

	if err := svc.DeleteUser(ctx, actor, actor); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for self-delete, got %v", err)
	}
	if err := svc.DeleteUser(ctx, actor, admin.ID); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for admin delete, got %v", err)
	}
	if err := svc.DeleteUser(ctx, actor, customer.ID); err != nil {
		t.Fatalf("expected customer delete to succeed, got %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != customer.ID {
		t.Fatal("expected customer removed")
	}
}

func TestDeleteUserNotFound(t *testing.T) {
	svc, _ := NewService(ServiceParams{Repo: newStubUserStore()})
	err := svc.DeleteUser(context.Background(), uuid.New(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCurrentRoleReadsStore(t *testing.T) {
	target := testUser(enums.UserRoleManager)
	store := newStubUserStore(target)
	svc, _ := NewService(ServiceParams{Repo: store})

	role, err := svc.CurrentRole(context.Background(), target.ID)
	if err != nil {
		t.Fatalf("current role: %v", err)
	}
	if role != enums.UserRoleManager {
		t.Fatalf("unexpected role %s", role)
	}

	store.users[target.ID].Role = enums.UserRoleCustomer
	role, err = svc.CurrentRole(context.Background(), target.ID)
	if err != nil {
		t.Fatalf("current role after demotion: %v", err)
	}
	if role != enums.UserRoleCustomer {
		t.Fatal("expected demotion to be visible immediately")
	}
}
