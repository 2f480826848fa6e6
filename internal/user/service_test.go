package user

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/tkdadmin/internal/model"
)

// --- モック ---

type mockUserRepo struct {
	users          map[string]*model.User
	listFn         func(ctx context.Context) ([]*model.User, error)
	updateActiveFn func(ctx context.Context, id string, active bool) (bool, error)
	updateRoleFn   func(ctx context.Context, id string, role model.Role) (bool, error)
}

func newMockUserRepo(users ...*model.User) *mockUserRepo {
	m := &mockUserRepo{users: make(map[string]*model.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return m.users[id], nil
}
func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, nil
}
func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	return nil
}
func (m *mockUserRepo) List(ctx context.Context) ([]*model.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}
func (m *mockUserRepo) UpdateRole(ctx context.Context, id string, role model.Role) (bool, error) {
	if m.updateRoleFn != nil {
		return m.updateRoleFn(ctx, id, role)
	}
	u, ok := m.users[id]
	if ok {
		u.Role = role
	}
	return ok, nil
}
func (m *mockUserRepo) UpdateActive(ctx context.Context, id string, active bool) (bool, error) {
	if m.updateActiveFn != nil {
		return m.updateActiveFn(ctx, id, active)
	}
	u, ok := m.users[id]
	if ok {
		u.IsActive = active
	}
	return ok, nil
}

type mockRevoker struct {
	revoked []string
	err     error
}

func (m *mockRevoker) RevokeAll(ctx context.Context, userID string) error {
	m.revoked = append(m.revoked, userID)
	return m.err
}

func assertAPIErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %T (%v)", err, err)
	}
	if apiErr.Code != code {
		t.Errorf("Code = %q, want %q", apiErr.Code, code)
	}
}

var admin = &model.User{ID: "admin-1", Role: model.RoleAdmin, IsActive: true}

// --- テスト ---

// TestService_List_EmptyIsNotNil はユーザーがいない場合に空スライスを返すことを検証する。
func TestService_List_EmptyIsNotNil(t *testing.T) {
	svc := NewService(newMockUserRepo(), &mockRevoker{})

	users, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if users == nil || len(users) != 0 {
		t.Errorf("List() = %v, want empty slice", users)
	}
}

// TestService_SetActive_DeactivateRevokesSessions は無効化で全セッションが破棄されることを検証する。
func TestService_SetActive_DeactivateRevokesSessions(t *testing.T) {
	target := &model.User{ID: "op-1", Role: model.RoleOperator, IsActive: true}
	revoker := &mockRevoker{}
	svc := NewService(newMockUserRepo(target), revoker)

	got, err := svc.SetActive(context.Background(), admin, "op-1", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.IsActive {
		t.Error("expected user to be inactive")
	}
	if len(revoker.revoked) != 1 || revoker.revoked[0] != "op-1" {
		t.Errorf("revoked = %v, want [op-1]", revoker.revoked)
	}
}

// TestService_SetActive_ActivateKeepsSessions は有効化ではセッションを破棄しないことを検証する。
func TestService_SetActive_ActivateKeepsSessions(t *testing.T) {
	target := &model.User{ID: "op-1", Role: model.RoleOperator, IsActive: false}
	revoker := &mockRevoker{}
	svc := NewService(newMockUserRepo(target), revoker)

	got, err := svc.SetActive(context.Background(), admin, "op-1", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.IsActive {
		t.Error("expected user to be active")
	}
	if len(revoker.revoked) != 0 {
		t.Errorf("revoked = %v, want none", revoker.revoked)
	}
}

// TestService_SetActive_CannotDeactivateSelf は自分自身を無効化できないことを検証する。
func TestService_SetActive_CannotDeactivateSelf(t *testing.T) {
	revoker := &mockRevoker{}
	svc := NewService(newMockUserRepo(admin), revoker)

	_, err := svc.SetActive(context.Background(), admin, admin.ID, false)

	assertAPIErrorCode(t, err, model.ErrCodeSelfModification)
	if len(revoker.revoked) != 0 {
		t.Error("sessions should not be revoked")
	}
}

// TestService_SetActive_UnknownUser は存在しないユーザーでUSER_NOT_FOUNDを返すことを検証する。
func TestService_SetActive_UnknownUser(t *testing.T) {
	svc := NewService(newMockUserRepo(), &mockRevoker{})

	_, err := svc.SetActive(context.Background(), admin, "ghost", false)

	assertAPIErrorCode(t, err, model.ErrCodeUserNotFound)
}

// TestService_SetActive_RevokeFailure はセッション破棄の失敗をエラーとして返すことを検証する。
func TestService_SetActive_RevokeFailure(t *testing.T) {
	target := &model.User{ID: "op-1", Role: model.RoleOperator, IsActive: true}
	svc := NewService(newMockUserRepo(target), &mockRevoker{err: errors.New("redis down")})

	_, err := svc.SetActive(context.Background(), admin, "op-1", false)
	if err == nil {
		t.Fatal("expected error")
	}
}

// TestService_ChangeRole はロール変更の正常系と異常系を検証する。
func TestService_ChangeRole(t *testing.T) {
	tests := []struct {
		name     string
		targetID string
		role     model.Role
		wantCode string
	}{
		{name: "昇格", targetID: "coach-1", role: model.RoleAdmin},
		{name: "定義外のロール", targetID: "coach-1", role: model.Role("owner"), wantCode: model.ErrCodeValidation},
		{name: "自分自身", targetID: "super-1", role: model.RoleAdmin, wantCode: model.ErrCodeSelfModification},
		{name: "存在しないユーザー", targetID: "ghost", role: model.RoleAdmin, wantCode: model.ErrCodeUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actor := &model.User{ID: "super-1", Role: model.RoleSuperAdmin, IsActive: true}
			coach := &model.User{ID: "coach-1", Role: model.RoleCoachingStaff, IsActive: true}
			svc := NewService(newMockUserRepo(actor, coach), &mockRevoker{})

			got, err := svc.ChangeRole(context.Background(), actor, tt.targetID, tt.role)

			if tt.wantCode != "" {
				assertAPIErrorCode(t, err, tt.wantCode)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Role != tt.role {
				t.Errorf("Role = %q, want %q", got.Role, tt.role)
			}
		})
	}
}
