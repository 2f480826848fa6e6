package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/tkdadmin/internal/middleware"
	"github.com/hitoshi/tkdadmin/internal/model"
)

// --- モック定義 ---

type mockUserService struct {
	listFn       func(ctx context.Context) ([]*model.User, error)
	setActiveFn  func(ctx context.Context, actor *model.User, userID string, active bool) (*model.User, error)
	changeRoleFn func(ctx context.Context, actor *model.User, userID string, role model.Role) (*model.User, error)
}

func (m *mockUserService) List(ctx context.Context) ([]*model.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockUserService) SetActive(ctx context.Context, actor *model.User, userID string, active bool) (*model.User, error) {
	if m.setActiveFn != nil {
		return m.setActiveFn(ctx, actor, userID, active)
	}
	return nil, errors.New("not implemented")
}

func (m *mockUserService) ChangeRole(ctx context.Context, actor *model.User, userID string, role model.Role) (*model.User, error) {
	if m.changeRoleFn != nil {
		return m.changeRoleFn(ctx, actor, userID, role)
	}
	return nil, errors.New("not implemented")
}

// --- ヘルパー ---

var testAdmin = &model.User{ID: "admin-1", Email: "admin@example.com", Role: model.RoleAdmin, IsActive: true}

// withURLParams はchiのURLパラメータを設定したリクエストを返す。
func withURLParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// asUser は認証済みユーザーをコンテキストに設定したリクエストを返す。
func asUser(req *http.Request, user *model.User) *http.Request {
	return req.WithContext(middleware.ContextWithUser(req.Context(), user))
}

// --- テスト ---

func TestUserHandler_ListUsers(t *testing.T) {
	svc := &mockUserService{
		listFn: func(ctx context.Context) ([]*model.User, error) {
			return []*model.User{testAdmin, testOperator}, nil
		},
	}
	h := NewUserHandler(svc)

	w := httptest.NewRecorder()
	h.ListUsers(w, httptest.NewRequest(http.MethodGet, "/admin/api/users", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var body []userResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if len(body) != 2 {
		t.Fatalf("len(users) = %d, want 2", len(body))
	}
	if body[1].Role != "operator" {
		t.Errorf("users[1].role = %q, want %q", body[1].Role, "operator")
	}
}

func TestUserHandler_ListUsers_EmptyIsArray(t *testing.T) {
	h := NewUserHandler(&mockUserService{})

	w := httptest.NewRecorder()
	h.ListUsers(w, httptest.NewRequest(http.MethodGet, "/admin/api/users", nil))

	if got := w.Body.String(); got != "[]\n" {
		t.Errorf("body = %q, want %q", got, "[]\n")
	}
}

func TestUserHandler_SetActive(t *testing.T) {
	var gotActor *model.User
	var gotID string
	var gotActive bool
	svc := &mockUserService{
		setActiveFn: func(ctx context.Context, actor *model.User, userID string, active bool) (*model.User, error) {
			gotActor, gotID, gotActive = actor, userID, active
			return &model.User{ID: userID, Role: model.RoleOperator, IsActive: active}, nil
		},
	}
	h := NewUserHandler(svc)

	req := jsonRequest(http.MethodPatch, "/admin/api/users/user-1/active", `{"is_active":false}`)
	req = asUser(withURLParams(req, map[string]string{"id": "user-1"}), testAdmin)
	w := httptest.NewRecorder()
	h.SetActive(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotActor != testAdmin {
		t.Errorf("actor = %v, want %v", gotActor, testAdmin)
	}
	if gotID != "user-1" || gotActive {
		t.Errorf("SetActive(%q, %v), want (%q, false)", gotID, gotActive, "user-1")
	}
}

func TestUserHandler_SetActive_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		withUser   bool
		svcErr     error
		wantStatus int
	}{
		{"no user in context", `{"is_active":false}`, false, nil, http.StatusUnauthorized},
		{"missing field", `{}`, true, nil, http.StatusBadRequest},
		{"self deactivation", `{"is_active":false}`, true, model.NewSelfModificationError(), http.StatusForbidden},
		{"unknown user", `{"is_active":true}`, true, model.NewUserNotFoundError("x"), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockUserService{
				setActiveFn: func(ctx context.Context, actor *model.User, userID string, active bool) (*model.User, error) {
					return nil, tt.svcErr
				},
			}
			h := NewUserHandler(svc)

			req := withURLParams(jsonRequest(http.MethodPatch, "/admin/api/users/x/active", tt.body), map[string]string{"id": "x"})
			if tt.withUser {
				req = asUser(req, testAdmin)
			}
			w := httptest.NewRecorder()
			h.SetActive(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestUserHandler_ChangeRole(t *testing.T) {
	var gotRole model.Role
	svc := &mockUserService{
		changeRoleFn: func(ctx context.Context, actor *model.User, userID string, role model.Role) (*model.User, error) {
			gotRole = role
			return &model.User{ID: userID, Role: role, IsActive: true}, nil
		},
	}
	h := NewUserHandler(svc)

	t.Run("valid role", func(t *testing.T) {
		req := jsonRequest(http.MethodPatch, "/super-admin/api/users/user-1/role", `{"role":"admin"}`)
		req = asUser(withURLParams(req, map[string]string{"id": "user-1"}), testAdmin)
		w := httptest.NewRecorder()
		h.ChangeRole(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}
		if gotRole != model.RoleAdmin {
			t.Errorf("role = %q, want %q", gotRole, model.RoleAdmin)
		}
	})

	t.Run("unknown role rejected at boundary", func(t *testing.T) {
		gotRole = ""
		req := jsonRequest(http.MethodPatch, "/super-admin/api/users/user-1/role", `{"role":"root"}`)
		req = asUser(withURLParams(req, map[string]string{"id": "user-1"}), testAdmin)
		w := httptest.NewRecorder()
		h.ChangeRole(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
		}
		if gotRole != "" {
			t.Error("service must not be called with an unknown role")
		}
	})
}
