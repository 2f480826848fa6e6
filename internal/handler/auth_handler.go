package handler

import (
	"context"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/hitoshi/tkdadmin/internal/auth"
	"github.com/hitoshi/tkdadmin/internal/middleware"
	"github.com/hitoshi/tkdadmin/internal/model"
)

// DashboardPath はフォームからのログイン・登録成功後のリダイレクト先。
const DashboardPath = "/dashboard"

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Register はユーザーを作成し、セッションを発行する。
	Register(ctx context.Context, in auth.RegisterInput) (*model.User, *model.Session, error)
	// Login はメールアドレスとパスワードを検証し、セッションを発行する。
	Login(ctx context.Context, email, password string) (*model.User, *model.Session, error)
	// Logout はセッションを破棄する。
	Logout(ctx context.Context, token string) error
	// CurrentUser はトークンに紐付く有効なユーザーを返す。
	CurrentUser(ctx context.Context, token string) (*model.User, bool)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	Cookie middleware.CookieConfig
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

// credentialsRequest はログイン・登録リクエストのボディ。
type credentialsRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
	Next      string `json:"next"`
}

// authResponse はログイン・登録成功時のレスポンス。
type authResponse struct {
	User userResponse `json:"user"`
}

// Register はユーザー登録を処理する。
// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	req, form, ok := h.readCredentials(w, r)
	if !ok {
		return
	}

	user, session, err := h.service.Register(r.Context(), auth.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.completeSignIn(w, r, form, req.Next, user, session, http.StatusCreated)
}

// Login はメールアドレスとパスワードによるログインを処理する。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, form, ok := h.readCredentials(w, r)
	if !ok {
		return
	}

	user, session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.completeSignIn(w, r, form, req.Next, user, session, http.StatusOK)
}

// Logout はセッションを破棄する。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.TokenFromRequest(r); token != "" {
		if err := h.service.Logout(r.Context(), token); err != nil {
			// サーバー側のセッションが残るため、ログアウト成功とは扱わない
			slog.Error("failed to logout", slog.String("error", err.Error()))
			handleServiceError(w, err)
			return
		}
	}

	middleware.ClearSessionCookie(w, h.config.Cookie)

	if isJSONRequest(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
}

// Me は現在のログインユーザー情報を返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := h.service.CurrentUser(r.Context(), middleware.TokenFromRequest(r))
	if !ok {
		writeUnauthorized(w)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// readCredentials はJSONまたはフォームからリクエストを読み取る。
// 2番目の戻り値はフォーム送信かどうか。
func (h *AuthHandler) readCredentials(w http.ResponseWriter, r *http.Request) (credentialsRequest, bool, bool) {
	var req credentialsRequest
	if isJSONRequest(r) {
		if !decodeJSON(w, r, &req) {
			return req, false, false
		}
		return req, false, true
	}

	if err := r.ParseForm(); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("Invalid form submission"))
		return req, true, false
	}
	req = credentialsRequest{
		Email:     r.PostForm.Get("email"),
		Password:  r.PostForm.Get("password"),
		FirstName: r.PostForm.Get("first_name"),
		LastName:  r.PostForm.Get("last_name"),
		Role:      r.PostForm.Get("role"),
		Next:      r.PostForm.Get("next"),
	}
	return req, true, true
}

// completeSignIn はセッションCookieを設定し、フォームならリダイレクト、JSONならユーザーを返す。
func (h *AuthHandler) completeSignIn(
	w http.ResponseWriter,
	r *http.Request,
	form bool,
	next string,
	user *model.User,
	session *model.Session,
	status int,
) {
	middleware.SetSessionCookie(w, h.config.Cookie, session.ID, session.ExpiresAt)

	if form {
		http.Redirect(w, r, safeRedirectPath(next), http.StatusSeeOther)
		return
	}
	writeJSON(w, status, authResponse{User: toUserResponse(user)})
}

// safeRedirectPath は同一オリジン内の絶対パスのみを許可し、それ以外はダッシュボードを返す。
func safeRedirectPath(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return DashboardPath
	}
	return next
}

// isJSONRequest はリクエストがJSON APIとして送られたかを返す。
func isJSONRequest(r *http.Request) bool {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		if mediaType, _, err := mime.ParseMediaType(ct); err == nil && mediaType == "application/json" {
			return true
		}
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
