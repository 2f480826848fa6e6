package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/hitoshi/tkdadmin/internal/auth"
	"github.com/hitoshi/tkdadmin/internal/model"
)

const (
	// LoginPath は未認証のブラウザリクエストのリダイレクト先。
	LoginPath = "/login"
	// UnauthorizedPath は権限不足のブラウザリクエストのリダイレクト先。
	UnauthorizedPath = "/unauthorized"
)

// SessionGuard はトークンから認可判定を行うインターフェース。
// auth.SessionManager が満たす。
type SessionGuard interface {
	RequireAuth(ctx context.Context, token string) auth.Decision
	RequireRole(ctx context.Context, token string, required model.Role) auth.Decision
}

// NewRequireAuthMiddleware は有効なセッションを必須とするミドルウェアを返す。
func NewRequireAuthMiddleware(guard SessionGuard) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := guard.RequireAuth(r.Context(), TokenFromRequest(r))
			serveDecision(w, r, next, d)
		})
	}
}

// NewRequireRoleMiddleware は指定ロール以上を必須とするミドルウェアを返す。
func NewRequireRoleMiddleware(guard SessionGuard, required model.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := guard.RequireRole(r.Context(), TokenFromRequest(r), required)
			serveDecision(w, r, next, d)
		})
	}
}

// NewPathPolicyMiddleware はパスの接頭辞に応じた必要ロールを適用するミドルウェアを返す。
// /super-admin 配下はsuper_admin、/admin 配下はadmin以上、それ以外は認証のみを要求する。
func NewPathPolicyMiddleware(guard SessionGuard) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			var d auth.Decision
			if required, ok := auth.RequiredRoleForPath(r.URL.Path); ok {
				d = guard.RequireRole(r.Context(), token, required)
			} else {
				d = guard.RequireAuth(r.Context(), token)
			}
			serveDecision(w, r, next, d)
		})
	}
}

// serveDecision は判定結果をHTTPレスポンスに対応付ける。
// Authorizedの場合のみユーザーをコンテキストに注入して次のハンドラーを呼ぶ。
func serveDecision(w http.ResponseWriter, r *http.Request, next http.Handler, d auth.Decision) {
	switch d := d.(type) {
	case auth.Authorized:
		next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), d.User)))
	case auth.Forbidden:
		slog.Warn("access denied",
			slog.String("user_id", d.User.ID),
			slog.String("role", string(d.User.Role)),
			slog.String("required", string(d.Required)),
			slog.String("path", r.URL.Path),
		)
		if wantsHTML(r) {
			http.Redirect(w, r, UnauthorizedPath, http.StatusSeeOther)
			return
		}
		WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
	default:
		if wantsHTML(r) {
			target := LoginPath + "?next=" + url.QueryEscape(r.URL.RequestURI())
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		}
		WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
	}
}

// wantsHTML はブラウザのページ遷移リクエストかどうかを判定する。
func wantsHTML(r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// RequireRoleInContext はコンテキスト上の認証済みユーザーに対してロールを検査する。
// 認証ミドルウェアの内側で使用し、セッションの再取得を行わない。
func RequireRoleInContext(required model.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, _ := UserFromContext(r.Context())
			serveDecision(w, r, next, auth.Authorize(user, required))
		})
	}
}
