package middleware

import (
	"net/http"
	"time"
)

// SessionCookieName はセッショントークンを保持するCookieの名前。
const SessionCookieName = "session"

// CookieConfig はCookie属性の設定。
type CookieConfig struct {
	Secure bool   // BASE_URLがhttpsの場合にtrue
	Domain string // 空ならホスト限定
}

// SetSessionCookie はセッショントークンをHttpOnly Cookieに設定する。
// 有効期限は保存されたセッションのexpiresAtに揃える。
func SetSessionCookie(w http.ResponseWriter, config CookieConfig, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Round(time.Second).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Domain:   config.Domain,
		MaxAge:   maxAge,
		Expires:  expiresAt.UTC(),
		HttpOnly: true,
		Secure:   config.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie はセッションCookieを削除する。
func ClearSessionCookie(w http.ResponseWriter, config CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   config.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   config.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// TokenFromRequest はリクエストのCookieからセッショントークンを取り出す。
// Cookieがない場合は空文字を返す。
func TokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
