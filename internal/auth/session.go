package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/tkdadmin/internal/metrics"
	"github.com/hitoshi/tkdadmin/internal/model"
	"github.com/hitoshi/tkdadmin/internal/repository"
)

// DefaultSessionMaxAge はセッションの有効期間。
const DefaultSessionMaxAge = 7 * 24 * time.Hour

// tokenBytes はセッショントークンの乱数バイト数（256bit）。
const tokenBytes = 32

// SessionManager はセッションの発行・検証・破棄を行う。
// トークンは呼び出し側が明示的に渡し、Cookieの読み書きはHTTP層が担う。
type SessionManager struct {
	store   repository.SessionRepository
	maxAge  time.Duration
	metrics metrics.MetricsCollector
	now     func() time.Time
}

// NewSessionManager はSessionManagerを生成する。
// maxAgeが0以下の場合はDefaultSessionMaxAgeを使用する。
func NewSessionManager(store repository.SessionRepository, maxAge time.Duration, mc metrics.MetricsCollector) *SessionManager {
	if maxAge <= 0 {
		maxAge = DefaultSessionMaxAge
	}
	if mc == nil {
		mc = metrics.Nop{}
	}
	return &SessionManager{
		store:   store,
		maxAge:  maxAge,
		metrics: mc,
		now:     time.Now,
	}
}

// MaxAge はセッションの有効期間を返す。
func (m *SessionManager) MaxAge() time.Duration {
	return m.maxAge
}

// CreateSession はユーザーのセッションを発行し永続化する。
// 永続化に失敗した場合はエラーを返す。
func (m *SessionManager) CreateSession(ctx context.Context, userID string) (*model.Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	now := m.now()
	session := &model.Session{
		ID:        token,
		UserID:    userID,
		ExpiresAt: now.Add(m.maxAge),
		CreatedAt: now,
	}

	if err := m.store.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	m.metrics.RecordSessionCreated()
	slog.Info("session created",
		slog.String("user_id", userID),
		slog.String("session", TokenPrefix(token)),
	)
	return session, nil
}

// GetSession はトークンに紐付く有効なユーザーを返す。
// トークンが空、存在しない、期限切れ、ユーザーが無効の場合はfalseを返す。
// ストレージエラーもログに記録した上でfalseとして扱う。
func (m *SessionManager) GetSession(ctx context.Context, token string) (*model.User, bool) {
	if token == "" {
		return nil, false
	}

	user, err := m.store.FindActiveUser(ctx, token)
	if err != nil {
		slog.Error("failed to look up session",
			slog.String("session", TokenPrefix(token)),
			slog.String("error", err.Error()),
		)
		return nil, false
	}
	if user == nil {
		return nil, false
	}
	return user, true
}

// DeleteSession はセッションを破棄する。
// 空トークンや存在しないトークンに対しては何もしない。
func (m *SessionManager) DeleteSession(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	if err := m.store.DeleteByID(ctx, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	m.metrics.RecordSessionRevoked()
	slog.Info("session deleted", slog.String("session", TokenPrefix(token)))
	return nil
}

// RevokeAll は指定ユーザーの全セッションを破棄する。
// アカウント無効化やロール変更時に使用する。
func (m *SessionManager) RevokeAll(ctx context.Context, userID string) error {
	if err := m.store.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}
	slog.Info("all sessions revoked", slog.String("user_id", userID))
	return nil
}

// RequireAuth はトークンが有効なセッションを指すかを判定する。
func (m *SessionManager) RequireAuth(ctx context.Context, token string) Decision {
	user, _ := m.GetSession(ctx, token)
	d := Authenticate(user)
	m.metrics.RecordGuardDecision(DecisionName(d))
	return d
}

// RequireRole はセッションが有効かつ必要なロール以上を持つかを判定する。
func (m *SessionManager) RequireRole(ctx context.Context, token string, required model.Role) Decision {
	user, _ := m.GetSession(ctx, token)
	d := Authorize(user, required)
	m.metrics.RecordGuardDecision(DecisionName(d))
	return d
}

// TokenPrefix はログ出力用にトークンの先頭8文字のみを返す。
func TokenPrefix(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[:8]
}

// generateToken は暗号的に安全なセッショントークンを生成する。
func generateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
