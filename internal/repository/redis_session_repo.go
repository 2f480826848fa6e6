package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hitoshi/tkdadmin/internal/model"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix     = "session:"
	userSessionKeyPrefix = "user_sessions:"
)

// RedisClient はRedisセッションストアが使用するコマンドの部分集合。
// *redis.Client はこのインターフェースを満たす。
type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	SAdd(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// UserFinder はIDでユーザーを取得するインターフェース。
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// RedisSessionRepo はキーのTTLで有効期限を管理するセッションリポジトリ。
// 期限切れのセッションはRedisが自動で削除するため、クリーンアップジョブは不要。
// ユーザーの有効状態はusersテーブルから都度確認する。
type RedisSessionRepo struct {
	client RedisClient
	users  UserFinder
	now    func() time.Time
}

// NewRedisSessionRepo はRedisSessionRepoを生成する。
func NewRedisSessionRepo(client RedisClient, users UserFinder) *RedisSessionRepo {
	return &RedisSessionRepo{
		client: client,
		users:  users,
		now:    time.Now,
	}
}

// NewRedisClient は接続設定から*redis.Clientを生成する。
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func sessionKey(id string) string      { return sessionKeyPrefix + id }
func userSessionsKey(id string) string { return userSessionKeyPrefix + id }

// Create はセッションを残り有効期間をTTLとして保存する。
// ユーザーごとのセッション集合にも登録し、一括破棄に備える。
func (r *RedisSessionRepo) Create(ctx context.Context, session *model.Session) error {
	ttl := session.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return fmt.Errorf("failed to create session: already expired")
	}

	if err := r.client.Set(ctx, sessionKey(session.ID), session.UserID, ttl).Err(); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	if err := r.client.SAdd(ctx, userSessionsKey(session.UserID), session.ID).Err(); err != nil {
		return fmt.Errorf("failed to index session: %w", err)
	}
	if err := r.client.Expire(ctx, userSessionsKey(session.UserID), ttl).Err(); err != nil {
		return fmt.Errorf("failed to set session index TTL: %w", err)
	}
	return nil
}

// FindActiveUser はトークンに紐付く有効なユーザーを取得する。
// キーが存在しない（期限切れを含む）、ユーザーが無効の場合はnilを返す。
func (r *RedisSessionRepo) FindActiveUser(ctx context.Context, token string) (*model.User, error) {
	userID, err := r.client.Get(ctx, sessionKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	user, err := r.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session user: %w", err)
	}
	if user == nil || !user.IsActive {
		return nil, nil
	}
	return user, nil
}

// DeleteByID は指定IDのセッションを削除する。存在しなくてもエラーにしない。
func (r *RedisSessionRepo) DeleteByID(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteByUserID は指定ユーザーの全セッションを削除する。
func (r *RedisSessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	ids, err := r.client.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to list user sessions: %w", err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, sessionKey(id))
	}
	keys = append(keys, userSessionsKey(userID))

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete user sessions: %w", err)
	}
	return nil
}

// compile-time interface checks
var (
	_ SessionRepository = (*RedisSessionRepo)(nil)
	_ RedisClient       = (*redis.Client)(nil)
)
