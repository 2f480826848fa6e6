package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/tkdadmin/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis はRedisClientのインメモリ実装。
type fakeRedis struct {
	values map[string]string
	sets   map[string]map[string]bool
	ttls   map[string]time.Duration
	err    error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		values: make(map[string]string),
		sets:   make(map[string]map[string]bool),
		ttls:   make(map[string]time.Duration),
	}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	f.values[key] = value.(string)
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.values[k]; ok {
			delete(f.values, k)
			n++
		}
		if _, ok := f.sets[k]; ok {
			delete(f.sets, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) SAdd(ctx context.Context, key string, members ...interface{}) *redis.IntCmd {
	if f.sets[key] == nil {
		f.sets[key] = make(map[string]bool)
	}
	for _, m := range members {
		f.sets[key][m.(string)] = true
	}
	return redis.NewIntResult(int64(len(members)), nil)
}

func (f *fakeRedis) SMembers(ctx context.Context, key string) *redis.StringSliceCmd {
	if f.err != nil {
		return redis.NewStringSliceResult(nil, f.err)
	}
	var out []string
	for m := range f.sets[key] {
		out = append(out, m)
	}
	return redis.NewStringSliceResult(out, nil)
}

func (f *fakeRedis) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	f.ttls[key] = expiration
	return redis.NewBoolResult(true, nil)
}

// stubUserFinder はFindByIDの結果を固定で返す。
type stubUserFinder struct {
	users map[string]*model.User
	err   error
}

func (s *stubUserFinder) FindByID(ctx context.Context, id string) (*model.User, error) {
	return s.users[id], s.err
}

func newTestRedisRepo(users ...*model.User) (*RedisSessionRepo, *fakeRedis) {
	client := newFakeRedis()
	finder := &stubUserFinder{users: make(map[string]*model.User)}
	for _, u := range users {
		finder.users[u.ID] = u
	}
	repo := NewRedisSessionRepo(client, finder)
	fixed := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return fixed }
	return repo, client
}

func TestRedisSessionRepo_Create_UsesRemainingLifetimeAsTTL(t *testing.T) {
	repo, client := newTestRedisRepo()
	now := repo.now()

	err := repo.Create(context.Background(), &model.Session{
		ID: "tok", UserID: "u1", ExpiresAt: now.Add(7 * 24 * time.Hour), CreatedAt: now,
	})

	require.NoError(t, err)
	assert.Equal(t, "u1", client.values["session:tok"])
	assert.Equal(t, 7*24*time.Hour, client.ttls["session:tok"])
	assert.True(t, client.sets["user_sessions:u1"]["tok"])
}

func TestRedisSessionRepo_Create_RejectsExpiredSession(t *testing.T) {
	repo, client := newTestRedisRepo()
	now := repo.now()

	err := repo.Create(context.Background(), &model.Session{ID: "tok", UserID: "u1", ExpiresAt: now})

	assert.Error(t, err)
	assert.Empty(t, client.values)
}

func TestRedisSessionRepo_FindActiveUser(t *testing.T) {
	active := &model.User{ID: "u1", Role: model.RoleAdmin, IsActive: true}
	inactive := &model.User{ID: "u2", Role: model.RoleAdmin, IsActive: false}
	repo, client := newTestRedisRepo(active, inactive)
	client.values["session:a"] = "u1"
	client.values["session:b"] = "u2"
	client.values["session:c"] = "ghost"

	tests := []struct {
		token string
		want  *model.User
	}{
		{token: "a", want: active},
		{token: "b", want: nil},
		{token: "c", want: nil},
		{token: "missing", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := repo.FindActiveUser(context.Background(), tt.token)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRedisSessionRepo_FindActiveUser_StorageError(t *testing.T) {
	repo, client := newTestRedisRepo()
	client.err = errors.New("connection refused")

	user, err := repo.FindActiveUser(context.Background(), "tok")

	assert.Error(t, err)
	assert.Nil(t, user)
}

func TestRedisSessionRepo_DeleteByUserID_RemovesAllSessions(t *testing.T) {
	repo, client := newTestRedisRepo()
	now := repo.now()
	for _, id := range []string{"s1", "s2"} {
		require.NoError(t, repo.Create(context.Background(), &model.Session{
			ID: id, UserID: "u1", ExpiresAt: now.Add(time.Hour),
		}))
	}
	require.NoError(t, repo.Create(context.Background(), &model.Session{
		ID: "other", UserID: "u2", ExpiresAt: now.Add(time.Hour),
	}))

	require.NoError(t, repo.DeleteByUserID(context.Background(), "u1"))

	assert.NotContains(t, client.values, "session:s1")
	assert.NotContains(t, client.values, "session:s2")
	assert.NotContains(t, client.sets, "user_sessions:u1")
	assert.Contains(t, client.values, "session:other")
}

func TestRedisSessionRepo_DeleteByID_Idempotent(t *testing.T) {
	repo, _ := newTestRedisRepo()

	assert.NoError(t, repo.DeleteByID(context.Background(), "never-existed"))
	assert.NoError(t, repo.DeleteByID(context.Background(), "never-existed"))
}
