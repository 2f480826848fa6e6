package auth

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// テストではbcryptの最小コストを使い実行時間を抑える。
func newTestHasher() *PasswordHasher {
	return NewPasswordHasher(bcrypt.MinCost)
}

func TestPasswordHasher_HashThenVerify(t *testing.T) {
	h := newTestHasher()

	hash, err := h.Hash("secret123")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash == "secret123" {
		t.Fatal("ハッシュが平文と同一であってはならない")
	}
	if !h.Verify("secret123", hash) {
		t.Error("Verify(正しいパスワード) = false, want true")
	}
	if h.Verify("secret124", hash) {
		t.Error("Verify(誤ったパスワード) = true, want false")
	}
}

// TestPasswordHasher_Hash_SaltedPerCall は同一パスワードのハッシュが毎回異なり、どちらも照合できることを検証する。
func TestPasswordHasher_Hash_SaltedPerCall(t *testing.T) {
	h := newTestHasher()

	h1, err := h.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	h2, err := h.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if h1 == h2 {
		t.Error("同一パスワードのハッシュは異なるべき")
	}
	if !h.Verify("same-password", h1) || !h.Verify("same-password", h2) {
		t.Error("どちらのハッシュも照合に成功するべき")
	}
}

func TestPasswordHasher_Verify_FailsClosed(t *testing.T) {
	h := newTestHasher()

	tests := []struct {
		name     string
		password string
		hash     string
	}{
		{"empty hash", "secret123", ""},
		{"malformed hash", "secret123", "not-a-bcrypt-hash"},
		{"truncated hash", "secret123", "$2a$10$abc"},
		{"oversized password", strings.Repeat("a", MaxPasswordBytes+1), "$2a$04$abcdefghijklmnopqrstuuJ1nB3cYV9xP6qQ9nRkN3bY1aZqF2x7e"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if h.Verify(tt.password, tt.hash) {
				t.Errorf("Verify(%q) = true, want false", tt.name)
			}
		})
	}
}

func TestPasswordHasher_Hash_RejectsShortPassword(t *testing.T) {
	h := newTestHasher()

	_, err := h.Hash("12345")
	if !errors.Is(err, ErrPasswordTooShort) {
		t.Errorf("Hash(5文字) error = %v, want ErrPasswordTooShort", err)
	}
}

func TestPasswordHasher_Hash_RejectsOversizedPassword(t *testing.T) {
	h := newTestHasher()

	_, err := h.Hash(strings.Repeat("x", MaxPasswordBytes+1))
	if !errors.Is(err, ErrPasswordTooLong) {
		t.Errorf("Hash(73バイト) error = %v, want ErrPasswordTooLong", err)
	}

	if _, err := h.Hash(strings.Repeat("x", MaxPasswordBytes)); err != nil {
		t.Errorf("Hash(72バイト) error = %v, want nil", err)
	}
}

func TestNewPasswordHasher_InvalidCostFallsBackToDefault(t *testing.T) {
	h := NewPasswordHasher(0)
	if h.cost != DefaultBcryptCost {
		t.Errorf("cost = %d, want %d", h.cost, DefaultBcryptCost)
	}
	h = NewPasswordHasher(bcrypt.MaxCost + 1)
	if h.cost != DefaultBcryptCost {
		t.Errorf("cost = %d, want %d", h.cost, DefaultBcryptCost)
	}
}

// TestPasswordHasher_DefaultCostIsEmbedded はデフォルトコストがハッシュに埋め込まれることを検証する。
func TestPasswordHasher_DefaultCostIsEmbedded(t *testing.T) {
	h := NewPasswordHasher(DefaultBcryptCost)
	hash, err := h.Hash("secret123")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		t.Fatalf("bcrypt.Cost() error = %v", err)
	}
	if cost != 10 {
		t.Errorf("cost = %d, want 10", cost)
	}
}
