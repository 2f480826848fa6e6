package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultBcryptCost はパスワードハッシュのコスト係数。
	DefaultBcryptCost = 10
	// MinPasswordLength はパスワードの最小文字数。
	MinPasswordLength = 6
	// MaxPasswordBytes はbcryptが扱える入力の上限バイト数。
	MaxPasswordBytes = 72
)

var (
	// ErrPasswordTooShort はパスワードが最小文字数に満たないことを示す。
	ErrPasswordTooShort = errors.New("password is too short")
	// ErrPasswordTooLong はパスワードがbcryptの入力上限を超えることを示す。
	ErrPasswordTooLong = errors.New("password is too long")
)

// PasswordHasher はbcryptによるパスワードのハッシュ化と照合を行う。
// ソルトは生成ごとに新しく作られ、ハッシュ文字列に埋め込まれる。
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher はPasswordHasherを生成する。
// costがbcryptの許容範囲外の場合はDefaultBcryptCostを使用する。
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &PasswordHasher{cost: cost}
}

// ValidatePassword はパスワードの長さ制約を検証する。
func ValidatePassword(password string) error {
	if len([]rune(password)) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

// Hash はパスワードをハッシュ化する。
// 同じパスワードでも呼び出しごとに異なるハッシュを返す。
func (h *PasswordHasher) Hash(password string) (string, error) {
	if err := ValidatePassword(password); err != nil {
		return "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify はパスワードがハッシュと一致するかを返す。
// 空・不正な形式のハッシュや長すぎる入力を含め、エラーはすべてfalseとして扱う。
func (h *PasswordHasher) Verify(password, hash string) bool {
	if hash == "" || len(password) > MaxPasswordBytes {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
