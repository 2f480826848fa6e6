// Package model はドメインモデルを定義する。
package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Role は管理画面の利用者ロールを表す。
// 取りうる値は定数で定義された4種類のみ。
type Role string

const (
	RoleSuperAdmin    Role = "super_admin"
	RoleAdmin         Role = "admin"
	RoleOperator      Role = "operator"
	RoleCoachingStaff Role = "coaching_staff"
)

// roleRanks はロール階層の順位。値が大きいほど権限が強い。
var roleRanks = map[Role]int{
	RoleSuperAdmin:    4,
	RoleAdmin:         3,
	RoleOperator:      2,
	RoleCoachingStaff: 1,
}

// ParseRole は文字列をRoleに変換する。
// 定義外の値はエラーを返す。
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := roleRanks[r]; !ok {
		return "", fmt.Errorf("unknown role: %q", s)
	}
	return r, nil
}

// Valid はロールが定義済みの値かどうかを返す。
func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// Rank はロールの階層順位を返す。定義外のロールは0。
func (r Role) Rank() int {
	return roleRanks[r]
}

// UnmarshalJSON はJSONデコード時に定義外のロールを拒否する。
func (r *Role) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// AllRoles は定義済みロールを権限の強い順に返す。
func AllRoles() []Role {
	return []Role{RoleSuperAdmin, RoleAdmin, RoleOperator, RoleCoachingStaff}
}

// User は管理画面の利用者を表す。
// 物理削除はせず、IsActiveで無効化する。
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FullName は表示用の氏名を返す。
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Session はユーザーのログインセッションを表す。
// IDはCookieに格納される不透明なトークンそのもの。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired は指定時刻においてセッションが期限切れかどうかを返す。
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
