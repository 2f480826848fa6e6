package auth

import "github.com/hitoshi/tkdadmin/internal/model"

// Decision は認可判定の結果。
// Authorized、Unauthenticated、Forbiddenのいずれか。
// HTTPレスポンスへの変換はミドルウェアが行う。
type Decision interface {
	decision() string
}

// Authorized はアクセスを許可した判定。
type Authorized struct {
	User *model.User
}

// Unauthenticated は有効なセッションがない判定。
type Unauthenticated struct{}

// Forbidden はセッションは有効だがロールが不足している判定。
type Forbidden struct {
	User     *model.User
	Required model.Role
}

func (Authorized) decision() string      { return "authorized" }
func (Unauthenticated) decision() string { return "unauthenticated" }
func (Forbidden) decision() string       { return "forbidden" }

// DecisionName はメトリクスやログ用に判定の名前を返す。
func DecisionName(d Decision) string {
	return d.decision()
}

// Authenticate はユーザーが存在するかだけを判定する。
func Authenticate(user *model.User) Decision {
	if user == nil {
		return Unauthenticated{}
	}
	return Authorized{User: user}
}

// Authorize はユーザーが必要なロール以上を持つかを判定する。
func Authorize(user *model.User, required model.Role) Decision {
	if user == nil {
		return Unauthenticated{}
	}
	if !HasPermission(user.Role, required) {
		return Forbidden{User: user, Required: required}
	}
	return Authorized{User: user}
}
