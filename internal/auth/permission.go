package auth

import (
	"strings"

	"github.com/hitoshi/tkdadmin/internal/model"
)

// HasPermission はuserRoleがrequiredRole以上の権限を持つかを返す。
// 階層: super_admin > admin > operator > coaching_staff。
// どちらかが定義外のロールであればfalse。
func HasPermission(userRole, requiredRole model.Role) bool {
	if !userRole.Valid() || !requiredRole.Valid() {
		return false
	}
	return userRole.Rank() >= requiredRole.Rank()
}

// pathPolicies はパスプレフィックスごとに必要なロール。
// 長いプレフィックスから順に評価する。
var pathPolicies = []struct {
	prefix string
	role   model.Role
}{
	{"/super-admin", model.RoleSuperAdmin},
	{"/admin", model.RoleAdmin},
}

// RequiredRoleForPath はパスに対して要求されるロールを返す。
// ロール制約のないパスではokがfalseになる。
func RequiredRoleForPath(path string) (role model.Role, ok bool) {
	for _, p := range pathPolicies {
		if path == p.prefix || strings.HasPrefix(path, p.prefix+"/") {
			return p.role, true
		}
	}
	return "", false
}
