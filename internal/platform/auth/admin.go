package auth

import (
	"net/http"
	"strings"

	"github.com/example/findme-platform/internal/platform/api"
)

// AdminResolver reports whether an identity is an administrator.
type AdminResolver func(Identity) bool

// AdminPolicy is the single place admin status is decided. Resolvers are
// consulted in order and the first positive answer wins.
type AdminPolicy struct {
	resolvers []AdminResolver
}

func NewAdminPolicy(resolvers ...AdminResolver) AdminPolicy {
	return AdminPolicy{resolvers: resolvers}
}

// DefaultAdminPolicy checks, in order: the admin token claim, role=admin,
// the configured email list, the configured uid list.
func DefaultAdminPolicy(emails, uids []string) AdminPolicy {
	return NewAdminPolicy(ByClaim(), ByRole("admin"), ByEmail(emails), ByUID(uids))
}

func (p AdminPolicy) IsAdmin(id Identity) bool {
	if id.UID == "" {
		return false
	}
	for _, r := range p.resolvers {
		if r(id) {
			return true
		}
	}
	return false
}

func ByClaim() AdminResolver {
	return func(id Identity) bool { return id.AdminClaim }
}

func ByRole(role string) AdminResolver {
	return func(id Identity) bool {
		return strings.EqualFold(strings.TrimSpace(id.Role), role)
	}
}

func ByEmail(emails []string) AdminResolver {
	set := toSet(emails, true)
	return func(id Identity) bool {
		_, ok := set[strings.ToLower(strings.TrimSpace(id.Email))]
		return ok && id.Email != ""
	}
}

func ByUID(uids []string) AdminResolver {
	set := toSet(uids, false)
	return func(id Identity) bool {
		_, ok := set[id.UID]
		return ok
	}
}

func toSet(vals []string, lower bool) map[string]struct{} {
	set := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		v = strings.TrimSpace(v)
		if lower {
			v = strings.ToLower(v)
		}
		if v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}

func IsAdmin(r *http.Request) bool {
	id, ok := IdentityFromContext(r.Context())
	return ok && id.Admin
}

// RequireAdmin allows the request only if RequireUser resolved the caller as admin.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAdmin(r) {
			api.Forbidden(w, "FORBIDDEN", "admin only", "")
			return
		}
		next.ServeHTTP(w, r)
	})
}
