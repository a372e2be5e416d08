package middleware

import (
	"strings"

	"ecom/internal/metrics"
	"ecom/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Access levels of a Rule.
type Access int

const (
	// Authenticated requires any principal.
	Authenticated Access = iota
	// Public admits anonymous requests.
	Public
	// RequireRoles requires a principal holding at least one of Rule.Roles.
	RequireRoles
)

// Rule grants access to requests whose method and path match.
// Method "" matches any method. Pattern segments are literal, "*" for one segment, or a
// trailing "**" for any remainder including none.
type Rule struct {
	Method  string
	Pattern string
	Access  Access
	Roles   []string
}

// Policy is an ordered rule list; the first matching rule wins and unmatched requests
// require authentication.
type Policy []Rule

// DefaultPolicy returns the route protection of the store API.
func DefaultPolicy() Policy {
	return Policy{
		{Method: fiber.MethodOptions, Pattern: "/**", Access: Public},
		{Pattern: "/health", Access: Public},
		{Pattern: "/metrics", Access: Public},
		{Pattern: "/api/auth/signin", Access: Public},
		{Pattern: "/api/auth/signup", Access: Public},
		{Pattern: "/api/auth/signout", Access: Public},
		{Pattern: "/api/docs/**", Access: Public},
		{Pattern: "/api/public/**", Access: Public},
		{Pattern: "/api/admin/**", Access: RequireRoles, Roles: []string{models.RoleAdmin}},
		{Pattern: "/api/cache/**", Access: RequireRoles, Roles: []string{models.RoleAdmin}},
		{Pattern: "/api/seller/**", Access: RequireRoles, Roles: []string{models.RoleAdmin, models.RoleSeller}},
	}
}

// Match returns the first rule matching method and path.
func (p Policy) Match(method, path string) (Rule, bool) {
	for _, r := range p {
		if (r.Method == "" || r.Method == method) && matchPath(r.Pattern, path) {
			return r, true
		}
	}
	return Rule{Access: Authenticated}, false
}

func matchPath(pattern, path string) bool {
	want := segments(pattern)
	got := segments(path)
	for i, seg := range want {
		if seg == "**" {
			return i == len(want)-1
		}
		if i >= len(got) || (seg != "*" && seg != got[i]) {
			return false
		}
	}
	return len(want) == len(got)
}

func segments(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// Authorize enforces policy using the principal attached by Authenticate.
func Authorize(policy Policy, rec metrics.Recorder) fiber.Handler {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return func(c *fiber.Ctx) error {
		rule, _ := policy.Match(c.Method(), c.Path())
		if rule.Access == Public {
			return c.Next()
		}

		principal := PrincipalFromContext(c.UserContext())
		if principal == nil {
			rec.RecordAccessDenied(fiber.StatusUnauthorized)
			return WriteError(c, fiber.StatusUnauthorized, "Full authentication is required to access this resource")
		}
		if rule.Access == RequireRoles && !principal.HasAnyRole(rule.Roles...) {
			rec.RecordAccessDenied(fiber.StatusForbidden)
			return WriteError(c, fiber.StatusForbidden, "Access is denied")
		}
		return c.Next()
	}
}
