package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/noosyn/product-api/internal/api/metrics"
	"github.com/noosyn/product-api/internal/core/domain"
)

type requirementKind int

const (
	requireAuthenticated requirementKind = iota
	requirePublic
	requireRoles
)

// Requirement is what a request must satisfy once its rule matches.
type Requirement struct {
	kind  requirementKind
	roles []domain.Role
}

func Public() Requirement        { return Requirement{kind: requirePublic} }
func Authenticated() Requirement { return Requirement{kind: requireAuthenticated} }

// RolesAny requires an authenticated principal holding at least one of roles.
func RolesAny(roles ...domain.Role) Requirement {
	return Requirement{kind: requireRoles, roles: roles}
}

// Rule binds a set of methods and a path pattern to a requirement. An empty
// Methods slice matches every method.
//
// Patterns are either exact paths ("/error") or prefix patterns ending in
// "/**" that match the prefix itself and everything beneath it.
type Rule struct {
	Methods []string
	Pattern string
	Require Requirement
}

func (r Rule) matches(method, path string) bool {
	if len(r.Methods) > 0 {
		found := false
		for _, m := range r.Methods {
			if strings.EqualFold(m, method) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return matchPattern(r.Pattern, path)
}

func matchPattern(pattern, path string) bool {
	prefix, ok := strings.CutSuffix(pattern, "/**")
	if !ok {
		return path == pattern
	}
	if prefix == "" {
		return true
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// Policy is an ordered rule table. The first matching rule decides.
type Policy struct {
	rules []Rule
}

func NewPolicy(rules ...Rule) *Policy {
	return &Policy{rules: rules}
}

// DefaultPolicy returns the access rules of the product API.
func DefaultPolicy() *Policy {
	return NewPolicy(
		Rule{Methods: []string{http.MethodPost, http.MethodPut, http.MethodDelete}, Pattern: "/products/**", Require: RolesAny(domain.RoleAdmin)},
		Rule{Methods: []string{http.MethodGet}, Pattern: "/products/**", Require: RolesAny(domain.RoleUser, domain.RoleAdmin)},
		Rule{Pattern: "/auth/**", Require: Public()},
		Rule{Pattern: "/error", Require: Public()},
		Rule{Pattern: "/health/**", Require: Public()},
		Rule{Methods: []string{http.MethodGet}, Pattern: "/metrics", Require: Public()},
		Rule{Methods: []string{http.MethodGet}, Pattern: "/swagger/**", Require: Public()},
		Rule{Pattern: "/**", Require: Authenticated()},
	)
}

// Evaluate decides whether a request may proceed. It returns the pattern of
// the deciding rule and nil, domain.ErrUnauthenticated or domain.ErrForbidden.
// A request that no rule matches must be authenticated.
func (p *Policy) Evaluate(method, path string, principal *domain.Principal) (string, error) {
	req, pattern := Authenticated(), "<none>"
	for _, r := range p.rules {
		if r.matches(method, path) {
			req, pattern = r.Require, r.Pattern
			break
		}
	}

	switch req.kind {
	case requirePublic:
		return pattern, nil
	case requireRoles:
		if principal == nil {
			return pattern, domain.ErrUnauthenticated
		}
		if !principal.HasRole(req.roles...) {
			return pattern, domain.ErrForbidden
		}
		return pattern, nil
	default:
		if principal == nil {
			return pattern, domain.ErrUnauthenticated
		}
		return pattern, nil
	}
}

// Authorize rejects requests the policy denies before they reach a handler.
// It matches the raw request path, so unregistered routes are gated too.
func Authorize(p *Policy) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var principal *domain.Principal
			if pr, ok := PrincipalFrom(c.Request().Context()); ok {
				principal = &pr
			}

			pattern, err := p.Evaluate(c.Request().Method, c.Request().URL.Path, principal)
			switch {
			case err == nil:
				metrics.AccessDecisionsTotal.WithLabelValues("allow", pattern).Inc()
				return next(c)
			case errors.Is(err, domain.ErrForbidden):
				metrics.AccessDecisionsTotal.WithLabelValues("forbidden", pattern).Inc()
			default:
				metrics.AccessDecisionsTotal.WithLabelValues("unauthenticated", pattern).Inc()
			}
			return err
		}
	}
}
