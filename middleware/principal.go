package middleware

import (
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
)

// Grant actions
const (
	ActionRead  = "read"
	ActionWrite = "write"
)

// Grants covering every workshop resource
const (
	ScopeRead  = ActionRead + ":workshop"
	ScopeWrite = ActionWrite + ":workshop"
)

const principalKey = "principal"

var apiVersion = regexp.MustCompile(`^v[0-9]+$`)

// Principal is the authenticated caller of a request
type Principal struct {
	UserID string
	Grants []string
}

// PrincipalFromClaims builds the caller from a validated token
func PrincipalFromClaims(token *validator.ValidatedClaims) Principal {
	p := Principal{UserID: token.RegisteredClaims.Subject}
	if claims, ok := token.CustomClaims.(*WorkshopClaims); ok {
		p.Grants = claims.Grants()
	}
	return p
}

// Can reports whether the caller may perform action on resource, either
// through a grant for that resource ("write:invoices") or a workshop-wide one.
func (p Principal) Can(action, resource string) bool {
	for _, g := range p.Grants {
		if g == action+":workshop" || (resource != "" && g == action+":"+resource) {
			return true
		}
	}
	return false
}

// SetPrincipal records the caller on the request
func SetPrincipal(c *gin.Context, p Principal) {
	c.Set(principalKey, p)
}

// GetPrincipal returns the caller recorded by EnsureValidToken
func GetPrincipal(c *gin.Context) (Principal, bool) {
	p, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	principal, ok := p.(Principal)
	return principal, ok
}

// Actor names the caller for log lines
func Actor(c *gin.Context) string {
	if p, ok := GetPrincipal(c); ok && p.UserID != "" {
		return p.UserID
	}
	return "anonymous"
}

// ActionForMethod maps safe methods to read and everything else to write
func ActionForMethod(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return ActionRead
	}
	return ActionWrite
}

// ResourceFromPath returns the resource segment of an API path:
// /api/v1/supplier-services/3/receipt is "supplier-services".
func ResourceFromPath(path string) string {
	for _, seg := range strings.Split(strings.Trim(path, "/"), "/") {
		if seg == "" || seg == "api" || apiVersion.MatchString(seg) {
			continue
		}
		return seg
	}
	return ""
}

// RequireMethodScope authorizes each request against the caller's grants,
// using the request method for the action and the path for the resource.
func RequireMethodScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "MISSING_CLAIMS",
					"message": "Could not retrieve token claims",
				},
			})
			return
		}

		action := ActionForMethod(c.Request.Method)
		resource := ResourceFromPath(c.Request.URL.Path)
		if !p.Can(action, resource) {
			log.Printf("WARN: [%s] %s lacks %s:%s for %s %s", GetRequestID(c), Actor(c), action, resource, c.Request.Method, c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INSUFFICIENT_SCOPE",
					"message": fmt.Sprintf("Requires %s:%s or %s:workshop", action, resource, action),
				},
			})
			return
		}

		c.Next()
	}
}
