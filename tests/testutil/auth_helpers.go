package testutil

import (
	"strings"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/workshop-manager/middleware"
)

// MockValidatedClaims creates the claims EnsureValidToken would produce for
// a token carrying scopes
func MockValidatedClaims(subject, issuer string, scopes []string) *validator.ValidatedClaims {
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Issuer:  issuer,
			Subject: subject,
		},
		CustomClaims: &middleware.WorkshopClaims{
			Scope: strings.Join(scopes, " "),
		},
	}
}

// MockAuthMiddleware stands in for EnsureValidToken, authenticating every
// request as userID with scopes
func MockAuthMiddleware(userID string, scopes ...string) gin.HandlerFunc {
	claims := MockValidatedClaims(userID, "https://test.auth0.com/", scopes)
	return func(c *gin.Context) {
		middleware.SetPrincipal(c, middleware.PrincipalFromClaims(claims))
		c.Next()
	}
}
