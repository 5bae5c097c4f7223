package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/workshop-manager/config"
)

var errNoWorkshopGrants = errors.New("token grants no workshop access")

// WorkshopClaims are the custom claims read from an access token. OAuth
// scopes arrive space separated in "scope"; Auth0 RBAC adds "permissions".
type WorkshopClaims struct {
	Scope       string   `json:"scope"`
	Permissions []string `json:"permissions"`
}

// Validate rejects tokens that carry no read or write grant at all
func (c *WorkshopClaims) Validate(ctx context.Context) error {
	if len(c.Grants()) == 0 {
		return errNoWorkshopGrants
	}
	return nil
}

// Grants returns the read:* and write:* entries of both claims, deduplicated
func (c *WorkshopClaims) Grants() []string {
	seen := map[string]bool{}
	var grants []string
	for _, g := range append(strings.Fields(c.Scope), c.Permissions...) {
		action, _, ok := strings.Cut(g, ":")
		if !ok || (action != ActionRead && action != ActionWrite) || seen[g] {
			continue
		}
		seen[g] = true
		grants = append(grants, g)
	}
	return grants
}

// EnsureValidToken checks the bearer token against the Auth0 tenant and
// records the caller as the request's Principal.
func EnsureValidToken(cfg *config.Config) gin.HandlerFunc {
	issuerURL, err := url.Parse("https://" + cfg.Auth0Domain + "/")
	if err != nil {
		log.Fatalf("Failed to parse the issuer url: %v", err)
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{cfg.Auth0Audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &WorkshopClaims{}
		}),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		log.Fatalf("Failed to set up the jwt validator")
	}

	return tokenMiddleware(jwtValidator.ValidateToken)
}

func tokenMiddleware(validate jwtmiddleware.ValidateToken) gin.HandlerFunc {
	errorHandler := func(w http.ResponseWriter, r *http.Request, err error) {
		log.Printf("WARN: rejected token for %s %s: %v", r.Method, r.URL.Path, err)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		if _, writeErr := w.Write([]byte(`{"success":false,"error":{"code":"INVALID_TOKEN","message":"Failed to validate JWT."}}`)); writeErr != nil {
			log.Printf("Failed to write error response: %v", writeErr)
		}
	}

	checker := jwtmiddleware.New(validate, jwtmiddleware.WithErrorHandler(errorHandler))

	return func(c *gin.Context) {
		validated := false
		next := func(w http.ResponseWriter, r *http.Request) {
			validated = true
			token := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)
			SetPrincipal(c, PrincipalFromClaims(token))
			c.Next()
		}

		checker.CheckJWT(http.HandlerFunc(next)).ServeHTTP(c.Writer, c.Request)
		if !validated {
			// the error handler has already answered
			c.Abort()
		}
	}
}
