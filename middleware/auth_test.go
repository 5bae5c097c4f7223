package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/workshop-manager/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkshopClaims_Grants(t *testing.T) {
	tests := []struct {
		name    string
		claims  WorkshopClaims
		want    []string
		wantErr bool
	}{
		{
			name:   "workshop scopes",
			claims: WorkshopClaims{Scope: "openid read:workshop write:workshop"},
			want:   []string{ScopeRead, ScopeWrite},
		},
		{
			name:   "rbac permissions",
			claims: WorkshopClaims{Permissions: []string{"read:invoices", "write:invoices"}},
			want:   []string{"read:invoices", "write:invoices"},
		},
		{
			name:   "scope and permission overlap",
			claims: WorkshopClaims{Scope: "read:workshop", Permissions: []string{"read:workshop", "write:expenses"}},
			want:   []string{ScopeRead, "write:expenses"},
		},
		{
			name:    "identity scopes only",
			claims:  WorkshopClaims{Scope: "openid profile email"},
			wantErr: true,
		},
		{
			name:    "unknown action",
			claims:  WorkshopClaims{Permissions: []string{"delete:workshop"}},
			wantErr: true,
		},
		{
			name:    "empty",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.claims.Grants())

			err := tt.claims.Validate(context.Background())
			if tt.wantErr {
				assert.ErrorIs(t, err, errNoWorkshopGrants)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPrincipal_Can(t *testing.T) {
	bookkeeper := Principal{UserID: "auth0|books", Grants: []string{ScopeRead, "write:invoices", "write:expenses"}}
	workshop := Principal{UserID: "auth0|owner", Grants: []string{ScopeRead, ScopeWrite}}

	tests := []struct {
		name      string
		principal Principal
		action    string
		resource  string
		want      bool
	}{
		{"workshop read covers customers", bookkeeper, ActionRead, "customers", true},
		{"resource write grant", bookkeeper, ActionWrite, "invoices", true},
		{"no write on projects", bookkeeper, ActionWrite, "projects", false},
		{"workshop write covers everything", workshop, ActionWrite, "supplier-services", true},
		{"resource grant needs a resource", Principal{Grants: []string{"read:invoices"}}, ActionRead, "", false},
		{"write does not imply read", Principal{Grants: []string{ScopeWrite}}, ActionRead, "customers", false},
		{"no grants", Principal{UserID: "auth0|nobody"}, ActionRead, "customers", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.principal.Can(tt.action, tt.resource))
		})
	}
}

func TestResourceFromPath(t *testing.T) {
	tests := map[string]string{
		"/api/v1/customers":                   "customers",
		"/api/v1/customers/3/orders":          "customers",
		"/api/v1/supplier-services/7/receipt": "supplier-services",
		"/api/v2/reports/profit-loss":         "reports",
		"/invoices/next-reference":            "invoices",
		"/api/v1/":                            "",
		"/":                                   "",
	}

	for path, want := range tests {
		t.Run(path, func(t *testing.T) {
			assert.Equal(t, want, ResourceFromPath(path))
		})
	}
}

func TestActionForMethod(t *testing.T) {
	tests := []struct {
		method string
		want   string
	}{
		{http.MethodGet, ActionRead},
		{http.MethodHead, ActionRead},
		{http.MethodOptions, ActionRead},
		{http.MethodPost, ActionWrite},
		{http.MethodPut, ActionWrite},
		{http.MethodDelete, ActionWrite},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			assert.Equal(t, tt.want, ActionForMethod(tt.method))
		})
	}
}

func TestRequireMethodScope(t *testing.T) {
	gin.SetMode(gin.TestMode)

	bookkeeper := Principal{UserID: "auth0|books", Grants: []string{ScopeRead, "write:invoices"}}

	tests := []struct {
		name       string
		principal  *Principal
		method     string
		path       string
		wantStatus int
	}{
		{"read any resource", &bookkeeper, http.MethodGet, "/api/v1/projects", 0},
		{"write a granted resource", &bookkeeper, http.MethodPost, "/api/v1/invoices", 0},
		{"write an ungranted resource", &bookkeeper, http.MethodDelete, "/api/v1/projects/4", http.StatusForbidden},
		{"no principal", nil, http.MethodGet, "/api/v1/projects", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(tt.method, tt.path, nil)
			if tt.principal != nil {
				SetPrincipal(c, *tt.principal)
			}

			RequireMethodScope()(c)

			assert.Equal(t, tt.wantStatus != 0, c.IsAborted())
			if tt.wantStatus != 0 {
				assert.Equal(t, tt.wantStatus, w.Code)
			}
		})
	}

	t.Run("denial names the missing grant", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPut, "/api/v1/supplier-services/2", nil)
		SetPrincipal(c, bookkeeper)

		RequireMethodScope()(c)

		assert.Contains(t, w.Body.String(), "INSUFFICIENT_SCOPE")
		assert.Contains(t, w.Body.String(), "write:supplier-services or write:workshop")
	})
}

func TestActor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, "anonymous", Actor(c))

	SetPrincipal(c, Principal{UserID: "auth0|owner"})
	assert.Equal(t, "auth0|owner", Actor(c))

	c.Set(principalKey, "auth0|not-a-principal")
	_, ok := GetPrincipal(c)
	assert.False(t, ok)
	assert.Equal(t, "anonymous", Actor(c))
}

func TestTokenMiddleware_SetsPrincipal(t *testing.T) {
	gin.SetMode(gin.TestMode)

	validate := func(ctx context.Context, token string) (interface{}, error) {
		if token != "workshop-token" {
			return nil, errors.New("signature mismatch")
		}
		return &validator.ValidatedClaims{
			RegisteredClaims: validator.RegisteredClaims{Subject: "auth0|owner"},
			CustomClaims: &WorkshopClaims{
				Scope:       "openid read:workshop",
				Permissions: []string{"write:expenses"},
			},
		}, nil
	}

	var got Principal
	router := gin.New()
	router.GET("/api/v1/expenses", tokenMiddleware(validate), func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		require.True(t, ok)
		got = p
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/expenses", nil)
	req.Header.Set("Authorization", "Bearer workshop-token")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "auth0|owner", got.UserID)
	assert.Equal(t, []string{ScopeRead, "write:expenses"}, got.Grants)
	assert.True(t, got.Can(ActionWrite, "expenses"))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/expenses", nil)
	req.Header.Set("Authorization", "Bearer forged")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEnsureValidToken_RejectsAndStops(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Auth0Domain: "test.auth0.com", Auth0Audience: "https://api.test.com"}

	reached := false
	router := gin.New()
	router.GET("/protected", EnsureValidToken(cfg), func(c *gin.Context) {
		reached = true
		c.String(http.StatusOK, "ok")
	})

	for _, header := range []string{"", "Bearer invalid-token-here"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"success":false,"error":{"code":"INVALID_TOKEN","message":"Failed to validate JWT."}}`, w.Body.String())
	}
	assert.False(t, reached, "handler must not run after a rejected token")
}
