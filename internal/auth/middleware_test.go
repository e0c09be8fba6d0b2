package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newRouter(tokens TokenService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/any", AuthMiddleware(tokens), func(c *gin.Context) {
		c.String(http.StatusOK, MustGetClaims(c).Subject)
	})
	r.GET("/admin", AdminOnly(tokens), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestAdminOnly(t *testing.T) {
	tokens := TokenService{Secret: []byte("test-secret"), Issuer: "commenttogame", Duration: time.Hour}
	admin, _, err := tokens.Sign("ops", RoleAdmin)
	if err != nil {
		t.Fatal(err)
	}
	viewer, _, err := tokens.Sign("someone", "viewer")
	if err != nil {
		t.Fatal(err)
	}
	other := TokenService{Secret: []byte("other-secret"), Issuer: "commenttogame", Duration: time.Hour}
	forged, _, err := other.Sign("ops", RoleAdmin)
	if err != nil {
		t.Fatal(err)
	}
	expiredSvc := TokenService{Secret: []byte("test-secret"), Issuer: "commenttogame", Duration: -time.Minute}
	expired, _, err := expiredSvc.Sign("ops", RoleAdmin)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"no header", "/admin", "", http.StatusUnauthorized},
		{"not bearer", "/admin", "Basic abc", http.StatusUnauthorized},
		{"wrong secret", "/admin", "Bearer " + forged, http.StatusUnauthorized},
		{"expired", "/admin", "Bearer " + expired, http.StatusUnauthorized},
		{"viewer on admin route", "/admin", "Bearer " + viewer, http.StatusForbidden},
		{"admin", "/admin", "Bearer " + admin, http.StatusNoContent},
		{"viewer on plain auth route", "/any", "bearer " + viewer, http.StatusOK},
	}

	r := newRouter(tokens)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	a := TokenService{Secret: []byte("s3cret-key"), Issuer: "a", Duration: time.Hour}
	b := TokenService{Secret: []byte("s3cret-key"), Issuer: "b", Duration: time.Hour}
	tok, _, err := a.Sign("ops", RoleAdmin)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Parse(tok); err == nil {
		t.Fatal("token from another issuer accepted")
	}
	claims, err := a.Parse(tok)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Subject != "ops" || claims.Role != RoleAdmin {
		t.Fatalf("claims = %+v", claims)
	}
}
