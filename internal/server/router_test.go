package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"serotonyl.ru/ecoquest/internal/server/middleware"
)

var secret = []byte("router-secret")

// stub вешает по одному GET-маршруту на каждую группу.
type stub struct{ name string }

func (s stub) Register(rg *gin.RouterGroup) {
	rg.GET("/"+s.name, func(c *gin.Context) { c.Status(http.StatusOK) })
}

func (s stub) RegisterAdmin(rg *gin.RouterGroup) {
	rg.GET("/"+s.name, func(c *gin.Context) { c.Status(http.StatusOK) })
}

func (s stub) RegisterAuth(rg *gin.RouterGroup) {
	rg.GET("/"+s.name, func(c *gin.Context) { c.Status(http.StatusOK) })
}

func newTestRouter(limiter *middleware.RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(Handlers{
		Account:     stub{"account"},
		Wallet:      stub{"wallet"},
		Users:       stub{"check"},
		Progression: stub{"level"},
		Trash:       stub{"trash"},
		Quiz:        stub{"quiz"},
		Purchase:    stub{"purchase"},
		Catalog:     stub{"catalog"},
	}, RouterOptions{JWTSecret: secret, AllowOrigins: []string{"https://eco.example.com"}, Limiter: limiter})
}

func token(t *testing.T, role string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	s, err := tok.SignedString(secret)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestRouterAccess(t *testing.T) {
	r := newTestRouter(nil)
	user := token(t, "user")
	admin := token(t, "admin")

	tests := []struct {
		path  string
		token string
		want  int
	}{
		{"/healthz", "", http.StatusOK},
		{"/auth/account", "", http.StatusOK},
		{"/catalog", "", http.StatusOK},
		{"/users/wallet", "", http.StatusUnauthorized},
		{"/users/wallet", user, http.StatusOK},
		{"/users/level", user, http.StatusOK},
		{"/purchase/purchase", "", http.StatusUnauthorized},
		{"/purchase/purchase", user, http.StatusOK},
		{"/admin/catalog", user, http.StatusForbidden},
		{"/admin/account", admin, http.StatusOK},
		{"/admin/trash", admin, http.StatusOK},
		{"/admin/purchase", admin, http.StatusOK},
		{"/admin/purchase", user, http.StatusForbidden},
		{"/nowhere", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestRouterCORS(t *testing.T) {
	r := newTestRouter(nil)
	req := httptest.NewRequest(http.MethodOptions, "/catalog", nil)
	req.Header.Set("Origin", "https://eco.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://eco.example.com" {
		t.Fatalf("allow origin = %q", got)
	}
}

func TestRouterRateLimit(t *testing.T) {
	limiter := middleware.NewRateLimiter(1, time.Minute)
	defer limiter.Close()
	r := newTestRouter(limiter)

	codes := make([]int, 2)
	for i := range codes {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/catalog", nil))
		codes[i] = w.Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v", codes)
	}
}
