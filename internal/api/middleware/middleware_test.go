package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/malamapl09/Picker-Scheduler/config"
	"github.com/malamapl09/Picker-Scheduler/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeBlacklist map[string]bool

func (f fakeBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	return f[jti], nil
}

func newTestManager() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{
		JWTSecret:       "test-secret-key-for-unit-testing",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	})
}

func protected(mgr *jwt.Manager, bl Blacklist, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append([]gin.HandlerFunc{JWTAuth(mgr, bl)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		id, _ := c.Get(ContextIdentity)
		c.JSON(http.StatusOK, id)
	})
	r.GET("/p", handlers...)
	return r
}

func get(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/p", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth(t *testing.T) {
	mgr := newTestManager()
	access, _ := mgr.GenerateAccessToken(jwt.Identity{UserID: "user-1", Role: "manager", StoreID: "store-1"})
	refresh, _ := mgr.GenerateRefreshToken(jwt.Identity{UserID: "user-1", Role: "manager"})
	r := protected(mgr, nil)

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"valid access token", access, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"garbage", "not-a-token", http.StatusUnauthorized},
		{"refresh token", refresh, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(r, tt.token)
			if w.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, w.Code)
			}
		})
	}

	w := get(r, access)
	if !strings.Contains(w.Body.String(), `"StoreID":"store-1"`) {
		t.Errorf("expected the identity in the context, got %s", w.Body.String())
	}
}

func TestJWTAuth_Blacklisted(t *testing.T) {
	mgr := newTestManager()
	access, _ := mgr.GenerateAccessToken(jwt.Identity{UserID: "user-1", Role: "employee"})
	claims, _ := mgr.ParseToken(access)

	w := get(protected(mgr, fakeBlacklist{claims.ID: true}), access)
	if w.Code != http.StatusUnauthorized || !strings.Contains(w.Body.String(), "10003") {
		t.Errorf("expected a 10003 revoked response, got %d %s", w.Code, w.Body.String())
	}
}

func TestRoleAuth(t *testing.T) {
	mgr := newTestManager()
	manager, _ := mgr.GenerateAccessToken(jwt.Identity{UserID: "u-1", Role: "manager"})
	employee, _ := mgr.GenerateAccessToken(jwt.Identity{UserID: "u-2", Role: "employee"})
	r := protected(mgr, nil, RoleAuth("admin", "manager"))

	if w := get(r, manager); w.Code != http.StatusOK {
		t.Errorf("expected manager allowed, got %d", w.Code)
	}
	if w := get(r, employee); w.Code != http.StatusForbidden {
		t.Errorf("expected employee forbidden, got %d", w.Code)
	}
}

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(BodyLimit(16))
	r.POST("/upload", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/upload", strings.NewReader("small")))
	if w.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/upload", strings.NewReader(strings.Repeat("x", 64))))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", w.Code)
	}
}

func TestRequestID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(RequestID(zap.New(core)), Logger(zap.NewNop()))
	r.GET("/", func(c *gin.Context) {
		RequestLogger(c, zap.NewNop()).Info("handled")
		c.Status(http.StatusOK)
	})

	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"generated", "", false},
		{"adopted", "abc-123.x_y", true},
		{"unsafe characters replaced", "abc\r\nforged: 1", false},
		{"too long replaced", strings.Repeat("a", 65), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs.TakeAll()
			req := httptest.NewRequest("GET", "/", nil)
			if tt.incoming != "" {
				req.Header.Set("X-Request-ID", tt.incoming)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			got := w.Header().Get("X-Request-ID")
			if tt.keep && got != tt.incoming {
				t.Errorf("expected %q echoed, got %q", tt.incoming, got)
			}
			if !tt.keep && (got == tt.incoming || len(got) != 36) {
				t.Errorf("expected a generated uuid, got %q", got)
			}
			entries := logs.FilterMessage("handled").All()
			if len(entries) != 1 || entries[0].ContextMap()["request_id"] != got {
				t.Errorf("expected the handler log tagged with %q, got %+v", got, entries)
			}
		})
	}
}

func TestLogger_UsesRequestScopedLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(RequestID(zap.New(core)), Logger(zap.NewNop()))
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	req := httptest.NewRequest("GET", "/missing", nil)
	req.Header.Set("X-Request-ID", "req-42")
	r.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.FilterMessage("client error").All()
	if len(entries) != 1 {
		t.Fatalf("expected one client error entry, got %d", logs.Len())
	}
	if fields := entries[0].ContextMap(); fields["request_id"] != "req-42" || fields["status"] != int64(http.StatusNotFound) {
		t.Errorf("unexpected fields %v", fields)
	}
}

func TestCORS(t *testing.T) {
	cfg := config.CORSConfig{AllowOrigins: []string{"https://Scheduler.example.com/"}, MaxAge: time.Hour}
	tests := []struct {
		name        string
		cfg         config.CORSConfig
		method      string
		origin      string
		status      int
		allowOrigin string
		credentials bool
	}{
		{"allowed request", cfg, "GET", "https://scheduler.example.com", http.StatusOK, "https://scheduler.example.com", true},
		{"allowed preflight", cfg, "OPTIONS", "https://scheduler.example.com", http.StatusNoContent, "https://scheduler.example.com", true},
		{"foreign request passes without grant", cfg, "GET", "https://evil.example.org", http.StatusOK, "", false},
		{"foreign preflight refused", cfg, "OPTIONS", "https://evil.example.org", http.StatusForbidden, "", false},
		{"no origin", cfg, "GET", "", http.StatusOK, "", false},
		{"wildcard", config.CORSConfig{AllowOrigins: []string{"*"}}, "GET", "https://kiosk.local", http.StatusOK, "*", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(CORS(tt.cfg))
			r.GET("/api/v1/schedules", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(tt.method, "/api/v1/schedules", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.method == "OPTIONS" {
				req.Header.Set("Access-Control-Request-Method", "PUT")
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, w.Code)
			}
			h := w.Header()
			if got := h.Get("Access-Control-Allow-Origin"); got != tt.allowOrigin {
				t.Errorf("allow origin: expected %q, got %q", tt.allowOrigin, got)
			}
			if got := h.Get("Access-Control-Allow-Credentials") == "true"; got != tt.credentials {
				t.Errorf("credentials: expected %v, got %v", tt.credentials, got)
			}
			if h.Get("Vary") != "Origin" {
				t.Errorf("expected Vary: Origin, got %q", h.Get("Vary"))
			}
			if tt.allowOrigin != "" && !strings.Contains(h.Get("Access-Control-Expose-Headers"), "Content-Disposition") {
				t.Errorf("export file names must be readable, got %q", h.Get("Access-Control-Expose-Headers"))
			}
			if tt.status == http.StatusNoContent && h.Get("Access-Control-Max-Age") != "3600" {
				t.Errorf("max age: got %q", h.Get("Access-Control-Max-Age"))
			}
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders(24 * time.Hour))
	r.GET("/export.ics", func(c *gin.Context) {
		c.Header("Cache-Control", "private, max-age=60")
		c.Status(http.StatusOK)
	})
	r.GET("/schedules", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/schedules", nil))
	if w.Header().Get("Cache-Control") != "no-store" || w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("missing hardening headers: %v", w.Header())
	}
	if w.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS must not be sent over plain HTTP")
	}

	req := httptest.NewRequest("GET", "/schedules", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Strict-Transport-Security"); got != "max-age=86400; includeSubDomains" {
		t.Errorf("HSTS behind a TLS proxy: got %q", got)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/export.ics", nil))
	if got := w.Header().Get("Cache-Control"); got != "private, max-age=60" {
		t.Errorf("handler cache policy must win, got %q", got)
	}

	off := gin.New()
	off.Use(SecurityHeaders(0))
	off.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	w = httptest.NewRecorder()
	off.ServeHTTP(w, req)
	if w.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS disabled by a zero max age")
	}
}

func TestRateLimit_NilClientPassesThrough(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(nil, 1, time.Minute))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}
}
