package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var secret = []byte("test-secret")

func signed(t *testing.T, claims jwt.MapClaims, key []byte) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	return s
}

func validToken(t *testing.T, userID int) string {
	return signed(t, jwt.MapClaims{"sub": userID, "exp": time.Now().Add(time.Hour).Unix()}, secret)
}

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := UserIDFrom(r.Context())
		if !ok {
			http.Error(w, "no user", http.StatusInternalServerError)
			return
		}
		w.Header().Set("X-User", strconv.Itoa(id))
	})
}

func TestRequireAuth(t *testing.T) {
	h := NewAuthMiddleware(secret).RequireAuth(echoUser())

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{"missing", func(r *http.Request) {}, http.StatusUnauthorized},
		{"valid header", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+validToken(t, 7)) }, http.StatusOK},
		{"wrong key", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+signed(t, jwt.MapClaims{"sub": 7}, []byte("other")))
		}, http.StatusUnauthorized},
		{"expired", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+signed(t, jwt.MapClaims{"sub": 7, "exp": time.Now().Add(-time.Hour).Unix()}, secret))
		}, http.StatusUnauthorized},
		{"no subject", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+signed(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}, secret))
		}, http.StatusUnauthorized},
		{"query token on plain request", func(r *http.Request) {
			q := r.URL.Query()
			q.Set("token", validToken(t, 7))
			r.URL.RawQuery = q.Encode()
		}, http.StatusUnauthorized},
		{"query token on upgrade", func(r *http.Request) {
			q := r.URL.Query()
			q.Set("token", validToken(t, 7))
			r.URL.RawQuery = q.Encode()
			r.Header.Set("Connection", "Upgrade")
			r.Header.Set("Upgrade", "websocket")
		}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/ws", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			if tt.status == http.StatusOK && rec.Header().Get("X-User") != "7" {
				t.Errorf("X-User = %q, want 7", rec.Header().Get("X-User"))
			}
		})
	}
}

func TestRateLimiter_PerUser(t *testing.T) {
	l := NewRateLimiter(2) // burst 1
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	if !l.Allow("user:1") {
		t.Fatal("first request denied")
	}
	if l.Allow("user:1") {
		t.Error("second immediate request allowed")
	}
	if !l.Allow("user:2") {
		t.Error("other user shares the bucket")
	}

	now = now.Add(31 * time.Second)
	if !l.Allow("user:1") {
		t.Error("request after refill denied")
	}
}

func TestRateLimiter_DropsIdleBuckets(t *testing.T) {
	l := NewRateLimiter(10)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Allow("user:1")
	l.Allow("user:2")
	now = now.Add(limiterIdle + time.Second)
	l.Allow("user:3")
	if got := l.size(); got != 1 {
		t.Errorf("size() = %d, want 1", got)
	}
}

func TestRateLimiter_Middleware(t *testing.T) {
	l := NewRateLimiter(1)
	h := l.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/api/export/csv", nil)
	req = req.WithContext(WithUserID(req.Context(), 3))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first status = %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second status = %d, want 429", rec.Code)
	}
}

func TestZapRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := ZapRequestLogger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/entries", nil))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("logged %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.Level != zap.WarnLevel {
		t.Errorf("level = %v, want warn", e.Level)
	}
	fields := e.ContextMap()
	if fields["status"] != int64(http.StatusNotFound) || fields["path"] != "/api/entries" {
		t.Errorf("fields = %v", fields)
	}
}
