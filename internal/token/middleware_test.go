package token

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"club_service/internal/models"
)

func guarded(t *testing.T, svc *Service, expected Type) (http.Handler, *Claims) {
	t.Helper()

	var got Claims

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := FromContext(r.Context())
		if !ok {
			t.Error("claims missing from request context")
		}
		got = claims
		w.WriteHeader(http.StatusOK)
	})

	return Require(svc, expected, "refresh_token")(inner), &got
}

func TestRequire_AccessFromBearerHeader(t *testing.T) {
	t.Parallel()

	svc := NewService("secret", "club_service")
	h, got := guarded(t, svc, TypeAccess)

	raw, _ := svc.NewAccess(models.User{ID: 7, Email: "a@b.c"}, time.Minute)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d want 200", rec.Code)
	}
	if got.UserID != 7 {
		t.Errorf("claims user_id: got %d want 7", got.UserID)
	}
}

func TestRequire_RefreshFromCookieOnly(t *testing.T) {
	t.Parallel()

	svc := NewService("secret", "club_service")
	h, got := guarded(t, svc, TypeRefresh)

	raw, _ := svc.NewRefresh(models.User{ID: 7}, "jti-1", time.Hour)

	// refresh token in the Authorization header must be ignored
	req := httptest.NewRequest(http.MethodPost, "/refresh", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bearer refresh: got %d want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: raw})
	rec = httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("cookie refresh: got %d want 200", rec.Code)
	}
	if got.JTI() != "jti-1" {
		t.Errorf("jti: got %q", got.JTI())
	}
}

func TestRequire_Rejections(t *testing.T) {
	t.Parallel()

	svc := NewService("secret", "club_service")

	access, _ := svc.NewAccess(models.User{ID: 7}, time.Minute)
	expired, _ := svc.NewAccess(models.User{ID: 7}, -time.Minute)
	forged, _ := NewService("other", "club_service").NewAccess(models.User{ID: 7}, time.Minute)

	tests := []struct {
		name     string
		expected Type
		header   string
	}{
		{"missing token", TypeAccess, ""},
		{"wrong type", TypeRefresh, ""}, // access token cannot satisfy refresh
		{"expired", TypeAccess, "Bearer " + expired},
		{"forged", TypeAccess, "Bearer " + forged},
		{"access where reset expected", TypeReset, "Bearer " + access},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h, _ := guarded(t, svc, tc.expected)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("got %d want 401", rec.Code)
			}
		})
	}
}
