package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"

	"github.com/salonmate/salonmate/internal/auth"
	"github.com/salonmate/salonmate/internal/models"
)

const testSecret = "middleware-test-secret-0123456789"

func TestRequireAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager(testSecret, time.Minute)
	token, _, err := jwtManager.Generate(&models.User{ID: "u1", Email: "owner@example.com"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	var gotUser, gotEmail string
	handler := RequireAuth(jwtManager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = GetUserID(r.Context())
		gotEmail = GetEmail(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid token", "Bearer " + token, http.StatusOK},
		{"lowercase scheme", "bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage token", "Bearer abc.def.ghi", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotUser, gotEmail = "", ""
			req := httptest.NewRequest(http.MethodGet, "/shops", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantStatus == http.StatusOK && (gotUser != "u1" || gotEmail != "owner@example.com") {
				t.Errorf("context not populated: %q %q", gotUser, gotEmail)
			}
			if tt.wantStatus == http.StatusUnauthorized && !strings.Contains(rec.Body.String(), `"error"`) {
				t.Errorf("expected JSON error body, got %s", rec.Body.String())
			}
		})
	}
}

type fakeRoles map[string]models.Role

func (f fakeRoles) GetMemberRole(_ context.Context, shopID, userID string) (models.Role, error) {
	if role, ok := f[shopID+"/"+userID]; ok {
		return role, nil
	}
	return "", models.ErrNotFound
}

func TestShopAccess(t *testing.T) {
	roles := fakeRoles{"s1/u1": models.RoleManager}

	r := chi.NewRouter()
	r.Route("/shops/{shopID}", func(r chi.Router) {
		r.Use(ShopAccess(roles, "shopID"))
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(GetShopID(r.Context()) + ":" + string(GetRole(r.Context()))))
		})
	})

	tests := []struct {
		name       string
		path       string
		user       string
		wantStatus int
		wantBody   string
	}{
		{"member", "/shops/s1/", "u1", http.StatusOK, "s1:manager"},
		{"stranger", "/shops/s1/", "u2", http.StatusNotFound, "shop not found"},
		{"unknown shop", "/shops/s9/", "u1", http.StatusNotFound, "shop not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req = req.WithContext(WithUser(req.Context(), tt.user, ""))
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("expected body containing %q, got %q", tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })

	t.Run("allowed origin", func(t *testing.T) {
		h := CORS([]string{"https://app.salonmate.kr"})(next)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://app.salonmate.kr")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.salonmate.kr" {
			t.Errorf("unexpected allow-origin %q", got)
		}
		if rec.Code != http.StatusTeapot {
			t.Errorf("request should reach the handler, got %d", rec.Code)
		}
	})

	t.Run("foreign origin", func(t *testing.T) {
		h := CORS([]string{"https://app.salonmate.kr"})(next)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.test")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("expected no allow-origin, got %q", got)
		}
	})

	t.Run("preflight", func(t *testing.T) {
		h := CORS([]string{"*"})(next)
		req := httptest.NewRequest(http.MethodOptions, "/shops", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", rec.Code)
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("unexpected allow-origin %q", got)
		}
	})
}

func TestRequestLoggerTracksUser(t *testing.T) {
	var seen string
	inner := TrackUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		holder := r.Context().Value(requestUserKey).(*requestUser)
		seen = holder.id
		w.WriteHeader(http.StatusCreated)
	}))
	withUser := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner.ServeHTTP(w, r.WithContext(WithUser(r.Context(), "u7", "")))
	})

	rec := httptest.NewRecorder()
	RequestLogger(withUser).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/shops", nil))

	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	if seen != "u7" {
		t.Errorf("expected user to be tracked, got %q", seen)
	}
}

func TestRequireIngestKey(t *testing.T) {
	next := func(context.Context, connect.AnyRequest) (connect.AnyResponse, error) {
		return connect.NewResponse(&struct{}{}), nil
	}

	tests := []struct {
		name   string
		key    string
		header string
		wantOK bool
	}{
		{"matching key", "crawler-secret", "crawler-secret", true},
		{"wrong key", "crawler-secret", "crawler-secreT", false},
		{"prefix of key", "crawler-secret", "crawler", false},
		{"missing header", "crawler-secret", "", false},
		{"ingestion disabled", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := connect.NewRequest(&struct{}{})
			if tt.header != "" {
				req.Header().Set(IngestKeyHeader, tt.header)
			}
			_, err := RequireIngestKey(tt.key)(next)(context.Background(), req)
			if tt.wantOK {
				if err != nil {
					t.Fatalf("expected success, got %v", err)
				}
				return
			}
			if connect.CodeOf(err) != connect.CodeUnauthenticated {
				t.Errorf("expected CodeUnauthenticated, got %v", err)
			}
		})
	}
}
