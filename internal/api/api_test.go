package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/crypto/bcrypt"

	"github.com/salonmate/salonmate/internal/ai"
	"github.com/salonmate/salonmate/internal/auth"
	"github.com/salonmate/salonmate/internal/middleware"
	"github.com/salonmate/salonmate/internal/service"
	"github.com/salonmate/salonmate/internal/storage/sqlstore"
	"github.com/salonmate/salonmate/internal/testutil"
)

const testIngestKey = "ingest-secret"

type testServer struct {
	server *httptest.Server
	client *testutil.Client
	store  *sqlstore.Store
}

func setupServer(t *testing.T) *testServer {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "salonmate-api-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlstore.New(sqlstore.DriverSQLite, filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	jwtManager := auth.NewJWTManager("api-test-secret-0123456789abcdefgh", 15*time.Minute)
	authenticator := auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost)
	generator := ai.NewTemplateGenerator()
	subscriptions := service.NewSubscriptionService(store)

	svc := Services{
		Auth:          service.NewAuthService(store, authenticator, jwtManager, 24*time.Hour),
		Shops:         service.NewShopService(store),
		Team:          service.NewTeamService(store),
		Media:         service.NewMediaService(store),
		Subscriptions: subscriptions,
		Reviews:       service.NewReviewService(store, generator, subscriptions),
		Posts:         service.NewPostService(store, generator, subscriptions),
		Calendar:      service.NewCalendarService(store),
		Analytics:     service.NewAnalyticsService(store),
	}
	router := NewRouter(svc, Options{
		JWT:         jwtManager,
		Roles:       store,
		IngestKey:   testIngestKey,
		CORSOrigins: []string{"*"},
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testServer{server: server, client: testutil.NewClient(t, server), store: store}
}

// signup registers a user and returns a client authenticated as them.
func (ts *testServer) signup(t *testing.T, email string) (*testutil.Client, sessionResponse) {
	t.Helper()
	var session sessionResponse
	ts.client.Post("/auth/signup", map[string]string{
		"email":        email,
		"password":     "password123",
		"display_name": "User",
	}).AssertStatus(http.StatusCreated).JSON(&session)
	return ts.client.WithToken(session.AccessToken), session
}

func (ts *testServer) createShop(t *testing.T, c *testutil.Client, name string) shopResponse {
	t.Helper()
	var shop shopResponse
	c.Post("/shops", map[string]string{"name": name, "category": "hair"}).
		AssertStatus(http.StatusCreated).JSON(&shop)
	return shop
}

func (ts *testServer) ingestClient() *connect.Client[IngestReviewsRequest, IngestReviewsResponse] {
	return connect.NewClient[IngestReviewsRequest, IngestReviewsResponse](
		ts.server.Client(),
		ts.server.URL+IngestReviewsProcedure,
		connect.WithCodec(JSONCodec{}),
	)
}

func (ts *testServer) ingest(t *testing.T, shopID string, reviews ...IngestReview) *IngestReviewsResponse {
	t.Helper()
	req := connect.NewRequest(&IngestReviewsRequest{ShopID: shopID, Platform: "naver", Reviews: reviews})
	req.Header().Set(middleware.IngestKeyHeader, testIngestKey)
	resp, err := ts.ingestClient().CallUnary(context.Background(), req)
	if err != nil {
		t.Fatalf("IngestReviews failed: %v", err)
	}
	return resp.Msg
}

func TestHealthAndMetrics(t *testing.T) {
	ts := setupServer(t)
	ts.client.Get("/health").AssertStatus(http.StatusOK).AssertBodyContains("ok")
	ts.client.Get("/health")
	ts.client.Get("/metrics").AssertStatus(http.StatusOK).AssertBodyContains("salonmate_http_requests_total")
}

func TestAuthFlow(t *testing.T) {
	ts := setupServer(t)
	c, session := ts.signup(t, "Owner@Example.com")

	if session.User.Email != "owner@example.com" || session.RefreshToken == "" {
		t.Errorf("unexpected session %+v", session)
	}

	t.Run("signup errors", func(t *testing.T) {
		ts.client.Post("/auth/signup", map[string]string{"email": "owner@example.com", "password": "password123"}).
			AssertStatus(http.StatusConflict)
		ts.client.Post("/auth/signup", map[string]string{"email": "new@example.com", "password": "short"}).
			AssertStatus(http.StatusBadRequest).AssertField("password")
		ts.client.Post("/auth/signup", map[string]string{"password": "password123"}).
			AssertStatus(http.StatusBadRequest).AssertField("email")
		ts.client.Post("/auth/signup", `{"email": "x@example.com", "password": "password123", "admin": true}`).
			AssertStatus(http.StatusBadRequest).AssertField("body")
	})

	t.Run("login", func(t *testing.T) {
		ts.client.Post("/auth/login", map[string]string{"email": "owner@example.com", "password": "password123"}).
			AssertStatus(http.StatusOK).AssertBodyContains("access_token")
		ts.client.Post("/auth/login", map[string]string{"email": "owner@example.com", "password": "wrong-password"}).
			AssertStatus(http.StatusUnauthorized)
	})

	t.Run("me", func(t *testing.T) {
		ts.client.Get("/auth/me").AssertStatus(http.StatusUnauthorized)
		ts.client.WithToken("garbage").Get("/auth/me").AssertStatus(http.StatusUnauthorized)

		var me meResponse
		c.Get("/auth/me").AssertStatus(http.StatusOK).JSON(&me)
		if me.User.ID != session.User.ID || len(me.Shops) != 0 || me.SelectedShopID != nil {
			t.Errorf("unexpected profile %+v", me)
		}

		shop := ts.createShop(t, c, "Salon On")
		c.Get("/auth/me").AssertStatus(http.StatusOK).JSON(&me)
		if me.SelectedShopID == nil || *me.SelectedShopID != shop.ID {
			t.Errorf("expected first shop to be selected, got %v", me.SelectedShopID)
		}

		c.Put("/auth/me/selected-shop", map[string]string{"shop_id": "missing"}).AssertStatus(http.StatusNotFound)
		c.Put("/auth/me/selected-shop", map[string]string{"shop_id": shop.ID}).
			AssertStatus(http.StatusOK).AssertBodyContains(shop.ID)
	})

	t.Run("refresh rotates", func(t *testing.T) {
		var next sessionResponse
		ts.client.Post("/auth/refresh", map[string]string{"refresh_token": session.RefreshToken}).
			AssertStatus(http.StatusOK).JSON(&next)
		if next.RefreshToken == session.RefreshToken {
			t.Error("refresh token should rotate")
		}
		ts.client.Post("/auth/refresh", map[string]string{"refresh_token": session.RefreshToken}).
			AssertStatus(http.StatusUnauthorized)

		ts.client.Post("/auth/logout", map[string]string{"refresh_token": next.RefreshToken}).
			AssertStatus(http.StatusNoContent)
		ts.client.Post("/auth/logout", map[string]string{"refresh_token": next.RefreshToken}).
			AssertStatus(http.StatusNoContent)
		ts.client.Post("/auth/refresh", map[string]string{"refresh_token": next.RefreshToken}).
			AssertStatus(http.StatusUnauthorized)
	})
}

func TestShopsAndTenancy(t *testing.T) {
	ts := setupServer(t)
	owner, _ := ts.signup(t, "owner@example.com")
	outsider, _ := ts.signup(t, "outsider@example.com")
	staff, _ := ts.signup(t, "staff@example.com")

	shop := ts.createShop(t, owner, "Salon On")
	if shop.Role != "owner" || shop.Timezone != "Asia/Seoul" || shop.ReviewsSyncedAt != nil {
		t.Errorf("unexpected shop %+v", shop)
	}
	owner.Post("/shops", map[string]string{"name": "", "category": "spa"}).
		AssertStatus(http.StatusBadRequest).AssertField("category")

	base := "/shops/" + shop.ID
	outsider.Get(base).AssertStatus(http.StatusNotFound)
	outsider.Get(base + "/reviews").AssertStatus(http.StatusNotFound)

	owner.Post(base+"/team", map[string]string{"email": "staff@example.com", "role": "staff"}).
		AssertStatus(http.StatusCreated).AssertBodyContains(`"status":"active"`)
	owner.Post(base+"/team", map[string]string{"email": "staff@example.com", "role": "staff"}).
		AssertStatus(http.StatusConflict)
	owner.Post(base+"/team", map[string]string{"email": "x@example.com", "role": "owner"}).
		AssertStatus(http.StatusBadRequest).AssertField("role")

	var got shopResponse
	staff.Get(base).AssertStatus(http.StatusOK).JSON(&got)
	if got.Role != "staff" {
		t.Errorf("expected staff role, got %q", got.Role)
	}
	staff.Patch(base, map[string]string{"name": "Renamed"}).AssertStatus(http.StatusForbidden)
	staff.Post(base+"/team", map[string]string{"email": "y@example.com", "role": "staff"}).
		AssertStatus(http.StatusForbidden)

	owner.Patch(base, map[string]string{"name": "Salon On Gangnam", "timezone": "Asia/Tokyo"}).
		AssertStatus(http.StatusOK).AssertBodyContains("Salon On Gangnam")
	owner.Patch(base, map[string]string{"timezone": "Mars/Olympus"}).
		AssertStatus(http.StatusBadRequest).AssertField("timezone")

	var tags styleTagsResponse
	owner.Put(base+"/style-tags", map[string][]string{"tags": {" 레이어드컷 ", "balayage", "Balayage"}}).
		AssertStatus(http.StatusOK).JSON(&tags)
	if len(tags.Tags) != 2 {
		t.Errorf("expected deduplicated tags, got %v", tags.Tags)
	}

	var sub subscriptionResponse
	staff.Get(base + "/subscription").AssertStatus(http.StatusOK).JSON(&sub)
	if sub.Plan != "free" || sub.AIGenerationLimit != 10 || sub.AIGenerationsUsed != 0 {
		t.Errorf("unexpected subscription %+v", sub)
	}

	var media mediaResponse
	owner.Post(base+"/media", map[string]any{"url": "https://cdn.example.com/a.jpg", "kind": "image", "width": 1080}).
		AssertStatus(http.StatusCreated).JSON(&media)
	owner.Post(base+"/media", map[string]any{"url": "ftp://cdn.example.com/a.jpg", "kind": "image"}).
		AssertStatus(http.StatusBadRequest).AssertField("url")
	owner.Get(base + "/media?kind=image").AssertStatus(http.StatusOK).AssertBodyContains(media.ID)
	owner.Delete(base + "/media/" + media.ID).AssertStatus(http.StatusNoContent)
	owner.Delete(base + "/media/" + media.ID).AssertStatus(http.StatusNotFound)

	staff.Delete(base).AssertStatus(http.StatusForbidden)
	owner.Delete(base).AssertStatus(http.StatusNoContent)
	owner.Get(base).AssertStatus(http.StatusNotFound)
}

func TestReviewFlow(t *testing.T) {
	ts := setupServer(t)
	owner, _ := ts.signup(t, "owner@example.com")
	shop := ts.createShop(t, owner, "Salon On")
	base := "/shops/" + shop.ID + "/reviews"

	var stats reviewStatsResponse
	owner.Get(base + "/stats").AssertStatus(http.StatusOK).JSON(&stats)
	if stats.TotalReviews != 0 || stats.LastSyncedAt != nil {
		t.Errorf("unexpected empty stats %+v", stats)
	}

	posted := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
	res := ts.ingest(t, shop.ID,
		IngestReview{ExternalID: "n1", AuthorName: "김지영", Rating: 5, Content: "최고예요", CreatedAt: &posted},
		IngestReview{ExternalID: "n2", AuthorName: "박민수", Rating: 2, Content: "별로였어요", CreatedAt: &posted},
	)
	if res.Inserted != 2 || res.Updated != 0 || res.SyncedAt.IsZero() {
		t.Errorf("unexpected ingest result %+v", res)
	}

	var page reviewListResponse
	owner.Get(base + "?rating=2").AssertStatus(http.StatusOK).JSON(&page)
	if page.Total != 1 || page.Reviews[0].ExternalID != "n2" || page.PageSize != 20 {
		t.Fatalf("unexpected page %+v", page)
	}
	owner.Get(base + "?page=abc").AssertStatus(http.StatusBadRequest).AssertField("page")
	owner.Get(base + "?platform=yelp").AssertStatus(http.StatusBadRequest).AssertField("platform")

	reviewID := page.Reviews[0].ID
	var generated aiResponseResponse
	owner.Post(base+"/"+reviewID+"/ai-response", map[string]string{"tone": "apologetic"}).
		AssertStatus(http.StatusOK).JSON(&generated)
	if generated.ReviewID != reviewID || generated.AIResponse == "" {
		t.Errorf("unexpected generation %+v", generated)
	}
	owner.Post(base+"/"+reviewID+"/ai-response", map[string]string{"tone": "angry"}).
		AssertStatus(http.StatusBadRequest).AssertField("tone")

	var review reviewResponse
	owner.Get(base + "/" + reviewID).AssertStatus(http.StatusOK).JSON(&review)
	if review.Status != "drafted" || review.AIResponse == nil || review.Response != nil {
		t.Errorf("unexpected review %+v", review)
	}

	owner.Put(base+"/"+reviewID+"/response", map[string]string{"response": ""}).
		AssertStatus(http.StatusBadRequest).AssertField("response")

	var published publishResponse
	owner.Post(base+"/"+reviewID+"/publish", nil).AssertStatus(http.StatusOK).JSON(&published)
	if published.Status != "replied" || published.RepliedAt == nil {
		t.Errorf("unexpected publish %+v", published)
	}
	owner.Post(base+"/"+reviewID+"/publish", map[string]string{"response": "again"}).
		AssertStatus(http.StatusConflict)
	owner.Post(base+"/"+reviewID+"/ai-response", nil).AssertStatus(http.StatusConflict)

	owner.Get(base + "/stats").AssertStatus(http.StatusOK).JSON(&stats)
	if stats.TotalReviews != 2 || stats.ResponseRate != 50 || stats.AverageRating != 3.5 || stats.LastSyncedAt == nil {
		t.Errorf("unexpected stats %+v", stats)
	}
	if stats.ByPlatform["naver"].PendingCount != 1 {
		t.Errorf("unexpected platform stats %+v", stats.ByPlatform)
	}

	owner.Get(base + "/missing").AssertStatus(http.StatusNotFound)
}

func TestAIQuota(t *testing.T) {
	ts := setupServer(t)
	owner, _ := ts.signup(t, "owner@example.com")
	shop := ts.createShop(t, owner, "Salon On")
	ts.ingest(t, shop.ID, IngestReview{ExternalID: "n1", Rating: 4})

	var page reviewListResponse
	owner.Get("/shops/" + shop.ID + "/reviews").AssertStatus(http.StatusOK).JSON(&page)
	path := fmt.Sprintf("/shops/%s/reviews/%s/ai-response", shop.ID, page.Reviews[0].ID)

	for i := 0; i < 5; i++ {
		owner.Post(path, nil).AssertStatus(http.StatusOK)
	}
	for i := 0; i < 5; i++ {
		owner.Post("/shops/"+shop.ID+"/posts/caption", map[string]string{"prompt": "가을 신상"}).
			AssertStatus(http.StatusOK)
	}
	owner.Post(path, nil).AssertStatus(http.StatusTooManyRequests)
	owner.Post("/shops/"+shop.ID+"/posts/caption", map[string]string{"prompt": "가을 신상"}).
		AssertStatus(http.StatusTooManyRequests)

	var sub subscriptionResponse
	owner.Get("/shops/" + shop.ID + "/subscription").JSON(&sub)
	if sub.AIGenerationsUsed != 10 {
		t.Errorf("expected 10 generations used, got %d", sub.AIGenerationsUsed)
	}
}

func TestPostsCalendarAnalytics(t *testing.T) {
	ts := setupServer(t)
	owner, _ := ts.signup(t, "owner@example.com")
	shop := ts.createShop(t, owner, "Salon On")
	base := "/shops/" + shop.ID

	owner.Post(base+"/posts", map[string]any{"caption": "past", "scheduled_at": time.Now().Add(-time.Hour)}).
		AssertStatus(http.StatusBadRequest).AssertField("scheduled_at")
	owner.Post(base+"/posts", map[string]any{"media_ids": []string{"missing"}}).
		AssertStatus(http.StatusBadRequest).AssertField("media_ids")

	at := time.Date(2031, 3, 10, 1, 0, 0, 0, time.UTC)
	var post postResponse
	owner.Post(base+"/posts", map[string]any{
		"caption":      "오픈 이벤트 #Perm",
		"hashtags":     []string{"salon", "perm"},
		"scheduled_at": at,
	}).AssertStatus(http.StatusCreated).JSON(&post)
	if post.Status != "scheduled" || len(post.Hashtags) != 2 {
		t.Errorf("unexpected post %+v", post)
	}

	var cal calendarResponse
	owner.Get(base + "/calendar?start=2031-03-01&end=2031-03-31").AssertStatus(http.StatusOK).JSON(&cal)
	if len(cal.Entries) != 1 || cal.Entries[0].Date != "2031-03-10" || cal.Entries[0].Posts[0].ID != post.ID {
		t.Errorf("unexpected calendar %+v", cal)
	}
	owner.Get(base + "/calendar?start=2031-03-31&end=2031-03-01").
		AssertStatus(http.StatusBadRequest).AssertField("end")
	owner.Get(base + "/calendar?start=bad&end=2031-03-01").
		AssertStatus(http.StatusBadRequest).AssertField("start")

	// A null schedule unschedules; an absent one leaves it alone.
	owner.Patch(base+"/posts/"+post.ID, map[string]any{"caption": "edited"}).
		AssertStatus(http.StatusOK).AssertBodyContains(`"status":"scheduled"`)
	owner.Patch(base+"/posts/"+post.ID, map[string]any{"scheduled_at": nil}).
		AssertStatus(http.StatusOK).AssertBodyContains(`"status":"draft"`)

	owner.Get(base + "/calendar?start=2031-03-01&end=2031-03-31").JSON(&cal)
	if len(cal.Entries) != 0 {
		t.Errorf("draft should leave the calendar, got %+v", cal.Entries)
	}

	owner.Get(base + "/posts?status=draft").AssertStatus(http.StatusOK).AssertBodyContains(post.ID)
	owner.Get(base + "/posts?status=bogus").AssertStatus(http.StatusBadRequest)

	var summary analyticsResponse
	owner.Get(base + "/analytics?days=7").AssertStatus(http.StatusOK).JSON(&summary)
	if summary.PeriodDays != 7 || len(summary.DailyReviews) != 7 || len(summary.RatingDistribution) != 5 {
		t.Errorf("unexpected analytics %+v", summary)
	}
	owner.Get(base + "/analytics?days=400").AssertStatus(http.StatusBadRequest).AssertField("days")
	owner.Get(base + "/analytics?days=x").AssertStatus(http.StatusBadRequest).AssertField("days")

	owner.Delete(base + "/posts/" + post.ID).AssertStatus(http.StatusNoContent)
	owner.Get(base + "/posts/" + post.ID).AssertStatus(http.StatusNotFound)
}

func TestIngestRPC(t *testing.T) {
	ts := setupServer(t)
	owner, _ := ts.signup(t, "owner@example.com")
	shop := ts.createShop(t, owner, "Salon On")
	client := ts.ingestClient()

	tests := []struct {
		name string
		key  string
		req  *IngestReviewsRequest
		code connect.Code
	}{
		{"missing key", "", &IngestReviewsRequest{ShopID: shop.ID, Platform: "naver"}, connect.CodeUnauthenticated},
		{"wrong key", "nope", &IngestReviewsRequest{ShopID: shop.ID, Platform: "naver"}, connect.CodeUnauthenticated},
		{"bad platform", testIngestKey, &IngestReviewsRequest{ShopID: shop.ID, Platform: "yelp"}, connect.CodeInvalidArgument},
		{"unknown shop", testIngestKey, &IngestReviewsRequest{ShopID: "missing", Platform: "naver"}, connect.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := connect.NewRequest(tt.req)
			if tt.key != "" {
				req.Header().Set(middleware.IngestKeyHeader, tt.key)
			}
			_, err := client.CallUnary(context.Background(), req)
			var connectErr *connect.Error
			if !errors.As(err, &connectErr) {
				t.Fatalf("expected connect error, got %v", err)
			}
			if connectErr.Code() != tt.code {
				t.Errorf("code = %v, want %v", connectErr.Code(), tt.code)
			}
		})
	}

	t.Run("re-ingest updates", func(t *testing.T) {
		ts.ingest(t, shop.ID, IngestReview{ExternalID: "n1", Rating: 3})
		res := ts.ingest(t, shop.ID, IngestReview{ExternalID: "n1", Rating: 4}, IngestReview{ExternalID: "n2", Rating: 5})
		if res.Inserted != 1 || res.Updated != 1 {
			t.Errorf("unexpected result %+v", res)
		}
	})
}

func TestCORSPreflight(t *testing.T) {
	ts := setupServer(t)
	resp := ts.client.DoWithHeaders(http.MethodOptions, "/shops", nil, map[string]string{
		"Origin":                        "https://app.salonmate.kr",
		"Access-Control-Request-Method": "POST",
	})
	resp.AssertStatus(http.StatusNoContent)
	if resp.Headers.Get("Access-Control-Allow-Origin") == "" {
		t.Error("expected CORS headers on preflight")
	}
}
