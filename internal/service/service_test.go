package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/salonmate/salonmate/internal/ai"
	"github.com/salonmate/salonmate/internal/auth"
	"github.com/salonmate/salonmate/internal/models"
	"github.com/salonmate/salonmate/internal/storage/sqlstore"
)

// testClock is a settable clock shared by the services under test.
type testClock struct{ t time.Time }

func (c *testClock) now() time.Time { return c.t }

type testEnv struct {
	store         *sqlstore.Store
	clock         *testClock
	generator     *fakeGenerator
	auth          *AuthService
	shops         *ShopService
	team          *TeamService
	media         *MediaService
	subscriptions *SubscriptionService
	reviews       *ReviewService
	posts         *PostService
	calendar      *CalendarService
	analytics     *AnalyticsService
}

// setupTestEnv wires every service to a fresh temp-file SQLite database.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "salonmate-service-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlstore.New(sqlstore.DriverSQLite, filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	clock := &testClock{t: time.Now().Truncate(time.Second)}
	gen := &fakeGenerator{TemplateGenerator: ai.NewTemplateGenerator()}
	jwtManager := auth.NewJWTManager("service-test-secret-0123456789abcd", 15*time.Minute)
	authenticator := auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost)

	env := &testEnv{
		store:         store,
		clock:         clock,
		generator:     gen,
		auth:          NewAuthService(store, authenticator, jwtManager, 24*time.Hour),
		shops:         NewShopService(store),
		team:          NewTeamService(store),
		media:         NewMediaService(store),
		subscriptions: NewSubscriptionService(store),
		calendar:      NewCalendarService(store),
		analytics:     NewAnalyticsService(store),
	}
	env.reviews = NewReviewService(store, gen, env.subscriptions)
	env.posts = NewPostService(store, gen, env.subscriptions)

	env.auth.now = clock.now
	env.shops.now = clock.now
	env.subscriptions.now = clock.now
	env.reviews.now = clock.now
	env.posts.now = clock.now
	env.analytics.now = clock.now
	return env
}

// fakeGenerator wraps the template generator with call counting, an
// injectable failure and canned output.
type fakeGenerator struct {
	*ai.TemplateGenerator
	calls   int
	err     error
	reply   string
	caption *ai.CaptionResult
}

func (g *fakeGenerator) ReviewResponse(ctx context.Context, p ai.ReviewPrompt) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	if g.reply != "" {
		return g.reply, nil
	}
	return g.TemplateGenerator.ReviewResponse(ctx, p)
}

func (g *fakeGenerator) Caption(ctx context.Context, p ai.CaptionPrompt) (*ai.CaptionResult, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	if g.caption != nil {
		return g.caption, nil
	}
	return g.TemplateGenerator.Caption(ctx, p)
}

func (env *testEnv) signup(t *testing.T, email string) *models.User {
	t.Helper()
	session, err := env.auth.Signup(context.Background(), email, "password123", "User "+email)
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	return session.User
}

func (env *testEnv) createShop(t *testing.T, owner *models.User, name string) *models.Shop {
	t.Helper()
	shop, err := env.shops.Create(context.Background(), owner.ID, ShopInput{
		Name:     name,
		Category: models.CategoryHair,
	})
	if err != nil {
		t.Fatalf("CreateShop failed: %v", err)
	}
	return &shop.Shop
}

func (env *testEnv) ingest(t *testing.T, shopID string, platform models.Platform, reviews ...IngestedReview) {
	t.Helper()
	_, err := env.reviews.Ingest(context.Background(), IngestBatch{ShopID: shopID, Platform: platform, Reviews: reviews})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
}

func assertValidation(t *testing.T, err error, field string) {
	t.Helper()
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *models.ValidationError, got %T: %v", err, err)
	}
	if _, ok := verr.Fields[field]; !ok {
		t.Errorf("expected field %q in %v", field, verr.Fields)
	}
}
