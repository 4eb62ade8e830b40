package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/salonmate/salonmate/internal/ai"
	"github.com/salonmate/salonmate/internal/analytics"
	"github.com/salonmate/salonmate/internal/metrics"
	"github.com/salonmate/salonmate/internal/models"
	"github.com/salonmate/salonmate/internal/storage"
	"github.com/salonmate/salonmate/internal/textedit"
)

const (
	DefaultPageSize   = 20
	MaxPageSize       = 100
	MaxResponseLength = 1000
	// MaxIngestBatch bounds the reviews accepted in one ingestion call.
	MaxIngestBatch = 500
)

// ReviewQuery selects a page of reviews. Zero values match everything.
type ReviewQuery struct {
	Platform models.Platform
	Status   models.ReviewStatus
	Rating   int
	Page     int
	PageSize int
}

// ReviewPage is one page of reviews with the total match count.
type ReviewPage struct {
	Reviews  []*models.Review
	Total    int
	Page     int
	PageSize int
}

// ReviewStats are the dashboard figures with the last ingestion time
// (0 when never synced).
type ReviewStats struct {
	analytics.ReviewStats
	LastSyncedAt int64
}

// IngestBatch is a crawler delivery for one shop and platform.
type IngestBatch struct {
	ShopID   string
	Platform models.Platform
	Reviews  []IngestedReview
}

// IngestedReview is a review as seen on the platform.
type IngestedReview struct {
	ExternalID string
	AuthorName string
	Rating     int
	Content    string
	CreatedAt  int64
}

// IngestResult reports what an ingestion changed.
type IngestResult struct {
	Inserted int
	Updated  int
	SyncedAt int64
}

// ReviewService handles platform reviews and their replies.
type ReviewService struct {
	store         storage.Store
	generator     ai.Generator
	subscriptions *SubscriptionService
	now           func() time.Time
}

// NewReviewService creates a new ReviewService.
func NewReviewService(store storage.Store, generator ai.Generator, subscriptions *SubscriptionService) *ReviewService {
	return &ReviewService{
		store:         store,
		generator:     generator,
		subscriptions: subscriptions,
		now:           time.Now,
	}
}

// List returns a page of the shop's reviews, newest first.
func (s *ReviewService) List(ctx context.Context, shopID string, q ReviewQuery) (*ReviewPage, error) {
	verr := &models.ValidationError{}
	if q.Platform != "" && !q.Platform.Valid() {
		verr.Add("platform", "platform must be one of google, naver, kakao")
	}
	if q.Status != "" && !q.Status.Valid() {
		verr.Add("status", "status must be one of pending, drafted, replied")
	}
	if q.Rating < 0 || q.Rating > 5 {
		verr.Add("rating", "rating must be between 1 and 5")
	}
	if q.Page < 0 {
		verr.Add("page", "page must be positive")
	}
	if q.PageSize < 0 {
		verr.Add("page_size", "page_size must be positive")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if q.Page == 0 {
		q.Page = 1
	}
	switch {
	case q.PageSize == 0:
		q.PageSize = DefaultPageSize
	case q.PageSize > MaxPageSize:
		q.PageSize = MaxPageSize
	}

	reviews, total, err := s.store.ListReviews(ctx, shopID, models.ReviewFilter{
		Platform: q.Platform,
		Status:   q.Status,
		Rating:   q.Rating,
		Limit:    q.PageSize,
		Offset:   (q.Page - 1) * q.PageSize,
	})
	if err != nil {
		slog.Error("ListReviews failed", "shop_id", shopID, "error", err)
		return nil, err
	}

	return &ReviewPage{Reviews: reviews, Total: total, Page: q.Page, PageSize: q.PageSize}, nil
}

// Get returns one review of the shop.
func (s *ReviewService) Get(ctx context.Context, shopID, reviewID string) (*models.Review, error) {
	return s.store.GetReview(ctx, shopID, reviewID)
}

// Stats computes the review dashboard of the shop.
func (s *ReviewService) Stats(ctx context.Context, shopID string) (*ReviewStats, error) {
	shop, err := s.store.GetShop(ctx, shopID)
	if err != nil {
		return nil, err
	}
	aggs, err := s.store.ReviewAggregates(ctx, shopID)
	if err != nil {
		slog.Error("ReviewStats failed", "shop_id", shopID, "error", err)
		return nil, err
	}
	return &ReviewStats{
		ReviewStats:  analytics.ComputeReviewStats(aggs),
		LastSyncedAt: shop.ReviewsSyncedAt,
	}, nil
}

// GenerateResponse drafts a reply with the AI generator in the given tone
// (empty for the default) and consumes one AI generation.
func (s *ReviewService) GenerateResponse(ctx context.Context, shopID, reviewID, tone string) (*models.Review, error) {
	slog.Info("GenerateResponse request received", "shop_id", shopID, "review_id", reviewID, "tone", tone)

	t, err := ai.ParseTone(tone)
	if err != nil {
		return nil, models.NewValidationError("tone", err.Error())
	}

	review, err := s.store.GetReview(ctx, shopID, reviewID)
	if err != nil {
		return nil, err
	}
	if review.Status == models.ReviewReplied {
		return nil, fmt.Errorf("review %s is already replied: %w", reviewID, models.ErrConflict)
	}

	shop, err := s.store.GetShop(ctx, shopID)
	if err != nil {
		return nil, err
	}

	prompt := ai.ReviewPrompt{
		ShopName:   shop.Name,
		Category:   string(shop.Category),
		Platform:   string(review.Platform),
		AuthorName: review.AuthorName,
		Rating:     review.Rating,
		Content:    review.Content,
		Tone:       t,
		StyleTags:  shop.StyleTags,
	}

	// The draft is saved inside gen so that a review replied while the
	// provider was working is not charged a generation.
	err = s.subscriptions.Generate(ctx, shopID, ai.TaskReviewResponse, func() error {
		text, err := s.generator.ReviewResponse(ctx, prompt)
		if err != nil {
			return err
		}
		text = truncateRunes(fitTone(text, t), MaxResponseLength)
		return s.store.SaveAIResponse(ctx, shopID, reviewID, text, s.now().Unix())
	})
	if err != nil {
		logFailure("GenerateResponse failed", err, "shop_id", shopID, "review_id", reviewID)
		return nil, err
	}

	slog.Info("AI response generated", "shop_id", shopID, "review_id", reviewID)
	return s.store.GetReview(ctx, shopID, reviewID)
}

// SaveResponse stores an edited draft reply.
func (s *ReviewService) SaveResponse(ctx context.Context, shopID, reviewID, response string) (*models.Review, error) {
	response = strings.TrimSpace(response)
	if err := validateResponse(response); err != nil {
		return nil, err
	}

	review, err := s.store.GetReview(ctx, shopID, reviewID)
	if err != nil {
		return nil, err
	}
	if review.Status == models.ReviewReplied {
		return nil, fmt.Errorf("review %s is already replied: %w", reviewID, models.ErrConflict)
	}

	review.Response = response
	review.Status = models.ReviewDrafted
	if err := s.store.UpdateReviewReply(ctx, review); err != nil {
		logFailure("SaveResponse failed", err, "review_id", reviewID)
		return nil, err
	}

	slog.Info("Review draft saved", "shop_id", shopID, "review_id", reviewID)
	return review, nil
}

// Publish marks the review as replied with response, or with the saved
// draft or AI response when response is nil. Delivery to the platform
// itself happens outside this service.
func (s *ReviewService) Publish(ctx context.Context, shopID, reviewID string, response *string) (*models.Review, error) {
	slog.Info("PublishResponse request received", "shop_id", shopID, "review_id", reviewID)

	review, err := s.store.GetReview(ctx, shopID, reviewID)
	if err != nil {
		return nil, err
	}
	if review.Status == models.ReviewReplied {
		return nil, fmt.Errorf("review %s is already replied: %w", reviewID, models.ErrConflict)
	}

	var text string
	switch {
	case response != nil && strings.TrimSpace(*response) != "":
		text = strings.TrimSpace(*response)
	case review.Response != "":
		text = review.Response
	default:
		text = review.AIResponse
	}
	if text == "" {
		return nil, models.NewValidationError("response", "no response to publish")
	}
	if err := validateResponse(text); err != nil {
		return nil, err
	}

	review.Response = text
	review.Status = models.ReviewReplied
	review.RepliedAt = s.now().Unix()
	if err := s.store.UpdateReviewReply(ctx, review); err != nil {
		logFailure("PublishResponse failed", err, "review_id", reviewID)
		return nil, err
	}

	metrics.RepliesPublished.WithLabelValues(string(review.Platform)).Inc()
	slog.Info("Review reply published", "shop_id", shopID, "review_id", reviewID, "platform", review.Platform)
	return review, nil
}

// Ingest upserts reviews delivered by a platform crawler. Local reply state
// of known reviews is preserved.
func (s *ReviewService) Ingest(ctx context.Context, batch IngestBatch) (*IngestResult, error) {
	slog.Info("IngestReviews request received",
		"shop_id", batch.ShopID,
		"platform", batch.Platform,
		"reviews_count", len(batch.Reviews),
	)

	verr := &models.ValidationError{}
	if batch.ShopID == "" {
		verr.Add("shop_id", "shop_id is required")
	}
	if !batch.Platform.Valid() {
		verr.Add("platform", "platform must be one of google, naver, kakao")
	}
	if len(batch.Reviews) > MaxIngestBatch {
		verr.Add("reviews", fmt.Sprintf("at most %d reviews per call", MaxIngestBatch))
	}

	reviews := make([]*models.Review, 0, len(batch.Reviews))
	seen := make(map[string]bool, len(batch.Reviews))
	for i, in := range batch.Reviews {
		field := fmt.Sprintf("reviews[%d]", i)
		switch {
		case in.ExternalID == "":
			verr.Add(field+".external_id", "external_id is required")
			continue
		case seen[in.ExternalID]:
			verr.Add(field+".external_id", "duplicate external_id")
			continue
		case in.Rating < 1 || in.Rating > 5:
			verr.Add(field+".rating", "rating must be between 1 and 5")
			continue
		}
		seen[in.ExternalID] = true
		reviews = append(reviews, &models.Review{
			Platform:        batch.Platform,
			ExternalID:      in.ExternalID,
			AuthorName:      strings.TrimSpace(in.AuthorName),
			Rating:          in.Rating,
			Content:         in.Content,
			ReviewCreatedAt: in.CreatedAt,
			Status:          models.ReviewPending,
		})
	}
	if err := verr.OrNil(); err != nil {
		slog.Warn("IngestReviews rejected", "shop_id", batch.ShopID, "error", err)
		return nil, err
	}

	syncedAt := s.now().Unix()
	inserted, updated, err := s.store.UpsertReviews(ctx, batch.ShopID, reviews, syncedAt)
	if err != nil {
		logFailure("IngestReviews failed", err, "shop_id", batch.ShopID)
		return nil, err
	}

	metrics.ReviewsIngested.WithLabelValues(string(batch.Platform), "inserted").Add(float64(inserted))
	metrics.ReviewsIngested.WithLabelValues(string(batch.Platform), "updated").Add(float64(updated))
	slog.Info("Reviews ingested", "shop_id", batch.ShopID, "inserted", inserted, "updated", updated)

	return &IngestResult{Inserted: inserted, Updated: updated, SyncedAt: syncedAt}, nil
}

func validateResponse(text string) error {
	switch n := utf8.RuneCountInString(text); {
	case n == 0:
		return models.NewValidationError("response", "response is required")
	case n > MaxResponseLength:
		return models.NewValidationError("response", "response must be at most 1000 characters")
	}
	return nil
}

// fitTone removes emoji from formal texts; providers add them regardless of
// the requested tone.
func fitTone(text string, t ai.Tone) string {
	if t != ai.ToneFormal || textedit.CountEmoji(text) == 0 {
		return text
	}
	return textedit.StripEmoji(text)
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
