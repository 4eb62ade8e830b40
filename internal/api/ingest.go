package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"connectrpc.com/connect"

	"github.com/salonmate/salonmate/internal/auth"
	"github.com/salonmate/salonmate/internal/middleware"
	"github.com/salonmate/salonmate/internal/models"
	"github.com/salonmate/salonmate/internal/service"
)

// IngestReviewsProcedure is the Connect procedure platform crawlers call.
const IngestReviewsProcedure = "/salonmate.v1.IngestService/IngestReviews"

// IngestReviewsRequest is one crawler delivery.
type IngestReviewsRequest struct {
	ShopID   string         `json:"shop_id"`
	Platform string         `json:"platform"`
	Reviews  []IngestReview `json:"reviews"`
}

// IngestReview is a review as seen on the platform.
type IngestReview struct {
	ExternalID string     `json:"external_id"`
	AuthorName string     `json:"author_name"`
	Rating     int        `json:"rating"`
	Content    string     `json:"content"`
	CreatedAt  *time.Time `json:"created_at"`
}

// IngestReviewsResponse reports what the delivery changed.
type IngestReviewsResponse struct {
	Inserted int       `json:"inserted"`
	Updated  int       `json:"updated"`
	SyncedAt time.Time `json:"synced_at"`
}

// JSONCodec is a Connect codec for plain Go structs. It replaces the
// protobuf JSON codec so the service needs no generated messages.
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (JSONCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// IngestService receives reviews from platform crawlers.
type IngestService struct {
	reviews *service.ReviewService
}

// NewIngestService creates a new IngestService.
func NewIngestService(reviews *service.ReviewService) *IngestService {
	return &IngestService{reviews: reviews}
}

// IngestReviews upserts a delivery of reviews.
func (s *IngestService) IngestReviews(
	ctx context.Context,
	req *connect.Request[IngestReviewsRequest],
) (*connect.Response[IngestReviewsResponse], error) {
	batch := service.IngestBatch{
		ShopID:   req.Msg.ShopID,
		Platform: models.Platform(req.Msg.Platform),
		Reviews:  make([]service.IngestedReview, 0, len(req.Msg.Reviews)),
	}
	for _, r := range req.Msg.Reviews {
		in := service.IngestedReview{
			ExternalID: r.ExternalID,
			AuthorName: r.AuthorName,
			Rating:     r.Rating,
			Content:    r.Content,
		}
		if r.CreatedAt != nil {
			in.CreatedAt = r.CreatedAt.Unix()
		}
		batch.Reviews = append(batch.Reviews, in)
	}

	res, err := s.reviews.Ingest(ctx, batch)
	if err != nil {
		return nil, connectError(err)
	}

	return connect.NewResponse(&IngestReviewsResponse{
		Inserted: res.Inserted,
		Updated:  res.Updated,
		SyncedAt: unixTimeValue(res.SyncedAt),
	}), nil
}

// NewIngestHandler returns the route and handler of the ingestion
// procedure. Requests must carry key in the X-Ingest-Key header.
func NewIngestHandler(reviews *service.ReviewService, key string) (string, http.Handler) {
	svc := NewIngestService(reviews)
	handler := connect.NewUnaryHandler(
		IngestReviewsProcedure,
		svc.IngestReviews,
		connect.WithCodec(JSONCodec{}),
		connect.WithInterceptors(
			middleware.LoggingInterceptor(),
			middleware.RequireIngestKey(key),
		),
	)
	return IngestReviewsProcedure, handler
}

// connectError maps service errors to Connect codes.
func connectError(err error) error {
	switch {
	case models.IsValidation(err):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrMissingToken):
		return connect.NewError(connect.CodeUnauthenticated, err)
	case errors.Is(err, models.ErrForbidden):
		return connect.NewError(connect.CodePermissionDenied, err)
	case errors.Is(err, models.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, models.ErrConflict):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, models.ErrQuotaExceeded):
		return connect.NewError(connect.CodeResourceExhausted, err)
	}
	return connect.NewError(connect.CodeInternal, errors.New("internal error"))
}
