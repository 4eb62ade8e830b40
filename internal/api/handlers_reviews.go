package api

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/salonmate/salonmate/internal/middleware"
	"github.com/salonmate/salonmate/internal/models"
	"github.com/salonmate/salonmate/internal/service"
)

// queryInt parses an optional integer query parameter. Missing parameters
// are 0.
func queryInt(q url.Values, name string, verr *models.ValidationError) int {
	raw := q.Get(name)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		verr.Add(name, name+" must be an integer")
		return 0
	}
	return n
}

// ListReviews handles GET /shops/{shopID}/reviews.
func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	verr := &models.ValidationError{}
	query := service.ReviewQuery{
		Platform: models.Platform(q.Get("platform")),
		Status:   models.ReviewStatus(q.Get("status")),
		Rating:   queryInt(q, "rating", verr),
		Page:     queryInt(q, "page", verr),
		PageSize: queryInt(q, "page_size", verr),
	}
	if err := verr.OrNil(); err != nil {
		writeError(w, r, err)
		return
	}

	ctx := r.Context()
	page, err := h.svc.Reviews.List(ctx, middleware.GetShopID(ctx), query)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := reviewListResponse{
		Reviews:  make([]reviewResponse, 0, len(page.Reviews)),
		Total:    page.Total,
		Page:     page.Page,
		PageSize: page.PageSize,
	}
	for _, rv := range page.Reviews {
		resp.Reviews = append(resp.Reviews, toReview(rv))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetReview handles GET /shops/{shopID}/reviews/{reviewID}.
func (h *Handler) GetReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	review, err := h.svc.Reviews.Get(ctx, middleware.GetShopID(ctx), chi.URLParam(r, "reviewID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReview(review))
}

// ReviewStats handles GET /shops/{shopID}/reviews/stats.
func (h *Handler) ReviewStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats, err := h.svc.Reviews.Stats(ctx, middleware.GetShopID(ctx))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReviewStats(stats))
}

// GenerateResponse handles POST /shops/{shopID}/reviews/{reviewID}/ai-response.
func (h *Handler) GenerateResponse(w http.ResponseWriter, r *http.Request) {
	var req generateResponseRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	ctx := r.Context()
	review, err := h.svc.Reviews.GenerateResponse(ctx, middleware.GetShopID(ctx), chi.URLParam(r, "reviewID"), req.Tone)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, aiResponseResponse{
		ReviewID:    review.ID,
		AIResponse:  review.AIResponse,
		GeneratedAt: unixTimeValue(review.AIGeneratedAt),
	})
}

// SaveResponse handles PUT /shops/{shopID}/reviews/{reviewID}/response.
func (h *Handler) SaveResponse(w http.ResponseWriter, r *http.Request) {
	var req saveResponseRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	ctx := r.Context()
	review, err := h.svc.Reviews.SaveResponse(ctx, middleware.GetShopID(ctx), chi.URLParam(r, "reviewID"), req.Response)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReview(review))
}

// PublishResponse handles POST /shops/{shopID}/reviews/{reviewID}/publish.
func (h *Handler) PublishResponse(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	ctx := r.Context()
	review, err := h.svc.Reviews.Publish(ctx, middleware.GetShopID(ctx), chi.URLParam(r, "reviewID"), req.Response)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, publishResponse{
		ReviewID:  review.ID,
		Status:    string(review.Status),
		RepliedAt: unixTime(review.RepliedAt),
	})
}
