package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/salonmate/salonmate/internal/middleware"
	"github.com/salonmate/salonmate/internal/models"
	"github.com/salonmate/salonmate/internal/service"
)

// ListPosts handles GET /shops/{shopID}/posts.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	posts, err := h.svc.Posts.List(ctx, middleware.GetShopID(ctx), models.PostStatus(r.URL.Query().Get("status")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": toPosts(posts)})
}

// CreatePost handles POST /shops/{shopID}/posts.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req createPostRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	ctx := r.Context()
	post, err := h.svc.Posts.Create(ctx, middleware.GetShopID(ctx), middleware.GetUserID(ctx), service.PostInput{
		Caption:     req.Caption,
		Hashtags:    req.Hashtags,
		MediaIDs:    req.MediaIDs,
		ScheduledAt: req.ScheduledAt,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPost(post))
}

// GetPost handles GET /shops/{shopID}/posts/{postID}.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	post, err := h.svc.Posts.Get(ctx, middleware.GetShopID(ctx), chi.URLParam(r, "postID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPost(post))
}

// UpdatePost handles PATCH /shops/{shopID}/posts/{postID}.
func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	var req updatePostRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	ctx := r.Context()
	post, err := h.svc.Posts.Update(ctx, middleware.GetShopID(ctx), chi.URLParam(r, "postID"), req.patch())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPost(post))
}

// DeletePost handles DELETE /shops/{shopID}/posts/{postID}.
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.svc.Posts.Delete(ctx, middleware.GetShopID(ctx), chi.URLParam(r, "postID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GenerateCaption handles POST /shops/{shopID}/posts/caption.
func (h *Handler) GenerateCaption(w http.ResponseWriter, r *http.Request) {
	var req captionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	ctx := r.Context()
	draft, err := h.svc.Posts.GenerateCaption(ctx, middleware.GetShopID(ctx), req.Prompt, req.Tone)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, captionResponse{
		Caption:     draft.Caption,
		Hashtags:    draft.Hashtags,
		GeneratedAt: draft.GeneratedAt.UTC(),
	})
}

// Calendar handles GET /shops/{shopID}/calendar.
func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	view, err := h.svc.Calendar.Get(ctx, middleware.GetShopID(ctx), q.Get("start"), q.Get("end"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCalendar(view))
}

// Analytics handles GET /shops/{shopID}/analytics.
func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, models.NewValidationError("days", "days must be an integer"))
			return
		}
		days = n
	}

	ctx := r.Context()
	summary, err := h.svc.Analytics.Summary(ctx, middleware.GetShopID(ctx), days)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAnalytics(summary))
}
