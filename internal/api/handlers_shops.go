package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/salonmate/salonmate/internal/middleware"
	"github.com/salonmate/salonmate/internal/models"
	"github.com/salonmate/salonmate/internal/service"
)

// ListShops handles GET /shops.
func (h *Handler) ListShops(w http.ResponseWriter, r *http.Request) {
	shops, err := h.svc.Shops.List(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := make([]shopResponse, 0, len(shops))
	for _, s := range shops {
		resp = append(resp, toShopWithRole(s))
	}
	writeJSON(w, http.StatusOK, map[string]any{"shops": resp})
}

// CreateShop handles POST /shops.
func (h *Handler) CreateShop(w http.ResponseWriter, r *http.Request) {
	var req createShopRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	shop, err := h.svc.Shops.Create(r.Context(), middleware.GetUserID(r.Context()), service.ShopInput{
		Name:     req.Name,
		Category: models.Category(req.Category),
		Address:  req.Address,
		Phone:    req.Phone,
		Timezone: req.Timezone,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toShopWithRole(shop))
}

// GetShop handles GET /shops/{shopID}.
func (h *Handler) GetShop(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	shop, err := h.svc.Shops.Get(ctx, middleware.GetShopID(ctx))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toShopWithRole(&models.ShopWithRole{Shop: *shop, Role: middleware.GetRole(ctx)}))
}

// UpdateShop handles PATCH /shops/{shopID}.
func (h *Handler) UpdateShop(w http.ResponseWriter, r *http.Request) {
	var req updateShopRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	ctx := r.Context()
	shop, err := h.svc.Shops.Update(ctx, middleware.GetShopID(ctx), middleware.GetRole(ctx), req.patch())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toShopWithRole(&models.ShopWithRole{Shop: *shop, Role: middleware.GetRole(ctx)}))
}

// DeleteShop handles DELETE /shops/{shopID}.
func (h *Handler) DeleteShop(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.svc.Shops.Delete(ctx, middleware.GetShopID(ctx), middleware.GetRole(ctx)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetStyleTags handles GET /shops/{shopID}/style-tags.
func (h *Handler) GetStyleTags(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tags, err := h.svc.Shops.StyleTags(ctx, middleware.GetShopID(ctx))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, styleTagsResponse{Tags: tags})
}

// SetStyleTags handles PUT /shops/{shopID}/style-tags.
func (h *Handler) SetStyleTags(w http.ResponseWriter, r *http.Request) {
	var req styleTagsRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	ctx := r.Context()
	tags, err := h.svc.Shops.SetStyleTags(ctx, middleware.GetShopID(ctx), middleware.GetRole(ctx), req.Tags)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, styleTagsResponse{Tags: tags})
}

// ListTeam handles GET /shops/{shopID}/team.
func (h *Handler) ListTeam(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	members, err := h.svc.Team.List(ctx, middleware.GetShopID(ctx))
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := make([]teamMemberResponse, 0, len(members))
	for _, m := range members {
		resp = append(resp, toTeamMember(m))
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": resp})
}

// InviteMember handles POST /shops/{shopID}/team.
func (h *Handler) InviteMember(w http.ResponseWriter, r *http.Request) {
	var req inviteRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	ctx := r.Context()
	member, err := h.svc.Team.Invite(ctx,
		middleware.GetShopID(ctx),
		middleware.GetUserID(ctx),
		middleware.GetRole(ctx),
		req.Email,
		models.Role(req.Role),
	)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTeamMember(member))
}

// RemoveMember handles DELETE /shops/{shopID}/team/{memberID}.
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	err := h.svc.Team.Remove(ctx, middleware.GetShopID(ctx), middleware.GetRole(ctx), chi.URLParam(r, "memberID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListMedia handles GET /shops/{shopID}/media.
func (h *Handler) ListMedia(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	items, err := h.svc.Media.List(ctx, middleware.GetShopID(ctx), models.MediaKind(r.URL.Query().Get("kind")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := make([]mediaResponse, 0, len(items))
	for _, m := range items {
		resp = append(resp, toMedia(m))
	}
	writeJSON(w, http.StatusOK, map[string]any{"media": resp})
}

// CreateMedia handles POST /shops/{shopID}/media.
func (h *Handler) CreateMedia(w http.ResponseWriter, r *http.Request) {
	var req createMediaRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	ctx := r.Context()
	item, err := h.svc.Media.Create(ctx, middleware.GetShopID(ctx), middleware.GetUserID(ctx), service.MediaInput{
		URL:     req.URL,
		Kind:    models.MediaKind(req.Kind),
		Width:   req.Width,
		Height:  req.Height,
		AltText: req.AltText,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMedia(item))
}

// DeleteMedia handles DELETE /shops/{shopID}/media/{mediaID}.
func (h *Handler) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.svc.Media.Delete(ctx, middleware.GetShopID(ctx), chi.URLParam(r, "mediaID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSubscription handles GET /shops/{shopID}/subscription.
func (h *Handler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	usage, err := h.svc.Subscriptions.Get(ctx, middleware.GetShopID(ctx))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubscription(usage))
}
