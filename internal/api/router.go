// Package api implements the SalonMate REST API and the Connect ingestion
// service on a chi router.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/salonmate/salonmate/internal/auth"
	"github.com/salonmate/salonmate/internal/metrics"
	"github.com/salonmate/salonmate/internal/middleware"
	"github.com/salonmate/salonmate/internal/service"
)

// Services are the business services behind the API.
type Services struct {
	Auth          *service.AuthService
	Shops         *service.ShopService
	Team          *service.TeamService
	Media         *service.MediaService
	Subscriptions *service.SubscriptionService
	Reviews       *service.ReviewService
	Posts         *service.PostService
	Calendar      *service.CalendarService
	Analytics     *service.AnalyticsService
}

// Options configure the router.
type Options struct {
	JWT         *auth.JWTManager
	Roles       middleware.RoleResolver
	IngestKey   string
	CORSOrigins []string
}

// Handler holds all API handler state.
type Handler struct {
	svc Services
}

// NewHandler creates a new API handler.
func NewHandler(svc Services) *Handler {
	return &Handler{svc: svc}
}

// NewRouter builds the HTTP handler serving the REST API, the ingestion
// RPC, health and metrics.
func NewRouter(svc Services, opts Options) http.Handler {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.CORS(opts.CORSOrigins))
	r.Use(middleware.RequestLogger)
	r.Use(middleware.Metrics)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	ingestPath, ingestHandler := NewIngestHandler(svc.Reviews, opts.IngestKey)
	r.Handle(ingestPath, ingestHandler)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", h.Signup)
		r.Post("/login", h.Login)
		r.Post("/refresh", h.Refresh)
		r.Post("/logout", h.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(opts.JWT))
			r.Use(middleware.TrackUser)
			r.Get("/me", h.Me)
			r.Put("/me/selected-shop", h.SelectShop)
		})
	})

	r.Route("/shops", func(r chi.Router) {
		r.Use(middleware.RequireAuth(opts.JWT))
		r.Use(middleware.TrackUser)

		r.Get("/", h.ListShops)
		r.Post("/", h.CreateShop)

		r.Route("/{shopID}", func(r chi.Router) {
			r.Use(middleware.ShopAccess(opts.Roles, "shopID"))

			r.Get("/", h.GetShop)
			r.Patch("/", h.UpdateShop)
			r.Delete("/", h.DeleteShop)

			r.Get("/style-tags", h.GetStyleTags)
			r.Put("/style-tags", h.SetStyleTags)

			r.Get("/team", h.ListTeam)
			r.Post("/team", h.InviteMember)
			r.Delete("/team/{memberID}", h.RemoveMember)

			r.Get("/media", h.ListMedia)
			r.Post("/media", h.CreateMedia)
			r.Delete("/media/{mediaID}", h.DeleteMedia)

			r.Get("/subscription", h.GetSubscription)

			r.Route("/reviews", func(r chi.Router) {
				r.Get("/", h.ListReviews)
				r.Get("/stats", h.ReviewStats)
				r.Get("/{reviewID}", h.GetReview)
				r.Post("/{reviewID}/ai-response", h.GenerateResponse)
				r.Put("/{reviewID}/response", h.SaveResponse)
				r.Post("/{reviewID}/publish", h.PublishResponse)
			})

			r.Route("/posts", func(r chi.Router) {
				r.Get("/", h.ListPosts)
				r.Post("/", h.CreatePost)
				r.Post("/caption", h.GenerateCaption)
				r.Get("/{postID}", h.GetPost)
				r.Patch("/{postID}", h.UpdatePost)
				r.Delete("/{postID}", h.DeletePost)
			})

			r.Get("/calendar", h.Calendar)
			r.Get("/analytics", h.Analytics)
		})
	})

	return r
}
