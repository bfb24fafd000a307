package handler

import (
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/mmeshcher/cygree/internal/apperr"
	custommiddleware "github.com/mmeshcher/cygree/internal/middleware"
	"github.com/mmeshcher/cygree/internal/model"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса cygree.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(custommiddleware.Logger(h.logger))
	r.Use(custommiddleware.Metrics(h.metrics))
	r.Use(custommiddleware.GzipMiddleware)

	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(custommiddleware.RateLimit(h.authRateLimit, int(math.Ceil(h.authRateLimit))))

			r.Post("/user/register", h.Register)
			r.Post("/user/login", h.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Get("/rewards", h.GetCatalog)
			r.Post("/notifications", h.SendNotification)

			r.Group(func(r chi.Router) {
				r.Use(custommiddleware.RequireSelf)

				r.Get("/profile/{userID}", h.GetProfile)
				r.Patch("/profile/{userID}", h.UpdateProfile)
				r.Delete("/profile/{userID}", h.DeleteAccount)

				r.Route("/client/{userID}", func(r chi.Router) {
					r.Post("/collection", h.SubmitCollection)
					r.Get("/collections", h.GetCollections)
					r.Get("/rewards", h.GetClaimableRewards)
					r.Get("/rewards/history", h.GetRewardHistory)
					r.Post("/rewards/{rewardID}/claim", h.ClaimReward)
					r.Get("/incentives", h.GetIncentives)
				})

				r.Route("/agent/{userID}", func(r chi.Router) {
					r.Use(custommiddleware.RequireRole(model.RoleAgent))

					r.Get("/requests", h.GetAgentQueue)
					r.Post("/claim", h.ClaimCollection)
					r.Patch("/collect", h.FinalizeCollection)
				})

				r.Get("/notifications/{userID}", h.GetNotifications)
				r.Patch("/notifications/{userID}/{notificationID}/read", h.MarkNotificationRead)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(custommiddleware.RequireRole(model.RoleAdmin))

				r.Post("/rewards", h.CreateReward)
				r.Post("/incentives", h.IssueIncentive)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.WriteError(w, apperr.NotFound("route %s not found", r.URL.Path))
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
