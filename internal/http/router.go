package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"gorm.io/gorm"

	"github.com/rehmanul/BOT-Friday-sub000/internal/auth"
	"github.com/rehmanul/BOT-Friday-sub000/internal/campaign"
	"github.com/rehmanul/BOT-Friday-sub000/internal/config"
	"github.com/rehmanul/BOT-Friday-sub000/internal/http/handler"
	mw "github.com/rehmanul/BOT-Friday-sub000/internal/http/middleware"
	"github.com/rehmanul/BOT-Friday-sub000/internal/outreach"
)

func NewRouter(cfg config.Config, db *gorm.DB, jwtSvc *auth.JWT, svc *campaign.Service, mgr *outreach.Manager, limiter *outreach.RateLimiter) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	ah := &handler.AuthHandler{DB: db, JWT: jwtSvc}
	r.Post("/auth/register", ah.Register)
	r.Post("/auth/login", ah.Login)

	me := &handler.MeHandler{}
	r.With(auth.RequireAuth(jwtSvc)).Get("/me", me.Me)

	ch := &handler.CampaignHandler{Svc: svc, DB: db, Manager: mgr, Limiter: limiter}
	ih := &handler.InvitationHandler{Svc: svc, DB: db}
	crh := &handler.CreatorHandler{Svc: svc, DB: db}
	act := &handler.ActivityHandler{DB: db}

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))

		r.Route("/campaigns", func(r chi.Router) {
			r.Post("/", ch.Create)
			r.Get("/", ch.List)

			r.Get("/{id}", ch.Get)
			r.Delete("/{id}", ch.Delete)
			r.Post("/{id}/start", ch.Start)
			r.Post("/{id}/pause", ch.Pause)
			r.Post("/{id}/stop", ch.Stop)

			r.Get("/{id}/invitations", ih.ListForCampaign)
		})

		r.Route("/invitations", func(r chi.Router) {
			r.Post("/{id}/requeue", ih.Requeue)
			r.Post("/{id}/response", ih.RecordResponse)
		})

		r.Route("/creators", func(r chi.Router) {
			r.Post("/", crh.Add)
			r.Get("/", crh.List)
		})

		r.Get("/activity", act.List)
		r.Get("/limits", ch.Limits)
	})

	return r
}
