package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/procurecart/procurecart-backend/api/controllers"
	cartcontrollers "github.com/procurecart/procurecart-backend/api/controllers/carts"
	savedcartcontrollers "github.com/procurecart/procurecart-backend/api/controllers/savedcarts"
	"github.com/procurecart/procurecart-backend/api/middleware"
	approvalsvc "github.com/procurecart/procurecart-backend/internal/approval"
	commentsvc "github.com/procurecart/procurecart-backend/internal/comments"
	"github.com/procurecart/procurecart-backend/internal/placement"
	"github.com/procurecart/procurecart-backend/internal/replay"
	savedcartsvc "github.com/procurecart/procurecart-backend/internal/savedcarts"
	"github.com/procurecart/procurecart-backend/internal/split"
	"github.com/procurecart/procurecart-backend/pkg/config"
	"github.com/procurecart/procurecart-backend/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	registry *prometheus.Registry,
	readyProbes map[string]controllers.Pinger,
	savedCartService savedcartsvc.Service,
	commentService commentsvc.Service,
	approvalService approvalsvc.Service,
	splitter *split.Engine,
	replayer *replay.Engine,
	placementSaga *placement.Saga,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readyProbes))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/saved-carts", func(r chi.Router) {
			r.Post("/", savedcartcontrollers.Save(savedCartService, logg))
			r.Get("/", savedcartcontrollers.List(savedCartService, logg))
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", savedcartcontrollers.Get(savedCartService, commentService, logg))
				r.Patch("/", savedcartcontrollers.Rename(savedCartService, logg))
				r.Delete("/", savedcartcontrollers.Delete(savedCartService, logg))
				r.Get("/children", savedcartcontrollers.ListChildren(savedCartService, logg))
				r.Post("/status", savedcartcontrollers.SetStatus(approvalService, logg))
				r.Post("/comments", savedcartcontrollers.AddComment(savedCartService, commentService, logg))
				r.Get("/comments", savedcartcontrollers.ListComments(savedCartService, commentService, logg))
			})
		})

		r.Route("/carts/{cartID}", func(r chi.Router) {
			r.Post("/addresses", cartcontrollers.AddAddress(splitter, logg))
			r.Post("/replay", cartcontrollers.Replay(savedCartService, replayer, logg))
			r.Post("/place-order", cartcontrollers.PlaceOrder(placementSaga, logg))
		})
	})

	return r
}
