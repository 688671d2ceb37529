package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jordanmarch/upkeep-backend/api/controllers"
	"github.com/jordanmarch/upkeep-backend/api/middleware"
	"github.com/jordanmarch/upkeep-backend/internal/auth"
	"github.com/jordanmarch/upkeep-backend/internal/properties"
	"github.com/jordanmarch/upkeep-backend/internal/tasks"
	"github.com/jordanmarch/upkeep-backend/internal/users"
	"github.com/jordanmarch/upkeep-backend/pkg/auth/session"
	"github.com/jordanmarch/upkeep-backend/pkg/config"
	"github.com/jordanmarch/upkeep-backend/pkg/db"
	"github.com/jordanmarch/upkeep-backend/pkg/logger"
	"github.com/jordanmarch/upkeep-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	sessions session.AccessSessionChecker,
	authService auth.Service,
	userService users.Service,
	propertyService properties.Service,
	taskService tasks.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/signin", controllers.AuthSignIn(authService, logg))
		r.Post("/refresh", controllers.AuthRefresh(authService, logg))
		r.With(middleware.Auth(cfg.JWT, sessions, logg)).Post("/logout", controllers.AuthLogout(authService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))

		r.Route("/users/me", func(r chi.Router) {
			r.Get("/", controllers.UserProfile(userService, logg))
			r.Get("/relationships", controllers.UserRelationships(userService, logg))
			r.Put("/relationships/{propertyId}", controllers.UserSetRelationship(userService, logg))
			r.Delete("/relationships/{propertyId}", controllers.UserRemoveRelationship(userService, logg))
		})

		r.Route("/properties", func(r chi.Router) {
			r.Get("/", controllers.PropertyList(propertyService, logg))
			r.Post("/", controllers.PropertyCreate(propertyService, logg))
			r.Route("/{propertyId}", func(r chi.Router) {
				r.Get("/", controllers.PropertyDetail(propertyService, logg))
				r.Put("/", controllers.PropertyUpdate(propertyService, logg))
				r.Delete("/", controllers.PropertyDelete(propertyService, logg))
				r.Get("/permissions", controllers.PropertyPermissions(propertyService, logg))
				r.Post("/shares", controllers.PropertyShare(propertyService, logg))
				r.Delete("/shares/{userId}", controllers.PropertyUnshare(propertyService, logg))
				r.Get("/tasks", controllers.TasksByProperty(taskService, logg))
			})
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", controllers.TasksForUser(taskService, logg))
			r.Post("/", controllers.TaskCreate(taskService, logg))
			r.Get("/overdue", controllers.TasksOverdue(taskService, logg))
			r.Get("/upcoming", controllers.TasksUpcoming(taskService, logg))
			r.Get("/seasonal", controllers.TasksSeasonal(taskService, logg))
			r.Route("/{taskId}", func(r chi.Router) {
				r.Get("/", controllers.TaskDetail(taskService, logg))
				r.Delete("/", controllers.TaskDelete(taskService, logg))
				r.Post("/complete", controllers.TaskComplete(taskService, logg))
				r.Post("/skip", controllers.TaskSkip(taskService, logg))
				r.Post("/reopen", controllers.TaskReopen(taskService, logg))
			})
		})
	})

	return r
}
