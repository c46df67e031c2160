package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"CyMarker/internal/config"
	"CyMarker/internal/middleware"
	"CyMarker/internal/realtime"
	"CyMarker/internal/service"
)

// Version — версия API, отдаётся в GET /api.
var Version = "1.0.0"

type Handler struct {
	Router chi.Router
}

// NewHandler разводящий для хендлеров
func NewHandler(
	userService *service.UserService,
	imageService *service.ImageService,
	markerService *service.MarkerService,
	hub *realtime.Hub,
	logger *zap.SugaredLogger,
	cfg *config.Config,
) *Handler {
	r := chi.NewRouter()

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Content-Encoding"},
		AllowCredentials: !containsWildcard(origins),
		MaxAge:           300,
	}))
	r.Use(middleware.WithMetrics)
	r.Use(middleware.WithGzip)
	r.Use(middleware.WithLogging)
	r.Use(middleware.WithAuth(userService))

	// Handlers
	resp := newResponder(logger, cfg.Production)
	userHandler := NewUserHandler(userService, resp, cfg)
	imageHandler := NewImageHandler(imageService, resp, cfg)
	markerHandler := NewMarkerHandler(markerService, resp)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", realtime.ServeWS(hub, cfg.CORSOrigins, logger))
	r.Get("/upload/{name}", imageHandler.ServeBlob)

	r.Route("/api", func(r chi.Router) {
		r.Get("/", infoHandler(resp, cfg))

		// User routes
		r.Post("/User", userHandler.SignUp)
		r.Put("/Me", userHandler.SignIn)
		r.Delete("/Me", userHandler.SignOut)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser)

			r.Get("/Me", userHandler.Me)
			r.Put("/Me/password", userHandler.ChangePassword)

			// Image routes
			r.Get("/Image", imageHandler.List)
			r.Post("/Image", imageHandler.Create)
			r.Get("/Image/{id}", imageHandler.Get)
			r.Patch("/Image/{id}", imageHandler.Update)
			r.Delete("/Image/{id}", imageHandler.Delete)
			r.Put("/Image/{id}/blob", imageHandler.PutBlob)

			// Marker/Comment routes
			r.Get("/Marker", markerHandler.List)
			r.Post("/Marker", markerHandler.Create)
			r.Get("/Marker/{markerId}", markerHandler.Get)
			r.Patch("/Marker/{markerId}", markerHandler.Update)
			r.Delete("/Marker/{markerId}", markerHandler.Delete)
			r.Get("/Marker/{markerId}/Comment", markerHandler.ListComments)
			r.Post("/Marker/{markerId}/Comment", markerHandler.AddComment)
			r.Delete("/Marker/{markerId}/Comment/{commentId}", markerHandler.DeleteComment)
		})
	})

	return &Handler{Router: r}
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

// infoHandler — GET /api.
func infoHandler(resp *responder, cfg *config.Config) http.HandlerFunc {
	db := "sqlite"
	if isPostgres(cfg.DatabaseDSN) {
		db = "postgres"
	}
	info := map[string]string{
		"name":     cfg.ServiceName,
		"version":  Version,
		"database": db,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		resp.JSON(w, http.StatusOK, info)
	}
}
