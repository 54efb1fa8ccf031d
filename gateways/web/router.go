package web

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/xilidan/meetings/gateways/web/handler"
	"github.com/xilidan/meetings/pkg/json"
	"github.com/xilidan/meetings/pkg/jwt"
	"github.com/xilidan/meetings/pkg/logger"
	"github.com/xilidan/meetings/services/meetings/client"
)

type RouterOptions struct {
	// JWTSecret enables bearer authentication on /api/v1/meetings when set
	JWTSecret string
	// Quiet drops the access log
	Quiet bool
}

func NewRouter(h handler.Handler, opts RouterOptions) http.Handler {
	router := chi.NewRouter()
	if !opts.Quiet {
		router.Use(middleware.Logger)
	}
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Route("/api/v1", func(apiRouter chi.Router) {
		apiRouter.Get("/health", h.HealthHandler)
		apiRouter.Route("/meetings", func(meetingsRouter chi.Router) {
			if opts.JWTSecret != "" {
				meetingsRouter.Use(bearerAuth(opts.JWTSecret))
			}
			meetingsRouter.Get("/", h.ListHandler)
			meetingsRouter.Post("/upload", h.UploadHandler)
			meetingsRouter.Get("/{id}", h.GetHandler)
			meetingsRouter.Post("/{id}/process", h.ProcessHandler)
			meetingsRouter.Post("/{id}/export-tasks", h.ExportTasksHandler)
		})
	})

	return router
}

func bearerAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := jwt.ParseTokenFromHeader(r)
			if err != nil {
				json.WriteError(w, http.StatusUnauthorized, fmt.Errorf("access denied"))
				return
			}

			userID, err := jwt.ParseUserID(r.Context(), token, secret)
			if err != nil {
				json.WriteError(w, http.StatusUnauthorized, fmt.Errorf("access denied"))
				return
			}

			ctx := logger.WithContext(r.Context(), logger.With(r.Context(), "user_id", userID))
			ctx = client.WithToken(ctx, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
