package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyeyeon57/portfolio-backoffice/config"
)

// defaultOrigins are the local front-end dev servers.
var defaultOrigins = []string{
	"http://localhost:3000",
	"http://localhost:3001",
	"http://localhost:3002",
}

type Server struct {
	*http.Server
	startupTime time.Time
}

func NewServer(cfg map[string]string, deps Dependencies) (Server, error) {
	if deps.Connector == nil {
		return Server{}, fmt.Errorf("api: a database connector is required")
	}

	port := config.GetString(cfg, "PORT", "8080")
	address := fmt.Sprintf("0.0.0.0:%s", port)

	startupTime := time.Now()

	router := newRouter(deps, withConfig(cfg), withStartupTime(startupTime), withRequestLogger(consoleLogger()))

	readTimeout := time.Duration(config.GetInt(cfg, "READ_TIMEOUT_SECONDS", 180)) * time.Second
	writeTimeout := time.Duration(config.GetInt(cfg, "WRITE_TIMEOUT_SECONDS", 180)) * time.Second
	idleTimeout := time.Duration(config.GetInt(cfg, "IDLE_TIMEOUT_SECONDS", 180)) * time.Second

	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	return Server{server, startupTime}, nil
}

// consoleLogger is the colored request logger used outside of tests.
func consoleLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()
}

type router struct {
	config        map[string]string
	startupTime   time.Time
	requestLogger zerolog.Logger
}

func withConfig(c map[string]string) func(*router) {
	return func(r *router) {
		r.config = c
	}
}

func withStartupTime(startupTime time.Time) func(*router) {
	return func(r *router) {
		r.startupTime = startupTime
	}
}

func withRequestLogger(logger zerolog.Logger) func(*router) {
	return func(r *router) {
		r.requestLogger = logger
	}
}

func newRouter(deps Dependencies, opts ...func(*router)) *chi.Mux {
	router := router{requestLogger: log.Logger}
	for _, opt := range opts {
		opt(&router)
	}

	chiRouter := chi.NewRouter()
	chiRouter.Use(LogInternalServerErrors)
	// Forwarding headers are client-controlled unless a proxy rewrites them.
	if config.GetBool(router.config, "TRUST_PROXY", false) {
		chiRouter.Use(middleware.RealIP)
	}
	chiRouter.Use(HTTPLoggingMiddleware(router.requestLogger))

	acceptedOrigins := config.GetList(router.config, "ACCEPTED_ORIGINS", defaultOrigins)
	chiRouter.Use(CORSCheckMiddleware(acceptedOrigins))
	chiRouter.Use(corsMiddleware(acceptedOrigins))
	chiRouter.Use(pathAlias(aliasPrefix, "/api"))

	handlers := initializeHandlers(deps, router.config, router.startupTime)
	authMiddleware := newAuthMiddleware(deps.Guard)

	setupPageRoutes(chiRouter, handlers, authMiddleware)
	setupAPIRoutes(chiRouter, handlers, authMiddleware, deps.Connector)
	setupUploadRoutes(chiRouter, deps.Files)

	return chiRouter
}

func (s Server) Start(errChannel chan<- error) {
	log.Info().Msgf("Server started on: %s", s.Addr)
	errChannel <- s.ListenAndServe()
}

func (s Server) ShutdownGracefully(timeout time.Duration) {
	log.Info().Msg("Gracefully shutting down...")

	gracefullCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Shutdown(gracefullCtx); err != nil {
		log.Error().Msgf("Error shutting down the server: %v", err)
	} else {
		log.Info().Msg("HttpServer gracefully shut down")
	}
}
