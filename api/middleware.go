package api

import (
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyeyeon57/portfolio-backoffice/auth"
	"github.com/hyeyeon57/portfolio-backoffice/database"
	"github.com/hyeyeon57/portfolio-backoffice/errs"
)

const loginPath = "/admin/login"

type authMiddleware struct {
	responder Responder
	guard     auth.Guard
}

func newAuthMiddleware(guard auth.Guard) authMiddleware {
	logger := log.With().Str("handlerName", "authMiddleware").Logger()
	return authMiddleware{
		responder: NewResponder(logger),
		guard:     guard,
	}
}

// requireAPI rejects unauthenticated API calls with a 401 envelope.
func (m authMiddleware) requireAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, err := m.guard.Authenticate(w, r)
		if err != nil {
			m.responder.WriteError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ctxWithUsername(r.Context(), username)))
	})
}

// requirePage sends unauthenticated browsers to the login page.
func (m authMiddleware) requirePage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, err := m.guard.Authenticate(w, r)
		if err != nil {
			http.Redirect(w, r, loginPath, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(ctxWithUsername(r.Context(), username)))
	})
}

// ensureDatabase gives a down store one bounded reconnect attempt per retry
// interval. Handlers still see the 503 from the services when it stays down.
func ensureDatabase(connector *database.Connector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			connector.EnsureConnected(r.Context())
			next.ServeHTTP(w, r)
		})
	}
}

// pathAlias routes requests under alias as if they had arrived under target,
// so both prefixes reach the same handlers. The request URL is left intact.
func pathAlias(alias, target string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if path == alias || strings.HasPrefix(path, alias+"/") {
				rewritten := target + strings.TrimPrefix(path, alias)
				if rctx := chi.RouteContext(r.Context()); rctx != nil {
					rctx.RoutePath = rewritten
				} else {
					r.URL.Path = rewritten
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

type statusResponseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusResponseWriter) WriteHeader(statusCode int) {
	if !w.wroteHeader {
		w.status = statusCode
		w.wroteHeader = true
		w.ResponseWriter.WriteHeader(statusCode)
	}
}

func (w *statusResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func LogInternalServerErrors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		srw := &statusResponseWriter{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			if err := recover(); err != nil {
				log.Error().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Interface("panic", err).
					Str("stack", string(debug.Stack())).
					Msg("Recovered from panic")

				if !srw.wroteHeader {
					NewResponder(log.Logger).WriteJSON(srw, http.StatusInternalServerError, envelope{
						"success": false,
						"error":   "Internal Server Error",
					})
				}
			}
		}()

		next.ServeHTTP(srw, r)

		if srw.status == http.StatusInternalServerError {
			log.Error().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Msg("500 error response")
		}
	})
}

func originAllowed(allowedOrigins []string, origin string) bool {
	for _, allowedOrigin := range allowedOrigins {
		if allowedOrigin == "*" || allowedOrigin == origin {
			return true
		}
	}
	return false
}

// CORSCheckMiddleware answers preflights from unknown origins with a 403
// envelope instead of a bare response without CORS headers.
func CORSCheckMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	responder := NewResponder(log.With().Str("handlerName", "cors").Logger())
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			if r.Method == http.MethodOptions && !originAllowed(allowedOrigins, origin) {
				responder.WriteError(w, errs.NewCORSError(origin))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// corsMiddleware emits the CORS headers. Credentials are allowed so the admin
// UI can send the token cookie from another origin.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowOriginFunc: func(_ *http.Request, origin string) bool {
			return originAllowed(allowedOrigins, origin)
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

// HTTPLoggingMiddleware logs each request at a level chosen by its status class.
func HTTPLoggingMiddleware(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			srw := &statusResponseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(srw, r)

			var logEvent *zerolog.Event
			switch {
			case srw.status >= 500:
				logEvent = logger.Error()
			case srw.status >= 400:
				logEvent = logger.Warn()
			default:
				logEvent = logger.Info()
			}

			logEvent.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", srw.status).
				Dur("duration", time.Since(start)).
				Str("remote_addr", r.RemoteAddr).
				Msg("HTTP Request")
		})
	}
}
