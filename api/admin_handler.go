package api

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyeyeon57/portfolio-backoffice/auth"
	"github.com/hyeyeon57/portfolio-backoffice/database"
)

// AssetLocator finds admin page files by name in an ordered list of
// directories. The first directory holding the file wins.
type AssetLocator struct {
	dirs []string
}

func NewAssetLocator(dirs ...string) AssetLocator {
	return AssetLocator{dirs: dirs}
}

func (l AssetLocator) Find(name string) (string, bool) {
	name = filepath.Base(name)
	for _, dir := range l.dirs {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	return "", false
}

type adminHandler struct {
	logger      zerolog.Logger
	assets      AssetLocator
	guard       auth.Guard
	connector   *database.Connector
	responder   Responder
	startupTime time.Time
}

func newAdminHandler(assets AssetLocator, guard auth.Guard, connector *database.Connector, startupTime time.Time) adminHandler {
	logger := log.With().Str("handlerName", "adminHandler").Logger()

	return adminHandler{
		logger:      logger,
		assets:      assets,
		guard:       guard,
		connector:   connector,
		responder:   NewResponder(logger),
		startupTime: startupTime,
	}
}

func (h adminHandler) root() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, loginPath, http.StatusFound)
	}
}

// loginPage skips the form for a browser that is already signed in.
func (h adminHandler) loginPage() http.HandlerFunc {
	serve := h.page("login.html")
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := h.guard.Authenticate(w, r); err == nil {
			http.Redirect(w, r, "/admin", http.StatusFound)
			return
		}
		serve(w, r)
	}
}

func (h adminHandler) page(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := h.assets.Find(name)
		if !ok {
			h.logger.Error().Str("page", name).Msg("admin page not found")
			http.Error(w, "Page not found.", http.StatusNotFound)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		http.ServeFile(w, r, p)
	}
}

// health reports database connectivity without attempting to reconnect
// @Router /api/health [get]
func (h adminHandler) health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := "disconnected"
		if h.connector.IsConnected() {
			state = "connected"
		}
		h.responder.WriteSuccess(w, nil, envelope{
			"database": state,
			"uptime":   time.Since(h.startupTime).Round(time.Second).String(),
		})
	}
}
