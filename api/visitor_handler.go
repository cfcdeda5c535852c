package api

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyeyeon57/portfolio-backoffice/services"
)

type visitorHandler struct {
	responder Responder
	logger    zerolog.Logger
	visitors  *services.VisitorService
}

func newVisitorHandler(visitors *services.VisitorService) visitorHandler {
	logger := log.With().Str("handlerName", "visitorHandler").Logger()

	return visitorHandler{
		responder: NewResponder(logger),
		logger:    logger,
		visitors:  visitors,
	}
}

type visitRequest struct {
	IP        string `json:"ip"`
	UserAgent string `json:"userAgent"`
	Path      string `json:"path"`
}

// recordVisit logs a page view, collapsing repeats inside the dedup window
// @Router /api/visitors [post]
func (h visitorHandler) recordVisit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req visitRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 16<<10)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			h.responder.WriteError(w, bodyError(err, 16<<10))
			return
		}

		ev := services.VisitEvent{IP: req.IP, UserAgent: req.UserAgent, Path: req.Path}
		if ev.IP == "" {
			ev.IP = clientIP(r)
		}
		if ev.UserAgent == "" {
			ev.UserAgent = r.UserAgent()
		}

		_, outcome, err := h.visitors.Record(r.Context(), ev)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		message := "Visit recorded"
		if outcome == services.VisitDeduped {
			message = "Visit refreshed"
		}
		h.responder.WriteSuccess(w, nil, envelope{"message": message, "outcome": outcome})
	}
}

// visitorStats reports today's and all-time visit counts
// @Router /api/visitors/stats [get]
func (h visitorHandler) visitorStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := h.visitors.Stats(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteSuccess(w, stats, envelope{"today": stats.Today, "total": stats.Total})
	}
}

// listVisitors pages through the visit log, most recent first
// @Router /api/visitors [get]
func (h visitorHandler) listVisitors() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := h.visitors.List(r.Context(), pageFromQuery(r))
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteSuccess(w, result.Items, envelope{
			"total": result.Total,
			"page":  result.Page,
			"limit": result.Limit,
		})
	}
}

// clientIP is the host part of RemoteAddr. With TRUST_PROXY set, RealIP has
// already replaced it with the forwarded address.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
