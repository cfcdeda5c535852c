package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyeyeon57/portfolio-backoffice/services"
)

type contactHandler struct {
	responder Responder
	logger    zerolog.Logger
	contacts  *services.ContactService
}

func newContactHandler(contacts *services.ContactService) contactHandler {
	logger := log.With().Str("handlerName", "contactHandler").Logger()

	return contactHandler{
		responder: NewResponder(logger),
		logger:    logger,
		contacts:  contacts,
	}
}

// createContact stores a message from the public contact form
// @Router /api/contacts [post]
func (h contactHandler) createContact() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in services.ContactInput
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&in); err != nil {
			h.responder.WriteError(w, bodyError(err, 64<<10))
			return
		}

		contact, err := h.contacts.Create(r.Context(), in)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteSuccessStatus(w, http.StatusCreated, contact, nil)
	}
}

// getAllContacts lists messages newest first
// @Router /api/contacts [get]
func (h contactHandler) getAllContacts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := h.contacts.List(r.Context(), pageFromQuery(r))
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

// markContactRead flags a message as read
// @Router /api/contacts/{contactID}/read [put]
func (h contactHandler) markContactRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		contact, err := h.contacts.MarkRead(r.Context(), chi.URLParam(r, "contactID"))
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteSuccess(w, contact, nil)
	}
}

// deleteContact removes a message
// @Router /api/contacts/{contactID} [delete]
func (h contactHandler) deleteContact() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.contacts.Delete(r.Context(), chi.URLParam(r, "contactID")); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteSuccess(w, nil, envelope{"message": "Contact deleted"})
	}
}
