package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hyeyeon57/portfolio-backoffice/errs"
	"github.com/rs/zerolog"
)

// envelope is the body shape shared by every JSON response.
type envelope map[string]any

type Responder struct {
	logger zerolog.Logger
}

func NewResponder(logger zerolog.Logger) Responder {
	return Responder{logger}
}

func (r Responder) WriteJSON(w http.ResponseWriter, status int, data any) {
	// Marshal the data first to check size and handle errors
	jsonData, err := json.Marshal(data)
	if err != nil {
		r.logger.Error().Err(err).Msg("error marshaling response data")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	const maxResponseSize = 10 * 1024 * 1024 // 10MB
	if len(jsonData) > maxResponseSize {
		r.logger.Error().
			Int("responseSize", len(jsonData)).
			Int("maxSize", maxResponseSize).
			Msg("response too large")

		jsonData, _ = json.Marshal(envelope{
			"success": false,
			"error":   "Response too large",
		})
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(jsonData); err != nil {
		r.logger.Error().Err(err).Msg("error writing response")
	}
}

// WriteSuccess writes {success: true, data, ...extra} with status 200.
// A nil data is left out of the body.
func (r Responder) WriteSuccess(w http.ResponseWriter, data any, extra envelope) {
	r.WriteSuccessStatus(w, http.StatusOK, data, extra)
}

func (r Responder) WriteSuccessStatus(w http.ResponseWriter, status int, data any, extra envelope) {
	body := envelope{"success": true}
	if data != nil {
		body["data"] = data
	}
	for k, v := range extra {
		body[k] = v
	}
	r.WriteJSON(w, status, body)
}

func (r Responder) WriteError(w http.ResponseWriter, err error) {
	var apiErr *errs.ApiErr

	// Unexpected errors are logged in full and reported generically
	if !errors.As(err, &apiErr) {
		r.logger.Error().Err(err).Msg("unhandled error")
		r.WriteJSON(w, http.StatusInternalServerError, envelope{
			"success": false,
			"error":   "Internal Server Error",
		})
		return
	}

	event := r.logger.Warn()
	if apiErr.StatusCode >= http.StatusInternalServerError {
		event = r.logger.Error()
	}
	event.Int("status", apiErr.StatusCode).Str("error", apiErr.GetFullError()).Msg("request failed")

	response := envelope{
		"success": false,
		"error":   apiErr.Message(),
	}
	if apiErr.Field != "" {
		response["field"] = apiErr.Field
	}
	r.WriteJSON(w, apiErr.StatusCode, response)
}
