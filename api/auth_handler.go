package api

import (
	"encoding/json"
	"mime"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyeyeon57/portfolio-backoffice/auth"
	"github.com/hyeyeon57/portfolio-backoffice/errs"
)

type authHandler struct {
	responder Responder
	logger    zerolog.Logger
	verifier  *auth.Verifier
	guard     auth.Guard
}

func newAuthHandler(verifier *auth.Verifier, guard auth.Guard) authHandler {
	logger := log.With().Str("handlerName", "authHandler").Logger()

	return authHandler{
		responder: NewResponder(logger),
		logger:    logger,
		verifier:  verifier,
		guard:     guard,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// readLoginRequest accepts a JSON body or a classic HTML form post.
func readLoginRequest(w http.ResponseWriter, r *http.Request) (loginRequest, error) {
	var req loginRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(1 << 20); err != nil && err != http.ErrNotMultipart {
			return req, errs.NewMalformedPayloadError("form", err)
		}
		req.Username = r.PostFormValue("username")
		req.Password = r.PostFormValue("password")
	default:
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			return req, errs.NewInvalidJSONError(err)
		}
	}
	return req, nil
}

// login checks the administrator credentials and sets the token cookie
// @Summary Log in
// @Tags Auth
// @Accept json
// @Produce json
// @Router /api/auth/login [post]
func (h authHandler) login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := readLoginRequest(w, r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.verifier.Verify(req.Username, req.Password); err != nil {
			if errs.IsAuthError(err) {
				h.logger.Warn().Str("ip", clientIP(r)).Msg("login rejected")
			}
			h.responder.WriteError(w, err)
			return
		}

		token, err := h.guard.Login(w, r, strings.TrimSpace(req.Username))
		if err != nil {
			h.responder.WriteError(w, errs.NewInternalErrorWithCause("Failed to issue token", err))
			return
		}

		h.logger.Info().Bool("secure", auth.IsSecureRequest(r)).Msg("admin logged in")
		h.responder.WriteSuccess(w, nil, envelope{
			"message": "Logged in",
			"token":   token,
		})
	}
}

// logout clears the token cookie
// @Router /api/auth/logout [post]
func (h authHandler) logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.guard.Logout(w, r)
		h.responder.WriteSuccess(w, nil, envelope{"message": "Logged out"})
	}
}

// check reports whether the request carries a valid token
// @Router /api/auth/check [get]
func (h authHandler) check() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, err := h.guard.Authenticate(w, r)
		extra := envelope{"authenticated": err == nil}
		if err == nil {
			extra["username"] = username
		}
		h.responder.WriteSuccess(w, nil, extra)
	}
}
