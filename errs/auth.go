package errs

import (
	"errors"
	"net/http"
)

// Authentication Errors
var (
	ErrMissingCredentials = errors.New("username and password are required")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrMissingToken       = errors.New("authentication required")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token expired")
)

func NewMissingCredentialsError() *ApiErr {
	return &ApiErr{StatusCode: http.StatusBadRequest, err: ErrMissingCredentials}
}

func NewInvalidCredentialsError() *ApiErr {
	return &ApiErr{StatusCode: http.StatusUnauthorized, err: ErrInvalidCredentials}
}

func NewMissingTokenError() *ApiErr {
	return &ApiErr{StatusCode: http.StatusUnauthorized, err: ErrMissingToken}
}

func NewInvalidTokenError(cause error) *ApiErr {
	return &ApiErr{StatusCode: http.StatusUnauthorized, err: ErrInvalidToken, Cause: cause}
}

func NewExpiredTokenError(cause error) *ApiErr {
	return &ApiErr{StatusCode: http.StatusUnauthorized, err: ErrExpiredToken, Cause: cause}
}

// IsAuthError reports whether err should be answered with 401.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrMissingToken) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrExpiredToken)
}
