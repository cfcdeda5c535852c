package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNotFoundKeepsMessageAndSentinel(t *testing.T) {
	err := NewNotFoundError("project not found")

	require.Equal(t, "project not found", err.Error())
	require.True(t, IsNotFound(err))
	require.Equal(t, http.StatusNotFound, StatusCode(err))
}

func TestStatusCodeFallsBackTo500(t *testing.T) {
	require.Equal(t, http.StatusInternalServerError, StatusCode(errors.New("boom")))

	wrapped := fmt.Errorf("outer: %w", NewBadRequestError("bad"))
	require.Equal(t, http.StatusBadRequest, StatusCode(wrapped))
}

func TestMissingRequiredFieldsNamesEveryField(t *testing.T) {
	err := NewMissingRequiredFieldsError([]string{"name", "email"})

	require.True(t, IsMissingRequiredFieldError(err))
	require.True(t, IsValidationError(err))
	require.Equal(t, "Missing required field: name, email", err.Details)
	require.Equal(t, http.StatusBadRequest, err.StatusCode)
}

func TestDatabaseErrorClassification(t *testing.T) {
	cases := []struct {
		name   string
		cause  error
		status int
		check  func(error) bool
	}{
		{"postgres duplicate", errors.New(`ERROR: duplicate key value violates unique constraint "idx_projects_external_id"`), http.StatusConflict, IsUniqueConstraintViolationError},
		{"sqlite unique", errors.New("constraint failed: UNIQUE constraint failed: projects.external_id (2067)"), http.StatusConflict, IsUniqueConstraintViolationError},
		{"not found", errors.New("record not found"), http.StatusNotFound, IsNotFound},
		{"closed", errors.New("sql: database is closed"), http.StatusServiceUnavailable, IsDatabaseConnectionError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := NewDatabaseError("create", "project", tc.cause)
			require.Equal(t, tc.status, err.StatusCode)
			require.True(t, tc.check(err))
		})
	}

	generic := NewDatabaseError("list", "projects", errors.New("syntax error"))
	require.Equal(t, http.StatusInternalServerError, generic.StatusCode)
	require.Equal(t, "Failed to list projects", generic.Details)
}

func TestServiceUnavailable(t *testing.T) {
	err := NewServiceUnavailableError("database")

	require.True(t, IsServiceUnavailableError(err))
	require.Equal(t, http.StatusServiceUnavailable, StatusCode(err))
	require.Equal(t, "database unavailable", err.Error())
}

func TestAuthErrors(t *testing.T) {
	require.Equal(t, http.StatusBadRequest, NewMissingCredentialsError().StatusCode)
	require.False(t, IsAuthError(NewMissingCredentialsError()))
	require.True(t, IsAuthError(NewInvalidCredentialsError()))
	require.True(t, IsAuthError(NewExpiredTokenError(errors.New("exp"))))
}

func TestGetFullErrorFollowsCauses(t *testing.T) {
	inner := NewDatabaseError("list", "projects", errors.New("syntax error"))
	outer := NewInternalErrorWithCause("listing failed", inner)

	require.Equal(t, "listing failed -> database query failed: Failed to list projects -> syntax error", outer.GetFullError())
}

func TestMessageOmitsSentinelAndCause(t *testing.T) {
	dbErr := NewDatabaseError("list", "projects", errors.New("pq: relation does not exist"))
	require.Equal(t, "Failed to list projects", dbErr.Message())

	require.Equal(t, "database unavailable", NewServiceUnavailableError("database").Message())
	require.Equal(t, "invalid username or password", NewInvalidCredentialsError().Message())
}
