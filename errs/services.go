package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Dependency & Configuration Errors
var (
	ErrServiceUnavailable  = errors.New("service unavailable")
	ErrConfigMissing       = errors.New("configuration missing")
	ErrConfigInvalid       = errors.New("configuration invalid")
	ErrEnvironmentVariable = errors.New("environment variable error")
	ErrServiceUnreachable  = errors.New("service unreachable")
	ErrStorage             = errors.New("file storage error")
)

// NewServiceUnavailableError is returned while the record store is not
// connected. Callers get a 503 without any repository being touched.
func NewServiceUnavailableError(service string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusServiceUnavailable,
		err:        tagged(fmt.Sprintf("%s unavailable", service), ErrServiceUnavailable),
	}
}

func NewConfigError(configName string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrConfigMissing,
		Details:    fmt.Sprintf("Configuration error for %s", configName),
		Cause:      cause,
	}
}

func NewInvalidConfigError(configName string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrConfigInvalid,
		Details:    fmt.Sprintf("Invalid configuration value for %s", configName),
		Cause:      cause,
		Field:      configName,
	}
}

func NewEnvironmentVariableError(varName string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrEnvironmentVariable,
		Details:    fmt.Sprintf("Environment variable %s is not set or invalid", varName),
		Field:      varName,
	}
}

func NewServiceUnreachableError(service string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadGateway,
		err:        ErrServiceUnreachable,
		Details:    fmt.Sprintf("Service %s is unreachable", service),
		Cause:      cause,
	}
}

func NewStorageError(operation, name string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrStorage,
		Details:    fmt.Sprintf("Failed to %s file %s", operation, name),
		Cause:      cause,
	}
}

func IsServiceUnavailableError(err error) bool {
	return errors.Is(err, ErrServiceUnavailable)
}

func IsServiceUnreachableError(err error) bool {
	return errors.Is(err, ErrServiceUnreachable)
}
