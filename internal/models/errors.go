package models

import (
	"errors"
	"fmt"
)

// Custom errors
var (
	ErrNotFound            = errors.New("record not found")
	ErrIntegrationDisabled = errors.New("iRacing integration is disabled")
)

// ConfigurationError is returned when required settings or identifiers are missing.
// It is never retried.
type ConfigurationError struct {
	Message string
	Cause   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("Configuration error: %s", e.Message)
}

func (e *ConfigurationError) Unwrap() error { return e.Cause }

// AuthenticationError is returned when the token exchange fails despite credentials being present.
type AuthenticationError struct {
	Message string
	Cause   error
}

func (e *AuthenticationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("Authentication error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("Authentication error: %s", e.Message)
}

func (e *AuthenticationError) Unwrap() error { return e.Cause }

// RequestError is a non-success response from the upstream provider.
type RequestError struct {
	Endpoint   string
	StatusCode int
	Message    string
	Cause      error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("Request error [%s]: status %d: %s", e.Endpoint, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("Request error [%s]: %s", e.Endpoint, e.Message)
}

func (e *RequestError) Unwrap() error { return e.Cause }

// NewConfigurationError creates a new configuration error
func NewConfigurationError(message string, cause error) *ConfigurationError {
	return &ConfigurationError{Message: message, Cause: cause}
}

// NewAuthenticationError creates a new authentication error
func NewAuthenticationError(message string, cause error) *AuthenticationError {
	return &AuthenticationError{Message: message, Cause: cause}
}

// NewRequestError creates a new request error
func NewRequestError(endpoint string, statusCode int, message string, cause error) *RequestError {
	return &RequestError{Endpoint: endpoint, StatusCode: statusCode, Message: message, Cause: cause}
}

// IsConfigurationError reports whether err wraps a ConfigurationError
func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsAuthenticationError reports whether err wraps an AuthenticationError
func IsAuthenticationError(err error) bool {
	var target *AuthenticationError
	return errors.As(err, &target)
}

// IsRequestError reports whether err wraps a RequestError
func IsRequestError(err error) bool {
	var target *RequestError
	return errors.As(err, &target)
}
