package ai

import (
	"fmt"
	"time"
)

// Failures a model endpoint can report for a rewrite. Each wraps the decoded
// *APIError so callers can still read the status and request ID.

func endpointOf(e *APIError) string {
	if e == nil || e.Host == "" {
		return "model endpoint"
	}
	return e.Host
}

// AuthError: the endpoint refused the profile's API key (401/403).
type AuthError struct{ *APIError }

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s rejected the API key: %s", endpointOf(e.APIError), e.APIError.Error())
}

// RateLimitError: 429. RetryAfter is zero when the endpoint gave no hint.
type RateLimitError struct {
	*APIError
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	host := endpointOf(e.APIError)
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s is throttling requests, retry in %s: %s", host, e.RetryAfter.Round(time.Second), e.APIError.Error())
	}
	return fmt.Sprintf("%s is throttling requests: %s", host, e.APIError.Error())
}

// ModelNotFoundError: the profile names a model the endpoint does not serve.
type ModelNotFoundError struct{ *APIError }

func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("%s does not serve the requested model: %s", endpointOf(e.APIError), e.APIError.Error())
}

// BadRequestError: 400, usually a prompt over the context window or an
// out-of-range sampling setting.
type BadRequestError struct{ *APIError }

func (e *BadRequestError) Error() string {
	return fmt.Sprintf("%s refused the rewrite request: %s", endpointOf(e.APIError), e.APIError.Error())
}

// QuotaExceededError: the account behind the API key is out of credit.
type QuotaExceededError struct{ *APIError }

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("%s reports the account is out of quota: %s", endpointOf(e.APIError), e.APIError.Error())
}

// ServerError: 5xx. Retried before it reaches the caller.
type ServerError struct{ *APIError }

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s failed while rewriting: %s", endpointOf(e.APIError), e.APIError.Error())
}

// MalformedResponseError: a 2xx reply that is not a chat completion, as when
// a profile points at a web page instead of the completions URL.
type MalformedResponseError struct{ Err error }

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("reply is not a chat completion: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// UnreachableError: no HTTP exchange happened at all.
type UnreachableError struct {
	Host string
	Err  error
}

func (e *UnreachableError) Error() string {
	if e == nil {
		return "model endpoint unreachable"
	}
	if e.Host != "" {
		return fmt.Sprintf("cannot reach %s: %v", e.Host, e.Err)
	}
	return fmt.Sprintf("cannot reach model endpoint: %v", e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }
