package services

// Service-level error taxonomy. Handlers map these to HTTP statuses in one
// place (handleServiceError).

type ValidationError struct {
	Fields  map[string]string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "Validation error"
}

type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type UnauthorizedError struct{ Message string }

func (e *UnauthorizedError) Error() string { return e.Message }

type ForbiddenError struct{ Message string }

func (e *ForbiddenError) Error() string { return e.Message }

type RateLimitError struct{ Message string }

func (e *RateLimitError) Error() string { return e.Message }

// ConfigurationError is an operator fault, not a caller fault: surfaced as 500.
type ConfigurationError struct{ Message string }

func (e *ConfigurationError) Error() string { return e.Message }

// ExternalServiceError wraps a failed generative call or other upstream fault.
type ExternalServiceError struct {
	Message string
	Err     error
}

func (e *ExternalServiceError) Error() string { return e.Message }
func (e *ExternalServiceError) Unwrap() error { return e.Err }

// ParseError marks structured model output that failed to parse or validate.
type ParseError struct{ Message string }

func (e *ParseError) Error() string { return e.Message }
