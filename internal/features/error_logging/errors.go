package error_logging

type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

const (
	ErrorInvalidRequest    = "INVALID_REQUEST"
	ErrorNotConfigured     = "NOT_CONFIGURED"
	ErrorRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
)

type RateLimitError struct {
	ValidationError
	RetryAfterSec int
}

func (e *RateLimitError) Error() string {
	return e.Message
}
