package observability

import (
	"context"
	"errors"
	"net/http"

	"github.com/mattori/backend/internal/httpx"
)

const (
	ErrorNetwork   = "network"
	ErrorParsing   = "parsing"
	ErrorRateLimit = "rate_limit"
	ErrorCaptcha   = "captcha"
	ErrorStore     = "store"
	ErrorMail      = "mail"
	ErrorUnknown   = "unknown"
)

// ClassifyFetchError buckets a page-fetch failure for the error counters.
func ClassifyFetchError(err error) string {
	if err == nil {
		return ErrorUnknown
	}
	var fe *httpx.FetchError
	if errors.As(err, &fe) {
		if fe.Status == http.StatusTooManyRequests {
			return ErrorRateLimit
		}
		return ErrorNetwork
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorNetwork
	}
	return ErrorUnknown
}
