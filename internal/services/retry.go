package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// retry runs f up to attempts times, doubling sleep after every retryable
// failure. Errors rejected by retryable are returned immediately.
func retry(ctx context.Context, logger *zap.Logger, attempts int, sleep time.Duration, retryable func(error) bool, f func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = f(); err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		if i == attempts-1 {
			break
		}

		logger.Warn("API error, retrying", zap.Error(err), zap.Duration("delay", sleep), zap.Int("attempt", i+1))
		t := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		sleep *= 2
	}
	return fmt.Errorf("failed after %d attempts: %w", attempts, err)
}

// statusCode digs the HTTP status out of the errors the Google clients
// return, or 0.
func statusCode(err error) int {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code
	}
	var aErr genai.APIError
	if errors.As(err, &aErr) {
		return aErr.Code
	}
	var aErrPtr *genai.APIError
	if errors.As(err, &aErrPtr) {
		return aErrPtr.Code
	}
	return 0
}

func isRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if statusCode(err) == http.StatusTooManyRequests {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "RESOURCE_EXHAUSTED") || strings.Contains(msg, "Error 429")
}

func isNotFound(err error) bool {
	return statusCode(err) == http.StatusNotFound
}

// transient reports failures worth another Gmail attempt.
func transient(err error) bool {
	if isNotFound(err) {
		return false
	}
	code := statusCode(err)
	return code == 0 || code == http.StatusTooManyRequests || code >= 500
}
