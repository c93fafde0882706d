package service

import (
	"errors"
	"fmt"
	"net/http"
	"roster-sync/internal/api"
	"time"
)

type Kind string

const (
	KindNotFound            Kind = "not_found"
	KindCooldown            Kind = "cooldown"
	KindUpstreamThrottled   Kind = "upstream_throttled"
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	KindUpstreamRejected    Kind = "upstream_rejected"
	KindPersistenceConflict Kind = "persistence_conflict"
	KindPersistence         Kind = "persistence"
	KindUnexpected          Kind = "unexpected"
)

// Retryable reports whether the engine schedules another attempt for kind.
func (k Kind) Retryable() bool {
	switch k {
	case KindUpstreamThrottled, KindUpstreamUnavailable, KindUnexpected:
		return true
	}
	return false
}

// SyncError is a classified failure of a single sync pass. RetryAfter is
// meaningful only when HasRetryAfter is set.
type SyncError struct {
	Kind          Kind
	Status        int
	RetryAfter    time.Duration
	HasRetryAfter bool
	Message       string
	Err           error
}

func (e *SyncError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

func newSyncError(kind Kind, status int, err error, format string, args ...any) *SyncError {
	return &SyncError{
		Kind:    kind,
		Status:  status,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// Classify maps any error returned by a sync pass onto the failure taxonomy.
// Ranked API errors are classified by HTTP status alone.
func Classify(err error) *SyncError {
	if err == nil {
		return nil
	}

	var se *SyncError
	if errors.As(err, &se) {
		return se
	}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		out := &SyncError{Status: apiErr.Status, Message: apiErr.Error(), Err: err}
		switch apiErr.Status {
		case http.StatusTooManyRequests:
			out.Kind = KindUpstreamThrottled
			out.RetryAfter, out.HasRetryAfter = apiErr.RetryAfter()
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			out.Kind = KindUpstreamUnavailable
		default:
			out.Kind = KindUpstreamRejected
		}
		return out
	}

	return &SyncError{Kind: KindUnexpected, Message: err.Error(), Err: err}
}
