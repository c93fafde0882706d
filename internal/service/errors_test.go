package service

import (
	"errors"
	"fmt"
	"roster-sync/internal/api"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	five := 5

	tests := []struct {
		name       string
		err        error
		kind       Kind
		status     int
		retryAfter time.Duration
		retryable  bool
	}{
		{
			name:       "throttled with hint",
			err:        &api.APIError{Status: 429, RetryAfterSeconds: &five},
			kind:       KindUpstreamThrottled,
			status:     429,
			retryAfter: 5 * time.Second,
			retryable:  true,
		},
		{
			name:      "throttled without hint",
			err:       &api.APIError{Status: 429},
			kind:      KindUpstreamThrottled,
			status:    429,
			retryable: true,
		},
		{name: "bad gateway", err: &api.APIError{Status: 502}, kind: KindUpstreamUnavailable, status: 502, retryable: true},
		{name: "unavailable", err: &api.APIError{Status: 503}, kind: KindUpstreamUnavailable, status: 503, retryable: true},
		{name: "gateway timeout", err: &api.APIError{Status: 504}, kind: KindUpstreamUnavailable, status: 504, retryable: true},
		{name: "forbidden", err: &api.APIError{Status: 403}, kind: KindUpstreamRejected, status: 403},
		{name: "unknown account", err: &api.APIError{Status: 404}, kind: KindUpstreamRejected, status: 404},
		{name: "internal", err: &api.APIError{Status: 500}, kind: KindUpstreamRejected, status: 500},
		{
			name:      "wrapped api error",
			err:       fmt.Errorf("standings: %w", &api.APIError{Status: 503}),
			kind:      KindUpstreamUnavailable,
			status:    503,
			retryable: true,
		},
		{name: "transport failure", err: errors.New("dial tcp: connection refused"), kind: KindUnexpected, retryable: true},
		{
			name:   "already classified",
			err:    &SyncError{Kind: KindPersistenceConflict, Status: 409},
			kind:   KindPersistenceConflict,
			status: 409,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)

			assert.Equal(t, tt.kind, got.Kind)
			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, tt.retryAfter, got.RetryAfter)
			assert.Equal(t, tt.retryAfter > 0, got.HasRetryAfter)
			assert.Equal(t, tt.retryable, got.Kind.Retryable())
			assert.NotEmpty(t, got.Error())
		})
	}

	assert.Nil(t, Classify(nil))
}

func TestSyncError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := newSyncError(KindPersistence, 500, cause, "failed to update member %s", "m1")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to update member m1", err.Error())
}
