package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"roster-sync/internal/config"
	"roster-sync/internal/metrics"
	"roster-sync/internal/repository"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
)

type RetryPolicy struct {
	MaxAttempts      int
	BackoffBase      time.Duration
	BackoffMax       time.Duration
	Jitter           time.Duration
	ThrottleFallback time.Duration
}

func NewRetryPolicy(cfg *config.Config) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:      cfg.Sync.MaxAttempts,
		BackoffBase:      cfg.Sync.BackoffBase,
		BackoffMax:       cfg.Sync.BackoffMax,
		Jitter:           cfg.Sync.BackoffJitter,
		ThrottleFallback: cfg.Sync.ThrottleFallback,
	}
}

// Result is the outcome of one member sync, retries included.
type Result struct {
	MemberID   string        `json:"memberId"`
	OK         bool          `json:"ok"`
	Status     int           `json:"status"`
	Skipped    bool          `json:"skipped,omitempty"`
	Error      string        `json:"error,omitempty"`
	Kind       Kind          `json:"kind,omitempty"`
	Attempts   int           `json:"attempts"`
	DurationMs int64         `json:"durationMs"`
	RetryAfter time.Duration `json:"-"`
}

// PassFunc runs one sync pass with no retry of its own.
type PassFunc func(ctx context.Context) error

type Sleeper func(ctx context.Context, d time.Duration) error

// Engine drives a member through PENDING -> RUNNING -> {SUCCESS, FAILED},
// retrying throttled and transient failures of the pass it wraps.
type Engine struct {
	state   SyncStateStore
	policy  RetryPolicy
	metrics *metrics.Metrics
	logger  zerolog.Logger

	sleep  Sleeper
	now    func() time.Time
	jitter func(max time.Duration) time.Duration
}

func NewEngine(state SyncStateStore, policy RetryPolicy, m *metrics.Metrics, logger zerolog.Logger) *Engine {
	return &Engine{
		state:   state,
		policy:  policy,
		metrics: m,
		logger:  logger,
		sleep:   sleepContext,
		now:     time.Now,
		jitter:  randomJitter,
	}
}

func (e *Engine) Run(ctx context.Context, memberID string, pass PassFunc) Result {
	start := e.now()
	res := Result{MemberID: memberID}
	log := e.logger.With().Str("member_id", memberID).Logger()

	if err := e.state.MarkRunning(ctx, memberID, start); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return e.finish(res, start, newSyncError(KindNotFound, http.StatusNotFound, err, "Member not found"))
		}
		log.Error().Err(err).Msg("failed to mark member running")
		return e.finish(res, start, newSyncError(KindPersistence, http.StatusInternalServerError, err, "failed to mark member running: %v", err))
	}

	// bookkeeping must land even if the caller goes away mid-run
	bookCtx := context.WithoutCancel(ctx)

	schedule := e.newSchedule()
	var last *SyncError

	for attempt := 1; attempt <= e.policy.MaxAttempts; attempt++ {
		res.Attempts = attempt
		if e.metrics != nil {
			e.metrics.ObserveAttempt()
		}

		err := pass(ctx)
		if err == nil {
			if err := e.state.MarkSucceeded(bookCtx, memberID, e.now()); err != nil {
				log.Error().Err(err).Msg("failed to mark member succeeded")
			}
			res.OK = true
			res.Status = http.StatusOK
			return e.finish(res, start, nil)
		}

		last = Classify(err)
		step := schedule.NextBackOff()

		if last.Kind == KindCooldown {
			if err := e.state.MarkSkipped(bookCtx, memberID, e.now()); err != nil {
				log.Error().Err(err).Msg("failed to mark member skipped")
			}
			res.Skipped = true
			return e.finish(res, start, last)
		}

		if !last.Kind.Retryable() {
			log.Warn().Str("kind", string(last.Kind)).Int("status", last.Status).Msg(last.Error())
			break
		}
		if attempt == e.policy.MaxAttempts {
			break
		}

		wait := e.waitFor(last, step)
		log.Warn().
			Int("attempt", attempt).
			Str("kind", string(last.Kind)).
			Int("status", last.Status).
			Dur("wait", wait).
			Msg("sync attempt failed, retrying")
		if e.metrics != nil {
			e.metrics.ObserveRetryWait(string(last.Kind), wait)
		}

		if err := e.sleep(ctx, wait); err != nil {
			last = &SyncError{Kind: KindUnexpected, Status: last.Status, Message: "sync interrupted: " + err.Error(), Err: err}
			break
		}
	}

	if err := e.state.MarkFailed(bookCtx, memberID, e.now(), last.Error()); err != nil && !errors.Is(err, repository.ErrNotFound) {
		log.Error().Err(err).Msg("failed to mark member failed")
	}
	log.Error().
		Int("attempts", res.Attempts).
		Str("kind", string(last.Kind)).
		Int("status", last.Status).
		Msg("sync failed")
	return e.finish(res, start, last)
}

func (e *Engine) finish(res Result, start time.Time, se *SyncError) Result {
	res.DurationMs = e.now().Sub(start).Milliseconds()
	if se == nil {
		return res
	}
	res.Kind = se.Kind
	res.Status = se.Status
	res.Error = se.Error()
	if se.HasRetryAfter {
		res.RetryAfter = se.RetryAfter
	}
	return res
}

// waitFor returns the pause before the next attempt. step is the exponential
// schedule value for the attempt that just failed.
func (e *Engine) waitFor(se *SyncError, step time.Duration) time.Duration {
	if se.Kind == KindUpstreamThrottled {
		if se.HasRetryAfter {
			return se.RetryAfter
		}
		return e.policy.ThrottleFallback
	}
	return step + e.jitter(e.policy.Jitter)
}

// newSchedule yields base, 2*base, 4*base ... capped at BackoffMax.
func (e *Engine) newSchedule() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.policy.BackoffBase
	b.Multiplier = 2
	b.MaxInterval = e.policy.BackoffMax
	b.RandomizationFactor = 0
	b.Reset()
	return b
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func randomJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return rand.N(max)
}
