// Package sender runs send passes: one strictly sequential traversal of the
// selected recipients through the session's delivery strategy, with
// per-recipient status tracking and a fixed pause between calls.
package sender

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"recruitmail/internal/delivery"
	"recruitmail/internal/types"
)

// DefaultInterval is the pause between two consecutive deliveries.
const DefaultInterval = time.Second

// ErrDeclined is returned by Run when the confirmer says no.
var ErrDeclined = errors.New("send declined")

// Confirmer asks the operator to approve a pass.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// AutoConfirm approves every pass. Used when the caller has already
// collected approval (HTTP two-phase confirm, CLI -yes).
var AutoConfirm Confirmer = ConfirmFunc(func(context.Context, string) (bool, error) {
	return true, nil
})

// SleepFunc pauses for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Observer is notified of every status transition, in order.
type Observer func(r types.Recipient, s types.SendStatus)

// Orchestrator runs send passes for one session. At most one pass runs at a
// time; a concurrent request fails with conflict_send_in_progress.
type Orchestrator struct {
	strategy delivery.Strategy
	board    *StatusBoard
	interval time.Duration
	sleep    SleepFunc
	now      func() time.Time
	metrics  Metrics
	observer Observer
	logger   *slog.Logger

	busy atomic.Bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithInterval overrides the pause between deliveries.
func WithInterval(d time.Duration) Option {
	return func(o *Orchestrator) { o.interval = d }
}

// WithSleepFunc overrides how the pause is taken. Intended for tests.
func WithSleepFunc(fn SleepFunc) Option {
	return func(o *Orchestrator) { o.sleep = fn }
}

// WithClock overrides the completion timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithMetrics sets the outcome recorder.
func WithMetrics(m Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithObserver registers a callback for status transitions.
func WithObserver(fn Observer) Option {
	return func(o *Orchestrator) { o.observer = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// NewOrchestrator creates an Orchestrator writing into board.
func NewOrchestrator(strategy delivery.Strategy, board *StatusBoard, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		strategy: strategy,
		board:    board,
		interval: DefaultInterval,
		sleep:    sleepCtx,
		now:      time.Now,
		metrics:  NoopMetrics{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Busy reports whether a pass is running.
func (o *Orchestrator) Busy() bool {
	return o.busy.Load()
}

// Board returns the status board the orchestrator writes to.
func (o *Orchestrator) Board() *StatusBoard {
	return o.board
}

func conflictError() error {
	return types.NewAppError(
		types.ErrCodeConflictSendInProgress,
		"a send is already in progress",
		nil,
	)
}

// acquire takes the busy flag and validates preconditions, releasing the
// flag again when they fail.
func (o *Orchestrator) acquire(selected []types.Recipient, cfg types.DeliveryConfig) error {
	if !o.busy.CompareAndSwap(false, true) {
		return conflictError()
	}
	if err := Check(selected, cfg); err != nil {
		o.busy.Store(false)
		return err
	}
	return nil
}

// Run checks preconditions, asks confirmer, and runs one pass to completion.
// selected, cfg and tmpl are captured by value, so edits made while the pass
// runs do not affect it. No status changes unless the pass starts.
func (o *Orchestrator) Run(
	ctx context.Context,
	selected []types.Recipient,
	cfg types.DeliveryConfig,
	tmpl types.EmailTemplate,
	confirmer Confirmer,
) (types.SendSummary, error) {
	if err := o.acquire(selected, cfg); err != nil {
		return types.SendSummary{}, err
	}
	defer o.busy.Store(false)

	ok, err := confirmer.Confirm(ctx, Prompt(len(selected), cfg.Backend))
	if err != nil {
		return types.SendSummary{}, err
	}
	if !ok {
		return types.SendSummary{}, ErrDeclined
	}

	return o.execute(ctx, append([]types.Recipient(nil), selected...), cfg, tmpl), nil
}

// Launch starts an already-confirmed pass in the background. Busy and
// precondition failures are returned synchronously; done receives the
// summary once the pass ends. The pass ignores cancellation of the caller's
// request and stops early only when base is done.
func (o *Orchestrator) Launch(
	base context.Context,
	selected []types.Recipient,
	cfg types.DeliveryConfig,
	tmpl types.EmailTemplate,
	done func(types.SendSummary),
) error {
	if err := o.acquire(selected, cfg); err != nil {
		return err
	}

	batch := append([]types.Recipient(nil), selected...)
	go func() {
		defer o.busy.Store(false)
		summary := o.execute(base, batch, cfg, tmpl)
		if done != nil {
			done(summary)
		}
	}()
	return nil
}

// execute is the pass itself. The caller holds the busy flag.
func (o *Orchestrator) execute(
	ctx context.Context,
	batch []types.Recipient,
	cfg types.DeliveryConfig,
	tmpl types.EmailTemplate,
) types.SendSummary {
	summary := types.SendSummary{
		Backend:   cfg.Backend,
		Total:     len(batch),
		StartedAt: o.now(),
	}

	log := o.logger.With("backend", string(cfg.Backend), "total", len(batch))
	log.Info("send pass started")

	for i, r := range batch {
		o.transition(r, types.SendStatus{State: types.SendStateSending})

		start := time.Now()
		res := o.strategy.Send(ctx, r, tmpl, cfg)
		latency := time.Since(start)

		completed := o.now()
		state := types.SendStateFailed
		if res.Success {
			state = types.SendStateSent
			summary.Sent++
		} else {
			summary.Failed++
		}
		o.transition(r, types.SendStatus{State: state, Message: res.Message, CompletedAt: &completed})
		o.metrics.RecordDelivery(ctx, cfg.Backend, res.Success, latency)

		log.Debug("delivery finished",
			"recipient_id", r.ID,
			"recipient", delivery.RedactEmail(r.Email),
			"state", string(state),
			"latency_ms", latency.Milliseconds(),
		)

		if i == len(batch)-1 {
			break
		}
		if err := o.sleep(ctx, o.interval); err != nil {
			log.Warn("send pass interrupted",
				"error", err,
				"attempted", i+1,
			)
			break
		}
	}

	summary.FinishedAt = o.now()
	o.metrics.RecordPass(ctx, summary)
	log.Info("send pass completed",
		"sent", summary.Sent,
		"failed", summary.Failed,
		"duration_ms", summary.FinishedAt.Sub(summary.StartedAt).Milliseconds(),
	)
	return summary
}

func (o *Orchestrator) transition(r types.Recipient, s types.SendStatus) {
	o.board.Set(r.ID, s)
	if o.observer != nil {
		o.observer(r, s)
	}
}
