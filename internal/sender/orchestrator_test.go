package sender

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recruitmail/internal/types"
)

// scriptedStrategy returns the results in order and records every call.
type scriptedStrategy struct {
	mu      sync.Mutex
	results []types.DeliveryResult
	calls   []types.Recipient
	onSend  func(r types.Recipient)
}

func (s *scriptedStrategy) Send(_ context.Context, r types.Recipient, _ types.EmailTemplate, _ types.DeliveryConfig) types.DeliveryResult {
	if s.onSend != nil {
		s.onSend(r)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	res := s.results[len(s.calls)]
	s.calls = append(s.calls, r)
	return res
}

func (s *scriptedStrategy) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// fakeSleeper records requested pauses without waiting.
type fakeSleeper struct {
	mu     sync.Mutex
	naps   []time.Duration
	events *[]string
}

func (f *fakeSleeper) Sleep(_ context.Context, d time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.naps = append(f.naps, d)
	if f.events != nil {
		*f.events = append(*f.events, "sleep")
	}
	return nil
}

type recordingMetrics struct {
	deliveries []bool
	passes     []types.SendSummary
}

func (m *recordingMetrics) RecordDelivery(_ context.Context, _ types.Backend, success bool, _ time.Duration) {
	m.deliveries = append(m.deliveries, success)
}

func (m *recordingMetrics) RecordPass(_ context.Context, s types.SendSummary) {
	m.passes = append(m.passes, s)
}

func recipients(n int) []types.Recipient {
	out := make([]types.Recipient, n)
	for i := range out {
		out[i] = types.Recipient{ID: i, Name: string(rune('A' + i)), Email: string(rune('a'+i)) + "@x.io"}
	}
	return out
}

func validConfig() types.DeliveryConfig {
	return types.DeliveryConfig{
		SenderName:  "Job Seeker",
		SenderEmail: "me@example.com",
		Backend:     types.BackendSendGrid,
		APIKey:      "SG.key",
	}
}

var tmpl = types.EmailTemplate{Subject: "Hi {name}", Body: "Body"}

func ok() types.DeliveryResult   { return types.DeliveryResult{Success: true, Message: "Email sent successfully"} }
func fail() types.DeliveryResult { return types.DeliveryResult{Success: false, Message: "Failed to send email"} }

func TestRun_SentSentFailed(t *testing.T) {
	strategy := &scriptedStrategy{results: []types.DeliveryResult{ok(), ok(), fail()}}
	sleeper := &fakeSleeper{}
	metrics := &recordingMetrics{}
	board := NewStatusBoard()
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	o := NewOrchestrator(strategy, board,
		WithSleepFunc(sleeper.Sleep),
		WithClock(func() time.Time { return fixed }),
		WithMetrics(metrics),
	)

	summary, err := o.Run(context.Background(), recipients(3), validConfig(), tmpl, AutoConfirm)
	require.NoError(t, err)

	assert.Equal(t, 3, strategy.callCount(), "third recipient must still be attempted")
	assert.Equal(t, types.SendStateSent, board.Get(0).State)
	assert.Equal(t, types.SendStateSent, board.Get(1).State)
	assert.Equal(t, types.SendStateFailed, board.Get(2).State)
	assert.Equal(t, "Failed to send email", board.Get(2).Message)
	require.NotNil(t, board.Get(2).CompletedAt)
	assert.Equal(t, fixed, *board.Get(2).CompletedAt)

	assert.Equal(t, types.SendSummary{
		Backend:    types.BackendSendGrid,
		Total:      3,
		Sent:       2,
		Failed:     1,
		StartedAt:  fixed,
		FinishedAt: fixed,
	}, summary)
	assert.Equal(t, []bool{true, true, false}, metrics.deliveries)
	assert.Equal(t, []types.SendSummary{summary}, metrics.passes)
	assert.False(t, o.Busy())
}

func TestRun_PausesBetweenButNotAfterLast(t *testing.T) {
	var events []string
	strategy := &scriptedStrategy{
		results: []types.DeliveryResult{ok(), ok(), ok(), ok()},
	}
	strategy.onSend = func(r types.Recipient) { events = append(events, "send") }
	sleeper := &fakeSleeper{events: &events}

	o := NewOrchestrator(strategy, NewStatusBoard(), WithSleepFunc(sleeper.Sleep))

	_, err := o.Run(context.Background(), recipients(4), validConfig(), tmpl, AutoConfirm)
	require.NoError(t, err)

	assert.Equal(t, []time.Duration{time.Second, time.Second, time.Second}, sleeper.naps)
	assert.Equal(t, []string{"send", "sleep", "send", "sleep", "send", "sleep", "send"}, events)
}

func TestRun_RealPacing(t *testing.T) {
	if testing.Short() {
		t.Skip("uses wall-clock pacing")
	}
	strategy := &scriptedStrategy{results: []types.DeliveryResult{ok(), ok(), ok()}}
	interval := 30 * time.Millisecond
	o := NewOrchestrator(strategy, NewStatusBoard(), WithInterval(interval))

	start := time.Now()
	_, err := o.Run(context.Background(), recipients(3), validConfig(), tmpl, AutoConfirm)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 2*interval)
}

func TestRun_SingleRecipientNeverSleeps(t *testing.T) {
	sleeper := &fakeSleeper{}
	o := NewOrchestrator(&scriptedStrategy{results: []types.DeliveryResult{ok()}}, NewStatusBoard(), WithSleepFunc(sleeper.Sleep))

	_, err := o.Run(context.Background(), recipients(1), validConfig(), tmpl, AutoConfirm)
	require.NoError(t, err)
	assert.Empty(t, sleeper.naps)
}

func TestRun_SendingIsRecordedBeforeTheCall(t *testing.T) {
	board := NewStatusBoard()
	var seen []types.SendState
	strategy := &scriptedStrategy{results: []types.DeliveryResult{ok(), fail()}}
	strategy.onSend = func(r types.Recipient) { seen = append(seen, board.Get(r.ID).State) }

	var transitions []types.SendState
	o := NewOrchestrator(strategy, board,
		WithSleepFunc((&fakeSleeper{}).Sleep),
		WithObserver(func(_ types.Recipient, s types.SendStatus) { transitions = append(transitions, s.State) }),
	)

	_, err := o.Run(context.Background(), recipients(2), validConfig(), tmpl, AutoConfirm)
	require.NoError(t, err)

	assert.Equal(t, []types.SendState{types.SendStateSending, types.SendStateSending}, seen)
	assert.Equal(t, []types.SendState{
		types.SendStateSending, types.SendStateSent,
		types.SendStateSending, types.SendStateFailed,
	}, transitions)
}

func TestRun_PreconditionsMakeNoCalls(t *testing.T) {
	tests := []struct {
		name     string
		selected []types.Recipient
		cfg      func(c *types.DeliveryConfig)
		code     types.ErrorCode
	}{
		{"empty selection", nil, func(*types.DeliveryConfig) {}, types.ErrCodeValidationEmptySelection},
		{"invalid sender email", recipients(2), func(c *types.DeliveryConfig) { c.SenderEmail = "not-an-email" }, types.ErrCodeValidationInvalidEmail},
		{"missing sender name", recipients(2), func(c *types.DeliveryConfig) { c.SenderName = "" }, types.ErrCodeValidationSenderMissing},
		{"missing api key", recipients(2), func(c *types.DeliveryConfig) { c.APIKey = "" }, types.ErrCodeValidationMissingCredentials},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			strategy := &scriptedStrategy{}
			board := NewStatusBoard()
			confirmCalled := false
			confirmer := ConfirmFunc(func(context.Context, string) (bool, error) {
				confirmCalled = true
				return true, nil
			})
			cfg := validConfig()
			tt.cfg(&cfg)

			o := NewOrchestrator(strategy, board)
			_, err := o.Run(context.Background(), tt.selected, cfg, tmpl, confirmer)

			var appErr *types.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.code, appErr.Code)
			assert.Zero(t, strategy.callCount())
			assert.False(t, confirmCalled)
			assert.Empty(t, board.Snapshot())
			assert.False(t, o.Busy())
		})
	}
}

func TestRun_DeclinedChangesNothing(t *testing.T) {
	strategy := &scriptedStrategy{}
	board := NewStatusBoard()
	var prompt string
	confirmer := ConfirmFunc(func(_ context.Context, p string) (bool, error) {
		prompt = p
		return false, nil
	})

	o := NewOrchestrator(strategy, board)
	_, err := o.Run(context.Background(), recipients(3), validConfig(), tmpl, confirmer)

	assert.ErrorIs(t, err, ErrDeclined)
	assert.Equal(t, "You are about to send 3 emails using sendgrid. Continue?", prompt)
	assert.Zero(t, strategy.callCount())
	assert.Empty(t, board.Snapshot())
	assert.False(t, o.Busy())
}

func TestRun_ConfirmerError(t *testing.T) {
	boom := errors.New("stdin closed")
	o := NewOrchestrator(&scriptedStrategy{}, NewStatusBoard())
	_, err := o.Run(context.Background(), recipients(1), validConfig(), tmpl,
		ConfirmFunc(func(context.Context, string) (bool, error) { return false, boom }))
	assert.ErrorIs(t, err, boom)
	assert.False(t, o.Busy())
}

func TestRun_ResendAttemptsAlreadySentRecipients(t *testing.T) {
	strategy := &scriptedStrategy{results: []types.DeliveryResult{ok(), fail(), ok(), ok()}}
	board := NewStatusBoard()
	o := NewOrchestrator(strategy, board, WithSleepFunc((&fakeSleeper{}).Sleep))

	_, err := o.Run(context.Background(), recipients(2), validConfig(), tmpl, AutoConfirm)
	require.NoError(t, err)
	_, err = o.Run(context.Background(), recipients(2), validConfig(), tmpl, AutoConfirm)
	require.NoError(t, err)

	assert.Equal(t, 4, strategy.callCount())
	assert.Equal(t, types.SendStateSent, board.Get(1).State)
}

func TestLaunch_BusyRejectsSecondPass(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	strategy := &scriptedStrategy{results: []types.DeliveryResult{ok(), ok()}}
	strategy.onSend = func(r types.Recipient) {
		if r.ID == 0 {
			close(started)
			<-release
		}
	}
	board := NewStatusBoard()
	o := NewOrchestrator(strategy, board, WithSleepFunc((&fakeSleeper{}).Sleep))

	done := make(chan types.SendSummary, 1)
	require.NoError(t, o.Launch(context.Background(), recipients(2), validConfig(), tmpl, func(s types.SendSummary) {
		done <- s
	}))
	<-started
	assert.True(t, o.Busy())

	_, err := o.Run(context.Background(), recipients(1), validConfig(), tmpl, AutoConfirm)
	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeConflictSendInProgress, appErr.Code)

	err = o.Launch(context.Background(), recipients(1), validConfig(), tmpl, nil)
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeConflictSendInProgress, appErr.Code)

	close(release)
	select {
	case s := <-done:
		assert.Equal(t, 2, s.Sent)
	case <-time.After(5 * time.Second):
		t.Fatal("pass did not finish")
	}
	assert.Eventually(t, func() bool { return !o.Busy() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, strategy.callCount())
}

func TestLaunch_PreconditionFailureIsSynchronous(t *testing.T) {
	o := NewOrchestrator(&scriptedStrategy{}, NewStatusBoard())
	err := o.Launch(context.Background(), nil, validConfig(), tmpl, func(types.SendSummary) {
		t.Error("done must not be called")
	})
	require.Error(t, err)
	assert.False(t, o.Busy())
}

func TestRun_ShutdownStopsBeforeNextRecipient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	strategy := &scriptedStrategy{results: []types.DeliveryResult{ok(), ok(), ok()}}
	strategy.onSend = func(types.Recipient) { cancel() }
	board := NewStatusBoard()

	o := NewOrchestrator(strategy, board, WithInterval(time.Hour))
	summary, err := o.Run(ctx, recipients(3), validConfig(), tmpl, AutoConfirm)
	require.NoError(t, err)

	assert.Equal(t, 1, strategy.callCount())
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 1, summary.Sent)
	assert.Equal(t, types.SendStateNotSent, board.Get(1).State)
}

func TestSleepCtx(t *testing.T) {
	assert.NoError(t, sleepCtx(context.Background(), 0))
	assert.NoError(t, sleepCtx(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepCtx(ctx, time.Hour), context.Canceled)
}
