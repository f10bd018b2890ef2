// Package session holds the per-browser application state of the mailer:
// the uploaded recipients and their selection, the template, the delivery
// settings, and the send statuses. Nothing outlives the process.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"recruitmail/internal/delivery"
	"recruitmail/internal/mailmerge"
	"recruitmail/internal/recipients"
	"recruitmail/internal/sender"
	"recruitmail/internal/types"
)

// Deps are the collaborators shared by every session.
type Deps struct {
	Strategy delivery.Strategy
	Defaults types.DeliveryConfig
	Interval time.Duration
	Metrics  sender.Metrics
	Logger   *slog.Logger
	Now      func() time.Time
}

// Session is the state of one browser session.
type Session struct {
	ID string

	mu       sync.RWMutex
	store    *recipients.Store
	template types.EmailTemplate
	config   types.DeliveryConfig
	summary  *types.SendSummary
	lastSeen time.Time

	board *sender.StatusBoard
	orch  *sender.Orchestrator
	now   func() time.Time
}

// New creates a session with the default template and deps.Defaults as its
// delivery settings.
func New(id string, deps Deps) *Session {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = sender.NoopMetrics{}
	}
	interval := deps.Interval
	if interval <= 0 {
		interval = sender.DefaultInterval
	}

	board := sender.NewStatusBoard()
	return &Session{
		ID:       id,
		store:    recipients.NewStore(),
		template: mailmerge.DefaultTemplate(),
		config:   deps.Defaults,
		lastSeen: now(),
		board:    board,
		orch: sender.NewOrchestrator(deps.Strategy, board,
			sender.WithInterval(interval),
			sender.WithMetrics(metrics),
			sender.WithClock(now),
			sender.WithLogger(logger.With("session_id", id)),
		),
		now: now,
	}
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = s.now()
	s.mu.Unlock()
}

// idleSince reports how long the session has been unused.
func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return now.Sub(s.lastSeen)
}

// Sending reports whether a pass is running.
func (s *Session) Sending() bool {
	return s.orch.Busy()
}

// Upload replaces the recipient collection, selects every record, and clears
// all statuses and the last summary. It is refused while a pass is running.
func (s *Session) Upload(records []types.Recipient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.orch.Busy() {
		return types.NewAppError(
			types.ErrCodeConflictSendInProgress,
			"cannot replace recipients while a send is in progress",
			nil,
		)
	}
	s.store.Replace(records)
	s.board.Reset()
	s.summary = nil
	return nil
}

// Toggle flips the selection of one recipient.
func (s *Session) Toggle(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Toggle(id)
}

// ToggleAll selects everything, or nothing when everything is selected.
func (s *Session) ToggleAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.ToggleAll()
}

// SetSelection replaces the selection, ignoring unknown IDs.
func (s *Session) SetSelection(ids []int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.SetSelection(ids)
}

// Template returns the current template.
func (s *Session) Template() types.EmailTemplate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.template
}

// SetTemplate replaces the template. A running pass keeps the template it
// started with.
func (s *Session) SetTemplate(t types.EmailTemplate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.template = t
}

// Config returns the delivery settings. Secrets are SecretStrings and
// serialize redacted.
func (s *Session) Config() types.DeliveryConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// SetConfig replaces the delivery settings. Secrets submitted as the redacted
// placeholder keep their stored value.
func (s *Session) SetConfig(next types.DeliveryConfig) types.DeliveryConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = s.config.Merge(next)
	return s.config
}

// Preview renders the template for one recipient.
func (s *Session) Preview(id int) (types.RenderedEmail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.store.Get(id)
	if !ok {
		return types.RenderedEmail{}, types.NewAppError(
			types.ErrCodeNotFoundRecipient,
			fmt.Sprintf("recipient %d not found", id),
			nil,
		)
	}
	return mailmerge.Render(s.template, r), nil
}

// PrepareSend validates a pass over the current selection without starting
// it and returns the confirmation prompt.
func (s *Session) PrepareSend() (string, error) {
	if s.orch.Busy() {
		return "", types.NewAppError(types.ErrCodeConflictSendInProgress, "a send is already in progress", nil)
	}
	s.mu.RLock()
	selected := s.store.Selected()
	cfg := s.config
	s.mu.RUnlock()

	if err := sender.Check(selected, cfg); err != nil {
		return "", err
	}
	return sender.Prompt(len(selected), cfg.Backend), nil
}

// StartSend launches a confirmed pass over the current selection in the
// background. The pass runs under base, not under the caller's request.
func (s *Session) StartSend(base context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	selected := s.store.Selected()
	err := s.orch.Launch(base, selected, s.config, s.template, func(summary types.SendSummary) {
		s.mu.Lock()
		s.summary = &summary
		s.mu.Unlock()
	})
	if err != nil {
		return 0, err
	}
	s.summary = nil
	return len(selected), nil
}

// RecipientView is one table row.
type RecipientView struct {
	types.Recipient
	Selected bool             `json:"selected"`
	Status   types.SendStatus `json:"status"`
}

// Progress is the part of the view polled during a pass.
type Progress struct {
	Sending  bool                     `json:"sending"`
	Statuses map[int]types.SendStatus `json:"statuses"`
	Summary  *types.SendSummary       `json:"summary,omitempty"`
	Notice   string                   `json:"notice,omitempty"`
}

// View is the full page state.
type View struct {
	Recipients    []RecipientView      `json:"recipients"`
	SelectedCount int                  `json:"selected_count"`
	AllSelected   bool                 `json:"all_selected"`
	Template      types.EmailTemplate  `json:"template"`
	Config        types.DeliveryConfig `json:"config"`
	Backends      []BackendView        `json:"backends"`
	Progress
}

// BackendView describes one selectable backend.
type BackendView struct {
	ID             types.Backend `json:"id"`
	Name           string        `json:"name"`
	RequiresAPIKey bool          `json:"requires_api_key"`
}

func backendViews() []BackendView {
	out := make([]BackendView, len(types.Backends))
	for i, b := range types.Backends {
		out[i] = BackendView{ID: b, Name: b.DisplayName(), RequiresAPIKey: b.RequiresAPIKey()}
	}
	return out
}

// Progress returns statuses, the busy flag, and the last summary.
func (s *Session) Progress() Progress {
	s.mu.RLock()
	summary := s.summary
	s.mu.RUnlock()

	p := Progress{
		Sending:  s.orch.Busy(),
		Statuses: s.board.Snapshot(),
		Summary:  summary,
	}
	if summary != nil && !p.Sending {
		p.Notice = sender.CompletedMessage
	}
	return p
}

// View returns a consistent snapshot of the whole session.
func (s *Session) View() View {
	progress := s.Progress()

	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.store.All()
	rows := make([]RecipientView, len(all))
	for i, r := range all {
		rows[i] = RecipientView{
			Recipient: r,
			Selected:  s.store.IsSelected(r.ID),
			Status:    s.board.Get(r.ID),
		}
	}

	return View{
		Recipients:    rows,
		SelectedCount: len(s.store.SelectedIDs()),
		AllSelected:   s.store.AllSelected(),
		Template:      s.template,
		Config:        s.config,
		Backends:      backendViews(),
		Progress:      progress,
	}
}
