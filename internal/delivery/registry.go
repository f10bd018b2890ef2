package delivery

import (
	"context"
	"fmt"
	"log/slog"

	"recruitmail/internal/external"
	"recruitmail/internal/types"
)

// Registry maps each backend to its Strategy and dispatches on the backend
// named in the delivery config.
type Registry struct {
	strategies map[types.Backend]Strategy
	logger     *slog.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		strategies: make(map[types.Backend]Strategy),
		logger:     logger,
	}
}

// Register binds s to backend, replacing any previous binding.
func (r *Registry) Register(backend types.Backend, s Strategy) {
	r.strategies[backend] = s
}

// Get returns the Strategy bound to backend.
func (r *Registry) Get(backend types.Backend) (Strategy, bool) {
	s, ok := r.strategies[backend]
	return s, ok
}

// Send dispatches to the Strategy for cfg.Backend. An unknown backend yields
// a failed result without any network call. A panicking strategy is reported
// as a failed delivery.
func (r *Registry) Send(ctx context.Context, rec types.Recipient, t types.EmailTemplate, cfg types.DeliveryConfig) (res types.DeliveryResult) {
	s, ok := r.strategies[cfg.Backend]
	if !ok {
		return types.DeliveryResult{Success: false, Message: MessageInvalidBackend}
	}

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("delivery strategy panicked",
				"backend", cfg.Backend,
				"recipient", RedactEmail(rec.Email),
				"panic", fmt.Sprint(p),
			)
			res = types.DeliveryResult{Success: false, Message: external.MessageFailed}
		}
	}()

	return s.Send(ctx, rec, t, cfg)
}

// ClientSet bundles the vendor clients behind the three built-in strategies.
type ClientSet struct {
	SendGrid APISender
	Mailgun  APISender
	Relay    RelaySender

	// Probes report the breaker of each provider client. Empty when the
	// clients were not built by NewClientSet.
	Probes []BreakerProbe
}

// NewDefaultRegistry registers the SendGrid, Mailgun and relay strategies.
func NewDefaultRegistry(clients ClientSet, logger *slog.Logger) *Registry {
	reg := NewRegistry(logger)
	reg.Register(types.BackendSendGrid, &SendGrid{Client: clients.SendGrid})
	reg.Register(types.BackendMailgun, &Mailgun{Client: clients.Mailgun})
	reg.Register(types.BackendRelay, &Relay{Client: clients.Relay})
	return reg
}
