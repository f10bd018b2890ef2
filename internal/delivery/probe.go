package delivery

import (
	"context"
	"fmt"

	"github.com/sony/gobreaker/v2"

	"recruitmail/internal/external"
)

// BreakerProbe reports a provider as unhealthy while its circuit breaker is
// open. With the breaker threshold at zero it never fails.
type BreakerProbe struct {
	Provider string
	Client   *external.BaseClient
}

// Name identifies the probe in health output.
func (p BreakerProbe) Name() string {
	return p.Provider
}

// Check returns an error only when the breaker is open; half-open lets a
// trial request through and counts as healthy.
func (p BreakerProbe) Check(context.Context) error {
	if p.Client.State() == gobreaker.StateOpen {
		return fmt.Errorf("%s circuit breaker is open", p.Provider)
	}
	return nil
}
