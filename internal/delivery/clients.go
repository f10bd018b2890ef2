package delivery

import (
	"log/slog"
	"net/http"

	"recruitmail/internal/config"
	"recruitmail/internal/external"
)

// NewClientSet builds the vendor clients from operator configuration. Each
// provider gets its own http.Client and breaker so one failing provider never
// opens another's breaker.
func NewClientSet(cfg config.DeliveryConfig, logger *slog.Logger) ClientSet {
	if logger == nil {
		logger = slog.Default()
	}

	var probes []BreakerProbe
	base := func(name string) *external.BaseClient {
		c := external.NewBaseClient(
			&http.Client{Timeout: cfg.Timeout},
			name,
			cfg.BreakerThreshold,
			cfg.UserAgent,
		)
		probes = append(probes, BreakerProbe{Provider: name, Client: c})
		return c
	}

	set := ClientSet{
		SendGrid: external.NewSendGridClient(base("sendgrid"), external.SendGridClientConfig{
			BaseURL: cfg.SendGridURL,
			Logger:  logger.With("client", "sendgrid"),
		}),
		Mailgun: external.NewMailgunClient(base("mailgun"), external.MailgunClientConfig{
			BaseURL: cfg.MailgunURL,
			Domain:  cfg.MailgunDomain,
			Logger:  logger.With("client", "mailgun"),
		}),
		Relay: external.NewRelayClient(base("relay"), external.RelayClientConfig{
			URL:    cfg.RelayURL,
			Logger: logger.With("client", "relay"),
		}),
	}
	set.Probes = probes
	return set
}
