// Package delivery turns one recipient, the session template, and the
// session delivery config into a single send through the selected backend.
//
// Each backend keeps its own wire contract (bearer JSON, basic-auth form,
// credential pass-through to the relay). What they share is the outcome: a
// Strategy never returns an error, it reports a types.DeliveryResult.
package delivery

import (
	"context"
	"fmt"

	"recruitmail/internal/external"
	"recruitmail/internal/mailmerge"
	"recruitmail/internal/types"
)

// Outcome messages that do not come from a provider.
const (
	MessageInvalidBackend = "Invalid email service"
	networkErrorPrefix    = "Network error"
	relayErrorPrefix      = "Backend error"
)

// Strategy sends one personalized email and reports the outcome.
type Strategy interface {
	Send(ctx context.Context, r types.Recipient, t types.EmailTemplate, cfg types.DeliveryConfig) types.DeliveryResult
}

// APISender is the vendor client shape of the two API-key backends.
type APISender interface {
	Send(ctx context.Context, apiKey types.SecretString, msg external.Message) (string, error)
}

// RelaySender is the vendor client shape of the relay backend.
type RelaySender interface {
	Send(ctx context.Context, creds types.SMTPCredentials, msg external.Message) (string, error)
}

// compose renders the template for r and addresses it from the session's
// sender identity.
func compose(r types.Recipient, t types.EmailTemplate, cfg types.DeliveryConfig) external.Message {
	rendered := mailmerge.Render(t, r)
	return external.Message{
		To:       r.Email,
		ToName:   r.Name,
		From:     cfg.SenderEmail,
		FromName: cfg.SenderName,
		Subject:  rendered.Subject,
		Text:     rendered.Body,
	}
}

// result flattens a vendor client return into a DeliveryResult. Provider
// rejections keep the provider's message; anything else is reported as a
// transport failure under prefix.
func result(msg string, err error, prefix string) types.DeliveryResult {
	if err == nil {
		return types.DeliveryResult{Success: true, Message: msg}
	}
	if m, ok := external.Rejection(err); ok {
		return types.DeliveryResult{Success: false, Message: m}
	}
	return types.DeliveryResult{
		Success: false,
		Message: fmt.Sprintf("%s: %s", prefix, external.Cause(err)),
	}
}

// SendGrid delivers through the SendGrid v3 Mail Send API.
type SendGrid struct {
	Client APISender
}

// Send implements Strategy.
func (s *SendGrid) Send(ctx context.Context, r types.Recipient, t types.EmailTemplate, cfg types.DeliveryConfig) types.DeliveryResult {
	msg, err := s.Client.Send(ctx, cfg.APIKey, compose(r, t, cfg))
	return result(msg, err, networkErrorPrefix)
}

// Mailgun delivers through the Mailgun messages API. The sending domain is
// fixed by the client's operator configuration.
type Mailgun struct {
	Client APISender
}

// Send implements Strategy.
func (m *Mailgun) Send(ctx context.Context, r types.Recipient, t types.EmailTemplate, cfg types.DeliveryConfig) types.DeliveryResult {
	msg, err := m.Client.Send(ctx, cfg.APIKey, compose(r, t, cfg))
	return result(msg, err, networkErrorPrefix)
}

// Relay delivers by handing the message and the session's SMTP credentials
// to the relay process.
type Relay struct {
	Client RelaySender
}

// Send implements Strategy.
func (s *Relay) Send(ctx context.Context, r types.Recipient, t types.EmailTemplate, cfg types.DeliveryConfig) types.DeliveryResult {
	msg, err := s.Client.Send(ctx, cfg.SMTP, compose(r, t, cfg))
	return result(msg, err, relayErrorPrefix)
}

var (
	_ Strategy = (*SendGrid)(nil)
	_ Strategy = (*Mailgun)(nil)
	_ Strategy = (*Relay)(nil)
	_ Strategy = (*Registry)(nil)

	_ APISender   = (*external.SendGridClient)(nil)
	_ APISender   = (*external.MailgunClient)(nil)
	_ RelaySender = (*external.RelayClient)(nil)
)
