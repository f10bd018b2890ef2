package delivery

import (
	"context"

	"recruitmail/internal/external"
	"recruitmail/internal/types"
)

type mockAPISender struct {
	SendFunc func(ctx context.Context, apiKey types.SecretString, msg external.Message) (string, error)
	calls    []external.Message
}

func (m *mockAPISender) Send(ctx context.Context, apiKey types.SecretString, msg external.Message) (string, error) {
	m.calls = append(m.calls, msg)
	return m.SendFunc(ctx, apiKey, msg)
}

type mockRelaySender struct {
	SendFunc func(ctx context.Context, creds types.SMTPCredentials, msg external.Message) (string, error)
	calls    []external.Message
}

func (m *mockRelaySender) Send(ctx context.Context, creds types.SMTPCredentials, msg external.Message) (string, error) {
	m.calls = append(m.calls, msg)
	return m.SendFunc(ctx, creds, msg)
}

type strategyFunc func(ctx context.Context, r types.Recipient, t types.EmailTemplate, cfg types.DeliveryConfig) types.DeliveryResult

func (f strategyFunc) Send(ctx context.Context, r types.Recipient, t types.EmailTemplate, cfg types.DeliveryConfig) types.DeliveryResult {
	return f(ctx, r, t, cfg)
}
