package delivery

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recruitmail/internal/external"
	"recruitmail/internal/types"
)

var (
	ana = types.Recipient{ID: 0, Name: "Ana Ruiz", Email: "ana@acme.io", Company: "Acme", Position: "Engineer"}
	tpl = types.EmailTemplate{
		Subject: "Application for {position} Position",
		Body:    "Dear {name}, I admire {company}.",
	}
	apiConfig = types.DeliveryConfig{
		SenderName:  "Job Seeker",
		SenderEmail: "me@example.com",
		Backend:     types.BackendSendGrid,
		APIKey:      "SG.key",
	}
)

func TestSendGrid_PersonalizesAndPassesKey(t *testing.T) {
	var gotKey types.SecretString
	client := &mockAPISender{SendFunc: func(_ context.Context, key types.SecretString, _ external.Message) (string, error) {
		gotKey = key
		return external.MessageSent, nil
	}}

	res := (&SendGrid{Client: client}).Send(context.Background(), ana, tpl, apiConfig)

	assert.Equal(t, types.DeliveryResult{Success: true, Message: "Email sent successfully"}, res)
	assert.Equal(t, "SG.key", gotKey.Unmask())
	require.Len(t, client.calls, 1)
	assert.Equal(t, external.Message{
		To:       "ana@acme.io",
		ToName:   "Ana Ruiz",
		From:     "me@example.com",
		FromName: "Job Seeker",
		Subject:  "Application for Engineer Position",
		Text:     "Dear Ana Ruiz, I admire Acme.",
	}, client.calls[0])
}

func TestStrategies_FailureMessages(t *testing.T) {
	transport := types.NewAppError(types.ErrCodeUpstreamUnavailable, "upstream request failed",
		errors.New(`Post "http://localhost:3001/api/send-email": dial tcp 127.0.0.1:3001: connect: connection refused`))
	rejected := types.NewAppErrorWithDetails(types.ErrCodeUpstreamEmailProvider, "The from address does not match a verified Sender Identity", nil,
		map[string]any{external.DetailStatusCode: http.StatusForbidden})

	failAPI := func(err error) *mockAPISender {
		return &mockAPISender{SendFunc: func(context.Context, types.SecretString, external.Message) (string, error) {
			return "", err
		}}
	}
	failRelay := func(err error) *mockRelaySender {
		return &mockRelaySender{SendFunc: func(context.Context, types.SMTPCredentials, external.Message) (string, error) {
			return "", err
		}}
	}

	tests := []struct {
		name     string
		strategy Strategy
		want     string
	}{
		{"sendgrid rejection", &SendGrid{Client: failAPI(rejected)}, "The from address does not match a verified Sender Identity"},
		{"sendgrid network", &SendGrid{Client: failAPI(transport)}, `Network error: Post "http://localhost:3001/api/send-email": dial tcp 127.0.0.1:3001: connect: connection refused`},
		{"mailgun network", &Mailgun{Client: failAPI(errors.New("timeout"))}, "Network error: timeout"},
		{"relay network", &Relay{Client: failRelay(transport)}, `Backend error: Post "http://localhost:3001/api/send-email": dial tcp 127.0.0.1:3001: connect: connection refused`},
		{"relay rejection", &Relay{Client: failRelay(rejected)}, "The from address does not match a verified Sender Identity"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			res := tt.strategy.Send(context.Background(), ana, tpl, apiConfig)
			assert.False(t, res.Success)
			assert.Equal(t, tt.want, res.Message)
		})
	}
}

func TestRelay_PassesCredentials(t *testing.T) {
	cfg := apiConfig
	cfg.Backend = types.BackendRelay
	cfg.SMTP = types.SMTPCredentials{Host: "smtp.gmail.com", Port: 587, User: "me", Pass: "pw"}

	var got types.SMTPCredentials
	client := &mockRelaySender{SendFunc: func(_ context.Context, creds types.SMTPCredentials, _ external.Message) (string, error) {
		got = creds
		return "Queued by relay", nil
	}}

	res := (&Relay{Client: client}).Send(context.Background(), ana, tpl, cfg)

	assert.Equal(t, types.DeliveryResult{Success: true, Message: "Queued by relay"}, res)
	assert.Equal(t, cfg.SMTP, got)
}

func TestRegistry_Dispatch(t *testing.T) {
	var hit []types.Backend
	reg := NewRegistry(nil)
	for _, b := range types.Backends {
		b := b
		reg.Register(b, strategyFunc(func(context.Context, types.Recipient, types.EmailTemplate, types.DeliveryConfig) types.DeliveryResult {
			hit = append(hit, b)
			return types.DeliveryResult{Success: true, Message: string(b)}
		}))
	}

	for _, b := range types.Backends {
		cfg := apiConfig
		cfg.Backend = b
		res := reg.Send(context.Background(), ana, tpl, cfg)
		assert.True(t, res.Success)
		assert.Equal(t, string(b), res.Message)
	}
	assert.Equal(t, types.Backends, hit)
}

func TestRegistry_UnknownBackend(t *testing.T) {
	reg := NewRegistry(nil)
	cfg := apiConfig
	cfg.Backend = "carrier-pigeon"

	res := reg.Send(context.Background(), ana, tpl, cfg)
	assert.Equal(t, types.DeliveryResult{Success: false, Message: "Invalid email service"}, res)
}

func TestRegistry_RecoversPanic(t *testing.T) {
	reg := NewRegistry(nil)
	reg.Register(types.BackendSendGrid, strategyFunc(func(context.Context, types.Recipient, types.EmailTemplate, types.DeliveryConfig) types.DeliveryResult {
		panic("nil client")
	}))

	res := reg.Send(context.Background(), ana, tpl, apiConfig)
	assert.Equal(t, types.DeliveryResult{Success: false, Message: external.MessageFailed}, res)
}

func TestNewDefaultRegistry_RegistersAllBackends(t *testing.T) {
	reg := NewDefaultRegistry(ClientSet{}, nil)
	for _, b := range types.Backends {
		_, ok := reg.Get(b)
		assert.True(t, ok, "backend %s", b)
	}
}

func TestRedactEmail(t *testing.T) {
	tests := []struct{ in, want string }{
		{"john@gmail.com", "j***@gmail.com"},
		{"@gmail.com", "***@gmail.com"},
		{"no-at-sign", "***"},
		{"", ""},
		{"élodie@exemple.fr", "é***@exemple.fr"},
		{"山田@example.jp", "山***@example.jp"},
	}
	for _, tt := range tests {
		got := RedactEmail(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.True(t, utf8.ValidString(got), "redacted %q is not valid UTF-8", tt.in)
	}
}
