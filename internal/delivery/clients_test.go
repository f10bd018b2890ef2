package delivery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recruitmail/internal/config"
	"recruitmail/internal/external"
	"recruitmail/internal/types"
)

// TestNewClientSet_EndToEnd drives each strategy against a fake provider
// built from operator configuration.
func TestNewClientSet_EndToEnd(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		assert.Equal(t, "RecruitMail-Test", r.Header.Get("User-Agent"))
		switch r.URL.Path {
		case "/v3/mail/send":
			w.WriteHeader(http.StatusAccepted)
		case "/v3/mg.example.com/messages":
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"message": "Invalid private key"})
		case "/relay":
			json.NewEncoder(w).Encode(map[string]string{"message": "Email sent via SMTP"})
		}
	}))
	defer server.Close()

	clients := NewClientSet(config.DeliveryConfig{
		SendGridURL:   server.URL,
		MailgunURL:    server.URL,
		MailgunDomain: "mg.example.com",
		RelayURL:      server.URL + "/relay",
		Timeout:       5 * time.Second,
		UserAgent:     "RecruitMail-Test",
	}, nil)
	reg := NewDefaultRegistry(clients, nil)

	cfg := apiConfig
	cfg.SMTP = types.SMTPCredentials{Host: "smtp.gmail.com", Port: 587, User: "me", Pass: "pw"}

	want := map[types.Backend]types.DeliveryResult{
		types.BackendSendGrid: {Success: true, Message: "Email sent successfully"},
		types.BackendMailgun:  {Success: false, Message: "Invalid private key"},
		types.BackendRelay:    {Success: true, Message: "Email sent via SMTP"},
	}
	for _, b := range types.Backends {
		cfg.Backend = b
		assert.Equal(t, want[b], reg.Send(context.Background(), ana, tpl, cfg), "backend %s", b)
	}

	require.Len(t, paths, 3)
}

func TestNewClientSet_BreakerProbes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	clients := NewClientSet(config.DeliveryConfig{
		SendGridURL:      server.URL,
		MailgunURL:       server.URL,
		MailgunDomain:    "mg.example.com",
		RelayURL:         server.URL,
		Timeout:          5 * time.Second,
		BreakerThreshold: 2,
	}, nil)

	require.Len(t, clients.Probes, 3)
	names := make([]string, len(clients.Probes))
	for i, p := range clients.Probes {
		names[i] = p.Name()
		assert.NoError(t, p.Check(context.Background()))
	}
	assert.Equal(t, []string{"sendgrid", "mailgun", "relay"}, names)

	for i := 0; i < 2; i++ {
		_, _ = clients.SendGrid.Send(context.Background(), "SG.key", external.Message{To: "ana@acme.io", From: "me@example.com", Subject: "s", Text: "b"})
	}

	assert.Error(t, clients.Probes[0].Check(context.Background()), "sendgrid breaker should be open")
	assert.NoError(t, clients.Probes[1].Check(context.Background()), "mailgun breaker is independent")
}

func TestNewClientSet_UnreadableRelayAnswerIsBackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>proxy error page</html>"))
	}))
	defer server.Close()

	clients := NewClientSet(config.DeliveryConfig{
		SendGridURL:   server.URL,
		MailgunURL:    server.URL,
		MailgunDomain: "mg.example.com",
		RelayURL:      server.URL,
		Timeout:       5 * time.Second,
	}, nil)
	reg := NewDefaultRegistry(clients, nil)

	cfg := apiConfig
	cfg.Backend = types.BackendRelay
	cfg.SMTP = types.SMTPCredentials{Host: "smtp.gmail.com", Port: 587, User: "me", Pass: "pw"}

	res := reg.Send(context.Background(), ana, tpl, cfg)
	assert.False(t, res.Success)
	assert.True(t, strings.HasPrefix(res.Message, "Backend error: invalid character '<'"), res.Message)
}
