package external

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"recruitmail/internal/types"
)

// DefaultRelayURL is where the companion relay listens by default.
const DefaultRelayURL = "http://localhost:3001/api/send-email"

// RelayClientConfig holds the configuration for creating a RelayClient.
type RelayClientConfig struct {
	URL    string
	Logger *slog.Logger
}

// RelayClient hands a message plus the sender's SMTP credentials to the
// relay process, which performs the SMTP handshake itself. The relay is an
// external collaborator; when it is not running the call fails like any other
// network error.
type RelayClient struct {
	base   *BaseClient
	url    string
	logger *slog.Logger
}

// NewRelayClient creates a RelayClient on top of base.
func NewRelayClient(base *BaseClient, cfg RelayClientConfig) *RelayClient {
	u := cfg.URL
	if u == "" {
		u = DefaultRelayURL
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &RelayClient{base: base, url: u, logger: logger}
}

// relayRequest is the relay's JSON contract.
type relayRequest struct {
	To         string          `json:"to"`
	ToName     string          `json:"toName"`
	From       string          `json:"from"`
	FromName   string          `json:"fromName"`
	Subject    string          `json:"subject"`
	Body       string          `json:"body"`
	Service    string          `json:"service"`
	SMTPConfig relaySMTPConfig `json:"smtpConfig"`
}

type relaySMTPConfig struct {
	Host   string `json:"host"`
	Port   int    `json:"port"`
	Secure bool   `json:"secure"`
	User   string `json:"user"`
	Pass   string `json:"pass"`
}

type relayResponse struct {
	Message string `json:"message"`
}

// Send posts msg and creds to the relay. On 2xx the relay's "message" is
// returned (MessageSent when absent); otherwise the error is
// ErrCodeUpstreamRelay carrying the relay's "message". The relay always
// answers JSON, so a body that does not decode fails the send whatever the
// status.
func (c *RelayClient) Send(ctx context.Context, creds types.SMTPCredentials, msg Message) (string, error) {
	body, err := json.Marshal(relayRequest{
		To:       msg.To,
		ToName:   msg.ToName,
		From:     msg.From,
		FromName: msg.FromName,
		Subject:  msg.Subject,
		Body:     msg.Text,
		Service:  string(types.BackendRelay),
		SMTPConfig: relaySMTPConfig{
			Host:   creds.Host,
			Port:   creds.Port,
			Secure: creds.Secure,
			User:   creds.User,
			Pass:   creds.Pass.Unmask(),
		},
	})
	if err != nil {
		return "", types.NewAppError(types.ErrCodeInternalUnexpected, "failed to marshal relay payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", types.NewAppError(types.ErrCodeInternalUnexpected, "failed to create relay request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.base.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out relayResponse
	if err := decodeBody(resp, &out); err != nil {
		return "", malformed(types.ErrCodeUpstreamRelay, resp.StatusCode, err)
	}

	if successful(resp) {
		if out.Message == "" {
			return MessageSent, nil
		}
		return out.Message, nil
	}

	c.logger.Debug("relay rejected message",
		"status", resp.StatusCode,
		"detail", out.Message,
	)
	return "", rejection(types.ErrCodeUpstreamRelay, resp.StatusCode, out.Message)
}
