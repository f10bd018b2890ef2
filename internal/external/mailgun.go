package external

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"recruitmail/internal/types"
)

const mailgunAPIBase = "https://api.mailgun.net"

// mailgunUser is the fixed basic-auth username; the API key is the password.
const mailgunUser = "api"

// MailgunClientConfig holds the configuration for creating a MailgunClient.
//
// Domain is operator configuration and is not editable per session. It may be
// the YOUR_DOMAIN placeholder, in which case Mailgun rejects every send.
type MailgunClientConfig struct {
	BaseURL string
	Domain  string
	Logger  *slog.Logger
}

// MailgunClient posts single-recipient plain-text mail to the Mailgun
// messages API through BaseClient.
type MailgunClient struct {
	base     *BaseClient
	endpoint string
	logger   *slog.Logger
}

// NewMailgunClient creates a MailgunClient on top of base.
func NewMailgunClient(base *BaseClient, cfg MailgunClientConfig) *MailgunClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = mailgunAPIBase
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &MailgunClient{
		base:     base,
		endpoint: fmt.Sprintf("%s/v3/%s/messages", strings.TrimSuffix(baseURL, "/"), url.PathEscape(cfg.Domain)),
		logger:   logger,
	}
}

// Send transmits msg as multipart form fields (from, to, subject, text) with
// basic auth api:apiKey and returns the success text. A non-2xx answer maps
// to ErrCodeUpstreamEmailProvider carrying Mailgun's "message" field.
func (m *MailgunClient) Send(ctx context.Context, apiKey types.SecretString, msg Message) (string, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"from", fmt.Sprintf("%s <%s>", msg.FromName, msg.From)},
		{"to", msg.To},
		{"subject", msg.Subject},
		{"text", msg.Text},
	}
	for _, f := range fields {
		if err := form.WriteField(f[0], f[1]); err != nil {
			return "", types.NewAppError(types.ErrCodeInternalUnexpected, "failed to build Mailgun form", err)
		}
	}
	if err := form.Close(); err != nil {
		return "", types.NewAppError(types.ErrCodeInternalUnexpected, "failed to build Mailgun form", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, &buf)
	if err != nil {
		return "", types.NewAppError(
			types.ErrCodeInternalUnexpected,
			"failed to create Mailgun messages request",
			err,
		)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.SetBasicAuth(mailgunUser, apiKey.Unmask())

	resp, err := m.base.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if successful(resp) {
		return MessageSent, nil
	}

	var mgErr struct {
		Message string `json:"message"`
	}
	if err := decodeBody(resp, &mgErr); err != nil {
		return "", malformed(types.ErrCodeUpstreamEmailProvider, resp.StatusCode, err)
	}
	m.logger.Debug("mailgun rejected message",
		"status", resp.StatusCode,
		"detail", mgErr.Message,
	)
	return "", rejection(types.ErrCodeUpstreamEmailProvider, resp.StatusCode, mgErr.Message)
}
