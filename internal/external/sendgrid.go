package external

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"recruitmail/internal/types"
)

// sendGridAPIBase is the default SendGrid API base URL.
// Overridable in tests via SendGridClientConfig.BaseURL.
const sendGridAPIBase = "https://api.sendgrid.com"

// SendGridClientConfig holds the configuration for creating a SendGridClient.
// The API key is not part of it: each session supplies its own per call.
type SendGridClientConfig struct {
	BaseURL string // Override for testing; defaults to sendGridAPIBase
	Logger  *slog.Logger
}

// SendGridClient posts single-recipient plain-text mail to the SendGrid v3
// Mail Send API through BaseClient.
type SendGridClient struct {
	base    *BaseClient
	baseURL string
	logger  *slog.Logger
}

// NewSendGridClient creates a SendGridClient on top of base.
func NewSendGridClient(base *BaseClient, cfg SendGridClientConfig) *SendGridClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = sendGridAPIBase
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &SendGridClient{
		base:    base,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
	}
}

// Send transmits msg with the bearer apiKey and returns the success text.
//
// Error mapping:
//   - transport failure or open breaker -> AppError from BaseClient
//   - any non-2xx -> ErrCodeUpstreamEmailProvider carrying errors[0].message
//     (or MessageFailed) and the status code in Details
//   - non-2xx with a body that is not JSON -> ErrCodeUpstreamEmailProvider
//     without status detail, reported like a transport failure
func (s *SendGridClient) Send(ctx context.Context, apiKey types.SecretString, msg Message) (string, error) {
	body, err := json.Marshal(s.buildMailPayload(msg))
	if err != nil {
		return "", types.NewAppError(
			types.ErrCodeInternalUnexpected,
			"failed to marshal SendGrid mail payload",
			err,
		)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v3/mail/send", bytes.NewReader(body))
	if err != nil {
		return "", types.NewAppError(
			types.ErrCodeInternalUnexpected,
			"failed to create SendGrid mail send request",
			err,
		)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey.Unmask())

	resp, err := s.base.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if successful(resp) {
		return MessageSent, nil
	}
	return "", s.handleErrorResponse(resp)
}

// sendGridMailPayload is the v3 mail/send request body.
type sendGridMailPayload struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridAddress           `json:"from"`
	Content          []sendGridContent         `json:"content"`
}

type sendGridPersonalization struct {
	To      []sendGridAddress `json:"to"`
	Subject string            `json:"subject"`
}

type sendGridAddress struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

func (s *SendGridClient) buildMailPayload(msg Message) sendGridMailPayload {
	return sendGridMailPayload{
		Personalizations: []sendGridPersonalization{{
			To:      []sendGridAddress{{Email: msg.To, Name: msg.ToName}},
			Subject: msg.Subject,
		}},
		From:    sendGridAddress{Email: msg.From, Name: msg.FromName},
		Content: []sendGridContent{{Type: "text/plain", Value: msg.Text}},
	}
}

// sendGridErrorResponse represents the JSON error body returned by SendGrid.
type sendGridErrorResponse struct {
	Errors []sendGridErrorDetail `json:"errors"`
}

type sendGridErrorDetail struct {
	Message string `json:"message"`
	Field   string `json:"field"`
	Help    string `json:"help"`
}

func (s *SendGridClient) handleErrorResponse(resp *http.Response) error {
	var sgErr sendGridErrorResponse
	if err := decodeBody(resp, &sgErr); err != nil {
		return malformed(types.ErrCodeUpstreamEmailProvider, resp.StatusCode, err)
	}

	message := ""
	if len(sgErr.Errors) > 0 {
		message = sgErr.Errors[0].Message
	}

	s.logger.Debug("sendgrid rejected message",
		"status", resp.StatusCode,
		"detail", message,
	)
	return rejection(types.ErrCodeUpstreamEmailProvider, resp.StatusCode, message)
}
