package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recruitmail/internal/types"
)

// TestSecretStringAlias verifies that config.SecretString is the same type
// as types.SecretString and retains its redaction behavior.
func TestSecretStringAlias(t *testing.T) {
	secret := SecretString("my-api-key")

	assert.Equal(t, types.RedactedPlaceholder, secret.String())
	assert.Equal(t, types.RedactedPlaceholder, fmt.Sprintf("%v", secret))
	assert.Equal(t, "my-api-key", secret.Unmask())

	var typesSecret types.SecretString = "test"
	var configSecret SecretString = typesSecret
	assert.Equal(t, typesSecret, configSecret)
}

func TestConfigJSONDoesNotLeakSecrets(t *testing.T) {
	cfg := Config{
		Defaults: SessionDefaults{
			APIKey:   "SG.super-secret",
			SMTPPass: "hunter2",
		},
	}

	out, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "SG.super-secret")
	assert.NotContains(t, string(out), "hunter2")
}

func TestSessionDefaultsDeliveryDefaults(t *testing.T) {
	d := SessionDefaults{
		SenderName:  "Ana Lima",
		SenderEmail: "ana@example.com",
		Backend:     "mailgun",
		APIKey:      "key-123",
		SMTPHost:    "smtp.gmail.com",
		SMTPPort:    587,
		SMTPUser:    "ana",
		SMTPPass:    "pw",
	}

	got := d.DeliveryDefaults()

	assert.Equal(t, types.BackendMailgun, got.Backend)
	assert.Equal(t, "Ana Lima", got.SenderName)
	assert.Equal(t, "ana@example.com", got.SenderEmail)
	assert.Equal(t, "key-123", got.APIKey.Unmask())
	assert.Equal(t, types.SMTPCredentials{Host: "smtp.gmail.com", Port: 587, User: "ana", Pass: "pw"}, got.SMTP)
}

func TestMailgunDomainConfigured(t *testing.T) {
	assert.False(t, DeliveryConfig{}.MailgunDomainConfigured())
	assert.False(t, DeliveryConfig{MailgunDomain: MailgunDomainPlaceholder}.MailgunDomainConfigured())
	assert.True(t, DeliveryConfig{MailgunDomain: "mg.example.com"}.MailgunDomainConfigured())
}

func TestConfigErrorFormatting(t *testing.T) {
	inner := errors.New("boom")

	withCause := &ConfigError{Type: ErrValidation, Message: "bad config", Err: inner}
	assert.Equal(t, "[VALIDATION_FAILED] bad config: boom", withCause.Error())
	assert.ErrorIs(t, withCause, inner)

	bare := &ConfigError{Type: ErrParsing, Message: "bad value"}
	assert.Equal(t, "[PARSING_FAILED] bad value", bare.Error())
}
