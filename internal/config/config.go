// Package config defines the process configuration for the recruiter mailer.
// Configuration is loaded once at start-up and is immutable thereafter.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> struct tag defaults (Lowest)
//
// Session-level settings (sender identity, backend choice, credentials) are
// edited by the user in the page. The values here only pre-fill new sessions
// and describe where the providers live.
package config

import (
	"time"

	"recruitmail/internal/types"
)

// SecretString is an alias for types.SecretString so that config dumps never
// leak credentials.
type SecretString = types.SecretString

// Config is the top-level configuration struct.
type Config struct {
	// System Metadata
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"recruitmail"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Server        ServerConfig
	Delivery      DeliveryConfig
	Defaults      SessionDefaults
	Observability ObservabilityConfig

	// Build Metadata (Injected via ldflags, not Env)
	Build BuildInfo
}

// ServerConfig holds HTTP server and session settings.
type ServerConfig struct {
	Port               string        `envconfig:"PORT" default:"8080" validate:"required,numeric"`
	RequestTimeout     time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	SessionIdleTTL     time.Duration `envconfig:"SESSION_IDLE_TTL" default:"12h" validate:"gt=0"`
	SessionSweepEvery  time.Duration `envconfig:"SESSION_SWEEP_INTERVAL" default:"10m" validate:"gt=0"`
	CorsAllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// DeliveryConfig describes the provider endpoints and pacing of a send pass.
//
// MailgunDomain is operator-only: the page never exposes it. When unset it
// stays the literal YOUR_DOMAIN placeholder and Mailgun sends fail upstream.
type DeliveryConfig struct {
	SendGridURL      string        `envconfig:"SENDGRID_API_URL" default:"https://api.sendgrid.com" validate:"required,url"`
	MailgunURL       string        `envconfig:"MAILGUN_API_URL" default:"https://api.mailgun.net" validate:"required,url"`
	MailgunDomain    string        `envconfig:"MAILGUN_DOMAIN" default:"YOUR_DOMAIN" validate:"required"`
	RelayURL         string        `envconfig:"RELAY_URL" default:"http://localhost:3001/api/send-email" validate:"required,url"`
	Timeout          time.Duration `envconfig:"DELIVERY_TIMEOUT" default:"15s" validate:"gt=0"`
	SendInterval     time.Duration `envconfig:"SEND_INTERVAL" default:"1s" validate:"gte=0"`
	BreakerThreshold uint32        `envconfig:"BREAKER_THRESHOLD" default:"0"`
	UserAgent        string        `envconfig:"DELIVERY_USER_AGENT" default:"RecruitMail/1.0"`
}

// MailgunDomainPlaceholder is the domain segment used when the operator has
// not configured one.
const MailgunDomainPlaceholder = "YOUR_DOMAIN"

// MailgunDomainConfigured reports whether the operator supplied a real domain.
func (d DeliveryConfig) MailgunDomainConfigured() bool {
	return d.MailgunDomain != "" && d.MailgunDomain != MailgunDomainPlaceholder
}

// SessionDefaults pre-fills the delivery settings of every new session.
type SessionDefaults struct {
	SenderName  string       `envconfig:"DEFAULT_SENDER_NAME"`
	SenderEmail string       `envconfig:"DEFAULT_SENDER_EMAIL" validate:"omitempty,email"`
	Backend     string       `envconfig:"DEFAULT_BACKEND" default:"sendgrid" validate:"oneof=sendgrid mailgun smtp"`
	APIKey      SecretString `envconfig:"DEFAULT_API_KEY"`
	SMTPHost    string       `envconfig:"SMTP_HOST" default:"smtp.gmail.com"`
	SMTPPort    int          `envconfig:"SMTP_PORT" default:"587" validate:"min=1,max=65535"`
	SMTPSecure  bool         `envconfig:"SMTP_SECURE" default:"false"`
	SMTPUser    string       `envconfig:"SMTP_USER"`
	SMTPPass    SecretString `envconfig:"SMTP_PASS"`
}

// DeliveryDefaults converts the defaults into a session delivery config.
func (d SessionDefaults) DeliveryDefaults() types.DeliveryConfig {
	return types.DeliveryConfig{
		SenderName:  d.SenderName,
		SenderEmail: d.SenderEmail,
		Backend:     types.Backend(d.Backend),
		APIKey:      d.APIKey,
		SMTP: types.SMTPCredentials{
			Host:   d.SMTPHost,
			Port:   d.SMTPPort,
			Secure: d.SMTPSecure,
			User:   d.SMTPUser,
			Pass:   d.SMTPPass,
		},
	}
}

// ObservabilityConfig holds telemetry settings. CloudWatch publishing is off
// unless METRICS_ENABLED is set.
type ObservabilityConfig struct {
	MetricsEnabled  bool   `envconfig:"METRICS_ENABLED" default:"false"`
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"RecruiterMailer"`
	AWSRegion       string `envconfig:"AWS_REGION" default:"us-east-1"`
	AWSEndpointURL  string `envconfig:"AWS_ENDPOINT_URL" validate:"omitempty,url"`
}

// BuildInfo holds build-time metadata injected via ldflags.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures.
type ConfigErrorType string

const (
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a failure when parsing environment variable values
	// into their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
