package types

// Backend identifies the delivery backend a session sends through. Exactly one
// is active at a time; the fields of the others are kept but unused.
type Backend string

const (
	BackendSendGrid Backend = "sendgrid"
	BackendMailgun  Backend = "mailgun"
	BackendRelay    Backend = "smtp"
)

// Backends lists every supported backend in display order.
var Backends = []Backend{BackendSendGrid, BackendMailgun, BackendRelay}

// Valid reports whether b is a known backend.
func (b Backend) Valid() bool {
	switch b {
	case BackendSendGrid, BackendMailgun, BackendRelay:
		return true
	}
	return false
}

// DisplayName is the provider name shown to the operator.
func (b Backend) DisplayName() string {
	switch b {
	case BackendSendGrid:
		return "SendGrid"
	case BackendMailgun:
		return "Mailgun"
	case BackendRelay:
		return "SMTP"
	}
	return string(b)
}

// RequiresAPIKey reports whether the backend authenticates with an API key
// rather than delegated SMTP credentials.
func (b Backend) RequiresAPIKey() bool {
	return b == BackendSendGrid || b == BackendMailgun
}

// SendState is the per-recipient delivery state. Transitions only move
// forward within a pass: not_sent -> sending -> sent | failed.
type SendState string

const (
	SendStateNotSent SendState = "not_sent"
	SendStateSending SendState = "sending"
	SendStateSent    SendState = "sent"
	SendStateFailed  SendState = "failed"
)

// Terminal reports whether the state ends a recipient's pass.
func (s SendState) Terminal() bool {
	return s == SendStateSent || s == SendStateFailed
}
