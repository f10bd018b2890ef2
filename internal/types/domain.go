package types

import "time"

// Recipient is one row of uploaded contact data. ID is the 0-based sequence
// index within the upload and is unique for the lifetime of the collection.
// Missing fields are empty strings.
type Recipient struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Company  string `json:"company"`
	Position string `json:"position"`
}

// EmailTemplate is the user-edited subject and body. Placeholder syntax is not
// validated.
type EmailTemplate struct {
	Subject string `json:"subject" validate:"max=998,no_crlf"`
	Body    string `json:"body" validate:"max=100000"`
}

// RenderedEmail is a template personalized for one recipient.
type RenderedEmail struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// SMTPCredentials is the credential set forwarded to the relay, which performs
// the SMTP handshake on the sender's behalf.
type SMTPCredentials struct {
	Host   string       `json:"host" validate:"max=255"`
	Port   int          `json:"port" validate:"min=0,max=65535"`
	Secure bool         `json:"secure"`
	User   string       `json:"user" validate:"max=320"`
	Pass   SecretString `json:"pass"`
}

// DeliveryConfig is the per-session sender identity and backend selection.
// APIKey serves the two HTTP API backends; SMTP serves the relay backend.
type DeliveryConfig struct {
	SenderName  string          `json:"sender_name" validate:"max=200,no_crlf"`
	SenderEmail string          `json:"sender_email" validate:"max=320,no_crlf"`
	Backend     Backend         `json:"backend" validate:"required,backend"`
	APIKey      SecretString    `json:"api_key"`
	SMTP        SMTPCredentials `json:"smtp"`
}

// Merge returns next with any redacted secrets replaced by the values held in
// c, so that a page echoing a redacted config back does not wipe credentials.
func (c DeliveryConfig) Merge(next DeliveryConfig) DeliveryConfig {
	next.APIKey = next.APIKey.KeepIfRedacted(c.APIKey)
	next.SMTP.Pass = next.SMTP.Pass.KeepIfRedacted(c.SMTP.Pass)
	return next
}

// SendStatus is the delivery state of one recipient. CompletedAt is set only
// on the transition into a terminal state.
type SendStatus struct {
	State       SendState  `json:"state"`
	Message     string     `json:"message,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// DeliveryResult is the outcome every delivery strategy reports, regardless of
// backend.
type DeliveryResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SendSummary describes one completed send pass.
type SendSummary struct {
	Backend    Backend   `json:"backend"`
	Total      int       `json:"total"`
	Sent       int       `json:"sent"`
	Failed     int       `json:"failed"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
