package sender

import (
	"fmt"
	"regexp"

	"recruitmail/internal/types"
)

// senderEmailPattern is the only address check performed anywhere.
var senderEmailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// DetailOpenSettings marks precondition failures the user fixes in the
// settings panel.
const DetailOpenSettings = "open_settings"

// Completion text shown once a pass has finished.
const CompletedMessage = "Email sending completed! Check the status column for results."

func settingsError(code types.ErrorCode, msg string) *types.AppError {
	return types.NewAppErrorWithDetails(code, msg, nil, map[string]any{DetailOpenSettings: true})
}

// Check validates the preconditions of a send pass in order and returns the
// first failure. It performs no I/O and changes no state.
func Check(selected []types.Recipient, cfg types.DeliveryConfig) error {
	if len(selected) == 0 {
		return types.NewAppError(
			types.ErrCodeValidationEmptySelection,
			"Please select at least one recruiter",
			nil,
		)
	}

	if cfg.SenderEmail == "" || cfg.SenderName == "" {
		return settingsError(types.ErrCodeValidationSenderMissing,
			"Please configure your sender information in Settings")
	}

	if !senderEmailPattern.MatchString(cfg.SenderEmail) {
		return settingsError(types.ErrCodeValidationInvalidEmail,
			"Please enter a valid sender email address")
	}

	if cfg.Backend != types.BackendRelay && cfg.APIKey == "" {
		return settingsError(types.ErrCodeValidationMissingCredentials,
			fmt.Sprintf("Please enter your %s API key in Settings", cfg.Backend.DisplayName()))
	}

	if cfg.Backend == types.BackendRelay &&
		(cfg.SMTP.Host == "" || cfg.SMTP.User == "" || cfg.SMTP.Pass == "") {
		return settingsError(types.ErrCodeValidationMissingCredentials,
			"Please configure your SMTP settings (Host, User, Password) in Settings")
	}

	return nil
}

// Prompt is the confirmation question asked before a pass.
func Prompt(n int, backend types.Backend) string {
	noun := "emails"
	if n == 1 {
		noun = "email"
	}
	return fmt.Sprintf("You are about to send %d %s using %s. Continue?", n, noun, backend)
}
