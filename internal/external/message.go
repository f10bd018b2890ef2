package external

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"recruitmail/internal/types"
)

// Outcome texts shared by every provider client.
const (
	MessageSent   = "Email sent successfully"
	MessageFailed = "Failed to send email"
)

// DetailStatusCode is the AppError detail key holding the provider's HTTP
// status on a rejection.
const DetailStatusCode = "status_code"

// Message is one personalized plain-text email addressed to one recipient.
type Message struct {
	To       string
	ToName   string
	From     string
	FromName string
	Subject  string
	Text     string
}

// rejection builds the error for a provider that answered with a non-2xx
// status. message is the provider's own explanation, or MessageFailed.
func rejection(code types.ErrorCode, status int, message string) *types.AppError {
	if message == "" {
		message = MessageFailed
	}
	return types.NewAppErrorWithDetails(code, message, nil, map[string]any{
		DetailStatusCode: status,
	})
}

// Rejection reports whether err is a provider rejection and, if so, returns
// the message to show the user.
func Rejection(err error) (string, bool) {
	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		return "", false
	}
	if _, ok := appErr.Details[DetailStatusCode]; !ok {
		return "", false
	}
	return appErr.Message, true
}

// Cause returns the innermost diagnostic of a transport failure.
func Cause(err error) string {
	var appErr *types.AppError
	if errors.As(err, &appErr) && appErr.Err != nil {
		return appErr.Err.Error()
	}
	return err.Error()
}

// decodeBody reads a bounded JSON response into v. An empty or non-JSON body
// is an error.
func decodeBody(resp *http.Response, v any) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

// malformed builds the error for a provider answer whose body could not be
// decoded. It carries no status detail, so callers report it the way they
// report a transport failure.
func malformed(code types.ErrorCode, status int, err error) *types.AppError {
	return types.NewAppError(code, fmt.Sprintf("unreadable provider response (status %d)", status), err)
}

func successful(resp *http.Response) bool {
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
