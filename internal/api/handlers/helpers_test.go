package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"recruitmail/internal/core"
	"recruitmail/internal/session"
	"recruitmail/internal/types"
)

// stubStrategy records sends and answers with SendFunc, or success.
type stubStrategy struct {
	mu       sync.Mutex
	sent     []string
	SendFunc func(r types.Recipient) types.DeliveryResult
}

func (s *stubStrategy) Send(_ context.Context, r types.Recipient, _ types.EmailTemplate, _ types.DeliveryConfig) types.DeliveryResult {
	s.mu.Lock()
	s.sent = append(s.sent, r.Email)
	s.mu.Unlock()
	if s.SendFunc != nil {
		return s.SendFunc(r)
	}
	return types.DeliveryResult{Success: true, Message: "Email sent successfully"}
}

func (s *stubStrategy) recipients() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func readyConfig() types.DeliveryConfig {
	return types.DeliveryConfig{
		SenderName:  "Job Seeker",
		SenderEmail: "me@example.com",
		Backend:     types.BackendSendGrid,
		APIKey:      "SG.secret",
		SMTP:        types.SMTPCredentials{Host: "smtp.gmail.com", Port: 587},
	}
}

type testEnv struct {
	router   http.Handler
	session  *session.Session
	strategy *stubStrategy
}

// newTestEnv mounts every handler under /v1 behind a middleware that pins
// one session, the way the session cookie would.
func newTestEnv(t *testing.T, defaults types.DeliveryConfig) *testEnv {
	t.Helper()
	strategy := &stubStrategy{}
	sess := session.New("test-session", session.Deps{
		Strategy: strategy,
		Defaults: defaults,
		Interval: time.Millisecond,
		Logger:   testLogger(),
	})

	v := core.NewValidator(testLogger())
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(session.WithSession(req.Context(), sess)))
		})
	})
	r.Route("/v1", func(r chi.Router) {
		NewSessionHandler(testLogger()).RegisterRoutes(r)
		NewRecipientHandler(v, testLogger()).RegisterRoutes(r)
		NewTemplateHandler(v, testLogger()).RegisterRoutes(r)
		NewConfigHandler(v, testLogger(), false).RegisterRoutes(r)
		NewSendHandler(context.Background(), testLogger()).RegisterRoutes(r)
	})

	return &testEnv{router: r, session: sess, strategy: strategy}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// decodeData unmarshals the data member of a success envelope into dst and
// returns the meta warnings.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) []string {
	t.Helper()
	var env struct {
		Data json.RawMessage    `json:"data"`
		Meta *core.ResponseMeta `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if dst != nil {
		require.NoError(t, json.Unmarshal(env.Data, dst))
	}
	if env.Meta == nil {
		return nil
	}
	return env.Meta.Warnings
}

func decodeErr(t *testing.T, rec *httptest.ResponseRecorder) core.ErrorDetail {
	t.Helper()
	var env core.APIErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env.Error
}

func sampleRecipients() []types.Recipient {
	return []types.Recipient{
		{ID: 0, Name: "Ana", Email: "ana@acme.io", Company: "Acme", Position: "Engineer"},
		{ID: 1, Name: "Bo", Email: "bo@corp.com", Company: "Corp", Position: "Designer"},
		{ID: 2, Name: "Cy", Email: "cy@start.up", Company: "StartUp", Position: "PM"},
	}
}
