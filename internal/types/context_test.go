package types

import (
	"context"
	"testing"
)

func TestWithRequestID_GetRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-abc-123")
	if got := GetRequestID(ctx); got != "req-abc-123" {
		t.Errorf("GetRequestID() = %q, want %q", got, "req-abc-123")
	}
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("GetRequestID() on empty context = %q, want empty", got)
	}
}

func TestWithSessionID_GetSessionID(t *testing.T) {
	ctx := WithSessionID(context.Background(), "sess-1")
	if got := GetSessionID(ctx); got != "sess-1" {
		t.Errorf("GetSessionID() = %q, want %q", got, "sess-1")
	}
	if got := GetSessionID(context.Background()); got != "" {
		t.Errorf("GetSessionID() on empty context = %q, want empty", got)
	}
}

func TestContextValues_DoNotInterfere(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req")
	ctx = WithSessionID(ctx, "sess")

	if GetRequestID(ctx) != "req" || GetSessionID(ctx) != "sess" {
		t.Errorf("values interfered: request=%q session=%q", GetRequestID(ctx), GetSessionID(ctx))
	}
}

func TestContextKeys_ArePrivate(t *testing.T) {
	// A plain string key with the same text must not collide.
	ctx := context.WithValue(context.Background(), "request_id", "spoofed") //nolint:staticcheck
	if got := GetRequestID(ctx); got != "" {
		t.Errorf("GetRequestID() read a foreign key: %q", got)
	}
}
