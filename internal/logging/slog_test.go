package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func newTestLogger(t *testing.T, level slog.Level) (*SlogLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level})
	return NewSlogLogger(slog.New(h)), &buf
}

func assertContains(t *testing.T, out string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Fatalf("expected %q in output:\n%s", w, out)
		}
	}
}

func TestSlogLogger_Levels(t *testing.T) {
	log, buf := newTestLogger(t, slog.LevelDebug)
	ctx := context.Background()

	log.Debug(ctx, "frame read", "frame", 12)
	log.Info(ctx, "login attempt finished", "status", "SUCCESS")
	log.Warn(ctx, "retrain after delete failed", "users", 0)
	log.Error(ctx, "audit write failed", "action", "LOGIN_FAIL")

	assertContains(t, buf.String(),
		"level=DEBUG", "frame=12",
		"level=INFO", "status=SUCCESS",
		"level=WARN", "users=0",
		"level=ERROR", "action=LOGIN_FAIL")
}

func TestSlogLogger_BelowLevelDropped(t *testing.T) {
	log, buf := newTestLogger(t, slog.LevelInfo)
	ctx := ContextWith(context.Background(), "attempt_id", "a-1")

	log.Debug(ctx, "frame read")
	if buf.Len() != 0 {
		t.Fatalf("debug record written at info level:\n%s", buf.String())
	}
}

func TestSlogLogger_With(t *testing.T) {
	log, buf := newTestLogger(t, slog.LevelInfo)

	log.With("module", "grpc_server").Info(context.Background(), "Starting gRPC server", "address", ":50051")

	assertContains(t, buf.String(), "module=grpc_server", `msg="Starting gRPC server"`, "address=:50051")
}

func TestSlogLogger_ContextFields(t *testing.T) {
	log, buf := newTestLogger(t, slog.LevelInfo)

	ctx := ContextWith(context.Background(), "attempt_id", "a-7")
	ctx = ContextWith(ctx, "user", "alice")
	log.Info(ctx, "pin ok", "tries", 1)

	assertContains(t, buf.String(), "attempt_id=a-7", "user=alice", "tries=1")
}
