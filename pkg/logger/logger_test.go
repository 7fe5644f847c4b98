package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestContextFieldsFlowThroughLogger(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "api-test", Output: &buf})

	ctx := logg.WithFields(context.Background(), map[string]any{"order_id": "ord-1"})
	ctx = logg.WithRequestID(ctx, "req-1")
	logg.Info(ctx, "checkout committed")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v (raw %q)", err, buf.String())
	}
	if line["service"] != "api-test" {
		t.Fatalf("expected service field, got %v", line["service"])
	}
	if line["order_id"] != "ord-1" || line["request_id"] != "req-1" {
		t.Fatalf("expected context fields on the line, got %v", line)
	}
	if line["message"] != "checkout committed" {
		t.Fatalf("unexpected message: %v", line["message"])
	}
}

func TestWarnStackOption(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "api-test", Output: &buf, WarnStack: true})

	logg.Warn(context.Background(), "lock contention")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if _, ok := line["stack"]; !ok {
		t.Fatalf("expected a stack on warnings when WarnStack is set")
	}
}
