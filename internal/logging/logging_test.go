// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestErrKeyConstant(t *testing.T) {
	if ErrKey != "error" {
		t.Errorf("expected ErrKey to be 'error', got %q", ErrKey)
	}
}

func TestAppendCtx(t *testing.T) {
	ctx := AppendCtx(context.TODO(), slog.String("key1", "value1"))

	attrs, ok := ctx.Value(slogFields).([]slog.Attr)
	if !ok {
		t.Fatal("expected attributes in context")
	}
	if len(attrs) != 1 || attrs[0].Key != "key1" {
		t.Errorf("expected one attribute 'key1', got %v", attrs)
	}
}

func TestAppendCtx_SiblingsDoNotShareAttributes(t *testing.T) {
	parent := AppendCtx(context.Background(), slog.String("parent", "p"))
	parent = AppendCtx(parent, slog.String("second", "s"))

	left := AppendCtx(parent, slog.String("left", "l"))
	right := AppendCtx(parent, slog.String("right", "r"))

	leftAttrs := left.Value(slogFields).([]slog.Attr)
	rightAttrs := right.Value(slogFields).([]slog.Attr)

	if len(leftAttrs) != 3 || leftAttrs[2].Key != "left" {
		t.Errorf("unexpected left attributes: %v", leftAttrs)
	}
	if len(rightAttrs) != 3 || rightAttrs[2].Key != "right" {
		t.Errorf("unexpected right attributes: %v", rightAttrs)
	}
	if parentAttrs := parent.Value(slogFields).([]slog.Attr); len(parentAttrs) != 2 {
		t.Errorf("parent should keep 2 attributes, got %d", len(parentAttrs))
	}
}

func TestNewHandler_AddsContextAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, "json", &slog.HandlerOptions{Level: slog.LevelDebug}))

	ctx := AppendCtx(context.Background(), slog.String("meeting_id", "m1"))
	logger.With("component", "test").InfoContext(ctx, "hello", ErrKey, "boom")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if record["meeting_id"] != "m1" {
		t.Errorf("expected meeting_id from context, got %v", record["meeting_id"])
	}
	if record["component"] != "test" {
		t.Errorf("expected component attribute, got %v", record["component"])
	}
	if record[ErrKey] != "boom" {
		t.Errorf("expected error attribute, got %v", record[ErrKey])
	}
}

func TestNewHandler_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, "text", nil))
	logger.Info("plain")

	if !strings.Contains(buf.String(), "msg=plain") {
		t.Errorf("expected text output, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", logLevelDefault},
		{"verbose", logLevelDefault},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			if got := ParseLevel(tc.input); got != tc.expected {
				t.Errorf("ParseLevel(%q) = %v, expected %v", tc.input, got, tc.expected)
			}
		})
	}
}

func TestInitStructureLogConfig(t *testing.T) {
	original := slog.Default()
	defer slog.SetDefault(original)

	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LOG_ADD_SOURCE", "true")

	handler := InitStructureLogConfig()
	if handler == nil {
		t.Fatal("expected non-nil handler")
	}
	if handler.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be disabled at warn level")
	}
	if !handler.Enabled(context.Background(), slog.LevelError) {
		t.Error("error should be enabled at warn level")
	}
}

func TestPriorityCritical(t *testing.T) {
	attr := PriorityCritical()
	if attr.Key != "priority" || attr.Value.String() != "critical" {
		t.Errorf("unexpected attribute %v", attr)
	}
}
