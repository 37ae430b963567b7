package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/punnathat/richmenu-studio-go/internal/ctxutil"
)

func parseEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var logEntry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("Failed to parse JSON log: %v", err)
	}
	return logEntry
}

func TestNewWithWriterLevels(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		wantDebug bool
		wantInfo  bool
	}{
		{"debug level", "debug", true, true},
		{"info level", "info", false, true},
		{"warn level", "warn", false, false},
		{"error level", "error", false, false},
		{"invalid level defaults to info", "invalid", false, true},
		{"empty level defaults to info", "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := NewWithWriter(tt.level, &buf)

			log.Debug("debug message")
			gotDebug := strings.Contains(buf.String(), "debug message")
			if gotDebug != tt.wantDebug {
				t.Errorf("debug emitted = %v, want %v", gotDebug, tt.wantDebug)
			}

			buf.Reset()
			log.Info("info message")
			gotInfo := strings.Contains(buf.String(), "info message")
			if gotInfo != tt.wantInfo {
				t.Errorf("info emitted = %v, want %v", gotInfo, tt.wantInfo)
			}
		})
	}
}

func TestLogger_WarnLevelRendersAsWarning(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("debug", &buf)

	log.Warn("careful")

	logEntry := parseEntry(t, &buf)
	if logEntry["level"] != "warning" {
		t.Errorf("level = %v, want %q", logEntry["level"], "warning")
	}
}

func TestLogger_WithModule(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	log.WithModule("test_module").Info("test message")

	logEntry := parseEntry(t, &buf)
	if module, ok := logEntry["module"].(string); !ok || module != "test_module" {
		t.Errorf("WithModule() module = %v, want %q", logEntry["module"], "test_module")
	}
}

func TestLogger_WithRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	log.WithRequestID("req-123").Info("test message")

	logEntry := parseEntry(t, &buf)
	if requestID, ok := logEntry["request_id"].(string); !ok || requestID != "req-123" {
		t.Errorf("WithRequestID() request_id = %v, want %q", logEntry["request_id"], "req-123")
	}
}

func TestLogger_WithError(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	testErr := &testError{msg: "test error message"}
	log.WithError(testErr).Error("operation failed")

	logEntry := parseEntry(t, &buf)
	if errField, ok := logEntry["error"].(string); !ok || errField != "test error message" {
		t.Errorf("WithError() error = %v, want %q", logEntry["error"], "test error message")
	}
}

func TestLogger_WithFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	log.WithFields(map[string]any{"step": "layout", "count": 2}).Info("test message")

	logEntry := parseEntry(t, &buf)
	if step, ok := logEntry["step"].(string); !ok || step != "layout" {
		t.Errorf("WithFields() step = %v, want %q", logEntry["step"], "layout")
	}
	if count, ok := logEntry["count"].(float64); !ok || count != 2 {
		t.Errorf("WithFields() count = %v, want 2", logEntry["count"])
	}
}

func TestLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	log.Info("test message")

	logEntry := parseEntry(t, &buf)

	// Check required fields
	requiredFields := []string{"timestamp", "level", "message"}
	for _, field := range requiredFields {
		if _, ok := logEntry[field]; !ok {
			t.Errorf("JSON log missing required field %q", field)
		}
	}

	if logEntry["message"] != "test message" {
		t.Errorf("message = %v, want %q", logEntry["message"], "test message")
	}
	if logEntry["level"] != "info" {
		t.Errorf("level = %v, want %q", logEntry["level"], "info")
	}
}

func TestNewWithOptions_ExtractsContextValues(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOptions("info", &buf, Options{})

	ctx := context.Background()
	ctx = ctxutil.WithUserID(ctx, "U11111")
	ctx = ctxutil.WithSessionID(ctx, "sess-42")
	ctx = ctxutil.WithRequestID(ctx, "req-test-123")

	log.InfoContext(ctx, "processing request")

	output := buf.String()
	for _, want := range []string{
		`"user_id":"U11111"`,
		`"session_id":"sess-42"`,
		`"request_id":"req-test-123"`,
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %s in output: %s", want, output)
		}
	}
}

func TestLogger_Infof(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	log.Infof("deployed %d menus", 3)

	logEntry := parseEntry(t, &buf)
	if logEntry["message"] != "deployed 3 menus" {
		t.Errorf("message = %v, want %q", logEntry["message"], "deployed 3 menus")
	}
}

// testError is a simple error type for testing
type testError struct {
	msg string
}

func (e *testError) Error() string {
	return e.msg
}
