package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"testing"
	"time"

	"restwell/internal/testutils"
)

// Mock StoreError for testing
type mockStoreError struct {
	message   string
	code      string
	retryable bool
	context   map[string]string
	timestamp time.Time
}

func (m *mockStoreError) Error() string                 { return m.message }
func (m *mockStoreError) GetCode() string               { return m.code }
func (m *mockStoreError) IsRetryable() bool             { return m.retryable }
func (m *mockStoreError) GetContext() map[string]string { return m.context }
func (m *mockStoreError) GetTimestamp() time.Time       { return m.timestamp }

// Mock Logger for testing
type mockLogger struct {
	debugCalls []logCall
	infoCalls  []logCall
	warnCalls  []logCall
	errorCalls []logCall
}

type logCall struct {
	msg    string
	fields []interface{}
}

func (m *mockLogger) Debug(msg string, fields ...interface{}) {
	m.debugCalls = append(m.debugCalls, logCall{msg: msg, fields: fields})
}

func (m *mockLogger) Info(msg string, fields ...interface{}) {
	m.infoCalls = append(m.infoCalls, logCall{msg: msg, fields: fields})
}

func (m *mockLogger) Warn(msg string, fields ...interface{}) {
	m.warnCalls = append(m.warnCalls, logCall{msg: msg, fields: fields})
}

func (m *mockLogger) Error(msg string, fields ...interface{}) {
	m.errorCalls = append(m.errorCalls, logCall{msg: msg, fields: fields})
}

func captureLogOutput(t *testing.T) *bytes.Buffer {
	t.Helper()

	originalOutput := log.Writer()
	originalFlags := log.Flags()
	originalPrefix := log.Prefix()

	var buf bytes.Buffer
	log.SetOutput(&buf)
	log.SetFlags(0)

	t.Cleanup(func() {
		log.SetOutput(originalOutput)
		log.SetFlags(originalFlags)
		log.SetPrefix(originalPrefix)
	})
	return &buf
}

func parseLogEntry(t *testing.T, output string) map[string]interface{} {
	t.Helper()

	jsonStart := strings.Index(output, "{")
	if jsonStart == -1 {
		t.Fatalf("Expected JSON output, got: %q", output)
	}

	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(output[jsonStart:])), &entry); err != nil {
		t.Fatalf("Failed to parse JSON log entry: %v, output: %q", err, output)
	}
	return entry
}

func TestNewDefaultLogger(t *testing.T) {
	logger := NewDefaultLogger()
	if logger == nil {
		t.Fatal("NewDefaultLogger() returned nil")
	}

	if _, ok := logger.(*DefaultLogger); !ok {
		t.Errorf("NewDefaultLogger() returned %T, expected *DefaultLogger", logger)
	}
}

func TestDefaultLogger_StructuredOutput(t *testing.T) {
	buf := captureLogOutput(t)
	logger := &DefaultLogger{}

	tests := []struct {
		name           string
		logFunc        func(string, ...interface{})
		message        string
		fields         []interface{}
		levelToken     string
		expectedFields map[string]interface{}
	}{
		{
			name:           "Debug",
			logFunc:        logger.Debug,
			message:        "debug message",
			fields:         []interface{}{"key", "value"},
			levelToken:     "DEBUG",
			expectedFields: map[string]interface{}{"key": "value"},
		},
		{
			name:           "Info",
			logFunc:        logger.Info,
			message:        "info message",
			fields:         []interface{}{"count", 42},
			levelToken:     "INFO",
			expectedFields: map[string]interface{}{"count": float64(42)}, // JSON numbers are float64
		},
		{
			name:           "Warn",
			logFunc:        logger.Warn,
			message:        "warn message",
			fields:         []interface{}{},
			levelToken:     "WARN",
			expectedFields: map[string]interface{}{},
		},
		{
			name:           "Error",
			logFunc:        logger.Error,
			message:        "error message",
			fields:         []interface{}{"error", "test error"},
			levelToken:     "ERROR",
			expectedFields: map[string]interface{}{"error": "test error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.logFunc(tt.message, tt.fields...)

			entry := parseLogEntry(t, buf.String())

			if entry["timestamp"] == nil {
				t.Error("Expected log entry to have timestamp field")
			}
			if entry["level"] != tt.levelToken {
				t.Errorf("Expected level %q, got %q", tt.levelToken, entry["level"])
			}
			if entry["message"] != tt.message {
				t.Errorf("Expected message %q, got %q", tt.message, entry["message"])
			}

			fields, ok := entry["fields"].(map[string]interface{})
			if !ok {
				t.Fatalf("Expected fields to be a map, got %T", entry["fields"])
			}
			for key, expected := range tt.expectedFields {
				if actual, exists := fields[key]; !exists {
					t.Errorf("Expected field %q to exist", key)
				} else if actual != expected {
					t.Errorf("Expected field %q to be %v, got %v", key, expected, actual)
				}
			}
		})
	}
}

func TestLogStoreError_WithStoreError(t *testing.T) {
	mockLog := &mockLogger{}

	storeErr := &mockStoreError{
		message:   "test store error",
		code:      "CONNECTION_ERROR",
		retryable: true,
		context:   map[string]string{"table": "sessions", "date": "2025-03-10"},
		timestamp: time.Now(),
	}

	context := map[string]interface{}{
		"additional": "context",
		"count":      5,
	}

	LogStoreError(mockLog, storeErr, "save_sessions", context)

	if len(mockLog.errorCalls) != 1 {
		t.Fatalf("Expected 1 error call, got %d", len(mockLog.errorCalls))
	}

	call := mockLog.errorCalls[0]
	if !strings.Contains(call.msg, "Store error: test store error") {
		t.Errorf("Expected error message to contain store error, got %q", call.msg)
	}

	fieldsMap := testutils.FieldsToMap(t, call.fields)

	expectedFields := map[string]interface{}{
		"operation":  "save_sessions",
		"error_code": "CONNECTION_ERROR",
		"retryable":  true,
		"table":      "sessions",
		"date":       "2025-03-10",
		"additional": "context",
		"count":      5,
	}

	for key, expected := range expectedFields {
		if actual, exists := fieldsMap[key]; !exists {
			t.Errorf("Expected field %q not found in log call", key)
		} else if actual != expected {
			t.Errorf("Field %q: expected %v, got %v", key, expected, actual)
		}
	}
}

func TestLogStoreError_WithRegularError(t *testing.T) {
	mockLog := &mockLogger{}

	err := errors.New("regular error")
	LogStoreError(mockLog, err, "load_day_stats", map[string]interface{}{"context": "value"})

	if len(mockLog.errorCalls) != 1 {
		t.Fatalf("Expected 1 error call, got %d", len(mockLog.errorCalls))
	}

	call := mockLog.errorCalls[0]
	if !strings.Contains(call.msg, "Unexpected error: regular error") {
		t.Errorf("Expected error message to contain unexpected error, got %q", call.msg)
	}

	fieldsMap := testutils.FieldsToMap(t, call.fields)
	if fieldsMap["operation"] != "load_day_stats" {
		t.Errorf("Expected operation field to be 'load_day_stats', got %v", fieldsMap["operation"])
	}
	if fieldsMap["context"] != "value" {
		t.Errorf("Expected context field to be 'value', got %v", fieldsMap["context"])
	}
}

func TestLogStoreError_WithNilLogger(t *testing.T) {
	buf := captureLogOutput(t)

	LogStoreError(nil, errors.New("test error"), "test_operation", nil)

	entry := parseLogEntry(t, buf.String())
	if entry["level"] != "ERROR" {
		t.Errorf("Expected level ERROR, got %q", entry["level"])
	}
}

func TestLogOperation(t *testing.T) {
	mockLog := &mockLogger{}

	LogOperation(mockLog, "save_day_stats", 42*time.Millisecond, map[string]interface{}{"date": "2025-03-10"})

	if len(mockLog.infoCalls) != 1 {
		t.Fatalf("Expected 1 info call, got %d", len(mockLog.infoCalls))
	}

	call := mockLog.infoCalls[0]
	if !strings.Contains(call.msg, "save_day_stats") {
		t.Errorf("Expected message to name the operation, got %q", call.msg)
	}

	fieldsMap := testutils.FieldsToMap(t, call.fields)
	if fieldsMap["duration_ms"] != int64(42) {
		t.Errorf("Expected duration_ms to be 42, got %v", fieldsMap["duration_ms"])
	}
}

func TestFieldsToMap_MalformedInput(t *testing.T) {
	fields := fieldsToMap([]interface{}{"key", "value", 99, "not-a-string-key", "dangling"})

	if fields["key"] != "value" {
		t.Errorf("Expected well-formed pair to survive, got %v", fields["key"])
	}
	if len(fields) < 2 {
		t.Errorf("Expected malformed entries to be preserved under index keys, got %v", fields)
	}
}
