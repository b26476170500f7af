package testutils

import (
	"fmt"
	"testing"
)

// recordingT collects Errorf calls instead of failing the test.
type recordingT struct {
	errors []string
}

func (r *recordingT) Errorf(format string, args ...any) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}

func TestFieldsToMap_WellFormed(t *testing.T) {
	tests := []struct {
		name     string
		fields   []any
		expected map[string]any
	}{
		{
			name:     "empty",
			fields:   []any{},
			expected: map[string]any{},
		},
		{
			name:     "single pair",
			fields:   []any{"operation", "SaveDayStats"},
			expected: map[string]any{"operation": "SaveDayStats"},
		},
		{
			name:     "mixed value types",
			fields:   []any{"date", "2025-03-10", "retryable", true, "attempts", 3, "minutes", 6.5},
			expected: map[string]any{"date": "2025-03-10", "retryable": true, "attempts": 3, "minutes": 6.5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FieldsToMap(t, tt.fields)

			if len(got) != len(tt.expected) {
				t.Fatalf("Expected %d entries, got %d (%v)", len(tt.expected), len(got), got)
			}
			for key, want := range tt.expected {
				if got[key] != want {
					t.Errorf("Key %q: expected %v, got %v", key, want, got[key])
				}
			}
		})
	}
}

func TestFieldsToMap_OddLengthReportsError(t *testing.T) {
	rec := &recordingT{}

	got := FieldsToMap(rec, []any{"key1", "value1", "dangling"})

	if got["key1"] != "value1" {
		t.Errorf("Expected the complete pair to survive, got %v", got)
	}
	if len(got) != 1 {
		t.Errorf("Expected 1 entry, got %d", len(got))
	}
	if len(rec.errors) != 1 {
		t.Errorf("Expected 1 reported error, got %d: %v", len(rec.errors), rec.errors)
	}
}

func TestFieldsToMap_NonStringKeyReportsError(t *testing.T) {
	rec := &recordingT{}

	got := FieldsToMap(rec, []any{42, "value", "operation", "HealthCheck"})

	if got["operation"] != "HealthCheck" {
		t.Errorf("Expected the valid pair to survive, got %v", got)
	}
	if len(got) != 1 {
		t.Errorf("Expected 1 entry, got %d", len(got))
	}
	if len(rec.errors) != 1 {
		t.Errorf("Expected 1 reported error, got %d: %v", len(rec.errors), rec.errors)
	}
}
