// Package testutils holds small helpers shared by tests across packages.
package testutils

// TestingT is the subset of testing.T these helpers report through.
type TestingT interface {
	Errorf(format string, args ...any)
}

// FieldsToMap converts a variadic key/value field slice, as passed to the
// logging.Logger methods, into a map for assertions. Non-string keys and a
// trailing key without a value are reported as test errors and skipped.
func FieldsToMap(t TestingT, fields []any) map[string]any {
	out := make(map[string]any, len(fields)/2)

	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			t.Errorf("field key at index %d is %T, want string", i, fields[i])
			continue
		}
		out[key] = fields[i+1]
	}
	if len(fields)%2 != 0 {
		t.Errorf("field slice has odd length %d; dropping trailing key %v", len(fields), fields[len(fields)-1])
	}

	return out
}
