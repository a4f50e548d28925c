package harness

import (
	"fmt"
	"strings"
)

// TestPrefix marks an export as a test.
const TestPrefix = "test-"

// TestCase is an export selected for execution.
type TestCase struct {
	Export Export
	Name   string // export name without TestPrefix
}

// Malformed returns a reason when the export cannot be called as a test,
// which requires a function with no parameters and no results.
func (tc TestCase) Malformed() (string, bool) {
	if !tc.Export.IsFunc() {
		return fmt.Sprintf("malformed test: export is a %s, not a function", tc.Export.Sort), true
	}
	if !tc.Export.Signature.IsNullary() {
		return fmt.Sprintf("malformed test: expected func(), got %s", tc.Export.Signature), true
	}
	return "", false
}

// Select keeps the exports named with TestPrefix, preserving order.
func Select(exports []Export) []TestCase {
	var tests []TestCase
	for _, e := range exports {
		if name, ok := strings.CutPrefix(e.Name, TestPrefix); ok {
			tests = append(tests, TestCase{Export: e, Name: name})
		}
	}
	return tests
}
