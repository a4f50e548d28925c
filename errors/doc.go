// Package errors provides structured error types for the test harness.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// Every *Error is fatal to a run: the harness reports it once and exits non-zero.
// Failures inside a single test never surface as an error value; they are
// carried by the harness Outcome type instead.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindInvalidData).
//		Path("section", "7").
//		Detail("unknown sort 0x%02x", b).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Unreadable(path, cause)
//	err := errors.EncodingFailed("module imports unknown function", nil)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
