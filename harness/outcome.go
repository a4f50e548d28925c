package harness

// Status is the result of one test.
type Status int

const (
	Passed Status = iota
	Failed
)

func (s Status) String() string {
	if s == Passed {
		return "passed"
	}
	return "failed"
}

// Outcome is the classified result of one test. Reason is set when Failed.
type Outcome struct {
	Reason string
	Status Status
}

// Pass returns a passing outcome.
func Pass() Outcome {
	return Outcome{Status: Passed}
}

// Fail returns a failing outcome with reason.
func Fail(reason string) Outcome {
	return Outcome{Status: Failed, Reason: reason}
}

// Result pairs a test with its outcome.
type Result struct {
	Test    TestCase
	Outcome Outcome
}
