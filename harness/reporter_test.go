package harness

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReporterPlainOutput(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := NewReporter(&stdout, &stderr)

	r.Report("addition-works", Pass())
	r.Report("overflow", Fail("wasm error: unreachable"))

	require.Equal(t, "addition-works ... OK!\n", stdout.String())
	require.Equal(t, "error: overflow test failed: wasm error: unreachable\n", stderr.String())
}

func TestStatusString(t *testing.T) {
	require.Equal(t, "passed", Passed.String())
	require.Equal(t, "failed", Failed.String())
}
