package report_test

import (
	"bytes"
	"testing"

	"github.com/storelinkhq/storelink/pkg/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportWarningRecordsAndWritesPlainText(t *testing.T) {
	var buf bytes.Buffer
	sink := report.New(&buf)

	sink.ReportWarning("BUILD_SCRIPT_BLOCKED", "build scripts blocked for left-pad@1.0.0")

	warnings := sink.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, "BUILD_SCRIPT_BLOCKED", warnings[0].Code)
	assert.Contains(t, buf.String(), "left-pad@1.0.0")
	assert.Contains(t, buf.String(), "BUILD_SCRIPT_BLOCKED")
}

func TestReportWarningAccumulatesInOrder(t *testing.T) {
	var buf bytes.Buffer
	sink := report.New(&buf)

	sink.ReportWarning("A", "first")
	sink.ReportWarning("B", "second")

	warnings := sink.Warnings()
	require.Len(t, warnings, 2)
	assert.Equal(t, "first", warnings[0].Message)
	assert.Equal(t, "second", warnings[1].Message)
}

func TestNonFileWriterNeverStyled(t *testing.T) {
	var buf bytes.Buffer
	sink := report.New(&buf)
	sink.ReportWarning("X", "plain")
	assert.Equal(t, "warning: plain [X]\n", buf.String())
}
