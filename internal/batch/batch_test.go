package batch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/savegress/hl7kit/pkg/hl7"
)

const admit = "MSH|^~\\&|LAB|HOSP|EHR|HOSP|20240101120000||ADT^A01|MSG001|P|2.5\r\n" +
	"PID|1||12345^^^HOSP^MR||DOE^JOHN\r\n" +
	"PV1|1|I"

func writeMessage(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func newRunner(t *testing.T, opts Options) *Runner {
	t.Helper()
	if opts.Workers == 0 {
		opts.Workers = 2
	}
	r, err := NewRunner(opts, nil)
	require.NoError(t, err)
	return r
}

func TestVerify(t *testing.T) {
	sum, err := Verify(admit)
	require.NoError(t, err)
	assert.Equal(t, "ADT^A01", sum.MessageType)
	assert.Equal(t, "MSG001", sum.ControlID)
	assert.Equal(t, 3, sum.Segments)
	assert.Equal(t, strings.ReplaceAll(admit, "\r\n", "\r"), sum.Normalized)
}

func TestVerify_EdgeInputs(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"header only", "MSH|^~\\&|"},
		{"trailing delimiter", "MSH|^~\\&|||\rPID|1|"},
		{"partial encoding characters", "MSH|^~|A|B\rPID|x^y"},
		{"custom delimiters", "MSH#*@!%#A#B\rPID#1#a*b"},
		{"trailing terminator", "MSH|^~\\&|A\rPID|1\r"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sum, err := Verify(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.text, sum.Normalized)
		})
	}
}

func TestVerify_Malformed(t *testing.T) {
	for _, text := range []string{"", "PID|1|2|3|4|5", "MSH|^~"} {
		_, err := Verify(text)
		assert.ErrorIs(t, err, hl7.ErrMalformedMessage, "input %q", text)
	}
}

func TestRunner_Run(t *testing.T) {
	dir := t.TempDir()
	writeMessage(t, dir, "a.hl7", admit)
	writeMessage(t, dir, "nested/b.HL7", "MSH|^~\\&|X||||||ORU^R01|42\rOBX|1|NM|GLU||5.4")
	writeMessage(t, dir, "nested/bad.hl7", "not a message")
	writeMessage(t, dir, "notes.txt", "ignored")

	r := newRunner(t, Options{QueueSize: 1})
	report, err := r.Run(context.Background(), []string{dir})
	require.NoError(t, err)

	_, err = uuid.Parse(report.RunID)
	assert.NoError(t, err)
	require.Len(t, report.Results, 3)
	assert.Equal(t, 2, report.Passed)
	assert.Equal(t, 1, report.Failed)

	failures := report.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, filepath.Join(dir, "nested", "bad.hl7"), failures[0].Path)
	assert.ErrorIs(t, failures[0].Err, hl7.ErrMalformedMessage)

	m := r.Metrics()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.messagesTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.messagesTotal.WithLabelValues("failed")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.segmentsTotal))
	assert.Equal(t, uint64(3), report.Pool.SubmittedTasks)
	assert.Equal(t, uint64(1), report.Pool.FailedTasks)
}

func TestRunner_Rewrite(t *testing.T) {
	dir := t.TempDir()
	crlf := writeMessage(t, dir, "crlf.hl7", admit)
	clean := writeMessage(t, dir, "clean.hl7", "MSH|^~\\&|A\rPID|1")

	r := newRunner(t, Options{Rewrite: true})
	report, err := r.Run(context.Background(), []string{dir})
	require.NoError(t, err)
	require.Equal(t, 2, report.Passed)

	byPath := map[string]Result{}
	for _, res := range report.Results {
		byPath[res.Path] = res
	}
	assert.True(t, byPath[crlf].Normalized)
	assert.True(t, byPath[crlf].Rewritten)
	assert.False(t, byPath[clean].Rewritten)

	data, err := os.ReadFile(crlf)
	require.NoError(t, err)
	assert.Equal(t, strings.ReplaceAll(admit, "\r\n", "\r"), string(data))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Metrics().rewritten))
}

func TestRunner_MetricsFile(t *testing.T) {
	dir := t.TempDir()
	path := writeMessage(t, dir, "a.hl7", admit)
	out := filepath.Join(dir, "hl7kit.prom")

	r := newRunner(t, Options{MetricsFile: out})
	_, err := r.Run(context.Background(), []string{path})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `hl7kit_batch_messages_total{result="ok"} 1`)
	assert.Contains(t, string(data), "hl7kit_batch_duration_seconds_count 1")
}

func TestRunner_Cancelled(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.hl7", "b.hl7", "c.hl7"} {
		writeMessage(t, dir, name, admit)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newRunner(t, Options{Workers: 1, ShutdownTimeout: time.Second})
	report, err := r.Run(ctx, []string{dir})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Equal(t, 0, report.Passed)
	assert.Equal(t, 3, report.Failed)
}

func TestRunner_Errors(t *testing.T) {
	_, err := NewRunner(Options{Workers: 0}, nil)
	assert.Error(t, err)

	r := newRunner(t, Options{})
	_, err = r.Run(context.Background(), []string{t.TempDir()})
	assert.ErrorIs(t, err, ErrNoInput)

	_, err = r.Run(context.Background(), []string{filepath.Join(t.TempDir(), "missing")})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCollect(t *testing.T) {
	dir := t.TempDir()
	b := writeMessage(t, dir, "b.hl7", admit)
	a := writeMessage(t, dir, "sub/a.msg", admit)
	writeMessage(t, dir, "sub/skip.hl7.bak", admit)

	files, err := Collect([]string{dir, a, b}, []string{".hl7"})
	require.NoError(t, err)
	assert.Equal(t, []string{b, a}, files)

	files, err = Collect([]string{dir}, []string{".HL7", ".msg"})
	require.NoError(t, err)
	assert.Equal(t, []string{b, a}, files)
}

func TestRunner_Quarantine(t *testing.T) {
	dir := t.TempDir()
	writeMessage(t, dir, "good.hl7", admit)
	bad := writeMessage(t, dir, "bad.hl7", "PID|1")
	qdir := filepath.Join(dir, "quarantine")

	r := newRunner(t, Options{QuarantineDir: qdir})
	report, err := r.Run(context.Background(), []string{dir})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Quarantined)

	entries, err := ReadQuarantine(qdir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, report.RunID, e.RunID)
	assert.Equal(t, bad, e.Path)
	assert.Contains(t, e.Error, "malformed")
	assert.Equal(t, report.Failures()[0].Quarantined, e.Copy)

	data, err := os.ReadFile(filepath.Join(qdir, e.Copy))
	require.NoError(t, err)
	assert.Equal(t, "PID|1", string(data))

	// A second run does not pick up the quarantined copy and appends to the log.
	report, err = r.Run(context.Background(), []string{dir})
	require.NoError(t, err)
	assert.Len(t, report.Results, 2)
	entries, err = ReadQuarantine(qdir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestReadQuarantine_Missing(t *testing.T) {
	entries, err := ReadQuarantine(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}
