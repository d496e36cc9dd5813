package events_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wbtracker/internal/domain"
	"wbtracker/internal/events"
)

func TestWriterRotatesHourly(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "journal")
	clock := time.Date(2024, 3, 2, 21, 59, 0, 0, time.UTC)
	w := events.NewWriter(dir)
	w.Now = func() time.Time { return clock }

	require.NoError(t, w.Append(events.Entry{At: clock, Line: "24 dwf", Outcome: domain.OutcomeAccepted, Created: true}))
	require.NoError(t, w.Append(events.Entry{At: clock, Line: "3 dwf", Outcome: domain.OutcomeRejectedInvalidWorld}))
	clock = clock.Add(2 * time.Minute)
	require.NoError(t, w.Append(events.Entry{At: clock, Line: "45 c", Outcome: domain.OutcomeRejectedUnknownLocation}))

	files, err := events.Files(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "reports-2024-03-02-21.jsonl.zst", filepath.Base(files[0]))
	assert.Equal(t, "reports-2024-03-02-22.jsonl.zst", filepath.Base(files[1]))

	require.NoError(t, w.Close())

	var lines []string
	for _, f := range files {
		require.NoError(t, events.Read(f, func(e events.Entry) error {
			lines = append(lines, e.Line)
			return nil
		}))
	}
	assert.Equal(t, []string{"24 dwf", "3 dwf", "45 c"}, lines)
}

func TestReadWhileWriterOpen(t *testing.T) {
	dir := t.TempDir()
	clock := time.Date(2024, 3, 2, 21, 10, 0, 0, time.UTC)
	w := events.NewWriter(dir)
	w.Now = func() time.Time { return clock }
	t.Cleanup(func() { w.Close() })

	require.NoError(t, w.Append(events.Entry{At: clock, Line: "24 dwf", Outcome: domain.OutcomeAccepted}))
	require.NoError(t, w.Append(events.Entry{At: clock, Line: "45 elm", Outcome: domain.OutcomeAccepted}))

	files, err := events.Files(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)

	read := func() []string {
		var lines []string
		require.NoError(t, events.Read(files[0], func(e events.Entry) error {
			lines = append(lines, e.Line)
			return nil
		}))
		return lines
	}
	assert.Equal(t, []string{"24 dwf", "45 elm"}, read())

	require.NoError(t, w.Append(events.Entry{At: clock, Line: "52 rdi", Outcome: domain.OutcomeAccepted}))
	assert.Equal(t, []string{"24 dwf", "45 elm", "52 rdi"}, read())
}
