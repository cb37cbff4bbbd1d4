package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daycheck/internal/model"
)

type closeFailingWriter struct {
	bytes.Buffer
	closeErr error
}

func (w *closeFailingWriter) Close() error { return w.closeErr }

func stubCreateFile(t *testing.T, w io.WriteCloser) {
	t.Helper()
	orig := createFile
	createFile = func(string) (io.WriteCloser, error) { return w, nil }
	t.Cleanup(func() { createFile = orig })
}

func TestWriteOutputReportsCloseError(t *testing.T) {
	errDiskFull := errors.New("disk full")
	w := &closeFailingWriter{closeErr: errDiskFull}
	stubCreateFile(t, w)

	err := writeOutput(io.Discard, "out.ics", func(out io.Writer) error {
		_, err := io.WriteString(out, "BEGIN:VCALENDAR")
		return err
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errDiskFull)
	assert.Contains(t, err.Error(), "out.ics")
	assert.Equal(t, "BEGIN:VCALENDAR", w.String())
}

func TestWriteOutputKeepsWriteError(t *testing.T) {
	errWrite := errors.New("render failed")
	stubCreateFile(t, &closeFailingWriter{closeErr: errors.New("close failed")})

	err := writeOutput(io.Discard, "out.ics", func(io.Writer) error { return errWrite })
	assert.ErrorIs(t, err, errWrite)
}

func TestWriteOutputTargets(t *testing.T) {
	var stdout bytes.Buffer
	for _, path := range []string{"", "-"} {
		stdout.Reset()
		require.NoError(t, writeOutput(&stdout, path, func(w io.Writer) error {
			_, err := io.WriteString(w, "x")
			return err
		}))
		assert.Equal(t, "x", stdout.String(), "path %q", path)
	}

	path := filepath.Join(t.TempDir(), "schedule.ics")
	stdout.Reset()
	require.NoError(t, writeOutput(&stdout, path, func(w io.Writer) error {
		_, err := io.WriteString(w, "file")
		return err
	}))
	assert.Empty(t, stdout.String())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "file", string(data))
}

func TestParseRef(t *testing.T) {
	id, err := parseRef("R7", model.SourceRecurring)
	require.NoError(t, err)
	assert.Equal(t, uint(7), id)

	id, err = parseRef("s12", model.SourceOneOff)
	require.NoError(t, err)
	assert.Equal(t, uint(12), id)

	_, err = parseRef("S12", model.SourceRecurring)
	assert.Error(t, err)
	_, err = parseRef("12", model.SourceOneOff)
	assert.Error(t, err)
}

func TestPatternFlagsOnlyChangedFields(t *testing.T) {
	var flags patternFlags
	cmd := &cobra.Command{}
	flags.register(cmd)

	upd, err := flags.update(cmd)
	require.NoError(t, err)
	assert.False(t, upd.Interval.Set, "the flag default does not reach the update")
	assert.False(t, upd.Title.Set)

	require.NoError(t, cmd.Flags().Set("title", "Standup"))
	require.NoError(t, cmd.Flags().Set("interval", "0"))
	require.NoError(t, cmd.Flags().Set("until", "none"))
	require.NoError(t, cmd.Flags().Set("start", "08:30"))

	upd, err = flags.update(cmd)
	require.NoError(t, err)
	assert.Equal(t, model.Some("Standup"), upd.Title)
	assert.Equal(t, model.Some(0), upd.Interval, "an explicit zero is passed on for validation")
	end, ok := upd.RangeEnd.Get()
	assert.True(t, ok)
	assert.Nil(t, end)
	assert.Equal(t, model.Some(model.NewClock(8, 30)), upd.StartTime)
	assert.False(t, upd.EndTime.Set)
	assert.False(t, upd.RangeStart.Set)

	require.NoError(t, cmd.Flags().Set("until", "2024-12-31"))
	upd, err = flags.update(cmd)
	require.NoError(t, err)
	require.NotNil(t, upd.RangeEnd.Value)
	assert.Equal(t, "2024-12-31", upd.RangeEnd.Value.String())

	require.NoError(t, cmd.Flags().Set("from", "soon"))
	_, err = flags.update(cmd)
	assert.ErrorContains(t, err, "--from")
}

func TestEventFlagsParseLocalTimes(t *testing.T) {
	seoul := time.FixedZone("KST", 9*60*60)
	var flags eventFlags
	cmd := &cobra.Command{}
	flags.register(cmd)

	require.NoError(t, cmd.Flags().Set("start", "2024-01-10 09:00"))
	require.NoError(t, cmd.Flags().Set("priority", model.PriorityHigh))

	upd, err := flags.update(cmd, seoul)
	require.NoError(t, err)
	start, ok := upd.StartAt.Get()
	require.True(t, ok)
	assert.True(t, start.Equal(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)))
	assert.False(t, upd.EndAt.Set)
	assert.False(t, upd.Title.Set)
	assert.Equal(t, model.Some(model.PriorityHigh), upd.Priority)

	require.NoError(t, cmd.Flags().Set("end", "10:00"))
	_, err = flags.update(cmd, seoul)
	assert.ErrorContains(t, err, "--end")
}
