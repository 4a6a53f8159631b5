package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerStoresAndWrites(t *testing.T) {
	var out bytes.Buffer
	l := NewLogger()
	l.SetWriter(&out)

	l.Infof("Reducer: Round %d", 1)
	l.Debug("hidden")
	l.Warnf("careful")
	l.Errorf("broken: %v", "disk")
	require.NoError(t, l.Sync())

	entries := l.Store().GetAll()
	require.Len(t, entries, 3, "debug entries are dropped while debug is off")
	assert.Equal(t, "Reducer: Round 1", entries[0].Message)
	assert.Equal(t, LevelInfo, entries[0].Level)
	assert.Equal(t, 2, l.Store().CountAtLeast(LevelWarn))
	assert.Equal(t, 1, l.Store().CountAtLeast(LevelError))

	assert.Contains(t, out.String(), "Reducer: Round 1")
	assert.Contains(t, out.String(), "broken: disk")
	assert.NotContains(t, out.String(), "hidden")

	l.SetDebug(true)
	l.Debug("visible")
	assert.True(t, l.IsDebugEnabled())
	assert.Contains(t, out.String(), "visible")
}

func TestDefaultLogger(t *testing.T) {
	previous := Default()
	t.Cleanup(func() { SetDefault(previous) })

	l := NewLogger()
	SetDefault(l)
	Infof("via %s", "package")
	entries := l.Store().GetAll()
	require.Len(t, entries, 1)
	assert.Equal(t, "via package", entries[0].Message)
}
