package audit

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "audit_logs.json")
	r := NewRecorder(path)
	r.now = func() time.Time { return time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC) }

	entries, err := r.Load()
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, r.Record("alice", EventSessionOpen, "127.0.0.1"))
	require.NoError(t, r.Record("alice", EventSessionClose, "127.0.0.1"))

	entries, err = r.Load()
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Timestamp: "2024-03-01T09:30:00.000", UserID: "alice", Event: "SESSION_OPEN", IPAddress: "127.0.0.1"},
		{Timestamp: "2024-03-01T09:30:00.000", UserID: "alice", Event: "SESSION_CLOSE", IPAddress: "127.0.0.1"},
	}, entries)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"userId": "alice"`)
}

func TestRecorderCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit_logs.json")
	require.NoError(t, os.WriteFile(path, []byte("[{"), 0644))

	r := NewRecorder(path)
	_, err := r.Load()
	assert.Error(t, err)
	assert.Error(t, r.Record("bob", EventSessionOpen, "10.0.0.1"))

	require.NoError(t, os.WriteFile(path, nil, 0644))
	require.NoError(t, r.Record("bob", EventSessionOpen, "10.0.0.1"))
}
