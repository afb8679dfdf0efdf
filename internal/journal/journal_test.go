package journal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mesh-intelligence/kernelpool/pkg/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func openTestJournal(t *testing.T, batch int) (*Journal, string) {
	t.Helper()
	dir := t.TempDir()
	j, err := Open(types.JournalConfig{Enabled: true, DataDir: dir, BatchSize: batch}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j, dir
}

func event(kind string, slot int32, pid types.PID) types.Event {
	return types.Event{Kind: kind, Pool: types.PoolPCB, Slot: slot, PID: pid, At: time.Now()}
}

func TestOpenCreatesDatabase(t *testing.T) {
	_, dir := openTestJournal(t, 0)

	_, err := os.Stat(filepath.Join(dir, FileName))
	assert.NoError(t, err)
}

func TestRecordAndEvents(t *testing.T) {
	j, _ := openTestJournal(t, 2)
	session, err := j.Begin()
	require.NoError(t, err)
	assert.Equal(t, session, j.Session())

	j.Record(event(types.EventAlloc, 0, 1))
	j.Record(event(types.EventAlloc, 1, 2))
	j.Record(event(types.EventRelease, 0, 1))

	entries, err := j.Events("")
	require.NoError(t, err)
	require.Len(t, entries, 3, "Events flushes the partial batch")

	wantKinds := []string{types.EventAlloc, types.EventAlloc, types.EventRelease}
	for i, e := range entries {
		assert.Equal(t, int64(i+1), e.Seq)
		assert.Equal(t, session, e.SessionID)
		assert.Equal(t, wantKinds[i], e.Kind)
		assert.NotEmpty(t, e.EventID)
	}
	assert.Equal(t, int32(1), entries[1].Slot)
	assert.Equal(t, types.PID(2), entries[1].PID)
	assert.Equal(t, types.PoolPCB, entries[2].Pool)
}

func TestRecordOutsideSessionIsDropped(t *testing.T) {
	j, _ := openTestJournal(t, 1)

	j.Record(event(types.EventAlloc, 0, 1))

	assert.Equal(t, 1, j.Dropped())
	_, err := j.Events("")
	assert.ErrorIs(t, err, ErrNoSession)
}

// countEvents reads the stored row count without flushing the batch.
func countEvents(t *testing.T, j *Journal) int {
	t.Helper()
	var n int
	require.NoError(t, j.db.QueryRow("SELECT COUNT(*) FROM events").Scan(&n))
	return n
}

func TestRecordFlushesAtBatchSize(t *testing.T) {
	j, _ := openTestJournal(t, 2)
	_, err := j.Begin()
	require.NoError(t, err)

	j.Record(event(types.EventAlloc, 0, 1))
	assert.Equal(t, 0, countEvents(t, j), "first event stays buffered")

	j.Record(event(types.EventAlloc, 1, 2))
	assert.Equal(t, 2, countEvents(t, j), "second event fills the batch")

	j.Record(event(types.EventRelease, 0, 1))
	assert.Equal(t, 2, countEvents(t, j), "third event starts a new batch")

	require.NoError(t, j.Flush())
	assert.Equal(t, 3, countEvents(t, j))
	assert.Equal(t, 0, j.Dropped())
}

func TestFailedFlushCountsDropped(t *testing.T) {
	j, _ := openTestJournal(t, 2)
	_, err := j.Begin()
	require.NoError(t, err)
	_, err = j.db.Exec("DROP TABLE events")
	require.NoError(t, err)

	j.Record(event(types.EventAlloc, 0, 1))
	assert.Equal(t, 0, j.Dropped(), "nothing written yet")
	j.Record(event(types.EventAlloc, 1, 2))
	assert.Equal(t, 2, j.Dropped(), "the whole failed batch is lost")

	j.Record(event(types.EventRelease, 0, 1))
	assert.Equal(t, 2, j.Dropped(), "the buffer restarts after a failure")
}

func TestEventsUnknownSession(t *testing.T) {
	j, _ := openTestJournal(t, 1)
	first, err := j.Begin()
	require.NoError(t, err)
	j.Record(event(types.EventAlloc, 0, 1))
	_, err = j.Begin()
	require.NoError(t, err)

	_, err = j.Events("bogus")
	assert.ErrorIs(t, err, ErrNoSession)

	entries, err := j.Events(first)
	require.NoError(t, err, "an ended session is still known")
	assert.Len(t, entries, 1)

	entries, err = j.Events("")
	require.NoError(t, err, "an active session without events is known")
	assert.Empty(t, entries)
}

func TestSessionsSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	cfg := types.JournalConfig{Enabled: true, DataDir: dir}

	j, err := Open(cfg, nil)
	require.NoError(t, err)
	first, err := j.Begin()
	require.NoError(t, err)
	j.Record(event(types.EventAlloc, 0, 1))
	second, err := j.Begin()
	require.NoError(t, err)
	j.Record(event(types.EventAlloc, 0, 2))
	j.Record(event(types.EventExhausted, -1, 0))
	require.NoError(t, j.Close())

	j, err = Open(cfg, nil)
	require.NoError(t, err)
	defer j.Close()

	sessions, err := j.Sessions()
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, first, sessions[0].SessionID)
	assert.Equal(t, 1, sessions[0].Events)
	assert.NotNil(t, sessions[0].EndedAt)
	assert.Equal(t, second, sessions[1].SessionID)
	assert.Equal(t, 2, sessions[1].Events)

	entries, err := j.Events(second)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, types.EventExhausted, entries[1].Kind)
	assert.Equal(t, int32(-1), entries[1].Slot)
}

func TestClosedJournal(t *testing.T) {
	j, _ := openTestJournal(t, 1)
	require.NoError(t, j.Close())
	require.NoError(t, j.Close(), "Close is idempotent")

	_, err := j.Begin()
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, j.Flush(), ErrClosed)
	_, err = j.Sessions()
	assert.ErrorIs(t, err, ErrClosed)
	j.Record(event(types.EventAlloc, 0, 1))
	assert.Equal(t, 1, j.Dropped())
}
