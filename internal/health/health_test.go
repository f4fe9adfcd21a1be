package health

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTrackerRecordsOutcomes(t *testing.T) {
	tr := NewTracker()

	tr.RecordSuccess("fusion", 120*time.Millisecond)
	tr.RecordFailure("fusion", "unexpected status 500", false, 80*time.Millisecond)
	tr.RecordFailure("1inch", "provider timeout", true, 10*time.Second)

	snap := tr.Snapshot()

	fusion := snap["fusion"]
	assert.Equal(t, uint64(1), fusion.Successes)
	assert.Equal(t, uint64(1), fusion.Failures)
	assert.Equal(t, uint64(0), fusion.Timeouts)
	assert.Equal(t, "unexpected status 500", fusion.LastError)
	assert.Equal(t, int64(80), fusion.LastLatencyMs)

	classic := snap["1inch"]
	assert.Equal(t, uint64(1), classic.Timeouts)
	assert.Equal(t, uint64(1), classic.Failures)
}

func TestTrackerSuccessClearsLastError(t *testing.T) {
	tr := NewTracker()

	tr.RecordFailure("fusion", "down", false, time.Millisecond)
	tr.RecordSuccess("fusion", time.Millisecond)

	assert.Empty(t, tr.Snapshot()["fusion"].LastError)
}

func TestTrackerSnapshotIsACopy(t *testing.T) {
	tr := NewTracker()
	tr.RecordSuccess("fusion", time.Millisecond)

	snap := tr.Snapshot()
	entry := snap["fusion"]
	entry.Successes = 99
	snap["fusion"] = entry

	assert.Equal(t, uint64(1), tr.Snapshot()["fusion"].Successes)
}

func TestTrackerConcurrentAccess(t *testing.T) {
	tr := NewTracker()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			tr.RecordSuccess("fusion", time.Millisecond)
		}()
		go func() {
			defer wg.Done()
			_ = tr.Snapshot()
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(50), tr.Snapshot()["fusion"].Successes)
}
