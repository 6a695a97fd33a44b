package state

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() TransactionRecord {
	return TransactionRecord{
		Timestamp:   time.Now(),
		TargetURL:   "http://localhost:9091/metrics/job/example",
		Method:      "PUT",
		Headers:     map[string]string{"Content-Type": "text/plain"},
		RawData:     "Zm9vIDEK",
		DecodedData: "foo 1\n",
		Result:      &Result{Success: true, Status: "Success: 200", Message: "forwarded"},
	}
}

func TestTracker_EmptyByDefault(t *testing.T) {
	tracker := NewTracker()
	snapshot := tracker.Snapshot()

	assert.False(t, snapshot.Recorded())
	assert.Nil(t, snapshot.Result)
}

func TestTracker_RecordAndSnapshot(t *testing.T) {
	tracker := NewTracker()
	rec := sampleRecord()
	tracker.Record(rec)

	snapshot := tracker.Snapshot()
	assert.True(t, snapshot.Recorded())
	assert.Equal(t, rec.TargetURL, snapshot.TargetURL)
	assert.Equal(t, rec.Method, snapshot.Method)
	assert.Equal(t, rec.Headers, snapshot.Headers)
	require.NotNil(t, snapshot.Result)
	assert.True(t, snapshot.Result.Success)
}

func TestTracker_LastWriteWins(t *testing.T) {
	tracker := NewTracker()

	first := sampleRecord()
	first.TargetURL = "http://first/metrics/job/a"
	tracker.Record(first)

	second := sampleRecord()
	second.TargetURL = "http://second/metrics/job/b"
	tracker.Record(second)

	assert.Equal(t, "http://second/metrics/job/b", tracker.Snapshot().TargetURL)
}

func TestTracker_TruncatesRawData(t *testing.T) {
	tracker := NewTracker()
	rec := sampleRecord()
	rec.RawData = strings.Repeat("A", 250)
	tracker.Record(rec)

	got := tracker.Snapshot().RawData
	assert.Equal(t, 103, len(got))
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestTracker_ShortRawDataKeptVerbatim(t *testing.T) {
	tracker := NewTracker()
	rec := sampleRecord()
	tracker.Record(rec)

	assert.Equal(t, "Zm9vIDEK", tracker.Snapshot().RawData)
}

func TestTracker_Clear(t *testing.T) {
	tracker := NewTracker()
	tracker.Record(sampleRecord())
	tracker.Clear()

	snapshot := tracker.Snapshot()
	assert.False(t, snapshot.Recorded())
	assert.Empty(t, snapshot.TargetURL)
	assert.Nil(t, snapshot.Result)
}

func TestTracker_SnapshotIsolation(t *testing.T) {
	tracker := NewTracker()
	tracker.Record(sampleRecord())

	snapshot := tracker.Snapshot()
	snapshot.Headers["Content-Type"] = "mutated"
	snapshot.Result.Success = false

	fresh := tracker.Snapshot()
	assert.Equal(t, "text/plain", fresh.Headers["Content-Type"], "snapshot mutation must not reach shared state")
	assert.True(t, fresh.Result.Success)
}

func TestTracker_ConcurrentAccess(t *testing.T) {
	tracker := NewTracker()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			rec := sampleRecord()
			rec.TargetURL = fmt.Sprintf("http://gw/metrics/job/%d", n)
			tracker.Record(rec)
		}(i)
		go func() {
			defer wg.Done()
			snapshot := tracker.Snapshot()
			if snapshot.Recorded() {
				// A reader must never observe a torn record: a recorded
				// transaction always carries its result.
				assert.NotNil(t, snapshot.Result)
			}
		}()
	}
	wg.Wait()
}
