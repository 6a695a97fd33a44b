// Package state holds the process-wide record of the most recent relay
// transaction, read by the status page.
package state

import (
	"sync"
	"time"
)

// maxRawDisplay bounds the base64 text kept for display.
const maxRawDisplay = 100

// Result is the recorded outcome of one transaction.
type Result struct {
	Success bool
	Status  string
	Message string
}

// TransactionRecord is a last-write-wins snapshot of the most recent
// transaction. Zero value means nothing has been recorded yet.
type TransactionRecord struct {
	Timestamp   time.Time
	TargetURL   string
	Method      string
	Headers     map[string]string
	RawData     string
	DecodedData string
	Result      *Result
}

// Recorded reports whether the record holds a real transaction.
func (r TransactionRecord) Recorded() bool {
	return !r.Timestamp.IsZero()
}

// Tracker owns the shared record. All access goes through its methods; update
// and read are each atomic so a concurrent reader never sees a torn record.
type Tracker struct {
	mu     sync.RWMutex
	record TransactionRecord
}

// NewTracker constructs an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Record atomically replaces the stored record. The base64 text is truncated
// for display.
func (t *Tracker) Record(rec TransactionRecord) {
	if len(rec.RawData) > maxRawDisplay {
		rec.RawData = rec.RawData[:maxRawDisplay] + "..."
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.record = rec
}

// Snapshot returns a copy of the current record. The headers map is copied so
// callers cannot mutate shared state.
func (t *Tracker) Snapshot() TransactionRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rec := t.record
	if rec.Headers != nil {
		headers := make(map[string]string, len(rec.Headers))
		for k, v := range rec.Headers {
			headers[k] = v
		}
		rec.Headers = headers
	}
	if rec.Result != nil {
		result := *rec.Result
		rec.Result = &result
	}
	return rec
}

// Clear atomically replaces the record with an empty one.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.record = TransactionRecord{}
}
