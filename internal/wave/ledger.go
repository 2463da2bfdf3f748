package wave

import (
	"strings"
	"sync"

	"github.com/Mantelijo/waveportal/internal/chain"
)

type AppendResult int

const (
	// Appended means the record was added at the end of the ledger.
	Appended AppendResult = iota
	// Duplicate means a record with the same logical key was already present.
	Duplicate
	// Superseded means the record replaced a pending placeholder in place.
	Superseded
	// Unchanged means the ledger was left as it was.
	Unchanged
)

func (r AppendResult) Added() bool {
	return r == Appended || r == Superseded
}

type ledgerEntry struct {
	record chain.WaveRecord
	// Set for pending placeholders only
	pendingID string
	// Insertion sequence, kept on supersession
	seq uint64
}

// EventLedger is the ordered, de-duplicated set of waves known to the client
// for the current session. Order is insertion order; supersession replaces a
// placeholder at its position.
type EventLedger struct {
	mu      sync.Mutex
	entries []ledgerEntry
	seq     uint64
}

func NewEventLedger() *EventLedger {
	return &EventLedger{}
}

// LoadHistorical replaces the historical segment with records, in the given
// chain order, ahead of any live or pending entries.
func (l *EventLedger) LoadHistorical(records []chain.WaveRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := make([]ledgerEntry, 0, len(records)+len(l.entries))
	seen := make(map[chain.RecordKey]bool, len(records))
	for _, r := range records {
		if seen[r.Key()] {
			continue
		}
		seen[r.Key()] = true
		r.Origin = chain.OriginHistorical
		entries = append(entries, ledgerEntry{record: r, seq: l.nextSeqLocked()})
	}
	for _, e := range l.entries {
		if e.record.Origin == chain.OriginHistorical {
			continue
		}
		if e.pendingID == "" && seen[e.record.Key()] {
			continue
		}
		entries = append(entries, e)
	}
	l.entries = entries
}

// AppendLive adds a record delivered by the live feed. A record whose key is
// already present is dropped. A record matching a pending placeholder by
// account and message takes the placeholder's position.
func (l *EventLedger) AppendLive(record chain.WaveRecord) AppendResult {
	record.Origin = chain.OriginLive

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.indexOfKeyLocked(record.Key()) >= 0 {
		return Duplicate
	}
	if i := l.matchPendingLocked(record); i >= 0 {
		l.entries[i] = ledgerEntry{record: record, seq: l.entries[i].seq}
		return Superseded
	}
	l.entries = append(l.entries, ledgerEntry{record: record, seq: l.nextSeqLocked()})
	return Appended
}

// AddPending appends a local placeholder for a submitted wave. id identifies
// the placeholder for RemovePending and SupersedePending.
func (l *EventLedger) AddPending(id string, record chain.WaveRecord) {
	record.Origin = chain.OriginPendingLocal

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, ledgerEntry{record: record, pendingID: id, seq: l.nextSeqLocked()})
}

// Mark returns the current insertion sequence. Entries added later compare
// greater than it in ResolvePending.
func (l *EventLedger) Mark() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seq
}

// RemovePending drops the placeholder id. It reports false when the
// placeholder is gone, for example because a live event superseded it.
func (l *EventLedger) RemovePending(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOfPendingLocked(id)
	if i < 0 {
		return false
	}
	l.removeLocked(i)
	return true
}

// SupersedePending replaces the placeholder id with the confirmed record. If
// the confirmed record is already known the placeholder is simply removed.
func (l *EventLedger) SupersedePending(id string, record chain.WaveRecord) AppendResult {
	record.Origin = chain.OriginLive

	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOfPendingLocked(id)
	if l.indexOfKeyLocked(record.Key()) >= 0 {
		if i >= 0 {
			l.removeLocked(i)
		}
		return Duplicate
	}
	if i < 0 {
		l.entries = append(l.entries, ledgerEntry{record: record, seq: l.nextSeqLocked()})
		return Appended
	}
	l.entries[i] = ledgerEntry{record: record, seq: l.entries[i].seq}
	return Superseded
}

// ResolvePending settles the placeholder id of a confirmed submission.
//
// The placeholder is dropped when its wave already reached the ledger: by key
// when confirmed is known, otherwise by a live record from the same account
// with the same message inserted after since. When the wave has not arrived
// yet the placeholder is replaced by confirmed if apply is set and kept for
// the live feed otherwise.
func (l *EventLedger) ResolvePending(id string, since uint64, confirmed *chain.WaveRecord, apply bool) AppendResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOfPendingLocked(id)
	if i < 0 {
		return Unchanged
	}

	if confirmed != nil {
		record := *confirmed
		record.Origin = chain.OriginLive
		if l.indexOfKeyLocked(record.Key()) >= 0 {
			l.removeLocked(i)
			return Duplicate
		}
		if !apply {
			return Unchanged
		}
		l.entries[i] = ledgerEntry{record: record, seq: l.entries[i].seq}
		return Superseded
	}

	pending := l.entries[i].record
	for _, e := range l.entries {
		if e.pendingID != "" || e.seq <= since || e.record.Origin != chain.OriginLive {
			continue
		}
		if e.record.Message == pending.Message && strings.EqualFold(e.record.Address, pending.Address) {
			l.removeLocked(i)
			return Duplicate
		}
	}
	return Unchanged
}

// Clear empties the ledger.
func (l *EventLedger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}

// Records returns a copy of the ledger in order.
func (l *EventLedger) Records() []chain.WaveRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]chain.WaveRecord, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.record
	}
	return out
}

func (l *EventLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *EventLedger) nextSeqLocked() uint64 {
	l.seq++
	return l.seq
}

func (l *EventLedger) removeLocked(i int) {
	l.entries = append(l.entries[:i], l.entries[i+1:]...)
}

func (l *EventLedger) indexOfKeyLocked(key chain.RecordKey) int {
	for i, e := range l.entries {
		if e.pendingID == "" && e.record.Key() == key {
			return i
		}
	}
	return -1
}

// matchPendingLocked returns the oldest placeholder with the same account and
// message as record.
func (l *EventLedger) matchPendingLocked(record chain.WaveRecord) int {
	for i, e := range l.entries {
		if e.pendingID == "" {
			continue
		}
		if e.record.Message == record.Message && strings.EqualFold(e.record.Address, record.Address) {
			return i
		}
	}
	return -1
}

func (l *EventLedger) indexOfPendingLocked(id string) int {
	for i, e := range l.entries {
		if e.pendingID != "" && e.pendingID == id {
			return i
		}
	}
	return -1
}
