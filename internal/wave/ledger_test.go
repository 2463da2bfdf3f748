package wave

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mantelijo/waveportal/internal/chain"
)

func TestEventLedgerLoadHistorical(t *testing.T) {
	l := NewEventLedger()

	l.LoadHistorical([]chain.WaveRecord{
		rec(bob, t2, "yo", ""),
		rec(alice, t1, "hi", chain.OriginLive),
	})

	// Chain order is kept, not sorted by time
	assert.Equal(t, []chain.WaveRecord{
		rec(bob, t2, "yo", chain.OriginHistorical),
		rec(alice, t1, "hi", chain.OriginHistorical),
	}, l.Records())

	l.LoadHistorical([]chain.WaveRecord{rec(alice, t1, "hi", "")})
	assert.Equal(t, []chain.WaveRecord{
		rec(alice, t1, "hi", chain.OriginHistorical),
	}, l.Records())
}

func TestEventLedgerAppendLive(t *testing.T) {
	tests := []struct {
		name       string
		historical []chain.WaveRecord
		live       []chain.WaveRecord
		want       []chain.WaveRecord
		wantRes    []AppendResult
	}{
		{
			name:       "appends after historical",
			historical: []chain.WaveRecord{rec(alice, t1, "hi", "")},
			live:       []chain.WaveRecord{rec(bob, t2, "yo", "")},
			want: []chain.WaveRecord{
				rec(alice, t1, "hi", chain.OriginHistorical),
				rec(bob, t2, "yo", chain.OriginLive),
			},
			wantRes: []AppendResult{Appended},
		},
		{
			name:       "drops live duplicate of historical",
			historical: []chain.WaveRecord{rec(alice, t1, "hi", "")},
			live:       []chain.WaveRecord{rec(strings.ToLower(alice), t1, "hi", "")},
			want: []chain.WaveRecord{
				rec(alice, t1, "hi", chain.OriginHistorical),
			},
			wantRes: []AppendResult{Duplicate},
		},
		{
			name: "drops repeated live events",
			live: []chain.WaveRecord{
				rec(bob, t2, "yo", ""),
				rec(bob, t2, "yo", ""),
				rec(bob, t3, "yo", ""),
			},
			want: []chain.WaveRecord{
				rec(bob, t2, "yo", chain.OriginLive),
				rec(bob, t3, "yo", chain.OriginLive),
			},
			wantRes: []AppendResult{Appended, Duplicate, Appended},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewEventLedger()
			l.LoadHistorical(tt.historical)

			got := make([]AppendResult, 0)
			for _, r := range tt.live {
				got = append(got, l.AppendLive(r))
			}

			assert.Equal(t, tt.wantRes, got)
			assert.Equal(t, tt.want, l.Records())
		})
	}
}

func TestEventLedgerAppendLiveNeverDuplicates(t *testing.T) {
	l := NewEventLedger()
	l.LoadHistorical([]chain.WaveRecord{rec(alice, t1, "hi", "")})

	events := []chain.WaveRecord{
		rec(alice, t1, "hi", ""),
		rec(bob, t2, "yo", ""),
		rec(alice, t2, "hi", ""),
		rec(bob, t2, "yo", ""),
		rec(alice, t1, "hi", ""),
		rec(bob, t2, "yo!", ""),
	}
	for _, e := range events {
		l.AppendLive(e)
	}

	seen := make(map[chain.RecordKey]bool)
	for _, r := range l.Records() {
		assert.False(t, seen[r.Key()], "duplicate record %v", r)
		seen[r.Key()] = true
	}
	assert.Equal(t, 4, l.Len())
}

func TestEventLedgerPendingSupersession(t *testing.T) {
	l := NewEventLedger()
	l.LoadHistorical([]chain.WaveRecord{rec(bob, t1, "yo", "")})

	l.AddPending("p1", rec(alice, t2, "hello", chain.OriginLive))
	l.AppendLive(rec(bob, t2, "later", ""))

	assert.Equal(t, chain.OriginPendingLocal, l.Records()[1].Origin)

	res := l.AppendLive(rec(strings.ToLower(alice), t3, "hello", ""))
	assert.Equal(t, Superseded, res)

	assert.Equal(t, []chain.WaveRecord{
		rec(bob, t1, "yo", chain.OriginHistorical),
		rec(strings.ToLower(alice), t3, "hello", chain.OriginLive),
		rec(bob, t2, "later", chain.OriginLive),
	}, l.Records())

	assert.False(t, l.RemovePending("p1"))
}

func TestEventLedgerPendingIgnoresOtherSenders(t *testing.T) {
	l := NewEventLedger()
	l.AddPending("p1", rec(alice, t1, "hello", ""))

	res := l.AppendLive(rec(bob, t2, "hello", ""))

	assert.Equal(t, Appended, res)
	assert.Equal(t, 2, l.Len())
	assert.Equal(t, chain.OriginPendingLocal, l.Records()[0].Origin)
}

func TestEventLedgerPendingNeverSupersedesHistorical(t *testing.T) {
	l := NewEventLedger()
	l.LoadHistorical([]chain.WaveRecord{rec(alice, t1, "hello", "")})

	l.AddPending("p1", rec(alice, t1, "hello", ""))

	assert.Equal(t, []chain.WaveRecord{
		rec(alice, t1, "hello", chain.OriginHistorical),
		rec(alice, t1, "hello", chain.OriginPendingLocal),
	}, l.Records())
}

func TestEventLedgerRemovePending(t *testing.T) {
	l := NewEventLedger()
	l.LoadHistorical([]chain.WaveRecord{rec(bob, t1, "yo", "")})
	before := l.Records()

	l.AddPending("p1", rec(alice, t2, "hello", ""))
	assert.Equal(t, 2, l.Len())

	assert.True(t, l.RemovePending("p1"))
	assert.Equal(t, before, l.Records())
	assert.False(t, l.RemovePending("p1"))
}

func TestEventLedgerSupersedePending(t *testing.T) {
	t.Run("replaces placeholder in place", func(t *testing.T) {
		l := NewEventLedger()
		l.AddPending("p1", rec(alice, t1, "hello", ""))
		l.AppendLive(rec(bob, t2, "yo", ""))

		res := l.SupersedePending("p1", rec(alice, t3, "hello", ""))

		assert.Equal(t, Superseded, res)
		assert.Equal(t, []chain.WaveRecord{
			rec(alice, t3, "hello", chain.OriginLive),
			rec(bob, t2, "yo", chain.OriginLive),
		}, l.Records())

		// The live event arriving later is a duplicate
		assert.Equal(t, Duplicate, l.AppendLive(rec(alice, t3, "hello", "")))
		assert.Equal(t, 2, l.Len())
	})

	t.Run("removes placeholder when record already known", func(t *testing.T) {
		l := NewEventLedger()
		l.AddPending("p1", rec(alice, t1, "hello", ""))
		l.AppendLive(rec(bob, t3, "hello", ""))
		l.LoadHistorical([]chain.WaveRecord{rec(alice, t2, "hello", "")})

		res := l.SupersedePending("p1", rec(alice, t2, "hello", ""))

		assert.Equal(t, Duplicate, res)
		assert.Equal(t, []chain.WaveRecord{
			rec(alice, t2, "hello", chain.OriginHistorical),
			rec(bob, t3, "hello", chain.OriginLive),
		}, l.Records())
	})
}

func TestEventLedgerResolvePending(t *testing.T) {
	confirmed := rec(alice, t3, "hello", "")

	tests := []struct {
		name string
		// Called between the mark and the placeholder
		early     func(l *EventLedger)
		confirmed *chain.WaveRecord
		apply     bool
		want      AppendResult
		wantOut   []chain.WaveRecord
	}{
		{
			name:      "wave not arrived, kept for the live feed",
			confirmed: &confirmed,
			want:      Unchanged,
			wantOut: []chain.WaveRecord{
				rec(bob, t1, "yo", chain.OriginHistorical),
				rec(alice, t2, "hello", chain.OriginPendingLocal),
			},
		},
		{
			name:      "wave not arrived, applied from receipt",
			confirmed: &confirmed,
			apply:     true,
			want:      Superseded,
			wantOut: []chain.WaveRecord{
				rec(bob, t1, "yo", chain.OriginHistorical),
				rec(alice, t3, "hello", chain.OriginLive),
			},
		},
		{
			name: "live event before placeholder, matched by key",
			early: func(l *EventLedger) {
				l.AppendLive(rec(alice, t3, "hello", ""))
			},
			confirmed: &confirmed,
			want:      Duplicate,
			wantOut: []chain.WaveRecord{
				rec(bob, t1, "yo", chain.OriginHistorical),
				rec(alice, t3, "hello", chain.OriginLive),
			},
		},
		{
			name: "live event before placeholder, matched by account and message",
			early: func(l *EventLedger) {
				l.AppendLive(rec(strings.ToLower(alice), t3, "hello", ""))
			},
			want: Duplicate,
			wantOut: []chain.WaveRecord{
				rec(bob, t1, "yo", chain.OriginHistorical),
				rec(strings.ToLower(alice), t3, "hello", chain.OriginLive),
			},
		},
		{
			name: "other sender does not match",
			early: func(l *EventLedger) {
				l.AppendLive(rec(bob, t3, "hello", ""))
			},
			want: Unchanged,
			wantOut: []chain.WaveRecord{
				rec(bob, t1, "yo", chain.OriginHistorical),
				rec(bob, t3, "hello", chain.OriginLive),
				rec(alice, t2, "hello", chain.OriginPendingLocal),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewEventLedger()
			l.LoadHistorical([]chain.WaveRecord{rec(bob, t1, "yo", "")})

			mark := l.Mark()
			if tt.early != nil {
				tt.early(l)
			}
			l.AddPending("p1", rec(alice, t2, "hello", ""))

			assert.Equal(t, tt.want, l.ResolvePending("p1", mark, tt.confirmed, tt.apply))
			assert.Equal(t, tt.wantOut, l.Records())
		})
	}

	t.Run("older matching wave does not count", func(t *testing.T) {
		l := NewEventLedger()
		l.AppendLive(rec(alice, t1, "hello", ""))

		mark := l.Mark()
		l.AddPending("p1", rec(alice, t2, "hello", ""))

		assert.Equal(t, Unchanged, l.ResolvePending("p1", mark, nil, true))
		assert.Equal(t, 2, l.Len())
	})

	t.Run("placeholder already superseded", func(t *testing.T) {
		l := NewEventLedger()
		mark := l.Mark()
		l.AddPending("p1", rec(alice, t2, "hello", ""))
		require.Equal(t, Superseded, l.AppendLive(confirmed))

		assert.Equal(t, Unchanged, l.ResolvePending("p1", mark, &confirmed, true))
		assert.Equal(t, []chain.WaveRecord{rec(alice, t3, "hello", chain.OriginLive)}, l.Records())
	})
}

func TestEventLedgerClear(t *testing.T) {
	l := NewEventLedger()
	l.LoadHistorical([]chain.WaveRecord{rec(alice, t1, "hi", "")})
	l.AppendLive(rec(bob, t2, "yo", ""))
	l.AddPending("p1", rec(alice, t3, "hey", ""))

	l.Clear()

	assert.Equal(t, 0, l.Len())
	assert.Empty(t, l.Records())
}
