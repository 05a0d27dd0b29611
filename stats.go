package mozlog

import "sync/atomic"

type stats struct {
	records      atomic.Uint64
	encodeErrors atomic.Uint64
	writeErrors  atomic.Uint64
}

// StatsSnapshot is a point-in-time counters snapshot.
type StatsSnapshot struct {
	Records      uint64
	EncodeErrors uint64
	WriteErrors  uint64
}

func (s *stats) snapshot() StatsSnapshot {
	return StatsSnapshot{
		Records:      s.records.Load(),
		EncodeErrors: s.encodeErrors.Load(),
		WriteErrors:  s.writeErrors.Load(),
	}
}

func (s *stats) reset() {
	s.records.Store(0)
	s.encodeErrors.Store(0)
	s.writeErrors.Store(0)
}
