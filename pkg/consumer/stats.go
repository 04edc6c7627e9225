package consumer

import "sync/atomic"

// Stats holds the operational counters §4.E and §7 require: processed,
// errors, and per-topic buffer depth.
type Stats struct {
	processed int64
	errors    int64
	buffers   map[string]*int64
}

func newStats(topics []string) *Stats {
	s := &Stats{buffers: make(map[string]*int64, len(topics))}
	for _, t := range topics {
		var v int64
		s.buffers[t] = &v
	}
	return s
}

func (s *Stats) incProcessed() { atomic.AddInt64(&s.processed, 1) }
func (s *Stats) incErrors()    { atomic.AddInt64(&s.errors, 1) }

func (s *Stats) setBuffer(topic string, depth int) {
	if p, ok := s.buffers[topic]; ok {
		atomic.StoreInt64(p, int64(depth))
	}
}

// Snapshot is a point-in-time read of the runtime's counters.
type Snapshot struct {
	Processed    int64
	Errors       int64
	BufferDepths map[string]int64
}

// Snapshot returns the current counter values.
func (s *Stats) Snapshot() Snapshot {
	depths := make(map[string]int64, len(s.buffers))
	for topic, p := range s.buffers {
		depths[topic] = atomic.LoadInt64(p)
	}
	return Snapshot{
		Processed:    atomic.LoadInt64(&s.processed),
		Errors:       atomic.LoadInt64(&s.errors),
		BufferDepths: depths,
	}
}
