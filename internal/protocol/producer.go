package protocol

// DefaultProducerSpin is the producer's poll cap on consumer_writing.
const DefaultProducerSpin = 5000

// ProducerStats counts handshake outcomes since the producer attached.
type ProducerStats struct {
	Published   uint64 // snapshots written
	Contended   uint64 // publishes that found consumer_writing raised
	SpinTimeout uint64 // publishes that gave up waiting and wrote anyway
	Resets      uint64 // reset commands consumed
	Checkpoints uint64 // checkpoint commands consumed
}

// Producer is the simulation side of the handshake. It owns producer_writing
// and every snapshot field, and it is the only side that clears one-shot
// commands. A Producer is driven from the single frame loop and must not be
// shared between goroutines.
type Producer struct {
	w         words
	spinLimit int
	stats     ProducerStats
}

// NewProducer binds a producer to mem. A spinLimit <= 0 selects DefaultProducerSpin.
func NewProducer(mem Memory, spinLimit int) (*Producer, error) {
	w, err := viewOf(mem)
	if err != nil {
		return nil, err
	}
	if spinLimit <= 0 {
		spinLimit = DefaultProducerSpin
	}
	return &Producer{w: w, spinLimit: spinLimit}, nil
}

// Clear zeroes the whole region and publishes an empty slot table.
// Called once when the producer attaches.
func (p *Producer) Clear() {
	for i := range p.w {
		p.w.store(i, 0)
	}
	var empty Snapshot
	empty.Hazard = Sentinel
	empty.Solid = Sentinel
	for i := range empty.Objects {
		empty.Objects[i] = EmptySlot
	}
	writeSnapshot(p.w, &empty)
}

// TakeReset reports whether a reset was requested and clears the request
// in the same step, so it fires exactly once.
func (p *Producer) TakeReset() bool {
	if p.w.swap(wResetCommand, 0) == 0 {
		return false
	}
	p.stats.Resets++
	return true
}

// TakeCheckpoint reports whether a checkpoint was requested and clears the
// request. The caller decides whether the request can be honored; the flag
// is cleared either way.
func (p *Producer) TakeCheckpoint() bool {
	if p.w.swap(wCheckpointCommand, 0) == 0 {
		return false
	}
	p.stats.Checkpoints++
	return true
}

// Action returns the current level-triggered action command.
func (p *Producer) Action() int32 {
	return p.w.loadI(wActionCommand)
}

// Publish overwrites the live snapshot with s.
//
// It waits at most the spin limit for consumer_writing to drop and then
// writes regardless: a stalled or crashed consumer never holds up the frame.
// The return value reports whether the wait ended cleanly.
func (p *Producer) Publish(s *Snapshot) bool {
	polls, clean := p.w.spinUntilClear(wConsumerWriting, p.spinLimit, nil)
	if polls > 0 {
		p.stats.Contended++
	}
	if !clean {
		p.stats.SpinTimeout++
	}

	p.w.store(wProducerWriting, 1)
	writeSnapshot(p.w, s)
	p.w.store(wProducerWriting, 0)

	p.stats.Published++
	return clean
}

// Stats returns the handshake counters.
func (p *Producer) Stats() ProducerStats {
	return p.stats
}

// SpinLimit returns the configured poll cap.
func (p *Producer) SpinLimit() int {
	return p.spinLimit
}
