package protocol

import "runtime"

// DefaultConsumerSpin is the consumer's poll cap on producer_writing.
const DefaultConsumerSpin = 2000

// Consumer is the agent side of the handshake. It owns consumer_writing,
// action_command and the one-shot command requests.
//
// Reads are best effort: if the producer keeps its flag raised past the spin
// limit the consumer reads anyway and may see a torn snapshot. Each field is
// still read as a whole word.
type Consumer struct {
	w         words
	spinLimit int
	yield     func()
}

// NewConsumer binds a consumer to mem. A spinLimit <= 0 selects DefaultConsumerSpin.
// The consumer yields the processor between polls.
func NewConsumer(mem Memory, spinLimit int) (*Consumer, error) {
	w, err := viewOf(mem)
	if err != nil {
		return nil, err
	}
	if spinLimit <= 0 {
		spinLimit = DefaultConsumerSpin
	}
	return &Consumer{w: w, spinLimit: spinLimit, yield: runtime.Gosched}, nil
}

// begin waits for the producer and raises consumer_writing.
func (c *Consumer) begin() bool {
	_, clean := c.w.spinUntilClear(wProducerWriting, c.spinLimit, c.yield)
	c.w.store(wConsumerWriting, 1)
	return clean
}

func (c *Consumer) end() {
	c.w.store(wConsumerWriting, 0)
}

// Read copies the live snapshot into dst. It reports whether the producer
// flag was observed clear before reading.
func (c *Consumer) Read(dst *Snapshot) bool {
	clean := c.begin()
	readSnapshot(c.w, dst)
	c.end()
	return clean
}

// WriteAction sets the level-triggered action command (0 release, 1 press).
func (c *Consumer) WriteAction(action int32) {
	c.w.store(wConsumerWriting, 1)
	c.w.storeI(wActionCommand, action)
	c.end()
}

// SendReset requests a level reset and releases the button so the new
// attempt does not start with a held input.
func (c *Consumer) SendReset() {
	c.w.store(wConsumerWriting, 1)
	c.w.storeI(wResetCommand, 1)
	c.w.storeI(wActionCommand, 0)
	c.end()
}

// SendCheckpoint requests a checkpoint. The producer ignores it outside
// practice mode; success is only visible through later snapshots.
func (c *Consumer) SendCheckpoint() {
	c.w.store(wConsumerWriting, 1)
	c.w.storeI(wCheckpointCommand, 1)
	c.end()
}

// Exchange reads the snapshot into dst, calls decide and writes the returned
// commands, all inside one consumer_writing window. Reset and Checkpoint in
// the returned state only ever set their request; clearing is the producer's job.
func (c *Consumer) Exchange(dst *Snapshot, decide func(*Snapshot) CommandState) bool {
	clean := c.begin()
	readSnapshot(c.w, dst)

	cmd := decide(dst)
	c.w.storeI(wActionCommand, cmd.Action)
	if cmd.Reset {
		c.w.storeI(wResetCommand, 1)
		c.w.storeI(wActionCommand, 0)
	}
	if cmd.Checkpoint {
		c.w.storeI(wCheckpointCommand, 1)
	}

	c.end()
	return clean
}

// Observer reads the region without taking part in the handshake. It never
// writes, so any number of observers can watch alongside the real consumer.
type Observer struct {
	w         words
	spinLimit int
}

// NewObserver binds a read-only observer to mem.
func NewObserver(mem Memory, spinLimit int) (*Observer, error) {
	w, err := viewOf(mem)
	if err != nil {
		return nil, err
	}
	if spinLimit <= 0 {
		spinLimit = DefaultConsumerSpin
	}
	return &Observer{w: w, spinLimit: spinLimit}, nil
}

// Peek copies the snapshot into dst. It reports true when producer_writing
// was clear both before and after the copy.
func (o *Observer) Peek(dst *Snapshot) bool {
	_, clean := o.w.spinUntilClear(wProducerWriting, o.spinLimit, runtime.Gosched)
	readSnapshot(o.w, dst)
	return clean && o.w.load(wProducerWriting) == 0
}

// Commands returns the command words as currently stored.
func (o *Observer) Commands() CommandState {
	return CommandState{
		Action:     o.w.loadI(wActionCommand),
		Reset:      o.w.loadB(wResetCommand),
		Checkpoint: o.w.loadB(wCheckpointCommand),
	}
}

// Flags returns the raw producer_writing and consumer_writing values.
func (o *Observer) Flags() (producer, consumer bool) {
	return o.w.loadB(wProducerWriting), o.w.loadB(wConsumerWriting)
}
