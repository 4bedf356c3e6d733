package protocol

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mouradboutrid/geometry-dash-RL/internal/shm"
)

func newPair(t *testing.T) (*Producer, *Consumer, *shm.Region) {
	t.Helper()
	mem := shm.NewMemory("test", Size)
	p, err := NewProducer(mem, 0)
	require.NoError(t, err)
	c, err := NewConsumer(mem, 0)
	require.NoError(t, err)
	p.Clear()
	return p, c, mem
}

func TestLayoutSize(t *testing.T) {
	assert.Equal(t, 169, WordCount)
	assert.Equal(t, 676, Size)

	fields := Layout()
	require.Len(t, fields, WordCount)

	byName := map[string]Field{}
	for i, f := range fields {
		assert.Equal(t, i*4, f.Offset, "field %s", f.Name)
		byName[f.Name] = f
	}
	assert.Equal(t, 64, byName["objects[0].offset_x"].Offset)
	assert.Equal(t, 660, byName["objects[29].category"].Offset)
	assert.Equal(t, 664, byName["action_command"].Offset)
	assert.Equal(t, DirOneShot, byName["checkpoint_command"].Direction)
}

func TestNewProducerRejectsSmallRegion(t *testing.T) {
	_, err := NewProducer(shm.NewMemory("small", 64), 0)
	assert.Error(t, err)
	_, err = NewConsumer(nil, 0)
	assert.Error(t, err)
}

func TestClearPublishesEmptyTable(t *testing.T) {
	_, c, _ := newPair(t)

	var s Snapshot
	assert.True(t, c.Read(&s))
	assert.Equal(t, Sentinel, s.Hazard)
	assert.Equal(t, Sentinel, s.Solid)
	assert.Equal(t, 0, s.ObjectCount())
	for _, o := range s.Objects {
		assert.Equal(t, EmptySlot, o)
	}
}

func TestRoundTrip(t *testing.T) {
	p, c, _ := newPair(t)

	want := Snapshot{
		PlayerX: 100, PlayerY: 105, VelX: 625, VelY: -3.5, Rotation: 90,
		Gravity: -1, OnGround: true, Percent: 10, Hazard: 30, Solid: 10,
		Mode: ModeShip, Speed: 1.1,
	}
	for i := range want.Objects {
		want.Objects[i] = EmptySlot
	}
	want.Objects[0] = ObjectSlot{OffsetX: 10, OffsetY: -2, Width: 30, Height: 30, Category: CategorySolid}
	want.Objects[1] = ObjectSlot{OffsetX: 30, OffsetY: 0, Width: 30, Height: 30, Category: CategoryHazard}

	assert.True(t, p.Publish(&want))

	var got Snapshot
	assert.True(t, c.Read(&got))
	assert.Equal(t, want, got)
	assert.Equal(t, 2, got.ObjectCount())
	assert.Equal(t, uint64(1), p.Stats().Published)
}

func TestActionIsLevelTriggered(t *testing.T) {
	p, c, _ := newPair(t)

	c.WriteAction(1)
	assert.Equal(t, int32(1), p.Action())
	assert.Equal(t, int32(1), p.Action(), "reading does not consume the action")

	c.WriteAction(0)
	assert.Equal(t, int32(0), p.Action())
}

func TestResetIsOneShot(t *testing.T) {
	p, c, mem := newPair(t)
	obs, err := NewObserver(mem, 0)
	require.NoError(t, err)

	c.WriteAction(1)
	c.SendReset()
	assert.Equal(t, int32(0), p.Action(), "reset releases the button")
	assert.True(t, obs.Commands().Reset)

	resets := 0
	for frame := 0; frame < 5; frame++ {
		if p.TakeReset() {
			resets++
		}
		assert.False(t, obs.Commands().Reset, "flag reads 0 after cycle %d", frame)
	}
	assert.Equal(t, 1, resets)
	assert.Equal(t, uint64(1), p.Stats().Resets)
}

func TestCheckpointIsOneShot(t *testing.T) {
	p, c, _ := newPair(t)

	c.SendCheckpoint()
	assert.True(t, p.TakeCheckpoint())
	assert.False(t, p.TakeCheckpoint())
}

func TestExchange(t *testing.T) {
	p, c, _ := newPair(t)

	s := Snapshot{Hazard: 40, Solid: Sentinel}
	for i := range s.Objects {
		s.Objects[i] = EmptySlot
	}
	p.Publish(&s)

	var seen Snapshot
	c.Exchange(&seen, func(s *Snapshot) CommandState {
		if s.Hazard < 50 {
			return CommandState{Action: 1}
		}
		return CommandState{}
	})
	assert.Equal(t, float32(40), seen.Hazard)
	assert.Equal(t, int32(1), p.Action())
	assert.False(t, p.TakeReset())

	c.Exchange(&seen, func(*Snapshot) CommandState {
		return CommandState{Action: 1, Reset: true, Checkpoint: true}
	})
	assert.Equal(t, int32(0), p.Action(), "reset wins over the action")
	assert.True(t, p.TakeReset())
	assert.True(t, p.TakeCheckpoint())
}

func TestPublishGivesUpOnStalledConsumer(t *testing.T) {
	mem := shm.NewMemory("test", Size)
	p, err := NewProducer(mem, 100)
	require.NoError(t, err)

	// A consumer that crashed mid-read leaves its flag raised.
	mem.Words()[wConsumerWriting] = 1

	s := Snapshot{Percent: 42}
	assert.False(t, p.Publish(&s))
	assert.Equal(t, uint64(1), p.Stats().SpinTimeout)

	obs, err := NewObserver(mem, 0)
	require.NoError(t, err)
	var got Snapshot
	assert.True(t, obs.Peek(&got))
	assert.Equal(t, float32(42), got.Percent)
	_, consumer := obs.Flags()
	assert.True(t, consumer, "observers never touch the consumer flag")
}

func TestReadGivesUpOnStalledProducer(t *testing.T) {
	mem := shm.NewMemory("test", Size)
	c, err := NewConsumer(mem, 10)
	require.NoError(t, err)

	mem.Words()[wProducerWriting] = 1

	var s Snapshot
	assert.False(t, c.Read(&s))
	assert.Equal(t, uint32(0), mem.Words()[wConsumerWriting], "flag released after the read")
}

func TestConcurrentFieldsNeverTear(t *testing.T) {
	p, c, _ := newPair(t)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		var s Snapshot
		for i := 0; i < 2000; i++ {
			s.PlayerX = float32(i)
			s.Percent = float32(i) / 10
			p.Publish(&s)
		}
	}()

	var s Snapshot
	for i := 0; i < 2000; i++ {
		c.Read(&s)
		assert.GreaterOrEqual(t, s.PlayerX, float32(0))
		assert.Less(t, s.PlayerX, float32(2000))
	}
	wg.Wait()
}
