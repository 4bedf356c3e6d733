// Package protocol defines the fixed layout of the shared snapshot region and
// the two-flag handshake producer and consumer follow to access it.
//
// The region is a flat array of 4-byte native-endian words:
//
//	producer_writing, consumer_writing            int32, owner-exclusive
//	player_x .. player_rot                        float32, producer -> consumer
//	gravity, is_on_ground, is_dead, is_terminal   int32,   producer -> consumer
//	percent, dist_nearest_hazard, dist_nearest_solid  float32
//	player_mode (int32), player_speed (float32)
//	objects[30] { offset_x, offset_y, width, height float32; category int32 }
//	action_command                                int32, consumer -> producer
//	reset_command, checkpoint_command             int32, one-shot, consumer sets, producer clears
//
// Synchronization is best effort. Each side raises its own flag while it
// touches its data and waits, for a bounded number of polls, for the other
// flag to drop. A stalled peer can therefore still cause a torn read; every
// word is individually atomic but the snapshot as a whole is not. Consumers
// must tolerate an occasional inconsistent frame.
package protocol

import "strconv"

// MaxObjects is the fixed capacity of the object slot table.
const MaxObjects = 30

// slotWords is the number of words per object slot.
const slotWords = 5

// Word indices into the region.
const (
	wProducerWriting = iota
	wConsumerWriting
	wPlayerX
	wPlayerY
	wPlayerVelX
	wPlayerVelY
	wPlayerRot
	wGravity
	wOnGround
	wIsDead
	wIsTerminal
	wPercent
	wNearestHazard
	wNearestSolid
	wPlayerMode
	wPlayerSpeed
	wObjects
)

const (
	wActionCommand = wObjects + MaxObjects*slotWords + iota
	wResetCommand
	wCheckpointCommand

	// WordCount is the number of 4-byte words in the region.
	WordCount
)

// Size is the size of the region in bytes.
const Size = WordCount * 4

// Direction describes which side owns a field.
type Direction string

const (
	DirOwner    Direction = "owner-exclusive"
	DirProducer Direction = "producer->consumer"
	DirConsumer Direction = "consumer->producer"
	DirOneShot  Direction = "consumer sets, producer clears"
)

// Field describes one entry of the region layout.
type Field struct {
	Name      string
	Offset    int // byte offset
	Type      string
	Direction Direction
}

// Layout returns the full field table of the region, slots expanded.
func Layout() []Field {
	fields := []Field{
		{"producer_writing", wProducerWriting * 4, "int32", DirOwner},
		{"consumer_writing", wConsumerWriting * 4, "int32", DirOwner},
		{"player_x", wPlayerX * 4, "float32", DirProducer},
		{"player_y", wPlayerY * 4, "float32", DirProducer},
		{"player_vel_x", wPlayerVelX * 4, "float32", DirProducer},
		{"player_vel_y", wPlayerVelY * 4, "float32", DirProducer},
		{"player_rot", wPlayerRot * 4, "float32", DirProducer},
		{"gravity", wGravity * 4, "int32", DirProducer},
		{"is_on_ground", wOnGround * 4, "int32", DirProducer},
		{"is_dead", wIsDead * 4, "int32", DirProducer},
		{"is_terminal", wIsTerminal * 4, "int32", DirProducer},
		{"percent", wPercent * 4, "float32", DirProducer},
		{"dist_nearest_hazard", wNearestHazard * 4, "float32", DirProducer},
		{"dist_nearest_solid", wNearestSolid * 4, "float32", DirProducer},
		{"player_mode", wPlayerMode * 4, "int32", DirProducer},
		{"player_speed", wPlayerSpeed * 4, "float32", DirProducer},
	}

	slotFields := []struct {
		name string
		typ  string
	}{
		{"offset_x", "float32"},
		{"offset_y", "float32"},
		{"width", "float32"},
		{"height", "float32"},
		{"category", "int32"},
	}
	for i := 0; i < MaxObjects; i++ {
		base := wObjects + i*slotWords
		for j, sf := range slotFields {
			fields = append(fields, Field{
				Name:      "objects[" + strconv.Itoa(i) + "]." + sf.name,
				Offset:    (base + j) * 4,
				Type:      sf.typ,
				Direction: DirProducer,
			})
		}
	}

	return append(fields,
		Field{"action_command", wActionCommand * 4, "int32", DirConsumer},
		Field{"reset_command", wResetCommand * 4, "int32", DirOneShot},
		Field{"checkpoint_command", wCheckpointCommand * 4, "int32", DirOneShot},
	)
}
