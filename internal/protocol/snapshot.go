package protocol

// Category is the reward-relevant class of an object slot.
type Category int32

const (
	CategoryEmpty      Category = -1
	CategoryDecoration Category = 0 // never published, excluded from the slot table
	CategoryHazard     Category = 1
	CategorySolid      Category = 2
	CategoryPortal     Category = 5
)

// String returns a human-readable name for the category.
func (c Category) String() string {
	switch c {
	case CategoryEmpty:
		return "empty"
	case CategoryDecoration:
		return "decoration"
	case CategoryHazard:
		return "hazard"
	case CategorySolid:
		return "solid"
	case CategoryPortal:
		return "portal"
	default:
		return "unknown"
	}
}

// Mode is the player's vehicle mode.
type Mode int32

const (
	ModeCube Mode = iota
	ModeShip
	ModeBall
	ModeUFO
	ModeWave
	ModeRobot
	ModeSpider
)

// String returns a human-readable name for the mode.
func (m Mode) String() string {
	switch m {
	case ModeCube:
		return "cube"
	case ModeShip:
		return "ship"
	case ModeBall:
		return "ball"
	case ModeUFO:
		return "ufo"
	case ModeWave:
		return "wave"
	case ModeRobot:
		return "robot"
	case ModeSpider:
		return "spider"
	default:
		return "unknown"
	}
}

// Sentinel marks "nothing in range" for distances and empty slots.
// Consumers must not treat it as a literal distance.
const Sentinel float32 = 9999

// ObjectSlot is one world object relative to the player at snapshot time.
type ObjectSlot struct {
	OffsetX  float32 // object min x - player max x, positive = ahead
	OffsetY  float32 // object mid y - player mid y
	Width    float32
	Height   float32
	Category Category
}

// EmptySlot is the exact padding value of unused slots.
var EmptySlot = ObjectSlot{OffsetX: Sentinel, Category: CategoryEmpty}

// IsEmpty reports whether the slot is padding.
func (s ObjectSlot) IsEmpty() bool {
	return s == EmptySlot
}

// Snapshot is one frame's complete published world state.
type Snapshot struct {
	PlayerX  float32
	PlayerY  float32
	VelX     float32 // derived from the position delta, not the host's value
	VelY     float32
	Rotation float32
	Gravity  int32 // +1 normal, -1 upside down
	OnGround bool
	Dead     bool // native death or stuck death
	Terminal bool // dead or level complete
	Percent  float32
	Hazard   float32 // nearest forward hazard distance or Sentinel
	Solid    float32 // nearest forward solid distance or Sentinel
	Mode     Mode
	Speed    float32
	Objects  [MaxObjects]ObjectSlot
}

// ObjectCount returns the number of non-padding slots.
func (s *Snapshot) ObjectCount() int {
	n := 0
	for _, o := range s.Objects {
		if o.IsEmpty() {
			break
		}
		n++
	}
	return n
}

// CommandState is the consumer-to-producer intent.
type CommandState struct {
	Action     int32 // 0 = release, 1 = press, level-triggered
	Reset      bool  // one-shot
	Checkpoint bool  // one-shot, honored only in checkpoint-capable mode
}

func writeSnapshot(w words, s *Snapshot) {
	w.storeF(wPlayerX, s.PlayerX)
	w.storeF(wPlayerY, s.PlayerY)
	w.storeF(wPlayerVelX, s.VelX)
	w.storeF(wPlayerVelY, s.VelY)
	w.storeF(wPlayerRot, s.Rotation)
	w.storeI(wGravity, s.Gravity)
	w.storeB(wOnGround, s.OnGround)
	w.storeB(wIsDead, s.Dead)
	w.storeB(wIsTerminal, s.Terminal)
	w.storeF(wPercent, s.Percent)
	w.storeF(wNearestHazard, s.Hazard)
	w.storeF(wNearestSolid, s.Solid)
	w.storeI(wPlayerMode, int32(s.Mode))
	w.storeF(wPlayerSpeed, s.Speed)

	for i := range s.Objects {
		base := wObjects + i*slotWords
		o := &s.Objects[i]
		w.storeF(base, o.OffsetX)
		w.storeF(base+1, o.OffsetY)
		w.storeF(base+2, o.Width)
		w.storeF(base+3, o.Height)
		w.storeI(base+4, int32(o.Category))
	}
}

func readSnapshot(w words, s *Snapshot) {
	s.PlayerX = w.loadF(wPlayerX)
	s.PlayerY = w.loadF(wPlayerY)
	s.VelX = w.loadF(wPlayerVelX)
	s.VelY = w.loadF(wPlayerVelY)
	s.Rotation = w.loadF(wPlayerRot)
	s.Gravity = w.loadI(wGravity)
	s.OnGround = w.loadB(wOnGround)
	s.Dead = w.loadB(wIsDead)
	s.Terminal = w.loadB(wIsTerminal)
	s.Percent = w.loadF(wPercent)
	s.Hazard = w.loadF(wNearestHazard)
	s.Solid = w.loadF(wNearestSolid)
	s.Mode = Mode(w.loadI(wPlayerMode))
	s.Speed = w.loadF(wPlayerSpeed)

	for i := range s.Objects {
		base := wObjects + i*slotWords
		o := &s.Objects[i]
		o.OffsetX = w.loadF(base)
		o.OffsetY = w.loadF(base + 1)
		o.Width = w.loadF(base + 2)
		o.Height = w.loadF(base + 3)
		o.Category = Category(w.loadI(base + 4))
	}
}
