package component

// MaxObjectives bounds how many distinct objectives a mission tracks.
const MaxObjectives = 16

// ObjectiveOutcome is the settled result of one objective.
type ObjectiveOutcome struct {
	ObjectiveID uint32
	Status      ObjectiveStatus
}

// MissionProgress counts objective outcomes on a mission (level) entity.
// The first outcome recorded for an objective is final.
type MissionProgress struct {
	MissionID     uint32
	Completed     uint16
	Failed        uint16
	Required      uint16
	LastObjective uint32
	LastProgress  float32
	// Done is set once the mission-completed event has been emitted.
	Done bool

	outcomes [MaxObjectives]ObjectiveOutcome
	settled  uint8
}

// Outcome returns the settled status of objectiveID.
func (m *MissionProgress) Outcome(objectiveID uint32) (ObjectiveStatus, bool) {
	for _, o := range m.outcomes[:m.settled] {
		if o.ObjectiveID == objectiveID {
			return o.Status, true
		}
	}
	return ObjectiveActive, false
}

// Full reports whether no further objective can be settled.
func (m *MissionProgress) Full() bool { return int(m.settled) == MaxObjectives }

// Settle records status for objectiveID and updates the counters. It
// reports false, changing nothing, when the objective already has an
// outcome or the mission is full.
func (m *MissionProgress) Settle(objectiveID uint32, status ObjectiveStatus) bool {
	if status == ObjectiveActive || m.Full() {
		return false
	}
	if _, ok := m.Outcome(objectiveID); ok {
		return false
	}
	m.outcomes[m.settled] = ObjectiveOutcome{ObjectiveID: objectiveID, Status: status}
	m.settled++
	if status == ObjectiveComplete {
		m.Completed++
	} else {
		m.Failed++
	}
	m.LastObjective = objectiveID
	return true
}

// LevelStatus is the lifecycle of a level.
type LevelStatus uint8

const (
	LevelIdle LevelStatus = iota
	LevelRunning
	LevelCompleted
	LevelFailed
)

func (s LevelStatus) String() string {
	switch s {
	case LevelRunning:
		return "running"
	case LevelCompleted:
		return "completed"
	case LevelFailed:
		return "failed"
	default:
		return "idle"
	}
}

// LevelState is attached to a level entity.
type LevelState struct {
	LevelID  uint32
	Status   LevelStatus
	Attempts uint16
	BestTime float32
}

// MaxFragments bounds the fragments one collector can hold.
const MaxFragments = 32

// FragmentInventory tracks collected fragments on a collector. Each
// fragment ID counts once.
type FragmentInventory struct {
	Collected uint16
	// Total caps Collected; zero means MaxFragments.
	Total uint16
	// Threshold is the count at which resonance triggers.
	Threshold uint16
	Resonant  bool

	ids [MaxFragments]uint32
}

// Has reports whether fragmentID was already collected.
func (f *FragmentInventory) Has(fragmentID uint32) bool {
	for _, id := range f.ids[:f.Collected] {
		if id == fragmentID {
			return true
		}
	}
	return false
}

// Capacity is the effective cap on Collected.
func (f *FragmentInventory) Capacity() uint16 {
	if f.Total == 0 || f.Total > MaxFragments {
		return MaxFragments
	}
	return f.Total
}

// Add records fragmentID. It reports false for a duplicate or when the
// inventory is at capacity.
func (f *FragmentInventory) Add(fragmentID uint32) bool {
	if f.Collected >= f.Capacity() || f.Has(fragmentID) {
		return false
	}
	f.ids[f.Collected] = fragmentID
	f.Collected++
	return true
}

// CheckpointState records the last activated checkpoint of a player.
type CheckpointState struct {
	CheckpointID uint32
	Position     Vec3
	Activations  uint16
}

// Player tags the controllable entity.
type Player struct {
	Slot uint8
}

// ObjectiveMarker is set on a registered objective UI anchor.
type ObjectiveMarker struct {
	ObjectiveID uint32
	Status      ObjectiveStatus
	Progress    float32
}

// ObjectiveStatus is the UI-facing state of an objective.
type ObjectiveStatus uint8

const (
	ObjectiveActive ObjectiveStatus = iota
	ObjectiveComplete
	ObjectiveFailed
)

func (s ObjectiveStatus) String() string {
	switch s {
	case ObjectiveComplete:
		return "complete"
	case ObjectiveFailed:
		return "failed"
	default:
		return "active"
	}
}
