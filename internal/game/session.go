package game

import (
	"fmt"
	"sync"
	"time"
)

// ErrDoorOutOfRange is returned when a request names a door the current rule
// set does not have.
var ErrDoorOutOfRange = fmt.Errorf("door id out of range")

// Session holds the state of the single active run: the installed door laws,
// the progress pointer, per-door hint usage, and the wish history fed back to
// the judgment model. There is exactly one session per server process; all
// methods are safe for concurrent use.
type Session struct {
	mu         sync.Mutex
	doors      []DoorLaw
	current    int // 1-based; current > len(doors) once the run is complete
	hintLevels map[int]int
	history    []string
	completed  bool
	startedAt  time.Time
}

// NewSession creates a session with no rules installed. SetRules must run
// before wishes can be judged.
func NewSession() *Session {
	return &Session{
		current:    1,
		hintLevels: make(map[int]int),
		startedAt:  time.Now(),
	}
}

// SetRules installs a fresh rule set and rewinds the door pointer and hint
// counters. Wish history survives so the judge keeps seeing what was already
// tried this evening; Reset clears it.
func (s *Session) SetRules(doors []DoorLaw) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doors = append([]DoorLaw(nil), doors...)
	s.current = 1
	s.hintLevels = make(map[int]int)
	s.completed = false
}

// Rules returns a copy of the installed door laws.
func (s *Session) Rules() []DoorLaw {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]DoorLaw(nil), s.doors...)
}

// HasRules reports whether a rule set is installed.
func (s *Session) HasRules() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.doors) > 0
}

// Law returns the law text for the given 1-based door id.
func (s *Session) Law(doorID int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doorID < 1 || doorID > len(s.doors) {
		return "", fmt.Errorf("%w: %d of %d", ErrDoorOutOfRange, doorID, len(s.doors))
	}
	return s.doors[doorID-1].Law, nil
}

// Hint returns the next clue for the given door and advances that door's hint
// level. Once the ladder is exhausted the bluntest clue repeats; remaining is
// then zero.
func (s *Session) Hint(doorID int) (clue string, level, remaining int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doorID < 1 || doorID > len(s.doors) {
		return "", 0, 0, fmt.Errorf("%w: %d of %d", ErrDoorOutOfRange, doorID, len(s.doors))
	}
	clues := s.doors[doorID-1].Clues
	if len(clues) == 0 {
		return "", 0, 0, fmt.Errorf("door %d has no clues", doorID)
	}

	level = s.hintLevels[doorID]
	if level >= len(clues) {
		level = len(clues) - 1
	} else {
		s.hintLevels[doorID] = level + 1
	}
	remaining = len(clues) - 1 - level
	return clues[level], level, remaining, nil
}

// CurrentDoor returns the 1-based id of the door currently being attempted.
// After the final door opens it equals DoorCount and Completed is true.
func (s *Session) CurrentDoor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completed {
		return len(s.doors)
	}
	return s.current
}

// Completed reports whether every door has been opened.
func (s *Session) Completed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed
}

// DoorCount returns the number of installed doors.
func (s *Session) DoorCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.doors)
}

// RecordWish appends a judged wish to the history and, when opened is true,
// advances the door pointer. It returns the door the player now faces and
// whether that advance completed the run. The append and the advance share
// one critical section so concurrent wishes cannot interleave between them.
func (s *Session) RecordWish(object string, doorID int, opened bool) (nextDoor int, justCompleted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, object)
	if opened && !s.completed && doorID == s.current {
		if s.current >= len(s.doors) {
			s.completed = true
			justCompleted = true
		} else {
			s.current++
		}
	}
	if s.completed {
		return len(s.doors), justCompleted
	}
	return s.current, justCompleted
}

// History returns a copy of all judged wish objects so far, oldest first.
func (s *Session) History() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.history...)
}

// Reset rewinds the run to its initial state: pointer back to door one,
// hint counters and history cleared. The installed rules survive; callers
// wanting fresh laws regenerate them explicitly.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = 1
	s.hintLevels = make(map[int]int)
	s.history = nil
	s.completed = false
	s.startedAt = time.Now()
}

// Snapshot is a point-in-time view of the session for health and debug
// surfaces.
type Snapshot struct {
	DoorCount   int       `json:"door_count"`
	CurrentDoor int       `json:"current_door"`
	Completed   bool      `json:"completed"`
	Wishes      int       `json:"wishes"`
	StartedAt   time.Time `json:"started_at"`
}

// Snapshot returns the current session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.current
	if s.completed {
		cur = len(s.doors)
	}
	return Snapshot{
		DoorCount:   len(s.doors),
		CurrentDoor: cur,
		Completed:   s.completed,
		Wishes:      len(s.history),
		StartedAt:   s.startedAt,
	}
}
