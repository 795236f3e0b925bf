package workspace

// RGB is a color triple, one byte per channel.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Hint is one user-placed colorization instruction. Position (model
// space) and Display (original pixel space) are kept in sync on every
// mutation; Position is always derivable from Display through the Mapper.
type Hint struct {
	Position Point   `json:"position"`
	Display  Point   `json:"displayPosition"`
	Color    RGB     `json:"color"`
	Alpha    float64 `json:"alpha"`
}

// HintStore is the ordered collection of placed hints. Overlapping hints
// are permitted; resolution order between them belongs to the remote
// service. All mutations are synchronous in-memory updates.
type HintStore struct {
	mapper Mapper
	hints  []Hint
}

func NewHintStore(mapper Mapper) *HintStore {
	return &HintStore{mapper: mapper}
}

// AddOrUpdate appends the hint, or replaces the hint at editIndex when
// editIndex >= 0.
func (s *HintStore) AddOrUpdate(h Hint, editIndex int) error {
	if editIndex < 0 {
		s.hints = append(s.hints, h)
		return nil
	}
	if editIndex >= len(s.hints) {
		return ErrBadIndex
	}
	s.hints[editIndex] = h
	return nil
}

func (s *HintStore) Remove(i int) error {
	if i < 0 || i >= len(s.hints) {
		return ErrBadIndex
	}
	s.hints = append(s.hints[:i], s.hints[i+1:]...)
	return nil
}

// Reposition moves a hint to a new display position and recomputes its
// model space position; both fields update together.
func (s *HintStore) Reposition(i int, display Point, width, height int) error {
	if i < 0 || i >= len(s.hints) {
		return ErrBadIndex
	}
	s.hints[i].Display = display
	s.hints[i].Position = s.mapper.ToModelSpace(display.X, display.Y, width, height)
	return nil
}

func (s *HintStore) Clear() {
	s.hints = nil
}

func (s *HintStore) Len() int {
	return len(s.hints)
}

// Hints returns a copy; callers may hold it across lock boundaries.
func (s *HintStore) Hints() []Hint {
	out := make([]Hint, len(s.hints))
	copy(out, s.hints)
	return out
}
