package pinfield

// State is the lock/fill state of a single slot.
type State int

const (
	Locked State = iota
	UnlockedEmpty
	UnlockedFilled
)

func (s State) String() string {
	switch s {
	case Locked:
		return "locked"
	case UnlockedEmpty:
		return "unlocked-empty"
	case UnlockedFilled:
		return "unlocked-filled"
	default:
		return "unknown"
	}
}

// Field is one digit slot. Hosts read it to render; only the Controller
// mutates it.
type Field struct {
	owner    *Controller
	index    int
	value    string // displayed text, possibly the placeholder
	editable bool
	invalid  bool
	focused  bool
}

func (f *Field) Index() int     { return f.index }
func (f *Field) Value() string  { return f.value }
func (f *Field) Editable() bool { return f.editable }
func (f *Field) Invalid() bool  { return f.invalid }
func (f *Field) Focused() bool  { return f.focused }

// State derives the slot state from the lock flag and the entered value.
func (f *Field) State() State {
	if !f.editable {
		return Locked
	}
	if _, ok := f.owner.Entered(f.index); ok {
		return UnlockedFilled
	}
	return UnlockedEmpty
}

// Slot is a point-in-time copy of a Field plus whether it holds an entered
// digit. The digit itself is deliberately absent.
type Slot struct {
	Index   int
	Display string
	State   State
	Filled  bool
	Invalid bool
	Focused bool
}
