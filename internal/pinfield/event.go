package pinfield

// Key names recognised for backwards navigation. They match bubbletea's
// key strings.
const (
	KeyBackspace = "backspace"
	KeyLeft      = "left"
)

// Event is a keystroke delivered by the host. For input events Content holds
// the slot's resulting content after the edit.
type Event struct {
	Key     string
	Content string

	prevented bool
	stopped   bool
}

func (e *Event) PreventDefault()  { e.prevented = true }
func (e *Event) StopPropagation() { e.stopped = true }

// DefaultPrevented reports whether the host must not apply the keystroke's
// default effect (including deriving an input event from it).
func (e *Event) DefaultPrevented() bool { return e.prevented }

// PropagationStopped reports whether the host must not pass the event to any
// enclosing handler.
func (e *Event) PropagationStopped() bool { return e.stopped }

func (e *Event) suppress() {
	e.PreventDefault()
	e.StopPropagation()
}

func isBackKey(key string) bool {
	return key == KeyBackspace || key == KeyLeft
}
