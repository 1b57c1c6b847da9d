package pinfield

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// ErrFieldOutOfRange is returned when an index does not name a slot.
var ErrFieldOutOfRange = errors.New("pinfield: field index out of range")

// A keystroke is accepted only when the slot ends up holding exactly one digit.
// Empty content and pasted runs of digits both fail.
var digitPattern = regexp.MustCompile(`^[0-9]$`)

// Controller owns the slot row, the entered values and the handlers.
type Controller struct {
	opts    Options
	fields  []*Field
	values  []string // "" means no digit entered
	focused int      // -1 when no slot has focus
	log     *slog.Logger
}

// New builds the slot row and puts it in its reset state.
func New(opts Options) (*Controller, error) {
	opts, err := opts.normalize()
	if err != nil {
		return nil, err
	}
	c := &Controller{
		opts:    opts,
		fields:  make([]*Field, opts.FieldCount),
		values:  make([]string, opts.FieldCount),
		focused: -1,
		log:     opts.Logger.With(slog.String("component", "pinfield")),
	}
	for i := range c.fields {
		c.fields[i] = &Field{owner: c, index: i}
	}
	c.Reset()
	return c, nil
}

func (c *Controller) Options() Options { return c.opts }
func (c *Controller) Len() int         { return len(c.fields) }

// FocusedIndex returns the slot holding focus, or -1.
func (c *Controller) FocusedIndex() int { return c.focused }

// Field returns slot i, or nil when i is out of range.
func (c *Controller) Field(i int) *Field {
	if i < 0 || i >= len(c.fields) {
		return nil
	}
	return c.fields[i]
}

func (c *Controller) Fields() []*Field {
	out := make([]*Field, len(c.fields))
	copy(out, c.fields)
	return out
}

// Entered returns the digit recorded for slot i, if any.
func (c *Controller) Entered(i int) (string, bool) {
	if i < 0 || i >= len(c.values) || c.values[i] == "" {
		return "", false
	}
	return c.values[i], true
}

// Snapshot copies the visible state of every slot.
func (c *Controller) Snapshot() []Slot {
	out := make([]Slot, len(c.fields))
	for i, f := range c.fields {
		out[i] = Slot{
			Index:   i,
			Display: f.value,
			State:   f.State(),
			Filled:  c.values[i] != "",
			Invalid: f.invalid,
			Focused: f.focused,
		}
	}
	return out
}

// Reset clears every slot, locks all but the first and focuses the first when
// autofocus is on. No handler fires.
func (c *Controller) Reset() {
	for i, f := range c.fields {
		c.values[i] = ""
		f.value = ""
		f.invalid = false
		f.editable = i == 0
	}
	c.log.Debug("reset", slog.Int("fields", len(c.fields)))
	if c.opts.Autofocus {
		c.focus(0)
	}
}

// ResetField clears slot i and locks it. Unlike Reset this locks slot 0 too.
func (c *Controller) ResetField(i int) error {
	if err := c.check(i); err != nil {
		return err
	}
	c.resetField(i)
	return nil
}

// Focus unlocks slot i and gives it focus, so callers can always reach any slot.
func (c *Controller) Focus(i int) error {
	if err := c.check(i); err != nil {
		return err
	}
	c.focus(i)
	return nil
}

// Enable unlocks every slot regardless of entered values.
func (c *Controller) Enable() { c.setAllEditable(true) }

// Disable locks every slot, e.g. while a submission is in flight.
func (c *Controller) Disable() { c.setAllEditable(false) }

func (c *Controller) EnableField(i int) error {
	if err := c.check(i); err != nil {
		return err
	}
	c.fields[i].editable = true
	return nil
}

func (c *Controller) DisableField(i int) error {
	if err := c.check(i); err != nil {
		return err
	}
	c.fields[i].editable = false
	return nil
}

// HandleFocus is the focus-in event for slot i: focus moves there and its
// displayed text is cleared. The entered value is kept.
func (c *Controller) HandleFocus(i int) error {
	if err := c.check(i); err != nil {
		return err
	}
	c.moveFocus(i)
	return nil
}

// HandleBlur is the focus-out event for slot i.
func (c *Controller) HandleBlur(i int) error {
	if err := c.check(i); err != nil {
		return err
	}
	if c.focused == i {
		c.focused = -1
		c.fields[i].focused = false
	}
	c.blur(i)
	return nil
}

// HandleKeyDown runs before any input derived from the same keystroke.
// Backspace or left on an unlocked slot past the first clears it and moves
// back one slot; the event is then suppressed.
func (c *Controller) HandleKeyDown(ev *Event, i int) error {
	if err := c.check(i); err != nil {
		return err
	}
	f := c.fields[i]
	if c.opts.OnKeyDown != nil {
		c.opts.OnKeyDown(ev, f, i)
	}
	if !isBackKey(ev.Key) || i == 0 || !f.editable {
		return nil
	}
	c.resetField(i)
	c.focus(i - 1)
	ev.suppress()
	c.log.Debug("navigate back", slog.Int("from", i), slog.Int("to", i-1))
	return nil
}

// HandleInput validates the content a keystroke left in slot i. Locked slots
// ignore input.
func (c *Controller) HandleInput(ev *Event, i int) error {
	if err := c.check(i); err != nil {
		return err
	}
	f := c.fields[i]
	if !f.editable {
		return nil
	}

	if !digitPattern.MatchString(ev.Content) {
		f.value = ""
		f.invalid = true
		c.log.Debug("invalid input", slog.Int("field", i), slog.Int("runes", len([]rune(ev.Content))))
		if c.opts.OnInvalid != nil {
			c.opts.OnInvalid(f, i)
		}
		ev.suppress()
		return nil
	}

	f.invalid = false
	f.value = ev.Content
	if c.opts.OnInput != nil {
		c.opts.OnInput(ev, f, i)
	}
	c.values[i] = ev.Content
	if c.opts.MaskInput {
		f.value = c.opts.Placeholder
	}

	if i < len(c.fields)-1 {
		f.editable = false
		c.fields[i+1].editable = true
		c.focus(i + 1)
		return nil
	}

	pin := strings.Join(c.values, "")
	c.log.Debug("complete", slog.Int("length", len(pin)))
	if c.opts.ResetOnComplete {
		c.Reset()
	}
	if c.opts.OnComplete != nil {
		c.opts.OnComplete(pin)
	}
	return nil
}

func (c *Controller) check(i int) error {
	if i < 0 || i >= len(c.fields) {
		return fmt.Errorf("%w: %d (fields: %d)", ErrFieldOutOfRange, i, len(c.fields))
	}
	return nil
}

func (c *Controller) resetField(i int) {
	f := c.fields[i]
	c.values[i] = ""
	f.value = ""
	f.editable = false
	f.invalid = false
}

func (c *Controller) focus(i int) {
	c.fields[i].editable = true
	if c.focused == i {
		return
	}
	c.moveFocus(i)
}

// moveFocus mirrors a browser focus change: the old slot blurs, then the new
// slot receives focus.
func (c *Controller) moveFocus(i int) {
	if prev := c.focused; prev >= 0 && prev != i {
		c.fields[prev].focused = false
		c.blur(prev)
	}
	c.focused = i
	c.fields[i].focused = true
	c.fields[i].value = ""
}

func (c *Controller) blur(i int) {
	f := c.fields[i]
	if !f.editable {
		return
	}
	if c.values[i] != "" && c.opts.MaskInput {
		f.value = c.opts.Placeholder
	}
}

func (c *Controller) setAllEditable(v bool) {
	for _, f := range c.fields {
		f.editable = v
	}
}
