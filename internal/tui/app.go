package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"github.com/jask/pinlogin/internal/pinfield"
	"github.com/jask/pinlogin/internal/registry"
	"github.com/jask/pinlogin/internal/verify"
)

// Deps are the collaborators behind the completion path. A nil Checker accepts
// every completed PIN without verifying it.
type Deps struct {
	Checker       *verify.Checker
	Timeout       time.Duration
	QuitOnSuccess bool
	RecheckEvery  time.Duration // lockout poll interval
	Logger        *slog.Logger
}

// App hosts one pin controller in the terminal.
type App struct {
	ctx  context.Context
	deps Deps
	log  *slog.Logger
	host string
	pins *pinfield.Controller
	keys keyMap
	help help.Model

	title     string
	status    string
	statusErr bool

	pending    *string // completed pin awaiting submission
	submitting bool
	locked     bool
	verified   bool
}

// dispatcher routes a controller's handlers to whichever App currently hosts
// it. There is one per attached host.
type dispatcher struct {
	app *App

	onComplete func(string)
	onInvalid  func(*pinfield.Field, int)
	onInput    func(*pinfield.Event, *pinfield.Field, int)
}

// bind captures the caller's handlers and replaces them with ones that go
// through d.
func (d *dispatcher) bind(opts *pinfield.Options) any {
	d.onComplete, d.onInvalid, d.onInput = opts.OnComplete, opts.OnInvalid, opts.OnInput
	opts.OnComplete = func(pin string) {
		if d.app != nil {
			d.app.pending = &pin
		}
		if d.onComplete != nil {
			d.onComplete(pin)
		}
	}
	opts.OnInvalid = func(f *pinfield.Field, i int) {
		if d.app != nil {
			d.app.setStatus(fmt.Sprintf("slot %d accepts a single digit", i+1), true)
		}
		if d.onInvalid != nil {
			d.onInvalid(f, i)
		}
	}
	opts.OnInput = func(ev *pinfield.Event, f *pinfield.Field, i int) {
		if d.app != nil {
			d.app.setStatus("", false)
		}
		if d.onInput != nil {
			d.onInput(ev, f, i)
		}
	}
	return d
}

// New attaches a controller for host through reg and routes its handlers to
// the returned App. Handlers already present in opts still run, after the
// app's own. If host is already attached the existing controller and the
// handlers it was built with are kept, and the new App takes over from the
// previous one.
func New(ctx context.Context, reg *registry.Registry, host string, opts pinfield.Options, deps Deps) (*App, error) {
	if deps.Timeout <= 0 {
		deps.Timeout = 3 * time.Second
	}
	if deps.RecheckEvery <= 0 {
		deps.RecheckEvery = 10 * time.Second
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Logger == nil {
		opts.Logger = deps.Logger
	}
	a := &App{
		ctx:   ctx,
		deps:  deps,
		log:   deps.Logger.With(slog.String("host", host)),
		host:  host,
		keys:  defaultKeyMap(),
		help:  help.New(),
		title: "Enter PIN",
	}

	d := &dispatcher{}
	pins, bound, err := reg.AttachBound(host, opts, d.bind)
	if err != nil {
		return nil, fmt.Errorf("attach %s: %w", host, err)
	}
	d = bound.(*dispatcher)
	if prev := d.app; prev != nil {
		prev.pending = nil
		a.log.Debug("host taken over")
	}
	d.app = a
	a.pins = pins
	return a, nil
}

// Controller exposes the hosted controller, e.g. for the imperative API.
func (a *App) Controller() *pinfield.Controller { return a.pins }

// Verified reports whether a PIN passed verification during this session.
func (a *App) Verified() bool { return a.verified }

// SetTitle replaces the heading above the slots.
func (a *App) SetTitle(s string) { a.title = s }

func (a *App) Init() tea.Cmd {
	return a.lockCheckCmd()
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.help.Width = m.Width
	case tea.KeyMsg:
		switch {
		case key.Matches(m, a.keys.Quit):
			return a, tea.Quit
		case key.Matches(m, a.keys.Reset):
			if !a.submitting && !a.locked {
				a.pins.Reset()
				a.setStatus("cleared", false)
			}
			return a, nil
		case key.Matches(m, a.keys.Focus):
			if !a.submitting && !a.locked {
				_ = a.pins.Focus(a.nextSlot())
			}
			return a, nil
		}
		a.dispatchKey(m)
		if a.pending != nil {
			pin := *a.pending
			a.pending = nil
			return a, a.submit(pin)
		}
	case checkedMsg:
		return a, a.handleChecked(m)
	case lockStateMsg:
		return a, a.handleLockState(m)
	case recheckMsg:
		return a, a.lockCheckCmd()
	}
	return a, nil
}

// dispatchKey turns one key press into keydown and, unless navigation
// suppressed it, an input event carrying the typed runes.
func (a *App) dispatchKey(m tea.KeyMsg) {
	i := a.pins.FocusedIndex()
	if i < 0 {
		return
	}
	ev := &pinfield.Event{Key: m.String()}
	if err := a.pins.HandleKeyDown(ev, i); err != nil {
		a.log.Error("keydown", slog.Any("error", err))
		return
	}
	if ev.DefaultPrevented() {
		return
	}
	switch m.Type {
	case tea.KeyRunes, tea.KeySpace:
		ev.Content = string(m.Runes)
		if err := a.pins.HandleInput(ev, i); err != nil {
			a.log.Error("input", slog.Any("error", err))
		}
	}
}

// nextSlot is the lowest slot without an entered digit, or the last slot.
func (a *App) nextSlot() int {
	for i := 0; i < a.pins.Len(); i++ {
		if _, ok := a.pins.Entered(i); !ok {
			return i
		}
	}
	return a.pins.Len() - 1
}

func (a *App) submit(pin string) tea.Cmd {
	checker := a.deps.Checker
	if checker == nil {
		a.verified = true
		a.setStatus(fmt.Sprintf("PIN entered (%d digits)", len(pin)), false)
		if a.deps.QuitOnSuccess {
			return tea.Quit
		}
		return nil
	}
	a.submitting = true
	a.pins.Disable()
	a.setStatus("checking…", false)
	ctx, timeout := a.ctx, a.deps.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		res, err := checker.Check(ctx, pin)
		return checkedMsg{Result: res, Err: err}
	}
}

func (a *App) handleChecked(m checkedMsg) tea.Cmd {
	a.submitting = false
	switch {
	case errors.Is(m.Err, verify.ErrLockedOut) || m.Result.Locked:
		a.lock()
		return a.recheckCmd()
	case m.Err != nil:
		a.pins.Reset()
		a.setStatus("error: "+m.Err.Error(), true)
	case m.Result.OK:
		a.verified = true
		a.setStatus("PIN accepted", false)
		if a.deps.QuitOnSuccess {
			return tea.Quit
		}
		a.pins.Reset()
	default:
		a.pins.Reset()
		msg := "wrong PIN"
		if limit := a.deps.Checker.MaxFailures; limit > 0 {
			msg = fmt.Sprintf("wrong PIN (%d/%d)", m.Result.Failures, limit)
		}
		a.setStatus(msg, true)
	}
	return nil
}

func (a *App) handleLockState(m lockStateMsg) tea.Cmd {
	if m.Err != nil {
		a.setStatus("error: "+m.Err.Error(), true)
		return nil
	}
	if m.Locked {
		a.lock()
		return a.recheckCmd()
	}
	if a.locked {
		a.locked = false
		a.pins.Reset()
		a.setStatus("unlocked, try again", false)
	}
	return nil
}

func (a *App) lock() {
	a.locked = true
	a.pins.Disable()
	a.setStatus("too many failed attempts, locked", true)
}

func (a *App) lockCheckCmd() tea.Cmd {
	checker := a.deps.Checker
	if checker == nil {
		return nil
	}
	ctx := a.ctx
	return func() tea.Msg {
		locked, err := checker.Locked(ctx)
		return lockStateMsg{Locked: locked, Err: err}
	}
}

func (a *App) recheckCmd() tea.Cmd {
	return tea.Tick(a.deps.RecheckEvery, func(time.Time) tea.Msg { return recheckMsg{} })
}

func (a *App) setStatus(s string, isErr bool) {
	a.status = s
	a.statusErr = isErr
}

func (a *App) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(a.title))
	b.WriteString("\n\n")
	b.WriteString(renderSlots(a.pins.Snapshot()))
	b.WriteString("\n")
	if a.status != "" {
		style := statusStyle
		if a.statusErr {
			style = statusErrStyle
		}
		b.WriteString(style.Render(a.status))
	}
	b.WriteString("\n")
	b.WriteString(a.help.View(a.keys))
	return b.String()
}

func renderSlots(slots []pinfield.Slot) string {
	cells := lo.Map(slots, func(s pinfield.Slot, _ int) string {
		text := s.Display
		if text == "" {
			text = " "
		}
		return slotStyle(s).Render(text)
	})
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

func slotStyle(s pinfield.Slot) lipgloss.Style {
	switch {
	case s.Invalid:
		return invalidCellStyle
	case s.Focused && s.State != pinfield.Locked:
		return focusedCellStyle
	case s.State == pinfield.Locked:
		return lockedCellStyle
	default:
		return cellStyle
	}
}

type checkedMsg struct {
	Result verify.Result
	Err    error
}

type lockStateMsg struct {
	Locked bool
	Err    error
}

type recheckMsg struct{}
