package pinfield

import (
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultFieldCount  = 5
	DefaultPlaceholder = "•"
	MaxFieldCount      = 64
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Options configures a Controller. They are copied at construction and never
// change afterwards.
type Options struct {
	FieldCount      int    `validate:"min=1,max=64"`
	Placeholder     string `validate:"len=1"`
	Autofocus       bool
	MaskInput       bool
	ResetOnComplete bool

	// Handlers are optional; a nil handler is never called.
	OnComplete func(pin string)
	OnInvalid  func(f *Field, index int)
	OnKeyDown  func(ev *Event, f *Field, index int)
	OnInput    func(ev *Event, f *Field, index int)

	Logger *slog.Logger `validate:"-"`
}

// DefaultOptions returns five masked slots that autofocus and clear themselves
// after completion.
func DefaultOptions() Options {
	return Options{
		FieldCount:      DefaultFieldCount,
		Placeholder:     DefaultPlaceholder,
		Autofocus:       true,
		MaskInput:       true,
		ResetOnComplete: true,
	}
}

func (o Options) normalize() (Options, error) {
	if o.FieldCount == 0 {
		o.FieldCount = DefaultFieldCount
	}
	if o.Placeholder == "" {
		o.Placeholder = DefaultPlaceholder
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if err := validate.Struct(o); err != nil {
		return Options{}, fmt.Errorf("pinfield: invalid options: %w", err)
	}
	return o, nil
}
