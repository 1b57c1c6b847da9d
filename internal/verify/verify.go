// Package verify decides whether a completed PIN is correct. The pin
// controller only reports completion; everything here runs on the
// completion path chosen by the host.
package verify

import (
	"context"
	"errors"
	"fmt"

	"github.com/jask/pinlogin/internal/secrets"
)

var ErrUnknownKind = errors.New("verify: unknown secret kind")

// Verifier checks a completed PIN. A wrong PIN is (false, nil); errors are
// reserved for failures to check at all.
type Verifier interface {
	Verify(ctx context.Context, pin string) (bool, error)
}

// Func adapts a plain function to Verifier.
type Func func(ctx context.Context, pin string) (bool, error)

func (f Func) Verify(ctx context.Context, pin string) (bool, error) { return f(ctx, pin) }

// FromSecret builds the verifier matching a stored secret. totp supplies the
// issuer, digits and period used for TOTP secrets.
func FromSecret(sec secrets.Secret, totp *TOTP) (Verifier, error) {
	switch sec.Kind {
	case secrets.KindTOTP:
		if err := totp.checkDigits(); err != nil {
			return nil, err
		}
		return totp.WithSecret(sec.Value), nil
	case secrets.KindBcrypt:
		return NewStatic(sec.Value), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, sec.Kind)
	}
}
