package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jask/pinlogin/internal/database/repository"
)

var ErrLockedOut = errors.New("verify: too many failed attempts")

// AttemptStore is the slice of the attempt repository the checker needs.
type AttemptStore interface {
	Record(ctx context.Context, a repository.Attempt) (repository.Attempt, error)
	CountFailuresSince(ctx context.Context, account string, since time.Time) (int, error)
}

// Result describes one checked PIN.
type Result struct {
	OK       bool
	Failures int  // failures inside the lockout window, this one included
	Locked   bool // further attempts are refused until the window passes
}

// Checker runs a Verifier, records the attempt and applies lockout. With a
// nil Attempts store or MaxFailures of zero it only verifies.
type Checker struct {
	Verifier    Verifier
	Attempts    AttemptStore
	Account     string
	MaxFailures int
	Lockout     time.Duration
	Now         func() time.Time
	Logger      *slog.Logger
}

func (c *Checker) now() time.Time {
	if c.Now != nil {
		return c.Now().UTC()
	}
	return time.Now().UTC()
}

func (c *Checker) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func (c *Checker) limited() bool {
	return c.Attempts != nil && c.MaxFailures > 0
}

func (c *Checker) failures(ctx context.Context) (int, error) {
	if !c.limited() {
		return 0, nil
	}
	n, err := c.Attempts.CountFailuresSince(ctx, c.Account, c.now().Add(-c.Lockout))
	if err != nil {
		return 0, fmt.Errorf("count failures: %w", err)
	}
	return n, nil
}

// Locked reports whether the account is currently locked out.
func (c *Checker) Locked(ctx context.Context) (bool, error) {
	n, err := c.failures(ctx)
	if err != nil {
		return false, err
	}
	return c.limited() && n >= c.MaxFailures, nil
}

// Check verifies pin. A locked account returns ErrLockedOut without running
// the verifier.
func (c *Checker) Check(ctx context.Context, pin string) (Result, error) {
	log := c.logger().With(slog.String("account", c.Account))

	n, err := c.failures(ctx)
	if err != nil {
		return Result{}, err
	}
	if c.limited() && n >= c.MaxFailures {
		log.Warn("attempt refused", slog.Int("failures", n))
		return Result{Failures: n, Locked: true}, ErrLockedOut
	}

	ok, err := c.Verifier.Verify(ctx, pin)
	if err != nil {
		log.Error("verify failed", slog.Any("error", err))
		return Result{}, fmt.Errorf("verify: %w", err)
	}

	if c.Attempts != nil {
		reason := ""
		if !ok {
			reason = "mismatch"
		}
		if _, err := c.Attempts.Record(ctx, repository.Attempt{
			Account:   c.Account,
			PINLength: len(pin),
			Success:   ok,
			Reason:    reason,
			CreatedAt: c.now().Truncate(time.Second),
		}); err != nil {
			return Result{}, err
		}
	}

	res := Result{OK: ok}
	if !ok {
		res.Failures = n + 1
		res.Locked = c.limited() && res.Failures >= c.MaxFailures
	}
	log.Info("attempt checked", slog.Bool("ok", ok), slog.Int("failures", res.Failures), slog.Bool("locked", res.Locked))
	return res, nil
}
