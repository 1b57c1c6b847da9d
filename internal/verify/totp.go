package verify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// ErrDigits is returned for code lengths authenticator apps do not produce.
var ErrDigits = errors.New("verify: TOTP codes must have 6 or 8 digits")

// TOTP verifies time-based one-time passwords whose length equals the number
// of pin slots.
type TOTP struct {
	issuer string
	period uint
	skew   uint
	digits otp.Digits
	secret string
	now    func() time.Time
}

// NewTOTP constructs a TOTP verifier without a secret. If period is 0 it uses
// the common 30-second period; a zero skew becomes 1.
func NewTOTP(issuer string, digits int, period, skew uint) *TOTP {
	if period == 0 {
		period = 30
	}
	if skew == 0 {
		skew = 1
	}
	return &TOTP{
		issuer: issuer,
		period: period,
		skew:   skew,
		digits: otp.Digits(digits),
		now:    time.Now,
	}
}

// WithSecret returns a copy bound to secret.
func (o *TOTP) WithSecret(secret string) *TOTP {
	cp := *o
	cp.secret = secret
	return &cp
}

// WithClock returns a copy reading time from now.
func (o *TOTP) WithClock(now func() time.Time) *TOTP {
	cp := *o
	cp.now = now
	return &cp
}

// Enroll creates a secret and provisioning URI for an account name.
func (o *TOTP) Enroll(account string) (secret string, uri string, err error) {
	if err := o.checkDigits(); err != nil {
		return "", "", err
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      o.issuer,
		AccountName: account,
		Period:      o.period,
		SecretSize:  20, // RFC 4226/6238 recommendation
		Digits:      o.digits,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", "", err
	}
	return key.Secret(), key.URL(), nil
}

// Code returns the expected code at the given time.
func (o *TOTP) Code(at time.Time) (string, error) {
	return totp.GenerateCodeCustom(o.secret, at, o.opts())
}

func (o *TOTP) Verify(ctx context.Context, pin string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	ok, err := totp.ValidateCustom(pin, o.secret, o.now(), o.opts())
	if errors.Is(err, otp.ErrValidateInputInvalidLength) {
		return false, nil
	}
	return ok && err == nil, err
}

// checkDigits rejects lengths other than 6 and 8. Most authenticator apps
// ignore the digits parameter of the provisioning URI and show 6.
func (o *TOTP) checkDigits() error {
	if o.digits != otp.DigitsSix && o.digits != otp.DigitsEight {
		return fmt.Errorf("%w: got %d, set field.count to 6 or 8", ErrDigits, o.digits.Length())
	}
	return nil
}

func (o *TOTP) opts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    o.period,
		Skew:      o.skew,
		Digits:    o.digits,
		Algorithm: otp.AlgorithmSHA1,
	}
}
