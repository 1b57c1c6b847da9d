package verify

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Static compares a PIN against a bcrypt hash.
type Static struct {
	hash []byte
}

func NewStatic(hash string) *Static { return &Static{hash: []byte(hash)} }

// HashPIN returns the bcrypt hash to store for pin.
func HashPIN(pin string, cost int) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(pin), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (s *Static) Verify(ctx context.Context, pin string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	err := bcrypt.CompareHashAndPassword(s.hash, []byte(pin))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return err == nil, err
}
