package verify

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jask/pinlogin/internal/database"
	"github.com/jask/pinlogin/internal/database/repository"
	"github.com/jask/pinlogin/internal/secrets"
)

// RFC 6238 appendix B seed for SHA1 ("12345678901234567890").
const rfcSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func TestTOTPKnownVector(t *testing.T) {
	at := time.Unix(59, 0).UTC()
	v := NewTOTP("pinlogin", 8, 30, 1).WithSecret(rfcSecret).WithClock(func() time.Time { return at })

	code, err := v.Code(at)
	require.NoError(t, err)
	require.Equal(t, "94287082", code)

	ok, err := v.Verify(context.Background(), "94287082")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = v.Verify(context.Background(), "123")
	require.NoError(t, err)
	require.False(t, ok, "short codes are a mismatch, not an error")
}

func TestTOTPEnroll(t *testing.T) {
	proto := NewTOTP("pinlogin", 6, 0, 0)
	secret, uri, err := proto.Enroll("alice")
	require.NoError(t, err)
	require.NotEmpty(t, secret)
	require.True(t, strings.HasPrefix(uri, "otpauth://totp/"), uri)
	require.Contains(t, uri, "digits=6")

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	v := proto.WithSecret(secret).WithClock(func() time.Time { return at })
	code, err := v.Code(at)
	require.NoError(t, err)
	require.Len(t, code, 6)

	ok, err := v.Verify(context.Background(), code)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestTOTPRejectsUnsupportedDigits(t *testing.T) {
	for _, n := range []int{4, 5, 7, 9} {
		proto := NewTOTP("pinlogin", n, 30, 1)
		_, _, err := proto.Enroll("alice")
		require.ErrorIs(t, err, ErrDigits, "digits=%d", n)

		_, err = FromSecret(secrets.Secret{Kind: secrets.KindTOTP, Value: rfcSecret}, proto)
		require.ErrorIs(t, err, ErrDigits, "digits=%d", n)
	}

	_, _, err := NewTOTP("pinlogin", 8, 30, 1).Enroll("alice")
	require.NoError(t, err)
}

func TestStatic(t *testing.T) {
	hash, err := HashPIN("2468", bcrypt.MinCost)
	require.NoError(t, err)
	v := NewStatic(hash)

	ok, err := v.Verify(context.Background(), "2468")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = v.Verify(context.Background(), "2469")
	require.NoError(t, err)
	require.False(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = v.Verify(ctx, "2468")
	require.ErrorIs(t, err, context.Canceled)
}

func TestFromSecret(t *testing.T) {
	proto := NewTOTP("pinlogin", 6, 30, 1)

	v, err := FromSecret(secrets.Secret{Kind: secrets.KindTOTP, Value: rfcSecret}, proto)
	require.NoError(t, err)
	require.IsType(t, &TOTP{}, v)

	v, err = FromSecret(secrets.Secret{Kind: secrets.KindBcrypt, Value: "$2a$04$x"}, proto)
	require.NoError(t, err)
	require.IsType(t, &Static{}, v)

	_, err = FromSecret(secrets.Secret{Kind: "sms"}, proto)
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestCheckerLockout(t *testing.T) {
	ctx := context.Background()
	migrations, err := filepath.Abs("../database/migrations")
	require.NoError(t, err)
	db, err := database.OpenMigrated(filepath.Join(t.TempDir(), "attempts.db"), migrations)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	hash, err := HashPIN("1234", bcrypt.MinCost)
	require.NoError(t, err)

	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c := &Checker{
		Verifier:    NewStatic(hash),
		Attempts:    repository.NewAttemptRepo(db),
		Account:     "alice",
		MaxFailures: 3,
		Lockout:     10 * time.Minute,
		Now:         func() time.Time { return clock },
	}

	for i := 1; i <= 3; i++ {
		res, err := c.Check(ctx, "0000")
		require.NoError(t, err)
		require.False(t, res.OK)
		require.Equal(t, i, res.Failures)
		require.Equal(t, i == 3, res.Locked)
		clock = clock.Add(time.Minute)
	}

	locked, err := c.Locked(ctx)
	require.NoError(t, err)
	require.True(t, locked)

	res, err := c.Check(ctx, "1234")
	require.ErrorIs(t, err, ErrLockedOut)
	require.True(t, res.Locked)

	clock = clock.Add(10 * time.Minute)
	res, err = c.Check(ctx, "1234")
	require.NoError(t, err)
	require.True(t, res.OK)

	recent, err := repository.NewAttemptRepo(db).ListRecent(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, recent, 4, "refused attempts are not recorded")
	require.True(t, recent[0].Success)
	require.Equal(t, 4, recent[0].PINLength)
}

func TestCheckerWithoutStore(t *testing.T) {
	calls := 0
	c := &Checker{Verifier: Func(func(_ context.Context, pin string) (bool, error) {
		calls++
		return pin == "11", nil
	})}
	for i := 0; i < 5; i++ {
		res, err := c.Check(context.Background(), "00")
		require.NoError(t, err)
		require.False(t, res.Locked)
	}
	res, err := c.Check(context.Background(), "11")
	require.NoError(t, err)
	require.True(t, res.OK)
	require.Equal(t, 6, calls)
}
