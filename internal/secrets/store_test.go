package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)

	require.NoError(t, s.Put("Alice", Secret{Kind: KindTOTP, Value: "JBSWY3DPEHPK3PXP"}))

	got, err := s.Get(" alice ")
	require.NoError(t, err)
	require.Equal(t, Secret{Kind: KindTOTP, Value: "JBSWY3DPEHPK3PXP"}, got)

	raw, err := os.ReadFile(filepath.Join(dir, fileName))
	require.NoError(t, err)
	require.False(t, strings.Contains(string(raw), "JBSWY3DPEHPK3PXP"), "secret stored in plain text")

	info, err := os.Stat(filepath.Join(dir, fileName))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestStoreMissingAndDelete(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.Get("bob")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, s.Put("  ", Secret{}), ErrAccountMissing)

	require.NoError(t, s.Put("bob", Secret{Kind: KindBcrypt, Value: "$2a$04$hash"}))
	require.NoError(t, s.Delete("bob"))
	_, err = s.Get("bob")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, s.Delete("bob"), ErrNotFound)
}
