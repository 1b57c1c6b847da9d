package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/pinlogin/internal/pinfield"
)

func TestAttachIsIdempotent(t *testing.T) {
	r := New()
	first, err := r.Attach("login", pinfield.Options{FieldCount: 4})
	require.NoError(t, err)

	again, err := r.Attach("login", pinfield.Options{FieldCount: 8})
	require.NoError(t, err)
	require.Same(t, first, again)
	require.Equal(t, 4, again.Len())

	other, err := r.Attach("confirm", pinfield.Options{FieldCount: 6})
	require.NoError(t, err)
	require.NotSame(t, first, other)
	require.Equal(t, []string{"confirm", "login"}, r.Hosts())
}

func TestAttachInvalidOptions(t *testing.T) {
	r := New()
	_, err := r.Attach("bad", pinfield.Options{FieldCount: -2})
	require.Error(t, err)
	_, ok := r.Lookup("bad")
	require.False(t, ok)
}

func TestDetach(t *testing.T) {
	r := New()
	first, err := r.Attach("login", pinfield.DefaultOptions())
	require.NoError(t, err)

	require.True(t, r.Detach("login"))
	require.False(t, r.Detach("login"))

	fresh, err := r.Attach("login", pinfield.DefaultOptions())
	require.NoError(t, err)
	require.NotSame(t, first, fresh)
}

func TestAttachConcurrent(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	got := make([]*pinfield.Controller, 16)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := r.Attach("shared", pinfield.DefaultOptions())
			if err == nil {
				got[i] = c
			}
		}(i)
	}
	wg.Wait()
	for _, c := range got {
		require.Same(t, got[0], c)
	}
}

func TestAttachBoundKeepsFirstBinding(t *testing.T) {
	r := New()
	calls := 0
	bind := func(opts *pinfield.Options) any {
		calls++
		opts.FieldCount = 3
		return &calls
	}

	c, first, err := r.AttachBound("login", pinfield.DefaultOptions(), bind)
	require.NoError(t, err)
	require.Equal(t, 3, c.Len(), "bind may rewrite options")

	again, second, err := r.AttachBound("login", pinfield.DefaultOptions(), bind)
	require.NoError(t, err)
	require.Same(t, c, again)
	require.Same(t, first, second)
	require.Equal(t, 1, calls)
}

func TestAttachBoundRejectsPlainAttach(t *testing.T) {
	r := New()
	_, err := r.Attach("login", pinfield.DefaultOptions())
	require.NoError(t, err)

	_, _, err = r.AttachBound("login", pinfield.DefaultOptions(), func(*pinfield.Options) any { return 1 })
	require.ErrorIs(t, err, ErrUnbound)
}

func TestAttachBoundInvalidOptions(t *testing.T) {
	r := New()
	_, _, err := r.AttachBound("bad", pinfield.Options{FieldCount: 99}, func(*pinfield.Options) any { return 1 })
	require.Error(t, err)
	_, ok := r.Lookup("bad")
	require.False(t, ok)
}
