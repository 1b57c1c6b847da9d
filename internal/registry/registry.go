// Package registry keeps at most one pin controller per host so that
// attaching a control to the same host twice is idempotent.
package registry

import (
	"errors"
	"slices"
	"sync"

	"github.com/samber/lo"

	"github.com/jask/pinlogin/internal/pinfield"
)

// ErrUnbound is returned by AttachBound when host was attached without a
// binding.
var ErrUnbound = errors.New("registry: host attached without binding")

type entry struct {
	ctrl  *pinfield.Controller
	bound any
}

// Registry maps host identity to its controller.
type Registry struct {
	mu    sync.RWMutex
	hosts map[string]entry
}

func New() *Registry {
	return &Registry{hosts: make(map[string]entry)}
}

// Attach returns the controller already bound to host, or builds one from
// opts. When a controller exists opts are ignored.
func (r *Registry) Attach(host string, opts pinfield.Options) (*pinfield.Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.hosts[host]; ok {
		return e.ctrl, nil
	}
	c, err := pinfield.New(opts)
	if err != nil {
		return nil, err
	}
	r.hosts[host] = entry{ctrl: c}
	return c, nil
}

// AttachBound is Attach for hosts that route handlers through a value kept
// next to the controller. bind runs once, when the controller is built: it may
// rewrite opts and returns the value to keep. Later calls return the kept
// value and never call bind.
func (r *Registry) AttachBound(host string, opts pinfield.Options, bind func(*pinfield.Options) any) (*pinfield.Controller, any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.hosts[host]; ok {
		if e.bound == nil {
			return nil, nil, ErrUnbound
		}
		return e.ctrl, e.bound, nil
	}
	bound := bind(&opts)
	c, err := pinfield.New(opts)
	if err != nil {
		return nil, nil, err
	}
	r.hosts[host] = entry{ctrl: c, bound: bound}
	return c, bound, nil
}

func (r *Registry) Lookup(host string) (*pinfield.Controller, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.hosts[host]
	return e.ctrl, ok
}

// Detach forgets host. A later Attach builds a fresh controller.
func (r *Registry) Detach(host string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.hosts[host]; !ok {
		return false
	}
	delete(r.hosts, host)
	return true
}

// Hosts lists attached hosts in sorted order.
func (r *Registry) Hosts() []string {
	r.mu.RLock()
	keys := lo.Keys(r.hosts)
	r.mu.RUnlock()
	slices.Sort(keys)
	return keys
}
