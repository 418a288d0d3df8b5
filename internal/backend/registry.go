package backend

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
)

// Registry lazily builds and caches one Backend per pool address.
type Registry struct {
	mutex    sync.RWMutex
	backends map[string]*Backend
}

func NewRegistry() *Registry {
	return &Registry{
		backends: make(map[string]*Backend),
	}
}

// Get returns the Backend for address, creating it on first use.
// Addresses without a scheme are treated as plain HTTP host:port pairs.
func (r *Registry) Get(address string) (*Backend, error) {
	r.mutex.RLock()
	b, exists := r.backends[address]
	r.mutex.RUnlock()

	if exists {
		return b, nil
	}

	u, err := ParseAddress(address)
	if err != nil {
		return nil, err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	// Double-check: another goroutine may have created it
	if b, exists = r.backends[address]; exists {
		return b, nil
	}

	b = New(u)
	r.backends[address] = b
	return b, nil
}

// Forget drops the cached Backend for address.
func (r *Registry) Forget(address string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	delete(r.backends, address)
}

func (r *Registry) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.backends)
}

// ParseAddress turns a pool address into an upstream URL.
func ParseAddress(address string) (*url.URL, error) {
	raw := address
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid backend address %q: %w", address, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid backend address %q: scheme must be http or https", address)
	}

	if u.Host == "" {
		return nil, fmt.Errorf("invalid backend address %q: missing host", address)
	}

	return u, nil
}
