// Package session owns the access/refresh token pair identifying an
// authenticated user.
package session

import (
	"context"
	"sync"

	"github.com/go-faster/errors"

	"github.com/RiyaSaju106/QuickIT/internal/localstate"
)

// Pair is an access/refresh token pair. The zero value means no session.
type Pair struct {
	Access  string
	Refresh string
}

// Active reports whether the pair represents an authenticated session.
func (p Pair) Active() bool {
	return p.Access != "" && p.Refresh != ""
}

// Manager owns the current token pair, keeping the in-memory copy and the
// persisted entries in step. The pair is always replaced as a unit: readers
// never observe an access token from one rotation alongside a refresh token
// from another.
type Manager struct {
	mu    sync.RWMutex
	pair  Pair
	state localstate.Store
}

// NewManager creates a Manager backed by the given local store. Call Load to
// pick up a persisted session.
func NewManager(state localstate.Store) *Manager {
	return &Manager{state: state}
}

// Load reads the persisted pair into memory and returns it. A store with only
// one of the two entries present is treated as no session; a half-written
// pair must never surface as an active one.
func (m *Manager) Load(ctx context.Context) (Pair, error) {
	access, okA, err := m.state.Get(ctx, localstate.KeyAccessToken)
	if err != nil {
		return Pair{}, errors.Wrap(err, "load access token")
	}
	refresh, okR, err := m.state.Get(ctx, localstate.KeyRefreshToken)
	if err != nil {
		return Pair{}, errors.Wrap(err, "load refresh token")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !okA || !okR {
		m.pair = Pair{}
		return Pair{}, nil
	}
	m.pair = Pair{Access: string(access), Refresh: string(refresh)}
	return m.pair, nil
}

// Pair returns the current token pair.
func (m *Manager) Pair() Pair {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pair
}

// Active reports whether a session is currently held.
func (m *Manager) Active() bool {
	return m.Pair().Active()
}

// Set persists the rotated pair and swaps the in-memory copy. Both entries
// are written before the swap, so a concurrent reader sees either the old
// pair or the new one, never a mix.
func (m *Manager) Set(ctx context.Context, access, refresh string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.state.Set(ctx, localstate.KeyAccessToken, []byte(access)); err != nil {
		return errors.Wrap(err, "persist access token")
	}
	if err := m.state.Set(ctx, localstate.KeyRefreshToken, []byte(refresh)); err != nil {
		return errors.Wrap(err, "persist refresh token")
	}
	m.pair = Pair{Access: access, Refresh: refresh}
	return nil
}

// Clear removes the pair from memory and durable storage. The in-memory pair
// is dropped even if the durable delete fails, so a logout always takes
// effect locally.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pair = Pair{}
	if err := m.state.Delete(ctx, localstate.KeyAccessToken); err != nil {
		return errors.Wrap(err, "delete access token")
	}
	if err := m.state.Delete(ctx, localstate.KeyRefreshToken); err != nil {
		return errors.Wrap(err, "delete refresh token")
	}
	return nil
}
