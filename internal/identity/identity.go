// Package identity resolves the stable anonymous user id that scopes all
// persisted data. No account or credentials are involved: the id is minted
// on first use and reused forever after.
package identity

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrUnavailable is returned when the identity could not be established.
var ErrUnavailable = errors.New("identity unavailable")

// Provider resolves the anonymous user identity. Resolution may complete
// asynchronously; callers that need the id register a callback instead of
// polling.
type Provider interface {
	// Current returns the resolved user id, or false while resolution is
	// still pending or has failed.
	Current() (string, bool)

	// WhenReady registers fn to be called once resolution completes. If the
	// identity is already resolved (or has already failed) fn is called
	// immediately on the calling goroutine. Each callback is invoked exactly
	// once.
	WhenReady(fn func(userID string, err error))
}

// FileProvider persists the anonymous id in a file. The first resolution
// mints a fresh id and writes it; later runs read it back, so the identity
// survives restarts the way an anonymous auth session would.
type FileProvider struct {
	path string
	log  zerolog.Logger
	once sync.Once

	mu       sync.Mutex
	id       string
	err      error
	resolved bool
	waiters  []func(string, error)
}

// NewFileProvider creates a provider that keeps the id at path. Resolution
// starts lazily on the first Current or WhenReady call.
func NewFileProvider(path string, logger zerolog.Logger) *FileProvider {
	return &FileProvider{path: path, log: logger}
}

// Current returns the resolved user id, or false while pending or failed.
func (p *FileProvider) Current() (string, bool) {
	p.ensure()
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.resolved || p.err != nil {
		return "", false
	}
	return p.id, true
}

// WhenReady registers fn for the resolution outcome.
func (p *FileProvider) WhenReady(fn func(userID string, err error)) {
	p.ensure()
	p.mu.Lock()
	if p.resolved {
		id, err := p.id, p.err
		p.mu.Unlock()
		fn(id, err)
		return
	}
	p.waiters = append(p.waiters, fn)
	p.mu.Unlock()
}

func (p *FileProvider) ensure() {
	p.once.Do(func() {
		go p.resolve()
	})
}

// resolve reads the persisted id, minting and writing one if none exists,
// then flushes every queued waiter.
func (p *FileProvider) resolve() {
	id, err := p.load()

	p.mu.Lock()
	p.id = id
	p.err = err
	p.resolved = true
	waiters := p.waiters
	p.waiters = nil
	p.mu.Unlock()

	if err != nil {
		p.log.Error().Err(err).Msg("anonymous identity resolution failed")
	} else {
		p.log.Debug().Str("user_id", id).Msg("anonymous identity resolved")
	}

	for _, fn := range waiters {
		fn(id, err)
	}
}

func (p *FileProvider) load() (string, error) {
	data, err := os.ReadFile(p.path)
	if err == nil {
		id := strings.TrimSpace(string(data))
		if id == "" {
			return "", fmt.Errorf("identity file %s is empty: %w", p.path, ErrUnavailable)
		}
		return id, nil
	}
	if !os.IsNotExist(err) {
		return "", fmt.Errorf("read identity file: %w", err)
	}

	id := uuid.NewString()
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return "", fmt.Errorf("create identity directory: %w", err)
	}
	if err := os.WriteFile(p.path, []byte(id+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("write identity file: %w", err)
	}
	return id, nil
}

// StaticProvider always reports a fixed, already-resolved id. Useful for
// tests and tooling.
type StaticProvider struct {
	ID string
}

// Current returns the fixed id.
func (p StaticProvider) Current() (string, bool) {
	return p.ID, p.ID != ""
}

// WhenReady calls fn immediately with the fixed id.
func (p StaticProvider) WhenReady(fn func(userID string, err error)) {
	if p.ID == "" {
		fn("", ErrUnavailable)
		return
	}
	fn(p.ID, nil)
}
