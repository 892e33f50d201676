// Package remoteconfig serves operator-tuned parameters from a TOML
// snapshot file, with typed accessors that fall back to caller-supplied
// defaults. The snapshot can be watched for changes so new values apply
// without a restart.
package remoteconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
)

// Provider reads configuration values from a TOML file. All accessors are
// safe for concurrent use. A missing file or missing key is never an error:
// the caller's default applies.
type Provider struct {
	path string
	log  zerolog.Logger

	mu     sync.RWMutex
	values map[string]any

	watcher   *fsnotify.Watcher
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a provider over the snapshot at path and loads it once. With
// liveReload, the file is watched and reloaded on change; the directory is
// watched rather than the file itself so atomic replaces are picked up.
func New(path string, liveReload bool, logger zerolog.Logger) (*Provider, error) {
	p := &Provider{
		path:   path,
		log:    logger,
		values: map[string]any{},
		done:   make(chan struct{}),
	}
	p.reload()

	if liveReload {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, fmt.Errorf("create config watcher: %w", err)
		}
		if err := watcher.Add(filepath.Dir(path)); err != nil {
			_ = watcher.Close()
			return nil, fmt.Errorf("watch config directory: %w", err)
		}
		p.watcher = watcher
		go p.watch()
	}

	return p, nil
}

// Close stops the file watcher. Accessors keep serving the last snapshot.
func (p *Provider) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.done)
		if p.watcher != nil {
			err = p.watcher.Close()
		}
	})
	return err
}

// GetString returns the string at key, or def.
func (p *Provider) GetString(key, def string) string {
	if v, ok := p.lookup(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// GetInt returns the integer at key, or def.
func (p *Provider) GetInt(key string, def int64) int64 {
	if v, ok := p.lookup(key); ok {
		switch n := v.(type) {
		case int64:
			return n
		case float64:
			return int64(n)
		}
	}
	return def
}

// GetFloat returns the float at key, or def.
func (p *Provider) GetFloat(key string, def float64) float64 {
	if v, ok := p.lookup(key); ok {
		switch n := v.(type) {
		case float64:
			return n
		case int64:
			return float64(n)
		}
	}
	return def
}

// GetBool returns the boolean at key, or def.
func (p *Provider) GetBool(key string, def bool) bool {
	if v, ok := p.lookup(key); ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// lookup resolves a dotted key ("search.page_size") through nested tables.
func (p *Provider) lookup(key string) (any, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var current any = p.values
	for _, part := range strings.Split(key, ".") {
		table, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = table[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// reload re-reads the snapshot. A malformed or missing file keeps the
// previous values.
func (p *Provider) reload() {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if !os.IsNotExist(err) {
			p.log.Warn().Err(err).Str("path", p.path).Msg("could not read config snapshot")
		}
		return
	}

	values := map[string]any{}
	if err := toml.Unmarshal(data, &values); err != nil {
		p.log.Warn().Err(err).Str("path", p.path).Msg("malformed config snapshot, keeping previous values")
		return
	}

	p.mu.Lock()
	p.values = values
	p.mu.Unlock()
	p.log.Debug().Str("path", p.path).Msg("config snapshot loaded")
}

func (p *Provider) watch() {
	base := filepath.Base(p.path)
	for {
		select {
		case <-p.done:
			return
		case event, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				p.reload()
			}
		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			p.log.Warn().Err(err).Msg("config watcher error")
		}
	}
}
