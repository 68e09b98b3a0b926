package flowstate

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"tradegate/internal/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// overlayFile maps the overlays config file.
type overlayFile struct {
	Overlays map[string]Overlay `yaml:"overlays"`
}

// Registry holds the named session overlays, hot-reloaded when the backing
// file changes. Reads are lock-cheap snapshots.
type Registry struct {
	path string
	v    *viper.Viper

	mu       sync.RWMutex
	overlays map[string]Overlay
	loadedAt time.Time
}

// NewRegistry reads the overlay file and watches it for updates.
func NewRegistry(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("overlay registry requires a path")
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read overlay config failed: %w", err)
	}
	r := &Registry{path: path, v: v}
	if err := r.reload(); err != nil {
		return nil, err
	}
	v.OnConfigChange(func(fsnotify.Event) {
		if err := r.reload(); err != nil {
			logger.Errorf("overlay reload failed: %v", err)
		}
	})
	v.WatchConfig()
	return r, nil
}

// Overlay returns the overlay for a session name, or nil when none is
// defined (no overlay is a valid state, not an error).
func (r *Registry) Overlay(session string) *Overlay {
	session = strings.ToLower(strings.TrimSpace(session))
	if session == "" {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if ov, ok := r.overlays[session]; ok {
		copied := ov
		return &copied
	}
	return nil
}

// Names lists the configured session names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.overlays))
	for name := range r.overlays {
		out = append(out, name)
	}
	return out
}

func (r *Registry) reload() error {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		return fmt.Errorf("read overlay file failed: %w", err)
	}
	var cfg overlayFile
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return fmt.Errorf("parse overlay file failed: %w", err)
	}
	overlays := make(map[string]Overlay, len(cfg.Overlays))
	for name, ov := range cfg.Overlays {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		if ov.Name == "" {
			ov.Name = key
		}
		overlays[key] = ov
	}
	r.mu.Lock()
	r.overlays = overlays
	r.loadedAt = time.Now()
	r.mu.Unlock()
	logger.Infof("session overlays loaded: %d from %s", len(overlays), r.path)
	return nil
}
