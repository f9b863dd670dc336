package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long Watch waits after the last write before
// reporting a change. Editors often save a file in several steps.
const DefaultDebounce = 500 * time.Millisecond

// Manager handles thread-safe access to the configuration file.
type Manager struct {
	mu     sync.RWMutex
	config *Config
	path   string
	logger *slog.Logger
}

// NewManager loads the config at path and initializes the manager.
func NewManager(path string) (*Manager, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &Manager{
		config: cfg,
		path:   path,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// SetLogger sets the logger for the Manager. By default, all logs are discarded.
func (m *Manager) SetLogger(logger *slog.Logger) {
	if logger != nil {
		m.logger = logger
	}
}

// Path returns the file the configuration is stored in.
func (m *Manager) Path() string { return m.path }

// Get returns a copy of the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.clone()
}

// Update validates newConfig, saves it to disk and makes it current. Running
// components only see the change after a restart.
func (m *Manager) Update(newConfig *Config) error {
	if newConfig == nil {
		return fmt.Errorf("configuration must not be empty")
	}
	cfg := newConfig.clone()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration rejected: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := Save(m.path, cfg); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	m.config = cfg
	return nil
}

// Reload re-reads the file from disk. An invalid file leaves the current
// configuration in place.
func (m *Manager) Reload() error {
	cfg, err := Load(m.path)
	if err != nil {
		return err
	}
	if err = cfg.Validate(); err != nil {
		return fmt.Errorf("configuration rejected: %w", err)
	}
	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()
	return nil
}

// Watch calls onChange after the config file has been rewritten and
// reloaded successfully. It blocks until ctx is done. The parent directory
// is watched so that atomic replacements are seen.
func (m *Manager) Watch(ctx context.Context, debounce time.Duration, onChange func(*Config)) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("could not create config watcher: %w", err)
	}
	defer func(watcher *fsnotify.Watcher) {
		_ = watcher.Close()
	}(watcher)

	target, err := filepath.Abs(m.path)
	if err != nil {
		return err
	}
	if err = watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("could not watch %s: %w", filepath.Dir(target), err)
	}
	m.logger.Info("Watching configuration file", slog.String("path", target))

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || name != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			m.logger.Error("Config watcher error", slog.String("error", err.Error()))

		case <-timer.C:
			if err := m.Reload(); err != nil {
				m.logger.Error("Ignoring invalid configuration change", slog.String("error", err.Error()))
				continue
			}
			m.logger.Info("Configuration file changed", slog.String("path", target))
			onChange(m.Get())
		}
	}
}
