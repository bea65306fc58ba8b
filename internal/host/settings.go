package host

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/breeze-rmm/monitorcapture/internal/capture"
)

// SettingsStore persists source settings as key/value pairs in a YAML file.
type SettingsStore struct {
	path string

	mu sync.Mutex
	v  *viper.Viper
}

// NewSettingsStore uses the YAML file at path. The file need not exist.
func NewSettingsStore(path string) *SettingsStore {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	for key, value := range capture.Defaults().Map() {
		v.SetDefault(key, value)
	}
	return &SettingsStore{path: path, v: v}
}

// Path returns the backing file.
func (s *SettingsStore) Path() string { return s.path }

// Load reads the file. A missing file yields the default settings.
func (s *SettingsStore) Load() (capture.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return capture.Defaults(), fmt.Errorf("read settings %s: %w", s.path, err)
	}
	return s.decode()
}

// decode runs with s.mu held.
func (s *SettingsStore) decode() (capture.Settings, error) {
	var settings capture.Settings
	if err := s.v.Unmarshal(&settings); err != nil {
		return capture.Defaults(), fmt.Errorf("decode settings %s: %w", s.path, err)
	}
	return settings, nil
}

// Save writes settings to the file, creating its directory.
func (s *SettingsStore) Save(settings capture.Settings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	// A separate instance keeps Set overrides out of s.v, where they would
	// shadow later edits to the file.
	w := viper.New()
	w.SetConfigType("yaml")
	for key, value := range settings.Map() {
		w.Set(key, value)
	}
	if err := w.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("write settings %s: %w", s.path, err)
	}
	log.Debug("settings saved", "path", s.path)
	return nil
}

// Watch calls onChange with the new settings whenever the file is written,
// until ctx is done. Reloads go through Load, so they serialize with other
// callers on s.mu; the viper instance is never touched outside it. Read and
// decode errors are logged and the change is skipped.
func (s *SettingsStore) Watch(ctx context.Context, onChange func(capture.Settings)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch settings: %w", err)
	}
	// Watch the directory so editors that replace the file by rename are seen.
	dir := filepath.Dir(s.path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return fmt.Errorf("watch settings dir %s: %w", dir, err)
	}

	go func() {
		defer w.Close()
		target := filepath.Clean(s.path)
		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(e.Name) != target || !e.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				settings, err := s.Load()
				if err != nil {
					log.Warn("ignoring settings change", "path", e.Name, "error", err)
					continue
				}
				log.Info("settings file changed", "path", e.Name)
				onChange(settings)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn("settings watcher error", "error", err)
			}
		}
	}()
	return nil
}
