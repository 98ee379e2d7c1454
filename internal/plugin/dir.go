package plugin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Iron-Ham/calcwizard/internal/errors"
)

// ManifestFile is the manifest file name inside a plugin directory.
const ManifestFile = "plugin.yaml"

// watchDebounce collapses bursts of editor writes into one notification.
const watchDebounce = 100 * time.Millisecond

// DirSource loads plugins from {dir}/{id}/plugin.yaml.
type DirSource struct {
	dir string
}

// NewDirSource creates a source over dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// Dir returns the watched directory.
func (s *DirSource) Dir() string {
	return s.dir
}

// List returns the ids of subdirectories holding a manifest, sorted.
func (s *DirSource) List(context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list plugins: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.dir, e.Name(), ManifestFile)); err == nil {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Load reads and validates {dir}/{id}/plugin.yaml.
func (s *DirSource) Load(_ context.Context, id string) (*Descriptor, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, id, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errors.ErrPluginUnavailable, id, err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(id); err != nil {
		return nil, err
	}
	return m.Descriptor(), nil
}

// Watch calls onChange whenever a manifest under the directory is created,
// written, removed or renamed, until ctx is done. New plugin directories are
// picked up as they appear.
func (s *DirSource) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", s.dir, err)
	}
	entries, _ := os.ReadDir(s.dir)
	for _, e := range entries {
		if e.IsDir() {
			_ = watcher.Add(filepath.Join(s.dir, e.Name()))
		}
	}

	go s.watchLoop(ctx, watcher, onChange)
	return nil
}

func (s *DirSource) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, onChange func()) {
	defer func() { _ = watcher.Close() }()

	debounceTimer := time.NewTimer(0)
	<-debounceTimer.C // drain initial timer
	pending := false

	for {
		select {
		case <-ctx.Done():
			debounceTimer.Stop()
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			// A new plugin directory needs its own watch to see its manifest.
			if event.Op&fsnotify.Create != 0 && filepath.Dir(event.Name) == filepath.Clean(s.dir) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watcher.Add(event.Name)
					pending = true
				}
			}
			if filepath.Base(event.Name) == ManifestFile || filepath.Dir(event.Name) == filepath.Clean(s.dir) {
				pending = true
			}
			if pending {
				debounceTimer.Reset(watchDebounce)
			}

		case <-debounceTimer.C:
			if pending {
				pending = false
				onChange()
			}

		case _, ok := <-watcher.Errors:
			if !ok {
				return
			}
		}
	}
}
