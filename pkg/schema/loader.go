package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// fileSchema is the on-disk shape of an extension field file.
type fileSchema struct {
	Fields []FieldDefinition `yaml:"fields"`
}

// Loader reads extension field definitions from a YAML file and keeps an
// in-memory snapshot up to date when the file changes. Registries are still
// built fresh per request from the current snapshot; the loader only owns
// the extension input, not the merged field set.
type Loader struct {
	path string

	mu        sync.RWMutex
	extension map[string]FieldDefinition

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewLoader reads the file at path and returns a loader holding its fields.
// A missing file is not an error: the loader starts with no extension fields
// and picks the file up if it appears later.
func NewLoader(path string) (*Loader, error) {
	l := &Loader{path: path, done: make(chan struct{})}

	if err := l.reload(); err != nil {
		return nil, err
	}

	return l, nil
}

// Extension returns the current extension field set. The map is a copy.
func (l *Loader) Extension() map[string]FieldDefinition {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(map[string]FieldDefinition, len(l.extension))
	for k, v := range l.extension {
		out[k] = v
	}
	return out
}

// Registry builds a fresh registry from the current extension snapshot.
func (l *Loader) Registry(hook *Hook) *Registry {
	return NewRegistry(l.Extension(), hook)
}

// Watch starts watching the schema file's directory for changes. Events for
// the file trigger a reload; reload failures keep the previous snapshot and
// are reported through onError, which may be nil.
func (l *Loader) Watch(onError func(error)) error {
	if l.path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create schema watcher: %w", err)
	}

	// Watch the directory rather than the file so atomic rename-style
	// writes are still observed.
	if err := watcher.Add(filepath.Dir(l.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch schema directory: %w", err)
	}

	l.watcher = watcher

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(l.path) {
					continue
				}
				if err := l.reload(); err != nil && onError != nil {
					onError(err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				if onError != nil {
					onError(err)
				}
			case <-l.done:
				return
			}
		}
	}()

	return nil
}

// Close stops the watcher.
func (l *Loader) Close() error {
	close(l.done)
	if l.watcher != nil {
		return l.watcher.Close()
	}
	return nil
}

// reload re-reads the schema file and swaps the snapshot.
func (l *Loader) reload() error {
	extension, err := loadFile(l.path)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.extension = extension
	l.mu.Unlock()

	return nil
}

// loadFile parses a schema YAML file into an extension field map. A missing
// or empty path yields an empty map.
func loadFile(path string) (map[string]FieldDefinition, error) {
	extension := make(map[string]FieldDefinition)

	if path == "" {
		return extension, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return extension, nil
		}
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	var parsed fileSchema
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse schema file %s: %w", path, err)
	}

	for _, def := range parsed.Fields {
		if def.Key == "" {
			continue
		}
		extension[def.Key] = def
	}

	return extension, nil
}
