package schema

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

//go:embed templates/*.json
var builtinTemplates embed.FS

// Registry holds the loaded template schemas, keyed by templateKey.
// Templates are loaded once at startup and treated as immutable afterwards.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]*Template
	order     []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{templates: make(map[string]*Template)}
}

// Register adds a template, replacing any previous template with the same key.
// Replacement keeps the original position so listing order stays stable when
// an on-disk template overrides a builtin one.
func (r *Registry) Register(t *Template) error {
	if err := t.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.templates[t.Key]; !exists {
		r.order = append(r.order, t.Key)
	}
	r.templates[t.Key] = t
	return nil
}

// Get returns a template by key. Returns false if not found.
func (r *Registry) Get(key string) (*Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.templates[key]
	return t, ok
}

// All returns all templates in registration order.
func (r *Registry) All() []*Template {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Template, 0, len(r.order))
	for _, key := range r.order {
		result = append(result, r.templates[key])
	}
	return result
}

// Load builds a registry from the embedded builtin templates, then overlays
// any *.json templates found in dir (when dir is non-empty). An unreadable
// or invalid template file fails the whole load; a missing dir does not.
func Load(dir string) (*Registry, error) {
	reg := NewRegistry()

	if err := loadFS(reg, builtinTemplates, "templates"); err != nil {
		return nil, fmt.Errorf("builtin templates: %w", err)
	}

	if dir != "" {
		if _, err := os.Stat(dir); err == nil {
			if err := loadFS(reg, os.DirFS(dir), "."); err != nil {
				return nil, fmt.Errorf("templates dir %s: %w", dir, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("templates dir %s: %w", dir, err)
		}
	}

	if len(reg.All()) == 0 {
		return nil, fmt.Errorf("no templates loaded")
	}

	return reg, nil
}

// loadFS parses every .json file under root in name order.
func loadFS(reg *Registry, fsys fs.FS, root string) error {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		data, err := fs.ReadFile(fsys, filepath.Join(root, name))
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}

		var t Template
		if err := json.Unmarshal(data, &t); err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}

		if err := reg.Register(&t); err != nil {
			return fmt.Errorf("register %s: %w", name, err)
		}
	}

	return nil
}
