package modules

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	ErrModuleExists    = errors.New("module already exists")
	ErrModuleNil       = errors.New("module is nil")
	ErrModuleNotFound  = errors.New("module not found")
	ErrInvalidMetadata = errors.New("invalid module metadata")
	ErrWrongKind       = errors.New("module does not implement requested interface")
)

// Registry stores modules by stable identifier.
type Registry struct {
	mu    sync.RWMutex
	items map[string]Module
}

// NewRegistry creates an empty module registry.
func NewRegistry() *Registry {
	return &Registry{items: make(map[string]Module)}
}

// ValidateMetadata checks required metadata fields and id format.
func ValidateMetadata(meta Metadata) error {
	id := strings.TrimSpace(meta.ID)
	name := strings.TrimSpace(meta.Name)
	desc := strings.TrimSpace(meta.Description)
	if id == "" || name == "" || desc == "" {
		return fmt.Errorf("%w: id, name, and description are required", ErrInvalidMetadata)
	}
	if !isValidID(id) {
		return fmt.Errorf("%w: invalid id format %q", ErrInvalidMetadata, id)
	}
	return nil
}

// Register adds a module to the registry.
func (r *Registry) Register(m Module) error {
	if m == nil {
		return ErrModuleNil
	}
	meta := m.Metadata()
	if err := ValidateMetadata(meta); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[meta.ID]; ok {
		return fmt.Errorf("%w: %s", ErrModuleExists, meta.ID)
	}
	r.items[meta.ID] = m
	return nil
}

// Resolve returns a module by id.
func (r *Registry) Resolve(id string) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.items[id]
	return m, ok
}

// ListMetadata returns deterministic metadata ordering by id.
func (r *Registry) ListMetadata() []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]Metadata, 0, len(r.items))
	for _, m := range r.items {
		list = append(list, m.Metadata())
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})
	return list
}

// Inference resolves id and asserts it is an Inference module.
func (r *Registry) Inference(id string) (Inference, error) {
	m, err := r.resolve(id)
	if err != nil {
		return nil, err
	}
	inf, ok := m.(Inference)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not an inference module", ErrWrongKind, id)
	}
	return inf, nil
}

// Renderer resolves id and asserts it is a Renderer module.
func (r *Registry) Renderer(id string) (Renderer, error) {
	m, err := r.resolve(id)
	if err != nil {
		return nil, err
	}
	rnd, ok := m.(Renderer)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a renderer module", ErrWrongKind, id)
	}
	return rnd, nil
}

// Optimizer resolves id and asserts it is an Optimizer module.
func (r *Registry) Optimizer(id string) (Optimizer, error) {
	m, err := r.resolve(id)
	if err != nil {
		return nil, err
	}
	opt, ok := m.(Optimizer)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not an optimizer module", ErrWrongKind, id)
	}
	return opt, nil
}

func (r *Registry) resolve(id string) (Module, error) {
	m, ok := r.Resolve(id)
	if !ok || m == nil {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, id)
	}
	return m, nil
}

func isValidID(id string) bool {
	if id == "" {
		return false
	}
	lastSep := false
	for i := 0; i < len(id); i++ {
		c := id[i]
		isLower := c >= 'a' && c <= 'z'
		isDigit := c >= '0' && c <= '9'
		isSep := c == '.' || c == '-' || c == '_'
		if !(isLower || isDigit || isSep) {
			return false
		}
		if i == 0 || i == len(id)-1 {
			if isSep {
				return false
			}
		}
		if isSep && lastSep {
			return false
		}
		lastSep = isSep
	}
	return true
}
