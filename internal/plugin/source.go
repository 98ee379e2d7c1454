package plugin

import (
	"context"
	"fmt"
	"sync"

	"github.com/Iron-Ham/calcwizard/internal/errors"
)

// Source enumerates plugin ids and loads their descriptors. Load must be
// idempotent per id.
type Source interface {
	List(ctx context.Context) ([]string, error)
	Load(ctx context.Context, id string) (*Descriptor, error)
}

// StaticSource is a Source populated at build time.
type StaticSource struct {
	mu    sync.RWMutex
	ids   []string
	descs map[string]*Descriptor
}

// NewStaticSource creates a source holding the given descriptors, in order.
func NewStaticSource(descs ...*Descriptor) *StaticSource {
	s := &StaticSource{descs: make(map[string]*Descriptor)}
	for _, d := range descs {
		s.Register(d)
	}
	return s
}

// Register appends d to the list. Registering an id again replaces its
// descriptor and lists the id a second time.
func (s *StaticSource) Register(d *Descriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = append(s.ids, d.ID)
	s.descs[d.ID] = d
}

// List returns the registered ids in registration order.
func (s *StaticSource) List(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.ids...), nil
}

// Load returns the descriptor last registered under id.
func (s *StaticSource) Load(_ context.Context, id string) (*Descriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.descs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s not registered", errors.ErrPluginUnavailable, id)
	}
	return d, nil
}
