package plugin

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/Iron-Ham/calcwizard/internal/event"
	"github.com/Iron-Ham/calcwizard/internal/logging"
)

// DefaultLoadTimeout bounds a single plugin load.
const DefaultLoadTimeout = 30 * time.Second

// maxParallelLoads caps concurrent loads during Resolve.
const maxParallelLoads = 8

// Registry resolves a Source into an ordered descriptor list. Loads are
// memoized per id once they succeed; concurrent loads of one id share a
// single call.
type Registry struct {
	source      Source
	loadTimeout time.Duration
	logger      *logging.Logger
	bus         *event.Bus

	group singleflight.Group

	mu   sync.RWMutex
	memo map[string]*Descriptor
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLoadTimeout sets the timeout of each load.
func WithLoadTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) {
		r.loadTimeout = d
	}
}

// WithRegistryLogger sets the registry's logger.
func WithRegistryLogger(l *logging.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = l
	}
}

// WithRegistryBus publishes resolution events on bus.
func WithRegistryBus(bus *event.Bus) RegistryOption {
	return func(r *Registry) {
		r.bus = bus
	}
}

// NewRegistry creates a registry over source.
func NewRegistry(source Source, opts ...RegistryOption) *Registry {
	r := &Registry{
		source:      source,
		loadTimeout: DefaultLoadTimeout,
		logger:      logging.NopLogger(),
		memo:        make(map[string]*Descriptor),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve lists the source and loads every id. The result keeps list order.
// A plugin that fails to load resolves to an unavailable placeholder; only a
// failed list or a cancelled ctx fails the call.
func (r *Registry) Resolve(ctx context.Context) ([]*Descriptor, error) {
	ids, err := r.source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve plugins: %w", err)
	}

	out := make([]*Descriptor, len(ids))
	var g errgroup.Group
	g.SetLimit(maxParallelLoads)
	for i, id := range ids {
		g.Go(func() error {
			out[i] = r.Load(ctx, id)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fp := Fingerprint(out)
	r.logger.Info("plugins resolved", "count", len(out), "fingerprint", fp)
	if r.bus != nil {
		r.bus.Publish(event.NewPluginsResolvedEvent(ids, fp))
	}
	return out, nil
}

// Load returns the descriptor for id, loading it at most once at a time.
// The load itself runs detached from ctx, so a caller that gives up does not
// cancel it for others waiting on the same id.
func (r *Registry) Load(ctx context.Context, id string) *Descriptor {
	r.mu.RLock()
	d, ok := r.memo[id]
	r.mu.RUnlock()
	if ok {
		return d
	}

	ch := r.group.DoChan(id, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.loadTimeout)
		defer cancel()

		d, err := r.source.Load(loadCtx, id)
		if err != nil {
			return nil, err
		}
		if d == nil {
			return nil, fmt.Errorf("plugin %s: source returned no descriptor", id)
		}
		r.mu.Lock()
		r.memo[id] = d
		r.mu.Unlock()
		return d, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return r.unavailable(id, res.Err)
		}
		return res.Val.(*Descriptor)
	case <-ctx.Done():
		return r.unavailable(id, ctx.Err())
	}
}

func (r *Registry) unavailable(id string, err error) *Descriptor {
	r.logger.Warn("plugin unavailable", "plugin_id", id, "error", err.Error())
	if r.bus != nil {
		r.bus.Publish(event.NewPluginUnavailableEvent(id, err.Error()))
	}
	return UnavailableDescriptor(id, err)
}

// Loaded reports whether id has a memoized descriptor.
func (r *Registry) Loaded(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.memo[id]
	return ok
}

// Forget drops the memoized descriptor for id.
func (r *Registry) Forget(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.memo, id)
}

// Invalidate drops every memoized descriptor.
func (r *Registry) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.memo = make(map[string]*Descriptor)
}

// Fingerprint identifies a descriptor list by the ids, titles and
// capabilities that shape composition.
func Fingerprint(descs []*Descriptor) string {
	h := sha256.New()
	for _, d := range descs {
		unavailable := ""
		if d.Unavailable() {
			unavailable = "!"
		}
		fmt.Fprintf(h, "%s%s\x00%s\x00%s\n", unavailable, d.ID, d.Title, strings.Join(d.Capabilities(), ","))
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
