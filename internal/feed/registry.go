package feed

import (
	"reflect"
	"sync"
	"time"
)

// FeedConfig is the immutable, per-feed configuration recognized by the
// registry (§4.7, §6). Once registered it is never mutated; it is safe to
// share across goroutines.
type FeedConfig struct {
	Provider  Provider
	PerPage   int
	BatchSize int
	Namespace string
	MaxSize   int
}

const (
	defaultPerPage   = 50
	defaultBatchSize = 10
	defaultMaxSize   = 1000
)

// withDefaults fills unset numeric fields per §6's documented defaults.
// MaxSize defaults to PerPage*10, per the data model's stated default
// relationship, computed after PerPage's own default is applied (so an
// entirely unset config gets 50*10 = 500); the flat defaultMaxSize is used
// only if that product is not positive.
func (c FeedConfig) withDefaults() FeedConfig {
	if c.PerPage <= 0 {
		c.PerPage = defaultPerPage
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.MaxSize <= 0 {
		c.MaxSize = c.PerPage * 10
		if c.MaxSize <= 0 {
			c.MaxSize = defaultMaxSize
		}
	}
	return c
}

func (c FeedConfig) validate(name string) error {
	if c.Provider == nil {
		return ConfigErrorf("feed %q: provider is required", name)
	}
	if c.Namespace == "" {
		return ConfigErrorf("feed %q: namespace is required", name)
	}
	if c.PerPage <= 0 {
		return ConfigErrorf("feed %q: per_page must be positive", name)
	}
	if c.BatchSize <= 0 {
		return ConfigErrorf("feed %q: batch_size must be positive", name)
	}
	if c.MaxSize <= 0 {
		return ConfigErrorf("feed %q: max_size must be positive", name)
	}
	return nil
}

// equalConfig reports structural equality for the idempotent-redefine rule
// in §4.7 (P11): every field must match under reflect.DeepEqual. Provider
// is compared by its contents, not by identity: two distinct provider
// instances whose current contents are deeply equal (for example two
// freshly constructed MemoryProviders) count as equal.
func (c FeedConfig) equalConfig(other FeedConfig) bool {
	return reflect.DeepEqual(c, other)
}

// Feed is the registered, looked-up handle a caller obtains from Registry.
// Lookup; .Activity(userIDs) produces the Activity handle bound to it.
type Feed struct {
	Name   string
	config FeedConfig
}

// Config returns the feed's immutable configuration.
func (f *Feed) Config() FeedConfig {
	return f.config
}

func (f *Feed) feedContext(deadline time.Time) FeedContext {
	return FeedContext{
		Namespace: f.config.Namespace,
		FeedName:  f.Name,
		MaxSize:   f.config.MaxSize,
		BatchSize: f.config.BatchSize,
		Deadline:  deadline,
	}
}

// Single returns a SingleActivity bound to one user.
func (f *Feed) Single(userID string) (*SingleActivity, error) {
	return NewSingleActivity(f.feedContext(time.Time{}), f.config.Provider, userID)
}

// Activity returns a MultiActivity bound to the given users. Callers that
// only need single-user ergonomics should use Single instead.
func (f *Feed) Activity(userIDs ...string) (*MultiActivity, error) {
	return NewMultiActivity(f.feedContext(time.Time{}), f.config.Provider, userIDs)
}

// ActivityWithDeadline is like Activity but binds an overall deadline for
// the batched call, per §5's cancellation/timeout model.
func (f *Feed) ActivityWithDeadline(deadline time.Time, userIDs ...string) (*MultiActivity, error) {
	return NewMultiActivity(f.feedContext(deadline), f.config.Provider, userIDs)
}

// Registry is a process-wide mapping from feed name to immutable
// FeedConfig (§4.7). Registration happens once via Define; re-registering
// the same name with an identical config is idempotent, with a different
// config it is a ConfigError.
type Registry struct {
	mu    sync.RWMutex
	feeds map[string]*Feed
}

// NewRegistry constructs an empty registry. Most callers use the
// package-level Define and Lookup instead, which delegate to the
// process-wide defaultRegistry (§9's global-registry note).
func NewRegistry() *Registry {
	return &Registry{feeds: make(map[string]*Feed)}
}

// Define registers name with config, applying documented defaults first.
// Re-registering an already-defined name with an equal config is a no-op;
// with a different config it returns ConfigError (P11).
func (r *Registry) Define(name string, config FeedConfig) (*Feed, error) {
	config = config.withDefaults()
	if err := config.validate(name); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.feeds[name]; ok {
		if existing.config.equalConfig(config) {
			return existing, nil
		}
		return nil, ConfigErrorf("feed %q already registered with a different configuration", name)
	}

	f := &Feed{Name: name, config: config}
	r.feeds[name] = f
	return f, nil
}

// Lookup returns the feed registered under name, or NotFound.
func (r *Registry) Lookup(name string) (*Feed, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.feeds[name]
	if !ok {
		return nil, NotFoundErrorf("feed %q is not registered", name)
	}
	return f, nil
}

// defaultRegistry is the package-wide convenience façade described in §9:
// "keep the process-wide map as a convenience façade that delegates to a
// default registry instance." Library APIs should prefer explicit Registry
// passing; Define/Lookup at package scope exist for simple programs and
// tests.
var defaultRegistry = NewRegistry()

// Define registers name on the default, process-wide registry.
func Define(name string, config FeedConfig) (*Feed, error) {
	return defaultRegistry.Define(name, config)
}

// Lookup resolves name on the default, process-wide registry.
func Lookup(name string) (*Feed, error) {
	return defaultRegistry.Lookup(name)
}
