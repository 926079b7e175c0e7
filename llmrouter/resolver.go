package llmrouter

import "sync"

// Credentials maps a provider identifier to its API key. Entries with empty
// values are treated as absent.
type Credentials map[string]string

// Has reports whether a non-empty credential exists for the provider.
func (c Credentials) Has(provider string) bool {
	return c[provider] != ""
}

// ModelHandle is a resolved, callable model: a catalog entry paired with the
// provider adapter that can execute requests against it.
type ModelHandle struct {
	Info    ModelInfo
	Adapter ProviderAdapter
}

// AdapterFactory constructs a ProviderAdapter for a provider/credential pair.
// Injected so tests and embedders can substitute fakes for the gollm-backed
// default without process-wide state.
type AdapterFactory func(provider, apiKey string) (ProviderAdapter, error)

// Resolver maps model identifiers plus supplied credentials to callable
// model handles. It is a pure lookup over the static catalog and the
// credential set; the only state is a per-provider adapter cache.
type Resolver struct {
	creds   Credentials
	factory AdapterFactory

	mu       sync.Mutex
	adapters map[string]ProviderAdapter
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithAdapterFactory replaces the default gollm-backed adapter factory.
func WithAdapterFactory(f AdapterFactory) ResolverOption {
	return func(r *Resolver) {
		r.factory = f
	}
}

// NewResolver creates a Resolver over the given credentials.
func NewResolver(creds Credentials, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		creds:    creds,
		adapters: make(map[string]ProviderAdapter),
		factory: func(provider, apiKey string) (ProviderAdapter, error) {
			return NewGollmAdapter(provider, apiKey)
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HasAnyCredential reports whether at least one provider credential is present.
func (r *Resolver) HasAnyCredential() bool {
	for _, key := range r.creds {
		if key != "" {
			return true
		}
	}
	return false
}

// Resolve maps a model identifier to a callable handle. The mock model
// always resolves. An unknown model resolves via its implied provider only
// when that provider holds a credential; otherwise *ProviderAuthError.
func (r *Resolver) Resolve(modelID string) (*ModelHandle, error) {
	if modelID == MockModelID {
		return &ModelHandle{
			Info:    ModelInfo{ID: MockModelID, Provider: "mock", DisplayName: "Mock"},
			Adapter: NewMockAdapter(),
		}, nil
	}

	info := GetModelInfo(modelID)
	if info == nil {
		return nil, &ProviderAuthError{Provider: "unknown", ModelID: modelID}
	}
	if !r.creds.Has(info.Provider) {
		return nil, &ProviderAuthError{Provider: info.Provider, ModelID: modelID}
	}

	adapter, err := r.adapterFor(info.Provider)
	if err != nil {
		return nil, err
	}
	return &ModelHandle{Info: *info, Adapter: adapter}, nil
}

// CheapestAvailable selects the lowest-cost catalog model among providers
// with a credential present, or nil when none. Used exclusively to pick a
// low-risk model for repacking, never as the primary model.
func (r *Resolver) CheapestAvailable() *ModelHandle {
	var best *ModelInfo
	for i := range Models {
		m := &Models[i]
		if !r.creds.Has(m.Provider) {
			continue
		}
		if best == nil || m.CombinedCost() < best.CombinedCost() {
			best = m
		}
	}
	if best == nil {
		return nil
	}

	adapter, err := r.adapterFor(best.Provider)
	if err != nil {
		return nil
	}
	return &ModelHandle{Info: *best, Adapter: adapter}
}

func (r *Resolver) adapterFor(provider string) (ProviderAdapter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if adapter, ok := r.adapters[provider]; ok {
		return adapter, nil
	}
	adapter, err := r.factory(provider, r.creds[provider])
	if err != nil {
		return nil, err
	}
	r.adapters[provider] = adapter
	return adapter, nil
}

// Close releases resources held by cached adapters.
func (r *Resolver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var firstErr error
	for _, adapter := range r.adapters {
		if closer, ok := adapter.(Closer); ok {
			if err := closer.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
