// Package llmrouter maps requested model identifiers and available provider
// credentials to callable model handles, and wraps provider transports behind
// a small adapter interface.
//
// # Architecture
//
// The package has three layers:
//
//   - Catalog: a static table of known models with provider, context window,
//     and per-million-token pricing. Pricing drives the cheap-fallback
//     selection used by the repack stage of the recovery pipeline.
//   - Resolver: combines the catalog with the credentials supplied by the
//     caller. Resolve fails with *ProviderAuthError when the provider implied
//     by a model identifier has no credential. CheapestAvailable ranks the
//     credentialed subset of the catalog by combined cost.
//   - Adapters: ProviderAdapter implementations. GollmAdapter wraps
//     gollm.LLM for real providers; MockAdapter returns a deterministic
//     canned object for the "mock" model so end-to-end tests never touch
//     the network.
//
// # Quick Start
//
//	resolver := llmrouter.NewResolver(llmrouter.Credentials{
//	    "openai": os.Getenv("OPENAI_API_KEY"),
//	})
//	handle, err := resolver.Resolve("gpt-5.2-mini")
//	if err != nil {
//	    // *ProviderAuthError: no credential for the implied provider
//	}
//	resp, err := handle.Adapter.Complete(ctx, llmrouter.Request{
//	    Model:    handle.Info.ID,
//	    Messages: []llmrouter.Message{llmrouter.UserMessage("...")},
//	})
//
// The resolver holds no mutable state beyond a per-provider adapter cache;
// it is safe for concurrent use by independent generation requests.
package llmrouter
