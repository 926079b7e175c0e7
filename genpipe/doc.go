// Package genpipe turns unreliable provider output into schema-valid objects.
//
// Providers intermittently return structured output that is wrapped in
// tool-call envelopes, syntactically near-miss JSON, or typed slightly wrong.
// The pipeline recovers in strict layers, stopping at the first one that
// yields a valid object:
//
//   - Layer 0: during the primary call, a deterministic text-repair hook
//     fixes common syntax damage (markdown fences, trailing commas,
//     unescaped control characters, unbalanced brackets) before the body
//     is parsed. Its outcome is observable through RepairTracker.
//   - Layer 1: parse the raw text, strip known provider wrapper shapes
//     (WrapperType is a closed set), then apply deterministic type
//     coercions against the target schema.
//   - Layer 2: hand the raw text and the schema to the cheapest
//     credentialed model and ask it to re-emit conforming JSON. The repack
//     response gets the Layer 1 treatment but never another repack.
//
// When every layer fails the pipeline returns *RecoveryExhaustedError
// wrapping the original failure from the primary model; the repack model's
// error is never surfaced. Each stage reports to a Recorder so the audit
// log captures partial diagnostics ("wrapper detected but coercion failed")
// even when later stages run.
//
// A Pipeline is request-scoped apart from its injected resolver; concurrent
// generation requests share nothing else.
package genpipe
