// Package objschema describes the structural target shape a generation call
// must produce, and validates candidate values against it.
//
// A Schema lists named fields with a kind, optionality, and (for objects and
// arrays) child schemas. From that single description the package derives:
//
//   - a draft 2020-12 JSON Schema document, used both as the provider's
//     structured-output instruction and as the repack instruction sent to
//     the fallback model;
//   - a compiled validator (santhosh-tekuri/jsonschema) that collects every
//     violation as an Issue{Path, Message} for audit logging;
//   - deterministic near-miss coercions (numeric string to number, boolean
//     string to boolean, scalar to one-element array) applied before
//     re-validation.
//
// Schemas are immutable after construction and safe for concurrent use once
// compiled.
package objschema
