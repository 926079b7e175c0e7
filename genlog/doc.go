// Package genlog persists an audit record for every generation attempt and
// enforces the retention policy on the sensitive text it carries.
//
// A Logger is created at invocation start and owned by a single request. It
// implements genpipe.Recorder so the pipeline reports each recovery stage
// into it, and Finalize writes exactly one row through the Store. Raw model
// output and prompt text are stored in full only until a fixed retention
// window elapses; after that the sweeper nulls them out, keeping the hash
// and all diagnostic fields forever.
package genlog
