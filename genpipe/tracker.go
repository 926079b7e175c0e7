package genpipe

// RepairResult describes what the Layer 0 text-repair hook did during a
// generation call.
type RepairResult string

const (
	RepairNotRun RepairResult = "not-run"
	RepairOK     RepairResult = "ok"
	RepairFailed RepairResult = "failed"
)

// RepairTracker exposes the Layer 0 hook's activity to the caller so the
// audit logger can record it without coupling to invoker internals.
type RepairTracker struct {
	Attempted bool
	Result    RepairResult
}

// NewRepairTracker returns a tracker in the not-run state.
func NewRepairTracker() RepairTracker {
	return RepairTracker{Result: RepairNotRun}
}
