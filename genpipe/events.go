package genpipe

import (
	"sync"
	"time"
)

// EventKind identifies the type of pipeline event.
type EventKind string

const (
	EventInvokeStart     EventKind = "invoke_start"
	EventLayer0Repair    EventKind = "layer0_repair"
	EventRecoverable     EventKind = "recoverable_failure"
	EventWrapperDetected EventKind = "wrapper_detected"
	EventCoercionOK      EventKind = "coercion_ok"
	EventRepackStart     EventKind = "repack_start"
	EventPipelineSuccess EventKind = "pipeline_success"
	EventPipelineFailed  EventKind = "pipeline_failed"
)

// PipelineEvent is a typed event emitted while a generation request moves
// through the recovery layers.
type PipelineEvent struct {
	Kind      EventKind      `json:"kind"`
	Timestamp time.Time      `json:"timestamp"`
	RequestID string         `json:"request_id"`
	Data      map[string]any `json:"data,omitempty"`
}

// EventEmitter delivers typed events to the host application via a channel.
// Emission never blocks the pipeline: when the channel is full, events are
// dropped.
type EventEmitter struct {
	requestID string
	ch        chan PipelineEvent
	closed    bool
	mu        sync.Mutex
}

// NewEventEmitter creates an EventEmitter with a buffered channel.
func NewEventEmitter(requestID string, bufferSize int) *EventEmitter {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &EventEmitter{
		requestID: requestID,
		ch:        make(chan PipelineEvent, bufferSize),
	}
}

// Emit sends an event to the channel. If the emitter is closed or nil, the
// event is silently dropped.
func (e *EventEmitter) Emit(kind EventKind, data map[string]any) {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	event := PipelineEvent{
		Kind:      kind,
		Timestamp: time.Now(),
		RequestID: e.requestID,
		Data:      data,
	}
	select {
	case e.ch <- event:
	default:
		// Channel full; drop rather than stall the generation request.
	}
}

// Events returns the read-only event channel.
func (e *EventEmitter) Events() <-chan PipelineEvent {
	return e.ch
}

// Close closes the event channel. Safe to call multiple times.
func (e *EventEmitter) Close() {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		close(e.ch)
	}
}
