package types

// StatusResponse is the payload served by GET /status.
type StatusResponse struct {
	// Unique ID of the current loop run (changes on every Run).
	// example: 1b4e28ba-2fa1-11d2-883f-0016d3cca427
	RunID string `json:"run_id,omitempty" example:"1b4e28ba-2fa1-11d2-883f-0016d3cca427"`
	// Whether the loop is currently running.
	// example: true
	Running bool `json:"running" example:"true"`
	// Pacing mode: bounded, limited or unpaced.
	// example: bounded
	Mode string `json:"mode" example:"bounded"`
	// Number of completed ticks in this run.
	// example: 1200
	Ticks uint64 `json:"ticks" example:"1200"`
	// Number of ticks that exceeded the maximum allowed duration.
	// example: 0
	Overruns uint64 `json:"overruns" example:"0"`
	// Duration of the last completed tick in microseconds.
	// example: 87
	LastTickMicros int64 `json:"last_tick_us" example:"87"`
	// Action handler invocations that returned an error or panicked.
	// example: 0
	HandlerFailures uint64 `json:"handler_failures" example:"0"`
	// Event listener invocations that returned an error or panicked.
	// example: 0
	ListenerFailures uint64 `json:"listener_failures" example:"0"`
	// Actions waiting for the next dispatch.
	// example: 3
	PendingActions int `json:"pending_actions" example:"3"`
	// Events waiting for the next emit.
	// example: 0
	PendingEvents int `json:"pending_events" example:"0"`
	// Action kinds with at least one registered handler.
	ActionKinds []string `json:"action_kinds,omitempty"`
	// Event kinds with at least one registered listener.
	EventKinds []string `json:"event_kinds,omitempty"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: failed to encode response
	Error string `json:"error" example:"failed to encode response"`
	// HTTP status code.
	// example: 500
	Code int `json:"code" example:"500"`
}
