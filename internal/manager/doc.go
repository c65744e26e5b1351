// Package manager owns the loaded model and drives inference sessions for it.
// It is structured into small files by concern:
//
//   - manager.go: core Manager type, constructor, simple getters.
//   - config.go: ManagerConfig and package defaults; NewWithConfig applies defaults.
//   - session.go: one generation session and its state machine.
//   - infer.go: Generate, the driver that runs a session to a terminal state.
//   - admission.go: queueing and the concurrency gate in front of the model.
//   - errors.go: error types and helpers (IsTooBusy, IsGenerationError).
//   - events.go, eventpub_memory.go: lifecycle events.
//   - metrics.go: Prometheus collectors for sessions and admission.
//   - status_report.go: Status reporting for /status.
//
// A Manager is shared read-only state after construction. Sessions are never
// shared: each Generate call creates, drives and closes its own session.
package manager
