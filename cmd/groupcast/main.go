// cmd/groupcast/main.go
// Binary entrypoint for groupcast. A bare `groupcast serve` is the
// supervisor and runs the master (FORWARDER role) inline; it re-execs this
// same binary once per worker (SERVER role) process, per
// internal/orchestrator.Supervisor.
package main

func main() {
	Execute()
}
