// Package supervisor manages the lifecycle of the analytics backend process.
//
// The supervisor owns the single backend ProcessHandle: it resolves the
// launch command (interpreter invocation in dev mode, ordered candidate
// search in prod mode), spawns the process with its stdout/stderr captured
// into a bounded diagnostic tail, probes the liveness endpoint with a fixed
// per-probe timeout, and terminates the process tree on shutdown or restart.
//
// Start is idempotent against an externally started backend: when the
// liveness endpoint already answers, no process is spawned. Stop is
// fire-and-forget: the termination signal is issued and the handle cleared
// without waiting for confirmed subprocess death, so application exit is
// never blocked on the backend.
//
// Platform differences in process termination are isolated behind the
// ProcessTerminator capability, selected once at construction time.
package supervisor
