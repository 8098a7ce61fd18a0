// Package approval provides the human-in-the-loop gate: typed approval
// requests with per-type SLA timeouts, a terminal-once lifecycle
// (pending -> approved | rejected | expired), approver authorization and
// event fan-out for decision waiters.
package approval
