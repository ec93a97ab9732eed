// Package executor dispatches tool invocations to their backends.
//
// A tool is bound to one of three endpoint types: INTERNAL_ACTION
// (in-process handler from the action registry), API_ROUTE (HTTP call
// against the internal base URL with a hard 30s deadline), or
// EXTERNAL_URL (HTTP call to an absolute third-party URL, optionally
// HMAC-signed).
//
// Invariants:
//   - ExecuteTool never returns an error; every failure mode becomes a
//     structured ExecutionResult.
//   - A missing or disabled tool yields 404 with no execution log write.
//   - Invalid input yields 400 with all schema violations semicolon-joined,
//     and the attempt is logged.
//   - Execution log writes are fire-and-forget; they can never fail or
//     delay the caller's result.
//   - Concurrent invocations are independent; there is no single-flight
//     de-duplication of identical calls.
package executor
