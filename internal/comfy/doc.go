// Package comfy is the HTTP client for the generation service.
//
// The service exposes two endpoints the pipeline needs: POST /prompt to
// queue a job (returning a job id) and GET /history/{id} to observe its
// progress. Completion is only observable by polling history — the service
// pushes nothing — so the package also provides Waiter, an explicit
// Pending → {Succeeded, Failed, TimedOut} state machine over the poll loop.
//
// Error split: transport-level failures (connection refused, reset) are
// retried with bounded attempts and backoff at the submission boundary;
// application-level failures (non-2xx with a body) are permanent and
// surfaced as *APIError without retry.
package comfy
