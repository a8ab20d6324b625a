// Package pipeline orchestrates the batch run: input discovery, the
// per-item normalize → submit → wait → resolve → collect sequence, and the
// run summary. Items are processed one at a time — the generation service is
// bound to a single accelerator and cannot usefully run more than one job —
// and every per-item failure is caught, attributed to its stage, and
// recorded so the batch always continues to the next item.
package pipeline
