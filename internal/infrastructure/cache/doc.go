// Package cache provides the webhook idempotency stores: an in-process map for single
// instances and Redis for deployments that share delivery state.
package cache
