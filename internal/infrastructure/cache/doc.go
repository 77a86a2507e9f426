// Package cache holds the idempotency stores that guard payment callbacks
// and outbox handlers against duplicate delivery.
package cache
