// Package models contains the GORM persistence models for the storefront tables.
// Domain entities carry no ORM tags; each model maps to and from its entity.
//
//   - base.go: shared identity and timestamp columns
//   - store.go: products, cart_items, orders, order_items, payments
//   - outbox.go: outbox_entries for reliable event delivery
package models
