// Package migrate provides one-shot payload migrations over a stored
// collection. Each migration scrolls the collection in batches, rewrites
// the points that need it, and upserts them back.
//
// Migrations are idempotent: a point already in the target shape is left
// untouched, so an interrupted run can simply be restarted.
package migrate
