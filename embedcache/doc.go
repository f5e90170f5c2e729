// Package embedcache provides a persistent embedding cache backed by
// BadgerDB. Cache keys are BLAKE2b digests of the model name and input
// text, so re-running a backfill over overlapping pages never re-embeds
// text it has already paid for.
//
// The cache degrades gracefully: read or write failures are logged and
// treated as misses, never surfaced to the embedding caller.
package embedcache
