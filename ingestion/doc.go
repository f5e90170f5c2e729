// Package ingestion provides the backfill pipeline that pulls image
// metadata from the Civitai API, validates it, and writes embedded
// prompt records to a PromptStore.
//
// The Pipeline type manages the backfill workflow:
//   - Fetching pages of raw items through a cursor-paginated API
//   - Validating and normalizing each item into a prompt record
//   - Embedding and upserting records in deduplicated sub-batches
//   - Persisting the resume cursor after each fully written batch
//
// Pages are processed sequentially so the persisted cursor always
// reflects a fully committed prefix of the stream.
package ingestion
