// Package ingestion provides pipeline orchestration for adding passages.
//
// The Pipeline type manages the ingestion workflow for entries, including:
//   - Validating and adding entries to storage
//   - Generating embeddings asynchronously
//
// Embedding is performed concurrently using a worker pool. Errors during
// async processing are logged but do not fail the ingestion operation.
package ingestion
