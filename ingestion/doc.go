// Package ingestion loads a tabular dream dataset into the retrieval backends.
//
// ReadCSV parses the source into a Dataset of (narrative, interpretation)
// rows and fingerprints it. A Loader then brings every Target up to date:
//   - A target whose manifest already records the dataset fingerprint and
//     embedding model is skipped entirely
//   - Otherwise only rows whose content hash differs from the stored one
//     are embedded, in batches, with retry and exponential backoff
//   - The manifest is rewritten once the target is complete
//
// Targets are loaded concurrently on a worker pool. A failing target is
// reported but never stops the others.
package ingestion
