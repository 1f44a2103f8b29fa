// Package ingestion turns input files into vectors in a namespaced index.
//
// A Pipeline run:
//   - optionally purges the namespace or one document type
//   - resolves inputs into files
//   - extracts, chunks and embeds each file on a worker pool
//   - upserts records in batches, isolating records the index rejects
//   - records fully written files in the manifest so unchanged files are
//     skipped next time
//
// Per-file and per-batch failures are logged and reported; they never abort
// the run.
package ingestion
