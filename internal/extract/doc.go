// Package extract runs form templates against scanned images.
//
// For every field of a template the engine resolves the bounding box into
// pixels (Resolve), crops and conditions the region, asks an ocr.Engine for
// candidates, and lets Policy decide whether the best reading is accepted.
// Aggregate assembles the per-field Results into an Extraction.
//
// # Failure Model
//
// A template that cannot be loaded or an image that cannot be decoded fails
// the whole run with an *Error of kind TEMPLATE_PARSE_ERROR or
// IMAGE_NOT_FOUND. Everything that goes wrong for a single field (an
// unusable box, a region too small to condition, an engine error, a weak or
// short reading) rejects only that field: it is listed in
// Extraction.Rejected with a Reason and the run continues.
//
// # Concurrency
//
// With WithWorkers(n > 1) fields are processed by a bounded pool. Results are
// merged by field id in template order, so the output equals a sequential
// run. The ocr.Engine passed to New must then be safe for concurrent use.
package extract
