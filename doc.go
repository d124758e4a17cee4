// Package mson provides:
//
// - Self-describing JSON serialization: every encoded value carries enough
//   metadata (@module/@class, optional @version) to reconstruct itself later
//   without a pre-registered schema on the reading side.
// - A fixed-priority encoder covering timestamps, UUIDs, paths, numeric
//   arrays and tensors (including complex dtypes), tabular frames, BSON
//   ObjectIds, callables, and arbitrary registered types.
// - An auto-derive engine that serializes plain structs from their declared
//   field set and reconstructs them by keyword assignment.
// - A rename redirect table (~/.mson.yaml) applied before reconstruction.
// - A best-effort sanitizer (Sanitize) and a canonical content hash
//   (ContentHash) built on top of the same dispatch rules.
//
// Design policy:
// - Keep only public APIs in the root package; collaborator value types live
//   under numeric/ and frame/.
// - JSON tokenization goes through a pluggable Driver defaulting to the
//   fastest available implementation (goccy/go-json).
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	mson.Register[Thing](mson.WithVersion("1.2.0"))
//
//	data, err := mson.Marshal(thing)
//	back, err := mson.Unmarshal(data)
package mson
