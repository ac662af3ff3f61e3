// Package tracklog reads append-only, checksummed, record-oriented event
// logs of the kind produced by machine-learning training loggers, exposing
// a directory of rotating log files as one ordered sequence of decoded
// events and named metric values.
//
// # Overview
//
// A log directory holds rotating files; a file belongs to the collection iff
// its first record passes the masked-CRC checksum gate. Files are stitched
// together in lexicographic order. When a later file signals a restart at an
// earlier step (a training run resumed from a checkpoint), the older file's
// tail is purged: events at or past the newer file's first step are dropped.
//
// Each record frames one protobuf event payload:
//
//	length(8B LE) | crc(4B) | payload | crc(4B)
//
// Events carry a step and an optional summary of tagged values (scalar,
// histogram, image, audio, tensor). "Smart" mode recombines values that a
// writer split across adjacent tagged entries, behind a pluggable
// GroupPolicy.
//
// API surface
//
//	// Enumerate the valid files under a directory.
//	c, _ := tracklog.ScanDirectory(dir)
//
//	// Walk per-file event readers with purge boundaries applied.
//	it, _ := tracklog.OpenCollection(dir, tracklog.DefaultOptions())
//	for {
//		r, err := it.Next() // io.EOF after the last file
//		...
//	}
//
//	// Drive the whole pipeline with a callback per value or per event.
//	_ = tracklog.ForEachValue(dir, tracklog.DefaultOptions(),
//		func(tag string, step int64, v tracklog.Value) error { ... })
//	_ = tracklog.ForEachEvent(dir, tracklog.DefaultOptions(),
//		func(ev *tracklog.Event) error { ... })
//
// Iteration is single-threaded and synchronous. Every reader owns exactly
// one file handle and releases it on every terminal transition: normal
// exhaustion, purge cutoff, corruption, or an early Close by the caller.
package tracklog
