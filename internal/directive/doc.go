// Package directive turns parsed episodes into aria2c input directives.
//
// Build walks episodes in feed order, consults the rename policy (probing the
// origin under MissingOnly), synthesizes names where needed and records every
// decision in a caller-owned Report. Render writes the directives in the
// aria2c input-file format:
//
//	https://example.com/a.mp3
//	 out=[2023-01-05] Ep 1.mp3
//
// Probes run on a bounded worker pool but results are committed strictly by
// feed position, so output order never depends on probe latency. When the
// context is cancelled Build returns the contiguous prefix committed so far.
package directive
