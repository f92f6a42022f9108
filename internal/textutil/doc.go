// Package textutil provides the title sanitization used to build output
// filenames.
//
// SanitizeTitle is the single rule set applied to both episode titles and the
// optional podcast prefix:
//   - drop every rune outside printable ASCII
//   - turn ": " into " - "
//   - strip the characters reserved on Windows and POSIX filesystems
//   - trim surrounding whitespace
//
// The function is pure and idempotent, so it is safe to apply to text that
// has already been sanitized.
package textutil
