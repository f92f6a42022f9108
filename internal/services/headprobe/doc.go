// Package headprobe asks a media host whether it advertises a filename for
// an episode URL.
//
// Client sends a HEAD request (following redirects) and inspects the final
// response's Content-Disposition header. Hosts that reject HEAD get a one-byte
// ranged GET instead. Store persists successful outcomes in SQLite and
// CachedProber consults it before touching the network.
package headprobe
