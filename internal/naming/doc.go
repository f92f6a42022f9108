// Package naming decides whether an episode needs a synthesized filename and
// builds that filename.
//
// Synthesized names have the shape
//
//	[<podcast> ][YYYY-MM-DD] <title><ext>
//
// where podcast and title are passed through textutil.SanitizeTitle, the date
// is the feed's pubDate wall clock, and ext is taken from the enclosure URL
// path. CollisionResolver keeps names unique within one run.
package naming
