// Package feedsource retrieves the raw RSS document for a run.
//
// A source is either an http(s) URL or a path to an existing local file.
// Remote feeds are saved to an optional cache file; later runs read the cache
// instead of the network until a refresh is requested.
package feedsource
