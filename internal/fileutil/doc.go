// Package fileutil provides atomic file replacement and the advisory lock
// that serializes concurrent writers of the same output file.
package fileutil
