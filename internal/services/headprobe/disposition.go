package headprobe

import (
	"mime"
	"strings"
)

// ParseDisposition extracts the filename advertised by a Content-Disposition
// header value. filename* (RFC 5987) values are decoded. Headers that do not
// parse still count as named when they mention a filename parameter, since
// aria2c applies the same loose reading.
func ParseDisposition(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	_, params, err := mime.ParseMediaType(value)
	if err != nil {
		return "", strings.Contains(strings.ToLower(value), "filename")
	}
	name := strings.TrimSpace(params["filename"])
	if name == "" {
		return "", false
	}
	return name, true
}
