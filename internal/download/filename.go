package download

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/url"
	"path"
	"strings"
)

const maxBasenameLen = 200

// uniqueFilename derives a deterministic destination name from the row
// identifier and a short hash of the URL, so re-runs land on the same
// file and distinct URLs with identical basenames cannot collide.
func uniqueFilename(rowID int64, rawURL string) string {
	return fmt.Sprintf("%d_%s_%s", rowID, hashURL(rawURL)[:8], basenameFromURL(rawURL))
}

func hashURL(raw string) string {
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func basenameFromURL(raw string) string {
	name := ""
	if u, err := url.Parse(raw); err == nil {
		p := u.Path
		if unescaped, err := url.PathUnescape(p); err == nil {
			p = unescaped
		}
		// A trailing slash means the URL names a directory, not a file.
		if p != "" && !strings.HasSuffix(p, "/") {
			name = path.Base(p)
		}
	}
	if name == "." || name == "/" {
		name = ""
	}
	return sanitizeFilename(name)
}

// sanitizeFilename strips query/fragment leftovers and path separators
// and caps the length. Empty names fall back to a generic PDF name.
func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	if len(name) > maxBasenameLen {
		name = name[:maxBasenameLen]
	}
	if name == "" {
		return "file.pdf"
	}
	return name
}
