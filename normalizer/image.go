package normalizer

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	driveFilePattern  = regexp.MustCompile(`/d/([a-zA-Z0-9_-]+)`)
	driveQueryPattern = regexp.MustCompile(`[?&]id=([a-zA-Z0-9_-]+)`)
)

const driveImageURL = "https://lh3.googleusercontent.com/d/%s=w500"

// ResolveImageURL rewrites Google Drive share links into directly
// embeddable image URLs. Inline data URLs and other links pass through.
func ResolveImageURL(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return ""
	}
	if strings.HasPrefix(u, "data:image") {
		return u
	}
	if m := driveFilePattern.FindStringSubmatch(u); m != nil {
		return fmt.Sprintf(driveImageURL, m[1])
	}
	if m := driveQueryPattern.FindStringSubmatch(u); m != nil {
		return fmt.Sprintf(driveImageURL, m[1])
	}
	return u
}
