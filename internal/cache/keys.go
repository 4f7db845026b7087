package cache

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// fingerprintNamespace scopes UUIDv5 fingerprints of presented API keys.
var fingerprintNamespace = uuid.MustParse("6f3b0a52-6d3e-4c1f-9a0e-2f8f1d7b6c41")

// KeyFingerprint returns a stable, non-reversible identifier for a presented
// API key so raw keys never appear in Redis.
func KeyFingerprint(apiKey string) string {
	return uuid.NewSHA1(fingerprintNamespace, []byte(apiKey)).String()
}

func RateLimitKey(fingerprint string) string {
	return fmt.Sprintf("ratelimit:%s", fingerprint)
}

func ReadmeKey(owner, repo string) string {
	return fmt.Sprintf("github:readme:%s/%s", strings.ToLower(owner), strings.ToLower(repo))
}

func RepoMetadataKey(owner, repo string) string {
	return fmt.Sprintf("github:meta:%s/%s", strings.ToLower(owner), strings.ToLower(repo))
}
