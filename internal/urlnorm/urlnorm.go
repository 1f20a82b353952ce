// Package urlnorm strips tracking query parameters from job posting URLs so
// that trivially different links resolve to the same cache entry.
package urlnorm

import (
	"net/url"
	"strings"
)

// trackingKeys are removed from query strings in addition to any key with
// the utm_ prefix.
var trackingKeys = map[string]struct{}{
	"utm":      {},
	"ref":      {},
	"ref_source": {},
	"referrer": {},
}

// Normalize removes tracking query parameters (utm_* and a small denylist)
// from the URL, preserving the relative order of the surviving parameters.
// On any parse failure the input is returned unchanged: normalization is a
// cache-hit-rate optimization, not a correctness requirement.
// Normalize is idempotent.
func Normalize(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	if u.RawQuery == "" {
		return raw
	}

	pairs := strings.Split(u.RawQuery, "&")
	kept := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		if pair == "" {
			continue
		}
		key := pair
		if i := strings.Index(pair, "="); i >= 0 {
			key = pair[:i]
		}
		if unescaped, err := url.QueryUnescape(key); err == nil {
			key = unescaped
		}
		if isTracking(key) {
			continue
		}
		kept = append(kept, pair)
	}

	u.RawQuery = strings.Join(kept, "&")
	return u.String()
}

func isTracking(key string) bool {
	if strings.HasPrefix(key, "utm_") {
		return true
	}
	_, ok := trackingKeys[strings.ToLower(key)]
	return ok
}
