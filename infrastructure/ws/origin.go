package ws

import (
	"net/http"
	"net/url"
	"strings"
)

// OriginPolicy governs which Origin headers may upgrade to a WebSocket.
type OriginPolicy string

const (
	// OriginAny accepts every origin, including absent ones. Dev only.
	OriginAny OriginPolicy = "any"
	// OriginSameHost accepts origins whose host matches the request host.
	OriginSameHost OriginPolicy = "same-host"
	// OriginAllowlist accepts only explicitly configured origins.
	OriginAllowlist OriginPolicy = "allowlist"
)

// originChecker builds the gorilla upgrader CheckOrigin hook for a policy.
func originChecker(policy OriginPolicy, allowed []string) func(r *http.Request) bool {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		if normalized, ok := normalizeOrigin(strings.TrimSpace(origin)); ok {
			allowedSet[normalized] = struct{}{}
		}
	}

	return func(r *http.Request) bool {
		switch policy {
		case OriginAny:
			return true
		case OriginSameHost:
			origin := r.Header.Get("Origin")
			if origin == "" {
				return false
			}
			parsed, err := url.Parse(origin)
			if err != nil {
				return false
			}
			return strings.EqualFold(parsed.Host, r.Host)
		case OriginAllowlist:
			normalized, ok := normalizeOrigin(r.Header.Get("Origin"))
			if !ok {
				return false
			}
			_, exists := allowedSet[normalized]
			return exists
		default:
			return false
		}
	}
}

// normalizeOrigin lowercases scheme://host so configured and received origins
// compare consistently.
func normalizeOrigin(origin string) (string, bool) {
	if origin == "" {
		return "", false
	}
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}
