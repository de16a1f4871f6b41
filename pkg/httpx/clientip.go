package httpx

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP resolves the key used for lockout buckets: the first entry of
// X-Forwarded-For, then X-Real-IP, then the connection's remote host.
//
// Multiple legitimate users behind one NAT or proxy share a key. That is
// an accepted limitation of IP keying, not something to work around here.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		// A malformed header with an empty first entry must not collapse
		// every sender into one shared "" key.
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
