// Package clientip extracts the best-available client address from proxy
// headers, falling back to the transport peer address.
package clientip

import (
	"net"
	"net/http"
	"strings"
)

// Header preference order. CDN-set headers win over generic proxy headers
// because they are set by infrastructure we trust, not the client.
var trustedHeaders = []string{
	"CF-Connecting-IP",
	"True-Client-IP",
	"X-Real-IP",
}

// FromRequest returns the client IP for r. X-Forwarded-For may carry a
// comma-separated chain; the first valid entry is the originating client.
func FromRequest(r *http.Request) string {
	for _, header := range trustedHeaders {
		if ip := normalize(r.Header.Get(header)); ip != "" {
			return ip
		}
	}

	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		for _, part := range strings.Split(forwarded, ",") {
			if ip := normalize(part); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return normalize(r.RemoteAddr)
	}
	return normalize(host)
}

// normalize validates and canonicalizes an IP string, returning "" for garbage.
func normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return ""
	}
	return ip.String()
}
