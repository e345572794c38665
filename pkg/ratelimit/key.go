package ratelimit

import (
	"net/http"

	"github.com/dmitrymomot/chatbill/pkg/clientip"
)

// maxUserAgentLen keeps the user-agent contribution to a key short enough
// for counter-store keys while still separating distinct clients behind a
// shared NAT address.
const maxUserAgentLen = 32

// KeyFunc derives the client identity a request is counted under.
type KeyFunc func(*http.Request) string

// ByUserID keys on the authenticated user id resolved from the request.
// Returns an empty key when no user is authenticated, so it composes with
// FirstOf for an IP fallback.
func ByUserID(resolve func(*http.Request) string) KeyFunc {
	return func(r *http.Request) string {
		if id := resolve(r); id != "" {
			return "user:" + id
		}
		return ""
	}
}

// ByClientIP keys on the network origin plus a truncated user-agent.
func ByClientIP() KeyFunc {
	return func(r *http.Request) string {
		ip := clientip.FromRequest(r)
		if ip == "" {
			return ""
		}
		ua := r.UserAgent()
		if len(ua) > maxUserAgentLen {
			ua = ua[:maxUserAgentLen]
		}
		return "ip:" + ip + ":" + ua
	}
}

// FirstOf returns the first non-empty key. User-id keying is listed before
// IP keying to avoid false sharing behind NATs and proxies.
func FirstOf(fns ...KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		for _, fn := range fns {
			if key := fn(r); key != "" {
				return key
			}
		}
		return ""
	}
}
