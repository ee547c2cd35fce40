package navigator

import (
	"net"
	"net/url"
	"strings"
)

// stateParam returns the state of a request or callback url, from either
// its query or its fragment.
func stateParam(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	if s := u.Query().Get("state"); s != "" {
		return s
	}
	frag, err := url.ParseQuery(u.Fragment)
	if err != nil {
		return ""
	}
	return frag.Get("state")
}

// matchesRedirect reports whether u points at the redirect URI.  The query
// and fragment are ignored.
func matchesRedirect(u *url.URL, redirectURI string) bool {
	r, err := url.Parse(redirectURI)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Scheme, r.Scheme) &&
		strings.EqualFold(u.Host, r.Host) &&
		strings.TrimSuffix(u.Path, "/") == strings.TrimSuffix(r.Path, "/")
}

// isLoopback reports whether the url's host is a loopback address with an
// explicit port.
func isLoopback(u *url.URL) bool {
	if u.Scheme != "http" || u.Port() == "" {
		return false
	}
	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
