package extractor

import (
	"net/url"
	"strings"
)

// ResolveURL makes href absolute against base. Anything that cannot be turned
// into an http(s) URL yields "" so the validator rejects the candidate.
func ResolveURL(href string, base *url.URL) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}

	lower := strings.ToLower(href)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return absolute(href)
	case strings.HasPrefix(href, "//"):
		if base == nil {
			return ""
		}
		return absolute(base.Scheme + ":" + href)
	case strings.HasPrefix(href, "/"):
		if base == nil {
			return ""
		}
		return absolute(base.Scheme + "://" + base.Host + href)
	}

	if base == nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if ref.Scheme != "" {
		// mailto:, javascript: and friends
		return ""
	}
	return absolute(base.ResolveReference(ref).String())
}

func absolute(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}
