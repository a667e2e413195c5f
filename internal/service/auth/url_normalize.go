package auth

import (
	"net/url"
	"sort"
	"strings"
)

// trackingParamPrefixes and trackingParamExact are stripped by
// NormalizeURL, grounded on §4.H's fixed tracking-parameter set.
var trackingParamPrefixes = []string{"utm_", "mc_"}

var trackingParamExact = map[string]bool{
	"fbclid": true,
	"gclid":  true,
	"_ga":    true,
	"_gid":   true,
	"ref":    true,
}

// NormalizeURL produces the canonical form of a feed/article URL per
// §4.H: lowercase scheme to https, strip a leading "www.", drop
// default ports, lowercase host, drop fragment, drop a trailing slash
// except on the bare root, remove tracking query parameters and any
// parameter with an empty value. On a parse failure it falls back to
// the trimmed, lowercased original string rather than erroring, since
// normalization feeds a uniqueness key rather than a strict validator.
func NormalizeURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	u, err := url.Parse(trimmed)
	if err != nil || u.Host == "" {
		return strings.ToLower(trimmed)
	}

	u.Scheme = "https"
	u.Host = strings.ToLower(u.Host)
	u.Host = strings.TrimPrefix(u.Host, "www.")
	u.Host = stripDefaultPort(u.Host)
	u.Fragment = ""

	if u.Path != "/" {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	if u.RawQuery != "" {
		u.RawQuery = stripTrackingParams(u.RawQuery)
	}

	return u.String()
}

func stripDefaultPort(host string) string {
	if strings.HasSuffix(host, ":443") {
		return strings.TrimSuffix(host, ":443")
	}
	if strings.HasSuffix(host, ":80") {
		return strings.TrimSuffix(host, ":80")
	}
	return host
}

func stripTrackingParams(rawQuery string) string {
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return ""
	}

	kept := url.Values{}
	for key, vals := range values {
		lower := strings.ToLower(key)
		if isTrackingParam(lower) {
			continue
		}
		for _, v := range vals {
			if v == "" {
				continue
			}
			kept.Add(key, v)
		}
	}
	if len(kept) == 0 {
		return ""
	}

	keys := make([]string, 0, len(kept))
	for k := range kept {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		for j, v := range kept[k] {
			if i > 0 || j > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}

func isTrackingParam(lowerKey string) bool {
	if trackingParamExact[lowerKey] {
		return true
	}
	for _, prefix := range trackingParamPrefixes {
		if strings.HasPrefix(lowerKey, prefix) {
			return true
		}
	}
	return false
}
