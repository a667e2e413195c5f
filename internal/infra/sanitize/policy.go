// Package sanitize implements the Sanitizer (N) component: a
// multi-pass HTML cleaner and a plain-text projector, ported from
// original_source's html_cleaner.py onto github.com/microcosm-cc/bluemonday
// (the bluemonday policy replaces bleach.Cleaner; the trusted-iframe
// domain check and pre-block/whitespace passes are hand-ported since
// bluemonday has no per-domain conditional allow list).
package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// trustedIframeDomains mirrors HTMLCleaner.TRUSTED_IFRAME_DOMAINS.
var trustedIframeDomains = map[string]bool{
	"youtube.com":          true,
	"www.youtube.com":      true,
	"youtu.be":             true,
	"vimeo.com":            true,
	"player.vimeo.com":     true,
	"open.spotify.com":     true,
	"embed.music.apple.com": true,
	"soundcloud.com":       true,
	"w.soundcloud.com":     true,
}

// inlineTags get a surrounding space inserted, matching the original's
// readability pass for inline elements butted against block text.
var inlineTags = []string{
	"a", "strong", "b", "em", "i", "u", "s", "sub", "sup",
	"code", "mark", "cite", "q", "abbr", "time", "small",
}

// newPolicy builds the bluemonday policy matching allowed_tags /
// allowed_attributes in html_cleaner.py. Untrusted iframes are
// stripped by a pre-pass (see stripUntrustedIframes) before this
// policy ever sees the markup, so every iframe it allows through here
// has already passed the domain check.
func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"p", "br", "div", "span",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"ul", "ol", "li", "dl", "dt", "dd",
		"strong", "b", "em", "i", "u", "s", "sub", "sup",
		"blockquote", "pre", "code",
		"video", "audio", "source", "svg", "track",
		"table", "thead", "tbody", "tr", "th", "td",
		"article", "section", "nav", "aside", "header", "footer", "main",
		"figure", "figcaption", "details", "summary",
		"time", "mark", "cite", "q", "abbr", "address", "hr", "small",
	)

	p.AllowAttrs("class", "title").Globally()
	p.AllowAttrs("href", "title").OnElements("a")
	p.AllowAttrs("src", "alt", "title", "width", "height", "loading").OnElements("img")
	p.AllowAttrs("src", "poster", "width", "height", "controls", "autoplay", "loop", "muted").OnElements("video")
	p.AllowAttrs("src", "controls", "autoplay", "loop", "muted").OnElements("audio")
	p.AllowAttrs("src", "type", "media").OnElements("source")
	p.AllowAttrs("src", "kind", "srclang", "label", "default").OnElements("track")
	p.AllowAttrs("width", "height", "viewBox", "xmlns").OnElements("svg")
	p.AllowAttrs("cite").OnElements("blockquote")
	p.AllowAttrs("class").OnElements("code", "pre", "figure", "figcaption")
	p.AllowAttrs("colspan", "rowspan").OnElements("td")
	p.AllowAttrs("colspan", "rowspan", "scope").OnElements("th")
	p.AllowAttrs("datetime").OnElements("time")

	p.AllowImages()
	p.AllowStandardURLs()
	p.AllowRelativeURLs(true)

	p.AllowElements("iframe")
	p.AllowAttrs(
		"src", "width", "height", "allowfullscreen", "allow",
		"frameborder", "scrolling", "referrerpolicy", "loading",
	).OnElements("iframe")

	return p
}

// isTrustedIframeDomain matches _is_trusted_iframe_domain: exact match
// or subdomain of a trusted domain.
func isTrustedIframeDomain(host string) bool {
	for trusted := range trustedIframeDomains {
		if host == trusted || strings.HasSuffix(host, "."+trusted) {
			return true
		}
	}
	return false
}
