package sanitize

import (
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Cleaner wraps a single bluemonday policy instance, reused across
// calls since policy construction is not cheap and the policy itself
// is stateless/concurrency-safe.
type Cleaner struct {
	policy *bluemonday.Policy
	strict *bluemonday.Policy
}

func NewCleaner() *Cleaner {
	return &Cleaner{
		policy: newPolicy(),
		strict: bluemonday.StrictPolicy(),
	}
}

var preBlockRe = regexp.MustCompile(`(?is)<pre[^>]*>.*?</pre>`)
var iframeRe = regexp.MustCompile(`(?is)<iframe\b[^>]*>.*?</iframe>|<iframe\b[^>]*/?>`)
var iframeSrcRe = regexp.MustCompile(`(?is)src\s*=\s*["']([^"']*)["']`)
var dangerousStyleRe = regexp.MustCompile(`(?i)style\s*=\s*["'][^"']*(javascript|expression|behavior|@import)[^"']*["']`)
var dangerousHrefRe = regexp.MustCompile(`(?i)(href|src)\s*=\s*["']\s*(javascript|data|vbscript):[^"']*["']`)
var whitespaceRe = regexp.MustCompile(`\s+`)

var inlineTagRes = buildInlineTagRegexes()

type inlineTagRegex struct {
	open  *regexp.Regexp
	close *regexp.Regexp
}

func buildInlineTagRegexes() []inlineTagRegex {
	res := make([]inlineTagRegex, 0, len(inlineTags))
	for _, tag := range inlineTags {
		res = append(res, inlineTagRegex{
			open:  regexp.MustCompile(fmt.Sprintf(`(?i)(<%s\b[^>]*>)`, tag)),
			close: regexp.MustCompile(fmt.Sprintf(`(?i)(</%s>)`, tag)),
		})
	}
	return res
}

// Clean runs the full multi-pass pipeline from html_cleaner.py's
// clean_html: protect <pre> blocks, drop untrusted iframes, run the
// bluemonday policy, strip dangerous style/href remnants, decode
// entities, space out inline tags, normalize whitespace, and restore
// the protected <pre> blocks verbatim.
func (c *Cleaner) Clean(htmlContent string) string {
	if strings.TrimSpace(htmlContent) == "" {
		return ""
	}

	var preBlocks []string
	protected := preBlockRe.ReplaceAllStringFunc(htmlContent, func(block string) string {
		preBlocks = append(preBlocks, block)
		return fmt.Sprintf("__PRE_PLACEHOLDER_%d__", len(preBlocks)-1)
	})

	protected = stripUntrustedIframes(protected)

	sanitized := c.policy.Sanitize(protected)

	sanitized = dangerousStyleRe.ReplaceAllString(sanitized, "")
	sanitized = dangerousHrefRe.ReplaceAllString(sanitized, `$1=""`)

	for i, block := range preBlocks {
		sanitized = strings.ReplaceAll(sanitized, fmt.Sprintf("__PRE_PLACEHOLDER_%d__", i), block)
	}

	var preBlocksFinal []string
	sanitized = preBlockRe.ReplaceAllStringFunc(sanitized, func(block string) string {
		preBlocksFinal = append(preBlocksFinal, block)
		return fmt.Sprintf("__PRE_FINAL_%d__", len(preBlocksFinal)-1)
	})

	sanitized = html.UnescapeString(sanitized)

	for _, re := range inlineTagRes {
		sanitized = re.open.ReplaceAllString(sanitized, ` $1 `)
		sanitized = re.close.ReplaceAllString(sanitized, ` $1 `)
	}

	sanitized = whitespaceRe.ReplaceAllString(sanitized, " ")

	for i, block := range preBlocksFinal {
		sanitized = strings.ReplaceAll(sanitized, fmt.Sprintf("__PRE_FINAL_%d__", i), block)
	}

	return strings.TrimSpace(sanitized)
}

// stripUntrustedIframes removes every <iframe> element whose src host
// is not in trustedIframeDomains, before the content ever reaches the
// bluemonday policy (which has no concept of per-domain trust).
func stripUntrustedIframes(htmlContent string) string {
	return iframeRe.ReplaceAllStringFunc(htmlContent, func(tag string) string {
		m := iframeSrcRe.FindStringSubmatch(tag)
		if m == nil {
			return ""
		}
		src := m[1]
		u, err := url.Parse(src)
		if err != nil {
			return ""
		}
		if isTrustedIframeDomain(strings.ToLower(u.Hostname())) {
			return tag
		}
		return ""
	})
}

// HTMLToText strips all markup for search-index/plain-text use,
// mirroring html_to_text.
func (c *Cleaner) HTMLToText(htmlContent string) string {
	if strings.TrimSpace(htmlContent) == "" {
		return ""
	}
	text := c.strict.Sanitize(htmlContent)
	text = html.UnescapeString(text)
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// CleanHTMLContent cleans htmlContent and, in the same pass, returns
// the first <img> src found in the *original* markup (before
// sanitization may have stripped it), mirroring clean_html_content's
// dual return.
func (c *Cleaner) CleanHTMLContent(htmlContent string) (string, string) {
	if strings.TrimSpace(htmlContent) == "" {
		return "", ""
	}
	clean := c.Clean(htmlContent)
	image := firstImageSrc(htmlContent)
	return clean, image
}

var imgTagRe = regexp.MustCompile(`(?is)<img\b[^>]*\bsrc\s*=\s*["']([^"']+)["']`)

func firstImageSrc(htmlContent string) string {
	m := imgTagRe.FindStringSubmatch(htmlContent)
	if m == nil {
		return ""
	}
	return m[1]
}
