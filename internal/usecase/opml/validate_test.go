package opml

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validOPML = `<?xml version="1.0" encoding="UTF-8"?>
<opml version="2.0">
  <head><title>feeds</title></head>
  <body>
    <outline text="News">
      <outline text="Example" xmlUrl="https://example.com/feed.xml"/>
    </outline>
  </body>
</opml>`

func TestValidate_Accepts(t *testing.T) {
	outlines, err := Validate("feeds.opml", []byte(validOPML))
	require.NoError(t, err)
	require.Len(t, outlines, 1)
	assert.Equal(t, "News", outlines[0].Text)
	require.Len(t, outlines[0].Outlines, 1)
	assert.Equal(t, "https://example.com/feed.xml", outlines[0].Outlines[0].XMLURL)
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  string
	}{
		{name: "wrong suffix", filename: "feeds.xml", content: validOPML},
		{name: "empty file", filename: "feeds.opml", content: ""},
		{name: "missing opml root", filename: "feeds.opml", content: "<rss></rss>"},
		{name: "missing head", filename: "feeds.opml", content: "<opml><body><outline xmlUrl=\"x\"/></body></opml>"},
		{name: "missing body", filename: "feeds.opml", content: "<opml><head></head></opml>"},
		{name: "no outlines", filename: "feeds.opml", content: "<opml><head></head><body></body></opml>"},
		{
			name:     "embedded script",
			filename: "feeds.opml",
			content: `<opml><head></head><body><outline xmlUrl="x">` +
				`<script>alert(1)</script></outline></body></opml>`,
		},
		{
			name:     "javascript url",
			filename: "feeds.opml",
			content:  `<opml><head></head><body><outline xmlUrl="javascript:alert(1)"/></body></opml>`,
		},
		{
			name:     "html comment",
			filename: "feeds.opml",
			content:  `<opml><head></head><body><!-- hi --><outline xmlUrl="x"/></body></opml>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(tt.filename, []byte(tt.content))
			require.Error(t, err)
		})
	}
}

func TestValidate_RejectsOversizedFile(t *testing.T) {
	huge := "<opml><head></head><body><outline xmlUrl=\"x\"/>" +
		strings.Repeat("x", 17*1024*1024) + "</body></opml>"
	_, err := Validate("feeds.opml", []byte(huge))
	require.Error(t, err)
}

func TestValidate_EnforcesNestingDepth(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<opml><head></head><body>")
	depth := 12
	for i := 0; i < depth; i++ {
		sb.WriteString(`<outline text="f">`)
	}
	sb.WriteString(`<outline xmlUrl="x"/>`)
	for i := 0; i < depth; i++ {
		sb.WriteString("</outline>")
	}
	sb.WriteString("</body></opml>")

	_, err := Validate("feeds.opml", []byte(sb.String()))
	require.Error(t, err)
}

func TestDecodeContent_UTF8Passthrough(t *testing.T) {
	out, err := decodeContent([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}
