package opml

import (
	"encoding/xml"
	"fmt"
	"strings"
	"unicode/utf8"

	"feedkeep/internal/domain/entity"

	"golang.org/x/text/encoding/charmap"
)

// forbiddenMarkup lists substrings that disqualify an OPML upload
// outright, regardless of whether the document otherwise parses
// (§4.O Upload).
var forbiddenMarkup = []string{
	"<script", "<iframe", "<object", "<embed", "javascript:", "<!--",
}

// Outline mirrors the subset of an OPML <outline> element the import
// worker consumes: a feed link, or a folder grouping nested outlines.
type Outline struct {
	Text     string    `xml:"text,attr"`
	Title    string    `xml:"title,attr"`
	XMLURL   string    `xml:"xmlUrl,attr"`
	Outlines []Outline `xml:"outline"`
}

type opmlHead struct {
	Title string `xml:"title"`
}

type opmlBody struct {
	Outlines []Outline `xml:"outline"`
}

type opmlDocument struct {
	XMLName xml.Name `xml:"opml"`
	Head    opmlHead `xml:"head"`
	Body    opmlBody `xml:"body"`
}

// decodeContent accepts UTF-8 as-is; anything that fails UTF-8
// validation is assumed Windows-1252, the other encoding §4.O
// tolerates, and is transcoded.
func decodeContent(raw []byte) (string, error) {
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decode as windows-1252: %w", err)
	}
	return string(decoded), nil
}

// Validate runs the full §4.O Upload gate over one OPML file: suffix,
// size, encoding, required structural elements, forbidden embedded
// markup, and the nesting-depth/outline-count caps. It returns the
// parsed outline tree on success.
func Validate(filename string, content []byte) ([]Outline, error) {
	if !strings.HasSuffix(strings.ToLower(filename), ".opml") {
		return nil, &entity.ValidationError{Field: "filename", Message: "must have a .opml suffix"}
	}
	if len(content) == 0 {
		return nil, &entity.ValidationError{Field: "file", Message: "file is empty"}
	}
	if len(content) > entity.MaxOPMLFileSize {
		return nil, &entity.ValidationError{Field: "file", Message: "file exceeds the maximum allowed size"}
	}

	text, err := decodeContent(content)
	if err != nil {
		return nil, &entity.ValidationError{Field: "file", Message: "file is not valid UTF-8 or Windows-1252"}
	}

	lower := strings.ToLower(text)
	if !strings.Contains(lower, "<opml") || !strings.Contains(lower, "</opml>") {
		return nil, &entity.ValidationError{Field: "file", Message: "missing <opml>...</opml> root element"}
	}
	if !strings.Contains(lower, "<head") {
		return nil, &entity.ValidationError{Field: "file", Message: "missing <head> element"}
	}
	if !strings.Contains(lower, "<body") {
		return nil, &entity.ValidationError{Field: "file", Message: "missing <body> element"}
	}
	if !strings.Contains(lower, "<outline") {
		return nil, &entity.ValidationError{Field: "file", Message: "must contain at least one <outline>"}
	}
	for _, marker := range forbiddenMarkup {
		if strings.Contains(lower, marker) {
			return nil, &entity.ValidationError{Field: "file", Message: "contains disallowed embedded content"}
		}
	}

	var doc opmlDocument
	if err := xml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, &entity.ValidationError{Field: "file", Message: "could not parse OPML document"}
	}
	if len(doc.Body.Outlines) == 0 {
		return nil, &entity.ValidationError{Field: "file", Message: "must contain at least one <outline>"}
	}

	count := 0
	depth := maxDepth(doc.Body.Outlines, 1, &count)
	if depth > entity.MaxOPMLNestingDepth {
		return nil, &entity.ValidationError{Field: "file", Message: "outline nesting exceeds the maximum depth"}
	}
	if count > entity.MaxOPMLOutlines {
		return nil, &entity.ValidationError{Field: "file", Message: "too many outlines"}
	}

	return doc.Body.Outlines, nil
}

func maxDepth(outlines []Outline, level int, count *int) int {
	deepest := level
	for _, o := range outlines {
		*count++
		if len(o.Outlines) > 0 {
			if d := maxDepth(o.Outlines, level+1, count); d > deepest {
				deepest = d
			}
		}
	}
	return deepest
}
