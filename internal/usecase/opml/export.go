package opml

import (
	"encoding/xml"
	"time"

	"feedkeep/internal/domain/entity"
)

// exportFeed carries the fields of a subscribed Feed needed to render
// one <outline> element during export.
type exportFeed struct {
	Title    string
	Link     string
	XMLURL   string
	FolderID *string
}

// exportOutline is the XML-tagged shape written for each <outline>
// element, distinct from Outline (the import-side read shape) because
// export always emits both rss-outline and folder-outline attributes.
type exportOutline struct {
	Text     string          `xml:"text,attr"`
	Title    string          `xml:"title,attr,omitempty"`
	Type     string          `xml:"type,attr,omitempty"`
	XMLURL   string          `xml:"xmlUrl,attr,omitempty"`
	HTMLURL  string          `xml:"htmlUrl,attr,omitempty"`
	Outlines []exportOutline `xml:"outline,omitempty"`
}

type exportHead struct {
	Title       string `xml:"title"`
	DateCreated string `xml:"dateCreated"`
}

type exportBody struct {
	Outlines []exportOutline `xml:"outline"`
}

type exportDocument struct {
	XMLName xml.Name   `xml:"opml"`
	Version string     `xml:"version,attr"`
	Head    exportHead `xml:"head"`
	Body    exportBody `xml:"body"`
}

// buildExportDocument renders the user's folder tree and its
// subscriptions as an OPML outline tree. folders is the full tree
// (flat, parent-linked); bySubFeed maps subscription id to the
// exported Feed fields for that subscription's outline.
func buildExportDocument(folders []*entity.Folder, bySubFeed map[string]exportFeed) exportDocument {
	byParent := make(map[string][]*entity.Folder)
	for _, f := range folders {
		key := ""
		if f.ParentID != nil {
			key = *f.ParentID
		}
		byParent[key] = append(byParent[key], f)
	}

	feedsInFolder := make(map[string][]exportOutline)
	for _, ef := range bySubFeed {
		key := ""
		if ef.FolderID != nil {
			key = *ef.FolderID
		}
		feedsInFolder[key] = append(feedsInFolder[key], exportOutline{
			Text:    ef.Title,
			Title:   ef.Title,
			Type:    "rss",
			XMLURL:  ef.XMLURL,
			HTMLURL: ef.Link,
		})
	}

	var renderFolder func(parentKey string) []exportOutline
	renderFolder = func(parentKey string) []exportOutline {
		var out []exportOutline
		for _, f := range byParent[parentKey] {
			out = append(out, exportOutline{
				Text:     f.Name,
				Title:    f.Name,
				Outlines: append(renderFolder(f.ID), feedsInFolder[f.ID]...),
			})
		}
		return out
	}

	root := append(renderFolder(""), feedsInFolder[""]...)

	return exportDocument{
		Version: "2.0",
		Head: exportHead{
			Title:       "feedkeep export",
			DateCreated: time.Now().UTC().Format(time.RFC1123Z),
		},
		Body: exportBody{Outlines: root},
	}
}
