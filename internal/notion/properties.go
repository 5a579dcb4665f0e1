package notion

import (
	"math"
	"strings"
	"time"

	"github.com/jomei/notionapi"
	"github.com/pders01/feedsync/internal/records"
)

// SourceFromPage decodes a feeds database row. Missing properties leave the
// zero value: empty title or URL, priority 0, never checked.
func SourceFromPage(page notionapi.Page) records.Source {
	props := page.Properties
	return records.Source{
		ID:          page.ID.String(),
		Title:       titleText(props[PropName]),
		URL:         urlValue(props[PropURL]),
		Priority:    numberValue(props[PropPriority]),
		LastChecked: dateValue(props[PropLastDate]),
	}
}

// PostProperties encodes a post as posts database properties.
func PostProperties(post records.Post) notionapi.Properties {
	return notionapi.Properties{
		PropName: notionapi.TitleProperty{
			Type:  notionapi.PropertyTypeTitle,
			Title: richText(post.Name),
		},
		PropPostURL: notionapi.URLProperty{
			Type: notionapi.PropertyTypeURL,
			URL:  post.URL,
		},
		PropAuthor: notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: richText(post.Author),
		},
		PropDate: dateProperty(post.Date),
		PropOrigin: notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: richText(post.Origin),
		},
		PropPriority: notionapi.NumberProperty{
			Type:   notionapi.PropertyTypeNumber,
			Number: post.Priority,
		},
	}
}

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{{
		Type: notionapi.ObjectTypeText,
		Text: &notionapi.Text{Content: s},
	}}
}

func dateProperty(t time.Time) notionapi.DateProperty {
	d := notionapi.Date(t.UTC())
	return notionapi.DateProperty{
		Type: notionapi.PropertyTypeDate,
		Date: &notionapi.DateObject{Start: &d},
	}
}

func plainText(segments []notionapi.RichText) string {
	var b strings.Builder
	for _, rt := range segments {
		switch {
		case rt.PlainText != "":
			b.WriteString(rt.PlainText)
		case rt.Text != nil:
			b.WriteString(rt.Text.Content)
		}
	}
	return b.String()
}

func titleText(p notionapi.Property) string {
	switch v := p.(type) {
	case *notionapi.TitleProperty:
		return plainText(v.Title)
	case notionapi.TitleProperty:
		return plainText(v.Title)
	case *notionapi.RichTextProperty:
		return plainText(v.RichText)
	case notionapi.RichTextProperty:
		return plainText(v.RichText)
	}
	return ""
}

func urlValue(p notionapi.Property) string {
	switch v := p.(type) {
	case *notionapi.URLProperty:
		return strings.TrimSpace(v.URL)
	case notionapi.URLProperty:
		return strings.TrimSpace(v.URL)
	}
	return ""
}

func numberValue(p notionapi.Property) float64 {
	var n float64
	switch v := p.(type) {
	case *notionapi.NumberProperty:
		n = v.Number
	case notionapi.NumberProperty:
		n = v.Number
	default:
		return 0
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return n
}

func dateValue(p notionapi.Property) time.Time {
	var obj *notionapi.DateObject
	switch v := p.(type) {
	case *notionapi.DateProperty:
		obj = v.Date
	case notionapi.DateProperty:
		obj = v.Date
	}
	if obj == nil || obj.Start == nil {
		return time.Time{}
	}
	return time.Time(*obj.Start).UTC()
}
