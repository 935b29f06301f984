package notionsync

import (
	"time"

	"github.com/jomei/notionapi"

	"github.com/equilibra/equilibra/internal/domain"
)

// InsightToNotionProperties converts an insight to Notion page properties.
// The Insight ID rich-text property is the idempotency key the sync uses to
// match pages against the current batch.
func InsightToNotionProperties(in domain.Insight) notionapi.Properties {
	props := notionapi.Properties{
		"Title": notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: in.Title,
					},
				},
			},
		},
		"Insight ID": notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: in.ID,
					},
				},
			},
		},
		"Owner": notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: in.Owner,
					},
				},
			},
		},
		"Priority": notionapi.NumberProperty{
			Number: float64(in.Priority),
		},
		"Read": notionapi.CheckboxProperty{
			Checkbox: in.Read,
		},
	}

	if in.Message != "" {
		props["Message"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: in.Message,
					},
				},
			},
		}
	}

	if in.Kind != "" {
		props["Kind"] = notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: string(in.Kind),
			},
		}
	}

	if in.Source != "" {
		props["Source"] = notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: string(in.Source),
			},
		}
	}

	if !in.GeneratedAt.IsZero() {
		props["Generated At"] = notionapi.DateProperty{
			Date: &notionapi.DateObject{
				Start: func() *notionapi.Date {
					d := notionapi.Date(in.GeneratedAt.In(time.UTC))
					return &d
				}(),
			},
		}
	}

	return props
}

// extractInsightID reads the Insight ID property back from a Notion page.
// Pages created outside the sync come back as "".
func extractInsightID(page notionapi.Page) string {
	prop, ok := page.Properties["Insight ID"]
	if !ok {
		return ""
	}
	rt, ok := prop.(*notionapi.RichTextProperty)
	if !ok || len(rt.RichText) == 0 {
		return ""
	}
	return rt.RichText[0].PlainText
}

// extractOwner reads the Owner property back from a Notion page.
func extractOwner(page notionapi.Page) string {
	prop, ok := page.Properties["Owner"]
	if !ok {
		return ""
	}
	rt, ok := prop.(*notionapi.RichTextProperty)
	if !ok || len(rt.RichText) == 0 {
		return ""
	}
	return rt.RichText[0].PlainText
}
