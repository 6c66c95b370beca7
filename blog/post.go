// Package blog turns CMS documents into posts and implements list pagination,
// previous/next navigation and reading-time estimation on top of the CMS client.
package blog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eringen/spacetraveling/cms"
	"github.com/eringen/spacetraveling/richtext"
)

var (
	// ErrNotFound is returned when a requested post does not exist.
	ErrNotFound = cms.ErrNotFound
	// ErrInvalidCursor is returned for a cursor the CMS client refuses to follow.
	ErrInvalidCursor = cms.ErrInvalidCursor
)

// PostSummary is the list-page view of a post.
type PostSummary struct {
	ID              string     `json:"id"`
	UID             string     `json:"uid"`
	Title           string     `json:"title"`
	Subtitle        string     `json:"subtitle"`
	Author          string     `json:"author"`
	PublicationDate *time.Time `json:"publication_date,omitempty"`
}

// Link is the site path of the post page.
func (p PostSummary) Link() string {
	return "/post/" + p.UID
}

// Image is a CMS image reference.
type Image struct {
	URL    string `json:"url"`
	Alt    string `json:"alt"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Section is one heading with its rich-text body.
type Section struct {
	Heading string          `json:"heading"`
	Body    richtext.Blocks `json:"body"`
}

// PostDetail is everything the post page renders.
type PostDetail struct {
	PostSummary
	Banner   Image      `json:"banner"`
	LastEdit *time.Time `json:"last_edit,omitempty"`
	Sections []Section  `json:"sections"`
}

// Page is one page of summaries and the cursor of the page after it.
// An empty Cursor means there are no further pages.
type Page struct {
	Items  []PostSummary `json:"items"`
	Cursor string        `json:"cursor,omitempty"`
}

// text accepts either a plain string or a structured text array, so the
// mapping survives a field being switched between key-text and rich-text.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*t = ""
	case len(b) > 0 && b[0] == '[':
		var blocks richtext.Blocks
		if err := json.Unmarshal(b, &blocks); err != nil {
			return err
		}
		*t = text(blocks.AsText())
	default:
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = text(s)
	}
	return nil
}

type postData struct {
	Title    text `json:"title"`
	Subtitle text `json:"subtitle"`
	Author   text `json:"author"`
	Banner   struct {
		URL        string               `json:"url"`
		Alt        string               `json:"alt"`
		Dimensions *richtext.Dimensions `json:"dimensions"`
	} `json:"banner"`
	Content []struct {
		Heading text            `json:"heading"`
		Body    richtext.Blocks `json:"body"`
	} `json:"content"`
}

func decodeData(doc cms.Document) (postData, error) {
	var data postData
	if len(doc.Data) == 0 || bytes.Equal(doc.Data, []byte("null")) {
		return data, nil
	}
	if err := json.Unmarshal(doc.Data, &data); err != nil {
		return data, fmt.Errorf("blog: decode document %s: %w", doc.ID, err)
	}
	return data, nil
}

// SummaryFromDocument maps a raw CMS document to a PostSummary.
func SummaryFromDocument(doc cms.Document) (PostSummary, error) {
	data, err := decodeData(doc)
	if err != nil {
		return PostSummary{}, err
	}
	return summary(doc, data), nil
}

func summary(doc cms.Document, data postData) PostSummary {
	return PostSummary{
		ID:              doc.ID,
		UID:             doc.UID,
		Title:           string(data.Title),
		Subtitle:        string(data.Subtitle),
		Author:          string(data.Author),
		PublicationDate: doc.FirstPublicationDate.Ptr(),
	}
}

// DetailFromDocument maps a raw CMS document to a PostDetail.
func DetailFromDocument(doc cms.Document) (*PostDetail, error) {
	data, err := decodeData(doc)
	if err != nil {
		return nil, err
	}
	post := &PostDetail{
		PostSummary: summary(doc, data),
		Banner: Image{
			URL: data.Banner.URL,
			Alt: data.Banner.Alt,
		},
		LastEdit: doc.LastPublicationDate.Ptr(),
		Sections: make([]Section, 0, len(data.Content)),
	}
	if d := data.Banner.Dimensions; d != nil {
		post.Banner.Width, post.Banner.Height = d.Width, d.Height
	}
	for _, c := range data.Content {
		post.Sections = append(post.Sections, Section{Heading: string(c.Heading), Body: c.Body})
	}
	return post, nil
}

func pageFromResponse(resp *cms.Response) (Page, error) {
	page := Page{
		Items:  make([]PostSummary, 0, len(resp.Results)),
		Cursor: resp.NextPage,
	}
	for _, doc := range resp.Results {
		s, err := SummaryFromDocument(doc)
		if err != nil {
			return Page{}, err
		}
		page.Items = append(page.Items, s)
	}
	return page, nil
}
