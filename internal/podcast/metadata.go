package podcast

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// Metadata describes a podcast episode as scraped from its public page.
// Subtitle carries the show name when the page exposes one.
type Metadata struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle,omitempty"`
	Description string `json:"description,omitempty"`
	CoverImage  string `json:"cover_image,omitempty"`
	ReleaseDate string `json:"release_date,omitempty"`
	URL         string `json:"url,omitempty"`
	ShowID      string `json:"show_id,omitempty"`
}

var titleSuffixPattern = regexp.MustCompile(`(?i)\s*\|\s*spotify\s*$`)

// minReadableDescription is the shortest body-text run accepted as a
// description when every structured source comes up empty.
const minReadableDescription = 100

// EpisodeMetadata scrapes the public episode page for presentation metadata.
// Open Graph and Twitter tags are read first, the page-state JSON fills the
// remaining fields, and a readability pass over the page body is the last
// resort for the description. The embed variant of the page is consulted when
// the main page withholds the title or description.
func (c *Client) EpisodeMetadata(ctx context.Context, episodeURL string) (*Metadata, error) {
	id, err := EpisodeID(episodeURL)
	if err != nil {
		return nil, err
	}

	meta := &Metadata{ID: id, URL: episodeURL}

	body, err := c.fetchPage(ctx, episodeURL)
	if err != nil {
		return nil, fmt.Errorf("fetch episode page: %w", err)
	}
	if err := fillFromPage(meta, body); err != nil {
		return nil, err
	}

	if meta.Title == "" || meta.Description == "" {
		if embed := embedPageURL(episodeURL, id); embed != "" {
			if embedBody, err := c.fetchPage(ctx, embed); err == nil {
				_ = fillFromPage(meta, embedBody)
			}
		}
	}

	if meta.Title == "" {
		meta.Title = "Episode " + id
	}
	meta.CoverImage = upgradeCoverSize(meta.CoverImage)
	return meta, nil
}

// fillFromPage populates only the fields meta does not have yet, so callers
// can layer page variants from most to least authoritative.
func fillFromPage(meta *Metadata, body []byte) error {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("parse episode page: %w", err)
	}

	if meta.Title == "" {
		meta.Title = firstMetaContent(doc, `meta[property="og:title"]`, `meta[name="twitter:title"]`)
	}
	if meta.Title == "" {
		title := titleSuffixPattern.ReplaceAllString(strings.TrimSpace(doc.Find("title").First().Text()), "")
		if !strings.EqualFold(title, "spotify") {
			meta.Title = title
		}
	}
	if meta.Description == "" {
		meta.Description = firstMetaContent(doc,
			`meta[property="og:description"]`,
			`meta[name="twitter:description"]`,
			`meta[name="description"]`)
	}
	if meta.CoverImage == "" {
		meta.CoverImage = firstMetaContent(doc, `meta[property="og:image"]`, `meta[name="twitter:image"]`)
	}

	applyPageState(meta, doc)

	if meta.ShowID == "" {
		if m := showURIPattern.FindSubmatch(body); m != nil {
			meta.ShowID = string(m[1])
		}
	}
	if meta.ShowID == "" {
		if m := showURLPattern.FindSubmatch(body); m != nil {
			meta.ShowID = string(m[1])
		}
	}

	if meta.Description == "" {
		meta.Description = readableDescription(body)
	}
	return nil
}

// pageState mirrors the slice of the __NEXT_DATA__ blob the scraper needs.
type pageState struct {
	Props struct {
		PageProps struct {
			State struct {
				Data struct {
					Entity pageEntity `json:"entity"`
				} `json:"data"`
			} `json:"state"`
		} `json:"pageProps"`
	} `json:"props"`
}

type pageEntity struct {
	Name             string      `json:"name"`
	Subtitle         string      `json:"subtitle"`
	Description      string      `json:"description"`
	HTMLDescription  string      `json:"htmlDescription"`
	URI              string      `json:"uri"`
	ReleaseDate      releaseDate `json:"releaseDate"`
	CoverArt         coverArt    `json:"coverArt"`
	RelatedEntityURI string      `json:"relatedEntityUri"`
	Show             showRef     `json:"show"`
}

type coverArt struct {
	Sources []imageSource `json:"sources"`
}

type imageSource struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type showRef struct {
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// releaseDate appears either as a plain string or as an object carrying
// isoString/dateString, depending on page version.
type releaseDate struct {
	Value string
}

func (r *releaseDate) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		r.Value = plain
		return nil
	}
	var wrapped struct {
		ISOString  string `json:"isoString"`
		DateString string `json:"dateString"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	r.Value = wrapped.ISOString
	if r.Value == "" {
		r.Value = wrapped.DateString
	}
	return nil
}

func applyPageState(meta *Metadata, doc *goquery.Document) {
	raw := strings.TrimSpace(doc.Find("script#__NEXT_DATA__").First().Text())
	if raw == "" {
		return
	}
	var state pageState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return
	}
	entity := state.Props.PageProps.State.Data.Entity

	if meta.Title == "" {
		meta.Title = strings.TrimSpace(entity.Name)
	}
	if meta.Subtitle == "" {
		meta.Subtitle = firstNonEmpty(entity.Show.Name, entity.Subtitle)
	}
	if meta.Description == "" {
		meta.Description = flattenHTML(firstNonEmpty(entity.Description, entity.HTMLDescription))
	}
	if meta.CoverImage == "" {
		meta.CoverImage = largestSource(entity.CoverArt.Sources)
	}
	if meta.ReleaseDate == "" {
		meta.ReleaseDate = strings.TrimSpace(entity.ReleaseDate.Value)
	}
	if meta.ShowID == "" {
		meta.ShowID = normalizeShowID(firstNonEmpty(entity.Show.URI, entity.RelatedEntityURI))
	}
}

func firstMetaContent(doc *goquery.Document, selectors ...string) string {
	for _, selector := range selectors {
		if content, ok := doc.Find(selector).First().Attr("content"); ok {
			if trimmed := strings.TrimSpace(content); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// flattenHTML strips markup from a description and collapses its whitespace.
func flattenHTML(value string) string {
	if value == "" {
		return ""
	}
	if strings.ContainsRune(value, '<') && strings.ContainsRune(value, '>') {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(value)); err == nil {
			value = doc.Text()
		}
	}
	return strings.Join(strings.Fields(value), " ")
}

func largestSource(sources []imageSource) string {
	best := ""
	bestWidth := -1
	for _, source := range sources {
		if source.URL == "" {
			continue
		}
		if source.Width > bestWidth {
			best = source.URL
			bestWidth = source.Width
		}
	}
	return best
}

func normalizeShowID(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if m := showURIPattern.FindStringSubmatch(value); m != nil {
		return m[1]
	}
	if m := showURLPattern.FindStringSubmatch(value); m != nil {
		return m[1]
	}
	if strings.ContainsAny(value, ":/") {
		return ""
	}
	return value
}

// upgradeCoverSize rewrites known thumbnail size tokens to the largest
// variant the image CDN serves.
func upgradeCoverSize(imageURL string) string {
	for _, size := range []string{"64x64", "160x160", "300x300"} {
		if strings.Contains(imageURL, size) {
			return strings.Replace(imageURL, size, "640x640", 1)
		}
	}
	return imageURL
}

func readableDescription(body []byte) string {
	article, err := readability.FromReader(bytes.NewReader(body), nil)
	if err != nil {
		return ""
	}
	if excerpt := strings.Join(strings.Fields(article.Excerpt), " "); len(excerpt) >= minReadableDescription {
		return excerpt
	}
	text := strings.Join(strings.Fields(article.TextContent), " ")
	if len(text) < minReadableDescription {
		return ""
	}
	if len(text) > 500 {
		text = strings.TrimSpace(text[:500]) + "..."
	}
	return text
}

func embedPageURL(episodeURL, id string) string {
	parsed, err := url.Parse(episodeURL)
	if err != nil || parsed.Host == "" {
		return ""
	}
	parsed.Path = "/embed/episode/" + id
	parsed.RawQuery = ""
	parsed.Fragment = ""
	return parsed.String()
}
