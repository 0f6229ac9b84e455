package podcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/mmcdole/gofeed"
)

// minTitleOverlap is the lowest title-similarity score accepted when no feed
// entry matches the episode id.
const minTitleOverlap = 0.3

var (
	showNamePattern = regexp.MustCompile(`"showName":"([^"]+)"`)
	nonAlnumPattern = regexp.MustCompile(`[^a-z0-9]+`)
)

// Enclosure locates the downloadable audio for one episode.
type Enclosure struct {
	AudioURL     string
	EpisodeID    string
	ShowID       string
	EpisodeTitle string
	Extension    string
}

// ResolveEnclosure finds the direct audio URL for an episode. The show's RSS
// feed is fetched through the show-id gateway when possible, falling back to
// a podcast directory search by show name, and the episode entry is matched
// by id first and title similarity second.
func (c *Client) ResolveEnclosure(ctx context.Context, episodeURL string, meta *Metadata) (*Enclosure, error) {
	var episodeID, title, showID, showName string
	if meta != nil {
		episodeID, title, showID, showName = meta.ID, meta.Title, meta.ShowID, meta.Subtitle
	}
	if episodeID == "" {
		id, err := EpisodeID(episodeURL)
		if err != nil {
			return nil, err
		}
		episodeID = id
	}
	if showID == "" || showName == "" {
		c.scrapeShowReference(ctx, episodeURL, &showID, &showName)
	}

	feed, err := c.showFeed(ctx, showID, showName)
	if err != nil {
		return nil, err
	}

	item := matchFeedItem(feed, episodeID, title)
	if item == nil {
		return nil, fmt.Errorf("episode %s not found among %d feed entries", episodeID, len(feed.Items))
	}
	audioURL := itemEnclosureURL(item)
	if audioURL == "" {
		return nil, fmt.Errorf("feed entry %q has no audio enclosure", item.Title)
	}
	return &Enclosure{
		AudioURL:     audioURL,
		EpisodeID:    episodeID,
		ShowID:       showID,
		EpisodeTitle: item.Title,
		Extension:    extensionFromURL(audioURL),
	}, nil
}

// scrapeShowReference fills missing show id and name from the episode page.
// Best effort: resolution can still succeed on whichever field is present.
func (c *Client) scrapeShowReference(ctx context.Context, episodeURL string, showID, showName *string) {
	body, err := c.fetchPage(ctx, episodeURL)
	if err != nil {
		return
	}
	if *showID == "" {
		if m := showURIPattern.FindSubmatch(body); m != nil {
			*showID = string(m[1])
		}
	}
	if *showID == "" {
		if m := showURLPattern.FindSubmatch(body); m != nil {
			*showID = string(m[1])
		}
	}
	if *showName == "" {
		if m := showNamePattern.FindSubmatch(body); m != nil {
			*showName = string(m[1])
		}
	}
}

func (c *Client) showFeed(ctx context.Context, showID, showName string) (*gofeed.Feed, error) {
	if showID == "" && showName == "" {
		return nil, errors.New("cannot resolve show feed without a show id or name")
	}
	var gatewayErr error
	if showID != "" {
		feed, err := c.fetchFeed(ctx, c.gatewayURL+"/show/"+showID)
		if err == nil {
			return feed, nil
		}
		gatewayErr = err
	}
	if showName == "" {
		return nil, fmt.Errorf("show feed: %w", gatewayErr)
	}
	feed, err := c.searchFeed(ctx, showName)
	if err != nil {
		if gatewayErr != nil {
			return nil, fmt.Errorf("gateway lookup failed (%v); directory search failed: %w", gatewayErr, err)
		}
		return nil, err
	}
	return feed, nil
}

func (c *Client) fetchFeed(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch feed %s: http %d", feedURL, resp.StatusCode)
	}
	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	if len(feed.Items) == 0 {
		return nil, fmt.Errorf("feed %s has no entries", feedURL)
	}
	return feed, nil
}

// searchFeed locates the show's feed through the podcast directory search
// API, preferring results whose collection name overlaps the show name.
func (c *Client) searchFeed(ctx context.Context, showName string) (*gofeed.Feed, error) {
	query := url.Values{
		"media": {"podcast"},
		"term":  {showName},
		"limit": {"5"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directory search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("directory search: http %d", resp.StatusCode)
	}

	var payload struct {
		Results []struct {
			CollectionName string `json:"collectionName"`
			FeedURL        string `json:"feedUrl"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("directory search: decode response: %w", err)
	}
	if len(payload.Results) == 0 {
		return nil, fmt.Errorf("directory search found no podcasts for %q", showName)
	}

	target := normalizeText(showName)
	feedURL := ""
	for _, result := range payload.Results {
		if result.FeedURL == "" {
			continue
		}
		candidate := normalizeText(result.CollectionName)
		if candidate != "" && target != "" &&
			(strings.Contains(candidate, target) || strings.Contains(target, candidate)) {
			feedURL = result.FeedURL
			break
		}
	}
	if feedURL == "" {
		for _, result := range payload.Results {
			if result.FeedURL != "" {
				feedURL = result.FeedURL
				break
			}
		}
	}
	if feedURL == "" {
		return nil, errors.New("directory search returned no feed URLs")
	}
	return c.fetchFeed(ctx, feedURL)
}

// matchFeedItem returns the feed entry for the episode. The id is checked
// against entry guids and links; otherwise the best title-similarity match
// above minTitleOverlap wins.
func matchFeedItem(feed *gofeed.Feed, episodeID, title string) *gofeed.Item {
	if episodeID != "" {
		needle := strings.ToLower(episodeID)
		for _, item := range feed.Items {
			for _, candidate := range []string{item.GUID, item.Link} {
				if candidate != "" && strings.Contains(strings.ToLower(candidate), needle) {
					return item
				}
			}
		}
	}
	if title == "" {
		return nil
	}

	target := normalizeText(title)
	targetWords := normalizeWords(title)
	var best *gofeed.Item
	bestScore := 0.0
	for _, item := range feed.Items {
		candidate := normalizeText(item.Title)
		if candidate == "" {
			continue
		}
		if candidate == target {
			return item
		}
		score := 0.0
		if strings.Contains(candidate, target) || strings.Contains(target, candidate) {
			shorter, longer := len(target), len(candidate)
			if shorter > longer {
				shorter, longer = longer, shorter
			}
			if longer > 0 {
				score = float64(shorter) / float64(longer)
			}
		}
		if overlap := wordOverlap(targetWords, normalizeWords(item.Title)); overlap > score {
			score = overlap
		}
		if score > bestScore {
			bestScore = score
			best = item
		}
	}
	if bestScore > minTitleOverlap {
		return best
	}
	return nil
}

func itemEnclosureURL(item *gofeed.Item) string {
	for _, enclosure := range item.Enclosures {
		if enclosure != nil && enclosure.URL != "" {
			return enclosure.URL
		}
	}
	return ""
}

func extensionFromURL(audioURL string) string {
	parsed, err := url.Parse(audioURL)
	if err != nil {
		return ".mp3"
	}
	if ext := path.Ext(parsed.Path); ext != "" {
		return ext
	}
	return ".mp3"
}

func normalizeText(value string) string {
	return nonAlnumPattern.ReplaceAllString(strings.ToLower(value), "")
}

func normalizeWords(value string) []string {
	fields := nonAlnumPattern.Split(strings.ToLower(value), -1)
	words := make([]string, 0, len(fields))
	for _, field := range fields {
		if field != "" {
			words = append(words, field)
		}
	}
	return words
}

func wordOverlap(target, candidate []string) float64 {
	if len(target) == 0 || len(candidate) == 0 {
		return 0
	}
	targetSet := make(map[string]struct{}, len(target))
	for _, word := range target {
		targetSet[word] = struct{}{}
	}
	candidateSet := make(map[string]struct{}, len(candidate))
	for _, word := range candidate {
		candidateSet[word] = struct{}{}
	}
	common := 0
	for word := range candidateSet {
		if _, ok := targetSet[word]; ok {
			common++
		}
	}
	longer := len(targetSet)
	if len(candidateSet) > longer {
		longer = len(candidateSet)
	}
	return float64(common) / float64(longer)
}
