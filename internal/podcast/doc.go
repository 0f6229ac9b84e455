// Package podcast resolves public episode pages to presentation metadata and
// downloadable audio.
//
// The Client scrapes an episode page for Open Graph tags and the embedded
// page-state JSON, locates the show's public RSS feed through a show-id
// gateway with a podcast directory search as fallback, matches the episode
// entry by id or title overlap, and streams the enclosure to disk with
// progress reporting. The worker tool builds its metadata and fetch
// subcommands on these pieces.
//
// Keep new page-scraping heuristics and feed-matching rules here so the tool
// commands stay thin argv-to-JSON adapters.
package podcast
