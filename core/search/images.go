// Package search queries the remote image search engine and dictionary.
// Searchers build the request URL, fetch it through a shared core.Fetcher and
// hand the page to the matching extractor.
package search

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/gaurav-prasanna/vocabpipe/core"
	"github.com/gaurav-prasanna/vocabpipe/core/extract"
)

// DefaultImageSearchURL is the image search endpoint.
const DefaultImageSearchURL = "https://www.google.com/search"

// ImageSearcher implements core.ImageSearcher.
type ImageSearcher struct {
	fetcher core.Fetcher
	baseURL string
}

// NewImageSearcher creates an ImageSearcher. An empty baseURL selects
// DefaultImageSearchURL.
func NewImageSearcher(fetcher core.Fetcher, baseURL string) *ImageSearcher {
	if baseURL == "" {
		baseURL = DefaultImageSearchURL
	}
	return &ImageSearcher{fetcher: fetcher, baseURL: baseURL}
}

// URL returns the results page URL for query starting at offset.
func (s *ImageSearcher) URL(query string, offset int) string {
	v := url.Values{}
	v.Set("tbm", "isch")
	v.Set("q", query)
	v.Set("start", strconv.Itoa(offset))
	v.Set("ijn", strconv.Itoa(offset/100))
	return s.baseURL + "?" + v.Encode()
}

// Search fetches one page of results starting at offset.
func (s *ImageSearcher) Search(ctx context.Context, query string, offset int) ([]core.ImageCandidate, error) {
	u := s.URL(query, offset)
	log.Debug().Str("target", "image_search").Str("url", u).Msg("searching")
	res, err := s.fetcher.Fetch(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("image search %q: %w", query, err)
	}
	images, err := extract.ParseImagePage(res.HTML)
	if err != nil {
		return nil, fmt.Errorf("image search %q: %w", query, err)
	}
	return images, nil
}

// SearchUpTo pages through results until max candidates are collected, a
// page comes back empty, or a page fails. It never returns more than max.
// When a later page fails, the candidates gathered so far are returned along
// with the error.
func (s *ImageSearcher) SearchUpTo(ctx context.Context, query string, max int) ([]core.ImageCandidate, error) {
	var images []core.ImageCandidate
	for offset := 0; len(images) < max; {
		page, err := s.Search(ctx, query, offset)
		if err != nil {
			return images, err
		}
		if len(page) == 0 {
			break
		}
		images = append(images, page...)
		offset += len(page)
	}
	if len(images) > max {
		images = images[:max]
	}
	return images, nil
}
