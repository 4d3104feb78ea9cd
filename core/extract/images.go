package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/rs/zerolog/log"
	"github.com/titanous/json5"

	"github.com/gaurav-prasanna/vocabpipe/core"
)

// Markers identifying the image-results payload among the inline scripts of
// a results page. The page carries several AF_initDataCallback blocks; the
// image block mentions ds:1 and not ds:0.
const (
	callbackMarker = "AF_initDataCallback"
	wantMarker     = "ds:1"
	rejectMarker   = "ds:0"
	literalPrefix  = "AF_initDataCallback("
	literalSuffix  = "});"
)

// ImageDataPath reaches the list of raw result entries inside the parsed
// literal. It is a guess that holds for the current page version only.
var ImageDataPath = []interface{}{"data", 56, 1, 0, 0, 1, 0}

// Positions inside one result record (see parseImageEntry).
const (
	recordThumb  = 2
	recordFull   = 3
	tripleURL    = 0
	tripleHeight = 1
	tripleWidth  = 2
	sourceURL    = 2
	sourceTitle  = 3
)

var scriptSelector = cascadia.MustCompile("script")

// ParseImagePage recovers image candidates from an image search results
// page. Entries that do not match the expected layout are skipped.
func ParseImagePage(html string) ([]core.ImageCandidate, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	script, ok := findPayloadScript(doc)
	if !ok {
		return nil, fmt.Errorf("no %s script with %s: %w", callbackMarker, wantMarker, core.ErrPayloadNotFound)
	}

	literal, ok := cutLiteral(script)
	if !ok {
		return nil, fmt.Errorf("payload delimiters not found: %w", core.ErrPayloadNotFound)
	}

	payload, err := decodeLiteral(literal)
	if err != nil {
		return nil, err
	}

	entries, ok := array(payload, ImageDataPath...)
	if !ok {
		return nil, fmt.Errorf("result list not found at %v: %w", ImageDataPath, core.ErrPayloadMalformed)
	}

	images := make([]core.ImageCandidate, 0, len(entries))
	for _, entry := range entries {
		if img, ok := parseImageEntry(entry); ok {
			images = append(images, img)
		}
	}
	log.Debug().Str("target", "image_search").Int("entries", len(entries)).Int("images", len(images)).Msg("data parsed")
	return images, nil
}

func findPayloadScript(doc *goquery.Document) (string, bool) {
	var found string
	doc.FindMatcher(scriptSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		if strings.Contains(text, callbackMarker) &&
			strings.Contains(text, wantMarker) &&
			!strings.Contains(text, rejectMarker) {
			found = text
			return false
		}
		return true
	})
	return found, found != ""
}

// cutLiteral returns the object literal passed to the callback, closing
// brace included.
func cutLiteral(script string) (string, bool) {
	start := strings.Index(script, literalPrefix)
	if start < 0 {
		return "", false
	}
	start += len(literalPrefix)
	end := strings.Index(script[start:], literalSuffix)
	if end < 0 {
		return "", false
	}
	return script[start : start+end+1], true
}

// decodeLiteral parses a JavaScript object literal: unquoted keys,
// single-quoted strings and trailing commas are all accepted.
func decodeLiteral(literal string) (interface{}, error) {
	var payload interface{}
	if err := json5.Unmarshal([]byte(literal), &payload); err != nil {
		return nil, fmt.Errorf("decoding payload literal: %w: %w", core.ErrPayloadMalformed, err)
	}
	return payload, nil
}

// parseImageEntry walks one raw entry:
//
//	entry[0][0]            object keyed by an unstable id
//	  [<first key>] = l
//	    l[1][2]            thumbnail (url, height, width)
//	    l[1][3]            full image (url, height, width)
//	    l[1][<first obj>]  object whose values include the source record
//	                       [.., .., page url, title, ..]
func parseImageEntry(entry interface{}) (core.ImageCandidate, bool) {
	holder, ok := at(entry, 0, 0)
	if !ok {
		return core.ImageCandidate{}, false
	}
	key, ok := firstKey(holder)
	if !ok {
		return core.ImageCandidate{}, false
	}
	record, ok := array(holder, key, 1)
	if !ok {
		return core.ImageCandidate{}, false
	}

	var img core.ImageCandidate
	if img.ThumbURL, ok = str(record, recordThumb, tripleURL); !ok {
		return core.ImageCandidate{}, false
	}
	if img.ThumbHeight, ok = integer(record, recordThumb, tripleHeight); !ok {
		return core.ImageCandidate{}, false
	}
	if img.ThumbWidth, ok = integer(record, recordThumb, tripleWidth); !ok {
		return core.ImageCandidate{}, false
	}
	if img.FullURL, ok = str(record, recordFull, tripleURL); !ok {
		return core.ImageCandidate{}, false
	}
	if img.FullHeight, ok = integer(record, recordFull, tripleHeight); !ok {
		return core.ImageCandidate{}, false
	}
	if img.FullWidth, ok = integer(record, recordFull, tripleWidth); !ok {
		return core.ImageCandidate{}, false
	}

	source, ok := findSourceRecord(record)
	if !ok {
		return core.ImageCandidate{}, false
	}
	if img.SourcePageURL, ok = str(source, sourceURL); !ok {
		return core.ImageCandidate{}, false
	}
	if img.Title, ok = str(source, sourceTitle); !ok {
		return core.ImageCandidate{}, false
	}
	return img, true
}

// findSourceRecord locates the first object among the record's elements and
// returns the first of its values that is an array holding an http string.
func findSourceRecord(record []interface{}) ([]interface{}, bool) {
	for _, el := range record {
		obj, ok := el.(map[string]interface{})
		if !ok {
			continue
		}
		for _, k := range sortedKeys(obj) {
			if arr, ok := obj[k].([]interface{}); ok && hasHTTPString(arr) {
				return arr, true
			}
		}
		return nil, false
	}
	return nil, false
}
