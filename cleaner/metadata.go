package cleaner

import (
	"log/slog"
	nurl "net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/use-agent/scrapekit/models"
)

// Metadata extracts best-effort page information from rawMarkup using the
// Mozilla Readability algorithm, filling gaps from <head> tags.
//
// It never fails: a missing field is left empty, and a readability error
// only drops the fields readability would have supplied.
func Metadata(rawMarkup, sourceURL string) models.Metadata {
	var meta models.Metadata

	parsedURL, err := nurl.Parse(sourceURL)
	if err == nil {
		article, rerr := readability.FromReader(strings.NewReader(rawMarkup), parsedURL)
		if rerr == nil {
			meta = models.Metadata{
				Title:       strings.TrimSpace(article.Title),
				Description: strings.TrimSpace(article.Excerpt),
				SiteName:    strings.TrimSpace(article.SiteName),
				Language:    strings.TrimSpace(article.Language),
			}
		} else {
			slog.Debug("metadata: readability failed", "url", sourceURL, "error", rerr)
		}
	} else {
		slog.Debug("metadata: invalid source URL", "url", sourceURL, "error", err)
	}

	if meta.Title != "" && meta.Description != "" && meta.SiteName != "" && meta.Language != "" {
		return meta
	}
	fillFromHead(rawMarkup, &meta)
	return meta
}

// fillFromHead sets empty fields from <title>, <html lang> and meta tags.
func fillFromHead(rawMarkup string, meta *models.Metadata) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawMarkup))
	if err != nil {
		return
	}

	if meta.Title == "" {
		meta.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if meta.Language == "" {
		if lang, ok := doc.Find("html").First().Attr("lang"); ok {
			meta.Language = strings.TrimSpace(lang)
		}
	}

	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		content := strings.TrimSpace(s.AttrOr("content", ""))
		if content == "" {
			return
		}
		key := s.AttrOr("property", s.AttrOr("name", ""))
		switch key {
		case "og:title":
			if meta.Title == "" {
				meta.Title = content
			}
		case "og:description", "description":
			if meta.Description == "" {
				meta.Description = content
			}
		case "og:site_name":
			if meta.SiteName == "" {
				meta.SiteName = content
			}
		}
	})
}
