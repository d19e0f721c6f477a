package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

func (p *Pool) scrapeHTML(ctx context.Context, target string) (Source, error) {
	data, contentType, err := p.get(ctx, target)
	if err != nil {
		return Source{}, err
	}
	if strings.Contains(contentType, "application/pdf") {
		return p.extractPDF(target, data)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return Source{}, fmt.Errorf("parse html: %w", err)
	}

	// Boilerplate elements contribute navigation noise, not content.
	doc.Find("script, style, nav, footer, header, aside, iframe, noscript").Remove()

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	var text strings.Builder
	doc.Find("h1, h2, h3, h4, h5, h6, p, li, blockquote, pre").Each(func(_ int, sel *goquery.Selection) {
		line := strings.TrimSpace(sel.Text())
		if line == "" {
			return
		}
		text.WriteString(line)
		text.WriteString("\n\n")
	})
	body := strings.TrimSpace(text.String())
	if body == "" {
		// Content-free markup still counts as a fetch; fall back to the
		// whole document text.
		body = strings.TrimSpace(doc.Text())
	}

	return Source{
		URL:       target,
		Title:     title,
		RawText:   body,
		ImageURLs: extractImages(doc, target),
		Status:    StatusSuccess,
	}, nil
}

// extractImages collects content-looking images resolved against the page
// URL. Icons, sprites, trackers, and data URIs are dropped.
func extractImages(doc *goquery.Document, pageURL string) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var images []string
	doc.Find("img[src]").Each(func(_ int, sel *goquery.Selection) {
		src, _ := sel.Attr("src")
		src = strings.TrimSpace(src)
		if src == "" || strings.HasPrefix(src, "data:") {
			return
		}
		ref, err := url.Parse(src)
		if err != nil {
			return
		}
		resolved := base.ResolveReference(ref)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}
		if !looksLikeContentImage(resolved.String()) {
			return
		}
		full := resolved.String()
		if !seen[full] {
			seen[full] = true
			images = append(images, full)
		}
	})
	return images
}

func looksLikeContentImage(imageURL string) bool {
	lower := strings.ToLower(imageURL)
	for _, marker := range []string{"icon", "logo", "sprite", "avatar", "badge", "pixel", "tracking", "1x1", ".svg"} {
		if strings.Contains(lower, marker) {
			return false
		}
	}
	return true
}
