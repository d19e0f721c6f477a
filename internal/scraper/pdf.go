package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/ledongthuc/pdf"
)

func (p *Pool) scrapePDF(ctx context.Context, target string) (Source, error) {
	data, _, err := p.get(ctx, target)
	if err != nil {
		return Source{}, err
	}
	return p.extractPDF(target, data)
}

// extractPDF returns plain text and no images; inline figure extraction is
// not worth the decode cost here.
func (p *Pool) extractPDF(target string, data []byte) (Source, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Source{}, fmt.Errorf("open pdf: %w", err)
	}

	textReader, err := reader.GetPlainText()
	if err != nil {
		return Source{}, fmt.Errorf("extract pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(textReader); err != nil {
		return Source{}, fmt.Errorf("read pdf text: %w", err)
	}

	return Source{
		URL:       target,
		Title:     pdfTitle(target),
		RawText:   strings.TrimSpace(buf.String()),
		ImageURLs: []string{},
		Status:    StatusSuccess,
	}, nil
}

func pdfTitle(target string) string {
	parsed, err := url.Parse(target)
	if err != nil {
		return target
	}
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(segments) == 0 {
		return target
	}
	return segments[len(segments)-1]
}

// scrapeArxiv rewrites abstract links to the PDF rendition before taking the
// PDF path.
func (p *Pool) scrapeArxiv(ctx context.Context, parsed *url.URL) (Source, error) {
	target := *parsed
	if strings.HasPrefix(target.Path, "/abs/") {
		target.Path = "/pdf/" + strings.TrimPrefix(target.Path, "/abs/")
	}
	src, err := p.scrapePDF(ctx, target.String())
	if err != nil {
		return Source{}, err
	}
	// Keep the caller's URL so the visited set and citations line up.
	src.URL = parsed.String()
	return src, nil
}
