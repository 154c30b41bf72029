// Package ingest pulls regulation documents from their source URLs into
// the document store.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// ErrUnsupportedFormat indicates a document format without a text
// extractor. PDF and DOCX sources are recognized but not extracted.
var ErrUnsupportedFormat = errors.New("unsupported document format")

const (
	fetchTimeout = 30 * time.Second
	userAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

	// maxBodySize caps fetched documents at 10 MiB.
	maxBodySize = 10 << 20
)

// Fetcher downloads a document and extracts its plain text.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a fetcher with a bounded request timeout.
func NewFetcher() *Fetcher {
	return &Fetcher{client: &http.Client{Timeout: fetchTimeout}}
}

// Fetch downloads the URL and returns its extracted plain text. HTML is
// reduced to article text; PDF and DOCX return ErrUnsupportedFormat.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("building request for %q: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %q: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %q: unexpected status %d", rawURL, resp.StatusCode)
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	switch {
	case strings.Contains(contentType, "pdf") || strings.HasSuffix(rawURL, ".pdf"):
		return "", fmt.Errorf("%q is a PDF: %w", rawURL, ErrUnsupportedFormat)
	case strings.Contains(contentType, "wordprocessingml") || strings.HasSuffix(rawURL, ".docx"):
		return "", fmt.Errorf("%q is a DOCX: %w", rawURL, ErrUnsupportedFormat)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("reading %q: %w", rawURL, err)
	}

	return extractHTML(body, rawURL)
}

// extractHTML prefers readability article extraction and falls back to
// stripping boilerplate elements when no article can be identified.
func extractHTML(body []byte, rawURL string) (string, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing url %q: %w", rawURL, err)
	}

	article, err := readability.FromReader(strings.NewReader(string(body)), pageURL)
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		return normalizeText(article.TextContent), nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return "", fmt.Errorf("parsing html from %q: %w", rawURL, err)
	}
	doc.Find("script, style, nav, header, footer").Remove()
	return normalizeText(doc.Find("body").Text()), nil
}

// normalizeText collapses runs of whitespace and drops blank lines.
func normalizeText(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
