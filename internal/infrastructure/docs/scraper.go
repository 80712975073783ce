// Package docs fetches project documentation and websites and reduces them
// to readable text.
package docs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"

	"AlphaScreener/internal/domain"
	"AlphaScreener/internal/ports"
)

const (
	maxPageBytes = 5 << 20
	headings     = "h1, h2, h3, h4, h5, h6"
)

var (
	noise      = "script, style, noscript, nav, header, footer, iframe, form"
	blankLines = regexp.MustCompile(`\n{3,}`)
)

// Scraper implements ports.DocumentationSource over plain HTTP.
type Scraper struct {
	client    *http.Client
	converter *md.Converter
}

var _ ports.DocumentationSource = (*Scraper)(nil)

// NewScraper wires an HTTP client; nil gets a 30 second timeout.
func NewScraper(client *http.Client) *Scraper {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	return &Scraper{client: client, converter: converter}
}

// FetchDocumentation returns the page title, its headings and its main
// content as markdown.
func (s *Scraper) FetchDocumentation(ctx context.Context, url string) (domain.DocumentationContent, error) {
	doc, err := s.fetchDocument(ctx, url)
	if err != nil {
		return domain.DocumentationContent{}, err
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = "Unknown"
	}
	doc.Find(noise).Remove()

	return domain.DocumentationContent{
		URL:       url,
		Title:     title,
		Content:   s.render(doc),
		Sections:  extractSections(doc),
		FetchedAt: time.Now().UTC(),
	}, nil
}

// FetchWebsiteContent returns the readable text of a landing page.
func (s *Scraper) FetchWebsiteContent(ctx context.Context, url string) (string, error) {
	doc, err := s.fetchDocument(ctx, url)
	if err != nil {
		return "", err
	}
	doc.Find(noise).Remove()
	return s.render(doc), nil
}

func (s *Scraper) fetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "AlphaScreener/1.0")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned %s", url, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

// render converts the main content area to markdown, falling back to the
// whole body.
func (s *Scraper) render(doc *goquery.Document) string {
	root := doc.Find("main, article, [role=main]").First()
	if root.Length() == 0 {
		root = doc.Find("body")
	}
	if root.Length() == 0 {
		root = doc.Selection
	}

	text := s.converter.Convert(root)
	text = blankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func extractSections(doc *goquery.Document) []domain.DocumentationSection {
	sections := make([]domain.DocumentationSection, 0)
	doc.Find(headings).Each(func(_ int, h *goquery.Selection) {
		heading := strings.Join(strings.Fields(h.Text()), " ")
		if heading == "" {
			return
		}
		level := int(goquery.NodeName(h)[1] - '0')
		body := strings.Join(strings.Fields(h.NextUntil(headings).Text()), " ")
		sections = append(sections, domain.DocumentationSection{
			Heading: heading,
			Content: body,
			Level:   level,
		})
	})
	return sections
}
