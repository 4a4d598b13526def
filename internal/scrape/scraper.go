// Package scrape fetches web pages and extracts the article text and metadata
// the website and Instagram processors need.
package scrape

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/aktagon/inbox-sorter/internal/fetch"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "Mozilla/5.0 (compatible; inbox-sorter/1.0)"
	maxBodyBytes   = 10 << 20
)

// Page is what a single fetch of a URL yields.
type Page struct {
	URL         string
	Title       string
	Author      string
	PublishDate string
	SiteName    string
	Description string
	Caption     string // og:description only; social sites put the post text there
	MainText    string
}

// Scraper fetches and parses HTML pages.
type Scraper struct {
	client    *http.Client
	converter *md.Converter
}

// New creates a scraper. A nil client gets a default with a 30s timeout.
func New(client *http.Client) *Scraper {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Scraper{
		client:    client,
		converter: md.NewConverter("", true, nil),
	}
}

// FetchPage downloads pageURL and extracts its metadata and main text.
func (s *Scraper) FetchPage(ctx context.Context, pageURL string) (*Page, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &fetch.HTTPError{StatusCode: resp.StatusCode, URL: pageURL}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return s.Parse(body, parsed)
}

// Parse extracts a Page from raw HTML served at pageURL.
func (s *Scraper) Parse(body []byte, pageURL *url.URL) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	page := &Page{
		URL:         pageURL.String(),
		Title:       extractTitle(doc),
		Author:      extractAuthor(doc),
		PublishDate: extractPublishDate(doc),
		SiteName:    extractSiteName(doc, pageURL),
		Description: extractDescription(doc),
		Caption:     metaContent(doc, "meta[property='og:description']"),
	}
	page.MainText = s.mainText(body, doc, pageURL)
	return page, nil
}

// mainText prefers the readability article rendered as markdown and falls
// back to the whitespace-collapsed body text.
func (s *Scraper) mainText(body []byte, doc *goquery.Document, pageURL *url.URL) string {
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err == nil && strings.TrimSpace(article.Content) != "" {
		if markdown, err := s.converter.ConvertString(article.Content); err == nil && strings.TrimSpace(markdown) != "" {
			return strings.TrimSpace(markdown)
		}
		if text := strings.TrimSpace(article.TextContent); text != "" {
			return text
		}
	}

	bodySel := doc.Find("body").Clone()
	bodySel.Find("script, style, noscript, nav, footer").Remove()
	return collapseSpace(bodySel.Text())
}

func extractTitle(doc *goquery.Document) string {
	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
		return collapseSpace(h1)
	}
	if og := metaContent(doc, "meta[property='og:title']"); og != "" {
		return og
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

func extractAuthor(doc *goquery.Document) string {
	for _, sel := range []string{"meta[property='author']", "meta[name='author']", "meta[property='article:author']"} {
		if v := metaContent(doc, sel); v != "" {
			return v
		}
	}
	for _, sel := range []string{".author", "[rel='author']"} {
		if v := strings.TrimSpace(doc.Find(sel).First().Text()); v != "" {
			return collapseSpace(v)
		}
	}
	return ""
}

var publishDateSelectors = []string{
	"meta[property='article:published_time']",
	"meta[itemprop='datePublished']",
	"meta[name='datePublished']",
	"meta[name='date']",
	"meta[name='pubdate']",
	"meta[name='publishdate']",
	"meta[property='og:published_time']",
	"meta[name='og:published_time']",
}

func extractPublishDate(doc *goquery.Document) string {
	for _, sel := range publishDateSelectors {
		if v := metaContent(doc, sel); v != "" {
			return v
		}
	}
	if v, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func extractSiteName(doc *goquery.Document, pageURL *url.URL) string {
	if v := metaContent(doc, "meta[property='og:site_name']"); v != "" {
		return v
	}
	return strings.TrimPrefix(pageURL.Hostname(), "www.")
}

func extractDescription(doc *goquery.Document) string {
	if v := metaContent(doc, "meta[property='og:description']"); v != "" {
		return v
	}
	return metaContent(doc, "meta[name='description']")
}

func metaContent(doc *goquery.Document, selector string) string {
	v, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(v)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
