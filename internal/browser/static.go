package browser

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// StaticRenderer fetches the page over plain HTTP without running any
// JavaScript. It suits quiz pages that are server rendered and is the
// backend used by the tests.
type StaticRenderer struct {
	client *http.Client
	policy *bluemonday.Policy
	logger *slog.Logger
}

func NewStaticRenderer(timeout time.Duration, logger *slog.Logger) *StaticRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &StaticRenderer{
		client: &http.Client{Timeout: timeout},
		policy: bluemonday.StrictPolicy(),
		logger: logger,
	}
}

func (r *StaticRenderer) Render(ctx context.Context, rawURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("failed to fetch page: status code %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return r.fromDocument(rawURL, doc)
}

func (r *StaticRenderer) fromDocument(rawURL string, doc *goquery.Document) (*Page, error) {
	doc.Find(stripSelector).Remove()

	var links []string
	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok && href != "" {
			links = append(links, href)
		}
	})

	markup, err := doc.Html()
	if err != nil {
		return nil, fmt.Errorf("serialize html: %w", err)
	}

	body, err := doc.Find("body").Html()
	if err != nil {
		return nil, fmt.Errorf("serialize body: %w", err)
	}
	text := strings.TrimSpace(html.UnescapeString(r.policy.Sanitize(body)))

	return &Page{
		URL:   rawURL,
		Title: r.title(rawURL, markup, doc),
		HTML:  markup,
		Text:  text,
		Links: links,
	}, nil
}

func (r *StaticRenderer) title(rawURL, markup string, doc *goquery.Document) string {
	if u, err := url.Parse(rawURL); err == nil {
		if article, err := readability.FromReader(strings.NewReader(markup), u); err == nil && article.Title != "" {
			return strings.TrimSpace(article.Title)
		}
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

func (r *StaticRenderer) Close() error { return nil }
