package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/nbenliogludev/quiz-chain-solver/internal/fetch"
)

const DefaultSubmitTimeout = 30 * time.Second

var (
	actionAttrPattern = regexp.MustCompile(`action=["'](.*?)["']`)
	submitURLPattern  = regexp.MustCompile(`([A-Za-z0-9.\-:/?&_=%]+submit[^\s"']*)`)
)

// FindSubmit locates the answer endpoint of a quiz page, resolved against
// base. It tries, in order: a link mentioning "submit" in any case, an
// action attribute containing "submit", and any URL-like token containing
// "submit" in the raw source. It returns "" when nothing matches.
func FindSubmit(html string, links []string, base string) string {
	for _, link := range links {
		if strings.Contains(strings.ToLower(link), "submit") {
			return fetch.ResolveURL(base, link)
		}
	}

	for _, action := range actionValues(html) {
		if strings.Contains(action, "submit") {
			return fetch.ResolveURL(base, action)
		}
	}

	if m := submitURLPattern.FindStringSubmatch(html); m != nil {
		return fetch.ResolveURL(base, m[1])
	}
	return ""
}

// actionValues lists action attributes of parsed elements first, then any
// action="..." text the parser did not surface, such as inside scripts or
// comments.
func actionValues(html string) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(v string) {
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		doc.Find("[action]").Each(func(_ int, s *goquery.Selection) {
			if v, ok := s.Attr("action"); ok {
				add(v)
			}
		})
	}
	for _, m := range actionAttrPattern.FindAllStringSubmatch(html, -1) {
		add(m[1])
	}
	return out
}

type Submitter interface {
	// Submit posts payload and returns the decoded JSON reply, or the raw
	// body text when it is not JSON.
	Submit(ctx context.Context, endpoint string, payload any) (any, error)
}

// HTTPSubmitter reads the reply body whatever the status code: quiz
// servers answer wrong submissions with 4xx bodies that still carry the
// next URL.
type HTTPSubmitter struct {
	client  *http.Client
	timeout time.Duration
}

func NewHTTPSubmitter(timeout time.Duration) *HTTPSubmitter {
	if timeout <= 0 {
		timeout = DefaultSubmitTimeout
	}
	return &HTTPSubmitter{client: &http.Client{}, timeout: timeout}
}

func (s *HTTPSubmitter) Submit(ctx context.Context, endpoint string, payload any) (any, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read submit response: %w", err)
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err == nil {
		return parsed, nil
	}
	return string(raw), nil
}
