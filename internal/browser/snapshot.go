package browser

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// snapshot strips noise from the loaded page and reads back its HTML,
// body text and anchors.
func (m *Manager) snapshot(page playwright.Page, url string) (*Page, error) {
	if _, err := page.Evaluate(cleanupScript); err != nil {
		return nil, fmt.Errorf("js cleanup failed: %w", err)
	}

	html, err := page.Content()
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}

	text, err := page.InnerText("body")
	if err != nil {
		return nil, fmt.Errorf("read body text: %w", err)
	}

	rawLinks, err := page.Evaluate(linksScript)
	if err != nil {
		return nil, fmt.Errorf("js evaluation failed: %w", err)
	}

	title, _ := page.Title()

	return &Page{
		URL:   url,
		Title: title,
		HTML:  html,
		Text:  text,
		Links: toStrings(rawLinks),
	}, nil
}
