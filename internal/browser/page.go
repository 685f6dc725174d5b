package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	BackendPlaywright = "playwright"
	BackendChromedp   = "chromedp"
	BackendStatic     = "static"
)

// DefaultRenderTimeout bounds navigation plus the wait for network idle.
const DefaultRenderTimeout = 60 * time.Second

// Page is what a renderer hands back: cleaned HTML, the visible body text
// and the raw href of every anchor, in document order.
type Page struct {
	URL   string
	Title string
	HTML  string
	Text  string
	Links []string
}

type Renderer interface {
	Render(ctx context.Context, url string) (*Page, error)
	Close() error
}

// New starts the renderer for backend.
func New(backend string, timeout time.Duration, logger *slog.Logger) (Renderer, error) {
	if timeout <= 0 {
		timeout = DefaultRenderTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "browser", "backend", backend)

	switch backend {
	case "", BackendPlaywright:
		return NewManager(timeout, logger)
	case BackendChromedp:
		return NewChromeRenderer(timeout, logger), nil
	case BackendStatic:
		return NewStaticRenderer(timeout, logger), nil
	default:
		return nil, fmt.Errorf("unknown renderer %q", backend)
	}
}

// cleanupScript drops the elements that only cost tokens while keeping the
// rest of the markup, attributes and comments included.
const cleanupScript = `() => {
	document.querySelectorAll('script, style, svg, link[rel="stylesheet"]').forEach(e => e.remove());
	return true;
}`

// linksScript returns the href attribute of every anchor as written.
const linksScript = `() => Array.from(document.querySelectorAll('a'))
	.map(a => a.getAttribute('href'))
	.filter(h => h)`

// stripSelector is the goquery equivalent of cleanupScript.
const stripSelector = `script, style, svg, link[rel="stylesheet"]`

func toStrings(v any) []string {
	items, ok := v.([]any)
	if !ok {
		if ss, ok := v.([]string); ok {
			return ss
		}
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
