package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/nbenliogludev/quiz-chain-solver/internal/metrics"
)

const (
	MaxResourceChars = 15000
	truncatedMarker  = "... [Content Truncated] ...\n"

	defaultConcurrency = 4
)

// Gatherer downloads the data files a quiz page links to and renders them
// into one labeled text blob for the executor prompt.
type Gatherer struct {
	downloader  Downloader
	concurrency int
	logger      *slog.Logger
}

func NewGatherer(d Downloader, logger *slog.Logger) *Gatherer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gatherer{
		downloader:  d,
		concurrency: defaultConcurrency,
		logger:      logger.With("component", "fetch"),
	}
}

// Gather fetches every text resource and PDF among links. Failed downloads
// are logged and left out. Blocks keep link order: text files first, then
// PDFs.
func (g *Gatherer) Gather(ctx context.Context, baseURL string, links []string) string {
	textURLs, pdfURLs := SelectTargets(baseURL, links)
	if len(textURLs)+len(pdfURLs) == 0 {
		return ""
	}

	blocks := make([]string, len(textURLs)+len(pdfURLs))

	var eg errgroup.Group
	eg.SetLimit(g.concurrency)
	for i, u := range textURLs {
		eg.Go(func() error {
			blocks[i] = g.textBlock(ctx, u)
			return nil
		})
	}
	for i, u := range pdfURLs {
		eg.Go(func() error {
			blocks[len(textURLs)+i] = g.pdfBlock(ctx, u)
			return nil
		})
	}
	_ = eg.Wait()

	return strings.Join(blocks, "")
}

func (g *Gatherer) textBlock(ctx context.Context, url string) string {
	body, err := g.downloader.Download(ctx, url)
	if err != nil {
		metrics.ResourceFetches.WithLabelValues("text", "error").Inc()
		g.logger.Warn("failed to fetch linked file", "url", url, "error", err)
		return ""
	}
	metrics.ResourceFetches.WithLabelValues("text", "ok").Inc()

	content, truncated := truncateRunes(strings.ToValidUTF8(string(body), "�"), MaxResourceChars)
	block := fmt.Sprintf("\n\n--- CONTENT OF LINKED FILE: %s ---\n%s\n", url, content)
	if truncated {
		block += truncatedMarker
	}
	g.logger.Debug("fetched linked file", "url", url, "bytes", len(body), "truncated", truncated)
	return block
}

func (g *Gatherer) pdfBlock(ctx context.Context, url string) string {
	body, err := g.downloader.Download(ctx, url)
	if err != nil {
		metrics.ResourceFetches.WithLabelValues("pdf", "error").Inc()
		g.logger.Warn("failed to fetch pdf", "url", url, "error", err)
		return ""
	}
	metrics.ResourceFetches.WithLabelValues("pdf", "ok").Inc()

	return fmt.Sprintf("\n\n--- CONTENT OF PDF %s ---\n%s\n", url, ExtractPDFText(body))
}

func truncateRunes(s string, limit int) (string, bool) {
	r := []rune(s)
	if len(r) <= limit {
		return s, false
	}
	return string(r[:limit]), true
}
