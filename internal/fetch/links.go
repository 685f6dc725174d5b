package fetch

import (
	"net/url"
	"strings"
)

var textExtensions = []string{".csv", ".txt", ".json", ".log", ".xml", ".md"}

const pdfExtension = ".pdf"

// ResolveURL makes raw absolute against base. Empty input, or input that
// cannot be parsed, yields "".
func ResolveURL(base, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if u.IsAbs() {
		return raw
	}

	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	return b.ResolveReference(u).String()
}

// SelectTargets resolves links against base and splits them into text
// resources and PDFs. Matching ignores the query string and case; each URL
// appears once, in first-seen order.
func SelectTargets(base string, links []string) (texts, pdfs []string) {
	seen := make(map[string]struct{}, len(links))
	for _, link := range links {
		full := ResolveURL(base, link)
		if full == "" {
			continue
		}
		if _, dup := seen[full]; dup {
			continue
		}

		path := strings.ToLower(strings.SplitN(full, "?", 2)[0])
		switch {
		case hasAnySuffix(path, textExtensions):
			texts = append(texts, full)
		case strings.HasSuffix(path, pdfExtension):
			pdfs = append(pdfs, full)
		default:
			continue
		}
		seen[full] = struct{}{}
	}
	return texts, pdfs
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}
