package enrich

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"go.uber.org/zap"
)

// Extractor turns raw page content into a cleaned body text and a
// short summary. Both results may be empty; extraction never fails.
type Extractor interface {
	Extract(htmlContent, pageURL string) (bodyText, summary string)
}

// titleMaxChars caps the title-tag fallback, which is shorter than a
// real description and should not fill the whole summary budget.
const titleMaxChars = 200

// minParagraphChars is the threshold for a paragraph to count as
// meaningful summary material.
const minParagraphChars = 50

// summaryContainers are tried in order when no meta description is
// present; the first sufficiently long paragraph inside one wins.
var summaryContainers = []string{"main", "article", `[role="main"]`, ".content", "#content", "body"}

// HTMLExtractor implements Extractor with a readability pass for body
// text and an ordered fallback chain for the summary.
type HTMLExtractor struct {
	summaryMax int
	bodyMax    int
	logger     *zap.Logger
}

// NewHTMLExtractor builds an extractor honoring the configured length caps.
func NewHTMLExtractor(cfg Config, logger *zap.Logger) *HTMLExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTMLExtractor{
		summaryMax: cfg.SummaryMaxChars,
		bodyMax:    cfg.BodyMaxChars,
		logger:     logger,
	}
}

// Extract returns the cleaned body text and the best available summary
// for the page. The page URL is only used to resolve relative links
// during the readability pass.
func (e *HTMLExtractor) Extract(htmlContent, pageURL string) (string, string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		e.logger.Debug("unparseable HTML", zap.Error(err))
		return "", ""
	}
	return e.bodyText(htmlContent, pageURL, doc), e.summary(doc)
}

// summary walks the fallback chain: Open Graph description, meta
// description, Twitter-card description, JSON-LD blocks, first
// meaningful paragraph of a content container, then the page title.
func (e *HTMLExtractor) summary(doc *goquery.Document) string {
	metaSelectors := []string{
		`meta[property="og:description"]`,
		`meta[name="description"]`,
		`meta[name="twitter:description"]`,
	}
	for _, sel := range metaSelectors {
		if content, ok := doc.Find(sel).First().Attr("content"); ok {
			if desc := strings.TrimSpace(content); desc != "" {
				return truncateRunes(desc, e.summaryMax)
			}
		}
	}

	if desc := linkedDataDescription(doc); desc != "" {
		return truncateRunes(desc, e.summaryMax)
	}

	for _, sel := range summaryContainers {
		container := doc.Find(sel).First()
		if container.Length() == 0 {
			continue
		}
		var found string
		container.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
			text := strings.TrimSpace(p.Text())
			if len([]rune(text)) > minParagraphChars {
				found = text
				return false
			}
			return true
		})
		if found != "" {
			return truncateRunes(found, e.summaryMax)
		}
	}

	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return truncateRunes(title, titleMaxChars)
	}
	return ""
}

// linkedDataDescription scans JSON-LD script blocks for description,
// about, or abstract fields, descending one level into @graph arrays.
func linkedDataDescription(doc *goquery.Document) string {
	var found string
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var data map[string]any
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return true
		}
		if desc := descriptionField(data); desc != "" {
			found = desc
			return false
		}
		graph, ok := data["@graph"].([]any)
		if !ok {
			return true
		}
		for _, item := range graph {
			node, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if desc, ok := node["description"].(string); ok {
				if desc = strings.TrimSpace(desc); desc != "" {
					found = desc
					return false
				}
			}
		}
		return true
	})
	return found
}

func descriptionField(data map[string]any) string {
	for _, key := range []string{"description", "about", "abstract"} {
		if value, ok := data[key].(string); ok {
			if value = strings.TrimSpace(value); value != "" {
				return value
			}
		}
	}
	return ""
}

// bodyText prefers the readability extraction; when it comes back
// empty the page is stripped of script/style/meta/link elements and
// converted to plain text with blank lines collapsed.
func (e *HTMLExtractor) bodyText(htmlContent, pageURL string, doc *goquery.Document) string {
	parsed, err := url.Parse(pageURL)
	if err != nil || pageURL == "" {
		parsed = &url.URL{}
	}
	article, err := readability.FromReader(strings.NewReader(htmlContent), parsed)
	if err == nil {
		if text := strings.TrimSpace(article.TextContent); text != "" {
			return e.capBody(text)
		}
	}
	e.logger.Debug("readability returned no content, falling back to plain text",
		zap.String("url", pageURL))

	doc.Find("script, style, meta, link").Remove()
	raw := doc.Find("body").Text()
	if strings.TrimSpace(raw) == "" {
		raw = doc.Text()
	}
	lines := strings.Split(raw, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return e.capBody(strings.Join(kept, "\n"))
}

func (e *HTMLExtractor) capBody(text string) string {
	runes := []rune(text)
	if len(runes) <= e.bodyMax {
		return text
	}
	return string(runes[:e.bodyMax]) + "..."
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
