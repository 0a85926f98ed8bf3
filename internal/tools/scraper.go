package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
)

type ScraperTool struct {
	UserAgent string
	Client    *http.Client
}

func NewScraperTool() *ScraperTool {
	return &ScraperTool{
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
		Client:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *ScraperTool) Name() string {
	return "scraper"
}

func (s *ScraperTool) Description() string {
	return "Fetch a webpage URL and extract the main content as clean, sanitized text."
}

func (s *ScraperTool) Params() []ParamSpec {
	return []ParamSpec{
		{Name: "url", Description: "The full URL of the webpage to scrape (e.g., https://example.com/article)", Required: true},
	}
}

func (s *ScraperTool) Invoke(ctx context.Context, args map[string]any) Result {
	target := strArg(args, "url")
	if target == "" {
		return Fail("scraper needs a 'url'")
	}
	if !strings.Contains(target, "://") {
		target = "https://" + target
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Fail("failed to create request: %v", err)
	}
	req.Header.Set("User-Agent", s.UserAgent)

	resp, err := s.Client.Do(req)
	if err != nil {
		return Fail("failed to fetch URL: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Fail("failed to fetch URL: status code %d", resp.StatusCode)
	}

	parsedURL, err := url.Parse(target)
	if err != nil {
		return Fail("failed to parse URL: %v", err)
	}

	article, err := readability.FromReader(resp.Body, parsedURL)
	if err != nil {
		return Fail("failed to parse article: %v", err)
	}

	// Strip any tags readability left behind.
	sanitized := bluemonday.StrictPolicy().Sanitize(article.TextContent)

	var b strings.Builder
	fmt.Fprintf(&b, "TITLE: %s\n", article.Title)
	if article.Excerpt != "" {
		fmt.Fprintf(&b, "EXCERPT: %s\n", article.Excerpt)
	}
	b.WriteString("\n-- CONTENT --\n")

	content := sanitized
	if len(content) > 50000 {
		content = content[:50000] + "\n... (content truncated) ..."
	}
	b.WriteString(content)

	return OK("Scraped %s (%d chars)", target, len(content)).WithData(b.String())
}
