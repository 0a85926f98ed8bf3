package tools

import (
	"context"

	"github.com/tmc/langchaingo/tools/duckduckgo"
)

type SearchTool struct {
	client *duckduckgo.Tool
}

func NewSearchTool() (*SearchTool, error) {
	ddg, err := duckduckgo.New(10, duckduckgo.DefaultUserAgent)
	if err != nil {
		return nil, err
	}
	return &SearchTool{client: ddg}, nil
}

func (s *SearchTool) Name() string {
	return "search"
}

func (s *SearchTool) Description() string {
	return "Search the web using DuckDuckGo for real-time information."
}

func (s *SearchTool) Params() []ParamSpec {
	return []ParamSpec{
		{Name: "query", Description: "The search query to look up", Required: true},
	}
}

func (s *SearchTool) Invoke(ctx context.Context, args map[string]any) Result {
	query := strArg(args, "query")
	if query == "" {
		return Fail("search needs a 'query'")
	}

	res, err := s.client.Call(ctx, query)
	if err != nil {
		return Fail("search failed: %v", err)
	}
	return OK("Search results for %q", query).WithData(res)
}
