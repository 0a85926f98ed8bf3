package tools

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
)

type DocumentTool struct {
	Workspace *Workspace

	md goldmark.Markdown
}

func NewDocumentTool(ws *Workspace) *DocumentTool {
	return &DocumentTool{
		Workspace: ws,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(htmlrenderer.WithHardWraps()),
		),
	}
}

func (d *DocumentTool) Name() string {
	return "document"
}

func (d *DocumentTool) Description() string {
	return "Write a formatted document from markdown content. Saves raw markdown for .md paths and renders a styled standalone HTML page otherwise."
}

func (d *DocumentTool) Params() []ParamSpec {
	return []ParamSpec{
		{Name: "path", Description: "Output file path (.html or .md)", Required: true},
		{Name: "content", Description: "Document body in markdown", Required: true},
		{Name: "title", Description: "Document title"},
	}
}

func (d *DocumentTool) Invoke(ctx context.Context, args map[string]any) Result {
	path, err := d.Workspace.Resolve(strArg(args, "path"))
	if err != nil {
		return Fail("cannot resolve path: %v", err)
	}
	content := strArg(args, "content")
	if strings.TrimSpace(content) == "" {
		return Fail("document needs non-empty 'content'")
	}
	title := strArg(args, "title")
	if title == "" {
		title = "Document"
	}

	if err := d.Workspace.EnsureParent(path); err != nil {
		return Fail("failed to create directory: %v", err)
	}

	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".md") || strings.HasSuffix(lower, ".markdown") {
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return Fail("failed to write document: %v", err)
		}
		return OK("Saved markdown document %s (%d bytes)", path, len(content)).WithFile(path)
	}
	if !strings.HasSuffix(lower, ".html") && !strings.HasSuffix(lower, ".htm") {
		path += ".html"
	}

	var body bytes.Buffer
	if err := d.md.Convert([]byte(content), &body); err != nil {
		return Fail("failed to render markdown: %v", err)
	}

	page := fmt.Sprintf(docTemplate, title, title, body.String())
	if err := os.WriteFile(path, []byte(page), 0644); err != nil {
		return Fail("failed to write document: %v", err)
	}
	return OK("Rendered document %q to %s", title, path).WithFile(path)
}

const docTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
<style>
  body { font-family: Georgia, 'Times New Roman', serif; max-width: 52rem; margin: 2rem auto; padding: 0 1rem; line-height: 1.6; color: #222; }
  h1, h2, h3 { font-family: 'Segoe UI', Helvetica, Arial, sans-serif; color: #1a3b5d; }
  h1 { border-bottom: 2px solid #1a3b5d; padding-bottom: .3rem; }
  table { border-collapse: collapse; width: 100%%; margin: 1rem 0; }
  th, td { border: 1px solid #ccc; padding: .4rem .6rem; text-align: left; }
  th { background: #eef2f7; }
  pre { background: #f6f8fa; padding: .8rem; overflow-x: auto; border-radius: 4px; }
  code { font-family: Consolas, monospace; font-size: .95em; }
  blockquote { border-left: 4px solid #1a3b5d; margin-left: 0; padding-left: 1rem; color: #555; }
</style>
</head>
<body>
<h1>%s</h1>
%s
</body>
</html>
`
