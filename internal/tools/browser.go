package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/chromedp"
)

// BrowserTool drives a real Chrome instance. The browser starts lazily on
// the first action and the same session is reused by every later step, so
// navigation state survives across a plan. Close (the action or the
// registry's shutdown) releases it.
type BrowserTool struct {
	Workspace *Workspace

	mu            sync.Mutex
	allocCtx      context.Context
	browserCtx    context.Context
	allocCancel   context.CancelFunc
	browserCancel context.CancelFunc
}

func NewBrowserTool(ws *Workspace) *BrowserTool {
	return &BrowserTool{Workspace: ws}
}

func (b *BrowserTool) Name() string {
	return "browser"
}

func (b *BrowserTool) Description() string {
	return "Control a browser to interact with websites. The window stays open between steps until you call 'close'. Actions: 'navigate', 'click', 'content', 'type', 'press', 'scroll', 'wait', 'back', 'forward', 'reload', 'screenshot', 'close'."
}

func (b *BrowserTool) Params() []ParamSpec {
	return []ParamSpec{
		{Name: "action", Description: "The browser action to perform", Required: true},
		{Name: "url", Description: "URL for 'navigate'"},
		{Name: "selector", Description: "CSS selector for 'click', 'type', 'press', 'scroll', 'wait'"},
		{Name: "text", Description: "Text to type or key to press"},
		{Name: "wait_seconds", Description: "Seconds to pause for 'wait'"},
	}
}

func (b *BrowserTool) initBrowser(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browserCtx != nil {
		select {
		case <-b.browserCtx.Done():
			b.cleanup()
		default:
			return nil
		}
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("headless", false),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
	)

	b.allocCtx, b.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	b.browserCtx, b.browserCancel = chromedp.NewContext(b.allocCtx)

	return chromedp.Run(b.browserCtx)
}

func (b *BrowserTool) cleanup() {
	if b.browserCancel != nil {
		b.browserCancel()
	}
	if b.allocCancel != nil {
		b.allocCancel()
	}
	b.browserCtx = nil
	b.allocCtx = nil
	b.browserCancel = nil
	b.allocCancel = nil
}

// Close shuts the shared browser session down. Safe to call when no session
// was ever started.
func (b *BrowserTool) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cleanup()
	return nil
}

func (b *BrowserTool) Invoke(ctx context.Context, args map[string]any) Result {
	action := strings.ToLower(strArg(args, "action"))

	if action == "close" {
		_ = b.Close()
		return OK("Successfully closed the browser.")
	}

	if err := b.initBrowser(ctx); err != nil {
		return Fail("failed to initialize browser: %v", err)
	}

	actionCtx, cancel := context.WithTimeout(b.browserCtx, 60*time.Second)
	defer cancel()

	selector := strArg(args, "selector")
	text := strArg(args, "text")

	var result string
	var err error

	switch action {
	case "navigate":
		url := strArg(args, "url")
		if url == "" {
			return Fail("url is required for 'navigate'")
		}
		if !strings.Contains(url, "://") {
			url = "https://" + url
		}
		err = chromedp.Run(actionCtx, chromedp.Navigate(url))
		result = fmt.Sprintf("Successfully navigated to %s", url)

	case "content":
		var html string
		err = chromedp.Run(actionCtx,
			chromedp.ActionFunc(func(ctx context.Context) error {
				node, err := dom.GetDocument().Do(ctx)
				if err != nil {
					return err
				}
				html, err = dom.GetOuterHTML().WithNodeID(node.NodeID).Do(ctx)
				return err
			}),
		)
		if len(html) > 50000 {
			html = html[:50000] + "\n... (truncated)"
		}
		result = html

	case "click":
		if selector == "" {
			return Fail("selector required for 'click'")
		}
		err = chromedp.Run(actionCtx, chromedp.Click(selector, chromedp.ByQuery))
		result = fmt.Sprintf("Clicked %s", selector)

	case "type":
		if selector == "" || text == "" {
			return Fail("selector and text required for 'type'")
		}
		err = chromedp.Run(actionCtx, chromedp.SendKeys(selector, text, chromedp.ByQuery))
		result = fmt.Sprintf("Typed text in %s", selector)

	case "press":
		if text == "" {
			return Fail("text (key) required for 'press'")
		}
		err = chromedp.Run(actionCtx, chromedp.KeyEvent(text))
		result = fmt.Sprintf("Pressed key: %s", text)

	case "scroll":
		if selector != "" {
			err = chromedp.Run(actionCtx, chromedp.ScrollIntoView(selector, chromedp.ByQuery))
			result = fmt.Sprintf("Scrolled to %s", selector)
		} else {
			err = chromedp.Run(actionCtx, chromedp.Evaluate("window.scrollTo(0, document.body.scrollHeight)", nil))
			result = "Scrolled to bottom"
		}

	case "wait":
		seconds, _ := intArg(args, "wait_seconds")
		if selector != "" {
			err = chromedp.Run(actionCtx, chromedp.WaitVisible(selector, chromedp.ByQuery))
			result = fmt.Sprintf("Finished waiting for %s", selector)
		} else if seconds > 0 {
			time.Sleep(time.Duration(seconds) * time.Second)
			result = fmt.Sprintf("Waited for %d seconds", seconds)
		} else {
			result = "Nothing to wait for"
		}

	case "back":
		err = chromedp.Run(actionCtx, chromedp.NavigateBack())
		result = "Navigated back"

	case "forward":
		err = chromedp.Run(actionCtx, chromedp.NavigateForward())
		result = "Navigated forward"

	case "reload":
		err = chromedp.Run(actionCtx, chromedp.Reload())
		result = "Page reloaded"

	case "screenshot":
		var buf []byte
		err = chromedp.Run(actionCtx, chromedp.CaptureScreenshot(&buf))
		if err == nil {
			dir := filepath.Join(b.Workspace.Root, "screenshots")
			if mkErr := os.MkdirAll(dir, 0755); mkErr != nil {
				return Fail("failed to create screenshots directory: %v", mkErr)
			}
			path := filepath.Join(dir, fmt.Sprintf("screenshot_%d.png", time.Now().Unix()))
			if err = os.WriteFile(path, buf, 0644); err == nil {
				return OK("Screenshot saved to %s", path).WithFile(path)
			}
		}

	default:
		return Fail("invalid browser action %q", action)
	}

	if err != nil {
		return Fail("browser action failed: %v", err)
	}

	if action == "content" {
		return OK("Fetched page content (%d bytes)", len(result)).WithData(result)
	}
	return OK("%s", result)
}
