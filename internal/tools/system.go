package tools

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"
)

type SystemTool struct {
	Workspace *Workspace
}

func NewSystemTool(ws *Workspace) *SystemTool {
	return &SystemTool{Workspace: ws}
}

func (s *SystemTool) Name() string {
	return "system"
}

func (s *SystemTool) Description() string {
	return "Inspect and control the local machine. Actions: 'info' for host details, GUI automation via 'mouse_move', 'mouse_click', 'key_press', 'type_text', and 'desktop_screenshot'."
}

func (s *SystemTool) Params() []ParamSpec {
	return []ParamSpec{
		{Name: "action", Description: "The system action to perform", Required: true},
		{Name: "x", Description: "X coordinate for mouse_move"},
		{Name: "y", Description: "Y coordinate for mouse_move"},
		{Name: "button", Description: "Mouse button for mouse_click (1=left, 2=middle, 3=right)"},
		{Name: "key", Description: "Key or combination for key_press (e.g. 'Return', 'alt+Tab')"},
		{Name: "text", Description: "Text to type for type_text"},
	}
}

func (s *SystemTool) Invoke(ctx context.Context, args map[string]any) Result {
	action := strings.ToLower(strArg(args, "action"))

	switch action {
	case "info":
		return s.info()
	case "desktop_screenshot":
		return s.captureDesktop(ctx)
	case "mouse_move", "mouse_click", "key_press", "type_text":
		x, _ := intArg(args, "x")
		y, _ := intArg(args, "y")
		return s.xdotool(ctx, action, x, y, strArg(args, "button"), strArg(args, "key"), strArg(args, "text"))
	default:
		return Fail("invalid action %q: use info, mouse_move, mouse_click, key_press, type_text or desktop_screenshot", action)
	}
}

func (s *SystemTool) info() Result {
	hostname, _ := os.Hostname()
	wd, _ := os.Getwd()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	var b strings.Builder
	fmt.Fprintf(&b, "OS: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(&b, "Hostname: %s\n", hostname)
	fmt.Fprintf(&b, "CPUs: %d\n", runtime.NumCPU())
	fmt.Fprintf(&b, "Process memory: %.1f MB\n", float64(m.Alloc)/1024/1024)
	fmt.Fprintf(&b, "Working directory: %s\n", wd)
	fmt.Fprintf(&b, "Workspace: %s\n", s.Workspace.Root)
	fmt.Fprintf(&b, "Time: %s\n", time.Now().Format("2006-01-02 15:04:05 MST"))

	return OK("System information").WithData(b.String())
}

func (s *SystemTool) captureDesktop(ctx context.Context) Result {
	dir := filepath.Join(s.Workspace.Root, "screenshots")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Fail("failed to create screenshots directory: %v", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("desktop_%d.png", time.Now().Unix()))

	// ffmpeg first, scrot as the fallback.
	cmd := exec.CommandContext(ctx, "ffmpeg", "-f", "x11grab", "-i", ":0.0", "-frames:v", "1", path, "-y")
	output, err := cmd.CombinedOutput()
	if err != nil {
		cmd = exec.CommandContext(ctx, "scrot", path)
		output, err = cmd.CombinedOutput()
		if err != nil {
			return Fail("error capturing desktop: %v\nOutput: %s", err, string(output))
		}
	}

	return OK("Desktop screenshot saved to %s", path).WithFile(path)
}

func (s *SystemTool) xdotool(ctx context.Context, action string, x, y int, button, key, text string) Result {
	var cmdArgs []string
	switch action {
	case "mouse_move":
		cmdArgs = []string{"mousemove", strconv.Itoa(x), strconv.Itoa(y)}
	case "mouse_click":
		if button == "" {
			button = "1"
		}
		cmdArgs = []string{"click", button}
	case "key_press":
		if key == "" {
			return Fail("key is required for key_press")
		}
		cmdArgs = []string{"key", key}
	case "type_text":
		if text == "" {
			return Fail("text is required for type_text")
		}
		cmdArgs = []string{"type", text}
	}

	cmd := exec.CommandContext(ctx, "xdotool", cmdArgs...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if strings.Contains(err.Error(), "executable file not found") {
			return Fail("xdotool is not installed. Install it with 'sudo apt-get install xdotool'.")
		}
		return Fail("error executing xdotool: %v\nOutput: %s", err, string(output))
	}

	return OK("Successfully executed action: %s", action)
}
