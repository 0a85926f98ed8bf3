package tools

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

type ShellTool struct {
	Workspace *Workspace
	Timeout   time.Duration
}

func NewShellTool(ws *Workspace) *ShellTool {
	return &ShellTool{Workspace: ws, Timeout: 60 * time.Second}
}

func (s *ShellTool) Name() string {
	return "shell"
}

func (s *ShellTool) Description() string {
	return "Execute a shell command in the workspace directory and return its output. Use with caution."
}

func (s *ShellTool) Params() []ParamSpec {
	return []ParamSpec{
		{Name: "command", Description: "The shell command to execute", Required: true},
	}
}

func (s *ShellTool) Invoke(ctx context.Context, args map[string]any) Result {
	command := strArg(args, "command")
	if strings.TrimSpace(command) == "" {
		return Fail("empty command")
	}

	runCtx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "bash", "-c", command)
	cmd.Dir = s.Workspace.Root

	output, err := cmd.CombinedOutput()
	result := strings.TrimSpace(string(output))
	if len(result) > 10000 {
		result = result[:10000] + "\n... (truncated)"
	}
	if result == "" {
		result = "(no output)"
	}

	if runCtx.Err() == context.DeadlineExceeded {
		return Fail("command timed out after %s\nOutput: %s", s.Timeout, result)
	}
	if err != nil {
		return Fail("command failed: %v\nOutput: %s", err, result)
	}
	return OK("Command succeeded").WithData(result)
}
