package tools

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type FilesystemTool struct {
	Workspace *Workspace
}

func NewFilesystemTool(ws *Workspace) *FilesystemTool {
	return &FilesystemTool{Workspace: ws}
}

func (f *FilesystemTool) Name() string {
	return "filesystem"
}

func (f *FilesystemTool) Description() string {
	return "Manage local files: read, write, append, replace, delete, list, mkdir, copy, move, glob. Paths may use folder names like desktop, documents, downloads."
}

func (f *FilesystemTool) Params() []ParamSpec {
	return []ParamSpec{
		{Name: "action", Description: "One of: read, write, append, replace, delete, list, mkdir, copy, move, glob", Required: true},
		{Name: "path", Description: "Target file or directory path", Required: true},
		{Name: "content", Description: "Text content for write/append, or the replacement text for replace"},
		{Name: "search", Description: "Text to find (replace) or glob pattern (glob)"},
		{Name: "destination", Description: "Destination path for copy/move"},
	}
}

func (f *FilesystemTool) Invoke(ctx context.Context, args map[string]any) Result {
	action := strings.ToLower(strArg(args, "action"))
	path := strArg(args, "path")

	target, err := f.Workspace.Resolve(path)
	if err != nil {
		return Fail("cannot resolve path: %v", err)
	}

	switch action {
	case "read":
		data, err := os.ReadFile(target)
		if err != nil {
			return Fail("failed to read file: %v", err)
		}
		content := string(data)
		if len(content) > 50000 {
			content = content[:50000] + "\n... (truncated)"
		}
		return OK("Read %s (%d bytes)", path, len(data)).WithData(content)

	case "write":
		if err := f.Workspace.EnsureParent(target); err != nil {
			return Fail("failed to create directory: %v", err)
		}
		content := strArg(args, "content")
		if err := os.WriteFile(target, []byte(content), 0644); err != nil {
			return Fail("failed to write file: %v", err)
		}
		return OK("Successfully wrote %d bytes to %s", len(content), target).WithFile(target)

	case "append":
		if err := f.Workspace.EnsureParent(target); err != nil {
			return Fail("failed to create directory: %v", err)
		}
		fh, err := os.OpenFile(target, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return Fail("failed to open file: %v", err)
		}
		defer fh.Close()
		content := strArg(args, "content")
		if _, err := fh.WriteString(content); err != nil {
			return Fail("failed to append: %v", err)
		}
		return OK("Appended %d bytes to %s", len(content), target)

	case "replace":
		search := strArg(args, "search")
		if search == "" {
			return Fail("replace needs a non-empty 'search' text")
		}
		data, err := os.ReadFile(target)
		if err != nil {
			return Fail("failed to read file: %v", err)
		}
		count := strings.Count(string(data), search)
		if count == 0 {
			return Fail("text %q not found in %s", search, path)
		}
		updated := strings.ReplaceAll(string(data), search, strArg(args, "content"))
		if err := os.WriteFile(target, []byte(updated), 0644); err != nil {
			return Fail("failed to write file: %v", err)
		}
		return OK("Replaced %d occurrence(s) in %s", count, target)

	case "delete":
		if err := os.Remove(target); err != nil {
			return Fail("failed to delete: %v", err)
		}
		return OK("Successfully deleted %s", target)

	case "list":
		entries, err := os.ReadDir(target)
		if err != nil {
			return Fail("failed to list directory: %v", err)
		}
		if len(entries) == 0 {
			return OK("Directory %s is empty", target)
		}
		var b strings.Builder
		for _, entry := range entries {
			kind := "file"
			if entry.IsDir() {
				kind = "dir"
			}
			fmt.Fprintf(&b, "[%s] %s\n", kind, entry.Name())
		}
		return OK("Listed %d entries in %s", len(entries), target).WithData(b.String())

	case "mkdir":
		if err := os.MkdirAll(target, 0755); err != nil {
			return Fail("failed to create directory: %v", err)
		}
		return OK("Successfully created directory %s", target)

	case "copy":
		dest, err := f.Workspace.Resolve(strArg(args, "destination"))
		if err != nil {
			return Fail("cannot resolve destination: %v", err)
		}
		if err := copyFile(target, dest); err != nil {
			return Fail("copy failed: %v", err)
		}
		return OK("Copied %s to %s", target, dest).WithFile(dest)

	case "move":
		dest, err := f.Workspace.Resolve(strArg(args, "destination"))
		if err != nil {
			return Fail("cannot resolve destination: %v", err)
		}
		if err := f.Workspace.EnsureParent(dest); err != nil {
			return Fail("failed to create directory: %v", err)
		}
		if err := os.Rename(target, dest); err != nil {
			return Fail("move failed: %v", err)
		}
		return OK("Moved %s to %s", target, dest)

	case "glob":
		pattern := strArg(args, "search")
		if pattern == "" {
			pattern = "*"
		}
		matches, err := filepath.Glob(filepath.Join(target, pattern))
		if err != nil {
			return Fail("bad glob pattern: %v", err)
		}
		sort.Strings(matches)
		if len(matches) == 0 {
			return OK("No files match %s in %s", pattern, target)
		}
		return OK("Found %d match(es)", len(matches)).WithData(strings.Join(matches, "\n"))

	default:
		return Fail("invalid action %q: use read, write, append, replace, delete, list, mkdir, copy, move or glob", action)
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
