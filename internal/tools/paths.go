package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Workspace resolves the paths the model produces into absolute paths.
// Models refer to user folders loosely ("desktop/report.xlsx", "~/notes"),
// so well-known folder names, including their Polish spellings, resolve to
// the real user directories. Plain relative paths stay confined to the
// workspace root.
type Workspace struct {
	Root string

	home    string
	aliases map[string]string
}

func NewWorkspace(root string) *Workspace {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	if root == "" {
		root = "workspace"
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	_ = os.MkdirAll(abs, 0755)

	return &Workspace{
		Root: abs,
		home: home,
		aliases: map[string]string{
			"desktop":   filepath.Join(home, "Desktop"),
			"pulpit":    filepath.Join(home, "Desktop"),
			"documents": filepath.Join(home, "Documents"),
			"dokumenty": filepath.Join(home, "Documents"),
			"downloads": filepath.Join(home, "Downloads"),
			"pobrane":   filepath.Join(home, "Downloads"),
			"home":      home,
		},
	}
}

// Resolve maps a model-supplied path to an absolute one. Absolute paths and
// ~ expansions pass through, a leading folder alias resolves to the matching
// user directory, and anything else lands inside the workspace root. A
// relative path that climbs out of the root is rejected.
func (w *Workspace) Resolve(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", fmt.Errorf("empty path")
	}

	if p == "~" {
		return w.home, nil
	}
	if strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`) {
		return filepath.Join(w.home, p[2:]), nil
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p), nil
	}

	norm := filepath.ToSlash(p)
	first, rest := norm, ""
	if i := strings.Index(norm, "/"); i >= 0 {
		first, rest = norm[:i], norm[i+1:]
	}
	if dir, ok := w.aliases[strings.ToLower(first)]; ok {
		return filepath.Join(dir, filepath.FromSlash(rest)), nil
	}

	target := filepath.Join(w.Root, p)
	rel, err := filepath.Rel(w.Root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("unsafe path: %s", p)
	}
	return target, nil
}

// EnsureParent creates the parent directory of path if needed.
func (w *Workspace) EnsureParent(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0755)
}
