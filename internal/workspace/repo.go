package workspace

import (
	"os"
	"path/filepath"
	"strings"
)

const localBranch = "local"

// DefaultRepoID derives the "<name>@<branch>" identifier used for combined
// analysis. The branch comes from the enclosing git checkout when there is
// one, otherwise "local".
func DefaultRepoID(root string) string {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		absRoot = root
	}
	name := filepath.Base(absRoot)
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = "plugin"
	}

	branch := gitBranch(absRoot)
	if branch == "" {
		branch = localBranch
	}
	return name + "@" + branch
}

// gitBranch walks up from dir to the nearest .git marker and reads the
// checked-out branch from HEAD. Detached heads yield "".
func gitBranch(dir string) string {
	current := dir
	for {
		gitPath := filepath.Join(current, ".git")
		if info, err := os.Stat(gitPath); err == nil {
			gitDir := gitPath
			if !info.IsDir() {
				// worktrees and submodules: ".git" is a file pointing elsewhere
				gitDir = resolveGitFile(current, gitPath)
				if gitDir == "" {
					return ""
				}
			}
			return branchFromHead(filepath.Join(gitDir, "HEAD"))
		}

		parent := filepath.Dir(current)
		if parent == current {
			return ""
		}
		current = parent
	}
}

func resolveGitFile(dir, gitFile string) string {
	data, err := os.ReadFile(gitFile)
	if err != nil {
		return ""
	}
	target, ok := strings.CutPrefix(strings.TrimSpace(string(data)), "gitdir:")
	if !ok {
		return ""
	}
	target = strings.TrimSpace(target)
	if !filepath.IsAbs(target) {
		target = filepath.Join(dir, target)
	}
	return target
}

func branchFromHead(headPath string) string {
	data, err := os.ReadFile(headPath)
	if err != nil {
		return ""
	}
	ref, ok := strings.CutPrefix(strings.TrimSpace(string(data)), "ref: refs/heads/")
	if !ok {
		return ""
	}
	return ref
}
